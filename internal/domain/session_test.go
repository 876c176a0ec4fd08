// internal/domain/session_test.go
package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSession_Lifecycle(t *testing.T) {
	sess := NewSession()
	assert.NotEqual(t, uuid.Nil, sess.ID)
	assert.Equal(t, SessionLoggedOut, sess.State())
	assert.False(t, sess.Active())
	assert.Nil(t, sess.Account())

	acct := &Account{ID: 7, Name: "Alice", PIN: "1234", Balance: decimal.NewFromInt(100)}
	sess.Login(acct)
	assert.Equal(t, SessionLoggedIn, sess.State())
	assert.True(t, sess.Active())
	assert.Equal(t, int64(7), sess.Account().ID)

	// The session holds its own copy.
	acct.Balance = decimal.Zero
	assert.True(t, sess.Account().Balance.Equal(decimal.NewFromInt(100)))

	sess.Logout()
	assert.Equal(t, SessionLoggedOut, sess.State())
	assert.Nil(t, sess.Account())
}

func TestSession_Refresh(t *testing.T) {
	sess := NewSession()
	sess.Refresh(&Account{ID: 1})
	assert.False(t, sess.Active(), "refresh does not log in")

	sess.Login(&Account{ID: 1, Balance: decimal.NewFromInt(10)})
	sess.Refresh(&Account{ID: 2, Balance: decimal.NewFromInt(99)})
	assert.True(t, sess.Account().Balance.Equal(decimal.NewFromInt(10)), "other account ignored")

	sess.Refresh(&Account{ID: 1, Balance: decimal.NewFromInt(25)})
	assert.True(t, sess.Account().Balance.Equal(decimal.NewFromInt(25)))
}

func TestSessionState_String(t *testing.T) {
	assert.Equal(t, "LoggedOut", SessionLoggedOut.String())
	assert.Equal(t, "LoggedIn", SessionLoggedIn.String())
}

func TestTransactionType_Valid(t *testing.T) {
	assert.True(t, TransactionTypeDeposit.Valid())
	assert.True(t, TransactionTypeWithdraw.Valid())
	assert.False(t, TransactionType("Transfer").Valid())
}
