// internal/repository/ledger_test.go
package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"atm/internal/domain"
	"atm/internal/repository"
	"atm/internal/repository/sqlstore"
	"atm/internal/util"
	"atm/pkg/db"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.Local)

func newTestLedger(t *testing.T) (repository.LedgerStore, *sqlx.DB) {
	t.Helper()
	database, err := db.Open(db.Config{Driver: db.DriverSQLite, Path: filepath.Join(t.TempDir(), "atm.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	store := repository.NewLedger(database,
		sqlstore.NewAccountRepository(),
		sqlstore.NewTransactionRepository(),
		repository.WithClock(func() time.Time { return fixedNow }),
	)
	_, err = store.Initialize(context.Background())
	require.NoError(t, err)
	return store, database
}

func TestLedger_InitializeTwice(t *testing.T) {
	store, _ := newTestLedger(t)

	status, err := store.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.PreVersion, status.PostVersion)
}

func TestLedger_CreateAndFindAccount(t *testing.T) {
	store, _ := newTestLedger(t)
	ctx := context.Background()

	created, err := store.CreateAccount(ctx, "Alice", "1234", decimal.RequireFromString("100.0"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := store.FindAccountByPIN(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Alice", found.Name)
	assert.True(t, found.Balance.Equal(decimal.NewFromInt(100)))

	byID, err := store.FindAccountByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, found.ID, byID.ID)
	assert.Equal(t, found.PIN, byID.PIN)
	assert.True(t, found.Balance.Equal(byID.Balance))
}

func TestLedger_FindAccountByPIN_NotFound(t *testing.T) {
	store, _ := newTestLedger(t)

	account, err := store.FindAccountByPIN(context.Background(), "0000")
	assert.ErrorIs(t, err, util.ErrNotFound)
	assert.Nil(t, account)

	account, err = store.FindAccountByID(context.Background(), 42)
	assert.ErrorIs(t, err, util.ErrNotFound)
	assert.Nil(t, account)
}

func TestLedger_CreateAccount_NegativeBalance(t *testing.T) {
	store, database := newTestLedger(t)

	_, err := store.CreateAccount(context.Background(), "Bob", "1111", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, util.ErrValidation)

	var count int
	require.NoError(t, database.Get(&count, `SELECT COUNT(*) FROM users`))
	assert.Zero(t, count)
}

func TestLedger_SharedPIN(t *testing.T) {
	store, _ := newTestLedger(t)
	ctx := context.Background()

	first, err := store.CreateAccount(ctx, "First", "2222", decimal.NewFromInt(10))
	require.NoError(t, err)
	second, err := store.CreateAccount(ctx, "Second", "2222", decimal.NewFromInt(20))
	require.NoError(t, err)

	found, err := store.FindAccountByPIN(ctx, "2222")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID, "lowest id wins")

	require.NoError(t, store.UpdateBalance(ctx, "2222", decimal.NewFromInt(5)))

	for _, id := range []int64{first.ID, second.ID} {
		acct, err := store.FindAccountByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, acct.Balance.Equal(decimal.NewFromInt(5)), "every account sharing the PIN is updated")
	}
}

func TestLedger_UpdateBalance_UnknownPIN(t *testing.T) {
	store, _ := newTestLedger(t)

	err := store.UpdateBalance(context.Background(), "nope", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestLedger_AppendAndListTransactions(t *testing.T) {
	store, _ := newTestLedger(t)
	ctx := context.Background()

	account, err := store.CreateAccount(ctx, "Alice", "1234", decimal.Zero)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		_, err := store.AppendTransaction(ctx, account.ID, domain.TransactionTypeDeposit, decimal.NewFromInt(10), decimal.NewFromInt(int64(10*i)))
		require.NoError(t, err)
	}

	txns, err := store.ListTransactions(ctx, account.ID, 3)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.True(t, txns[0].ID > txns[1].ID && txns[1].ID > txns[2].ID, "newest first")
	assert.True(t, txns[0].BalanceAfter.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, domain.TransactionTypeDeposit, txns[0].Type)
	assert.True(t, fixedNow.Truncate(time.Second).Equal(txns[0].DateTime))

	none, err := store.ListTransactions(ctx, account.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLedger_AppendTransaction_UnknownType(t *testing.T) {
	store, _ := newTestLedger(t)

	_, err := store.AppendTransaction(context.Background(), 1, domain.TransactionType("Transfer"), decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestLedger_ApplyLedgerEntry(t *testing.T) {
	store, database := newTestLedger(t)
	ctx := context.Background()

	account, err := store.CreateAccount(ctx, "Alice", "1234", decimal.NewFromInt(100))
	require.NoError(t, err)

	txn, err := store.ApplyLedgerEntry(ctx, repository.LedgerEntry{
		AccountID:    account.ID,
		Type:         domain.TransactionTypeWithdraw,
		Amount:       decimal.RequireFromString("40.25"),
		BalanceAfter: decimal.RequireFromString("59.75"),
	})
	require.NoError(t, err)
	assert.NotZero(t, txn.ID)

	refreshed, err := store.FindAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.Balance.Equal(decimal.RequireFromString("59.75")))

	var dateTime string
	require.NoError(t, database.Get(&dateTime, `SELECT date_time FROM transactions WHERE id = ?`, txn.ID))
	assert.Equal(t, "2025-03-14 09:26:53", dateTime)
}

func TestLedger_ApplyLedgerEntry_UnknownAccountRollsBack(t *testing.T) {
	store, database := newTestLedger(t)

	_, err := store.ApplyLedgerEntry(context.Background(), repository.LedgerEntry{
		AccountID:    99,
		Type:         domain.TransactionTypeDeposit,
		Amount:       decimal.NewFromInt(1),
		BalanceAfter: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, util.ErrNotFound)

	var count int
	require.NoError(t, database.Get(&count, `SELECT COUNT(*) FROM transactions`))
	assert.Zero(t, count, "no transaction row without a balance update")
}

func TestLedger_LegacyRowsWithNulls(t *testing.T) {
	store, database := newTestLedger(t)

	database.MustExec(`INSERT INTO users (name, pin, balance) VALUES (NULL, '5555', NULL)`)
	database.MustExec(`INSERT INTO transactions (user_id, txn_type, amount, balance_after, date_time) VALUES (1, 'Deposit', 5, 5, 'not a date')`)

	account, err := store.FindAccountByPIN(context.Background(), "5555")
	require.NoError(t, err)
	assert.Equal(t, "", account.Name)
	assert.True(t, account.Balance.IsZero())

	txns, err := store.ListTransactions(context.Background(), account.ID, 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.True(t, txns[0].DateTime.IsZero())
}

func TestLedger_RejectsNonFiniteAmounts(t *testing.T) {
	store, database := newTestLedger(t)
	ctx := context.Background()
	huge := decimal.RequireFromString("1e400")

	_, err := store.CreateAccount(ctx, "Big", "1", huge)
	assert.ErrorIs(t, err, util.ErrValidation)

	account, err := store.CreateAccount(ctx, "Alice", "1234", decimal.NewFromInt(1))
	require.NoError(t, err)

	_, err = store.ApplyLedgerEntry(ctx, repository.LedgerEntry{
		AccountID:    account.ID,
		Type:         domain.TransactionTypeDeposit,
		Amount:       huge,
		BalanceAfter: huge,
	})
	assert.ErrorIs(t, err, util.ErrValidation)
	_, err = store.AppendTransaction(ctx, account.ID, domain.TransactionTypeDeposit, decimal.NewFromInt(1), huge.Neg())
	assert.ErrorIs(t, err, util.ErrValidation)
	assert.ErrorIs(t, store.UpdateBalance(ctx, "1234", huge), util.ErrValidation)

	var count int
	require.NoError(t, database.Get(&count, `SELECT COUNT(*) FROM transactions`))
	assert.Zero(t, count)
	refreshed, err := store.FindAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.Balance.Equal(decimal.NewFromInt(1)))
}

func TestLedger_ApplyLedgerEntry_ReturnsStoredValues(t *testing.T) {
	store, _ := newTestLedger(t)
	ctx := context.Background()

	account, err := store.CreateAccount(ctx, "Alice", "1234", decimal.RequireFromString("0.1"))
	require.NoError(t, err)

	txn, err := store.ApplyLedgerEntry(ctx, repository.LedgerEntry{
		AccountID:    account.ID,
		Type:         domain.TransactionTypeDeposit,
		Amount:       decimal.RequireFromString("12345678901234567.79"),
		BalanceAfter: decimal.RequireFromString("12345678901234567.89"),
	})
	require.NoError(t, err)

	refreshed, err := store.FindAccountByID(ctx, account.ID)
	require.NoError(t, err)
	txns, err := store.ListTransactions(ctx, account.ID, 1)
	require.NoError(t, err)
	require.Len(t, txns, 1)

	assert.True(t, txn.BalanceAfter.Equal(refreshed.Balance), "returned %s, account %s", txn.BalanceAfter, refreshed.Balance)
	assert.True(t, txn.BalanceAfter.Equal(txns[0].BalanceAfter))
	assert.True(t, txn.Amount.Equal(txns[0].Amount))
}

func TestLedger_LegacyNonFiniteRowsAreErrors(t *testing.T) {
	store, database := newTestLedger(t)
	ctx := context.Background()

	// 1e999 overflows to +Inf in SQLite, as a float('inf') written by the legacy tool would.
	database.MustExec(`INSERT INTO users (name, pin, balance) VALUES ('Big', '7777', 1e999)`)
	database.MustExec(`INSERT INTO users (name, pin, balance) VALUES ('Alice', '1234', 5)`)
	database.MustExec(`INSERT INTO transactions (user_id, txn_type, amount, balance_after, date_time) VALUES (2, 'Deposit', 1e999, 1e999, '2025-03-14 09:26:53')`)

	_, err := store.FindAccountByPIN(ctx, "7777")
	require.Error(t, err)
	assert.NotErrorIs(t, err, util.ErrNotFound)

	_, err = store.ListTransactions(ctx, 2, 10)
	assert.Error(t, err)
}
