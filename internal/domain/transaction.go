// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionType defines the type of a balance-mutating event.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "Deposit"
	TransactionTypeWithdraw TransactionType = "Withdraw"
)

// DateTimeLayout is the persisted format of Transaction.DateTime.
const DateTimeLayout = "2006-01-02 15:04:05"

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdraw
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	Type         TransactionType `json:"txn_type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	DateTime     time.Time       `json:"date_time"` // Second precision, local wall clock
}

// NewTransaction creates a new Transaction stamped with now, truncated to seconds.
func NewTransaction(userID int64, txType TransactionType, amount, balanceAfter decimal.Decimal, now time.Time) *Transaction {
	return &Transaction{
		UserID:       userID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		DateTime:     now.Truncate(time.Second),
	}
}

// FormattedDateTime returns DateTime in the persisted layout.
func (t *Transaction) FormattedDateTime() string {
	return t.DateTime.Format(DateTimeLayout)
}
