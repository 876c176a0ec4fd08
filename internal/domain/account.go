// internal/domain/account.go
package domain

import (
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Account represents a registered user of the terminal.
type Account struct {
	ID      int64           `db:"id" json:"id"`           // Assigned by the store, immutable
	Name    string          `db:"name" json:"name"`       // Display name, not unique
	PIN     string          `db:"pin" json:"-"`           // Credential and lookup key
	Balance decimal.Decimal `db:"balance" json:"balance"` // Current balance
}

// NewAccount creates a new, unsaved Account.
func NewAccount(name, pin string, balance decimal.Decimal) *Account {
	return &Account{
		Name:    name,
		PIN:     pin,
		Balance: balance,
	}
}
