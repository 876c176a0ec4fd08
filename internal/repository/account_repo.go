// internal/repository/account_repo.go
package repository

import (
	"context"

	"atm/internal/domain"

	"github.com/shopspring/decimal"
)

// AccountRepository defines the data operations on the users table.
type AccountRepository interface {
	// CreateAccount inserts account and sets its generated ID.
	CreateAccount(ctx context.Context, q DBExecutor, account *domain.Account) error
	// GetAccountByPIN returns the lowest-id account with the given PIN.
	GetAccountByPIN(ctx context.Context, q DBExecutor, pin string) (*domain.Account, error)
	// GetAccountByID returns the account with the given ID.
	GetAccountByID(ctx context.Context, q DBExecutor, id int64) (*domain.Account, error)
	// SetBalanceByPIN overwrites the balance of every account with the given PIN
	// and reports how many rows changed.
	SetBalanceByPIN(ctx context.Context, q DBExecutor, pin string, balance decimal.Decimal) (int64, error)
	// SetBalanceByID overwrites the balance of one account.
	SetBalanceByID(ctx context.Context, q DBExecutor, id int64, balance decimal.Decimal) error
}
