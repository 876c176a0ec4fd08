// internal/repository/sqlstore/account_sql.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"atm/internal/domain"
	"atm/internal/repository"
	"atm/internal/util"

	"github.com/shopspring/decimal"
)

const accountColumns = `id, COALESCE(name, '') AS name, COALESCE(pin, '') AS pin, COALESCE(balance, 0) AS balance`

// accountRow mirrors one row of the users table. The balance is scanned as a
// float so non-finite legacy values surface as errors.
type accountRow struct {
	ID      int64   `db:"id"`
	Name    string  `db:"name"`
	PIN     string  `db:"pin"`
	Balance float64 `db:"balance"`
}

func (row accountRow) toDomain() (*domain.Account, error) {
	balance, err := toDecimal("users.balance", row.Balance)
	if err != nil {
		return nil, fmt.Errorf("account %d: %w", row.ID, err)
	}
	return &domain.Account{ID: row.ID, Name: row.Name, PIN: row.PIN, Balance: balance}, nil
}

// AccountRepository implements repository.AccountRepository over the users table.
type AccountRepository struct{}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository() repository.AccountRepository {
	return &AccountRepository{}
}

// CreateAccount inserts a new row into users.
func (r *AccountRepository) CreateAccount(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	query := q.Rebind(`INSERT INTO users (name, pin, balance) VALUES (?, ?, ?) RETURNING id`)
	err := q.QueryRowxContext(ctx, query, account.Name, account.PIN, account.Balance).Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccountByPIN retrieves the first account registered with pin.
func (r *AccountRepository) GetAccountByPIN(ctx context.Context, q repository.DBExecutor, pin string) (*domain.Account, error) {
	var row accountRow
	query := q.Rebind(`SELECT ` + accountColumns + ` FROM users WHERE pin = ? ORDER BY id LIMIT 1`)
	err := q.GetContext(ctx, &row, query, pin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by PIN: %w", err)
	}
	return row.toDomain()
}

// GetAccountByID retrieves an account by its ID.
func (r *AccountRepository) GetAccountByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Account, error) {
	var row accountRow
	query := q.Rebind(`SELECT ` + accountColumns + ` FROM users WHERE id = ?`)
	err := q.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by ID %d: %w", id, err)
	}
	return row.toDomain()
}

// SetBalanceByPIN overwrites the balance of all accounts sharing pin.
func (r *AccountRepository) SetBalanceByPIN(ctx context.Context, q repository.DBExecutor, pin string, balance decimal.Decimal) (int64, error) {
	query := q.Rebind(`UPDATE users SET balance = ? WHERE pin = ?`)
	result, err := q.ExecContext(ctx, query, balance, pin)
	if err != nil {
		return 0, fmt.Errorf("failed to update balance by PIN: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected after updating balance by PIN: %w", err)
	}
	return rowsAffected, nil
}

// SetBalanceByID overwrites the balance of the account with the given ID.
func (r *AccountRepository) SetBalanceByID(ctx context.Context, q repository.DBExecutor, id int64, balance decimal.Decimal) error {
	query := q.Rebind(`UPDATE users SET balance = ? WHERE id = ?`)
	result, err := q.ExecContext(ctx, query, balance, id)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating balance for account %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account %d: %w", id, util.ErrNotFound)
	}
	return nil
}
