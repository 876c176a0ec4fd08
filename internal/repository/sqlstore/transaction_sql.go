// internal/repository/sqlstore/transaction_sql.go
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"atm/internal/domain"
	"atm/internal/repository"
)

// transactionRow mirrors one row of the transactions table.
type transactionRow struct {
	ID           int64          `db:"id"`
	UserID       int64          `db:"user_id"`
	TxnType      string         `db:"txn_type"`
	Amount       float64        `db:"amount"`
	BalanceAfter float64        `db:"balance_after"`
	DateTime     sql.NullString `db:"date_time"`
}

func (row transactionRow) toDomain() (domain.Transaction, error) {
	amount, err := toDecimal("transactions.amount", row.Amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %d: %w", row.ID, err)
	}
	balanceAfter, err := toDecimal("transactions.balance_after", row.BalanceAfter)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %d: %w", row.ID, err)
	}

	txn := domain.Transaction{
		ID:           row.ID,
		UserID:       row.UserID,
		Type:         domain.TransactionType(row.TxnType),
		Amount:       amount,
		BalanceAfter: balanceAfter,
	}
	if row.DateTime.Valid {
		// Unparseable timestamps are kept as the zero time.
		if ts, err := time.ParseInLocation(domain.DateTimeLayout, row.DateTime.String, time.Local); err == nil {
			txn.DateTime = ts
		}
	}
	return txn, nil
}

// TransactionRepository implements repository.TransactionRepository over the
// transactions table.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{}
}

// CreateTransaction inserts a new transaction row.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := q.Rebind(`INSERT INTO transactions (user_id, txn_type, amount, balance_after, date_time)
              VALUES (?, ?, ?, ?, ?) RETURNING id`)

	err := q.QueryRowxContext(ctx, query,
		transaction.UserID,
		string(transaction.Type),
		transaction.Amount,
		transaction.BalanceAfter,
		transaction.FormattedDateTime(),
	).Scan(&transaction.ID)

	if err != nil {
		return fmt.Errorf("failed to create transaction for account %d: %w", transaction.UserID, err)
	}
	return nil
}

// GetTransactionsByUserID retrieves the most recent transactions of an account,
// ordered newest first by ID.
func (r *TransactionRepository) GetTransactionsByUserID(ctx context.Context, q repository.DBExecutor, userID int64, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		return []domain.Transaction{}, nil
	}

	rows := []transactionRow{}
	query := q.Rebind(`
		SELECT id, user_id, COALESCE(txn_type, '') AS txn_type, COALESCE(amount, 0) AS amount,
		       COALESCE(balance_after, 0) AS balance_after, date_time
		FROM transactions
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?`)
	if err := q.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for account %d: %w", userID, err)
	}

	transactions := make([]domain.Transaction, len(rows))
	for i, row := range rows {
		txn, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		transactions[i] = txn
	}
	return transactions, nil
}
