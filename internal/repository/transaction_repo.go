// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"atm/internal/domain"
)

// TransactionRepository defines the data operations on the transactions table.
type TransactionRepository interface {
	// CreateTransaction appends transaction and sets its generated ID.
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// GetTransactionsByUserID returns at most limit transactions of one account,
	// newest first.
	GetTransactionsByUserID(ctx context.Context, q DBExecutor, userID int64, limit int) ([]domain.Transaction, error)
}
