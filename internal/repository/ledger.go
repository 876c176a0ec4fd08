// internal/repository/ledger.go
package repository

import (
	"context"
	"fmt"
	"time"

	"atm/internal/domain"
	"atm/internal/util"
	"atm/pkg/db"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// LedgerEntry describes one balance mutation to apply atomically.
type LedgerEntry struct {
	AccountID    int64
	Type         domain.TransactionType
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
}

// LedgerStore is the persistence boundary for accounts and their transactions.
type LedgerStore interface {
	// Initialize ensures the schema exists. Safe to call on every start.
	Initialize(ctx context.Context) (*db.MigrationStatus, error)
	FindAccountByPIN(ctx context.Context, pin string) (*domain.Account, error)
	FindAccountByID(ctx context.Context, id int64) (*domain.Account, error)
	CreateAccount(ctx context.Context, name, pin string, initialBalance decimal.Decimal) (*domain.Account, error)
	// UpdateBalance overwrites the balance of every account matching pin.
	UpdateBalance(ctx context.Context, pin string, newBalance decimal.Decimal) error
	AppendTransaction(ctx context.Context, accountID int64, txType domain.TransactionType, amount, balanceAfter decimal.Decimal) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, accountID int64, limit int) ([]domain.Transaction, error)
	// ApplyLedgerEntry sets the account balance and appends the matching
	// transaction in a single database transaction.
	ApplyLedgerEntry(ctx context.Context, entry LedgerEntry) (*domain.Transaction, error)
}

// ledger implements LedgerStore on top of the account and transaction
// repositories. Every call borrows a pooled connection for its duration only.
type ledger struct {
	db              *sqlx.DB
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	now             func() time.Time
}

// LedgerOption customizes a ledger.
type LedgerOption func(*ledger)

// WithClock overrides the timestamp source for new transactions.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *ledger) {
		l.now = now
	}
}

// NewLedger creates a new LedgerStore.
func NewLedger(database *sqlx.DB, accountRepo AccountRepository, transactionRepo TransactionRepository, opts ...LedgerOption) LedgerStore {
	l := &ledger{
		db:              database,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *ledger) Initialize(ctx context.Context) (*db.MigrationStatus, error) {
	status, err := db.Migrate(ctx, l.db)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return status, nil
}

func (l *ledger) FindAccountByPIN(ctx context.Context, pin string) (*domain.Account, error) {
	return l.accountRepo.GetAccountByPIN(ctx, l.db, pin)
}

func (l *ledger) FindAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	return l.accountRepo.GetAccountByID(ctx, l.db, id)
}

func (l *ledger) CreateAccount(ctx context.Context, name, pin string, initialBalance decimal.Decimal) (*domain.Account, error) {
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance must not be negative", util.ErrValidation)
	}
	balance, err := storable("initial balance", initialBalance)
	if err != nil {
		return nil, err
	}

	account := domain.NewAccount(name, pin, balance)
	if err := l.accountRepo.CreateAccount(ctx, l.db, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

func (l *ledger) UpdateBalance(ctx context.Context, pin string, newBalance decimal.Decimal) error {
	newBalance, err := storable("balance", newBalance)
	if err != nil {
		return err
	}
	rowsAffected, err := l.accountRepo.SetBalanceByPIN(ctx, l.db, pin, newBalance)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("update balance: %w", util.ErrNotFound)
	}
	return nil
}

func (l *ledger) AppendTransaction(ctx context.Context, accountID int64, txType domain.TransactionType, amount, balanceAfter decimal.Decimal) (*domain.Transaction, error) {
	if !txType.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", util.ErrValidation, txType)
	}
	amount, balanceAfter, err := storablePair(amount, balanceAfter)
	if err != nil {
		return nil, err
	}

	transaction := domain.NewTransaction(accountID, txType, amount, balanceAfter, l.now())
	if err := l.transactionRepo.CreateTransaction(ctx, l.db, transaction); err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}
	return transaction, nil
}

func (l *ledger) ListTransactions(ctx context.Context, accountID int64, limit int) ([]domain.Transaction, error) {
	return l.transactionRepo.GetTransactionsByUserID(ctx, l.db, accountID, limit)
}

func (l *ledger) ApplyLedgerEntry(ctx context.Context, entry LedgerEntry) (*domain.Transaction, error) {
	if !entry.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", util.ErrValidation, entry.Type)
	}
	// The returned transaction carries exactly what the row and the account hold.
	amount, balanceAfter, err := storablePair(entry.Amount, entry.BalanceAfter)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, l.db)
	if err != nil {
		return nil, fmt.Errorf("apply ledger entry: failed to begin transaction: %w", err)
	}
	defer db.RollbackTx(tx)

	if err := l.accountRepo.SetBalanceByID(ctx, tx, entry.AccountID, balanceAfter); err != nil {
		return nil, fmt.Errorf("apply ledger entry: %w", err)
	}

	transaction := domain.NewTransaction(entry.AccountID, entry.Type, amount, balanceAfter, l.now())
	if err := l.transactionRepo.CreateTransaction(ctx, tx, transaction); err != nil {
		return nil, fmt.Errorf("apply ledger entry: %w", err)
	}

	if err := db.CommitTx(tx); err != nil {
		return nil, fmt.Errorf("apply ledger entry: failed to commit transaction: %w", err)
	}
	return transaction, nil
}

// storable rounds value to what the ledger columns hold.
func storable(field string, value decimal.Decimal) (decimal.Decimal, error) {
	stored, ok := domain.StorableAmount(value)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s is out of range", util.ErrValidation, field)
	}
	return stored, nil
}

func storablePair(amount, balanceAfter decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	amount, err := storable("amount", amount)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	balanceAfter, err = storable("balance", balanceAfter)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return amount, balanceAfter, nil
}
