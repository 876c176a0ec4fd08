// internal/service/account_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"atm/internal/domain"
	"atm/internal/repository"
	"atm/internal/util"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultHistoryLimit is the number of transactions History returns when the
// caller does not ask for a specific amount.
const DefaultHistoryLimit = 100

// Entered amounts and balances must stay below MaxAmount in magnitude and be
// exactly representable by the ledger columns.
var MaxAmount = decimal.New(1, 15)

const maxAmountText = 64

var errOutOfRange = errors.New("out of range")

// AccountService defines the business rules of the terminal.
type AccountService interface {
	Register(ctx context.Context, name, pin, initialBalanceText string) (*domain.Account, error)
	Authenticate(ctx context.Context, sess *domain.Session, pin string) (*domain.Account, error)
	Deposit(ctx context.Context, sess *domain.Session, amountText string) (*domain.Account, *domain.Transaction, error)
	Withdraw(ctx context.Context, sess *domain.Session, amountText string) (*domain.Account, *domain.Transaction, error)
	CheckBalance(sess *domain.Session) (decimal.Decimal, error)
	History(ctx context.Context, sess *domain.Session, limit int) ([]domain.Transaction, error)
	Logout(sess *domain.Session)
}

// Options tunes AccountService behaviour.
type Options struct {
	// UniquePIN rejects registrations whose PIN is already in use.
	UniquePIN bool
	// HistoryLimit replaces DefaultHistoryLimit when positive.
	HistoryLimit int
}

// accountService implements the AccountService interface.
type accountService struct {
	store  repository.LedgerStore
	logger *logrus.Logger
	opts   Options
}

// NewAccountService creates a new instance of AccountService.
func NewAccountService(store repository.LedgerStore, logger *logrus.Logger, opts Options) AccountService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	return &accountService{
		store:  store,
		logger: logger,
		opts:   opts,
	}
}

// Register creates a new account. The PIN is not checked for collisions
// unless UniquePIN is set.
func (s *accountService) Register(ctx context.Context, name, pin, initialBalanceText string) (account *domain.Account, err error) {
	ld := util.NewLogData(s.logger, "AccountService.Register")
	defer func() { ld.Done(err) }()

	if strings.TrimSpace(name) == "" || strings.TrimSpace(pin) == "" || strings.TrimSpace(initialBalanceText) == "" {
		return nil, fmt.Errorf("%w: all fields are required", util.ErrValidation)
	}

	balance, err := parseDecimal(initialBalanceText)
	if errors.Is(err, errOutOfRange) {
		return nil, fmt.Errorf("%w: balance is out of range", util.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: balance must be a number", util.ErrValidation)
	}

	if s.opts.UniquePIN {
		_, err := s.store.FindAccountByPIN(ctx, pin)
		if err == nil {
			return nil, util.ErrDuplicatePIN
		}
		if !errors.Is(err, util.ErrNotFound) {
			return nil, fmt.Errorf("register: failed to check existing PIN: %w", err)
		}
	}

	account, err = s.store.CreateAccount(ctx, name, pin, balance)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	ld.AddData("account_id", account.ID)
	return account, nil
}

// Authenticate logs sess in as the account registered with pin.
func (s *accountService) Authenticate(ctx context.Context, sess *domain.Session, pin string) (account *domain.Account, err error) {
	ld := util.NewLogData(s.logger, "AccountService.Authenticate")
	ld.AddData("session", sess.ID.String())
	defer func() { ld.Done(err) }()

	account, err = s.store.FindAccountByPIN(ctx, pin)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	sess.Login(account)
	ld.AddData("account_id", account.ID)
	return account, nil
}

// Deposit adds amountText to the session account.
func (s *accountService) Deposit(ctx context.Context, sess *domain.Session, amountText string) (*domain.Account, *domain.Transaction, error) {
	return s.mutate(ctx, sess, domain.TransactionTypeDeposit, amountText)
}

// Withdraw removes amountText from the session account. The balance never
// goes below zero.
func (s *accountService) Withdraw(ctx context.Context, sess *domain.Session, amountText string) (*domain.Account, *domain.Transaction, error) {
	return s.mutate(ctx, sess, domain.TransactionTypeWithdraw, amountText)
}

func (s *accountService) mutate(ctx context.Context, sess *domain.Session, txType domain.TransactionType, amountText string) (updated *domain.Account, transaction *domain.Transaction, err error) {
	ld := util.NewLogData(s.logger, "AccountService."+string(txType))
	ld.AddData("session", sess.ID.String())
	defer func() { ld.Done(err) }()

	account := sess.Account()
	if account == nil {
		return nil, nil, util.ErrNoActiveSession
	}
	ld.AddData("account_id", account.ID)

	amount, err := parseDecimal(amountText)
	if err != nil || !amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: enter a valid amount", util.ErrValidation)
	}
	ld.AddData("amount", amount.String())

	var newBalance decimal.Decimal
	switch txType {
	case domain.TransactionTypeDeposit:
		newBalance = account.Balance.Add(amount)
	case domain.TransactionTypeWithdraw:
		if amount.GreaterThan(account.Balance) {
			return nil, nil, util.ErrInsufficientFunds
		}
		newBalance = account.Balance.Sub(amount)
	}

	transaction, err = s.store.ApplyLedgerEntry(ctx, repository.LedgerEntry{
		AccountID:    account.ID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: newBalance,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", strings.ToLower(string(txType)), err)
	}

	updated, err = s.store.FindAccountByID(ctx, account.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to refresh account %d: %w", strings.ToLower(string(txType)), account.ID, err)
	}
	sess.Refresh(updated)
	return updated, transaction, nil
}

// CheckBalance returns the cached balance of the session account as of its
// last refresh.
func (s *accountService) CheckBalance(sess *domain.Session) (decimal.Decimal, error) {
	account := sess.Account()
	if account == nil {
		return decimal.Zero, util.ErrNoActiveSession
	}
	return account.Balance, nil
}

// History returns at most limit transactions of the session account, newest
// first. A non-positive limit uses the configured default.
func (s *accountService) History(ctx context.Context, sess *domain.Session, limit int) (transactions []domain.Transaction, err error) {
	ld := util.NewLogData(s.logger, "AccountService.History")
	ld.AddData("session", sess.ID.String())
	defer func() { ld.Done(err) }()

	account := sess.Account()
	if account == nil {
		return nil, util.ErrNoActiveSession
	}
	if limit <= 0 {
		limit = s.opts.HistoryLimit
	}
	ld.AddData("account_id", account.ID)
	ld.AddData("limit", limit)

	transactions, err = s.store.ListTransactions(ctx, account.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return transactions, nil
}

// Logout clears the session. The store is not touched.
func (s *accountService) Logout(sess *domain.Session) {
	s.logger.WithField("session", sess.ID.String()).Info("AccountService.Logout.Complete")
	sess.Logout()
}

// parseDecimal parses user input as a finite decimal that the ledger stores
// without rounding.
func parseDecimal(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if len(text) > maxAmountText {
		return decimal.Zero, errOutOfRange
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, err
	}
	// Exponent first: comparing against a huge exponent is expensive.
	if exp := d.Exponent(); exp > maxAmountText || exp < -maxAmountText {
		return decimal.Zero, errOutOfRange
	}
	if d.Abs().GreaterThanOrEqual(MaxAmount) {
		return decimal.Zero, errOutOfRange
	}
	if stored, ok := domain.StorableAmount(d); !ok || !stored.Equal(d) {
		return decimal.Zero, errOutOfRange
	}
	return d, nil
}
