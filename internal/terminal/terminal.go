// internal/terminal/terminal.go
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"atm/internal/domain"
	"atm/internal/service"
	"atm/internal/util"
)

const (
	mainMenu    = "\n=== ATM ===\n1) Login\n2) Register\n3) Exit"
	accountMenu = "\n1) Check Balance\n2) Deposit Money\n3) Withdraw Money\n4) View Transactions\n5) Logout"

	unexpectedText = "unexpected error"
)

// Class is the severity of a message shown to the user.
type Class string

const (
	Success Class = "Success"
	Warning Class = "Warning"
	Error   Class = "Error"
)

// Options tunes rendering.
type Options struct {
	CurrencySymbol string
	// HistoryLimit caps View Transactions. Zero uses the service default.
	HistoryLimit int
}

// Terminal is a line oriented front end for AccountService. It owns exactly
// one Session for its lifetime.
type Terminal struct {
	svc    service.AccountService
	in     *bufio.Scanner
	out    io.Writer
	logger *logrus.Logger
	opts   Options
	sess   *domain.Session
}

// New creates a Terminal reading commands from in and writing screens to out.
func New(svc service.AccountService, in io.Reader, out io.Writer, logger *logrus.Logger, opts Options) *Terminal {
	if logger == nil {
		logger = util.GetLogger()
	}
	return &Terminal{
		svc:    svc,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger,
		opts:   opts,
		sess:   domain.NewSession(),
	}
}

// Run shows the main screen until the user exits, input ends or ctx is done.
// Failed operations are reported and never end the loop.
func (t *Terminal) Run(ctx context.Context) error {
	defer func() {
		if t.sess.Active() {
			t.svc.Logout(t.sess)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.println(mainMenu)
		choice, ok := t.prompt("Select option")
		if !ok {
			return t.stopped(ctx)
		}

		switch choice {
		case "1":
			ok = t.login(ctx)
		case "2":
			ok = t.register(ctx)
		case "3":
			t.println("Goodbye!")
			return nil
		default:
			t.message(Warning, "Choose 1, 2 or 3")
		}
		if !ok {
			return t.stopped(ctx)
		}
	}
}

// stopped returns why the loop ended early: cancellation or an input error.
// Plain end of input is not an error.
func (t *Terminal) stopped(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.in.Err()
}

func (t *Terminal) register(ctx context.Context) bool {
	name, ok := t.prompt("Name")
	if !ok {
		return false
	}
	pin, ok := t.prompt("PIN")
	if !ok {
		return false
	}
	balance, ok := t.prompt("Initial Balance")
	if !ok {
		return false
	}

	if _, err := t.svc.Register(ctx, name, pin, balance); err != nil {
		t.failure(err)
		return true
	}
	t.message(Success, "User Registered Successfully!")
	return true
}

func (t *Terminal) login(ctx context.Context) bool {
	pin, ok := t.prompt("PIN")
	if !ok {
		return false
	}

	account, err := t.svc.Authenticate(ctx, t.sess, pin)
	if err != nil {
		t.failure(err)
		return true
	}
	t.message(Success, "Welcome, "+account.Name)
	return t.accountScreen(ctx)
}

// accountScreen runs the logged in menu. It returns false when input ended.
func (t *Terminal) accountScreen(ctx context.Context) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		t.println(accountMenu)
		choice, ok := t.prompt("Select option")
		if !ok {
			return false
		}

		switch choice {
		case "1":
			t.checkBalance()
		case "2":
			if !t.mutate(ctx, domain.TransactionTypeDeposit) {
				return false
			}
		case "3":
			if !t.mutate(ctx, domain.TransactionTypeWithdraw) {
				return false
			}
		case "4":
			t.history(ctx)
		case "5":
			t.svc.Logout(t.sess)
			t.message(Success, "Logged out")
			return true
		default:
			t.message(Warning, "Choose an option from 1 to 5")
		}
	}
}

func (t *Terminal) checkBalance() {
	balance, err := t.svc.CheckBalance(t.sess)
	if err != nil {
		t.failure(err)
		return
	}
	t.message(Success, "Your current balance is "+t.money(balance))
}

func (t *Terminal) mutate(ctx context.Context, txType domain.TransactionType) bool {
	amount, ok := t.prompt("Enter amount")
	if !ok {
		return false
	}

	var (
		txn  *domain.Transaction
		err  error
		verb string
	)
	switch txType {
	case domain.TransactionTypeDeposit:
		_, txn, err = t.svc.Deposit(ctx, t.sess, amount)
		verb = "deposited"
	default:
		_, txn, err = t.svc.Withdraw(ctx, t.sess, amount)
		verb = "withdrawn"
	}
	if err != nil {
		t.failure(err)
		return true
	}
	t.message(Success, fmt.Sprintf("%s %s successfully!", t.money(txn.Amount), verb))
	return true
}

func (t *Terminal) history(ctx context.Context) {
	txns, err := t.svc.History(ctx, t.sess, t.opts.HistoryLimit)
	if err != nil {
		t.failure(err)
		return
	}
	if len(txns) == 0 {
		t.println("No transactions yet.")
		return
	}
	RenderHistory(t.out, txns)
}

// RenderHistory writes txns as an aligned table, in the order given.
func RenderHistory(w io.Writer, txns []domain.Transaction) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDate/Time\tType\tAmount\tBalance After")
	for i := range txns {
		txn := &txns[i]
		dateTime := ""
		if !txn.DateTime.IsZero() {
			dateTime = txn.FormattedDateTime()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			txn.ID, dateTime, txn.Type, txn.Amount.StringFixed(2), txn.BalanceAfter.StringFixed(2))
	}
	_ = tw.Flush()
}

// Classify maps a service error to the message class and text shown to the user.
func Classify(err error) (Class, string) {
	switch {
	case errors.Is(err, util.ErrInsufficientFunds):
		return Warning, "Insufficient balance!"
	case errors.Is(err, util.ErrDuplicatePIN):
		return Warning, "PIN already registered"
	case errors.Is(err, util.ErrValidation):
		return Warning, validationText(err)
	case errors.Is(err, util.ErrInvalidCredentials):
		return Error, "Invalid PIN"
	case errors.Is(err, util.ErrNoActiveSession):
		return Error, "Please log in first"
	default:
		return Error, unexpectedText
	}
}

// validationText returns the detail after the validation sentinel, capitalized.
func validationText(err error) string {
	msg := err.Error()
	prefix := util.ErrValidation.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		msg = msg[i+len(prefix):]
	}
	if msg == "" {
		return "Invalid input"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func (t *Terminal) failure(err error) {
	class, text := Classify(err)
	if text == unexpectedText {
		t.logger.WithError(err).WithField("session", t.sess.ID.String()).Error("Terminal.UnexpectedError")
	}
	t.message(class, text)
}

func (t *Terminal) money(amount decimal.Decimal) string {
	return t.opts.CurrencySymbol + amount.StringFixed(2)
}

func (t *Terminal) message(class Class, text string) {
	fmt.Fprintf(t.out, "[%s] %s\n", class, text)
}

func (t *Terminal) println(text string) {
	fmt.Fprintln(t.out, text)
}

// prompt writes label and reads one trimmed line. It returns false at end of input.
func (t *Terminal) prompt(label string) (string, bool) {
	fmt.Fprintf(t.out, "%s: ", label)
	if !t.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(t.in.Text()), true
}
