// cmd/atm/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	app "atm/internal"
	"atm/internal/domain"
	"atm/internal/terminal"
	"atm/internal/util"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.NewApplication()
	if err := newCLI(application).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCLI(application *app.Application) *cli.App {
	return &cli.App{
		Name:  "atm",
		Usage: "PIN-secured personal banking terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "optional config file (yaml, json or toml)"},
			&cli.StringFlag{Name: "db", Usage: "SQLite database file, overrides database.path"},
		},
		Before: func(c *cli.Context) error {
			return application.Initialize(c.Context, app.Options{
				ConfigFile: c.String("config"),
				DBPath:     c.String("db"),
			})
		},
		After: func(c *cli.Context) error {
			return application.Shutdown(c.Context)
		},
		Action: func(c *cli.Context) error {
			return runTerminal(c, application)
		},
		Commands: []*cli.Command{
			{
				Name:  "terminal",
				Usage: "interactive login and account menus",
				Action: func(c *cli.Context) error {
					return runTerminal(c, application)
				},
			},
			{
				Name:  "register",
				Usage: "create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					pinFlag(),
					&cli.StringFlag{Name: "balance", Usage: "initial balance", Value: "0"},
				},
				Action: func(c *cli.Context) error {
					account, err := application.AccountService.Register(c.Context, c.String("name"), c.String("pin"), c.String("balance"))
					if err != nil {
						return exitError(application, err)
					}
					fmt.Fprintf(c.App.Writer, "User Registered Successfully! (account %d)\n", account.ID)
					return nil
				},
			},
			{
				Name:  "balance",
				Usage: "show the current balance",
				Flags: []cli.Flag{pinFlag()},
				Action: func(c *cli.Context) error {
					sess, err := login(c, application)
					if err != nil {
						return err
					}
					defer application.AccountService.Logout(sess)

					balance, err := application.AccountService.CheckBalance(sess)
					if err != nil {
						return exitError(application, err)
					}
					fmt.Fprintf(c.App.Writer, "Your current balance is %s%s\n", application.Config.CurrencySymbol, balance.StringFixed(2))
					return nil
				},
			},
			mutationCommand(application, domain.TransactionTypeDeposit),
			mutationCommand(application, domain.TransactionTypeWithdraw),
			{
				Name:  "history",
				Usage: "list recent transactions, newest first",
				Flags: []cli.Flag{
					pinFlag(),
					&cli.IntFlag{Name: "limit", Usage: "maximum rows, 0 uses history.limit"},
				},
				Action: func(c *cli.Context) error {
					sess, err := login(c, application)
					if err != nil {
						return err
					}
					defer application.AccountService.Logout(sess)

					txns, err := application.AccountService.History(c.Context, sess, c.Int("limit"))
					if err != nil {
						return exitError(application, err)
					}
					terminal.RenderHistory(c.App.Writer, txns)
					return nil
				},
			},
			{
				Name:  "migrate",
				Usage: "create or upgrade the ledger schema and report its version",
				Action: func(c *cli.Context) error {
					status := application.Migration
					fmt.Fprintf(c.App.Writer, "schema version %d (was %d)\n", status.PostVersion, status.PreVersion)
					return nil
				},
			},
		},
	}
}

func mutationCommand(application *app.Application, txType domain.TransactionType) *cli.Command {
	name, verb := "deposit", "deposited"
	if txType == domain.TransactionTypeWithdraw {
		name, verb = "withdraw", "withdrawn"
	}

	return &cli.Command{
		Name:  name,
		Usage: string(txType) + " an amount",
		Flags: []cli.Flag{
			pinFlag(),
			&cli.StringFlag{Name: "amount", Required: true},
		},
		Action: func(c *cli.Context) error {
			sess, err := login(c, application)
			if err != nil {
				return err
			}
			defer application.AccountService.Logout(sess)

			var (
				account *domain.Account
				txn     *domain.Transaction
			)
			if txType == domain.TransactionTypeWithdraw {
				account, txn, err = application.AccountService.Withdraw(c.Context, sess, c.String("amount"))
			} else {
				account, txn, err = application.AccountService.Deposit(c.Context, sess, c.String("amount"))
			}
			if err != nil {
				return exitError(application, err)
			}
			symbol := application.Config.CurrencySymbol
			fmt.Fprintf(c.App.Writer, "%s%s %s successfully! Balance: %s%s\n",
				symbol, txn.Amount.StringFixed(2), verb, symbol, account.Balance.StringFixed(2))
			return nil
		},
	}
}

func pinFlag() cli.Flag {
	return &cli.StringFlag{Name: "pin", Usage: "account PIN", Required: true}
}

func runTerminal(c *cli.Context, application *app.Application) error {
	term := terminal.New(application.AccountService, c.App.Reader, c.App.Writer, application.Logger, terminal.Options{
		CurrencySymbol: application.Config.CurrencySymbol,
		HistoryLimit:   application.Config.HistoryLimit,
	})
	return term.Run(c.Context)
}

// login opens a one-shot session for a single command.
func login(c *cli.Context, application *app.Application) (*domain.Session, error) {
	sess := domain.NewSession()
	if _, err := application.AccountService.Authenticate(c.Context, sess, c.String("pin")); err != nil {
		return nil, exitError(application, err)
	}
	return sess, nil
}

// exitError reports err the way the terminal would and exits non-zero.
func exitError(application *app.Application, err error) error {
	class, text := terminal.Classify(err)
	if class == terminal.Error && !errors.Is(err, util.ErrInvalidCredentials) {
		application.Logger.WithError(err).Error("cli.Command.Error")
	}
	return cli.Exit(fmt.Sprintf("[%s] %s", class, text), 1)
}
