package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/wmtb/internal/app"
	"github.com/bobmcallan/wmtb/internal/common"
	"github.com/bobmcallan/wmtb/internal/models"
	"github.com/bobmcallan/wmtb/internal/services/session"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "balance":
		err = runBalance(os.Args[2:])
	case "forecast":
		err = runForecast(os.Args[2:])
	case "chat":
		err = runChat(os.Args[2:])
	case "send":
		err = runSend(os.Args[2:])
	case "rules":
		err = runRules(os.Args[2:])
	case "version":
		fmt.Println(common.GetFullVersion())
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "WMTB ledger client")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  wmtb <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  balance           Show the current balance")
	fmt.Fprintln(w, "  forecast          Show days until broke and the 7-day net flow")
	fmt.Fprintln(w, "  chat              Show the transaction conversation")
	fmt.Fprintln(w, "  send <text>       Record a transaction, e.g. send lunch 15000")
	fmt.Fprintln(w, "  rules [toggle N]  List automation rules or toggle one")
	fmt.Fprintln(w, "  version           Show version information")
	fmt.Fprintln(w, "\nRun 'wmtb <command> -h' for command options.")
}

// globalFlags are accepted by every command.
type globalFlags struct {
	config *string
	user   *string
	url    *string
}

func newFlagSet(name string) (*flag.FlagSet, globalFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, globalFlags{
		config: fs.String("config", "", "path to wmtb.toml"),
		user:   fs.String("user", "", "user id (overrides config)"),
		url:    fs.String("url", "", "Ledger Service base URL (overrides config)"),
	}
}

// connect loads config and returns a wired client.
func connect(g globalFlags) (*app.Client, error) {
	cfg, err := app.LoadConfig(*g.config)
	if err != nil {
		return nil, err
	}
	if *g.user != "" {
		cfg.Ledger.UserID = *g.user
	}
	if *g.url != "" {
		cfg.Ledger.BaseURL = strings.TrimRight(*g.url, "/")
	}
	if cfg.Logging.Level == "" || cfg.Logging.Level == "info" {
		// keep command output readable
		cfg.Logging.Level = "warn"
	}
	return app.NewClient(cfg, common.NewLoggerFromConfig(cfg.Logging)), nil
}

func refreshed(ctx context.Context, g globalFlags) (*app.Client, session.Snapshot, error) {
	c, err := connect(g)
	if err != nil {
		return nil, session.Snapshot{}, err
	}
	if err := c.Session.Refresh(ctx); err != nil {
		return c, session.Snapshot{}, fmt.Errorf("could not reach the Ledger Service at %s: %w", c.Config.Ledger.BaseURL, err)
	}
	return c, c.Session.Snapshot(), nil
}

func runBalance(args []string) error {
	fs, g := newFlagSet("balance")
	fs.Parse(args)

	c, snap, err := refreshed(context.Background(), g)
	if err != nil {
		return err
	}
	fmt.Printf("Balance: %s\n", common.FormatMoney(c.Config.Display.Currency, snap.Balance))
	return nil
}

func runForecast(args []string) error {
	fs, g := newFlagSet("forecast")
	fs.Parse(args)

	c, snap, err := refreshed(context.Background(), g)
	if err != nil {
		return err
	}
	printForecast(os.Stdout, c.Config.Display.Currency, snap)
	return nil
}

func printForecast(w io.Writer, currency string, snap session.Snapshot) {
	fmt.Fprintf(w, "Balance:          %s\n", common.FormatMoney(currency, snap.Balance))

	fmt.Fprintf(w, "Days until broke: %s\n", snap.Forecast.DaysUntilBroke)

	fmt.Fprintln(w, "\nLast 7 days:")
	weekly := snap.Forecast.Weekly
	for i := range weekly.Amounts {
		fmt.Fprintf(w, "  %-4s %s\n", weekly.Labels[i], common.FormatAmount(weekly.Amounts[i]))
	}
}

func runChat(args []string) error {
	fs, g := newFlagSet("chat")
	fs.Parse(args)

	_, snap, err := refreshed(context.Background(), g)
	if err != nil {
		return err
	}
	printConversation(os.Stdout, snap.Conversation)
	return nil
}

// printConversation prints oldest first so the newest entry is on the last line.
func printConversation(w io.Writer, entries []models.ConversationEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No transactions yet. Try: wmtb send lunch 15000")
		return
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		who := "  wmtb"
		if e.IsUser {
			who = "   you"
		}
		fmt.Fprintf(w, "%5s %s  %s\n", e.Timestamp, who, e.Text)
	}
}

func runSend(args []string) error {
	fs, g := newFlagSet("send")
	timeout := fs.Duration("timeout", 30*time.Second, "overall timeout")
	fs.Parse(args)

	text := strings.Join(fs.Args(), " ")
	c, err := connect(g)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	msg, err := c.Session.Submit(ctx, text)
	if errors.Is(err, session.ErrEmptyMessage) {
		return errors.New("nothing to send: usage wmtb send <text>")
	}
	if err != nil {
		return err
	}

	fmt.Printf("you:  %s\n", msg.Text)
	fmt.Printf("wmtb: %s\n", msg.Reply)
	if msg.State != models.PendingConfirmed {
		return errors.New("transaction was not recorded")
	}

	if err := c.Session.RefreshBalance(ctx); err == nil {
		fmt.Printf("Balance: %s\n", common.FormatMoney(c.Config.Display.Currency, c.Session.Snapshot().Balance))
	}
	return nil
}

func runRules(args []string) error {
	fs, g := newFlagSet("rules")
	fs.Parse(args)

	c, err := connect(g)
	if err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		if rest[0] != "toggle" || len(rest) != 2 {
			return errors.New("usage: wmtb rules [toggle <id>]")
		}
		id, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("invalid rule id %q", rest[1])
		}
		if _, err := c.Rules.Toggle(id); err != nil {
			return err
		}
	}

	printRules(os.Stdout, c.Rules.List())
	return nil
}

func printRules(w io.Writer, rules []models.Rule) {
	for _, r := range rules {
		state := "off"
		if r.IsActive {
			state = "on "
		}
		fmt.Fprintf(w, "[%s] %d  %-24s %s\n", state, r.ID, r.Name, r.Description)
	}
}
