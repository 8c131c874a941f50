package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guacadm/guacadm/pkg/config"
	"github.com/guacadm/guacadm/pkg/guacdb"
	"github.com/guacadm/guacadm/pkg/observability"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "guacadm",
		Description: "guacadm - remote-access gateway store administration",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("guacadm", flag.ExitOnError),
	}

	root.Subcommands["user"] = newUserCommand()
	root.Subcommands["group"] = newGroupCommand()
	root.Subcommands["conn"] = newConnCommand()
	root.Subcommands["conngroup"] = newConnGroupCommand()
	root.Subcommands["dump"] = newDumpCommand()
	root.Subcommands["migrate"] = newMigrateCommand()

	return root
}

// Execute runs the command
func (c *Command) Execute() error {
	args := os.Args[1:]
	if len(args) == 0 {
		return c.usage()
	}

	if args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Printf("Usage: %s <command> [args]\n\n", c.Name)
	fmt.Printf("Commands:\n")
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-12s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

// newGroupedCommand builds a command that only dispatches to subcommands.
func newGroupedCommand(name, description string, subs map[string]*Command) *Command {
	cmd := &Command{
		Name:        name,
		Description: description,
		Subcommands: subs,
		Flags:       flag.NewFlagSet(name, flag.ExitOnError),
	}
	cmd.Run = func(args []string) error {
		if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
			return cmd.usage()
		}
		if sub, ok := cmd.Subcommands[args[0]]; ok {
			return sub.Run(args[1:])
		}
		return fmt.Errorf("unknown %s command: %s", name, args[0])
	}
	return cmd
}

// runtime carries shared dependencies into command handlers.
type runtime struct {
	cfg     *config.Config
	logger  *observability.Logger
	metrics *observability.Metrics
}

func newRuntime() (*runtime, error) {
	cfg, err := config.LoadConfig(os.Getenv("GUACADM_CONFIG"))
	if err != nil {
		return nil, err
	}
	rt := &runtime{
		cfg:    cfg,
		logger: observability.NewLogger(cfg.ParsedLogLevel(), os.Stderr),
	}
	if cfg.Observability.MetricsEnabled {
		rt.metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	return rt, nil
}

// observe records one operation's outcome when metrics are enabled.
func (r *runtime) observe(op string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.metrics.RecordOperation(op, outcome, time.Since(start))
}

// withStore opens the database and runs fn inside one transaction.
func (r *runtime) withStore(op string, fn func(ctx context.Context, s *guacdb.Store) error) error {
	ctx := context.Background()

	db, err := guacdb.Connect(ctx, guacdb.ConnectionConfig{
		URL:             r.cfg.Database.URL,
		MaxConns:        r.cfg.Database.MaxConns,
		MinConns:        r.cfg.Database.MinConns,
		ConnTimeout:     r.cfg.Database.ConnTimeout,
		ConnMaxLifetime: guacdb.DefaultConnectionConfig().ConnMaxLifetime,
		ConnMaxIdleTime: guacdb.DefaultConnectionConfig().ConnMaxIdleTime,
	})
	if err != nil {
		r.logger.WithError(err).Error("database connection failed")
		return err
	}
	defer db.Close()

	start := time.Now()
	err = guacdb.RunInTx(ctx, db, func(s *guacdb.Store) error {
		return fn(ctx, s)
	})
	r.observe(op, start, err)
	return err
}

// runInStore is the common body of leaf commands: load config, open the
// database, run fn in one transaction.
func runInStore(op string, fn func(ctx context.Context, s *guacdb.Store) error) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	return rt.withStore(op, fn)
}

// selector builds a guacdb.Selector from the usual --name/--id flag pair.
// Setting both flags is rejected here so the mistake surfaces as a usage
// error before any database work starts.
func selector(name string, id int64) (guacdb.Selector, error) {
	if name != "" && id != 0 {
		return guacdb.Selector{}, fmt.Errorf("--name and --id are mutually exclusive")
	}
	if id != 0 {
		return guacdb.ByID(id), nil
	}
	return guacdb.ByName(name), nil
}
