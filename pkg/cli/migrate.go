package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/guacadm/guacadm/pkg/guacdb"
)

func newMigrateCommand() *Command {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)

	return &Command{
		Name:        "migrate",
		Description: "Apply pending schema migrations",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}

			ctx := context.Background()
			db, err := guacdb.Connect(ctx, guacdb.ConnectionConfig{
				URL:             rt.cfg.Database.URL,
				MaxConns:        rt.cfg.Database.MaxConns,
				MinConns:        rt.cfg.Database.MinConns,
				ConnTimeout:     rt.cfg.Database.ConnTimeout,
				ConnMaxLifetime: guacdb.DefaultConnectionConfig().ConnMaxLifetime,
				ConnMaxIdleTime: guacdb.DefaultConnectionConfig().ConnMaxIdleTime,
			})
			if err != nil {
				rt.logger.WithError(err).Error("database connection failed")
				return err
			}
			defer db.Close()

			if err := guacdb.RunMigrations(ctx, db); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}
