package commands

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// NewMigrateCommand returns the migrate subcommand.
func NewMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Create the database tables",
		Action: runMigrate,
	}
}

func runMigrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.close()

	if err := st.ensureTables(ctx); err != nil {
		return err
	}
	slog.Info("tables ready", "driver", cfg.Database.Driver)
	return nil
}
