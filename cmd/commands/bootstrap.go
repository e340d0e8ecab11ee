package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// NewBootstrapCommand returns the bootstrap subcommand.
func NewBootstrapCommand() *cli.Command {
	return &cli.Command{
		Name:  "bootstrap",
		Usage: "Create the default user's personal group and optionally an API key",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Name of the personal group",
				Value: "Personal",
			},
			&cli.BoolFlag{
				Name:  "api-key",
				Usage: "Mint a new API key for the default user and print it",
			},
		},
		Action: runBootstrap,
	}
}

func runBootstrap(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
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

	g, err := st.groups.EnsurePersonal(ctx, cfg.DefaultUserID, cmd.String("name"))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "personal group: %s\n", g.ID)

	if cmd.Bool("api-key") {
		k, err := st.keys.Create(ctx, cfg.DefaultUserID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.Root().Writer, "api key: %s\n", k.Key)
	}
	return nil
}
