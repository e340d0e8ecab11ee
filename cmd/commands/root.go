// Package commands holds the gorevlerim CLI.
package commands

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"gorevlerim/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "gorevlerim",
		Usage: "Daily to-do lists for people and groups, over HTTP and MCP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				Sources: cli.EnvVars("GOREVLERIM_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewServeCommand(),
			NewMCPServeCommand(),
			NewMigrateCommand(),
			NewBootstrapCommand(),
		},
	}
}

// loadConfig reads the config file and environment and sets up logging.
// Logs always go to stderr; stdout belongs to the MCP transport.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	level := cfg.SlogLevel()
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return cfg, nil
}
