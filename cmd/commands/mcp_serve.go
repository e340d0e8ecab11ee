package commands

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"

	todomcp "gorevlerim/internal/mcp"
	"gorevlerim/internal/todo"
	"gorevlerim/pkg/group"
)

// NewMCPServeCommand returns the mcp subcommand.
func NewMCPServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "mcp",
		Usage:  "Expose the task tools as an MCP server (stdio)",
		Action: runMCPServe,
	}
}

func runMCPServe(ctx context.Context, cmd *cli.Command) error {
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

	svc := todo.NewService(st.tasks, todo.Options{}, slog.Default())
	owners := group.NewResolver(st.groups, cfg.DefaultUserID)
	server := todomcp.NewServer(svc, owners, cfg.DefaultUserID, slog.Default())

	slog.Info("todo MCP server running on stdio", "user", cfg.DefaultUserID)
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}
