package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"gorevlerim/internal/api"
	"gorevlerim/internal/todo"
)

// NewServeCommand returns the serve subcommand.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Address to listen on",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("addr") {
		cfg.HTTP.Addr = cmd.String("addr")
	}
	if err := cfg.ValidateServe(); err != nil {
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

	svc := todo.NewService(st.tasks, todo.Options{CascadeCompletion: true}, slog.Default())
	handler := api.New(svc, st.keys, api.Options{
		APIKey:        cfg.APIKey,
		DefaultUserID: cfg.DefaultUserID,
		CORS:          cfg.CORS,
		ConsentURL:    cfg.OAuth.ConsentURL,
	}, slog.Default())

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gorevlerim listening", "addr", cfg.HTTP.Addr, "driver", cfg.Database.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	}
}
