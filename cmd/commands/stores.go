package commands

import (
	"context"
	"fmt"
	"log/slog"

	"gorevlerim/internal/config"
	"gorevlerim/internal/db"
	"gorevlerim/pkg/apikey"
	"gorevlerim/pkg/group"
	"gorevlerim/pkg/task"
)

// stores bundles the persistence of one database.
type stores struct {
	tasks  task.Store
	groups group.Store
	keys   apikey.Store
	close  func()
}

func openStores(ctx context.Context, cfg config.Database) (*stores, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.Debug("connected to postgres", "max_conns", pool.Config().MaxConns)
		return &stores{
			tasks:  task.NewPgStore(pool),
			groups: group.NewPgStore(pool),
			keys:   apikey.NewPgStore(pool),
			close:  pool.Close,
		}, nil
	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(cfg.URL)
		if err != nil {
			return nil, err
		}
		slog.Debug("opened sqlite", "path", cfg.URL)
		return &stores{
			tasks:  task.NewSQLiteStore(sqlDB),
			groups: group.NewSQLiteStore(sqlDB),
			keys:   apikey.NewSQLiteStore(sqlDB),
			close:  func() { sqlDB.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// ensureTables creates every table.
func (s *stores) ensureTables(ctx context.Context) error {
	if err := s.groups.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure groups table: %w", err)
	}
	if err := s.tasks.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure tasks table: %w", err)
	}
	if err := s.keys.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure api_keys table: %w", err)
	}
	return nil
}
