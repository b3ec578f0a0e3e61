package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/gtfsload/internal/config"
)

// Open connects the run history named by cfg: PostgreSQL when cfg.URL is
// set, SQLite at cfg.SQLitePath otherwise. The Postgres schema is migrated.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	if cfg.URL == "" {
		st, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("run history in sqlite", "path", cfg.SQLitePath)
		return st, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	pg := NewPostgres(pool)
	if err := pg.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("run history in postgres", "database", strings.TrimPrefix(u.Path, "/"))
	}
	return pg, nil
}
