package postgres

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gscho/graphql-engine/pkg/command"
)

const (
	pingAttempts = 3
	pingBackoff  = 500 * time.Millisecond
)

func connString(cfg command.SourceConfiguration) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.DatabaseName,
	}
	q := url.Values{}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// connect opens a pool against the configured source. Callers own the pool
// and must Close it.
func (i *Implementation) connect(ctx context.Context, cfg command.SourceConfiguration) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse %s connection config: %w", i.kind, err)
	}
	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to %s source: %w", i.kind, err)
	}
	return pool, nil
}

// connectSource opens a pool for an already tracked source.
func (i *Implementation) connectSource(ctx context.Context, source string) (*pgxpool.Pool, error) {
	cfg, err := i.store.SourceConfiguration(source)
	if err != nil {
		return nil, err
	}
	return i.connect(ctx, cfg)
}

// ping verifies liveness, retrying transient failures a few times before
// giving up. Used when a source is first added.
func ping(ctx context.Context, pool *pgxpool.Pool) error {
	var err error
	for attempt := 0; attempt < pingAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pingBackoff):
			}
		}
		if err = pool.Ping(ctx); err == nil {
			return nil
		}
	}
	return err
}
