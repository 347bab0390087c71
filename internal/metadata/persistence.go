package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoSnapshot is returned by Load when the storage holds no metadata yet.
var ErrNoSnapshot = errors.New("no metadata snapshot stored")

// PostgresConfig configures the metadata storage connection.
type PostgresConfig struct {
	User              string
	Password          string
	Host              string
	Port              int
	Database          string
	MaxConnections    int32
	ConnectionTimeout time.Duration
}

// Persistence stores metadata snapshots in a PostgreSQL table. The engine's
// own state lives here, separate from any tracked source.
type Persistence struct {
	pool *pgxpool.Pool
}

// NewPersistence connects to the storage database and ensures the snapshot
// table exists.
func NewPersistence(ctx context.Context, cfg PostgresConfig) (*Persistence, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("metadata storage host is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("metadata storage database name is required")
	}

	poolConfig, err := pgxpool.ParseConfig("")
	if err != nil {
		return nil, fmt.Errorf("failed to create connection config: %w", err)
	}
	poolConfig.ConnConfig.Host = cfg.Host
	poolConfig.ConnConfig.Port = uint16(cfg.Port)
	poolConfig.ConnConfig.Database = cfg.Database
	poolConfig.ConnConfig.User = cfg.User
	poolConfig.ConnConfig.Password = cfg.Password
	if cfg.ConnectionTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectionTimeout
	}
	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to metadata storage: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping metadata storage: %w", err)
	}

	p := &Persistence{pool: pool}
	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Persistence) ensureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS engine_metadata (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL,
			document JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create metadata snapshot table: %w", err)
	}
	return nil
}

// Save writes the snapshot, replacing any previous one.
func (p *Persistence) Save(ctx context.Context, doc *Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode metadata snapshot: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO engine_metadata (id, version, document, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET version = EXCLUDED.version,
		    document = EXCLUDED.document,
		    updated_at = now()`,
		doc.Version, raw)
	if err != nil {
		return fmt.Errorf("failed to save metadata snapshot: %w", err)
	}
	return nil
}

// Load reads the stored snapshot. Returns ErrNoSnapshot when none exists.
func (p *Persistence) Load(ctx context.Context) (*Document, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT document FROM engine_metadata WHERE id = 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata snapshot: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode metadata snapshot: %w", err)
	}
	return &doc, nil
}

// Ping verifies the storage connection, for health checks.
func (p *Persistence) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the connection pool.
func (p *Persistence) Close() {
	p.pool.Close()
}
