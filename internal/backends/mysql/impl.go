// Package mysql implements the metadata commands for MySQL and MariaDB.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/gscho/graphql-engine/internal/backends/common"
	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/backend"
	"github.com/gscho/graphql-engine/pkg/command"
)

// Implementation implements command.Implementation for MySQL.
type Implementation struct {
	caps  backend.Capability
	store *metadata.Store

	permissions *common.Permissions
	relations   *common.Relationships
}

// NewImplementation builds the MySQL implementation.
func NewImplementation(store *metadata.Store) *Implementation {
	kind := backend.MySQL
	return &Implementation{
		caps:        backend.MustGet(kind),
		store:       store,
		permissions: &common.Permissions{Kind: kind, Store: store},
		relations:   &common.Relationships{Kind: kind, Store: store},
	}
}

func (i *Implementation) Kind() backend.Kind {
	return backend.MySQL
}

func (i *Implementation) Capabilities() backend.Capability {
	return i.caps
}

func (i *Implementation) SourceOperations() command.SourceOperator {
	return &sourceOps{impl: i}
}

func (i *Implementation) TableOperations() command.TableOperator {
	return &tableOps{impl: i}
}

func (i *Implementation) PermissionOperations() command.PermissionOperator {
	return i.permissions
}

func (i *Implementation) TrackableOperations() command.TrackableOperator {
	return &introspectOps{impl: i}
}

// FunctionOperations returns nil; stored routines are not trackable.
func (i *Implementation) FunctionOperations() command.FunctionOperator {
	return nil
}

func (i *Implementation) RelationshipOperations() command.RelationshipOperator {
	return i.relations
}

// RemoteRelationshipOperations returns nil; MySQL does not participate in
// remote relationships.
func (i *Implementation) RemoteRelationshipOperations() command.RemoteRelationshipOperator {
	return nil
}

func dsn(cfg command.SourceConfiguration) string {
	c := mysql.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	c.DBName = cfg.DatabaseName
	c.ParseTime = true
	if cfg.SSLMode == "require" {
		c.TLSConfig = "true"
	}
	return c.FormatDSN()
}

// open dials the configured MySQL server. Callers own the handle and must
// Close it.
func open(ctx context.Context, cfg command.SourceConfiguration) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open mysql source: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConnections))
	}
	return db, nil
}

func (i *Implementation) openSource(ctx context.Context, source string) (*sql.DB, error) {
	cfg, err := i.store.SourceConfiguration(source)
	if err != nil {
		return nil, err
	}
	return open(ctx, cfg)
}
