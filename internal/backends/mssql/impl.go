// Package mssql implements the metadata commands for Microsoft SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/gscho/graphql-engine/internal/backends/common"
	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/backend"
	"github.com/gscho/graphql-engine/pkg/command"
)

// Implementation implements command.Implementation for SQL Server.
type Implementation struct {
	caps  backend.Capability
	store *metadata.Store

	permissions *common.Permissions
	relations   *common.Relationships
	remote      *common.RemoteRelationships
}

// NewImplementation builds the SQL Server implementation.
func NewImplementation(store *metadata.Store) *Implementation {
	kind := backend.SQLServer
	return &Implementation{
		caps:        backend.MustGet(kind),
		store:       store,
		permissions: &common.Permissions{Kind: kind, Store: store},
		relations:   &common.Relationships{Kind: kind, Store: store},
		remote:      &common.RemoteRelationships{Kind: kind, Store: store},
	}
}

func (i *Implementation) Kind() backend.Kind {
	return backend.SQLServer
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

// FunctionOperations returns nil; SQL Server routines are not trackable.
func (i *Implementation) FunctionOperations() command.FunctionOperator {
	return nil
}

func (i *Implementation) RelationshipOperations() command.RelationshipOperator {
	return i.relations
}

func (i *Implementation) RemoteRelationshipOperations() command.RemoteRelationshipOperator {
	if !i.caps.Commands.RemoteRelationship.Supported() {
		return nil
	}
	return i.remote
}

func connString(cfg command.SourceConfiguration) string {
	u := url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
	q := url.Values{}
	q.Set("database", cfg.DatabaseName)
	if cfg.SSLMode == "require" {
		q.Set("encrypt", "true")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// open dials the configured SQL Server instance. Callers own the handle and
// must Close it.
func open(ctx context.Context, cfg command.SourceConfiguration) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open mssql source: %w", err)
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
