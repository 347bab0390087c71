// Package bigquery implements the metadata commands for Google BigQuery.
// Datasets stand in for schemas; the tracked source pins a project and,
// optionally, the datasets exposed through it.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	"github.com/gscho/graphql-engine/internal/backends/common"
	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/backend"
	"github.com/gscho/graphql-engine/pkg/command"
)

// Implementation implements command.Implementation for BigQuery.
type Implementation struct {
	caps  backend.Capability
	store *metadata.Store

	relations *common.Relationships
}

// NewImplementation builds the BigQuery implementation.
func NewImplementation(store *metadata.Store) *Implementation {
	kind := backend.BigQuery
	return &Implementation{
		caps:      backend.MustGet(kind),
		store:     store,
		relations: &common.Relationships{Kind: kind, Store: store},
	}
}

func (i *Implementation) Kind() backend.Kind {
	return backend.BigQuery
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

// PermissionOperations returns nil; access control stays with IAM.
func (i *Implementation) PermissionOperations() command.PermissionOperator {
	return nil
}

func (i *Implementation) TrackableOperations() command.TrackableOperator {
	return &introspectOps{impl: i}
}

// FunctionOperations returns nil; routines are not trackable.
func (i *Implementation) FunctionOperations() command.FunctionOperator {
	return nil
}

func (i *Implementation) RelationshipOperations() command.RelationshipOperator {
	return i.relations
}

// RemoteRelationshipOperations returns nil; BigQuery does not participate in
// remote relationships.
func (i *Implementation) RemoteRelationshipOperations() command.RemoteRelationshipOperator {
	return nil
}

// client builds a BigQuery client from the source configuration. Callers own
// the client and must Close it.
func client(ctx context.Context, cfg command.SourceConfiguration) (*bigquery.Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("bigquery source requires projectId")
	}
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	c, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	if cfg.Location != "" {
		c.Location = cfg.Location
	}
	return c, nil
}

func (i *Implementation) clientForSource(ctx context.Context, source string) (*bigquery.Client, command.SourceConfiguration, error) {
	cfg, err := i.store.SourceConfiguration(source)
	if err != nil {
		return nil, cfg, err
	}
	c, err := client(ctx, cfg)
	return c, cfg, err
}
