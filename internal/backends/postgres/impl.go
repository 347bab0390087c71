// Package postgres implements the metadata commands for PostgreSQL and for
// the wire-compatible Citus and CockroachDB kinds. The three kinds share
// connection handling and catalog introspection; what differs is the
// capability binding each one registers under.
package postgres

import (
	"github.com/gscho/graphql-engine/internal/backends/common"
	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/backend"
	"github.com/gscho/graphql-engine/pkg/command"
)

// Implementation implements command.Implementation for one of the
// pgwire-speaking kinds.
type Implementation struct {
	kind  backend.Kind
	caps  backend.Capability
	store *metadata.Store

	sources     *sourceOps
	tables      *tableOps
	trackable   *introspectOps
	functions   *functionOps
	permissions *common.Permissions
	relations   *common.Relationships
	remote      *common.RemoteRelationships
}

// NewImplementation builds the implementation for the given pgwire kind.
func NewImplementation(kind backend.Kind, store *metadata.Store) *Implementation {
	i := &Implementation{
		kind:  kind,
		caps:  backend.MustGet(kind),
		store: store,
	}
	i.sources = &sourceOps{impl: i}
	i.tables = &tableOps{impl: i}
	i.trackable = &introspectOps{impl: i}
	i.functions = &functionOps{impl: i}
	i.permissions = &common.Permissions{Kind: kind, Store: store}
	i.relations = &common.Relationships{Kind: kind, Store: store}
	i.remote = &common.RemoteRelationships{Kind: kind, Store: store}
	return i
}

// Kind returns the backend kind this implementation registers under.
func (i *Implementation) Kind() backend.Kind {
	return i.kind
}

// Capabilities returns the capability binding for this kind.
func (i *Implementation) Capabilities() backend.Capability {
	return i.caps
}

func (i *Implementation) SourceOperations() command.SourceOperator {
	if !i.caps.Commands.Source {
		return nil
	}
	return i.sources
}

func (i *Implementation) TableOperations() command.TableOperator {
	if !i.caps.Commands.Table {
		return nil
	}
	return i.tables
}

func (i *Implementation) PermissionOperations() command.PermissionOperator {
	if !i.caps.Commands.TablePermissions {
		return nil
	}
	return i.permissions
}

func (i *Implementation) TrackableOperations() command.TrackableOperator {
	if !i.caps.Commands.Trackable {
		return nil
	}
	return i.trackable
}

func (i *Implementation) FunctionOperations() command.FunctionOperator {
	if !i.caps.Commands.Function.Supported() {
		return nil
	}
	return i.functions
}

func (i *Implementation) RelationshipOperations() command.RelationshipOperator {
	if !i.caps.Commands.Relationship {
		return nil
	}
	return i.relations
}

func (i *Implementation) RemoteRelationshipOperations() command.RemoteRelationshipOperator {
	if !i.caps.Commands.RemoteRelationship.Supported() {
		return nil
	}
	return i.remote
}
