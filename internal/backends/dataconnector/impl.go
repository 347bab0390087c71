// Package dataconnector implements the metadata commands for external
// connector agents. The engine holds no driver for these backends; it talks
// to an HTTP agent that fronts the actual data store and answers capability
// and schema queries.
package dataconnector

import (
	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/backend"
	"github.com/gscho/graphql-engine/pkg/command"
)

// Implementation implements command.Implementation for connector agents.
type Implementation struct {
	caps  backend.Capability
	store *metadata.Store
}

// NewImplementation builds the data connector implementation.
func NewImplementation(store *metadata.Store) *Implementation {
	return &Implementation{
		caps:  backend.MustGet(backend.DataConnector),
		store: store,
	}
}

func (i *Implementation) Kind() backend.Kind {
	return backend.DataConnector
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

// PermissionOperations returns nil; permissions are left to the agent.
func (i *Implementation) PermissionOperations() command.PermissionOperator {
	return nil
}

func (i *Implementation) TrackableOperations() command.TrackableOperator {
	return &introspectOps{impl: i}
}

func (i *Implementation) FunctionOperations() command.FunctionOperator {
	if !i.caps.Commands.Function.Supported() {
		return nil
	}
	return &functionOps{impl: i}
}

// RelationshipOperations returns nil; agents do not declare relationships.
func (i *Implementation) RelationshipOperations() command.RelationshipOperator {
	return nil
}

// RemoteRelationshipOperations returns nil for the same reason.
func (i *Implementation) RemoteRelationshipOperations() command.RemoteRelationshipOperator {
	return nil
}
