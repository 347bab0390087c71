package command

import (
	"context"
	"encoding/json"

	"github.com/gscho/graphql-engine/pkg/backend"
)

// Category identifies one of the seven metadata command categories. The
// declared order is the registry construction order; it never changes between
// builds.
type Category int

const (
	CategorySource Category = iota
	CategoryTable
	CategoryTablePermissions
	CategoryTrackable
	CategoryFunction
	CategoryRelationship
	CategoryRemoteRelationship
)

// Categories lists all categories in registry construction order.
var Categories = []Category{
	CategorySource,
	CategoryTable,
	CategoryTablePermissions,
	CategoryTrackable,
	CategoryFunction,
	CategoryRelationship,
	CategoryRemoteRelationship,
}

// String returns the category label used in logs and published metadata.
func (c Category) String() string {
	switch c {
	case CategorySource:
		return "source"
	case CategoryTable:
		return "table"
	case CategoryTablePermissions:
		return "table_permissions"
	case CategoryTrackable:
		return "trackable"
	case CategoryFunction:
		return "function"
	case CategoryRelationship:
		return "relationship"
	case CategoryRemoteRelationship:
		return "remote_relationship"
	default:
		return "unknown"
	}
}

// Invocation carries the dispatch-time inputs to a command handler: the
// resolved backend kind and the validated, still-encoded payload. The
// ambient context passed alongside carries cancellation and deadline.
type Invocation struct {
	Kind backend.Kind
	Args json.RawMessage
}

// HandlerFunc is the executable logic bound to a command. The payload has
// already passed schema validation when a handler runs; handlers own all side
// effects and their own timeout/retry semantics.
type HandlerFunc func(ctx context.Context, inv Invocation) (interface{}, error)

// Descriptor describes one metadata command: its API name, the structural
// schema of its payload, and the handler bound to a specific backend. A
// descriptor is never mutated after construction.
type Descriptor struct {
	Name     string
	Category Category
	Schema   *ObjectSchema
	Handler  HandlerFunc
}
