package command

import (
	"context"

	"github.com/gscho/graphql-engine/pkg/backend"
)

// Implementation is the contract every backend implements. Each category of
// commands is served by one operator; a getter returns nil when the backend
// does not implement that category. Declaring a capability in the backend's
// binding while returning a nil operator is a startup error caught by
// BuildRegistry.
type Implementation interface {
	// Kind returns the canonical backend kind identifier.
	Kind() backend.Kind

	// Capabilities returns the capability binding for this backend kind.
	Capabilities() backend.Capability

	// Operation interfaces, one per command category.
	SourceOperations() SourceOperator
	TableOperations() TableOperator
	PermissionOperations() PermissionOperator
	TrackableOperations() TrackableOperator
	FunctionOperations() FunctionOperator
	RelationshipOperations() RelationshipOperator
	RemoteRelationshipOperations() RemoteRelationshipOperator
}

// SourceOperator handles registration of the backend's data sources.
type SourceOperator interface {
	AddSource(ctx context.Context, args AddSourceArgs) (interface{}, error)
	UpdateSource(ctx context.Context, args AddSourceArgs) (interface{}, error)
	DropSource(ctx context.Context, args DropSourceArgs) (interface{}, error)
}

// TableOperator handles table tracking.
type TableOperator interface {
	TrackTable(ctx context.Context, args TrackTableArgs) (interface{}, error)
	UntrackTable(ctx context.Context, args UntrackTableArgs) (interface{}, error)
	SetTableCustomization(ctx context.Context, args SetTableCustomizationArgs) (interface{}, error)
}

// PermissionOperator handles role permissions on tracked tables. The action
// distinguishes the four permission kinds; descriptors close over it.
type PermissionOperator interface {
	CreatePermission(ctx context.Context, action PermissionAction, args CreatePermissionArgs) (interface{}, error)
	DropPermission(ctx context.Context, action PermissionAction, args DropPermissionArgs) (interface{}, error)
}

// TrackableOperator introspects what a source could track. Implementations
// typically query the backend's catalog (information_schema, sys.*,
// dataset listings) and may block on I/O; they must honor ctx.
type TrackableOperator interface {
	ListTables(ctx context.Context, args SourceScopeArgs) (interface{}, error)
	ListFunctions(ctx context.Context, args SourceScopeArgs) (interface{}, error)
}

// FunctionOperator handles function tracking and, where the capability
// binding grants it, computed fields.
type FunctionOperator interface {
	TrackFunction(ctx context.Context, args TrackFunctionArgs) (interface{}, error)
	UntrackFunction(ctx context.Context, args UntrackFunctionArgs) (interface{}, error)
	AddComputedField(ctx context.Context, args AddComputedFieldArgs) (interface{}, error)
	DropComputedField(ctx context.Context, args DropComputedFieldArgs) (interface{}, error)
}

// RelationshipOperator handles relationships between tracked tables of one
// source.
type RelationshipOperator interface {
	CreateObjectRelationship(ctx context.Context, args CreateRelationshipArgs) (interface{}, error)
	CreateArrayRelationship(ctx context.Context, args CreateRelationshipArgs) (interface{}, error)
	SetRelationshipComment(ctx context.Context, args SetRelationshipCommentArgs) (interface{}, error)
	RenameRelationship(ctx context.Context, args RenameRelationshipArgs) (interface{}, error)
	DropRelationship(ctx context.Context, args DropRelationshipArgs) (interface{}, error)
}

// RemoteRelationshipOperator handles relationships that cross source
// boundaries. Sub-variants are separate methods; the capability binding
// decides which get a descriptor.
type RemoteRelationshipOperator interface {
	CreateToSource(ctx context.Context, args CreateRemoteSourceRelationshipArgs) (interface{}, error)
	CreateToRemoteSchema(ctx context.Context, args CreateRemoteSchemaRelationshipArgs) (interface{}, error)
	UpdateRemoteRelationship(ctx context.Context, args UpdateRemoteRelationshipArgs) (interface{}, error)
	DeleteRemoteRelationship(ctx context.Context, args DeleteRemoteRelationshipArgs) (interface{}, error)
}
