// Package common provides the store-backed command operators shared by every
// backend implementation: permissions, relationships and remote
// relationships are pure metadata mutations, identical across backends
// except for the kind stamped into their errors.
package common

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/backend"
	"github.com/gscho/graphql-engine/pkg/command"
)

// SuccessResult is the uniform success payload metadata commands return.
type SuccessResult struct {
	Message string `json:"message"`
}

// Success returns the uniform success payload.
func Success() SuccessResult {
	return SuccessResult{Message: "success"}
}

// Permissions implements command.PermissionOperator on the metadata store.
type Permissions struct {
	Kind  backend.Kind
	Store *metadata.Store
}

// CreatePermission records one role's permission on a tracked table.
func (p *Permissions) CreatePermission(ctx context.Context, action command.PermissionAction, args command.CreatePermissionArgs) (interface{}, error) {
	err := p.Store.CreatePermission(args.Source, args.Table, metadata.Permission{
		Role:    args.Role,
		Action:  action,
		Rule:    args.Permission,
		Comment: args.Comment,
	})
	if err != nil {
		return nil, err
	}
	return Success(), nil
}

// DropPermission removes one role's permission on a tracked table.
func (p *Permissions) DropPermission(ctx context.Context, action command.PermissionAction, args command.DropPermissionArgs) (interface{}, error) {
	if err := p.Store.DropPermission(args.Source, args.Table, args.Role, action); err != nil {
		return nil, err
	}
	return Success(), nil
}

// Relationships implements command.RelationshipOperator on the metadata
// store.
type Relationships struct {
	Kind  backend.Kind
	Store *metadata.Store
}

func validateUsing(using command.RelationshipUsing) error {
	hasFK := len(using.ForeignKeyConstraintOn) > 0
	hasManual := using.ManualConfiguration != nil
	if hasFK == hasManual {
		return fmt.Errorf("exactly one of foreign_key_constraint_on and manual_configuration must be given")
	}
	if hasManual && len(using.ManualConfiguration.ColumnMapping) == 0 {
		return fmt.Errorf("manual_configuration requires a non-empty column_mapping")
	}
	return nil
}

func (r *Relationships) create(relType metadata.RelationshipType, args command.CreateRelationshipArgs) (interface{}, error) {
	if err := validateUsing(args.Using); err != nil {
		return nil, err
	}
	err := r.Store.CreateRelationship(args.Source, args.Table, metadata.Relationship{
		Name:    args.Name,
		Type:    relType,
		Using:   args.Using,
		Comment: args.Comment,
	})
	if err != nil {
		return nil, err
	}
	return Success(), nil
}

// CreateObjectRelationship records an object relationship.
func (r *Relationships) CreateObjectRelationship(ctx context.Context, args command.CreateRelationshipArgs) (interface{}, error) {
	return r.create(metadata.ObjectRelationship, args)
}

// CreateArrayRelationship records an array relationship.
func (r *Relationships) CreateArrayRelationship(ctx context.Context, args command.CreateRelationshipArgs) (interface{}, error) {
	return r.create(metadata.ArrayRelationship, args)
}

// SetRelationshipComment updates a relationship comment.
func (r *Relationships) SetRelationshipComment(ctx context.Context, args command.SetRelationshipCommentArgs) (interface{}, error) {
	if err := r.Store.SetRelationshipComment(args.Source, args.Table, args.Name, args.Comment); err != nil {
		return nil, err
	}
	return Success(), nil
}

// RenameRelationship renames a relationship.
func (r *Relationships) RenameRelationship(ctx context.Context, args command.RenameRelationshipArgs) (interface{}, error) {
	if err := r.Store.RenameRelationship(args.Source, args.Table, args.Name, args.NewName); err != nil {
		return nil, err
	}
	return Success(), nil
}

// DropRelationship removes a relationship.
func (r *Relationships) DropRelationship(ctx context.Context, args command.DropRelationshipArgs) (interface{}, error) {
	if err := r.Store.DropRelationship(args.Source, args.Table, args.Relationship); err != nil {
		return nil, err
	}
	return Success(), nil
}

// RemoteRelationships implements command.RemoteRelationshipOperator on the
// metadata store.
type RemoteRelationships struct {
	Kind  backend.Kind
	Store *metadata.Store
}

func (r *RemoteRelationships) validateToSource(def command.ToSourceDefinition) error {
	if _, ok := r.Store.SourceKind(def.Source); !ok {
		return fmt.Errorf("target source %q is not tracked", def.Source)
	}
	if !r.Store.IsTableTracked(def.Source, def.Table) {
		return fmt.Errorf("target table %s is not tracked in source %q", def.Table, def.Source)
	}
	if len(def.FieldMapping) == 0 {
		return fmt.Errorf("field_mapping must not be empty")
	}
	return nil
}

func validateToSchema(def command.ToRemoteSchemaDefinition) error {
	if len(def.LhsFields) == 0 {
		return fmt.Errorf("lhs_fields must not be empty")
	}
	return nil
}

// CreateToSource records a remote relationship targeting another tracked
// source.
func (r *RemoteRelationships) CreateToSource(ctx context.Context, args command.CreateRemoteSourceRelationshipArgs) (interface{}, error) {
	if err := r.validateToSource(args.Definition); err != nil {
		return nil, err
	}
	definition, err := json.Marshal(args.Definition)
	if err != nil {
		return nil, err
	}
	err = r.Store.CreateRemoteRelationship(args.Source, args.Table, metadata.RemoteRelationship{
		Name:       args.Name,
		Variant:    metadata.RemoteToSource,
		Definition: definition,
	})
	if err != nil {
		return nil, err
	}
	return Success(), nil
}

// CreateToRemoteSchema records a remote relationship targeting a remote
// GraphQL schema.
func (r *RemoteRelationships) CreateToRemoteSchema(ctx context.Context, args command.CreateRemoteSchemaRelationshipArgs) (interface{}, error) {
	if err := validateToSchema(args.Definition); err != nil {
		return nil, err
	}
	definition, err := json.Marshal(args.Definition)
	if err != nil {
		return nil, err
	}
	err = r.Store.CreateRemoteRelationship(args.Source, args.Table, metadata.RemoteRelationship{
		Name:       args.Name,
		Variant:    metadata.RemoteToSchema,
		Definition: definition,
	})
	if err != nil {
		return nil, err
	}
	return Success(), nil
}

// UpdateRemoteRelationship replaces a remote relationship definition. The
// replacement is interpreted against the variant the relationship was created
// with and passes through the same validation as the create path.
func (r *RemoteRelationships) UpdateRemoteRelationship(ctx context.Context, args command.UpdateRemoteRelationshipArgs) (interface{}, error) {
	variant, err := r.Store.RemoteRelationshipVariantOf(args.Source, args.Table, args.Name)
	if err != nil {
		return nil, err
	}
	switch variant {
	case metadata.RemoteToSource:
		var def command.ToSourceDefinition
		if err := json.Unmarshal(args.Definition, &def); err != nil {
			return nil, fmt.Errorf("decoding to_source definition: %w", err)
		}
		if err := r.validateToSource(def); err != nil {
			return nil, err
		}
	case metadata.RemoteToSchema:
		var def command.ToRemoteSchemaDefinition
		if err := json.Unmarshal(args.Definition, &def); err != nil {
			return nil, fmt.Errorf("decoding to_remote_schema definition: %w", err)
		}
		if err := validateToSchema(def); err != nil {
			return nil, err
		}
	}
	if _, err := r.Store.UpdateRemoteRelationship(args.Source, args.Table, args.Name, args.Definition); err != nil {
		return nil, err
	}
	return Success(), nil
}

// DeleteRemoteRelationship removes a remote relationship.
func (r *RemoteRelationships) DeleteRemoteRelationship(ctx context.Context, args command.DeleteRemoteRelationshipArgs) (interface{}, error) {
	if err := r.Store.DeleteRemoteRelationship(args.Source, args.Table, args.Name); err != nil {
		return nil, err
	}
	return Success(), nil
}
