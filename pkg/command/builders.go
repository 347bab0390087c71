package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gscho/graphql-engine/pkg/backend"
)

// Builder is a category command factory: a pure function of a backend
// implementation producing the descriptors its capability binding grants.
// A builder invoked for a backend lacking the category returns an empty
// sequence, never an error; capability gating proper happens in
// BuildRegistry.
type Builder func(impl Implementation) []Descriptor

// builders lists the category factories in registry construction order.
// The order is fixed so registries are reproducible and diffable.
var builders = []Builder{
	SourceCommands,
	TableCommands,
	TablePermissionCommands,
	TrackableCommands,
	FunctionCommands,
	RelationshipCommands,
	RemoteRelationshipCommands,
}

// Shared schema fragments.
var (
	tableSchema = &ObjectSchema{Fields: []Field{
		{Name: "schema", Type: TypeString, Doc: "namespace, omitted for backends without schemas"},
		{Name: "name", Type: TypeString, Required: true},
	}}

	functionSchema = &ObjectSchema{Fields: []Field{
		{Name: "schema", Type: TypeString},
		{Name: "name", Type: TypeString, Required: true},
	}}

	sourceConfigurationSchema = &ObjectSchema{Fields: []Field{
		{Name: "host", Type: TypeString},
		{Name: "port", Type: TypeInteger},
		{Name: "username", Type: TypeString},
		{Name: "password", Type: TypeString},
		{Name: "databaseName", Type: TypeString},
		{Name: "sslMode", Type: TypeString},
		{Name: "maxConnections", Type: TypeInteger},
		{Name: "projectId", Type: TypeString, Doc: "BigQuery project"},
		{Name: "datasets", Type: TypeArray, Elem: &Field{Name: "dataset", Type: TypeString}},
		{Name: "credentialsJson", Type: TypeString},
		{Name: "location", Type: TypeString},
		{Name: "agentUrl", Type: TypeString, Doc: "data connector agent base URL"},
	}}
)

func sourceField() Field {
	return Field{Name: "source", Type: TypeString, Required: true, Doc: "tracked source name"}
}

func tableField() Field {
	return Field{Name: "table", Type: TypeObject, Required: true, Object: tableSchema}
}

// handle adapts a typed operator method into a HandlerFunc. The payload has
// passed schema validation before a handler runs, so a decode failure here
// still surfaces as InvalidPayload rather than an internal error.
func handle[T any](name string, kind backend.Kind, fn func(context.Context, T) (interface{}, error)) HandlerFunc {
	return func(ctx context.Context, inv Invocation) (interface{}, error) {
		var args T
		if len(inv.Args) > 0 {
			if err := json.Unmarshal(inv.Args, &args); err != nil {
				return nil, &InvalidPayloadError{
					Command:    name,
					Kind:       kind,
					Violations: []Violation{{Message: fmt.Sprintf("cannot decode payload: %v", err)}},
				}
			}
		}
		return fn(ctx, args)
	}
}

// SourceCommands builds the Source category: registering, updating and
// dropping the backend's data sources.
func SourceCommands(impl Implementation) []Descriptor {
	if !impl.Capabilities().Commands.Source {
		return nil
	}
	ops := impl.SourceOperations()
	if ops == nil {
		return nil
	}
	kind := impl.Kind()

	addSchema := &ObjectSchema{Fields: []Field{
		{Name: "name", Type: TypeString, Required: true},
		{Name: "configuration", Type: TypeObject, Required: true, Object: sourceConfigurationSchema},
		{Name: "replace_configuration", Type: TypeBoolean},
		{Name: "comment", Type: TypeString},
	}}
	dropSchema := &ObjectSchema{Fields: []Field{
		{Name: "name", Type: TypeString, Required: true},
		{Name: "cascade", Type: TypeBoolean, Doc: "also drop tracked tables, functions and relationships"},
	}}

	return []Descriptor{
		{Name: "add_source", Category: CategorySource, Schema: addSchema, Handler: handle("add_source", kind, ops.AddSource)},
		{Name: "drop_source", Category: CategorySource, Schema: dropSchema, Handler: handle("drop_source", kind, ops.DropSource)},
		{Name: "update_source", Category: CategorySource, Schema: addSchema, Handler: handle("update_source", kind, ops.UpdateSource)},
	}
}

// TableCommands builds the Table category: tracking and customizing tables.
func TableCommands(impl Implementation) []Descriptor {
	if !impl.Capabilities().Commands.Table {
		return nil
	}
	ops := impl.TableOperations()
	if ops == nil {
		return nil
	}
	kind := impl.Kind()

	customizationSchema := &ObjectSchema{Fields: []Field{
		{Name: "custom_name", Type: TypeString},
		{Name: "column_names", Type: TypeObject},
	}}
	trackSchema := &ObjectSchema{Fields: []Field{
		sourceField(),
		tableField(),
		{Name: "configuration", Type: TypeObject, Object: customizationSchema},
	}}
	untrackSchema := &ObjectSchema{Fields: []Field{
		sourceField(),
		tableField(),
		{Name: "cascade", Type: TypeBoolean, Doc: "also drop dependent relationships and permissions"},
	}}
	customizeSchema := &ObjectSchema{Fields: []Field{
		sourceField(),
		tableField(),
		{Name: "configuration", Type: TypeObject, Required: true, Object: customizationSchema},
	}}

	return []Descriptor{
		{Name: "track_table", Category: CategoryTable, Schema: trackSchema, Handler: handle("track_table", kind, ops.TrackTable)},
		{Name: "untrack_table", Category: CategoryTable, Schema: untrackSchema, Handler: handle("untrack_table", kind, ops.UntrackTable)},
		{Name: "set_table_customization", Category: CategoryTable, Schema: customizeSchema, Handler: handle("set_table_customization", kind, ops.SetTableCustomization)},
	}
}

// TablePermissionCommands builds the TablePermissions category: one create
// and one drop command per permission action.
func TablePermissionCommands(impl Implementation) []Descriptor {
	if !impl.Capabilities().Commands.TablePermissions {
		return nil
	}
	ops := impl.PermissionOperations()
	if ops == nil {
		return nil
	}
	kind := impl.Kind()

	ruleSchema := &ObjectSchema{Fields: []Field{
		{Name: "columns", Type: TypeArray, Elem: &Field{Name: "column", Type: TypeString}},
		{Name: "filter", Type: TypeAny, Doc: "boolean expression, interpreted by the backend"},
		{Name: "check", Type: TypeAny, Doc: "boolean expression, interpreted by the backend"},
		{Name: "limit", Type: TypeInteger},
		{Name: "allow_aggregations", Type: TypeBoolean},
	}}
	createSchema := &ObjectSchema{Fields: []Field{
		sourceField(),
		tableField(),
		{Name: "role", Type: TypeString, Required: true},
		{Name: "permission", Type: TypeObject, Required: true, Object: ruleSchema},
		{Name: "comment", Type: TypeString},
	}}
	dropSchema := &ObjectSchema{Fields: []Field{
		sourceField(),
		tableField(),
		{Name: "role", Type: TypeString, Required: true},
	}}

	descriptors := make([]Descriptor, 0, len(PermissionActions)*2)
	for _, action := range PermissionActions {
		action := action
		name := fmt.Sprintf("create_%s_permission", action)
		descriptors = append(descriptors, Descriptor{
			Name:     name,
			Category: CategoryTablePermissions,
			Schema:   createSchema,
			Handler: handle(name, kind, func(ctx context.Context, args CreatePermissionArgs) (interface{}, error) {
				return ops.CreatePermission(ctx, action, args)
			}),
		})
	}
	for _, action := range PermissionActions {
		action := action
		name := fmt.Sprintf("drop_%s_permission", action)
		descriptors = append(descriptors, Descriptor{
			Name:     name,
			Category: CategoryTablePermissions,
			Schema:   dropSchema,
			Handler: handle(name, kind, func(ctx context.Context, args DropPermissionArgs) (interface{}, error) {
				return ops.DropPermission(ctx, action, args)
			}),
		})
	}
	return descriptors
}

// TrackableCommands builds the Trackable category: introspecting what a
// source could track.
func TrackableCommands(impl Implementation) []Descriptor {
	if !impl.Capabilities().Commands.Trackable {
		return nil
	}
	ops := impl.TrackableOperations()
	if ops == nil {
		return nil
	}
	kind := impl.Kind()

	scopeSchema := &ObjectSchema{Fields: []Field{
		sourceField(),
		{Name: "schema", Type: TypeString, Doc: "narrow introspection to one namespace"},
	}}

	return []Descriptor{
		{Name: "get_source_tables", Category: CategoryTrackable, Schema: scopeSchema, Handler: handle("get_source_tables", kind, ops.ListTables)},
		{Name: "get_source_functions", Category: CategoryTrackable, Schema: scopeSchema, Handler: handle("get_source_functions", kind, ops.ListFunctions)},
	}
}

// FunctionCommands builds the Function category. Computed-field commands are
// produced only when the capability binding grants them.
func FunctionCommands(impl Implementation) []Descriptor {
	caps := impl.Capabilities().Commands.Function
	if !caps.Supported() {
		return nil
	}
	ops := impl.FunctionOperations()
	if ops == nil {
		return nil
	}
	kind := impl.Kind()

	trackSchema := &ObjectSchema{Fields: []Field{
		sourceField(),
		{Name: "function", Type: TypeObject, Required: true, Object: functionSchema},
		{Name: "configuration", Type: TypeObject, Object: &ObjectSchema{Fields: []Field{
			{Name: "exposed_as", Type: TypeString, Doc: `"query" or "mutation"`},
			{Name: "session_argument", Type: TypeString},
		}}},
	}}
	untrackSchema := &ObjectSchema{Fields: []Field{
		sourceField(),
		{Name: "function", Type: TypeObject, Required: true, Object: functionSchema},
	}}

	descriptors := []Descriptor{
		{Name: "track_function", Category: CategoryFunction, Schema: trackSchema, Handler: handle("track_function", kind, ops.TrackFunction)},
		{Name: "untrack_function", Category: CategoryFunction, Schema: untrackSchema, Handler: handle("untrack_function", kind, ops.UntrackFunction)},
	}

	if caps.ComputedFields {
		addSchema := &ObjectSchema{Fields: []Field{
			sourceField(),
			tableField(),
			{Name: "name", Type: TypeString, Required: true},
			{Name: "definition", Type: TypeObject, Required: true, Object: &ObjectSchema{Fields: []Field{
				{Name: "function", Type: TypeObject, Required: true, Object: functionSchema},
				{Name: "table_argument", Type: TypeString},
			}}},
		}}
		dropSchema := &ObjectSchema{Fields: []Field{
			sourceField(),
			tableField(),
			{Name: "name", Type: TypeString, Required: true},
			{Name: "cascade", Type: TypeBoolean},
		}}
		descriptors = append(descriptors,
			Descriptor{Name: "add_computed_field", Category: CategoryFunction, Schema: addSchema, Handler: handle("add_computed_field", kind, ops.AddComputedField)},
			Descriptor{Name: "drop_computed_field", Category: CategoryFunction, Schema: dropSchema, Handler: handle("drop_computed_field", kind, ops.DropComputedField)},
		)
	}
	return descriptors
}

// RelationshipCommands builds the Relationship category: relationships
// between tracked tables of one source.
func RelationshipCommands(impl Implementation) []Descriptor {
	if !impl.Capabilities().Commands.Relationship {
		return nil
	}
	ops := impl.RelationshipOperations()
	if ops == nil {
		return nil
	}
	kind := impl.Kind()

	usingSchema := &ObjectSchema{Fields: []Field{
		{Name: "foreign_key_constraint_on", Type: TypeAny},
		{Name: "manual_configuration", Type: TypeObject, Object: &ObjectSchema{Fields: []Field{
			{Name: "remote_table", Type: TypeObject, Required: true, Object: tableSchema},
			{Name: "column_mapping", Type: TypeObject, Required: true},
		}}},
	}}
	createSchema := &ObjectSchema{Fields: []Field{
		sourceField(),
		tableField(),
		{Name: "name", Type: TypeString, Required: true},
		{Name: "using", Type: TypeObject, Required: true, Object: usingSchema},
		{Name: "comment", Type: TypeString},
	}}
	commentSchema := &ObjectSchema{Fields: []Field{
		sourceField(),
		tableField(),
		{Name: "name", Type: TypeString, Required: true},
		{Name: "comment", Type: TypeString, Required: true},
	}}
	renameSchema := &ObjectSchema{Fields: []Field{
		sourceField(),
		tableField(),
		{Name: "name", Type: TypeString, Required: true},
		{Name: "new_name", Type: TypeString, Required: true},
	}}
	dropSchema := &ObjectSchema{Fields: []Field{
		sourceField(),
		tableField(),
		{Name: "relationship", Type: TypeString, Required: true},
		{Name: "cascade", Type: TypeBoolean},
	}}

	return []Descriptor{
		{Name: "create_object_relationship", Category: CategoryRelationship, Schema: createSchema, Handler: handle("create_object_relationship", kind, ops.CreateObjectRelationship)},
		{Name: "create_array_relationship", Category: CategoryRelationship, Schema: createSchema, Handler: handle("create_array_relationship", kind, ops.CreateArrayRelationship)},
		{Name: "set_relationship_comment", Category: CategoryRelationship, Schema: commentSchema, Handler: handle("set_relationship_comment", kind, ops.SetRelationshipComment)},
		{Name: "rename_relationship", Category: CategoryRelationship, Schema: renameSchema, Handler: handle("rename_relationship", kind, ops.RenameRelationship)},
		{Name: "drop_relationship", Category: CategoryRelationship, Schema: dropSchema, Handler: handle("drop_relationship", kind, ops.DropRelationship)},
	}
}

// RemoteRelationshipCommands builds the RemoteRelationship category. Each
// granted sub-variant yields its own command with a distinct name.
func RemoteRelationshipCommands(impl Implementation) []Descriptor {
	caps := impl.Capabilities().Commands.RemoteRelationship
	if !caps.Supported() {
		return nil
	}
	ops := impl.RemoteRelationshipOperations()
	if ops == nil {
		return nil
	}
	kind := impl.Kind()

	nameFields := []Field{
		sourceField(),
		tableField(),
		{Name: "name", Type: TypeString, Required: true},
	}

	var descriptors []Descriptor
	if caps.ToSource {
		schema := &ObjectSchema{Fields: append(append([]Field{}, nameFields...), Field{
			Name: "definition", Type: TypeObject, Required: true, Object: &ObjectSchema{Fields: []Field{
				{Name: "relationship_type", Type: TypeString, Required: true, Doc: `"object" or "array"`},
				{Name: "source", Type: TypeString, Required: true, Doc: "target source name"},
				{Name: "table", Type: TypeObject, Required: true, Object: tableSchema},
				{Name: "field_mapping", Type: TypeObject, Required: true},
			}},
		})}
		descriptors = append(descriptors, Descriptor{
			Name:     "create_remote_source_relationship",
			Category: CategoryRemoteRelationship,
			Schema:   schema,
			Handler:  handle("create_remote_source_relationship", kind, ops.CreateToSource),
		})
	}
	if caps.ToRemoteSchema {
		schema := &ObjectSchema{Fields: append(append([]Field{}, nameFields...), Field{
			Name: "definition", Type: TypeObject, Required: true, Object: &ObjectSchema{Fields: []Field{
				{Name: "remote_schema", Type: TypeString, Required: true},
				{Name: "lhs_fields", Type: TypeArray, Required: true, Elem: &Field{Name: "field", Type: TypeString}},
				{Name: "remote_field", Type: TypeAny, Required: true},
			}},
		})}
		descriptors = append(descriptors, Descriptor{
			Name:     "create_remote_schema_relationship",
			Category: CategoryRemoteRelationship,
			Schema:   schema,
			Handler:  handle("create_remote_schema_relationship", kind, ops.CreateToRemoteSchema),
		})
	}

	updateSchema := &ObjectSchema{Fields: append(append([]Field{}, nameFields...), Field{
		Name: "definition", Type: TypeAny, Required: true,
	})}
	deleteSchema := &ObjectSchema{Fields: nameFields}
	descriptors = append(descriptors,
		Descriptor{Name: "update_remote_relationship", Category: CategoryRemoteRelationship, Schema: updateSchema, Handler: handle("update_remote_relationship", kind, ops.UpdateRemoteRelationship)},
		Descriptor{Name: "delete_remote_relationship", Category: CategoryRemoteRelationship, Schema: deleteSchema, Handler: handle("delete_remote_relationship", kind, ops.DeleteRemoteRelationship)},
	)
	return descriptors
}
