package command

import "encoding/json"

// TableName is a qualified table (or collection) name. Schema is empty for
// backends without schema namespacing.
type TableName struct {
	Schema string `json:"schema,omitempty"`
	Name   string `json:"name"`
}

// String returns the dotted form used in logs and error messages.
func (t TableName) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// FunctionName is a qualified function name.
type FunctionName struct {
	Schema string `json:"schema,omitempty"`
	Name   string `json:"name"`
}

func (f FunctionName) String() string {
	if f.Schema == "" {
		return f.Name
	}
	return f.Schema + "." + f.Name
}

// SourceConfiguration is the unified connection configuration for a tracked
// source. Fields apply per backend kind; backends ignore what they do not
// use.
type SourceConfiguration struct {
	Host         string `json:"host,omitempty"`
	Port         int    `json:"port,omitempty"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	DatabaseName string `json:"databaseName,omitempty"`
	SSLMode      string `json:"sslMode,omitempty"`

	// Pooling
	MaxConnections int32 `json:"maxConnections,omitempty"`

	// BigQuery specific
	ProjectID       string   `json:"projectId,omitempty"`
	Datasets        []string `json:"datasets,omitempty"`
	CredentialsJSON string   `json:"credentialsJson,omitempty"`
	Location        string   `json:"location,omitempty"`

	// Data connector specific
	AgentURL string `json:"agentUrl,omitempty"`
}

// AddSourceArgs is the payload for add_source and update_source.
type AddSourceArgs struct {
	Name                 string              `json:"name"`
	Configuration        SourceConfiguration `json:"configuration"`
	ReplaceConfiguration bool                `json:"replace_configuration,omitempty"`
	Comment              string              `json:"comment,omitempty"`
}

// DropSourceArgs is the payload for drop_source.
type DropSourceArgs struct {
	Name    string `json:"name"`
	Cascade bool   `json:"cascade,omitempty"`
}

// TrackTableArgs is the payload for track_table.
type TrackTableArgs struct {
	Source        string              `json:"source"`
	Table         TableName           `json:"table"`
	Configuration *TableCustomization `json:"configuration,omitempty"`
}

// UntrackTableArgs is the payload for untrack_table.
type UntrackTableArgs struct {
	Source  string    `json:"source"`
	Table   TableName `json:"table"`
	Cascade bool      `json:"cascade,omitempty"`
}

// TableCustomization renames a table and/or its columns in the exposed API.
type TableCustomization struct {
	CustomName  string            `json:"custom_name,omitempty"`
	ColumnNames map[string]string `json:"column_names,omitempty"`
}

// SetTableCustomizationArgs is the payload for set_table_customization.
type SetTableCustomizationArgs struct {
	Source        string             `json:"source"`
	Table         TableName          `json:"table"`
	Configuration TableCustomization `json:"configuration"`
}

// PermissionAction names one of the four permission kinds a role may hold on
// a table.
type PermissionAction string

const (
	PermissionSelect PermissionAction = "select"
	PermissionInsert PermissionAction = "insert"
	PermissionUpdate PermissionAction = "update"
	PermissionDelete PermissionAction = "delete"
)

// PermissionActions lists the actions in descriptor order.
var PermissionActions = []PermissionAction{
	PermissionSelect,
	PermissionInsert,
	PermissionUpdate,
	PermissionDelete,
}

// PermissionRule is the backend-interpreted body of a permission. Filter and
// Check are boolean expression fragments the registry publishes but does not
// interpret.
type PermissionRule struct {
	Columns           []string        `json:"columns,omitempty"`
	Filter            json.RawMessage `json:"filter,omitempty"`
	Check             json.RawMessage `json:"check,omitempty"`
	Limit             *int            `json:"limit,omitempty"`
	AllowAggregations bool            `json:"allow_aggregations,omitempty"`
}

// CreatePermissionArgs is the payload for the create_*_permission commands.
type CreatePermissionArgs struct {
	Source     string         `json:"source"`
	Table      TableName      `json:"table"`
	Role       string         `json:"role"`
	Permission PermissionRule `json:"permission"`
	Comment    string         `json:"comment,omitempty"`
}

// DropPermissionArgs is the payload for the drop_*_permission commands.
type DropPermissionArgs struct {
	Source string    `json:"source"`
	Table  TableName `json:"table"`
	Role   string    `json:"role"`
}

// SourceScopeArgs is the payload for the introspection commands
// get_source_tables and get_source_functions.
type SourceScopeArgs struct {
	Source string `json:"source"`

	// Schema narrows introspection to one namespace when set.
	Schema string `json:"schema,omitempty"`
}

// FunctionConfiguration carries how a tracked function is exposed.
type FunctionConfiguration struct {
	// ExposedAs is "query" or "mutation".
	ExposedAs       string `json:"exposed_as,omitempty"`
	SessionArgument string `json:"session_argument,omitempty"`
}

// TrackFunctionArgs is the payload for track_function.
type TrackFunctionArgs struct {
	Source        string                 `json:"source"`
	Function      FunctionName           `json:"function"`
	Configuration *FunctionConfiguration `json:"configuration,omitempty"`
}

// UntrackFunctionArgs is the payload for untrack_function.
type UntrackFunctionArgs struct {
	Source   string       `json:"source"`
	Function FunctionName `json:"function"`
}

// ComputedFieldDefinition binds a function to a table as a computed field.
type ComputedFieldDefinition struct {
	Function      FunctionName `json:"function"`
	TableArgument string       `json:"table_argument,omitempty"`
}

// AddComputedFieldArgs is the payload for add_computed_field.
type AddComputedFieldArgs struct {
	Source     string                  `json:"source"`
	Table      TableName               `json:"table"`
	Name       string                  `json:"name"`
	Definition ComputedFieldDefinition `json:"definition"`
}

// DropComputedFieldArgs is the payload for drop_computed_field.
type DropComputedFieldArgs struct {
	Source  string    `json:"source"`
	Table   TableName `json:"table"`
	Name    string    `json:"name"`
	Cascade bool      `json:"cascade,omitempty"`
}

// ManualConfiguration declares a relationship by explicit column mapping.
type ManualConfiguration struct {
	RemoteTable   TableName         `json:"remote_table"`
	ColumnMapping map[string]string `json:"column_mapping"`
}

// RelationshipUsing declares how a relationship is derived: from a foreign
// key constraint or from a manual column mapping. Exactly one must be set;
// the backend validates which.
type RelationshipUsing struct {
	ForeignKeyConstraintOn json.RawMessage      `json:"foreign_key_constraint_on,omitempty"`
	ManualConfiguration    *ManualConfiguration `json:"manual_configuration,omitempty"`
}

// CreateRelationshipArgs is the payload for create_object_relationship and
// create_array_relationship.
type CreateRelationshipArgs struct {
	Source  string            `json:"source"`
	Table   TableName         `json:"table"`
	Name    string            `json:"name"`
	Using   RelationshipUsing `json:"using"`
	Comment string            `json:"comment,omitempty"`
}

// DropRelationshipArgs is the payload for drop_relationship.
type DropRelationshipArgs struct {
	Source       string    `json:"source"`
	Table        TableName `json:"table"`
	Relationship string    `json:"relationship"`
	Cascade      bool      `json:"cascade,omitempty"`
}

// RenameRelationshipArgs is the payload for rename_relationship.
type RenameRelationshipArgs struct {
	Source  string    `json:"source"`
	Table   TableName `json:"table"`
	Name    string    `json:"name"`
	NewName string    `json:"new_name"`
}

// SetRelationshipCommentArgs is the payload for set_relationship_comment.
type SetRelationshipCommentArgs struct {
	Source  string    `json:"source"`
	Table   TableName `json:"table"`
	Name    string    `json:"name"`
	Comment string    `json:"comment"`
}

// ToSourceDefinition declares a remote relationship targeting a table in
// another tracked source.
type ToSourceDefinition struct {
	// RelationshipType is "object" or "array".
	RelationshipType string            `json:"relationship_type"`
	Source           string            `json:"source"`
	Table            TableName         `json:"table"`
	FieldMapping     map[string]string `json:"field_mapping"`
}

// ToRemoteSchemaDefinition declares a remote relationship targeting a field
// of a remote GraphQL schema.
type ToRemoteSchemaDefinition struct {
	RemoteSchema string          `json:"remote_schema"`
	LhsFields    []string        `json:"lhs_fields"`
	RemoteField  json.RawMessage `json:"remote_field"`
}

// CreateRemoteSourceRelationshipArgs is the payload for
// create_remote_source_relationship.
type CreateRemoteSourceRelationshipArgs struct {
	Source     string             `json:"source"`
	Table      TableName          `json:"table"`
	Name       string             `json:"name"`
	Definition ToSourceDefinition `json:"definition"`
}

// CreateRemoteSchemaRelationshipArgs is the payload for
// create_remote_schema_relationship.
type CreateRemoteSchemaRelationshipArgs struct {
	Source     string                   `json:"source"`
	Table      TableName                `json:"table"`
	Name       string                   `json:"name"`
	Definition ToRemoteSchemaDefinition `json:"definition"`
}

// UpdateRemoteRelationshipArgs is the payload for update_remote_relationship.
// Definition is re-interpreted against whichever sub-variant the existing
// relationship was created with.
type UpdateRemoteRelationshipArgs struct {
	Source     string          `json:"source"`
	Table      TableName       `json:"table"`
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"definition"`
}

// DeleteRemoteRelationshipArgs is the payload for delete_remote_relationship.
type DeleteRemoteRelationshipArgs struct {
	Source string    `json:"source"`
	Table  TableName `json:"table"`
	Name   string    `json:"name"`
}
