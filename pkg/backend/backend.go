package backend

import "strings"

// Kind is the canonical identifier for a backend technology supported by the
// metadata engine. Use these constants anywhere a backend must be named.
type Kind string

const (
	// Relational SQL
	PostgreSQL Kind = "postgres"
	Citus      Kind = "citus"
	Cockroach  Kind = "cockroach"
	SQLServer  Kind = "mssql"
	MySQL      Kind = "mysql"

	// Cloud warehouses
	BigQuery Kind = "bigquery"

	// Generic connector agents
	DataConnector Kind = "dataconnector"
)

// Capability describes which metadata command categories a backend
// participates in. Bindings are static and total: every registered Kind has
// an entry in All, even one that grants nothing.
type Capability struct {
	// Human-friendly vendor or product name, e.g., "PostgreSQL".
	Name string `json:"name"`

	// Canonical ID used across the codebase (see Kind constants).
	Kind Kind `json:"kind"`

	// Command categories this backend supports.
	Commands CommandSet `json:"commands"`

	// Common aliases (driver names, env labels) that map to this backend.
	Aliases []string `json:"aliases,omitempty"`
}

// CommandSet enumerates the command-category grants for one backend.
// A flag left false means the corresponding category builder produces no
// commands for that backend.
type CommandSet struct {
	Source             bool                         `json:"source"`
	Table              bool                         `json:"table"`
	TablePermissions   bool                         `json:"tablePermissions"`
	Trackable          bool                         `json:"trackable"`
	Function           FunctionCapability           `json:"function"`
	Relationship       bool                         `json:"relationship"`
	RemoteRelationship RemoteRelationshipCapability `json:"remoteRelationship"`
}

// FunctionCapability carries the category-specific configuration for the
// Function category.
type FunctionCapability struct {
	// Tracking grants track_function/untrack_function.
	Tracking bool `json:"tracking"`

	// ComputedFields additionally grants add/drop_computed_field.
	// Meaningless without Tracking.
	ComputedFields bool `json:"computedFields"`
}

// Supported reports whether the backend participates in the Function
// category at all.
func (f FunctionCapability) Supported() bool {
	return f.Tracking
}

// RemoteRelationshipCapability carries the sub-variant grants for the
// RemoteRelationship category. Each granted sub-variant yields its own
// command with a distinct name.
type RemoteRelationshipCapability struct {
	ToSource       bool `json:"toSource"`
	ToRemoteSchema bool `json:"toRemoteSchema"`
}

// Supported reports whether any remote-relationship sub-variant is granted.
func (r RemoteRelationshipCapability) Supported() bool {
	return r.ToSource || r.ToRemoteSchema
}

// All is the registry of capability bindings keyed by canonical backend kind.
var All = map[Kind]Capability{
	PostgreSQL: {
		Name: "PostgreSQL",
		Kind: PostgreSQL,
		Commands: CommandSet{
			Source:             true,
			Table:              true,
			TablePermissions:   true,
			Trackable:          true,
			Function:           FunctionCapability{Tracking: true, ComputedFields: true},
			Relationship:       true,
			RemoteRelationship: RemoteRelationshipCapability{ToSource: true, ToRemoteSchema: true},
		},
		Aliases: []string{"postgresql", "pgsql", "pg"},
	},
	Citus: {
		Name: "Citus",
		Kind: Citus,
		Commands: CommandSet{
			Source:             true,
			Table:              true,
			TablePermissions:   true,
			Trackable:          true,
			Function:           FunctionCapability{Tracking: true},
			Relationship:       true,
			RemoteRelationship: RemoteRelationshipCapability{ToSource: true, ToRemoteSchema: true},
		},
	},
	Cockroach: {
		Name: "CockroachDB",
		Kind: Cockroach,
		Commands: CommandSet{
			Source:             true,
			Table:              true,
			TablePermissions:   true,
			Trackable:          true,
			Relationship:       true,
			RemoteRelationship: RemoteRelationshipCapability{ToSource: true, ToRemoteSchema: true},
		},
		Aliases: []string{"cockroachdb", "crdb"},
	},
	SQLServer: {
		Name: "Microsoft SQL Server",
		Kind: SQLServer,
		Commands: CommandSet{
			Source:             true,
			Table:              true,
			TablePermissions:   true,
			Trackable:          true,
			Relationship:       true,
			RemoteRelationship: RemoteRelationshipCapability{ToSource: true},
		},
		Aliases: []string{"sqlserver", "azure-sql"},
	},
	MySQL: {
		Name: "MySQL",
		Kind: MySQL,
		Commands: CommandSet{
			Source:           true,
			Table:            true,
			TablePermissions: true,
			Trackable:        true,
			Relationship:     true,
		},
		Aliases: []string{"aurora-mysql", "mariadb"},
	},
	BigQuery: {
		Name: "Google BigQuery",
		Kind: BigQuery,
		Commands: CommandSet{
			Source:       true,
			Table:        true,
			Trackable:    true,
			Relationship: true,
		},
		Aliases: []string{"google-bigquery"},
	},
	DataConnector: {
		Name: "Data Connector",
		Kind: DataConnector,
		Commands: CommandSet{
			Source:    true,
			Table:     true,
			Trackable: true,
			Function:  FunctionCapability{Tracking: true},
		},
		Aliases: []string{"data-connector", "gdc"},
	},
}

// nameToKind is a normalized lookup index from any known name/alias to the
// canonical Kind.
var nameToKind map[string]Kind

func init() {
	nameToKind = make(map[string]Kind, len(All)*2)
	for kind, cap := range All {
		nameToKind[strings.ToLower(string(kind))] = kind
		if cap.Name != "" {
			nameToKind[strings.ToLower(cap.Name)] = kind
		}
		for _, a := range cap.Aliases {
			if a == "" {
				continue
			}
			nameToKind[strings.ToLower(a)] = kind
		}
	}
}

// ParseKind attempts to resolve an arbitrary backend name (canonical kind,
// alias, or product name) to a canonical Kind. Returns false if unknown.
func ParseKind(name string) (Kind, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	kind, ok := nameToKind[n]
	return kind, ok
}

// Get returns the capability binding for the given kind and a boolean
// indicating existence.
func Get(kind Kind) (Capability, bool) {
	c, ok := All[kind]
	return c, ok
}

// MustGet returns the capability binding for the given kind or panics if the
// kind is not registered.
func MustGet(kind Kind) Capability {
	c, ok := Get(kind)
	if !ok {
		panic("backend: unknown backend kind: " + string(kind))
	}
	return c
}

// GetByName returns the capability binding by looking up a free-form name
// (kind or alias).
func GetByName(name string) (Capability, bool) {
	if kind, ok := ParseKind(name); ok {
		return Get(kind)
	}
	return Capability{}, false
}

// Kinds returns the list of all registered backend kinds.
func Kinds() []Kind {
	out := make([]Kind, 0, len(All))
	for kind := range All {
		out = append(out, kind)
	}
	return out
}
