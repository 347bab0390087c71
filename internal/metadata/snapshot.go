package metadata

import (
	"encoding/json"
	"sort"

	"github.com/gscho/graphql-engine/pkg/backend"
	"github.com/gscho/graphql-engine/pkg/command"
)

// CurrentVersion is the snapshot document version this build writes.
const CurrentVersion = 3

// Document is the serializable form of the metadata store, used for
// persistence and export. Collections are sorted so two exports of the same
// state are byte-identical.
type Document struct {
	Version int              `json:"version"`
	Sources []SourceSnapshot `json:"sources"`
}

// SourceSnapshot is the serializable form of one tracked source.
type SourceSnapshot struct {
	ID            string                      `json:"id"`
	Name          string                      `json:"name"`
	Kind          backend.Kind                `json:"kind"`
	Configuration command.SourceConfiguration `json:"configuration"`
	Comment       string                      `json:"comment,omitempty"`
	Tables        []TableSnapshot             `json:"tables,omitempty"`
	Functions     []FunctionSnapshot          `json:"functions,omitempty"`
}

// TableSnapshot is the serializable form of one tracked table.
type TableSnapshot struct {
	Table               command.TableName            `json:"table"`
	Customization       *command.TableCustomization  `json:"configuration,omitempty"`
	Permissions         []Permission                 `json:"permissions,omitempty"`
	Relationships       []Relationship               `json:"relationships,omitempty"`
	RemoteRelationships []RemoteRelationshipSnapshot `json:"remote_relationships,omitempty"`
	ComputedFields      []ComputedField              `json:"computed_fields,omitempty"`
}

// FunctionSnapshot is the serializable form of one tracked function.
type FunctionSnapshot struct {
	Function      command.FunctionName           `json:"function"`
	Configuration *command.FunctionConfiguration `json:"configuration,omitempty"`
}

// RemoteRelationshipSnapshot is the serializable form of one remote
// relationship.
type RemoteRelationshipSnapshot struct {
	Name       string                    `json:"name"`
	Variant    RemoteRelationshipVariant `json:"variant"`
	Definition json.RawMessage           `json:"definition"`
}

// Export produces a snapshot of the current store state.
func (s *Store) Export() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := &Document{Version: CurrentVersion}
	for _, name := range sortedKeys(s.sources) {
		src := s.sources[name]
		snap := SourceSnapshot{
			ID:            src.ID,
			Name:          src.Name,
			Kind:          src.Kind,
			Configuration: src.Configuration,
			Comment:       src.Comment,
		}
		for _, key := range sortedKeys(src.tables) {
			snap.Tables = append(snap.Tables, exportTable(src.tables[key]))
		}
		for _, key := range sortedKeys(src.functions) {
			fn := src.functions[key]
			snap.Functions = append(snap.Functions, FunctionSnapshot{
				Function:      fn.Function,
				Configuration: fn.Configuration,
			})
		}
		doc.Sources = append(doc.Sources, snap)
	}
	return doc
}

func exportTable(tt *TrackedTable) TableSnapshot {
	snap := TableSnapshot{
		Table:         tt.Table,
		Customization: tt.Customization,
	}
	for _, role := range sortedKeys(tt.permissions) {
		byAction := tt.permissions[role]
		for _, action := range command.PermissionActions {
			if p, ok := byAction[action]; ok {
				snap.Permissions = append(snap.Permissions, *p)
			}
		}
	}
	for _, name := range sortedKeys(tt.relationships) {
		snap.Relationships = append(snap.Relationships, *tt.relationships[name])
	}
	for _, name := range sortedKeys(tt.remoteRelationships) {
		rr := tt.remoteRelationships[name]
		snap.RemoteRelationships = append(snap.RemoteRelationships, RemoteRelationshipSnapshot{
			Name:       rr.Name,
			Variant:    rr.Variant,
			Definition: json.RawMessage(rr.Definition),
		})
	}
	for _, name := range sortedKeys(tt.computedFields) {
		snap.ComputedFields = append(snap.ComputedFields, *tt.computedFields[name])
	}
	return snap
}

// Load replaces the store's state with a snapshot.
func (s *Store) Load(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sources = make(map[string]*Source, len(doc.Sources))
	for _, snap := range doc.Sources {
		src := &Source{
			ID:            snap.ID,
			Name:          snap.Name,
			Kind:          snap.Kind,
			Configuration: snap.Configuration,
			Comment:       snap.Comment,
			tables:        make(map[string]*TrackedTable, len(snap.Tables)),
			functions:     make(map[string]*TrackedFunction, len(snap.Functions)),
		}
		for _, ts := range snap.Tables {
			src.tables[ts.Table.String()] = loadTable(ts)
		}
		for _, fs := range snap.Functions {
			src.functions[fs.Function.String()] = &TrackedFunction{
				Function:      fs.Function,
				Configuration: fs.Configuration,
			}
		}
		s.sources[snap.Name] = src
	}
}

func loadTable(ts TableSnapshot) *TrackedTable {
	tt := &TrackedTable{
		Table:               ts.Table,
		Customization:       ts.Customization,
		permissions:         make(map[string]map[command.PermissionAction]*Permission),
		relationships:       make(map[string]*Relationship, len(ts.Relationships)),
		remoteRelationships: make(map[string]*RemoteRelationship, len(ts.RemoteRelationships)),
		computedFields:      make(map[string]*ComputedField, len(ts.ComputedFields)),
	}
	for _, p := range ts.Permissions {
		p := p
		byAction, ok := tt.permissions[p.Role]
		if !ok {
			byAction = make(map[command.PermissionAction]*Permission)
			tt.permissions[p.Role] = byAction
		}
		byAction[p.Action] = &p
	}
	for _, rel := range ts.Relationships {
		rel := rel
		tt.relationships[rel.Name] = &rel
	}
	for _, rr := range ts.RemoteRelationships {
		tt.remoteRelationships[rr.Name] = &RemoteRelationship{
			Name:       rr.Name,
			Variant:    rr.Variant,
			Definition: []byte(rr.Definition),
		}
	}
	for _, cf := range ts.ComputedFields {
		cf := cf
		tt.computedFields[cf.Name] = &cf
	}
	return tt
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
