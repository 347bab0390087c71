package metadata

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/gscho/graphql-engine/pkg/backend"
	"github.com/gscho/graphql-engine/pkg/command"
)

// Store errors
var (
	ErrSourceExists     = errors.New("source already tracked")
	ErrSourceNotFound   = errors.New("source not tracked")
	ErrTableTracked     = errors.New("table already tracked")
	ErrTableNotTracked  = errors.New("table not tracked")
	ErrFunctionTracked  = errors.New("function already tracked")
	ErrFunctionNotFound = errors.New("function not tracked")
	ErrDependentsExist  = errors.New("dependent metadata objects exist")
	ErrDuplicateName    = errors.New("name already in use")
	ErrNotFound         = errors.New("metadata object not found")
)

// Source is one tracked data source and everything tracked beneath it.
type Source struct {
	ID            string
	Name          string
	Kind          backend.Kind
	Configuration command.SourceConfiguration
	Comment       string

	tables    map[string]*TrackedTable
	functions map[string]*TrackedFunction
}

// TrackedTable is one tracked table plus its dependent metadata.
type TrackedTable struct {
	Table         command.TableName
	Customization *command.TableCustomization

	permissions         map[string]map[command.PermissionAction]*Permission
	relationships       map[string]*Relationship
	remoteRelationships map[string]*RemoteRelationship
	computedFields      map[string]*ComputedField
}

// TrackedFunction is one tracked function.
type TrackedFunction struct {
	Function      command.FunctionName
	Configuration *command.FunctionConfiguration
}

// Permission is one role's permission of one action on a table.
type Permission struct {
	Role    string
	Action  command.PermissionAction
	Rule    command.PermissionRule
	Comment string
}

// RelationshipType distinguishes object from array relationships.
type RelationshipType string

const (
	ObjectRelationship RelationshipType = "object"
	ArrayRelationship  RelationshipType = "array"
)

// Relationship is a local relationship between tracked tables of one source.
type Relationship struct {
	Name    string
	Type    RelationshipType
	Using   command.RelationshipUsing
	Comment string
}

// RemoteRelationshipVariant distinguishes the remote-relationship
// sub-variants.
type RemoteRelationshipVariant string

const (
	RemoteToSource RemoteRelationshipVariant = "to_source"
	RemoteToSchema RemoteRelationshipVariant = "to_remote_schema"
)

// RemoteRelationship is a relationship crossing source boundaries.
type RemoteRelationship struct {
	Name       string
	Variant    RemoteRelationshipVariant
	Definition []byte
}

// ComputedField binds a function to a table as a virtual column.
type ComputedField struct {
	Name       string
	Definition command.ComputedFieldDefinition
}

// Store is the in-memory tracked-metadata catalog. Construction happens at
// startup; afterwards it is mutated only through its methods, which are safe
// for concurrent request handlers.
type Store struct {
	mu      sync.RWMutex
	sources map[string]*Source
}

// NewStore creates an empty metadata store.
func NewStore() *Store {
	return &Store{sources: make(map[string]*Source)}
}

var (
	instance *Store
	once     sync.Once
)

// GetInstance returns the process-wide metadata store. Backend
// implementations registered from init functions resolve it lazily at call
// time.
func GetInstance() *Store {
	once.Do(func() {
		instance = NewStore()
	})
	return instance
}

// SourceKind resolves a tracked source name to its backend kind. This is the
// dispatcher's inference hook.
func (s *Store) SourceKind(name string) (backend.Kind, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[name]
	if !ok {
		return "", false
	}
	return src.Kind, true
}

// AddSource tracks a new source. When replace is set an existing source of
// the same kind has its configuration swapped instead.
func (s *Store) AddSource(name string, kind backend.Kind, cfg command.SourceConfiguration, comment string, replace bool) (*Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sources[name]; ok {
		if !replace {
			return nil, fmt.Errorf("%w: %q", ErrSourceExists, name)
		}
		if existing.Kind != kind {
			return nil, fmt.Errorf("source %q is a %s source, cannot replace with %s", name, existing.Kind, kind)
		}
		existing.Configuration = cfg
		if comment != "" {
			existing.Comment = comment
		}
		return existing, nil
	}

	src := &Source{
		ID:            uuid.New().String(),
		Name:          name,
		Kind:          kind,
		Configuration: cfg,
		Comment:       comment,
		tables:        make(map[string]*TrackedTable),
		functions:     make(map[string]*TrackedFunction),
	}
	s.sources[name] = src
	return src, nil
}

// UpdateSource replaces the configuration of a tracked source.
func (s *Store) UpdateSource(name string, cfg command.SourceConfiguration, comment string) (*Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSourceNotFound, name)
	}
	src.Configuration = cfg
	if comment != "" {
		src.Comment = comment
	}
	return src, nil
}

// DropSource removes a tracked source. Without cascade a source that still
// tracks tables or functions is an error.
func (s *Store) DropSource(name string, cascade bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSourceNotFound, name)
	}
	if !cascade && (len(src.tables) > 0 || len(src.functions) > 0) {
		return fmt.Errorf("%w: source %q tracks %d tables and %d functions",
			ErrDependentsExist, name, len(src.tables), len(src.functions))
	}
	delete(s.sources, name)
	return nil
}

// Source returns a tracked source by name.
func (s *Store) Source(name string) (*Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[name]
	return src, ok
}

// SourceNames returns all tracked source names, sorted.
func (s *Store) SourceNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sources))
	for name := range s.sources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SourceConfiguration returns the connection configuration of a tracked
// source. Backends use this to reach the underlying system.
func (s *Store) SourceConfiguration(name string) (command.SourceConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[name]
	if !ok {
		return command.SourceConfiguration{}, fmt.Errorf("%w: %q", ErrSourceNotFound, name)
	}
	return src.Configuration, nil
}

// TrackTable adds a table to a source's tracked set.
func (s *Store) TrackTable(source string, table command.TableName, customization *command.TableCustomization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[source]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSourceNotFound, source)
	}
	key := table.String()
	if _, tracked := src.tables[key]; tracked {
		return fmt.Errorf("%w: %s in source %q", ErrTableTracked, key, source)
	}
	src.tables[key] = &TrackedTable{
		Table:               table,
		Customization:       customization,
		permissions:         make(map[string]map[command.PermissionAction]*Permission),
		relationships:       make(map[string]*Relationship),
		remoteRelationships: make(map[string]*RemoteRelationship),
		computedFields:      make(map[string]*ComputedField),
	}
	return nil
}

// UntrackTable removes a table. Without cascade a table with dependent
// permissions, relationships or computed fields is an error; with cascade
// the dependents go with it.
func (s *Store) UntrackTable(source string, table command.TableName, cascade bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, tt, err := s.trackedTable(source, table)
	if err != nil {
		return err
	}
	if !cascade {
		if n := tt.dependentCount(); n > 0 {
			return fmt.Errorf("%w: table %s has %d dependents", ErrDependentsExist, table, n)
		}
	}
	delete(src.tables, table.String())
	return nil
}

// SetTableCustomization replaces the customization of a tracked table.
func (s *Store) SetTableCustomization(source string, table command.TableName, c command.TableCustomization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tt, err := s.trackedTable(source, table)
	if err != nil {
		return err
	}
	tt.Customization = &c
	return nil
}

// IsTableTracked reports whether a table is tracked in a source.
func (s *Store) IsTableTracked(source string, table command.TableName) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[source]
	if !ok {
		return false
	}
	_, tracked := src.tables[table.String()]
	return tracked
}

// TrackedTables returns the tracked tables of a source, sorted by name.
func (s *Store) TrackedTables(source string) ([]command.TableName, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSourceNotFound, source)
	}
	keys := make([]string, 0, len(src.tables))
	for key := range src.tables {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]command.TableName, len(keys))
	for i, key := range keys {
		out[i] = src.tables[key].Table
	}
	return out, nil
}

// CreatePermission records one role's permission on a tracked table. A
// duplicate (role, action) pair is an error.
func (s *Store) CreatePermission(source string, table command.TableName, p Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tt, err := s.trackedTable(source, table)
	if err != nil {
		return err
	}
	byAction, ok := tt.permissions[p.Role]
	if !ok {
		byAction = make(map[command.PermissionAction]*Permission)
		tt.permissions[p.Role] = byAction
	}
	if _, exists := byAction[p.Action]; exists {
		return fmt.Errorf("%w: %s permission for role %q on %s", ErrDuplicateName, p.Action, p.Role, table)
	}
	byAction[p.Action] = &p
	return nil
}

// DropPermission removes one role's permission of one action.
func (s *Store) DropPermission(source string, table command.TableName, role string, action command.PermissionAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tt, err := s.trackedTable(source, table)
	if err != nil {
		return err
	}
	byAction, ok := tt.permissions[role]
	if !ok {
		return fmt.Errorf("%w: no permissions for role %q on %s", ErrNotFound, role, table)
	}
	if _, exists := byAction[action]; !exists {
		return fmt.Errorf("%w: no %s permission for role %q on %s", ErrNotFound, action, role, table)
	}
	delete(byAction, action)
	if len(byAction) == 0 {
		delete(tt.permissions, role)
	}
	return nil
}

// TrackFunction adds a function to a source's tracked set.
func (s *Store) TrackFunction(source string, fn command.FunctionName, cfg *command.FunctionConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[source]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSourceNotFound, source)
	}
	key := fn.String()
	if _, tracked := src.functions[key]; tracked {
		return fmt.Errorf("%w: %s in source %q", ErrFunctionTracked, key, source)
	}
	src.functions[key] = &TrackedFunction{Function: fn, Configuration: cfg}
	return nil
}

// UntrackFunction removes a tracked function.
func (s *Store) UntrackFunction(source string, fn command.FunctionName) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[source]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSourceNotFound, source)
	}
	key := fn.String()
	if _, tracked := src.functions[key]; !tracked {
		return fmt.Errorf("%w: %s in source %q", ErrFunctionNotFound, key, source)
	}
	delete(src.functions, key)
	return nil
}

// AddComputedField binds a function to a tracked table.
func (s *Store) AddComputedField(source string, table command.TableName, cf ComputedField) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tt, err := s.trackedTable(source, table)
	if err != nil {
		return err
	}
	if _, exists := tt.computedFields[cf.Name]; exists {
		return fmt.Errorf("%w: computed field %q on %s", ErrDuplicateName, cf.Name, table)
	}
	tt.computedFields[cf.Name] = &cf
	return nil
}

// DropComputedField removes a computed field.
func (s *Store) DropComputedField(source string, table command.TableName, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tt, err := s.trackedTable(source, table)
	if err != nil {
		return err
	}
	if _, exists := tt.computedFields[name]; !exists {
		return fmt.Errorf("%w: computed field %q on %s", ErrNotFound, name, table)
	}
	delete(tt.computedFields, name)
	return nil
}

// CreateRelationship records a local relationship on a tracked table.
// Relationship and remote-relationship names share a namespace per table.
func (s *Store) CreateRelationship(source string, table command.TableName, rel Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tt, err := s.trackedTable(source, table)
	if err != nil {
		return err
	}
	if tt.relationshipNameTaken(rel.Name) {
		return fmt.Errorf("%w: relationship %q on %s", ErrDuplicateName, rel.Name, table)
	}
	tt.relationships[rel.Name] = &rel
	return nil
}

// RenameRelationship renames a local relationship.
func (s *Store) RenameRelationship(source string, table command.TableName, name, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tt, err := s.trackedTable(source, table)
	if err != nil {
		return err
	}
	rel, ok := tt.relationships[name]
	if !ok {
		return fmt.Errorf("%w: relationship %q on %s", ErrNotFound, name, table)
	}
	if name == newName {
		return nil
	}
	if tt.relationshipNameTaken(newName) {
		return fmt.Errorf("%w: relationship %q on %s", ErrDuplicateName, newName, table)
	}
	delete(tt.relationships, name)
	rel.Name = newName
	tt.relationships[newName] = rel
	return nil
}

// SetRelationshipComment updates a local relationship's comment.
func (s *Store) SetRelationshipComment(source string, table command.TableName, name, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tt, err := s.trackedTable(source, table)
	if err != nil {
		return err
	}
	rel, ok := tt.relationships[name]
	if !ok {
		return fmt.Errorf("%w: relationship %q on %s", ErrNotFound, name, table)
	}
	rel.Comment = comment
	return nil
}

// DropRelationship removes a local relationship.
func (s *Store) DropRelationship(source string, table command.TableName, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tt, err := s.trackedTable(source, table)
	if err != nil {
		return err
	}
	if _, ok := tt.relationships[name]; !ok {
		return fmt.Errorf("%w: relationship %q on %s", ErrNotFound, name, table)
	}
	delete(tt.relationships, name)
	return nil
}

// CreateRemoteRelationship records a remote relationship on a tracked table.
func (s *Store) CreateRemoteRelationship(source string, table command.TableName, rr RemoteRelationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tt, err := s.trackedTable(source, table)
	if err != nil {
		return err
	}
	if tt.relationshipNameTaken(rr.Name) {
		return fmt.Errorf("%w: relationship %q on %s", ErrDuplicateName, rr.Name, table)
	}
	tt.remoteRelationships[rr.Name] = &rr
	return nil
}

// RemoteRelationshipVariantOf returns the sub-variant an existing remote
// relationship was created with, so callers can interpret a replacement
// definition before committing it.
func (s *Store) RemoteRelationshipVariantOf(source string, table command.TableName, name string) (RemoteRelationshipVariant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, tt, err := s.trackedTable(source, table)
	if err != nil {
		return "", err
	}
	rr, ok := tt.remoteRelationships[name]
	if !ok {
		return "", fmt.Errorf("%w: remote relationship %q on %s", ErrNotFound, name, table)
	}
	return rr.Variant, nil
}

// UpdateRemoteRelationship replaces the definition of an existing remote
// relationship, keeping its sub-variant.
func (s *Store) UpdateRemoteRelationship(source string, table command.TableName, name string, definition []byte) (RemoteRelationshipVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tt, err := s.trackedTable(source, table)
	if err != nil {
		return "", err
	}
	rr, ok := tt.remoteRelationships[name]
	if !ok {
		return "", fmt.Errorf("%w: remote relationship %q on %s", ErrNotFound, name, table)
	}
	rr.Definition = definition
	return rr.Variant, nil
}

// DeleteRemoteRelationship removes a remote relationship.
func (s *Store) DeleteRemoteRelationship(source string, table command.TableName, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tt, err := s.trackedTable(source, table)
	if err != nil {
		return err
	}
	if _, ok := tt.remoteRelationships[name]; !ok {
		return fmt.Errorf("%w: remote relationship %q on %s", ErrNotFound, name, table)
	}
	delete(tt.remoteRelationships, name)
	return nil
}

// trackedTable resolves (source, table) under the write lock.
func (s *Store) trackedTable(source string, table command.TableName) (*Source, *TrackedTable, error) {
	src, ok := s.sources[source]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrSourceNotFound, source)
	}
	tt, ok := src.tables[table.String()]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s in source %q", ErrTableNotTracked, table, source)
	}
	return src, tt, nil
}

func (t *TrackedTable) dependentCount() int {
	n := len(t.relationships) + len(t.remoteRelationships) + len(t.computedFields)
	for _, byAction := range t.permissions {
		n += len(byAction)
	}
	return n
}

func (t *TrackedTable) relationshipNameTaken(name string) bool {
	if _, ok := t.relationships[name]; ok {
		return true
	}
	_, ok := t.remoteRelationships[name]
	return ok
}
