package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gscho/graphql-engine/pkg/backend"
)

// recorder implements every operator interface and counts invocations by
// command name.
type recorder struct {
	mu     sync.Mutex
	calls  map[string]int
	result interface{}
	err    error
}

func newRecorder() *recorder {
	return &recorder{calls: make(map[string]int), result: "ok"}
}

func (r *recorder) record(name string) (interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[name]++
	return r.result, r.err
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func (r *recorder) AddSource(ctx context.Context, args AddSourceArgs) (interface{}, error) {
	return r.record("add_source")
}
func (r *recorder) UpdateSource(ctx context.Context, args AddSourceArgs) (interface{}, error) {
	return r.record("update_source")
}
func (r *recorder) DropSource(ctx context.Context, args DropSourceArgs) (interface{}, error) {
	return r.record("drop_source")
}
func (r *recorder) TrackTable(ctx context.Context, args TrackTableArgs) (interface{}, error) {
	return r.record("track_table")
}
func (r *recorder) UntrackTable(ctx context.Context, args UntrackTableArgs) (interface{}, error) {
	return r.record("untrack_table")
}
func (r *recorder) SetTableCustomization(ctx context.Context, args SetTableCustomizationArgs) (interface{}, error) {
	return r.record("set_table_customization")
}
func (r *recorder) CreatePermission(ctx context.Context, action PermissionAction, args CreatePermissionArgs) (interface{}, error) {
	return r.record("create_" + string(action) + "_permission")
}
func (r *recorder) DropPermission(ctx context.Context, action PermissionAction, args DropPermissionArgs) (interface{}, error) {
	return r.record("drop_" + string(action) + "_permission")
}
func (r *recorder) ListTables(ctx context.Context, args SourceScopeArgs) (interface{}, error) {
	return r.record("get_source_tables")
}
func (r *recorder) ListFunctions(ctx context.Context, args SourceScopeArgs) (interface{}, error) {
	return r.record("get_source_functions")
}
func (r *recorder) TrackFunction(ctx context.Context, args TrackFunctionArgs) (interface{}, error) {
	return r.record("track_function")
}
func (r *recorder) UntrackFunction(ctx context.Context, args UntrackFunctionArgs) (interface{}, error) {
	return r.record("untrack_function")
}
func (r *recorder) AddComputedField(ctx context.Context, args AddComputedFieldArgs) (interface{}, error) {
	return r.record("add_computed_field")
}
func (r *recorder) DropComputedField(ctx context.Context, args DropComputedFieldArgs) (interface{}, error) {
	return r.record("drop_computed_field")
}
func (r *recorder) CreateObjectRelationship(ctx context.Context, args CreateRelationshipArgs) (interface{}, error) {
	return r.record("create_object_relationship")
}
func (r *recorder) CreateArrayRelationship(ctx context.Context, args CreateRelationshipArgs) (interface{}, error) {
	return r.record("create_array_relationship")
}
func (r *recorder) SetRelationshipComment(ctx context.Context, args SetRelationshipCommentArgs) (interface{}, error) {
	return r.record("set_relationship_comment")
}
func (r *recorder) RenameRelationship(ctx context.Context, args RenameRelationshipArgs) (interface{}, error) {
	return r.record("rename_relationship")
}
func (r *recorder) DropRelationship(ctx context.Context, args DropRelationshipArgs) (interface{}, error) {
	return r.record("drop_relationship")
}
func (r *recorder) CreateToSource(ctx context.Context, args CreateRemoteSourceRelationshipArgs) (interface{}, error) {
	return r.record("create_remote_source_relationship")
}
func (r *recorder) CreateToRemoteSchema(ctx context.Context, args CreateRemoteSchemaRelationshipArgs) (interface{}, error) {
	return r.record("create_remote_schema_relationship")
}
func (r *recorder) UpdateRemoteRelationship(ctx context.Context, args UpdateRemoteRelationshipArgs) (interface{}, error) {
	return r.record("update_remote_relationship")
}
func (r *recorder) DeleteRemoteRelationship(ctx context.Context, args DeleteRemoteRelationshipArgs) (interface{}, error) {
	return r.record("delete_remote_relationship")
}

// fakeImpl is a configurable backend implementation for tests.
type fakeImpl struct {
	kind   backend.Kind
	caps   backend.Capability
	ops    *recorder
	nilOps map[Category]bool
}

func newFakeImpl(kind backend.Kind, commands backend.CommandSet) *fakeImpl {
	return &fakeImpl{
		kind:   kind,
		caps:   backend.Capability{Name: string(kind), Kind: kind, Commands: commands},
		ops:    newRecorder(),
		nilOps: make(map[Category]bool),
	}
}

func (f *fakeImpl) Kind() backend.Kind               { return f.kind }
func (f *fakeImpl) Capabilities() backend.Capability { return f.caps }

func (f *fakeImpl) SourceOperations() SourceOperator {
	if f.nilOps[CategorySource] {
		return nil
	}
	return f.ops
}
func (f *fakeImpl) TableOperations() TableOperator {
	if f.nilOps[CategoryTable] {
		return nil
	}
	return f.ops
}
func (f *fakeImpl) PermissionOperations() PermissionOperator {
	if f.nilOps[CategoryTablePermissions] {
		return nil
	}
	return f.ops
}
func (f *fakeImpl) TrackableOperations() TrackableOperator {
	if f.nilOps[CategoryTrackable] {
		return nil
	}
	return f.ops
}
func (f *fakeImpl) FunctionOperations() FunctionOperator {
	if f.nilOps[CategoryFunction] {
		return nil
	}
	return f.ops
}
func (f *fakeImpl) RelationshipOperations() RelationshipOperator {
	if f.nilOps[CategoryRelationship] {
		return nil
	}
	return f.ops
}
func (f *fakeImpl) RemoteRelationshipOperations() RemoteRelationshipOperator {
	if f.nilOps[CategoryRemoteRelationship] {
		return nil
	}
	return f.ops
}

func allCommands() backend.CommandSet {
	return backend.CommandSet{
		Source:             true,
		Table:              true,
		TablePermissions:   true,
		Trackable:          true,
		Function:           backend.FunctionCapability{Tracking: true, ComputedFields: true},
		Relationship:       true,
		RemoteRelationship: backend.RemoteRelationshipCapability{ToSource: true, ToRemoteSchema: true},
	}
}

func TestBuildRegistry(t *testing.T) {
	t.Run("full capability set yields every command exactly once", func(t *testing.T) {
		impl := newFakeImpl("alpha", allCommands())
		r, err := BuildRegistry(impl)
		require.NoError(t, err)

		seen := make(map[string]int)
		for _, name := range r.Names() {
			seen[name]++
		}
		for name, n := range seen {
			assert.Equal(t, 1, n, "command %q appears %d times", name, n)
		}
		assert.Equal(t, r.Len(), len(seen))
	})

	t.Run("table and function capabilities only", func(t *testing.T) {
		impl := newFakeImpl("alpha", backend.CommandSet{
			Table:    true,
			Function: backend.FunctionCapability{Tracking: true},
		})
		r, err := BuildRegistry(impl)
		require.NoError(t, err)

		assert.Equal(t, []string{
			"track_table",
			"untrack_table",
			"set_table_customization",
			"track_function",
			"untrack_function",
		}, r.Names())

		for _, name := range r.Names() {
			d, ok := r.Lookup(name)
			require.True(t, ok)
			assert.NotEqual(t, CategorySource, d.Category)
			assert.NotEqual(t, CategoryRelationship, d.Category)
			assert.NotEqual(t, CategoryRemoteRelationship, d.Category)
		}
	})

	t.Run("empty capability set yields an empty but valid registry", func(t *testing.T) {
		impl := newFakeImpl("introspect-only", backend.CommandSet{})
		r, err := BuildRegistry(impl)
		require.NoError(t, err)
		assert.Equal(t, 0, r.Len())
	})

	t.Run("construction is deterministic", func(t *testing.T) {
		impl := newFakeImpl("alpha", allCommands())
		first, err := BuildRegistry(impl)
		require.NoError(t, err)
		second, err := BuildRegistry(impl)
		require.NoError(t, err)
		assert.Equal(t, first.Names(), second.Names())
	})

	t.Run("category order is fixed", func(t *testing.T) {
		impl := newFakeImpl("alpha", allCommands())
		r, err := BuildRegistry(impl)
		require.NoError(t, err)

		last := CategorySource
		for _, d := range r.Descriptors() {
			assert.GreaterOrEqual(t, int(d.Category), int(last), "category order regressed at %q", d.Name)
			last = d.Category
		}
	})

	t.Run("capability without operator fails at startup", func(t *testing.T) {
		impl := newFakeImpl("alpha", allCommands())
		impl.nilOps[CategoryTable] = true

		_, err := BuildRegistry(impl)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStartup)
		assert.Contains(t, err.Error(), "table")
	})

	t.Run("computed field commands require the grant", func(t *testing.T) {
		impl := newFakeImpl("alpha", backend.CommandSet{
			Function: backend.FunctionCapability{Tracking: true},
		})
		r, err := BuildRegistry(impl)
		require.NoError(t, err)

		_, ok := r.Lookup("add_computed_field")
		assert.False(t, ok)
		_, ok = r.Lookup("track_function")
		assert.True(t, ok)
	})

	t.Run("remote relationship sub-variants get distinct commands", func(t *testing.T) {
		impl := newFakeImpl("alpha", backend.CommandSet{
			RemoteRelationship: backend.RemoteRelationshipCapability{ToSource: true},
		})
		r, err := BuildRegistry(impl)
		require.NoError(t, err)

		_, ok := r.Lookup("create_remote_source_relationship")
		assert.True(t, ok)
		_, ok = r.Lookup("create_remote_schema_relationship")
		assert.False(t, ok)
	})
}

func TestCategoryBuildersGateOnCapability(t *testing.T) {
	impl := newFakeImpl("alpha", backend.CommandSet{})

	tests := []struct {
		name    string
		builder Builder
	}{
		{"source", SourceCommands},
		{"table", TableCommands},
		{"table_permissions", TablePermissionCommands},
		{"trackable", TrackableCommands},
		{"function", FunctionCommands},
		{"relationship", RelationshipCommands},
		{"remote_relationship", RemoteRelationshipCommands},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, tt.builder(impl))
		})
	}
}

func TestBuildAll(t *testing.T) {
	t.Run("one registry per kind", func(t *testing.T) {
		a := newFakeImpl("alpha", allCommands())
		b := newFakeImpl("beta", backend.CommandSet{Table: true})

		catalog, err := BuildAll([]Implementation{a, b})
		require.NoError(t, err)

		assert.Equal(t, []backend.Kind{"alpha", "beta"}, catalog.Kinds())

		ra, ok := catalog.Registry("alpha")
		require.True(t, ok)
		rb, ok := catalog.Registry("beta")
		require.True(t, ok)

		// The same command name may appear in both registries.
		_, ok = ra.Lookup("track_table")
		assert.True(t, ok)
		_, ok = rb.Lookup("track_table")
		assert.True(t, ok)
	})

	t.Run("double registration of a kind fails", func(t *testing.T) {
		a := newFakeImpl("alpha", allCommands())
		_, err := BuildAll([]Implementation{a, a})
		assert.ErrorIs(t, err, ErrStartup)
	})
}
