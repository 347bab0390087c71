package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gscho/graphql-engine/pkg/backend"
	"github.com/gscho/graphql-engine/pkg/command"
)

func usersTable() command.TableName {
	return command.TableName{Schema: "public", Name: "users"}
}

func newStoreWithSource(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	_, err := s.AddSource("default", backend.PostgreSQL, command.SourceConfiguration{
		Host: "localhost", Port: 5432, DatabaseName: "app",
	}, "", false)
	require.NoError(t, err)
	return s
}

func TestSourceLifecycle(t *testing.T) {
	t.Run("duplicate source rejected without replace", func(t *testing.T) {
		s := newStoreWithSource(t)
		_, err := s.AddSource("default", backend.PostgreSQL, command.SourceConfiguration{}, "", false)
		assert.ErrorIs(t, err, ErrSourceExists)
	})

	t.Run("replace keeps the kind", func(t *testing.T) {
		s := newStoreWithSource(t)
		_, err := s.AddSource("default", backend.SQLServer, command.SourceConfiguration{}, "", true)
		assert.Error(t, err)

		_, err = s.AddSource("default", backend.PostgreSQL, command.SourceConfiguration{Host: "db2"}, "", true)
		require.NoError(t, err)
		cfg, err := s.SourceConfiguration("default")
		require.NoError(t, err)
		assert.Equal(t, "db2", cfg.Host)
	})

	t.Run("source kind resolution", func(t *testing.T) {
		s := newStoreWithSource(t)
		kind, ok := s.SourceKind("default")
		require.True(t, ok)
		assert.Equal(t, backend.PostgreSQL, kind)

		_, ok = s.SourceKind("missing")
		assert.False(t, ok)
	})

	t.Run("drop without cascade requires an empty source", func(t *testing.T) {
		s := newStoreWithSource(t)
		require.NoError(t, s.TrackTable("default", usersTable(), nil))

		err := s.DropSource("default", false)
		assert.ErrorIs(t, err, ErrDependentsExist)

		require.NoError(t, s.DropSource("default", true))
		_, ok := s.SourceKind("default")
		assert.False(t, ok)
	})
}

func TestTableLifecycle(t *testing.T) {
	t.Run("double tracking rejected", func(t *testing.T) {
		s := newStoreWithSource(t)
		require.NoError(t, s.TrackTable("default", usersTable(), nil))
		err := s.TrackTable("default", usersTable(), nil)
		assert.ErrorIs(t, err, ErrTableTracked)
	})

	t.Run("tracking requires the source", func(t *testing.T) {
		s := NewStore()
		err := s.TrackTable("missing", usersTable(), nil)
		assert.ErrorIs(t, err, ErrSourceNotFound)
	})

	t.Run("untrack without cascade requires no dependents", func(t *testing.T) {
		s := newStoreWithSource(t)
		require.NoError(t, s.TrackTable("default", usersTable(), nil))
		require.NoError(t, s.CreatePermission("default", usersTable(), Permission{
			Role:   "viewer",
			Action: command.PermissionSelect,
		}))

		err := s.UntrackTable("default", usersTable(), false)
		assert.ErrorIs(t, err, ErrDependentsExist)

		require.NoError(t, s.UntrackTable("default", usersTable(), true))
		assert.False(t, s.IsTableTracked("default", usersTable()))
	})
}

func TestPermissions(t *testing.T) {
	s := newStoreWithSource(t)
	require.NoError(t, s.TrackTable("default", usersTable(), nil))

	perm := Permission{Role: "viewer", Action: command.PermissionSelect}
	require.NoError(t, s.CreatePermission("default", usersTable(), perm))

	t.Run("duplicate role and action rejected", func(t *testing.T) {
		err := s.CreatePermission("default", usersTable(), perm)
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("same role different action allowed", func(t *testing.T) {
		err := s.CreatePermission("default", usersTable(), Permission{
			Role:   "viewer",
			Action: command.PermissionInsert,
		})
		assert.NoError(t, err)
	})

	t.Run("drop is exact", func(t *testing.T) {
		err := s.DropPermission("default", usersTable(), "viewer", command.PermissionDelete)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, s.DropPermission("default", usersTable(), "viewer", command.PermissionInsert))
	})
}

func TestRelationships(t *testing.T) {
	s := newStoreWithSource(t)
	require.NoError(t, s.TrackTable("default", usersTable(), nil))

	rel := Relationship{Name: "posts", Type: ArrayRelationship}
	require.NoError(t, s.CreateRelationship("default", usersTable(), rel))

	t.Run("local and remote relationships share a namespace", func(t *testing.T) {
		err := s.CreateRemoteRelationship("default", usersTable(), RemoteRelationship{
			Name:    "posts",
			Variant: RemoteToSource,
		})
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("rename refuses a taken name", func(t *testing.T) {
		require.NoError(t, s.CreateRelationship("default", usersTable(), Relationship{
			Name: "author", Type: ObjectRelationship,
		}))
		err := s.RenameRelationship("default", usersTable(), "author", "posts")
		assert.ErrorIs(t, err, ErrDuplicateName)
		require.NoError(t, s.RenameRelationship("default", usersTable(), "author", "creator"))
	})

	t.Run("update remote relationship keeps the variant", func(t *testing.T) {
		require.NoError(t, s.CreateRemoteRelationship("default", usersTable(), RemoteRelationship{
			Name:       "orders",
			Variant:    RemoteToSchema,
			Definition: []byte(`{"remote_schema":"orders"}`),
		}))
		variant, err := s.UpdateRemoteRelationship("default", usersTable(), "orders", []byte(`{"remote_schema":"orders_v2"}`))
		require.NoError(t, err)
		assert.Equal(t, RemoteToSchema, variant)
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newStoreWithSource(t)
	require.NoError(t, s.TrackTable("default", usersTable(), &command.TableCustomization{CustomName: "people"}))
	require.NoError(t, s.TrackTable("default", command.TableName{Schema: "public", Name: "orders"}, nil))
	require.NoError(t, s.CreatePermission("default", usersTable(), Permission{
		Role:   "viewer",
		Action: command.PermissionSelect,
		Rule:   command.PermissionRule{Columns: []string{"id", "name"}},
	}))
	require.NoError(t, s.TrackFunction("default", command.FunctionName{Schema: "public", Name: "search_users"}, nil))
	require.NoError(t, s.CreateRelationship("default", usersTable(), Relationship{
		Name: "orders", Type: ArrayRelationship,
	}))

	doc := s.Export()
	require.Len(t, doc.Sources, 1)
	assert.Equal(t, CurrentVersion, doc.Version)

	restored := NewStore()
	restored.Load(doc)
	assert.Equal(t, doc, restored.Export())

	t.Run("export is deterministic", func(t *testing.T) {
		first, err := json.Marshal(s.Export())
		require.NoError(t, err)
		second, err := json.Marshal(s.Export())
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second))
	})
}
