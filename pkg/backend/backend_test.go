package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Kind
		ok   bool
	}{
		{"canonical kind", "postgres", PostgreSQL, true},
		{"product name", "PostgreSQL", PostgreSQL, true},
		{"alias", "pg", PostgreSQL, true},
		{"alias with dash", "data-connector", DataConnector, true},
		{"mariadb maps to mysql", "mariadb", MySQL, true},
		{"case insensitive", "COCKROACHDB", Cockroach, true},
		{"surrounding whitespace", "  mssql  ", SQLServer, true},
		{"unknown", "sybase", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseKind(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllBindingsAreTotal(t *testing.T) {
	require.NotEmpty(t, All)

	for kind, cap := range All {
		assert.Equal(t, kind, cap.Kind, "binding for %s must carry its own kind", kind)
		assert.NotEmpty(t, cap.Name, "binding for %s must carry a name", kind)

		// Every kind must resolve through its own canonical identifier.
		resolved, ok := ParseKind(string(kind))
		require.True(t, ok)
		assert.Equal(t, kind, resolved)
	}
}

func TestAliasesDoNotCollide(t *testing.T) {
	seen := make(map[string]Kind)
	for kind, cap := range All {
		for _, alias := range cap.Aliases {
			if owner, dup := seen[alias]; dup {
				t.Fatalf("alias %q claimed by both %s and %s", alias, owner, kind)
			}
			seen[alias] = kind
		}
	}
}

func TestCapabilityGrants(t *testing.T) {
	t.Run("postgres grants everything", func(t *testing.T) {
		c := MustGet(PostgreSQL)
		assert.True(t, c.Commands.Function.Supported())
		assert.True(t, c.Commands.Function.ComputedFields)
		assert.True(t, c.Commands.RemoteRelationship.Supported())
		assert.True(t, c.Commands.RemoteRelationship.ToRemoteSchema)
	})

	t.Run("cockroach has no function category", func(t *testing.T) {
		c := MustGet(Cockroach)
		assert.False(t, c.Commands.Function.Supported())
		assert.True(t, c.Commands.Relationship)
	})

	t.Run("mssql remote relationships are source-only", func(t *testing.T) {
		c := MustGet(SQLServer)
		assert.True(t, c.Commands.RemoteRelationship.ToSource)
		assert.False(t, c.Commands.RemoteRelationship.ToRemoteSchema)
		assert.True(t, c.Commands.RemoteRelationship.Supported())
	})

	t.Run("mysql grants no remote relationships", func(t *testing.T) {
		c := MustGet(MySQL)
		assert.False(t, c.Commands.RemoteRelationship.Supported())
	})

	t.Run("dataconnector tracks functions without computed fields", func(t *testing.T) {
		c := MustGet(DataConnector)
		assert.True(t, c.Commands.Function.Tracking)
		assert.False(t, c.Commands.Function.ComputedFields)
	})
}

func TestMustGetPanicsOnUnknownKind(t *testing.T) {
	assert.Panics(t, func() {
		MustGet(Kind("oracle"))
	})
}

func TestGetByName(t *testing.T) {
	c, ok := GetByName("azure-sql")
	require.True(t, ok)
	assert.Equal(t, SQLServer, c.Kind)

	_, ok = GetByName("not-a-backend")
	assert.False(t, ok)
}

func TestKindsCoversAll(t *testing.T) {
	kinds := Kinds()
	assert.Len(t, kinds, len(All))
	for _, k := range kinds {
		_, ok := All[k]
		assert.True(t, ok)
	}
}
