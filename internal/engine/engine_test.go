package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/backend"
	"github.com/gscho/graphql-engine/pkg/command"
	"github.com/gscho/graphql-engine/pkg/health"
	"github.com/gscho/graphql-engine/pkg/logger"
)

// fakeOps implements every operator interface and counts invocations per
// command-shaped method so tests can assert routing without a database.
type fakeOps struct {
	calls map[string]int

	// err, when set, is returned from every method instead of success.
	err error
}

func newFakeOps() *fakeOps {
	return &fakeOps{calls: make(map[string]int)}
}

func (f *fakeOps) hit(name string) (interface{}, error) {
	f.calls[name]++
	if f.err != nil {
		return nil, f.err
	}
	return map[string]string{"message": "success"}, nil
}

func (f *fakeOps) AddSource(ctx context.Context, args command.AddSourceArgs) (interface{}, error) {
	return f.hit("add_source")
}
func (f *fakeOps) UpdateSource(ctx context.Context, args command.AddSourceArgs) (interface{}, error) {
	return f.hit("update_source")
}
func (f *fakeOps) DropSource(ctx context.Context, args command.DropSourceArgs) (interface{}, error) {
	return f.hit("drop_source")
}
func (f *fakeOps) TrackTable(ctx context.Context, args command.TrackTableArgs) (interface{}, error) {
	return f.hit("track_table")
}
func (f *fakeOps) UntrackTable(ctx context.Context, args command.UntrackTableArgs) (interface{}, error) {
	return f.hit("untrack_table")
}
func (f *fakeOps) SetTableCustomization(ctx context.Context, args command.SetTableCustomizationArgs) (interface{}, error) {
	return f.hit("set_table_customization")
}
func (f *fakeOps) CreatePermission(ctx context.Context, action command.PermissionAction, args command.CreatePermissionArgs) (interface{}, error) {
	return f.hit("create_" + string(action) + "_permission")
}
func (f *fakeOps) DropPermission(ctx context.Context, action command.PermissionAction, args command.DropPermissionArgs) (interface{}, error) {
	return f.hit("drop_" + string(action) + "_permission")
}
func (f *fakeOps) ListTables(ctx context.Context, args command.SourceScopeArgs) (interface{}, error) {
	return f.hit("get_source_tables")
}
func (f *fakeOps) ListFunctions(ctx context.Context, args command.SourceScopeArgs) (interface{}, error) {
	return f.hit("get_source_functions")
}
func (f *fakeOps) TrackFunction(ctx context.Context, args command.TrackFunctionArgs) (interface{}, error) {
	return f.hit("track_function")
}
func (f *fakeOps) UntrackFunction(ctx context.Context, args command.UntrackFunctionArgs) (interface{}, error) {
	return f.hit("untrack_function")
}
func (f *fakeOps) AddComputedField(ctx context.Context, args command.AddComputedFieldArgs) (interface{}, error) {
	return f.hit("add_computed_field")
}
func (f *fakeOps) DropComputedField(ctx context.Context, args command.DropComputedFieldArgs) (interface{}, error) {
	return f.hit("drop_computed_field")
}
func (f *fakeOps) CreateObjectRelationship(ctx context.Context, args command.CreateRelationshipArgs) (interface{}, error) {
	return f.hit("create_object_relationship")
}
func (f *fakeOps) CreateArrayRelationship(ctx context.Context, args command.CreateRelationshipArgs) (interface{}, error) {
	return f.hit("create_array_relationship")
}
func (f *fakeOps) SetRelationshipComment(ctx context.Context, args command.SetRelationshipCommentArgs) (interface{}, error) {
	return f.hit("set_relationship_comment")
}
func (f *fakeOps) RenameRelationship(ctx context.Context, args command.RenameRelationshipArgs) (interface{}, error) {
	return f.hit("rename_relationship")
}
func (f *fakeOps) DropRelationship(ctx context.Context, args command.DropRelationshipArgs) (interface{}, error) {
	return f.hit("drop_relationship")
}
func (f *fakeOps) CreateToSource(ctx context.Context, args command.CreateRemoteSourceRelationshipArgs) (interface{}, error) {
	return f.hit("create_remote_source_relationship")
}
func (f *fakeOps) CreateToRemoteSchema(ctx context.Context, args command.CreateRemoteSchemaRelationshipArgs) (interface{}, error) {
	return f.hit("create_remote_schema_relationship")
}
func (f *fakeOps) UpdateRemoteRelationship(ctx context.Context, args command.UpdateRemoteRelationshipArgs) (interface{}, error) {
	return f.hit("update_remote_relationship")
}
func (f *fakeOps) DeleteRemoteRelationship(ctx context.Context, args command.DeleteRemoteRelationshipArgs) (interface{}, error) {
	return f.hit("delete_remote_relationship")
}

type fakeImpl struct {
	kind backend.Kind
	ops  *fakeOps
}

func (f *fakeImpl) Kind() backend.Kind               { return f.kind }
func (f *fakeImpl) Capabilities() backend.Capability { return backend.MustGet(f.kind) }
func (f *fakeImpl) SourceOperations() command.SourceOperator {
	return f.ops
}
func (f *fakeImpl) TableOperations() command.TableOperator {
	return f.ops
}
func (f *fakeImpl) PermissionOperations() command.PermissionOperator {
	return f.ops
}
func (f *fakeImpl) TrackableOperations() command.TrackableOperator {
	return f.ops
}
func (f *fakeImpl) FunctionOperations() command.FunctionOperator {
	return f.ops
}
func (f *fakeImpl) RelationshipOperations() command.RelationshipOperator {
	return f.ops
}
func (f *fakeImpl) RemoteRelationshipOperations() command.RemoteRelationshipOperator {
	return f.ops
}

func newTestServer(t *testing.T) (*Server, *fakeOps, *metadata.Store) {
	t.Helper()

	ops := newFakeOps()
	catalog, err := command.BuildAll([]command.Implementation{
		&fakeImpl{kind: backend.PostgreSQL, ops: ops},
	})
	require.NoError(t, err)

	store := metadata.NewStore()
	_, err = store.AddSource("default", backend.PostgreSQL, command.SourceConfiguration{}, "", false)
	require.NoError(t, err)

	log := logger.New("engine-test", "0.0.0")
	server := NewServer(Options{
		Addr:    "127.0.0.1:0",
		Catalog: catalog,
		Store:   store,
		Logger:  log,
		Health:  health.NewChecker(),
	})
	return server, ops, store
}

func postMetadata(t *testing.T, server *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/metadata", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestMetadataEndpoint(t *testing.T) {
	t.Run("dispatches a tracked command", func(t *testing.T) {
		server, ops, _ := newTestServer(t)

		rec := postMetadata(t, server, `{
			"type": "track_table",
			"args": {"source": "default", "table": {"schema": "public", "name": "users"}}
		}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, ops.calls["track_table"])

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "success", body["message"])
	})

	t.Run("unknown command is a 400", func(t *testing.T) {
		server, ops, _ := newTestServer(t)

		rec := postMetadata(t, server, `{
			"type": "replace_metadata",
			"args": {"source": "default"}
		}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, ops.calls)

		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not-exists", body.Code)
	})

	t.Run("unresolvable backend is a 400", func(t *testing.T) {
		server, _, _ := newTestServer(t)

		rec := postMetadata(t, server, `{
			"type": "track_table",
			"args": {"source": "nowhere", "table": {"name": "users"}}
		}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unknown-backend", body.Code)
	})

	t.Run("schema violations are reported", func(t *testing.T) {
		server, ops, _ := newTestServer(t)

		rec := postMetadata(t, server, `{
			"type": "track_table",
			"args": {"source": "default"}
		}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, ops.calls["track_table"])

		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "invalid-payload", body.Code)
		require.NotEmpty(t, body.Violations)
		assert.Equal(t, "table", body.Violations[0].Path)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		server, _, _ := newTestServer(t)

		rec := postMetadata(t, server, `{"type": `)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "parse-failed", body.Code)
	})

	t.Run("explicit backend skips source resolution", func(t *testing.T) {
		server, ops, _ := newTestServer(t)

		rec := postMetadata(t, server, `{
			"type": "get_source_tables",
			"backend": "postgres",
			"args": {"source": "anything"}
		}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, ops.calls["get_source_tables"])
	})

	t.Run("handler failure is an unexpected 500", func(t *testing.T) {
		server, ops, _ := newTestServer(t)
		ops.err = errors.New("connection refused")

		rec := postMetadata(t, server, `{
			"type": "track_table",
			"args": {"source": "default", "table": {"name": "users"}}
		}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unexpected", body.Code)
	})

	t.Run("surfaced startup failure is not a request error", func(t *testing.T) {
		server, ops, _ := newTestServer(t)
		ops.err = command.NewStartupError(backend.PostgreSQL, "capability declared without operator")

		rec := postMetadata(t, server, `{
			"type": "track_table",
			"args": {"source": "default", "table": {"name": "users"}}
		}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "startup-failed", body.Code)
	})
}

func TestBulk(t *testing.T) {
	t.Run("runs requests in order", func(t *testing.T) {
		server, ops, _ := newTestServer(t)

		rec := postMetadata(t, server, `{
			"type": "bulk",
			"args": [
				{"type": "track_table", "args": {"source": "default", "table": {"name": "users"}}},
				{"type": "track_table", "args": {"source": "default", "table": {"name": "orders"}}}
			]
		}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, ops.calls["track_table"])

		var results []json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
		assert.Len(t, results, 2)
	})

	t.Run("first failure aborts the rest", func(t *testing.T) {
		server, ops, _ := newTestServer(t)

		rec := postMetadata(t, server, `{
			"type": "bulk",
			"args": [
				{"type": "no_such_command", "args": {"source": "default"}},
				{"type": "track_table", "args": {"source": "default", "table": {"name": "users"}}}
			]
		}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, ops.calls["track_table"])
	})

	t.Run("nested bulk is rejected", func(t *testing.T) {
		server, _, _ := newTestServer(t)

		rec := postMetadata(t, server, `{
			"type": "bulk",
			"args": [{"type": "bulk", "args": []}]
		}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCommandsEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/metadata/commands", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var listing commandListing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Backends, 1)
	assert.Equal(t, "postgres", listing.Backends[0].Kind)

	names := make([]string, 0, len(listing.Backends[0].Commands))
	for _, c := range listing.Backends[0].Commands {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "track_table")
	assert.Contains(t, names, "create_select_permission")
	assert.Contains(t, names, "create_remote_schema_relationship")
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestExportEndpoint(t *testing.T) {
	server, _, store := newTestServer(t)

	require.NoError(t, store.TrackTable("default", command.TableName{Schema: "public", Name: "users"}, nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/metadata/export", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var doc metadata.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, metadata.CurrentVersion, doc.Version)
	require.Len(t, doc.Sources, 1)
	assert.Equal(t, "default", doc.Sources[0].Name)
}
