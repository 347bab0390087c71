package dataconnector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gscho/graphql-engine/internal/backends/common"
	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/command"
)

func newAgent(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/capabilities", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"version": "1.0",
			"capabilities": map[string]bool{
				"queries":   true,
				"functions": true,
			},
		})
	})
	mux.HandleFunc("/schema", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"tables": []map[string]string{
				{"name": "albums", "type": "BASE TABLE"},
				{"name": "artists", "type": "BASE TABLE"},
			},
			"functions": []map[string]string{
				{"name": "search_albums"},
			},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestImpl(t *testing.T, agentURL string) (*Implementation, *metadata.Store) {
	t.Helper()
	store := metadata.NewStore()
	impl := NewImplementation(store)

	ctx := context.Background()
	result, err := impl.SourceOperations().AddSource(ctx, command.AddSourceArgs{
		Name:          "chinook",
		Configuration: command.SourceConfiguration{AgentURL: agentURL},
	})
	require.NoError(t, err)
	assert.Equal(t, common.Success(), result)
	return impl, store
}

func TestAddSource(t *testing.T) {
	t.Run("reachable agent is recorded", func(t *testing.T) {
		agent := newAgent(t)
		_, store := newTestImpl(t, agent.URL)

		kind, ok := store.SourceKind("chinook")
		require.True(t, ok)
		assert.Equal(t, "dataconnector", string(kind))
	})

	t.Run("missing agentUrl is rejected", func(t *testing.T) {
		impl := NewImplementation(metadata.NewStore())
		_, err := impl.SourceOperations().AddSource(context.Background(), command.AddSourceArgs{
			Name: "broken",
		})
		assert.Error(t, err)
	})

	t.Run("unreachable agent is rejected", func(t *testing.T) {
		agent := newAgent(t)
		url := agent.URL
		agent.Close()

		impl := NewImplementation(metadata.NewStore())
		_, err := impl.SourceOperations().AddSource(context.Background(), command.AddSourceArgs{
			Name:          "down",
			Configuration: command.SourceConfiguration{AgentURL: url},
		})
		assert.Error(t, err)
	})
}

func TestTrackTable(t *testing.T) {
	agent := newAgent(t)
	impl, store := newTestImpl(t, agent.URL)
	ctx := context.Background()

	t.Run("advertised table can be tracked", func(t *testing.T) {
		_, err := impl.TableOperations().TrackTable(ctx, command.TrackTableArgs{
			Source: "chinook",
			Table:  command.TableName{Name: "albums"},
		})
		require.NoError(t, err)
		assert.True(t, store.IsTableTracked("chinook", command.TableName{Name: "albums"}))
	})

	t.Run("unknown table is rejected", func(t *testing.T) {
		_, err := impl.TableOperations().TrackTable(ctx, command.TrackTableArgs{
			Source: "chinook",
			Table:  command.TableName{Name: "invoices"},
		})
		assert.Error(t, err)
	})
}

func TestIntrospection(t *testing.T) {
	agent := newAgent(t)
	impl, _ := newTestImpl(t, agent.URL)
	ctx := context.Background()

	t.Run("lists advertised tables", func(t *testing.T) {
		result, err := impl.TrackableOperations().ListTables(ctx, command.SourceScopeArgs{Source: "chinook"})
		require.NoError(t, err)

		listing, ok := result.(common.TableListing)
		require.True(t, ok)
		require.Len(t, listing.Tables, 2)
		assert.Equal(t, "albums", listing.Tables[0].Name)
	})

	t.Run("lists advertised functions", func(t *testing.T) {
		result, err := impl.TrackableOperations().ListFunctions(ctx, command.SourceScopeArgs{Source: "chinook"})
		require.NoError(t, err)

		listing, ok := result.(common.FunctionListing)
		require.True(t, ok)
		require.Len(t, listing.Functions, 1)
		assert.Equal(t, "search_albums", listing.Functions[0].Name)
	})
}

func TestTrackFunction(t *testing.T) {
	agent := newAgent(t)
	impl, _ := newTestImpl(t, agent.URL)
	ctx := context.Background()

	ops := impl.FunctionOperations()
	require.NotNil(t, ops)

	_, err := ops.TrackFunction(ctx, command.TrackFunctionArgs{
		Source:   "chinook",
		Function: command.FunctionName{Name: "search_albums"},
	})
	assert.NoError(t, err)

	_, err = ops.TrackFunction(ctx, command.TrackFunctionArgs{
		Source:   "chinook",
		Function: command.FunctionName{Name: "nope"},
	})
	assert.Error(t, err)
}
