package engine

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gscho/graphql-engine/pkg/command"
	"github.com/gscho/graphql-engine/pkg/health"
)

// bulkCommand groups several metadata requests into one round trip. The
// requests run in order; the first failure aborts the rest.
const bulkCommand = "bulk"

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	var req command.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "parse-failed", fmt.Sprintf("decoding request: %v", err))
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "parse-failed", "request type must not be empty")
		return
	}

	if req.Type == bulkCommand {
		s.handleBulk(w, r, req)
		return
	}

	result, err := s.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		s.writeDispatchError(w, req.Type, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request, req command.Request) {
	var requests []command.Request
	if err := json.Unmarshal(req.Args, &requests); err != nil {
		writeError(w, http.StatusBadRequest, "parse-failed", fmt.Sprintf("bulk args must be an array of requests: %v", err))
		return
	}

	results := make([]interface{}, 0, len(requests))
	for i, sub := range requests {
		if sub.Type == bulkCommand {
			writeError(w, http.StatusBadRequest, "parse-failed", fmt.Sprintf("bulk[%d]: nested bulk is not allowed", i))
			return
		}
		result, err := s.dispatcher.Dispatch(r.Context(), sub)
		if err != nil {
			s.writeDispatchError(w, fmt.Sprintf("%s (bulk[%d])", sub.Type, i), err)
			return
		}
		results = append(results, result)
	}
	writeJSON(w, http.StatusOK, results)
}

// commandListing is the response body of GET /v1/metadata/commands.
type commandListing struct {
	Backends []backendCommands `json:"backends"`
}

type backendCommands struct {
	Kind     string            `json:"kind"`
	Name     string            `json:"name"`
	Commands []commandManifest `json:"commands"`
}

type commandManifest struct {
	Name     string                `json:"name"`
	Category string                `json:"category"`
	Schema   *command.ObjectSchema `json:"schema,omitempty"`
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	listing := commandListing{Backends: []backendCommands{}}
	for _, kind := range s.catalog.Kinds() {
		registry, ok := s.catalog.Registry(kind)
		if !ok {
			continue
		}
		bc := backendCommands{
			Kind:     string(kind),
			Name:     string(kind),
			Commands: make([]commandManifest, 0, registry.Len()),
		}
		for _, desc := range registry.Descriptors() {
			bc.Commands = append(bc.Commands, commandManifest{
				Name:     desc.Name,
				Category: desc.Category.String(),
				Schema:   desc.Schema,
			})
		}
		listing.Backends = append(listing.Backends, bc)
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Export())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := health.StatusHealthy
	if s.health != nil {
		status = s.health.GetOverallStatus()
	}
	code := http.StatusOK
	if status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	body := map[string]interface{}{
		"status": status,
	}
	if s.health != nil {
		body["checks"] = s.health.GetAllChecks()
	}
	writeJSON(w, code, body)
}
