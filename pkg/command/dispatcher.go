package command

import (
	"context"
	"encoding/json"

	"github.com/gscho/graphql-engine/pkg/backend"
)

// Request is one incoming metadata call: the command name, an optional
// explicit backend, and the untyped payload.
type Request struct {
	// Type is the command name, matched exactly and case-sensitively.
	Type string `json:"type"`

	// Backend names the backend kind explicitly. When empty the kind is
	// inferred from the source the payload names.
	Backend string `json:"backend,omitempty"`

	// Args is the command payload.
	Args json.RawMessage `json:"args"`
}

// SourceResolver resolves a tracked source name to its backend kind. The
// metadata catalog implements this.
type SourceResolver interface {
	SourceKind(name string) (backend.Kind, bool)
}

// Dispatcher resolves metadata requests to command descriptors and invokes
// their handlers. It holds no mutable state; any number of goroutines may
// dispatch concurrently.
type Dispatcher struct {
	catalog *Catalog
	sources SourceResolver
}

// NewDispatcher creates a dispatcher over a built catalog. sources may be
// nil, in which case every request must carry an explicit backend.
func NewDispatcher(catalog *Catalog, sources SourceResolver) *Dispatcher {
	return &Dispatcher{catalog: catalog, sources: sources}
}

// Dispatch resolves the request's backend kind, looks up the command in that
// kind's registry, validates the payload, and invokes the handler. Handler
// results and errors propagate verbatim; the dispatcher performs no retries
// and imposes no timeout beyond what ctx carries.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (interface{}, error) {
	kind, err := d.resolveKind(req)
	if err != nil {
		return nil, err
	}

	registry, ok := d.catalog.Registry(kind)
	if !ok {
		return nil, &UnknownBackendError{Name: string(kind), Reason: "no registry built for backend kind"}
	}

	desc, ok := registry.Lookup(req.Type)
	if !ok {
		return nil, &UnknownCommandError{Name: req.Type, Kind: kind}
	}

	if violations := desc.Schema.Validate(req.Args); len(violations) > 0 {
		return nil, &InvalidPayloadError{Command: desc.Name, Kind: kind, Violations: violations}
	}

	return desc.Handler(ctx, Invocation{Kind: kind, Args: req.Args})
}

// resolveKind determines the backend kind for a request: the explicit
// Backend field when present, otherwise the kind of the source named in the
// payload.
func (d *Dispatcher) resolveKind(req Request) (backend.Kind, error) {
	if req.Backend != "" {
		kind, ok := backend.ParseKind(req.Backend)
		if !ok {
			return "", &UnknownBackendError{Name: req.Backend, Reason: "not a registered backend kind"}
		}
		return kind, nil
	}

	source := sourceName(req.Args)
	if source == "" {
		return "", &UnknownBackendError{Name: req.Type, Reason: "request names no backend and its payload names no source"}
	}
	if d.sources == nil {
		return "", &UnknownBackendError{Name: source, Reason: "no source metadata available to infer backend"}
	}
	kind, ok := d.sources.SourceKind(source)
	if !ok {
		return "", &UnknownBackendError{Name: source, Reason: "source is not tracked"}
	}
	return kind, nil
}

// sourceName extracts the source (or, for source-level commands, the name)
// field from an unvalidated payload. Best effort: resolution failures
// surface as UnknownBackendError, not a decode error.
func sourceName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var probe struct {
		Source string `json:"source"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	if probe.Source != "" {
		return probe.Source
	}
	return probe.Name
}
