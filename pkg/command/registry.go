package command

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gscho/graphql-engine/pkg/backend"
)

// Registry is the ordered command set for one backend kind. It is built once
// at startup and read-only afterwards, so it is shared by reference across
// concurrent request handlers without locking.
type Registry struct {
	kind        backend.Kind
	descriptors []Descriptor
	byName      map[string]int
}

// Kind returns the backend kind this registry serves.
func (r *Registry) Kind() backend.Kind {
	return r.kind
}

// Lookup returns the descriptor with the given name. Matching is exact and
// case-sensitive.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[i], true
}

// Descriptors returns the full command sequence in construction order. The
// returned slice is a copy; the registry itself never changes.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Names returns the command names in construction order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		out[i] = d.Name
	}
	return out
}

// Len returns the number of commands in the registry.
func (r *Registry) Len() int {
	return len(r.descriptors)
}

// BuildRegistry concatenates the outputs of the category builders, in fixed
// category order, into the command registry for one backend. It fails when
// two descriptors share a name or when the capability binding grants a
// category whose operator the implementation does not provide. Both indicate
// a construction bug and must abort startup, not surface at request time.
func BuildRegistry(impl Implementation) (*Registry, error) {
	kind := impl.Kind()
	if err := checkOperators(impl); err != nil {
		return nil, err
	}

	r := &Registry{
		kind:   kind,
		byName: make(map[string]int),
	}
	for _, build := range builders {
		for _, d := range build(impl) {
			if prev, dup := r.byName[d.Name]; dup {
				return nil, NewStartupError(kind, fmt.Sprintf(
					"duplicate command name %q (categories %s and %s)",
					d.Name, r.descriptors[prev].Category, d.Category))
			}
			r.byName[d.Name] = len(r.descriptors)
			r.descriptors = append(r.descriptors, d)
		}
	}
	return r, nil
}

// checkOperators verifies that every category the capability binding grants
// has its operator. Builders tolerate a nil operator by producing nothing;
// at startup that mismatch is an error, not a silent gap.
func checkOperators(impl Implementation) error {
	caps := impl.Capabilities().Commands
	kind := impl.Kind()

	missing := func(category Category) error {
		return NewStartupError(kind, fmt.Sprintf(
			"capability %q declared but no operator is provided", category))
	}

	if caps.Source && impl.SourceOperations() == nil {
		return missing(CategorySource)
	}
	if caps.Table && impl.TableOperations() == nil {
		return missing(CategoryTable)
	}
	if caps.TablePermissions && impl.PermissionOperations() == nil {
		return missing(CategoryTablePermissions)
	}
	if caps.Trackable && impl.TrackableOperations() == nil {
		return missing(CategoryTrackable)
	}
	if caps.Function.Supported() && impl.FunctionOperations() == nil {
		return missing(CategoryFunction)
	}
	if caps.Relationship && impl.RelationshipOperations() == nil {
		return missing(CategoryRelationship)
	}
	if caps.RemoteRelationship.Supported() && impl.RemoteRelationshipOperations() == nil {
		return missing(CategoryRemoteRelationship)
	}
	return nil
}

// Catalog holds one built registry per backend kind. It is an immutable
// value constructed once at startup and passed by reference into the
// request-handling path.
type Catalog struct {
	registries map[backend.Kind]*Registry
}

// Registry returns the registry for a kind.
func (c *Catalog) Registry(kind backend.Kind) (*Registry, bool) {
	r, ok := c.registries[kind]
	return r, ok
}

// Kinds returns the backend kinds with a built registry, sorted for
// deterministic iteration.
func (c *Catalog) Kinds() []backend.Kind {
	out := make([]backend.Kind, 0, len(c.registries))
	for kind := range c.registries {
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BuildAll builds the registry for every implementation and returns the
// catalog. Any single construction failure fails the whole build.
func BuildAll(impls []Implementation) (*Catalog, error) {
	c := &Catalog{registries: make(map[backend.Kind]*Registry, len(impls))}
	for _, impl := range impls {
		kind := impl.Kind()
		if _, exists := c.registries[kind]; exists {
			return nil, NewStartupError(kind, "backend kind registered twice")
		}
		r, err := BuildRegistry(impl)
		if err != nil {
			return nil, err
		}
		c.registries[kind] = r
	}
	return c, nil
}

// implementations manages backend implementation registration.
type implementations struct {
	mu    sync.RWMutex
	impls map[backend.Kind]Implementation
}

// defaultImpls is the process-wide implementation registry. Backends add
// themselves from init functions; registration is complete before the
// catalog is built.
var defaultImpls = &implementations{impls: make(map[backend.Kind]Implementation)}

// Register adds a backend implementation to the default registry. A second
// registration for the same kind replaces the first.
func Register(impl Implementation) {
	defaultImpls.mu.Lock()
	defer defaultImpls.mu.Unlock()
	defaultImpls.impls[impl.Kind()] = impl
}

// DefaultImplementations returns the registered implementations sorted by
// kind, ready for BuildAll.
func DefaultImplementations() []Implementation {
	defaultImpls.mu.RLock()
	defer defaultImpls.mu.RUnlock()

	kinds := make([]backend.Kind, 0, len(defaultImpls.impls))
	for kind := range defaultImpls.impls {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	out := make([]Implementation, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, defaultImpls.impls[kind])
	}
	return out
}
