// Package backend declares the backend kinds the metadata engine knows about
// and the static capability binding for each kind.
//
// A capability binding is declarative data, fixed at process start: it names
// the metadata command categories a backend participates in (source, table,
// table permissions, trackables, functions, relationships, remote
// relationships) plus category-specific configuration such as computed-field
// support. Command builders consult the binding; they never probe the backend
// itself.
//
// Bindings are total. A backend with an empty CommandSet is still a valid,
// registered backend (for example an introspection-only source); it simply
// accepts no metadata commands.
package backend
