// Package command implements the metadata command registry and dispatch
// layer: the seam between the stable metadata API and the polymorphic set of
// backend implementations added over time.
//
// # Architecture
//
// The package follows an interface-driven design with several key components:
//
//   - Descriptor: one named, schema-validated metadata command
//   - Category builders: seven factories, one per command category, each
//     producing the descriptors a backend's capability binding grants
//   - Implementation: the interface every backend implements, exposing one
//     operator per category
//   - Registry: the ordered, immutable command set for one backend kind
//   - Catalog: one Registry per registered kind, built once at startup
//   - Dispatcher: resolves an incoming request to a descriptor, validates
//     the payload, and invokes the bound handler
//
// # Usage
//
// Backends register themselves with the default implementation registry,
// typically from an init function:
//
//	func init() {
//	    command.Register(NewImplementation())
//	}
//
// At startup the server builds the catalog once and hands it to the
// dispatcher:
//
//	catalog, err := command.BuildAll(command.DefaultImplementations())
//	if err != nil {
//	    log.Fatal(err) // duplicate command name or capability mismatch
//	}
//	d := command.NewDispatcher(catalog, store)
//
// Request handling then reduces to:
//
//	result, err := d.Dispatch(ctx, command.Request{
//	    Type: "track_table",
//	    Args: rawArgs,
//	})
//
// Construction-time failures (duplicate names, a capability declared without
// its operator) are fatal; all dispatch-time failures are recoverable at the
// request boundary.
package command
