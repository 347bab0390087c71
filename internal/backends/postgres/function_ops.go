package postgres

import (
	"context"
	"fmt"

	"github.com/gscho/graphql-engine/internal/backends/common"
	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/command"
)

// functionOps implements command.FunctionOperator. Computed-field commands
// only reach it for kinds whose binding grants them.
type functionOps struct {
	impl *Implementation
}

// TrackFunction verifies the function exists in the catalog, then records it
// as tracked.
func (f *functionOps) TrackFunction(ctx context.Context, args command.TrackFunctionArgs) (interface{}, error) {
	pool, err := f.impl.connectSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	exists, err := functionExists(ctx, pool, args.Function)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("function %s does not exist in source %q", args.Function, args.Source)
	}

	if err := f.impl.store.TrackFunction(args.Source, args.Function, args.Configuration); err != nil {
		return nil, err
	}
	return common.Success(), nil
}

// UntrackFunction removes the function from tracked metadata.
func (f *functionOps) UntrackFunction(ctx context.Context, args command.UntrackFunctionArgs) (interface{}, error) {
	if err := f.impl.store.UntrackFunction(args.Source, args.Function); err != nil {
		return nil, err
	}
	return common.Success(), nil
}

// AddComputedField binds a catalog function to a tracked table as a virtual
// column.
func (f *functionOps) AddComputedField(ctx context.Context, args command.AddComputedFieldArgs) (interface{}, error) {
	pool, err := f.impl.connectSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	exists, err := functionExists(ctx, pool, args.Definition.Function)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("function %s does not exist in source %q", args.Definition.Function, args.Source)
	}

	err = f.impl.store.AddComputedField(args.Source, args.Table, metadata.ComputedField{
		Name:       args.Name,
		Definition: args.Definition,
	})
	if err != nil {
		return nil, err
	}
	return common.Success(), nil
}

// DropComputedField removes a computed field from a tracked table.
func (f *functionOps) DropComputedField(ctx context.Context, args command.DropComputedFieldArgs) (interface{}, error) {
	if err := f.impl.store.DropComputedField(args.Source, args.Table, args.Name); err != nil {
		return nil, err
	}
	return common.Success(), nil
}
