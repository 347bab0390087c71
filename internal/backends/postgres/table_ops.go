package postgres

import (
	"context"
	"fmt"

	"github.com/gscho/graphql-engine/internal/backends/common"
	"github.com/gscho/graphql-engine/pkg/command"
)

// tableOps implements command.TableOperator.
type tableOps struct {
	impl *Implementation
}

// TrackTable verifies the table exists in the database catalog, then records
// it as tracked.
func (t *tableOps) TrackTable(ctx context.Context, args command.TrackTableArgs) (interface{}, error) {
	pool, err := t.impl.connectSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	exists, err := tableExists(ctx, pool, args.Table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("table %s does not exist in source %q", args.Table, args.Source)
	}

	if err := t.impl.store.TrackTable(args.Source, args.Table, args.Configuration); err != nil {
		return nil, err
	}
	return common.Success(), nil
}

// UntrackTable removes the table from tracked metadata.
func (t *tableOps) UntrackTable(ctx context.Context, args command.UntrackTableArgs) (interface{}, error) {
	if err := t.impl.store.UntrackTable(args.Source, args.Table, args.Cascade); err != nil {
		return nil, err
	}
	return common.Success(), nil
}

// SetTableCustomization replaces the exposed-name customization of a tracked
// table.
func (t *tableOps) SetTableCustomization(ctx context.Context, args command.SetTableCustomizationArgs) (interface{}, error) {
	if err := t.impl.store.SetTableCustomization(args.Source, args.Table, args.Configuration); err != nil {
		return nil, err
	}
	return common.Success(), nil
}
