package dataconnector

import (
	"context"
	"fmt"

	"github.com/gscho/graphql-engine/internal/backends/common"
	"github.com/gscho/graphql-engine/pkg/backend"
	"github.com/gscho/graphql-engine/pkg/command"
)

type sourceOps struct {
	impl *Implementation
}

// AddSource queries the agent's capabilities to prove it is alive and
// speaking the protocol, then records the source.
func (s *sourceOps) AddSource(ctx context.Context, args command.AddSourceArgs) (interface{}, error) {
	client, err := newAgentClient(args.Configuration)
	if err != nil {
		return nil, err
	}
	if _, err := client.capabilities(ctx); err != nil {
		return nil, fmt.Errorf("source %q: %w", args.Name, err)
	}

	_, err = s.impl.store.AddSource(args.Name, backend.DataConnector, args.Configuration, args.Comment, args.ReplaceConfiguration)
	if err != nil {
		return nil, err
	}
	return common.Success(), nil
}

func (s *sourceOps) UpdateSource(ctx context.Context, args command.AddSourceArgs) (interface{}, error) {
	client, err := newAgentClient(args.Configuration)
	if err != nil {
		return nil, err
	}
	if _, err := client.capabilities(ctx); err != nil {
		return nil, fmt.Errorf("source %q: %w", args.Name, err)
	}

	if _, err := s.impl.store.UpdateSource(args.Name, args.Configuration, args.Comment); err != nil {
		return nil, err
	}
	return common.Success(), nil
}

func (s *sourceOps) DropSource(ctx context.Context, args command.DropSourceArgs) (interface{}, error) {
	if err := s.impl.store.DropSource(args.Name, args.Cascade); err != nil {
		return nil, err
	}
	return common.Success(), nil
}

func (i *Implementation) clientForSource(source string) (*agentClient, error) {
	cfg, err := i.store.SourceConfiguration(source)
	if err != nil {
		return nil, err
	}
	return newAgentClient(cfg)
}

type tableOps struct {
	impl *Implementation
}

// TrackTable verifies the table appears in the agent's schema, then records
// it.
func (t *tableOps) TrackTable(ctx context.Context, args command.TrackTableArgs) (interface{}, error) {
	client, err := t.impl.clientForSource(args.Source)
	if err != nil {
		return nil, err
	}
	schema, err := client.schema(ctx)
	if err != nil {
		return nil, err
	}

	found := false
	for _, tbl := range schema.Tables {
		if tbl.Schema == args.Table.Schema && tbl.Name == args.Table.Name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("table %s does not exist in source %q", args.Table, args.Source)
	}

	if err := t.impl.store.TrackTable(args.Source, args.Table, args.Configuration); err != nil {
		return nil, err
	}
	return common.Success(), nil
}

func (t *tableOps) UntrackTable(ctx context.Context, args command.UntrackTableArgs) (interface{}, error) {
	if err := t.impl.store.UntrackTable(args.Source, args.Table, args.Cascade); err != nil {
		return nil, err
	}
	return common.Success(), nil
}

func (t *tableOps) SetTableCustomization(ctx context.Context, args command.SetTableCustomizationArgs) (interface{}, error) {
	if err := t.impl.store.SetTableCustomization(args.Source, args.Table, args.Configuration); err != nil {
		return nil, err
	}
	return common.Success(), nil
}

type introspectOps struct {
	impl *Implementation
}

// ListTables returns the tables the agent's schema advertises.
func (o *introspectOps) ListTables(ctx context.Context, args command.SourceScopeArgs) (interface{}, error) {
	client, err := o.impl.clientForSource(args.Source)
	if err != nil {
		return nil, err
	}
	schema, err := client.schema(ctx)
	if err != nil {
		return nil, err
	}

	listing := common.TableListing{Tables: []common.TableInfo{}}
	for _, tbl := range schema.Tables {
		if args.Schema != "" && tbl.Schema != args.Schema {
			continue
		}
		listing.Tables = append(listing.Tables, common.TableInfo{
			Schema: tbl.Schema,
			Name:   tbl.Name,
			Type:   tbl.Type,
		})
	}
	return listing, nil
}

// ListFunctions returns the functions the agent's schema advertises.
func (o *introspectOps) ListFunctions(ctx context.Context, args command.SourceScopeArgs) (interface{}, error) {
	client, err := o.impl.clientForSource(args.Source)
	if err != nil {
		return nil, err
	}
	schema, err := client.schema(ctx)
	if err != nil {
		return nil, err
	}

	listing := common.FunctionListing{Functions: []common.FunctionInfo{}}
	for _, fn := range schema.Functions {
		if args.Schema != "" && fn.Schema != args.Schema {
			continue
		}
		listing.Functions = append(listing.Functions, common.FunctionInfo{
			Schema: fn.Schema,
			Name:   fn.Name,
		})
	}
	return listing, nil
}

type functionOps struct {
	impl *Implementation
}

// TrackFunction verifies the function appears in the agent's schema, then
// records it.
func (f *functionOps) TrackFunction(ctx context.Context, args command.TrackFunctionArgs) (interface{}, error) {
	client, err := f.impl.clientForSource(args.Source)
	if err != nil {
		return nil, err
	}
	schema, err := client.schema(ctx)
	if err != nil {
		return nil, err
	}

	found := false
	for _, fn := range schema.Functions {
		if fn.Schema == args.Function.Schema && fn.Name == args.Function.Name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("function %s does not exist in source %q", args.Function, args.Source)
	}

	if err := f.impl.store.TrackFunction(args.Source, args.Function, args.Configuration); err != nil {
		return nil, err
	}
	return common.Success(), nil
}

func (f *functionOps) UntrackFunction(ctx context.Context, args command.UntrackFunctionArgs) (interface{}, error) {
	if err := f.impl.store.UntrackFunction(args.Source, args.Function); err != nil {
		return nil, err
	}
	return common.Success(), nil
}

// AddComputedField is unreachable: the capability binding does not grant
// computed fields, so no descriptor routes here.
func (f *functionOps) AddComputedField(ctx context.Context, args command.AddComputedFieldArgs) (interface{}, error) {
	return nil, fmt.Errorf("computed fields are not supported for dataconnector sources")
}

func (f *functionOps) DropComputedField(ctx context.Context, args command.DropComputedFieldArgs) (interface{}, error) {
	return nil, fmt.Errorf("computed fields are not supported for dataconnector sources")
}
