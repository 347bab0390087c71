package bigquery

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/gscho/graphql-engine/internal/backends/common"
	"github.com/gscho/graphql-engine/pkg/backend"
	"github.com/gscho/graphql-engine/pkg/command"
)

type sourceOps struct {
	impl *Implementation
}

// AddSource verifies every configured dataset is readable, then records the
// source.
func (s *sourceOps) AddSource(ctx context.Context, args command.AddSourceArgs) (interface{}, error) {
	c, err := client(ctx, args.Configuration)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if err := checkDatasets(ctx, c, args.Configuration.Datasets); err != nil {
		return nil, fmt.Errorf("source %q: %w", args.Name, err)
	}

	_, err = s.impl.store.AddSource(args.Name, backend.BigQuery, args.Configuration, args.Comment, args.ReplaceConfiguration)
	if err != nil {
		return nil, err
	}
	return common.Success(), nil
}

func (s *sourceOps) UpdateSource(ctx context.Context, args command.AddSourceArgs) (interface{}, error) {
	c, err := client(ctx, args.Configuration)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if err := checkDatasets(ctx, c, args.Configuration.Datasets); err != nil {
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

// checkDatasets fetches metadata for each configured dataset. With no
// datasets configured it lists the project's datasets instead, which also
// exercises the credentials.
func checkDatasets(ctx context.Context, c *bigquery.Client, datasets []string) error {
	if len(datasets) == 0 {
		it := c.Datasets(ctx)
		if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
			return fmt.Errorf("list datasets: %w", err)
		}
		return nil
	}
	for _, ds := range datasets {
		if _, err := c.Dataset(ds).Metadata(ctx); err != nil {
			return fmt.Errorf("dataset %q: %w", ds, err)
		}
	}
	return nil
}

type tableOps struct {
	impl *Implementation
}

// TrackTable verifies the table exists in its dataset, then records it. The
// table's Schema field names the dataset.
func (t *tableOps) TrackTable(ctx context.Context, args command.TrackTableArgs) (interface{}, error) {
	if args.Table.Schema == "" {
		return nil, fmt.Errorf("bigquery tables require the dataset in the schema field")
	}

	c, _, err := t.impl.clientForSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if _, err := c.Dataset(args.Table.Schema).Table(args.Table.Name).Metadata(ctx); err != nil {
		return nil, fmt.Errorf("table %s does not exist in source %q: %w", args.Table, args.Source, err)
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

// ListTables iterates the source's datasets and returns every table and view
// in them.
func (o *introspectOps) ListTables(ctx context.Context, args command.SourceScopeArgs) (interface{}, error) {
	c, cfg, err := o.impl.clientForSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	datasets, err := resolveDatasets(ctx, c, cfg, args.Schema)
	if err != nil {
		return nil, err
	}

	listing := common.TableListing{Tables: []common.TableInfo{}}
	for _, ds := range datasets {
		it := c.Dataset(ds).Tables(ctx)
		for {
			table, err := it.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("list tables in dataset %q: %w", ds, err)
			}
			md, err := table.Metadata(ctx)
			if err != nil {
				return nil, fmt.Errorf("table %s.%s metadata: %w", ds, table.TableID, err)
			}
			info := common.TableInfo{Schema: ds, Name: table.TableID, Type: "BASE TABLE"}
			if md.Type == bigquery.ViewTable {
				info.Type = "VIEW"
			}
			listing.Tables = append(listing.Tables, info)
		}
	}
	return listing, nil
}

// ListFunctions iterates the source's datasets and returns their routines.
// They are listed for inspection even though tracking them is not supported.
func (o *introspectOps) ListFunctions(ctx context.Context, args command.SourceScopeArgs) (interface{}, error) {
	c, cfg, err := o.impl.clientForSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	datasets, err := resolveDatasets(ctx, c, cfg, args.Schema)
	if err != nil {
		return nil, err
	}

	listing := common.FunctionListing{Functions: []common.FunctionInfo{}}
	for _, ds := range datasets {
		it := c.Dataset(ds).Routines(ctx)
		for {
			routine, err := it.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("list routines in dataset %q: %w", ds, err)
			}
			listing.Functions = append(listing.Functions, common.FunctionInfo{
				Schema: ds,
				Name:   routine.RoutineID,
			})
		}
	}
	return listing, nil
}

// resolveDatasets decides which datasets to introspect: the requested one,
// the configured allow-list, or everything in the project.
func resolveDatasets(ctx context.Context, c *bigquery.Client, cfg command.SourceConfiguration, requested string) ([]string, error) {
	if requested != "" {
		return []string{requested}, nil
	}
	if len(cfg.Datasets) > 0 {
		return cfg.Datasets, nil
	}
	var datasets []string
	it := c.Datasets(ctx)
	for {
		ds, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list datasets: %w", err)
		}
		datasets = append(datasets, ds.DatasetID)
	}
	return datasets, nil
}
