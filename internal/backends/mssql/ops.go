package mssql

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

// AddSource verifies the instance is reachable, then records the source.
func (s *sourceOps) AddSource(ctx context.Context, args command.AddSourceArgs) (interface{}, error) {
	db, err := open(ctx, args.Configuration)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("source %q is unreachable: %w", args.Name, err)
	}

	_, err = s.impl.store.AddSource(args.Name, backend.SQLServer, args.Configuration, args.Comment, args.ReplaceConfiguration)
	if err != nil {
		return nil, err
	}
	return common.Success(), nil
}

func (s *sourceOps) UpdateSource(ctx context.Context, args command.AddSourceArgs) (interface{}, error) {
	db, err := open(ctx, args.Configuration)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("source %q is unreachable with the new configuration: %w", args.Name, err)
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

type tableOps struct {
	impl *Implementation
}

// TrackTable verifies the table exists in sys.tables, then records it.
func (t *tableOps) TrackTable(ctx context.Context, args command.TrackTableArgs) (interface{}, error) {
	db, err := t.impl.openSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	schema := args.Table.Schema
	if schema == "" {
		schema = "dbo"
	}
	var exists bool
	err = db.QueryRowContext(ctx, `
		SELECT CASE WHEN EXISTS (
			SELECT 1 FROM sys.tables t
			JOIN sys.schemas s ON s.schema_id = t.schema_id
			WHERE s.name = @p1 AND t.name = @p2
		) THEN 1 ELSE 0 END`, schema, args.Table.Name).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check table %s: %w", args.Table, err)
	}
	if !exists {
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

// ListTables returns tables and views from the sys catalog.
func (o *introspectOps) ListTables(ctx context.Context, args command.SourceScopeArgs) (interface{}, error) {
	db, err := o.impl.openSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT s.name, o.name,
		       CASE o.type WHEN 'V' THEN 'VIEW' ELSE 'BASE TABLE' END
		FROM sys.objects o
		JOIN sys.schemas s ON s.schema_id = o.schema_id
		WHERE o.type IN ('U', 'V')
		  AND (@p1 = '' OR s.name = @p1)
		ORDER BY s.name, o.name`, args.Schema)
	if err != nil {
		return nil, fmt.Errorf("list tables in source %q: %w", args.Source, err)
	}
	defer rows.Close()

	listing := common.TableListing{Tables: []common.TableInfo{}}
	for rows.Next() {
		var t common.TableInfo
		if err := rows.Scan(&t.Schema, &t.Name, &t.Type); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		listing.Tables = append(listing.Tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listing, nil
}

// ListFunctions returns scalar and table-valued functions. They are listed
// for inspection even though tracking them is not supported.
func (o *introspectOps) ListFunctions(ctx context.Context, args command.SourceScopeArgs) (interface{}, error) {
	db, err := o.impl.openSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT s.name, o.name
		FROM sys.objects o
		JOIN sys.schemas s ON s.schema_id = o.schema_id
		WHERE o.type IN ('FN', 'IF', 'TF')
		  AND (@p1 = '' OR s.name = @p1)
		ORDER BY s.name, o.name`, args.Schema)
	if err != nil {
		return nil, fmt.Errorf("list functions in source %q: %w", args.Source, err)
	}
	defer rows.Close()

	listing := common.FunctionListing{Functions: []common.FunctionInfo{}}
	for rows.Next() {
		var f common.FunctionInfo
		if err := rows.Scan(&f.Schema, &f.Name); err != nil {
			return nil, fmt.Errorf("scan function row: %w", err)
		}
		listing.Functions = append(listing.Functions, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listing, nil
}
