package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gscho/graphql-engine/internal/backends/common"
	"github.com/gscho/graphql-engine/pkg/command"
)

// introspectOps implements command.TrackableOperator against the database
// catalog.
type introspectOps struct {
	impl *Implementation
}

// ListTables returns the tables and views visible in the source, excluding
// system schemas.
func (o *introspectOps) ListTables(ctx context.Context, args command.SourceScopeArgs) (interface{}, error) {
	pool, err := o.impl.connectSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	query := `
		SELECT table_schema, table_name, table_type
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		  AND ($1 = '' OR table_schema = $1)
		ORDER BY table_schema, table_name`

	rows, err := pool.Query(ctx, query, args.Schema)
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

// ListFunctions returns the user-defined functions visible in the source.
// Trigger and internal-language functions are excluded since they cannot be
// tracked.
func (o *introspectOps) ListFunctions(ctx context.Context, args command.SourceScopeArgs) (interface{}, error) {
	pool, err := o.impl.connectSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	query := `
		SELECT n.nspname,
		       p.proname,
		       pg_catalog.format_type(p.prorettype, NULL),
		       CASE p.provolatile WHEN 'i' THEN 'IMMUTABLE' WHEN 's' THEN 'STABLE' ELSE 'VOLATILE' END
		FROM pg_catalog.pg_proc p
		JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
		JOIN pg_catalog.pg_language l ON l.oid = p.prolang
		WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
		  AND ($1 = '' OR n.nspname = $1)
		  AND p.prokind = 'f'
		  AND l.lanname != 'internal'
		  AND p.prorettype != 'pg_catalog.trigger'::pg_catalog.regtype
		ORDER BY n.nspname, p.proname`

	rows, err := pool.Query(ctx, query, args.Schema)
	if err != nil {
		return nil, fmt.Errorf("list functions in source %q: %w", args.Source, err)
	}
	defer rows.Close()

	listing := common.FunctionListing{Functions: []common.FunctionInfo{}}
	for rows.Next() {
		var f common.FunctionInfo
		if err := rows.Scan(&f.Schema, &f.Name, &f.ReturnType, &f.Volatility); err != nil {
			return nil, fmt.Errorf("scan function row: %w", err)
		}
		listing.Functions = append(listing.Functions, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listing, nil
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, table command.TableName) (bool, error) {
	schema := table.Schema
	if schema == "" {
		schema = "public"
	}
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)`, schema, table.Name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return exists, nil
}

func functionExists(ctx context.Context, pool *pgxpool.Pool, fn command.FunctionName) (bool, error) {
	schema := fn.Schema
	if schema == "" {
		schema = "public"
	}
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM pg_catalog.pg_proc p
			JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
			WHERE n.nspname = $1 AND p.proname = $2
		)`, schema, fn.Name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check function %s: %w", fn, err)
	}
	return exists, nil
}
