package mysql

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

// AddSource verifies the server is reachable, then records the source.
func (s *sourceOps) AddSource(ctx context.Context, args command.AddSourceArgs) (interface{}, error) {
	db, err := open(ctx, args.Configuration)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("source %q is unreachable: %w", args.Name, err)
	}

	_, err = s.impl.store.AddSource(args.Name, backend.MySQL, args.Configuration, args.Comment, args.ReplaceConfiguration)
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

// TrackTable verifies the table exists in the connected database, then
// records it. MySQL has no schema namespacing below the database, so
// Table.Schema is ignored.
func (t *tableOps) TrackTable(ctx context.Context, args command.TrackTableArgs) (interface{}, error) {
	db, err := t.impl.openSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var exists bool
	err = db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_name = ?
		)`, args.Table.Name).Scan(&exists)
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

// ListTables returns tables and views of the connected database.
func (o *introspectOps) ListTables(ctx context.Context, args command.SourceScopeArgs) (interface{}, error) {
	db, err := o.impl.openSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables in source %q: %w", args.Source, err)
	}
	defer rows.Close()

	listing := common.TableListing{Tables: []common.TableInfo{}}
	for rows.Next() {
		var t common.TableInfo
		if err := rows.Scan(&t.Name, &t.Type); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		listing.Tables = append(listing.Tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listing, nil
}

// ListFunctions returns the stored functions of the connected database. They
// are listed for inspection even though tracking them is not supported.
func (o *introspectOps) ListFunctions(ctx context.Context, args command.SourceScopeArgs) (interface{}, error) {
	db, err := o.impl.openSource(ctx, args.Source)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT routine_name, dtd_identifier
		FROM information_schema.routines
		WHERE routine_schema = DATABASE() AND routine_type = 'FUNCTION'
		ORDER BY routine_name`)
	if err != nil {
		return nil, fmt.Errorf("list functions in source %q: %w", args.Source, err)
	}
	defer rows.Close()

	listing := common.FunctionListing{Functions: []common.FunctionInfo{}}
	for rows.Next() {
		var f common.FunctionInfo
		if err := rows.Scan(&f.Name, &f.ReturnType); err != nil {
			return nil, fmt.Errorf("scan function row: %w", err)
		}
		listing.Functions = append(listing.Functions, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listing, nil
}
