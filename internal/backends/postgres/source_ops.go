package postgres

import (
	"context"
	"fmt"

	"github.com/gscho/graphql-engine/internal/backends/common"
	"github.com/gscho/graphql-engine/pkg/command"
)

// sourceOps implements command.SourceOperator.
type sourceOps struct {
	impl *Implementation
}

// AddSource verifies the database is reachable, then records the source.
func (s *sourceOps) AddSource(ctx context.Context, args command.AddSourceArgs) (interface{}, error) {
	pool, err := s.impl.connect(ctx, args.Configuration)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	if err := ping(ctx, pool); err != nil {
		return nil, fmt.Errorf("source %q is unreachable: %w", args.Name, err)
	}

	_, err = s.impl.store.AddSource(args.Name, s.impl.kind, args.Configuration, args.Comment, args.ReplaceConfiguration)
	if err != nil {
		return nil, err
	}
	return common.Success(), nil
}

// UpdateSource replaces the configuration of a tracked source after
// verifying the new configuration is usable.
func (s *sourceOps) UpdateSource(ctx context.Context, args command.AddSourceArgs) (interface{}, error) {
	pool, err := s.impl.connect(ctx, args.Configuration)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	if err := ping(ctx, pool); err != nil {
		return nil, fmt.Errorf("source %q is unreachable with the new configuration: %w", args.Name, err)
	}

	if _, err := s.impl.store.UpdateSource(args.Name, args.Configuration, args.Comment); err != nil {
		return nil, err
	}
	return common.Success(), nil
}

// DropSource removes the source and, with cascade, its dependents.
func (s *sourceOps) DropSource(ctx context.Context, args command.DropSourceArgs) (interface{}, error) {
	if err := s.impl.store.DropSource(args.Name, args.Cascade); err != nil {
		return nil, err
	}
	return common.Success(), nil
}
