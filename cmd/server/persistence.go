package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/config"
	"github.com/gscho/graphql-engine/pkg/health"
	"github.com/gscho/graphql-engine/pkg/logger"
)

const persistTimeout = 15 * time.Second

// setupPersistence connects metadata storage when configured and loads the
// last snapshot into the store. With storage set to "none" the engine runs
// purely in memory.
func setupPersistence(ctx context.Context, cfg *config.Config, log *logger.Logger, store *metadata.Store, checker *health.Checker) (*metadata.Persistence, error) {
	if cfg.Get("metadata.storage") != "postgres" {
		log.Info("metadata persistence disabled, running in memory")
		return nil, nil
	}

	persist, err := metadata.NewPersistence(ctx, metadata.PostgresConfig{
		Host:              cfg.Get("metadata.db.host"),
		Port:              cfg.GetInt("metadata.db.port", 5432),
		Database:          cfg.Get("metadata.db.name"),
		User:              cfg.Get("metadata.db.user"),
		Password:          cfg.Get("metadata.db.password"),
		ConnectionTimeout: persistTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting metadata storage: %w", err)
	}

	checker.RunCheck("metadata-storage", func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return persist.Ping(pingCtx)
	})

	doc, err := persist.Load(ctx)
	switch {
	case errors.Is(err, metadata.ErrNoSnapshot):
		log.Info("no stored metadata snapshot, starting fresh")
	case err != nil:
		persist.Close()
		return nil, fmt.Errorf("loading metadata snapshot: %w", err)
	default:
		store.Load(doc)
		log.Infof("loaded metadata snapshot (version %d, %d sources)", doc.Version, len(doc.Sources))
	}
	return persist, nil
}
