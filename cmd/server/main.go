package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gscho/graphql-engine/internal/engine"
	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/command"
	"github.com/gscho/graphql-engine/pkg/config"
	"github.com/gscho/graphql-engine/pkg/health"
	"github.com/gscho/graphql-engine/pkg/logger"

	// Import all backend implementations to trigger their init() registration
	_ "github.com/gscho/graphql-engine/internal/backends/bigquery"
	_ "github.com/gscho/graphql-engine/internal/backends/dataconnector"
	_ "github.com/gscho/graphql-engine/internal/backends/mssql"
	_ "github.com/gscho/graphql-engine/internal/backends/mysql"
	_ "github.com/gscho/graphql-engine/internal/backends/postgres"
)

var (
	host           = flag.String("host", "", "Bind address (overrides config)")
	port           = flag.Int("port", 0, "Server port (overrides config)")
	debug          = flag.Bool("debug", false, "Enable debug logging")
	serviceVersion = "1.0.0"
)

func main() {
	flag.Parse()

	log := logger.New("graphql-engine", serviceVersion)
	log.SetDebug(*debug)

	cfg := config.FromEnv()
	if *host != "" {
		cfg.Set("server.host", *host)
	}
	if *port != 0 {
		cfg.Set("server.port", fmt.Sprintf("%d", *port))
	}
	if cfg.GetBool("log.debug") {
		log.SetDebug(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		stop()
		log.Fatal("failed to run server: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	store := metadata.GetInstance()

	catalog, err := command.BuildAll(command.DefaultImplementations())
	if err != nil {
		return fmt.Errorf("building command catalog: %w", err)
	}
	for _, kind := range catalog.Kinds() {
		registry, _ := catalog.Registry(kind)
		log.Debugf("backend %s: %d commands", kind, registry.Len())
	}

	checker := health.NewChecker()
	checker.RunCheck("catalog", func() error {
		if len(catalog.Kinds()) == 0 {
			return errors.New("no backends registered")
		}
		return nil
	})

	persist, err := setupPersistence(ctx, cfg, log, store, checker)
	if err != nil {
		return err
	}
	if persist != nil {
		defer persist.Close()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Get("server.host"), cfg.GetInt("server.port", 8080))
	server := engine.NewServer(engine.Options{
		Addr:    addr,
		Catalog: catalog,
		Store:   store,
		Logger:  log,
		Health:  checker,
	})

	err = server.Start(ctx)

	if persist != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if saveErr := persist.Save(saveCtx, store.Export()); saveErr != nil {
			log.Errorf("saving metadata snapshot: %v", saveErr)
		}
	}
	return err
}
