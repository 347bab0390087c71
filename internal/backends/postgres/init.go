package postgres

import (
	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/backend"
	"github.com/gscho/graphql-engine/pkg/command"
)

func init() {
	// Register the pgwire-speaking kinds with the global registry. Each
	// kind carries its own capability binding.
	store := metadata.GetInstance()
	command.Register(NewImplementation(backend.PostgreSQL, store))
	command.Register(NewImplementation(backend.Citus, store))
	command.Register(NewImplementation(backend.Cockroach, store))
}
