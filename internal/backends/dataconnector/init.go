package dataconnector

import (
	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/command"
)

func init() {
	command.Register(NewImplementation(metadata.GetInstance()))
}
