//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/duelist/internal/app"
	"github.com/zeusync/duelist/internal/config"
)

func InitializeRunner(cfg *config.Config) (*app.Runner, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
