//go:build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/ncobase/rendercore/backend"
	"github.com/ncobase/rendercore/concurrency/worker"
	"github.com/ncobase/rendercore/config"
	"github.com/ncobase/rendercore/jobs"
	"github.com/ncobase/rendercore/logging/logger"
	"github.com/ncobase/rendercore/metrics"
	"github.com/ncobase/rendercore/prefs"
	"github.com/ncobase/rendercore/relay"
)

// InitializeApp wires the render service from the loaded configuration.
// The cleanup function releases everything in reverse order of creation.
//
// Usage:
//
//	a, cleanup, err := app.InitializeApp()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
func InitializeApp() (*App, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		logger.ProviderSet,
		ProvideTracing,
		ProvideEventBus,
		prefs.ProviderSet,
		jobs.ProviderSet,
		worker.ProviderSet,
		backend.ProviderSet,
		wire.Bind(new(backend.Updater), new(*jobs.Registry)),
		metrics.ProviderSet,
		relay.ProviderSet,
		ProvidePanel,
		NewApp,
	))
}
