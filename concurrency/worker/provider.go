package worker

import (
	"context"
	"time"

	"github.com/google/wire"
)

// ProviderSet is the wire provider set for the worker package.
// It provides *Pool for render tasks with proper lifecycle management.
var ProviderSet = wire.NewSet(ProvidePool)

// ProvidePool creates a started worker Pool with cleanup function.
// The cleanup function stops the pool, aborting whatever still runs.
//
// If cfg is nil, DefaultConfig is used.
func ProvidePool(cfg *Config) (*Pool, func(), error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	pool := NewPool(cfg)
	pool.Start()

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		pool.Stop(ctx)
	}

	return pool, cleanup, nil
}
