package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/wire"
	"github.com/ncobase/rendercore/event"
)

// ProviderSet is the wire provider set for the jobs package.
var ProviderSet = wire.NewSet(ProvideRegistry)

// Config holds registry settings
type Config struct {
	RemovalDelay time.Duration `validate:"gte=0"` // how long finished rows stay listed
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{RemovalDelay: DefaultRemovalDelay}
}

// ProvideRegistry creates a registry with its removal sweeper running.
// The cleanup function stops the sweeper.
func ProvideRegistry(cfg *Config, prefs Preferences, bus *event.Bus) (*Registry, func(), error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.RemovalDelay < 0 {
		return nil, nil, errors.New("removal delay must be greater than or equal to 0")
	}

	r := NewRegistry(prefs, WithRemovalDelay(cfg.RemovalDelay), WithEventBus(bus))
	if err := r.Start(context.Background()); err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.Stop(ctx)
	}
	return r, cleanup, nil
}
