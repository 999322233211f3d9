package metrics

import (
	"context"

	"github.com/google/wire"
	"github.com/ncobase/rendercore/event"
)

// ProviderSet is the wire provider set for the metrics package.
var ProviderSet = wire.NewSet(ProvideCollector)

// ProvideCollector creates a collector fed by bus.
// The cleanup function stops the summary logger.
func ProvideCollector(cfg *Config, bus *event.Bus) (*Collector, func(), error) {
	c, err := NewCollector(cfg)
	if err != nil {
		return nil, nil, err
	}
	c.Attach(bus)
	if err := c.Start(context.Background()); err != nil {
		return nil, nil, err
	}
	return c, c.Stop, nil
}
