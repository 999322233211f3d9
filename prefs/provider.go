package prefs

import (
	"github.com/google/wire"
	"github.com/ncobase/rendercore/jobs"
)

// ProviderSet is the wire provider set for the prefs package.
var ProviderSet = wire.NewSet(
	ProvideStore,
	wire.Bind(new(jobs.Preferences), new(*Store)),
)

// Config says where preferences live
type Config struct {
	Path  string `validate:"required"`
	Watch bool
}

// ProvideStore opens the preferences file, watching it when configured.
func ProvideStore(cfg *Config) (*Store, error) {
	s, err := Open(cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Watch {
		s.Watch()
	}
	return s, nil
}
