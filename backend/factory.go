package backend

import (
	"github.com/google/wire"
	"github.com/ncobase/rendercore/concurrency/worker"
	"github.com/ncobase/rendercore/jobs"
)

// ProviderSet is the wire provider set for the backend package.
var ProviderSet = wire.NewSet(NewFactory)

// Factory turns manifest entries into process backends
type Factory struct {
	bins    Binaries
	pool    *worker.Pool
	updater Updater
}

// NewFactory creates a factory running renders on pool and reporting to updater
func NewFactory(bins Binaries, pool *worker.Pool, updater Updater) *Factory {
	def := DefaultBinaries()
	if bins.Melt == "" {
		bins.Melt = def.Melt
	}
	if bins.Blender == "" {
		bins.Blender = def.Blender
	}
	if bins.Gmic == "" {
		bins.Gmic = def.Gmic
	}
	return &Factory{bins: bins, pool: pool, updater: updater}
}

// New builds the backend for s, generating an id when s has none
func (f *Factory) New(s JobSpec) (*Process, error) {
	plan, err := f.bins.Plan(s)
	if err != nil {
		return nil, err
	}
	id := s.ID
	if id == "" {
		id = jobs.NewID()
	}
	return NewProcess(id, s.Kind, plan, f.pool, f.updater), nil
}
