package mux

import (
	"github.com/avokadi/husk/internal/container"
)

// FactoryConfig carries the packaging params a muxer factory needs.
type FactoryConfig struct {
	Mp4Params Mp4Params
	TempDir   string
}

// Factory creates muxers per output container.
type Factory struct {
	cfg   FactoryConfig
	clock Clock
}

// NewFactory creates a muxer factory with the system clock.
func NewFactory(cfg FactoryConfig) *Factory {
	return &Factory{cfg: cfg, clock: SystemClock{}}
}

// OverrideClock replaces the output timestamp clock, for tests.
func (f *Factory) OverrideClock(clock Clock) {
	f.clock = clock
}

// CreateMuxer builds a muxer for the given container, or nil when the
// container has no muxer.
func (f *Factory) CreateMuxer(format container.Format, opts Options) Muxer {
	opts.Mp4Params = f.cfg.Mp4Params
	opts.TempDir = f.cfg.TempDir

	var fw formatWriter
	switch format {
	case container.MP4:
		fw = &mp4Writer{params: opts.Mp4Params, clock: f.clock}
	case container.MPEG2TS, container.AAC, container.AC3, container.EAC3:
		fw = rawWriter{}
	default:
		return nil
	}

	return &muxer{
		opts:   opts,
		format: format,
		fw:     fw,
		clock:  f.clock,
	}
}
