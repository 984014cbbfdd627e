// Package husk packages media streams for adaptive streaming: it reads
// stream descriptors, assembles a pipeline graph of demuxers, chunkers,
// encryptors, replicators, and muxers, and drives the resulting jobs.
//
// Basic usage:
//
//	p := husk.New()
//	params := husk.NewPackagingParams()
//	params.MpdParams.MpdOutput = "out.mpd"
//	err := p.Initialize(params, []husk.StreamDescriptor{
//		{Input: "v.mp4", StreamSelector: "video", Output: "v_init.mp4", SegmentTemplate: "v_$Number$.m4s"},
//		{Input: "a.mp4", StreamSelector: "audio", Output: "a_init.mp4", SegmentTemplate: "a_$Number$.m4s"},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := p.Run(context.Background()); err != nil {
//		log.Fatal(err)
//	}
package husk

import (
	"context"

	"github.com/avokadi/husk/internal/job"
	"github.com/avokadi/husk/internal/pipeline"
	"github.com/avokadi/husk/internal/status"
	"github.com/avokadi/husk/internal/version"
)

// Packager assembles and runs one packaging job set. A Packager is
// single-use: Initialize once, Run once.
type Packager struct {
	internal *pipeline.Runtime
}

// New creates an uninitialized packager.
func New() *Packager {
	return &Packager{}
}

// Initialize validates the inputs and builds the full pipeline graph.
// Nothing is committed when an error is returned; a second Initialize
// on the same packager fails.
func (p *Packager) Initialize(params PackagingParams, descriptors []StreamDescriptor) error {
	if p.internal != nil {
		return status.InvalidArgument("already initialized")
	}

	runtime, err := pipeline.Build(params, descriptors)
	if err != nil {
		return err
	}
	p.internal = runtime
	return nil
}

// Run drives all jobs to completion and flushes the manifest notifiers.
func (p *Packager) Run(ctx context.Context) error {
	if p.internal == nil {
		return status.InvalidArgument("not yet initialized")
	}
	return p.internal.Run(ctx)
}

// Cancel stops a running packaging run. Calling Cancel before
// Initialize does nothing.
func (p *Packager) Cancel() {
	if p.internal == nil {
		return
	}
	p.internal.Cancel()
}

// Jobs returns a snapshot of the run's jobs for progress displays.
// Returns nil before Initialize.
func (p *Packager) Jobs() []job.Status {
	if p.internal == nil {
		return nil
	}
	return p.internal.JobManager().Jobs()
}

// GetLibraryVersion returns the library version string.
func GetLibraryVersion() string {
	return version.Version()
}

// DefaultStreamLabelFunction labels audio streams "AUDIO" and video
// streams "SD", "HD", "UHD1", or "UHD2" by pixel count against the
// given thresholds.
func DefaultStreamLabelFunction(maxSDPixels, maxHDPixels, maxUHD1Pixels int,
	attrs EncryptedStreamAttributes) string {
	return pipeline.DefaultStreamLabelFunction(maxSDPixels, maxHDPixels, maxUHD1Pixels, attrs)
}
