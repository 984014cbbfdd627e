package pipeline

import (
	"context"

	"github.com/avokadi/husk/internal/drm"
	"github.com/avokadi/husk/internal/fileio"
	"github.com/avokadi/husk/internal/job"
	"github.com/avokadi/husk/internal/language"
	"github.com/avokadi/husk/internal/media"
	"github.com/avokadi/husk/internal/mux"
	"github.com/avokadi/husk/internal/notify"
	"github.com/avokadi/husk/internal/status"
	"github.com/avokadi/husk/internal/version"
)

// createAllJobs partitions descriptors by pipeline kind, assembles the
// text and audio/video graphs, and initializes the job set.
func createAllJobs(descriptors []StreamDescriptor, params *PackagingParams,
	mpdNotifier notify.MpdNotifier, encryptionKeySource drm.KeySource,
	syncPoints *media.SyncPointQueue, listenerFactory *mux.ListenerFactory,
	muxerFactory *mux.Factory, jobManager *job.Manager) error {

	var textStreams, audioVideoStreams []*StreamDescriptor
	for i := range descriptors {
		d := &descriptors[i]
		if d.StreamSelector == "text" {
			textStreams = append(textStreams, d)
		} else {
			audioVideoStreams = append(audioVideoStreams, d)
		}
	}

	// Audio/video streams must be in sorted order so demuxers and
	// trick-play tails are set up deterministically.
	sortStreamDescriptors(audioVideoStreams)

	if err := createTextJobs(textStreams, params, syncPoints, listenerFactory,
		muxerFactory, mpdNotifier, jobManager); err != nil {
		return err
	}
	if err := createAudioVideoJobs(audioVideoStreams, params, encryptionKeySource,
		syncPoints, listenerFactory, muxerFactory, jobManager); err != nil {
		return err
	}

	return jobManager.InitializeJobs()
}

// Runtime is the committed state of an initialized packaging run.
type Runtime struct {
	params      PackagingParams
	jobManager  *job.Manager
	mpdNotifier notify.MpdNotifier
	hlsNotifier notify.HlsNotifier
}

// JobManager exposes the run's jobs for progress displays and tests.
func (r *Runtime) JobManager() *job.Manager {
	return r.jobManager
}

// MpdNotifier returns the DASH notifier, or nil without MPD output.
func (r *Runtime) MpdNotifier() notify.MpdNotifier {
	return r.mpdNotifier
}

// HlsNotifier returns the HLS notifier, or nil without HLS output.
func (r *Runtime) HlsNotifier() notify.HlsNotifier {
	return r.hlsNotifier
}

// Run drives every job to completion, then flushes the notifiers.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.jobManager.RunJobs(ctx); err != nil {
		return err
	}
	if r.hlsNotifier != nil {
		if err := r.hlsNotifier.Flush(); err != nil {
			return status.InvalidArgument("failed to flush HLS: %v", err)
		}
	}
	if r.mpdNotifier != nil {
		if err := r.mpdNotifier.Flush(); err != nil {
			return status.InvalidArgument("failed to flush MPD: %v", err)
		}
	}
	return nil
}

// Cancel stops a running packaging run.
func (r *Runtime) Cancel() {
	r.jobManager.CancelJobs()
}

// Build validates the inputs and assembles the whole job graph. Nothing
// is committed on error: the caller only keeps the Runtime when Build
// succeeds.
func Build(params PackagingParams, descriptors []StreamDescriptor) (*Runtime, error) {
	if err := ValidateParams(&params, descriptors); err != nil {
		return nil, err
	}

	if params.TestParams.InjectedLibraryVersion != "" {
		version.SetForTesting(params.TestParams.InjectedLibraryVersion)
	}

	encryptionKeySource, err := drm.NewKeySource(
		params.EncryptionParams.KeyProvider, params.EncryptionParams.RawKey)
	if err != nil {
		return nil, status.InvalidArgument("failed to create key source: %v", err)
	}

	// Reroute manifest outputs through the write callback when one is
	// registered.
	mpdParams := params.MpdParams
	hlsParams := params.HlsParams
	if cb := params.BufferCallbackParams; cb != nil && cb.Write != nil {
		mpdParams.MpdOutput = fileio.MakeCallbackFileName(cb, mpdParams.MpdOutput)
		hlsParams.MasterPlaylistOutput = fileio.MakeCallbackFileName(cb, hlsParams.MasterPlaylistOutput)
	}

	// DASH and HLS both require RFC 5646 shortest-form languages.
	mpdParams.DefaultLanguage = language.ToShortestForm(mpdParams.DefaultLanguage)
	hlsParams.DefaultLanguage = language.ToShortestForm(hlsParams.DefaultLanguage)

	var mpdNotifier notify.MpdNotifier
	if mpdParams.MpdOutput != "" {
		notifier := notify.NewSimpleMpdNotifier(notify.MpdOptions{
			OnDemandProfile:          profileOf(descriptors) == ProfileOnDemand,
			MpdOutput:                mpdParams.MpdOutput,
			DefaultLanguage:          mpdParams.DefaultLanguage,
			TargetSegmentDurationSec: params.ChunkingParams.SegmentDurationInSeconds,
		}, params.Logger)
		if err := notifier.Init(); err != nil {
			return nil, status.InvalidArgument("failed to initialize MPD notifier: %v", err)
		}
		mpdNotifier = notifier
	}

	var hlsNotifier notify.HlsNotifier
	if hlsParams.MasterPlaylistOutput != "" {
		hlsNotifier = notify.NewSimpleHlsNotifier(notify.HlsOptions{
			MasterPlaylistOutput: hlsParams.MasterPlaylistOutput,
			DefaultLanguage:      hlsParams.DefaultLanguage,
		}, params.Logger)
	}

	var syncPoints *media.SyncPointQueue
	if len(params.AdCueGeneratorParams.CuePoints) > 0 {
		syncPoints = media.NewSyncPointQueue(params.AdCueGeneratorParams.CuePoints)
	}
	jobManager := job.NewManager(syncPoints)

	streamsForJobs, err := normalizeDescriptors(&params, descriptors)
	if err != nil {
		return nil, err
	}

	muxerFactory := mux.NewFactory(mux.FactoryConfig{
		Mp4Params: params.Mp4OutputParams,
		TempDir:   params.TempDir,
	})
	if params.TestParams.InjectFakeClock {
		muxerFactory.OverrideClock(mux.EpochClock{})
	}

	listenerFactory := mux.NewListenerFactory(params.OutputMediaInfo, mpdNotifier, hlsNotifier)

	if err := createAllJobs(streamsForJobs, &params, mpdNotifier, encryptionKeySource,
		jobManager.SyncPoints(), listenerFactory, muxerFactory, jobManager); err != nil {
		return nil, err
	}

	return &Runtime{
		params:      params,
		jobManager:  jobManager,
		mpdNotifier: mpdNotifier,
		hlsNotifier: hlsNotifier,
	}, nil
}

// normalizeDescriptors copies every descriptor, reroutes its paths
// through the buffer callbacks, and canonicalizes its language to
// ISO 639-2.
func normalizeDescriptors(params *PackagingParams, descriptors []StreamDescriptor) ([]StreamDescriptor, error) {
	out := make([]StreamDescriptor, 0, len(descriptors))
	for _, descriptor := range descriptors {
		copied := descriptor

		if cb := params.BufferCallbackParams; cb != nil {
			if cb.Read != nil {
				copied.Input = fileio.MakeCallbackFileName(cb, descriptor.Input)
			}
			if cb.Write != nil {
				copied.Output = fileio.MakeCallbackFileName(cb, descriptor.Output)
				copied.SegmentTemplate = fileio.MakeCallbackFileName(cb, descriptor.SegmentTemplate)
			}
		}

		if copied.Language != "" {
			copied.Language = language.ToISO639_2(descriptor.Language)
			if copied.Language == "und" {
				return nil, status.InvalidArgument("unknown/invalid language specified: %s", descriptor.Language)
			}
		}

		out = append(out, copied)
	}
	return out, nil
}
