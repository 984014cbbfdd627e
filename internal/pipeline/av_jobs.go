package pipeline

import (
	"github.com/avokadi/husk/internal/drm"
	"github.com/avokadi/husk/internal/job"
	"github.com/avokadi/husk/internal/media"
	"github.com/avokadi/husk/internal/mux"
	"github.com/avokadi/husk/internal/status"
)

// createDemuxer builds the shared demuxer of one input.
func createDemuxer(stream *StreamDescriptor, params *PackagingParams) (*media.Demuxer, error) {
	demuxer := media.NewDemuxer(stream.Input, params.Logger)
	demuxer.SetDumpStreamInfo(params.TestParams.DumpStreamInfo)

	if params.DecryptionParams.KeyProvider != drm.KeyProviderNone {
		keySource, err := drm.NewKeySource(params.DecryptionParams.KeyProvider, params.DecryptionParams.RawKey)
		if err != nil || keySource == nil {
			return nil, status.InvalidArgument(
				"must define decryption key source when defining key provider")
		}
		demuxer.SetKeySource(keySource)
	}
	return demuxer, nil
}

// createAudioVideoJobs assembles the audio/video pipelines. The stream
// list must already be sorted; streams sharing an input share one
// demuxer, and streams sharing an input and selector share one
// replicator that fans out into per-descriptor tails.
func createAudioVideoJobs(streams []*StreamDescriptor, params *PackagingParams,
	encryptionKeySource drm.KeySource, syncPoints *media.SyncPointQueue,
	listenerFactory *mux.ListenerFactory, muxerFactory *mux.Factory,
	jobManager *job.Manager) error {

	// Pass one: a demuxer per distinct input, plus its cue aligner when
	// ad cues are active.
	sources := make(map[string]*media.Demuxer)
	cueAligners := make(map[string]*media.CueAlignmentHandler)
	var inputs []string

	for _, stream := range streams {
		if _, seen := sources[stream.Input]; seen {
			continue
		}
		demuxer, err := createDemuxer(stream, params)
		if err != nil {
			return err
		}
		sources[stream.Input] = demuxer
		if syncPoints != nil {
			cueAligners[stream.Input] = media.NewCueAlignmentHandler(syncPoints)
		}
		inputs = append(inputs, stream.Input)
	}

	for _, input := range inputs {
		jobManager.Add("RemuxJob", sources[input])
	}

	// Pass two: wire each descriptor, reusing the replicator while the
	// (input, selector) pair stays the same.
	var replicator *media.Replicator
	previousInput := ""
	previousSelector := ""

	for _, stream := range streams {
		demuxer := sources[stream.Input]
		cueAligner := cueAligners[stream.Input]

		newStream := stream.Input != previousInput || stream.StreamSelector != previousSelector
		previousInput = stream.Input
		previousSelector = stream.StreamSelector

		// Without any output there is no pipeline to build.
		if stream.Output == "" && stream.SegmentTemplate == "" {
			continue
		}

		// Descriptors differing only by trick-play factor share the
		// stream set up for the first of them.
		if newStream {
			if stream.Language != "" {
				demuxer.SetLanguageOverride(stream.StreamSelector, stream.Language)
			}

			replicator = media.NewReplicator()
			chunker := media.NewChunkingHandler(media.ChunkingConfig{
				SegmentDurationSec:    params.ChunkingParams.SegmentDurationInSeconds,
				SubsegmentDurationSec: params.ChunkingParams.SubsegmentDurationInSeconds,
				SegmentSAPAligned:     params.ChunkingParams.SegmentSAPAligned,
				SubsegmentSAPAligned:  params.ChunkingParams.SubsegmentSAPAligned,
			})
			encryptor, err := createEncryptionHandler(params, stream, encryptionKeySource)
			if err != nil {
				return err
			}

			if syncPoints != nil {
				if err := media.Chain(cueAligner, chunker, encryptor, replicator); err != nil {
					return err
				}
				if err := demuxer.SetHandler(stream.StreamSelector, cueAligner); err != nil {
					return err
				}
			} else {
				if err := media.Chain(chunker, encryptor, replicator); err != nil {
					return err
				}
				if err := demuxer.SetHandler(stream.StreamSelector, chunker); err != nil {
					return err
				}
			}
		}

		muxer := muxerFactory.CreateMuxer(OutputFormat(params.Logger, stream), muxerOptionsFor(params, stream))
		if muxer == nil {
			return status.InvalidArgument("failed to create muxer for %s:%s", stream.Input, stream.StreamSelector)
		}
		muxer.SetMuxerListener(listenerFactory.CreateListener(toMuxerListenerData(stream)))

		var trickPlay media.Handler
		if stream.TrickPlayFactor != 0 {
			handler, err := media.NewTrickPlayHandler(stream.TrickPlayFactor)
			if err != nil {
				return err
			}
			trickPlay = handler
		}

		if err := media.Chain(replicator, trickPlay, muxer); err != nil {
			return err
		}
	}

	return nil
}
