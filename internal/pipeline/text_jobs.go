package pipeline

import (
	"github.com/avokadi/husk/internal/container"
	"github.com/avokadi/husk/internal/fileio"
	"github.com/avokadi/husk/internal/job"
	"github.com/avokadi/husk/internal/media"
	"github.com/avokadi/husk/internal/mux"
	"github.com/avokadi/husk/internal/notify"
	"github.com/avokadi/husk/internal/status"
	"github.com/avokadi/husk/internal/text"
)

// Text files are small single files with no ranged requests, so an
// unset bandwidth defaults to something reasonable.
const defaultTextBandwidth = 256

// determineTextFileCodec sniffs a text input for its codec string.
func determineTextFileCodec(input string) (string, error) {
	data, err := fileio.ReadFileToString(input)
	if err != nil {
		return "", status.FileFailure("failed to open %s to determine file format: %v", input, err)
	}
	switch container.DetermineContainer(data) {
	case container.WebVTT:
		return "wvtt", nil
	case container.TTML:
		return "ttml", nil
	default:
		return "", status.InvalidArgument("failed to determine the text file format for %s", input)
	}
}

// textMediaInfoFor synthesizes the MediaInfo of a passthrough text file.
func textMediaInfoFor(stream *StreamDescriptor) (notify.MediaInfo, error) {
	codec, err := determineTextFileCodec(stream.Input)
	if err != nil {
		return notify.MediaInfo{}, err
	}

	info := notify.MediaInfo{
		MediaFileName: stream.Output,
		ContainerType: notify.ContainerTypeText,
		Bandwidth:     stream.Bandwidth,
		Text:          &notify.TextInfo{Codec: codec},
	}
	if stream.Language != "" {
		info.Text.Language = stream.Language
	}
	if info.Bandwidth == 0 {
		info.Bandwidth = defaultTextBandwidth
	}
	return info, nil
}

// createWebVttToMp4TextJob builds parser -> padder -> (cue aligner) ->
// chunker -> text-to-mp4 -> muxer and returns the root parser.
func createWebVttToMp4TextJob(stream *StreamDescriptor, params *PackagingParams,
	listener mux.Listener, syncPoints *media.SyncPointQueue,
	muxerFactory *mux.Factory) (media.OriginHandler, error) {

	muxer := muxerFactory.CreateMuxer(OutputFormat(params.Logger, stream), muxerOptionsFor(params, stream))
	if muxer == nil {
		return nil, status.InvalidArgument("failed to create muxer for %s:%s", stream.Input, stream.StreamSelector)
	}
	muxer.SetMuxerListener(listener)

	parser := text.NewWebVttParser(stream.Input, stream.Language)
	padder := text.NewTextPadder()
	var cueAligner media.Handler
	if syncPoints != nil {
		cueAligner = media.NewCueAlignmentHandler(syncPoints)
	}
	chunker := text.NewTextChunker(params.ChunkingParams.SegmentDurationInSeconds)
	toMp4 := text.NewWebVttToMp4Handler()

	if err := media.Chain(parser, padder, cueAligner, chunker, toMp4, muxer); err != nil {
		return nil, err
	}
	return parser, nil
}

// createHlsTextJob builds parser -> padder -> (cue aligner) -> chunker
// -> webvtt text output for segmented HLS text.
func createHlsTextJob(stream *StreamDescriptor, params *PackagingParams,
	listener mux.Listener, syncPoints *media.SyncPointQueue,
	jobManager *job.Manager) error {

	// Segmented output needs a template even though the caller checks.
	if stream.SegmentTemplate == "" {
		return status.InvalidArgument("cannot output text (%s) to HLS with no segment template", stream.Input)
	}

	opts := muxerOptionsFor(params, stream)
	if opts.Bandwidth == 0 {
		opts.Bandwidth = defaultTextBandwidth
	}
	output := text.NewWebVttTextOutputHandler(opts, listener)

	parser := text.NewWebVttParser(stream.Input, stream.Language)
	padder := text.NewTextPadder()
	var cueAligner media.Handler
	if syncPoints != nil {
		cueAligner = media.NewCueAlignmentHandler(syncPoints)
	}
	chunker := text.NewTextChunker(params.ChunkingParams.SegmentDurationInSeconds)

	jobManager.Add("Segmented Text Job", parser)

	return media.Chain(parser, padder, cueAligner, chunker, output)
}

// createTextJobs assembles every text pipeline. Supported shapes are
// WebVTT input to MP4 samples, WebVTT input to segmented WebVTT for
// HLS, and WebVTT passthrough; WebVTT carried inside MP4 input is not.
func createTextJobs(streams []*StreamDescriptor, params *PackagingParams,
	syncPoints *media.SyncPointQueue, listenerFactory *mux.ListenerFactory,
	muxerFactory *mux.Factory, mpdNotifier notify.MpdNotifier,
	jobManager *job.Manager) error {

	for _, stream := range streams {
		inputContainer := container.DetermineContainerFromFileName(stream.Input)
		outputContainer := OutputFormat(params.Logger, stream)

		if inputContainer != container.WebVTT {
			return status.InvalidArgument("text output format is not support for %s", stream.Input)
		}

		if outputContainer == container.MP4 {
			listener := listenerFactory.CreateListener(toMuxerListenerData(stream))
			root, err := createWebVttToMp4TextJob(stream, params, listener, syncPoints, muxerFactory)
			if err != nil {
				return err
			}
			jobManager.Add("MP4 text job", root)
			continue
		}

		hlsListener := listenerFactory.CreateHlsListener(toMuxerListenerData(stream))

		// Check inputs to ensure that output is possible.
		if hlsListener != nil {
			if stream.SegmentTemplate == "" || stream.Output != "" {
				return status.InvalidArgument(
					"segment_template needs to be specified for HLS text output; single-file output is not supported")
			}
		}

		if mpdNotifier != nil && stream.SegmentTemplate != "" {
			return status.InvalidArgument("cannot create text output for MPD with segment output")
		}

		if hlsListener != nil {
			if err := createHlsTextJob(stream, params, hlsListener, syncPoints, jobManager); err != nil {
				return err
			}
		}

		if stream.Output != "" {
			if err := fileio.Copy(stream.Input, stream.Output); err != nil {
				return status.FileFailure("failed to copy the input file (%s) to output file (%s): %v",
					stream.Input, stream.Output, err)
			}

			mediaInfo, err := textMediaInfoFor(stream)
			if err != nil {
				return err
			}

			// DASH output simply lists the copied file in the manifest.
			if mpdNotifier != nil {
				if _, err := mpdNotifier.NotifyNewContainer(mediaInfo); err != nil {
					return status.ParserFailure("failed to process text file %s: %v", stream.Input, err)
				}
				if err := mpdNotifier.Flush(); err != nil {
					return err
				}
			}

			if params.OutputMediaInfo {
				if err := mux.WriteMediaInfoToFile(mediaInfo, stream.Output+".media_info"); err != nil {
					return err
				}
			}
		}
	}

	return nil
}
