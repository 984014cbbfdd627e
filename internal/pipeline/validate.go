package pipeline

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/avokadi/husk/internal/container"
	"github.com/avokadi/husk/internal/mux"
	"github.com/avokadi/husk/internal/status"
)

// ValidateParams checks the packaging params and the full descriptor
// set. The first violation wins.
func ValidateParams(params *PackagingParams, descriptors []StreamDescriptor) error {
	if !params.ChunkingParams.SegmentSAPAligned && params.ChunkingParams.SubsegmentSAPAligned {
		return status.InvalidArgument(
			"setting segment_sap_aligned to false but subsegment_sap_aligned to true is not allowed")
	}

	if len(descriptors) == 0 {
		return status.InvalidArgument("stream descriptors cannot be empty")
	}

	// The on-demand profile packages single-file segments; the live
	// profile uses segment templates. All descriptors must agree.
	onDemand := descriptors[0].SegmentTemplate == ""
	for i := range descriptors {
		d := &descriptors[i]
		if onDemand != (d.SegmentTemplate == "") {
			return status.InvalidArgument(
				"inconsistent stream descriptors: segment_template should be specified for none or all streams")
		}

		if err := validateStreamDescriptor(params.Logger, params.TestParams.DumpStreamInfo, d); err != nil {
			return err
		}

		if strings.HasPrefix(d.Input, "udp://") &&
			params.HlsParams.MasterPlaylistOutput != "" &&
			params.HlsParams.PlaylistType == HlsPlaylistVod {
			params.Logger.Warn().
				Str("input", d.Input).
				Msg("UDP input with HLS playlist type VOD: playlists are only generated when the socket closes; use the LIVE playlist type for live packaging")
		}
	}

	if params.OutputMediaInfo && !onDemand {
		return status.Unimplemented("output_media_info is only supported for the on-demand profile")
	}

	return nil
}

func validateStreamDescriptor(logger zerolog.Logger, dumpStreamInfo bool, d *StreamDescriptor) error {
	if d.Input == "" {
		return status.InvalidArgument("stream input not specified")
	}

	// A stream may have no outputs only when dumping stream info.
	if dumpStreamInfo && d.Output == "" && d.SegmentTemplate == "" {
		return nil
	}
	if d.Output == "" && d.SegmentTemplate == "" {
		return status.InvalidArgument("streams must specify 'output' or 'segment template'")
	}

	if d.StreamSelector == "" {
		return status.InvalidArgument("stream stream_selector not specified")
	}

	if d.SegmentTemplate != "" {
		if err := mux.ValidateSegmentTemplate(d.SegmentTemplate); err != nil {
			return err
		}
	}
	// "$" in the output name means the output is itself a template,
	// used for one file per Representation per Period with ad cues.
	if strings.ContainsRune(d.Output, '$') {
		if err := mux.ValidateSegmentTemplate(d.Output); err != nil {
			return err
		}
	}

	switch format := OutputFormat(logger, d); format {
	case container.Unknown:
		return status.InvalidArgument("unsupported output format")

	case container.MPEG2TS:
		if d.SegmentTemplate == "" {
			return status.InvalidArgument(
				"please specify 'segment_template'. Single file TS output is not supported")
		}
		// All TS segments are self-initializing, so an init segment in
		// 'output' is not allowed.
		if d.Output != "" {
			return status.InvalidArgument(
				"all TS segments must be self-initializing. Stream descriptors 'output' or 'init_segment' are not allowed")
		}

	case container.WebVTT, container.AAC, container.AC3, container.EAC3:
		// No initialization data exists for these formats.
		if d.SegmentTemplate != "" && d.Output != "" {
			return status.InvalidArgument(
				"segmented WebVTT or PackedAudio output cannot have an init segment. Do not specify stream descriptors 'output' or 'init_segment' when using 'segment_template'")
		}

	default:
		if d.SegmentTemplate != "" && d.Output == "" {
			return status.InvalidArgument(
				"please specify 'init_segment'. All non-TS multi-segment content must provide an init segment")
		}
	}

	return nil
}
