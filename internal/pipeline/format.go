package pipeline

import (
	"github.com/rs/zerolog"

	"github.com/avokadi/husk/internal/container"
)

// OutputFormat resolves the output container of a descriptor from its
// explicit format hint, its output file name, and its segment template.
// Deterministic: the result depends on the three fields only; the
// logger reports unresolvable and conflicting signals.
func OutputFormat(logger zerolog.Logger, d *StreamDescriptor) container.Format {
	if d.OutputFormat != "" {
		format := container.DetermineContainerFromFormatName(d.OutputFormat)
		if format == container.Unknown {
			logger.Error().
				Str("output_format", d.OutputFormat).
				Msg("unable to determine output format from format name")
		}
		return format
	}

	var fromOutput, fromSegment container.Format
	haveOutput := d.Output != ""
	haveSegment := d.SegmentTemplate != ""
	if haveOutput {
		fromOutput = container.DetermineContainerFromFileName(d.Output)
		if fromOutput == container.Unknown {
			logger.Error().
				Str("output", d.Output).
				Msg("unable to determine output format from output file name")
		}
	}
	if haveSegment {
		fromSegment = container.DetermineContainerFromFileName(d.SegmentTemplate)
		if fromSegment == container.Unknown {
			logger.Error().
				Str("segment_template", d.SegmentTemplate).
				Msg("unable to determine output format from segment template")
		}
	}

	if haveOutput && haveSegment && fromOutput != fromSegment {
		logger.Error().
			Str("output", d.Output).
			Str("segment_template", d.SegmentTemplate).
			Msg("output format determined from output differs from output format determined from segment template")
		return container.Unknown
	}
	if haveOutput {
		return fromOutput
	}
	if haveSegment {
		return fromSegment
	}
	return container.Unknown
}
