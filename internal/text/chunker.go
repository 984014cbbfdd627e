package text

import (
	"errors"

	"github.com/avokadi/husk/internal/media"
)

var errAlreadyConnected = errors.New("handler already has a downstream")

// TextChunker groups text samples into fixed-duration segments. Cue
// events from an upstream cue aligner force an early boundary.
type TextChunker struct {
	downstream media.Handler

	segmentDurMs   int64
	segmentStartMs int64
	lastEndMs      int64
	seenSample     bool
}

// NewTextChunker creates a text chunker with the given segment length.
func NewTextChunker(segmentDurationSec float64) *TextChunker {
	return &TextChunker{segmentDurMs: int64(segmentDurationSec * 1000)}
}

func (c *TextChunker) AddDownstream(h media.Handler) error {
	if c.downstream != nil && c.downstream != h {
		return errAlreadyConnected
	}
	c.downstream = h
	return nil
}

func (c *TextChunker) Process(d *media.Data) error {
	switch d.Kind {
	case media.DataSample:
		s := d.Sample
		if !c.seenSample {
			c.seenSample = true
			c.segmentStartMs = 0
		}
		for c.segmentDurMs > 0 && s.TimestampMs >= c.segmentStartMs+c.segmentDurMs {
			if err := c.emitSegment(c.segmentStartMs + c.segmentDurMs); err != nil {
				return err
			}
		}
		if end := s.TimestampMs + s.DurationMs; end > c.lastEndMs {
			c.lastEndMs = end
		}
		return c.downstream.Process(d)

	case media.DataCueEvent:
		if c.seenSample && d.Cue.TimeMs > c.segmentStartMs {
			if err := c.emitSegment(d.Cue.TimeMs); err != nil {
				return err
			}
		}
		return c.downstream.Process(d)

	default:
		return c.downstream.Process(d)
	}
}

func (c *TextChunker) emitSegment(endMs int64) error {
	info := &media.SegmentInfo{
		StartMs:    c.segmentStartMs,
		DurationMs: endMs - c.segmentStartMs,
	}
	c.segmentStartMs = endMs
	return c.downstream.Process(&media.Data{Kind: media.DataSegmentInfo, Segment: info})
}

func (c *TextChunker) Flush() error {
	if c.seenSample && c.lastEndMs > c.segmentStartMs {
		if err := c.emitSegment(c.lastEndMs); err != nil {
			return err
		}
	}
	return c.downstream.Flush()
}
