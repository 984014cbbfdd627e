package text

import "github.com/avokadi/husk/internal/media"

// TextPadder fills the gaps between cues with empty cues so the
// downstream chunker sees a continuous timeline.
type TextPadder struct {
	downstream media.Handler
	lastEndMs  int64
}

// NewTextPadder creates a padder. Padding starts at time zero.
func NewTextPadder() *TextPadder {
	return &TextPadder{}
}

func (p *TextPadder) AddDownstream(h media.Handler) error {
	if p.downstream != nil && p.downstream != h {
		return errAlreadyConnected
	}
	p.downstream = h
	return nil
}

func (p *TextPadder) Process(d *media.Data) error {
	if d.Kind == media.DataSample && d.Sample.Text != nil {
		cue := d.Sample.Text
		if cue.StartMs > p.lastEndMs {
			filler := &media.Sample{
				TimestampMs: p.lastEndMs,
				DurationMs:  cue.StartMs - p.lastEndMs,
				KeyFrame:    true,
				Text: &media.TextSample{
					StartMs: p.lastEndMs,
					EndMs:   cue.StartMs,
				},
			}
			if err := p.downstream.Process(&media.Data{Kind: media.DataSample, Sample: filler}); err != nil {
				return err
			}
		}
		if cue.EndMs > p.lastEndMs {
			p.lastEndMs = cue.EndMs
		}
	}
	return p.downstream.Process(d)
}

func (p *TextPadder) Flush() error {
	return p.downstream.Flush()
}
