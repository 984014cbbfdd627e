package text

import (
	"fmt"
	"strings"

	"github.com/avokadi/husk/internal/fileio"
	"github.com/avokadi/husk/internal/media"
	"github.com/avokadi/husk/internal/mux"
	"github.com/avokadi/husk/internal/notify"
	"github.com/avokadi/husk/internal/status"
)

// WebVttTextOutputHandler is the sink of the segmented-WebVTT pipeline.
// Each finished segment is rendered as a standalone .vtt document.
type WebVttTextOutputHandler struct {
	opts     mux.Options
	listener mux.Listener

	stream   *media.StreamInfo
	cues     []*media.TextSample
	seq      uint32
	segments int
}

// NewWebVttTextOutputHandler creates the segmented text sink.
func NewWebVttTextOutputHandler(opts mux.Options, listener mux.Listener) *WebVttTextOutputHandler {
	return &WebVttTextOutputHandler{opts: opts, listener: listener}
}

func (h *WebVttTextOutputHandler) AddDownstream(media.Handler) error {
	return fmt.Errorf("text output handler is a sink")
}

func (h *WebVttTextOutputHandler) Process(d *media.Data) error {
	switch d.Kind {
	case media.DataStreamInfo:
		h.stream = d.Stream
		if h.listener != nil {
			h.listener.OnMediaStart(d.Stream)
		}
		return nil
	case media.DataSample:
		if d.Sample.Text != nil && d.Sample.Text.Payload != "" {
			h.cues = append(h.cues, d.Sample.Text)
		}
		return nil
	case media.DataSegmentInfo:
		return h.writeSegment(d.Segment)
	default:
		return nil
	}
}

func (h *WebVttTextOutputHandler) writeSegment(seg *media.SegmentInfo) error {
	h.seq++
	doc := renderWebVtt(h.cues)
	h.cues = h.cues[:0]

	name := mux.FillTemplate(h.opts.SegmentTemplate, h.seq, seg.StartMs, "", h.opts.Bandwidth)
	if err := fileio.WriteFile(name, []byte(doc)); err != nil {
		return status.FileFailure("failed to write text segment %s: %v", name, err)
	}
	h.segments++
	if h.listener != nil {
		h.listener.OnNewSegment(name, seg.StartMs, seg.DurationMs, uint64(len(doc)))
	}
	return nil
}

func (h *WebVttTextOutputHandler) Flush() error {
	if h.stream == nil {
		return nil
	}
	if len(h.cues) > 0 {
		if err := h.writeSegment(&media.SegmentInfo{}); err != nil {
			return err
		}
	}
	if h.listener != nil {
		info := notify.MediaInfo{
			SegmentTemplate: h.opts.SegmentTemplate,
			ContainerType:   notify.ContainerTypeText,
			Bandwidth:       h.opts.Bandwidth,
			Text: &notify.TextInfo{
				Codec:    h.stream.Codec,
				Language: h.stream.Language,
			},
		}
		return h.listener.OnMediaEnd(info)
	}
	return nil
}

func renderWebVtt(cues []*media.TextSample) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, cue := range cues {
		if cue.ID != "" {
			b.WriteString(cue.ID)
			b.WriteByte('\n')
		}
		b.WriteString(formatTimestamp(cue.StartMs))
		b.WriteString(" --> ")
		b.WriteString(formatTimestamp(cue.EndMs))
		if cue.Settings != "" {
			b.WriteByte(' ')
			b.WriteString(cue.Settings)
		}
		b.WriteByte('\n')
		b.WriteString(cue.Payload)
		b.WriteString("\n\n")
	}
	return b.String()
}

func formatTimestamp(ms int64) string {
	h := ms / 3600000
	m := ms % 3600000 / 60000
	s := ms % 60000 / 1000
	frac := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, frac)
}
