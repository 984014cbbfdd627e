package text

import (
	"bytes"
	"encoding/binary"

	"github.com/avokadi/husk/internal/media"
)

// WebVttToMp4Handler converts parsed cues into ISO-BMFF wvtt sample
// payloads so a downstream MP4 muxer can store them as track samples.
type WebVttToMp4Handler struct {
	downstream media.Handler
}

// NewWebVttToMp4Handler creates the conversion stage.
func NewWebVttToMp4Handler() *WebVttToMp4Handler {
	return &WebVttToMp4Handler{}
}

func (h *WebVttToMp4Handler) AddDownstream(d media.Handler) error {
	if h.downstream != nil && h.downstream != d {
		return errAlreadyConnected
	}
	h.downstream = d
	return nil
}

func (h *WebVttToMp4Handler) Process(d *media.Data) error {
	if d.Kind == media.DataSample && d.Sample.Text != nil {
		s := *d.Sample
		s.Payload = encodeWvttSample(d.Sample.Text)
		return h.downstream.Process(&media.Data{Kind: media.DataSample, Sample: &s})
	}
	return h.downstream.Process(d)
}

func (h *WebVttToMp4Handler) Flush() error {
	return h.downstream.Flush()
}

// encodeWvttSample renders a cue as a vttc box (payl plus optional iden
// and sttg children), or a vtte box for an empty padding cue.
func encodeWvttSample(cue *media.TextSample) []byte {
	if cue.Payload == "" {
		return encodeBox("vtte", nil)
	}

	var children bytes.Buffer
	if cue.ID != "" {
		children.Write(encodeBox("iden", []byte(cue.ID)))
	}
	if cue.Settings != "" {
		children.Write(encodeBox("sttg", []byte(cue.Settings)))
	}
	children.Write(encodeBox("payl", []byte(cue.Payload)))
	return encodeBox("vttc", children.Bytes())
}

func encodeBox(fourcc string, payload []byte) []byte {
	box := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(box, uint32(8+len(payload)))
	copy(box[4:8], fourcc)
	copy(box[8:], payload)
	return box
}
