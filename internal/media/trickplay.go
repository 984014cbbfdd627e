package media

import "fmt"

// TrickPlayHandler thins a stream down to every Nth keyframe, producing
// an n-times-speed rendition of the main track.
type TrickPlayHandler struct {
	singleOutput
	factor    uint32
	keyframes uint32
}

// NewTrickPlayHandler creates a trick-play stage. The factor must be
// greater than zero; factor zero means the main track and gets no
// trick-play stage at all.
func NewTrickPlayHandler(factor uint32) (*TrickPlayHandler, error) {
	if factor == 0 {
		return nil, fmt.Errorf("trick play factor must be positive")
	}
	return &TrickPlayHandler{factor: factor}, nil
}

func (h *TrickPlayHandler) Process(d *Data) error {
	switch d.Kind {
	case DataStreamInfo:
		info := d.Stream.Clone()
		info.TrickPlayFactor = h.factor
		return h.send(&Data{Kind: DataStreamInfo, Stream: info})

	case DataSample:
		if !d.Sample.KeyFrame {
			return nil
		}
		h.keyframes++
		if (h.keyframes-1)%h.factor != 0 {
			return nil
		}
		return h.send(d)

	default:
		return h.send(d)
	}
}

func (h *TrickPlayHandler) Flush() error {
	return h.flushDownstream()
}
