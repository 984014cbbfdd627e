package media

// ChunkingConfig controls segment and subsegment boundaries.
type ChunkingConfig struct {
	SegmentDurationSec    float64
	SubsegmentDurationSec float64

	// SegmentSAPAligned delays segment boundaries until the next
	// keyframe. SubsegmentSAPAligned does the same for subsegments and
	// requires SegmentSAPAligned.
	SegmentSAPAligned    bool
	SubsegmentSAPAligned bool
}

// ChunkingHandler splits a sample stream into segments. A CueEvent from
// an upstream cue aligner forces a boundary regardless of duration.
type ChunkingHandler struct {
	singleOutput
	cfg ChunkingConfig

	segmentDurMs    int64
	subsegmentDurMs int64

	segmentStartMs    int64
	subsegmentStartMs int64
	lastEndMs         int64
	seenSample        bool
}

// NewChunkingHandler creates a chunker from chunking parameters.
func NewChunkingHandler(cfg ChunkingConfig) *ChunkingHandler {
	return &ChunkingHandler{
		cfg:             cfg,
		segmentDurMs:    int64(cfg.SegmentDurationSec * 1000),
		subsegmentDurMs: int64(cfg.SubsegmentDurationSec * 1000),
	}
}

func (h *ChunkingHandler) Process(d *Data) error {
	switch d.Kind {
	case DataSample:
		s := d.Sample
		if !h.seenSample {
			h.seenSample = true
			h.segmentStartMs = s.TimestampMs
			h.subsegmentStartMs = s.TimestampMs
		}
		if h.boundaryDue(s, h.segmentStartMs, h.segmentDurMs, h.cfg.SegmentSAPAligned) {
			if err := h.emitSegment(s.TimestampMs, false); err != nil {
				return err
			}
		} else if h.subsegmentDurMs > 0 &&
			h.boundaryDue(s, h.subsegmentStartMs, h.subsegmentDurMs, h.cfg.SubsegmentSAPAligned) {
			if err := h.emitSegment(s.TimestampMs, true); err != nil {
				return err
			}
		}
		h.lastEndMs = s.TimestampMs + s.DurationMs
		return h.send(d)

	case DataCueEvent:
		if h.seenSample {
			if err := h.emitSegment(d.Cue.TimeMs, false); err != nil {
				return err
			}
		}
		return h.send(d)

	default:
		return h.send(d)
	}
}

func (h *ChunkingHandler) boundaryDue(s *Sample, startMs, durMs int64, sapAligned bool) bool {
	if durMs <= 0 || s.TimestampMs < startMs+durMs {
		return false
	}
	return !sapAligned || s.KeyFrame
}

func (h *ChunkingHandler) emitSegment(atMs int64, subsegment bool) error {
	info := &SegmentInfo{
		StartMs:      h.segmentStartMs,
		DurationMs:   atMs - h.segmentStartMs,
		IsSubsegment: subsegment,
	}
	if subsegment {
		info.StartMs = h.subsegmentStartMs
		info.DurationMs = atMs - h.subsegmentStartMs
		h.subsegmentStartMs = atMs
	} else {
		h.segmentStartMs = atMs
		h.subsegmentStartMs = atMs
	}
	return h.send(&Data{Kind: DataSegmentInfo, Segment: info})
}

func (h *ChunkingHandler) Flush() error {
	if h.seenSample && h.lastEndMs > h.segmentStartMs {
		if err := h.emitSegment(h.lastEndMs, false); err != nil {
			return err
		}
	}
	return h.flushDownstream()
}
