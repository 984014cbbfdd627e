package media

import "sync"

// SyncPointQueue is the shared store of ad-cue alignment points. All cue
// aligners of a run consult the same queue so every source places its
// segment boundaries at the same times.
type SyncPointQueue struct {
	mu       sync.Mutex
	cuesMs   []int64
	promoted map[int64]struct{}
}

// NewSyncPointQueue builds a queue from cue points in seconds.
func NewSyncPointQueue(cuePointsSec []float64) *SyncPointQueue {
	q := &SyncPointQueue{promoted: make(map[int64]struct{})}
	for _, sec := range cuePointsSec {
		q.cuesMs = append(q.cuesMs, int64(sec*1000))
	}
	return q
}

// CuePointsMs returns all cue times in milliseconds.
func (q *SyncPointQueue) CuePointsMs() []int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]int64, len(q.cuesMs))
	copy(out, q.cuesMs)
	return out
}

// Promote records that a cue has been materialized by some stream.
// Promotion is idempotent; the first caller wins and everyone agrees on
// the same cue time afterwards.
func (q *SyncPointQueue) Promote(timeMs int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.promoted[timeMs] = struct{}{}
}

// Promoted reports whether a cue time has been materialized.
func (q *SyncPointQueue) Promoted(timeMs int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.promoted[timeMs]
	return ok
}

// CueAlignmentHandler injects CueEvent messages in front of the first
// sample at or past each cue point, forcing the downstream chunker to
// cut a segment there.
type CueAlignmentHandler struct {
	singleOutput
	queue   *SyncPointQueue
	pending []int64
}

// NewCueAlignmentHandler creates a cue aligner bound to the shared
// queue.
func NewCueAlignmentHandler(queue *SyncPointQueue) *CueAlignmentHandler {
	return &CueAlignmentHandler{
		queue:   queue,
		pending: queue.CuePointsMs(),
	}
}

func (h *CueAlignmentHandler) Process(d *Data) error {
	if d.Kind == DataSample {
		ts := d.Sample.TimestampMs
		for len(h.pending) > 0 && h.pending[0] <= ts {
			cue := h.pending[0]
			h.pending = h.pending[1:]
			h.queue.Promote(cue)
			if err := h.send(&Data{Kind: DataCueEvent, Cue: &CueEvent{TimeMs: cue}}); err != nil {
				return err
			}
		}
	}
	return h.send(d)
}

func (h *CueAlignmentHandler) Flush() error {
	return h.flushDownstream()
}
