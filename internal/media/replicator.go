package media

// Replicator fans one input stream out to any number of downstream
// tails, preserving message order per tail. Streams that share an input
// and a stream selector all hang off one replicator.
type Replicator struct {
	downstreams []Handler

	// Messages seen before a tail was attached are replayed to late
	// tails so every tail observes the stream header.
	header []*Data
}

// NewReplicator creates an empty replicator.
func NewReplicator() *Replicator {
	return &Replicator{}
}

// AddDownstream attaches another tail. Attaching during assembly is
// append-only; the same handler is never attached twice.
func (r *Replicator) AddDownstream(h Handler) error {
	for _, d := range r.downstreams {
		if d == h {
			return nil
		}
	}
	r.downstreams = append(r.downstreams, h)
	for _, msg := range r.header {
		if err := h.Process(msg); err != nil {
			return err
		}
	}
	return nil
}

// Downstreams reports how many tails are attached.
func (r *Replicator) Downstreams() int {
	return len(r.downstreams)
}

func (r *Replicator) Process(d *Data) error {
	if d.Kind == DataStreamInfo {
		r.header = append(r.header, d)
	}
	for _, h := range r.downstreams {
		if err := h.Process(d); err != nil {
			return err
		}
	}
	return nil
}

func (r *Replicator) Flush() error {
	for _, h := range r.downstreams {
		if err := h.Flush(); err != nil {
			return err
		}
	}
	return nil
}
