package media

import "fmt"

// singleOutput implements AddDownstream for the common one-downstream
// case. Embedders dispatch through send and flushDownstream.
type singleOutput struct {
	downstream Handler
}

func (s *singleOutput) AddDownstream(h Handler) error {
	if s.downstream == nil {
		s.downstream = h
		return nil
	}
	if s.downstream == h {
		return nil
	}
	return fmt.Errorf("handler already has a downstream")
}

// Downstream returns the connected downstream handler, if any.
func (s *singleOutput) Downstream() Handler {
	return s.downstream
}

func (s *singleOutput) send(d *Data) error {
	if s.downstream == nil {
		return nil
	}
	return s.downstream.Process(d)
}

func (s *singleOutput) flushDownstream() error {
	if s.downstream == nil {
		return nil
	}
	return s.downstream.Flush()
}
