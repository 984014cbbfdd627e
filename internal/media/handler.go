package media

import "context"

// Handler is one node of the pipeline graph. Dispatch is synchronous:
// Process passes a message down, Flush signals end of stream. The graph
// is assembled single-threaded before any Process call happens.
type Handler interface {
	// AddDownstream connects the next stage. Single-output handlers
	// accept exactly one distinct downstream; reconnecting the same
	// downstream is a no-op so chains can be re-extended.
	AddDownstream(Handler) error

	Process(*Data) error
	Flush() error
}

// OriginHandler is a graph root driven by the job manager.
type OriginHandler interface {
	Handler

	// Initialize prepares the handler before any job runs.
	Initialize() error

	// Run produces the stream until exhaustion or ctx cancellation.
	Run(ctx context.Context) error

	Cancel()
}

// Chain links handlers in order, skipping nil entries. Chain({a, b, c})
// makes b the downstream of a and c the downstream of b.
func Chain(handlers ...Handler) error {
	var upstream Handler
	for _, h := range handlers {
		if h == nil {
			continue
		}
		if upstream != nil {
			if err := upstream.AddDownstream(h); err != nil {
				return err
			}
		}
		upstream = h
	}
	return nil
}
