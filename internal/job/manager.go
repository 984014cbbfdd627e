// Package job runs the assembled pipeline graphs. Every origin handler
// registered with the manager becomes one job, driven on its own
// goroutine.
package job

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/avokadi/husk/internal/media"
	"github.com/avokadi/husk/internal/status"
)

// State is the lifecycle state of one job.
type State int

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Job pairs a name with the origin handler that feeds its graph.
type Job struct {
	ID     string
	Name   string
	origin media.OriginHandler

	mu    sync.Mutex
	state State
	err   error
}

// State returns the job's current state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Err returns the failure, if any.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *Job) setState(s State, err error) {
	j.mu.Lock()
	j.state = s
	j.err = err
	j.mu.Unlock()
}

// Status is an immutable snapshot for progress displays.
type Status struct {
	ID    string
	Name  string
	State State
	Err   error
}

// Manager owns the jobs of one packaging run and the shared sync point
// queue when ad cues are active.
type Manager struct {
	syncPoints *media.SyncPointQueue

	mu     sync.Mutex
	jobs   []*Job
	cancel context.CancelFunc

	// onStateChange, when set, observes every job transition.
	onStateChange func(Status)
}

// NewManager creates a job manager. syncPoints may be nil.
func NewManager(syncPoints *media.SyncPointQueue) *Manager {
	return &Manager{syncPoints: syncPoints}
}

// SyncPoints returns the shared cue queue, or nil without ad cues.
func (m *Manager) SyncPoints() *media.SyncPointQueue {
	return m.syncPoints
}

// SetOnStateChange installs a state observer. Must be called before
// RunJobs.
func (m *Manager) SetOnStateChange(fn func(Status)) {
	m.onStateChange = fn
}

// Add registers an origin handler under a display name.
func (m *Manager) Add(name string, origin media.OriginHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, &Job{
		ID:     uuid.NewString(),
		Name:   name,
		origin: origin,
		state:  StatePending,
	})
}

// Jobs returns a snapshot of all jobs.
func (m *Manager) Jobs() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Status, len(m.jobs))
	for i, j := range m.jobs {
		out[i] = Status{ID: j.ID, Name: j.Name, State: j.State(), Err: j.Err()}
	}
	return out
}

// Origins returns the registered origin handlers in registration
// order.
func (m *Manager) Origins() []media.OriginHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]media.OriginHandler, len(m.jobs))
	for i, j := range m.jobs {
		out[i] = j.origin
	}
	return out
}

// InitializeJobs prepares every origin handler. Called once, after
// assembly and before RunJobs.
func (m *Manager) InitializeJobs() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if err := j.origin.Initialize(); err != nil {
			return err
		}
	}
	return nil
}

// RunJobs drives every job on its own goroutine and blocks until all
// finish. The first failure cancels the rest.
func (m *Manager) RunJobs(ctx context.Context) error {
	m.mu.Lock()
	if len(m.jobs) == 0 {
		m.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	jobs := make([]*Job, len(m.jobs))
	copy(jobs, m.jobs)
	m.mu.Unlock()
	defer cancel()

	g, groupCtx := errgroup.WithContext(runCtx)
	for _, j := range jobs {
		g.Go(func() error {
			j.setState(StateRunning, nil)
			m.notify(j)

			err := j.origin.Run(groupCtx)
			switch {
			case err == nil:
				j.setState(StateCompleted, nil)
			case groupCtx.Err() != nil:
				j.setState(StateCanceled, err)
			default:
				j.setState(StateFailed, err)
			}
			m.notify(j)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		if runCtx.Err() != nil && ctx.Err() == nil && errors.Is(err, context.Canceled) {
			return status.InvalidArgument("packaging canceled")
		}
		return err
	}
	return nil
}

// CancelJobs stops a running RunJobs and signals every origin handler.
func (m *Manager) CancelJobs() {
	m.mu.Lock()
	cancel := m.cancel
	jobs := make([]*Job, len(m.jobs))
	copy(jobs, m.jobs)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, j := range jobs {
		j.origin.Cancel()
	}
}

func (m *Manager) notify(j *Job) {
	if m.onStateChange != nil {
		m.onStateChange(Status{ID: j.ID, Name: j.Name, State: j.State(), Err: j.Err()})
	}
}
