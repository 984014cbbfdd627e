package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avokadi/husk/internal/media"
)

// fakeOrigin is a controllable origin handler.
type fakeOrigin struct {
	initErr  error
	runErr   error
	block    bool
	ran      atomic.Bool
	canceled atomic.Bool
}

func (f *fakeOrigin) AddDownstream(media.Handler) error { return nil }
func (f *fakeOrigin) Process(*media.Data) error         { return nil }
func (f *fakeOrigin) Flush() error                      { return nil }
func (f *fakeOrigin) Initialize() error                 { return f.initErr }
func (f *fakeOrigin) Cancel()                           { f.canceled.Store(true) }

func (f *fakeOrigin) Run(ctx context.Context) error {
	f.ran.Store(true)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.runErr
}

func TestRunJobsRunsEverything(t *testing.T) {
	m := NewManager(nil)
	first := &fakeOrigin{}
	second := &fakeOrigin{}
	m.Add("RemuxJob", first)
	m.Add("RemuxJob", second)

	if err := m.InitializeJobs(); err != nil {
		t.Fatal(err)
	}
	if err := m.RunJobs(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !first.ran.Load() || !second.ran.Load() {
		t.Error("not all jobs ran")
	}
	for _, s := range m.Jobs() {
		if s.State != StateCompleted {
			t.Errorf("job %s in state %v, want completed", s.Name, s.State)
		}
	}
}

func TestRunJobsPropagatesFirstError(t *testing.T) {
	m := NewManager(nil)
	boom := errors.New("demux failed")
	m.Add("RemuxJob", &fakeOrigin{runErr: boom})
	m.Add("RemuxJob", &fakeOrigin{block: true})

	err := m.RunJobs(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("RunJobs() = %v, want %v", err, boom)
	}

	var sawFailed bool
	for _, s := range m.Jobs() {
		if s.State == StateFailed {
			sawFailed = true
		}
	}
	if !sawFailed {
		t.Error("no job marked failed")
	}
}

func TestCancelJobs(t *testing.T) {
	m := NewManager(nil)
	blocked := &fakeOrigin{block: true}
	m.Add("RemuxJob", blocked)

	done := make(chan error, 1)
	go func() { done <- m.RunJobs(context.Background()) }()

	// Wait until the job is running, then cancel.
	deadline := time.After(2 * time.Second)
	for {
		if jobs := m.Jobs(); len(jobs) > 0 && jobs[0].State == StateRunning {
			break
		}
		select {
		case <-deadline:
			t.Fatal("job never started")
		case <-time.After(5 * time.Millisecond):
		}
	}
	m.CancelJobs()

	if err := <-done; err == nil {
		t.Error("canceled run should report an error")
	}
	if !blocked.canceled.Load() {
		t.Error("origin handler was not signaled")
	}
}

func TestInitializeJobsStopsOnError(t *testing.T) {
	m := NewManager(nil)
	m.Add("ok", &fakeOrigin{})
	m.Add("bad", &fakeOrigin{initErr: errors.New("not wired")})

	if err := m.InitializeJobs(); err == nil {
		t.Error("expected initialization error")
	}
}

func TestManagerSyncPoints(t *testing.T) {
	if NewManager(nil).SyncPoints() != nil {
		t.Error("expected nil sync points")
	}
	q := media.NewSyncPointQueue([]float64{10})
	if NewManager(q).SyncPoints() != q {
		t.Error("sync point queue not exposed")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StatePending, "pending"},
		{StateRunning, "running"},
		{StateCompleted, "completed"},
		{StateFailed, "failed"},
		{StateCanceled, "canceled"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.expected)
		}
	}
}
