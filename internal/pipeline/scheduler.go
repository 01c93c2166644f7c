// Package pipeline drives the capture → recognize → publish cycle at a fixed
// cadence.
//
// Cycles are strictly serialized: the next frame is not acquired until the
// previous cycle's publish has returned. A cycle that fails (frame acquisition
// error or panic) is logged and followed by the longer failure back-off
// instead of the normal interval; the loop itself never stops on a failure.
// Stop takes effect at the next cycle boundary and never interrupts a cycle
// in progress.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ironsheep/tavern-watch/internal/broadcast"
	"github.com/ironsheep/tavern-watch/internal/gamestate"
	"github.com/ironsheep/tavern-watch/internal/imaging"
)

var (
	// ErrAlreadyRunning is returned by Start on a running scheduler.
	ErrAlreadyRunning = errors.New("pipeline: scheduler already running")

	// ErrNotRunning is returned by Stop on a stopped scheduler.
	ErrNotRunning = errors.New("pipeline: scheduler not running")
)

// FrameSource produces the frame for one cycle.
type FrameSource interface {
	Capture(ctx context.Context) (*imaging.Frame, error)
}

// SnapshotBuilder converts a frame into a message. It must not fail; build
// errors are reported as a *gamestate.Failure.
type SnapshotBuilder interface {
	Build(f *imaging.Frame) gamestate.Message
}

// Publisher fans a message out to subscribers.
type Publisher interface {
	Publish(ctx context.Context, msg gamestate.Message) broadcast.Result
}

// BackoffPolicy holds the delays between cycles.
type BackoffPolicy struct {
	// NormalInterval follows a successful cycle (default: 100ms).
	NormalInterval time.Duration

	// FailureBackoff follows a failed cycle (default: 1s).
	FailureBackoff time.Duration
}

func (p *BackoffPolicy) defaults() {
	if p.NormalInterval <= 0 {
		p.NormalInterval = 100 * time.Millisecond
	}
	if p.FailureBackoff <= 0 {
		p.FailureBackoff = time.Second
	}
}

// State is the scheduler state.
type State int32

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// CycleError describes a failed cycle.
type CycleError struct {
	// Stage is "capture" or "cycle" (a recovered panic).
	Stage string
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

// Scheduler runs cycles until stopped.
type Scheduler struct {
	source    FrameSource
	builder   SnapshotBuilder
	publisher Publisher
	policy    BackoffPolicy
	logger    *slog.Logger

	mu    sync.Mutex
	state State
	stop  chan struct{}
	done  chan struct{}

	cycles    atomic.Uint64
	failures  atomic.Uint64
	published atomic.Uint64
}

// New returns a stopped scheduler. A nil logger selects slog.Default().
func New(source FrameSource, builder SnapshotBuilder, publisher Publisher, policy BackoffPolicy, logger *slog.Logger) *Scheduler {
	policy.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:    source,
		builder:   builder,
		publisher: publisher,
		policy:    policy,
		logger:    logger,
	}
}

// Start moves the scheduler from Stopped to Running and begins cycling in a
// new goroutine. The loop also ends when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Running {
		return ErrAlreadyRunning
	}
	s.state = Running
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(ctx, s.stop, s.done)
	s.logger.Info("scheduler started",
		"interval", s.policy.NormalInterval, "failure_backoff", s.policy.FailureBackoff)
	return nil
}

// Stop moves the scheduler to Stopped and waits for the cycle in progress,
// if any, to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.state != Running || s.stop == nil {
		s.mu.Unlock()
		return ErrNotRunning
	}
	stop, done := s.stop, s.done
	close(stop)
	s.stop = nil
	s.mu.Unlock()

	<-done
	return nil
}

// Run starts the scheduler and blocks until ctx is cancelled, then stops it.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	if err := s.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	return nil
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) loop(ctx context.Context, stop, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.state = Stopped
		s.mu.Unlock()
		close(done)
		s.logger.Info("scheduler stopped", "cycles", s.cycles.Load(), "failures", s.failures.Load())
	}()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		delay := s.policy.NormalInterval
		if err := s.RunCycle(ctx); err != nil {
			s.logger.Error("cycle failed", "error", err, "backoff", s.policy.FailureBackoff)
			delay = s.policy.FailureBackoff
		}

		timer := time.NewTimer(delay)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// RunCycle performs one capture → build → publish cycle. A non-nil error is a
// *CycleError; when it is returned nothing was published.
func (s *Scheduler) RunCycle(ctx context.Context) (err error) {
	s.cycles.Add(1)
	defer func() {
		if r := recover(); r != nil {
			err = &CycleError{Stage: "cycle", Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			s.failures.Add(1)
		}
	}()

	frame, err := s.source.Capture(ctx)
	if err != nil {
		return &CycleError{Stage: "capture", Err: err}
	}
	if frame == nil {
		return &CycleError{Stage: "capture", Err: imaging.ErrEmptyFrame}
	}

	msg := s.builder.Build(frame)
	res := s.publisher.Publish(ctx, msg)
	s.published.Add(1)

	s.logger.Debug("cycle complete",
		"failure_snapshot", msg.IsFailure(),
		"recipients", res.Recipients,
		"reaped", len(res.Reaped))
	return nil
}

// Cycles returns the number of cycles started.
func (s *Scheduler) Cycles() uint64 { return s.cycles.Load() }

// Failures returns the number of failed cycles.
func (s *Scheduler) Failures() uint64 { return s.failures.Load() }

// Stats are cumulative cycle counters.
type Stats struct {
	State     string `json:"state"`
	Cycles    uint64 `json:"cycles"`
	Failures  uint64 `json:"failures"`
	Published uint64 `json:"published"`
}

// Stats returns the state and cycle counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		State:     s.State().String(),
		Cycles:    s.cycles.Load(),
		Failures:  s.failures.Load(),
		Published: s.published.Load(),
	}
}
