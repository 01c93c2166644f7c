package pipeline

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ironsheep/tavern-watch/internal/broadcast"
	"github.com/ironsheep/tavern-watch/internal/gamestate"
	"github.com/ironsheep/tavern-watch/internal/imaging"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFrame(t *testing.T) *imaging.Frame {
	t.Helper()
	f, err := imaging.NewFrame(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}
	return f
}

// stubSource returns frames or errors in sequence, repeating the last entry.
type stubSource struct {
	mu    sync.Mutex
	steps []func() (*imaging.Frame, error)
	calls int
}

func (s *stubSource) Capture(ctx context.Context) (*imaging.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	step := s.steps[min(s.calls, len(s.steps)-1)]
	s.calls++
	return step()
}

type stubBuilder struct {
	built atomic.Int32
	panic bool
}

func (b *stubBuilder) Build(*imaging.Frame) gamestate.Message {
	b.built.Add(1)
	if b.panic {
		panic("builder exploded")
	}
	return gamestate.NewSnapshot(time.Now(), nil, nil, nil)
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []gamestate.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg gamestate.Message) broadcast.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return broadcast.Result{Recipients: 1}
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func TestRunCycle_Success(t *testing.T) {
	frame := testFrame(t)
	src := &stubSource{steps: []func() (*imaging.Frame, error){
		func() (*imaging.Frame, error) { return frame, nil },
	}}
	pub := &recordingPublisher{}
	s := New(src, &stubBuilder{}, pub, BackoffPolicy{}, discardLogger())

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if pub.count() != 1 {
		t.Errorf("published: got %d, want 1", pub.count())
	}
	if s.Cycles() != 1 || s.Failures() != 0 {
		t.Errorf("counters: cycles=%d failures=%d", s.Cycles(), s.Failures())
	}
}

func TestRunCycle_CaptureFailureSkipsPublish(t *testing.T) {
	captureErr := errors.New("window not found")
	src := &stubSource{steps: []func() (*imaging.Frame, error){
		func() (*imaging.Frame, error) { return nil, captureErr },
	}}
	b := &stubBuilder{}
	pub := &recordingPublisher{}
	s := New(src, b, pub, BackoffPolicy{}, discardLogger())

	err := s.RunCycle(context.Background())
	var ce *CycleError
	if !errors.As(err, &ce) || ce.Stage != "capture" || !errors.Is(err, captureErr) {
		t.Fatalf("got %v, want capture CycleError wrapping the source error", err)
	}
	if pub.count() != 0 || b.built.Load() != 0 {
		t.Errorf("nothing may be built or published: built=%d published=%d", b.built.Load(), pub.count())
	}
	if s.Failures() != 1 {
		t.Errorf("Failures: got %d, want 1", s.Failures())
	}
}

func TestRunCycle_NilFrame(t *testing.T) {
	src := &stubSource{steps: []func() (*imaging.Frame, error){
		func() (*imaging.Frame, error) { return nil, nil },
	}}
	s := New(src, &stubBuilder{}, &recordingPublisher{}, BackoffPolicy{}, discardLogger())

	if err := s.RunCycle(context.Background()); !errors.Is(err, imaging.ErrEmptyFrame) {
		t.Errorf("got %v, want ErrEmptyFrame", err)
	}
}

func TestRunCycle_PanicRecovered(t *testing.T) {
	frame := testFrame(t)
	src := &stubSource{steps: []func() (*imaging.Frame, error){
		func() (*imaging.Frame, error) { return frame, nil },
	}}
	pub := &recordingPublisher{}
	s := New(src, &stubBuilder{panic: true}, pub, BackoffPolicy{}, discardLogger())

	err := s.RunCycle(context.Background())
	var ce *CycleError
	if !errors.As(err, &ce) || ce.Stage != "cycle" {
		t.Fatalf("got %v, want recovered CycleError", err)
	}
	if pub.count() != 0 {
		t.Errorf("published after panic: %d", pub.count())
	}
}

func TestBackoffPolicy_Defaults(t *testing.T) {
	s := New(&stubSource{}, &stubBuilder{}, &recordingPublisher{}, BackoffPolicy{}, nil)
	p := s.policy
	if p.NormalInterval != 100*time.Millisecond || p.FailureBackoff != time.Second {
		t.Errorf("policy: got %+v", p)
	}

	custom := New(&stubSource{}, &stubBuilder{}, &recordingPublisher{},
		BackoffPolicy{NormalInterval: time.Millisecond, FailureBackoff: 2 * time.Millisecond}, nil)
	if got := custom.policy; got.NormalInterval != time.Millisecond || got.FailureBackoff != 2*time.Millisecond {
		t.Errorf("custom policy: got %+v", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	frame := testFrame(t)
	src := &stubSource{steps: []func() (*imaging.Frame, error){
		func() (*imaging.Frame, error) { return frame, nil },
	}}
	pub := &recordingPublisher{}
	s := New(src, &stubBuilder{}, pub, BackoffPolicy{NormalInterval: time.Millisecond}, discardLogger())

	if s.State() != Stopped {
		t.Fatalf("initial state: got %v, want stopped", s.State())
	}
	if err := s.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop on stopped scheduler: got %v", err)
	}

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start: got %v, want ErrAlreadyRunning", err)
	}
	if s.State() != Running {
		t.Errorf("state: got %v, want running", s.State())
	}

	waitFor(t, func() bool { return pub.count() >= 3 })

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if s.State() != Stopped {
		t.Errorf("state after Stop: got %v", s.State())
	}

	// No cycle runs after Stop returns.
	n := pub.count()
	time.Sleep(10 * time.Millisecond)
	if pub.count() != n {
		t.Errorf("published after Stop: %d -> %d", n, pub.count())
	}

	// The scheduler can be restarted.
	if err := s.Start(ctx); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	waitFor(t, func() bool { return pub.count() > n })
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	st := s.Stats()
	if st.State != "stopped" || st.Cycles == 0 || st.Published != uint64(pub.count()) {
		t.Errorf("Stats: got %+v", st)
	}
}

func TestScheduler_FailureBackoff(t *testing.T) {
	src := &stubSource{steps: []func() (*imaging.Frame, error){
		func() (*imaging.Frame, error) { return nil, errors.New("no window") },
	}}
	s := New(src, &stubBuilder{}, &recordingPublisher{}, BackoffPolicy{
		NormalInterval: time.Millisecond,
		FailureBackoff: time.Hour,
	}, discardLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, func() bool { return s.Failures() == 1 })

	// The loop is now in the one-hour back-off; no second attempt happens.
	time.Sleep(20 * time.Millisecond)
	if s.Cycles() != 1 {
		t.Errorf("Cycles during back-off: got %d, want 1", s.Cycles())
	}

	// Stop interrupts the back-off wait.
	done := make(chan error, 1)
	go func() { done <- s.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Stop did not interrupt the back-off")
	}
}

func TestScheduler_RecoversAfterFailure(t *testing.T) {
	frame := testFrame(t)
	src := &stubSource{steps: []func() (*imaging.Frame, error){
		func() (*imaging.Frame, error) { return nil, errors.New("transient") },
		func() (*imaging.Frame, error) { return frame, nil },
	}}
	pub := &recordingPublisher{}
	s := New(src, &stubBuilder{}, pub, BackoffPolicy{
		NormalInterval: time.Millisecond,
		FailureBackoff: 5 * time.Millisecond,
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	waitFor(t, func() bool { return pub.count() >= 2 })
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if s.Failures() != 1 {
		t.Errorf("Failures: got %d, want 1", s.Failures())
	}
	if s.State() != Stopped {
		t.Errorf("state after Run: got %v", s.State())
	}
}

func TestStateString(t *testing.T) {
	if Running.String() != "running" || Stopped.String() != "stopped" {
		t.Errorf("String: got %s/%s", Running, Stopped)
	}
}
