package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/tavern-watch/internal/gamestate"
)

// StatusRunning is the status reported while the service is up.
const StatusRunning = "running"

// Broadcaster fans published messages out to the subscribers of a Registry.
type Broadcaster struct {
	mu       sync.Mutex
	registry *Registry
	logger   *slog.Logger

	last atomic.Pointer[gamestate.Snapshot]

	published atomic.Uint64
	reaped    atomic.Uint64
}

// New returns a broadcaster over registry. A nil logger selects slog.Default().
func New(registry *Registry, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{registry: registry, logger: logger}
}

// Register adds s. When a snapshot has already been published, s receives it
// before Register returns; if that delivery fails s is removed again and the
// error wraps ErrDeliveryFailed.
func (b *Broadcaster) Register(ctx context.Context, s Subscriber) error {
	if s == nil {
		return ErrNilSubscriber
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.registry.add(s); err != nil {
		return err
	}
	b.logger.Info("subscriber registered", "subscriber", s.ID(), "active", b.registry.Len())

	snap := b.last.Load()
	if snap == nil {
		return nil
	}
	payload, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.Deliver(ctx, payload); err != nil {
		b.reap(s, err)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// Unregister removes the subscriber with the given id. Removing an unknown id
// is a no-op.
func (b *Broadcaster) Unregister(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.registry.remove(id); ok {
		b.logger.Info("subscriber unregistered", "subscriber", id, "active", b.registry.Len())
	}
}

// Result summarises one Publish call.
type Result struct {
	// Recipients is the number of subscribers registered when fan-out began.
	Recipients int

	// Reaped lists the ids removed because their delivery failed.
	Reaped []string
}

// Publish delivers msg to every registered subscriber concurrently and waits
// for all deliveries. A *gamestate.Snapshot also becomes the latest snapshot.
func (b *Broadcaster) Publish(ctx context.Context, msg gamestate.Message) Result {
	payload, err := msg.Encode()
	if err != nil {
		b.logger.Error("encode message", "error", err)
		return Result{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if snap, ok := msg.(*gamestate.Snapshot); ok {
		b.last.Store(snap)
	}
	b.published.Add(1)

	subs := b.registry.Members()
	res := Result{Recipients: len(subs)}
	if len(subs) == 0 {
		return res
	}

	errs := make([]error, len(subs))
	var g errgroup.Group
	for i, s := range subs {
		g.Go(func() error {
			errs[i] = s.Deliver(ctx, payload)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		b.reap(subs[i], err)
		res.Reaped = append(res.Reaped, subs[i].ID())
	}
	return res
}

// reap removes and closes a subscriber whose delivery failed. b.mu must be held.
func (b *Broadcaster) reap(s Subscriber, cause error) {
	if _, ok := b.registry.remove(s.ID()); !ok {
		return
	}
	b.reaped.Add(1)
	if err := s.Close(); err != nil {
		b.logger.Debug("close reaped subscriber", "subscriber", s.ID(), "error", err)
	}
	b.logger.Warn("subscriber reaped", "subscriber", s.ID(), "error", cause, "active", b.registry.Len())
}

// Latest returns the most recently published snapshot.
func (b *Broadcaster) Latest() (*gamestate.Snapshot, bool) {
	snap := b.last.Load()
	return snap, snap != nil
}

// Status is the read-only service status.
type Status struct {
	Status            string  `json:"status"`
	ActiveConnections int     `json:"active_connections"`
	LastUpdate        *string `json:"last_update,omitempty"`
}

// Status reports the live registry size and the timestamp of the latest
// snapshot. It does not wait for an in-flight publish.
func (b *Broadcaster) Status() Status {
	st := Status{
		Status:            StatusRunning,
		ActiveConnections: b.registry.Len(),
	}
	if snap := b.last.Load(); snap != nil {
		ts := gamestate.FormatTimestamp(snap.Timestamp)
		st.LastUpdate = &ts
	}
	return st
}

// Counters are cumulative broadcaster statistics.
type Counters struct {
	Published uint64 `json:"published"`
	Reaped    uint64 `json:"reaped"`
}

// Counters returns cumulative publish and reap counts.
func (b *Broadcaster) Counters() Counters {
	return Counters{
		Published: b.published.Load(),
		Reaped:    b.reaped.Load(),
	}
}
