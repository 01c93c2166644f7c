// Package broadcast distributes published game state to a dynamic set of
// subscribers.
//
// # Overview
//
// A Broadcaster owns a Registry of subscribers and remembers the most recent
// snapshot. Publish delivers one message to every registered subscriber
// concurrently and returns once every delivery has succeeded or failed.
// A subscriber whose delivery fails is removed from the registry and closed;
// the failure is never retried and never reported to the publisher as an
// error.
//
//	reg := broadcast.NewRegistry()
//	b := broadcast.New(reg, logger)
//	_ = b.Register(ctx, sub)     // receives the latest snapshot, if any
//	res := b.Publish(ctx, snap)  // res.Reaped lists dropped subscribers
//
// # Serialization
//
// Register, Unregister, reaping and the fan-out of a Publish call are
// serialized by one mutex: a subscriber registering while a publish is in
// flight waits for the fan-out to finish and then receives the published
// snapshot as its initial state, so it sees that snapshot exactly once.
//
// No per-subscriber timeout is imposed here. A slow subscriber delays the
// completion of Publish; transports that need a bound enforce it inside
// Deliver.
//
// # Error-snapshots
//
// A *gamestate.Failure is fanned out like a snapshot but does not replace the
// remembered snapshot: new subscribers and status queries always see the last
// good state.
package broadcast
