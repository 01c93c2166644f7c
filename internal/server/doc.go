// Package server exposes the recognition service to clients.
//
// Two surfaces are provided:
//
//   - HTTP (chi router): GET / returns a liveness message, GET /api/status
//     returns the status query, and GET /ws upgrades to the WebSocket
//     delivery channel on which every published snapshot or error-snapshot
//     is pushed as one JSON text frame.
//   - MCP (Model Context Protocol) over stdio: read-only tools over the
//     latest snapshot plus tools that start and stop recognition.
//
// # WebSocket delivery
//
// A new connection is registered with the broadcaster and immediately
// receives the latest snapshot, if any. Messages sent by the client are
// read and discarded (they act as heartbeats); a read error unregisters the
// connection. A failed write causes the broadcaster to reap and close it.
//
// # Tools
//
//   - get_game_state: latest snapshot
//   - get_recognition_status: status query plus scheduler state
//   - get_game_advice: canned advice (buy, position, upgrade, general)
//   - analyze_board: board composition and strength
//   - start_recognition, stop_recognition: drive the scheduler
//
// Tool results are JSON text content. Failures are reported as tool errors
// (IsError) rather than protocol errors.
//
// # Usage
//
//	srv := server.New(server.Options{Broadcaster: b, Scheduler: sched})
//	go srv.ListenAndServe(ctx, "127.0.0.1:8000")
//	if err := srv.ServeMCP(ctx, &mcp.StdioTransport{}); err != nil {
//	    log.Fatal(err)
//	}
package server
