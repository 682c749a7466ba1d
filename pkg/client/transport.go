package client

import (
	"context"

	"pairchat/pkg/types"
)

// EventHandler receives transport lifecycle signals and inbound events.
// The controller implements it; the transport calls it from a single
// goroutine so handlers never race each other.
type EventHandler interface {
	// OnConnect fires when the transport (re)establishes the connection.
	OnConnect()

	// OnDisconnect fires when an established connection drops. This is
	// the authoritative disconnect signal; heartbeat loss is advisory.
	OnDisconnect(err error)

	// OnReconnectAttempt fires before each reconnection attempt with a
	// monotonically increasing attempt number, reset on success.
	OnReconnectAttempt(attempt int)

	// OnEvent fires for every inbound protocol event.
	OnEvent(event *types.Event)
}

// Transport is the reliable ordered bidirectional event channel the
// controller drives. Reconnection behavior lives entirely behind this
// interface; the controller only reacts to the callbacks.
type Transport interface {
	// Start begins connecting and returns once the first attempt is
	// dispatched, never blocking until it succeeds. Success and failure
	// arrive asynchronously through the handler.
	Start(ctx context.Context, handler EventHandler) error

	// Send transmits one event over the current connection.
	Send(event *types.Event) error

	// Close permanently tears the transport down. Idempotent; no new
	// connection attempt starts after it returns.
	Close() error
}
