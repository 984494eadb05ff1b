// Package router turns inbound channel events into replies: it resolves
// session state, routes the event to an action handler and dispatches the
// handler's reply in order, one sender at a time.
package router

import "errors"

// Sentinel errors for router operations.
var (
	// ErrInboxFull indicates the router's event inbox is at capacity and
	// the incoming event was dropped.
	ErrInboxFull = errors.New("router: inbox full, event dropped")

	// ErrRouterStopped indicates the router has been shut down and is no
	// longer accepting events.
	ErrRouterStopped = errors.New("router: stopped")

	// ErrNoHandler indicates no action handler has been configured.
	ErrNoHandler = errors.New("router: no handler configured")

	// ErrNoResolver indicates no session resolver has been configured.
	ErrNoResolver = errors.New("router: no session resolver configured")

	// ErrNoChannels indicates no channel lookup has been configured.
	ErrNoChannels = errors.New("router: no channel lookup configured")
)
