// Package supervisor owns the roster transport for one dashboard session.
//
// At start it probes once for the push endpoint. With push present it runs
// the push channel and, when the backstop is enabled, a redundant roster poll
// next to it; without push it polls. Every snapshot and error from every
// channel lands on a single event queue, and only the supervisor goroutine
// applies them to the state.Store.
//
// State transitions:
//
//	Probing  -> Live      push connected
//	Probing  -> Polling   push not offered
//	Live     -> Degraded  push closed before any poll succeeded
//	Live     -> Polling   push closed, poll already healthy
//	Degraded -> Polling   a poll succeeded
//	any      -> Live      push reconnected
//
// A push channel that gives up is not the end of push. The supervisor probes
// again after a growing delay and adopts the new channel; its first
// connection moves the state back to Live.
//
// Reconnecting is not a state; it refines Probing and Live for the badge.
// Phase is the projection published to subscribers, only when it changes.
package supervisor
