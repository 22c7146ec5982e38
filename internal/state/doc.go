// Package state holds the dashboard's in-memory mirror of every player.
//
// # Overview
//
// Store is the single writer of the roster. Snapshots arriving from the push
// channel, the roster poll timer, and one-shot refreshes all end up in
// ApplyFullRoster, called from one supervisor goroutine. The renderer and the
// detail view only ever read copies.
//
// # Update Semantics
//
// Every snapshot is a complete roster, so there is no per-field patch path:
//
//	// Full roster: replace everything, last applied wins
//	store.ApplyFullRoster(roster)
//	→ snapshot.Players = clone(roster)
//	→ snapshot.LastError = nil
//	→ snapshot.ConsecutiveFailures = 0
//
//	// Optimistic hint after a successful volume/offset request
//	store.ApplyLocalVolumeHint("Kitchen", 40)
//	→ snapshot.Players["Kitchen"].Volume = 40 (until the next full roster)
//
//	// Failed fetch: keep the old roster, record the error
//	store.RecordFailure(err)
//	→ snapshot.ConsecutiveFailures++
//
// Hints are not reconciled: the next ApplyFullRoster overwrites them even if
// the incoming value is older than the local change.
//
// # Concurrency Model
//
// A sync.RWMutex guards the snapshot. ApplyFullRoster builds its replacement
// map before locking and swaps it in with one assignment, so no reader ever
// observes a half-replaced roster, and a re-entrant apply simply replaces the
// roster again.
//
// # Change Notification
//
// Subscribe returns a coalescing wake-up channel (see package notify). A
// renderer that wakes up calls Snapshot or GetAll; several changes between
// two wake-ups collapse into one.
//
// # Lifecycle
//
// NewStore (or the zero value) initializes the store; Close disposes it by
// releasing subscribers and ignoring later mutations. One store per process,
// injected into the supervisor and the UI.
package state
