package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/five82/roomdeck/internal/players"
)

var (
	// ErrTransportUnavailable means the push capability is absent. Not fatal:
	// the supervisor falls back to polling.
	ErrTransportUnavailable = errors.New("push transport unavailable")
	// ErrFetchFailed wraps a failed point-in-time roster fetch.
	ErrFetchFailed = errors.New("roster fetch failed")
	// ErrAlreadyStarted is returned when Start is called on a running channel.
	ErrAlreadyStarted = errors.New("channel already started")
)

// TransportError reports a dropped or failed push connection.
type TransportError struct {
	Attempt int // reconnect attempt, zero for the drop itself
	Err     error
}

func (e *TransportError) Error() string {
	if e.Attempt > 0 {
		return fmt.Sprintf("push transport (attempt %d): %v", e.Attempt, e.Err)
	}
	return fmt.Sprintf("push transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Source identifies which mechanism produced a snapshot.
type Source int

const (
	SourcePush Source = iota
	SourcePull
	SourceOneShot
)

func (s Source) String() string {
	switch s {
	case SourcePush:
		return "push"
	case SourcePull:
		return "pull"
	case SourceOneShot:
		return "one-shot"
	default:
		return "unknown"
	}
}

// LinkState is a macro transition of the push connection. Individual retry
// attempts are not reported.
type LinkState int

const (
	LinkConnected LinkState = iota
	LinkReconnecting
	LinkClosed
)

func (l LinkState) String() string {
	switch l {
	case LinkConnected:
		return "connected"
	case LinkReconnecting:
		return "reconnecting"
	case LinkClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Snapshot is one full roster delivery.
type Snapshot struct {
	Roster     players.Roster
	Source     Source
	ReceivedAt time.Time
}

// Handlers receive channel events. Handlers run on the channel's goroutine
// and must not call Stop on the same channel.
type Handlers struct {
	OnSnapshot  func(Snapshot)
	OnError     func(error)
	OnLinkState func(LinkState)
}

func (h Handlers) snapshot(s Snapshot) {
	if h.OnSnapshot != nil {
		h.OnSnapshot(s)
	}
}

func (h Handlers) fail(err error) {
	if h.OnError != nil && err != nil {
		h.OnError(err)
	}
}

func (h Handlers) link(l LinkState) {
	if h.OnLinkState != nil {
		h.OnLinkState(l)
	}
}

// Channel delivers full roster snapshots until stopped. After Stop returns no
// handler fires again.
type Channel interface {
	Start(ctx context.Context, h Handlers) error
	Stop()
}

// FetchOnce performs a single roster fetch. Errors wrap ErrFetchFailed.
func FetchOnce(ctx context.Context, fetcher players.RosterFetcher) (Snapshot, error) {
	roster, err := fetcher.FetchPlayers(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return Snapshot{Roster: roster, Source: SourceOneShot, ReceivedAt: time.Now()}, nil
}
