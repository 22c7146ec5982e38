package state

import (
	"sync"
	"time"

	"github.com/five82/roomdeck/internal/notify"
	"github.com/five82/roomdeck/internal/players"
)

// Snapshot represents the latest roster available to the renderer.
type Snapshot struct {
	Players             players.Roster
	HasRoster           bool
	Version             uint64 // incremented on every roster application or hint
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // number of consecutive failed roster fetches
}

// IsOffline returns true when roster fetches have failed for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// NeedsNotice reports whether a failure run is long enough to show the
// operator. Thresholds below one fall back to IsOffline.
func (s Snapshot) NeedsNotice(threshold int) bool {
	if threshold < 1 {
		return s.IsOffline()
	}
	return s.ConsecutiveFailures >= threshold
}

// Store owns the roster. ApplyFullRoster and the hint methods are the only
// mutation paths; every read returns a copy.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	changes  notify.Hub
	closed   bool
}

// NewStore returns an empty store. The zero value is also usable.
func NewStore() *Store {
	return &Store{}
}

// ApplyFullRoster replaces the whole roster. The replacement map is built
// before the lock is taken so readers see either the old or the new roster.
func (s *Store) ApplyFullRoster(roster players.Roster) {
	next := roster.Clone()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.snapshot.Players = next
	s.snapshot.HasRoster = true
	s.snapshot.Version++
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
	s.mu.Unlock()

	s.changes.Notify()
}

// ApplyLocalVolumeHint overrides a player's volume until the next full
// roster arrives. It returns false for unknown players.
func (s *Store) ApplyLocalVolumeHint(name string, volume int) bool {
	return s.hint(name, func(p *players.PlayerState) {
		p.Volume = players.ClampVolume(volume)
	})
}

// ApplyLocalDelayHint overrides a player's delay until the next full roster
// arrives. It returns false for unknown players.
func (s *Store) ApplyLocalDelayHint(name string, delayMS int) bool {
	return s.hint(name, func(p *players.PlayerState) {
		p.DelayMS = players.ClampDelay(delayMS)
	})
}

func (s *Store) hint(name string, apply func(*players.PlayerState)) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	p, ok := s.snapshot.Players[name]
	if !ok {
		s.mu.Unlock()
		return false
	}
	apply(&p)
	s.snapshot.Players[name] = p
	s.snapshot.Version++
	s.mu.Unlock()

	s.changes.Notify()
	return true
}

// RecordFailure notes a failed roster fetch. The roster is kept so the
// renderer keeps showing the last known data.
func (s *Store) RecordFailure(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures++
	s.mu.Unlock()

	s.changes.Notify()
}

// Get returns a copy of one player's state.
func (s *Store) Get(name string) (players.PlayerState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.snapshot.Players[name]
	if !ok {
		return players.PlayerState{}, false
	}
	return p.Clamped(), true
}

// GetAll returns a copy of the whole roster.
func (s *Store) GetAll() players.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Players.Clone()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Players = s.snapshot.Players.Clone()
	return snap
}

// Subscribe returns a channel that is signalled after every change.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	return s.changes.Subscribe()
}

// Close disposes the store: subscribers are released and later mutations
// are ignored. Reads keep returning the last state.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.changes.Close()
}
