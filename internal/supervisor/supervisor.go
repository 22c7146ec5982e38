package supervisor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/five82/roomdeck/internal/logging"
	"github.com/five82/roomdeck/internal/notify"
	"github.com/five82/roomdeck/internal/players"
	"github.com/five82/roomdeck/internal/state"
	"github.com/five82/roomdeck/internal/transport"
)

var log = logging.Logger("supervisor")

// ErrNotRunning is returned by Refresh outside Start/Stop.
var ErrNotRunning = errors.New("supervisor not running")

const eventQueueSize = 16

// Options configure a Supervisor.
type Options struct {
	Store        *state.Store
	Prober       transport.Prober
	Fetcher      players.RosterFetcher
	PollInterval time.Duration
	// Backstop keeps the roster poll running next to a live push channel.
	Backstop bool
	// ReprobeDelay is the first wait before probing for push again after
	// the push channel gave up. Zero uses transport.DefaultReprobeDelay.
	ReprobeDelay time.Duration
}

type role int

const (
	rolePush role = iota
	rolePull
	roleOneShot
)

type eventKind int

const (
	evSnapshot eventKind = iota
	evError
	evLink
)

type event struct {
	kind eventKind
	from role
	snap transport.Snapshot
	err  error
	link transport.LinkState
}

// Supervisor probes for push, runs the roster channels, and feeds every
// snapshot into the store from a single goroutine.
type Supervisor struct {
	store    *state.Store
	prober   transport.Prober
	fetcher  players.RosterFetcher
	interval time.Duration
	backstop bool
	reprobe  time.Duration

	events   chan event
	refresh  chan struct{}
	reprobed chan transport.Capability
	phases   notify.Hub

	mu           sync.Mutex
	state        State
	reconnecting bool
	phase        Phase
	cancel       context.CancelFunc
	started      bool
	wg           sync.WaitGroup

	// Owned by the run goroutine.
	push        transport.Channel
	pull        *transport.PullChannel
	pollHealthy bool
	failures    logging.FailureRun
	reprobing   bool
	reprobes    int
}

// New builds a supervisor in the Probing state.
func New(opts Options) *Supervisor {
	if opts.Store == nil {
		opts.Store = state.NewStore()
	}
	if opts.Prober == nil {
		opts.Prober = transport.PushProber{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = transport.DefaultPollInterval
	}
	return &Supervisor{
		store:    opts.Store,
		prober:   opts.Prober,
		fetcher:  opts.Fetcher,
		interval: opts.PollInterval,
		backstop: opts.Backstop,
		reprobe:  opts.ReprobeDelay,
		events:   make(chan event, eventQueueSize),
		refresh:  make(chan struct{}, 1),
		reprobed: make(chan transport.Capability),
	}
}

// Start probes for push and begins delivering rosters. It returns
// immediately; probing happens on the supervisor goroutine.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return transport.ErrAlreadyStarted
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

// Stop tears down every channel. Fetches that complete after Stop never
// reach the store.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// Phase returns the current badge phase.
func (s *Supervisor) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// State returns the internal state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SubscribePhase wakes the caller whenever the phase changes.
func (s *Supervisor) SubscribePhase() (<-chan struct{}, func()) {
	return s.phases.Subscribe()
}

// Refresh schedules a one-shot roster fetch. Requests made while one is
// pending are merged.
func (s *Supervisor) Refresh() error {
	s.mu.Lock()
	running := s.cancel != nil
	s.mu.Unlock()
	if !running {
		return ErrNotRunning
	}
	select {
	case s.refresh <- struct{}{}:
	default:
	}
	return nil
}

func (s *Supervisor) run(ctx context.Context) {
	defer s.wg.Done()
	defer s.phases.Close()
	defer s.stopChannels()

	s.probe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			if ctx.Err() != nil {
				return
			}
			s.handle(ctx, ev)
		case <-s.refresh:
			s.oneShot(ctx)
		case c := <-s.reprobed:
			s.reprobing = false
			s.restorePush(ctx, c)
		}
	}
}

func (s *Supervisor) probe(ctx context.Context) {
	switch c := s.prober.Probe(ctx).(type) {
	case transport.PushAvailable:
		if ctx.Err() != nil {
			c.Channel.Stop()
			return
		}
		s.push = c.Channel
		if err := s.push.Start(ctx, s.handlers(ctx, rolePush)); err != nil {
			log.Errorf("start push channel: %v", err)
			s.push = nil
			s.transition(StatePolling, false)
			s.armPoll(ctx)
			return
		}
		if s.backstop {
			s.armPoll(ctx)
		}
	case transport.PushUnavailable:
		log.Infof("push unavailable, polling every %s: %v", s.interval, c.Reason)
		s.transition(StatePolling, false)
		s.armPoll(ctx)
	}
}

func (s *Supervisor) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evSnapshot:
		s.store.ApplyFullRoster(ev.snap.Roster)
		if n := s.failures.Succeed(); n > 0 {
			log.Infof("roster recovered after %d failures (%s)", n, ev.snap.Source)
		}
		if ev.from != rolePush {
			s.pollHealthy = true
			if s.current() == StateDegraded && s.pull != nil {
				s.transition(StatePolling, false)
			}
		}

	case evError:
		var terr *transport.TransportError
		if errors.As(ev.err, &terr) {
			log.Debugf("push: %v", ev.err)
			return
		}
		s.store.RecordFailure(ev.err)
		if n, report := s.failures.Fail(); report {
			log.Warnf("roster update failed (failure #%d): %v", n, ev.err)
		}

	case evLink:
		s.handleLink(ctx, ev.link)
	}
}

func (s *Supervisor) handleLink(ctx context.Context, l transport.LinkState) {
	switch l {
	case transport.LinkConnected:
		s.reprobes = 0
		s.transition(StateLive, false)
	case transport.LinkReconnecting:
		s.transition(s.current(), true)
	case transport.LinkClosed:
		if s.push != nil {
			s.push.Stop()
			s.push = nil
		}
		defer s.scheduleReprobe(ctx)
		if s.pollHealthy && s.pull != nil {
			s.transition(StatePolling, false)
			return
		}
		s.transition(StateDegraded, false)
		if s.pull == nil {
			// The poll channel fetches immediately on start.
			s.armPoll(ctx)
		} else {
			s.oneShot(ctx)
		}
	}
}

// scheduleReprobe probes for push again after a growing delay. Only one
// re-probe is pending at a time; the result comes back through reprobed.
func (s *Supervisor) scheduleReprobe(ctx context.Context) {
	if s.reprobing {
		return
	}
	s.reprobing = true
	delay := transport.ReprobeDelay(s.reprobes, s.reprobe)
	s.reprobes++
	log.Infof("probing push again in %s", delay)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		c := s.prober.Probe(ctx)
		select {
		case s.reprobed <- c:
		case <-ctx.Done():
			if a, ok := c.(transport.PushAvailable); ok {
				a.Channel.Stop()
			}
		}
	}()
}

// restorePush adopts a re-probed push channel. Polling keeps running; the
// phase turns live once the channel reports a connection.
func (s *Supervisor) restorePush(ctx context.Context, c transport.Capability) {
	switch c := c.(type) {
	case transport.PushAvailable:
		if s.push != nil {
			c.Channel.Stop()
			return
		}
		if err := c.Channel.Start(ctx, s.handlers(ctx, rolePush)); err != nil {
			log.Errorf("restart push channel: %v", err)
			c.Channel.Stop()
			s.scheduleReprobe(ctx)
			return
		}
		s.push = c.Channel
		log.Info("push channel restarted")
	case transport.PushUnavailable:
		log.Debugf("push still unavailable: %v", c.Reason)
		s.scheduleReprobe(ctx)
	}
}

func (s *Supervisor) current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// transition records the new state and publishes the phase when it changed.
func (s *Supervisor) transition(next State, reconnecting bool) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.reconnecting = reconnecting
	phase := project(next, reconnecting)
	changed := phase != s.phase
	s.phase = phase
	s.mu.Unlock()

	if prev != next {
		log.Infow("connection state", "from", prev.String(), "to", next.String())
	}
	if changed {
		s.phases.Notify()
	}
}

func (s *Supervisor) armPoll(ctx context.Context) {
	if s.pull != nil || s.fetcher == nil {
		return
	}
	pull := transport.NewPullChannel(s.fetcher, s.interval)
	if err := pull.Start(ctx, s.handlers(ctx, rolePull)); err != nil {
		log.Errorf("start roster poll: %v", err)
		return
	}
	s.pull = pull
}

func (s *Supervisor) oneShot(ctx context.Context) {
	if s.fetcher == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		snap, err := transport.FetchOnce(ctx, s.fetcher)
		if err != nil {
			s.enqueue(ctx, event{kind: evError, from: roleOneShot, err: err})
			return
		}
		s.enqueue(ctx, event{kind: evSnapshot, from: roleOneShot, snap: snap})
	}()
}

func (s *Supervisor) stopChannels() {
	if s.push != nil {
		s.push.Stop()
		s.push = nil
	}
	if s.pull != nil {
		s.pull.Stop()
		s.pull = nil
	}
}

func (s *Supervisor) handlers(ctx context.Context, from role) transport.Handlers {
	return transport.Handlers{
		OnSnapshot: func(snap transport.Snapshot) {
			s.enqueue(ctx, event{kind: evSnapshot, from: from, snap: snap})
		},
		OnError: func(err error) {
			s.enqueue(ctx, event{kind: evError, from: from, err: err})
		},
		OnLinkState: func(l transport.LinkState) {
			s.enqueue(ctx, event{kind: evLink, from: from, link: l})
		},
	}
}

func (s *Supervisor) enqueue(ctx context.Context, ev event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
