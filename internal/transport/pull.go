package transport

import (
	"context"
	"sync"
	"time"

	"github.com/five82/roomdeck/internal/logging"
	"github.com/five82/roomdeck/internal/players"
)

// DefaultPollInterval is the roster poll cadence.
const DefaultPollInterval = 5 * time.Second

var pullLog = logging.Logger("transport")

// PullChannel fetches the full roster on a fixed interval. A failed fetch is
// reported and the timer keeps running.
type PullChannel struct {
	fetcher  players.RosterFetcher
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPullChannel builds a pull channel; non-positive intervals use the default.
func NewPullChannel(fetcher players.RosterFetcher, interval time.Duration) *PullChannel {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PullChannel{fetcher: fetcher, interval: interval}
}

// Interval returns the effective poll interval.
func (p *PullChannel) Interval() time.Duration {
	return p.interval
}

// Start fetches immediately and then once per interval.
func (p *PullChannel) Start(ctx context.Context, h Handlers) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, h, p.done)
	return nil
}

// Stop cancels the timer and any in-flight fetch, then waits for the loop.
func (p *PullChannel) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *PullChannel) run(ctx context.Context, h Handlers, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var failures logging.FailureRun
	for {
		p.fetch(ctx, h, &failures)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *PullChannel) fetch(ctx context.Context, h Handlers, failures *logging.FailureRun) {
	snap, err := FetchOnce(ctx, p.fetcher)
	// A fetch that completes after Stop must not reach the handlers.
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		if n, report := failures.Fail(); report {
			pullLog.Warnf("roster poll failed (failure #%d): %v", n, err)
		}
		h.fail(err)
		return
	}
	if n := failures.Succeed(); n > 0 {
		pullLog.Infof("roster poll recovered after %d failures", n)
	}
	snap.Source = SourcePull
	h.snapshot(snap)
}
