// Package detail polls high-frequency metrics for the player whose detail
// view is open.
package detail

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/five82/roomdeck/internal/logging"
	"github.com/five82/roomdeck/internal/players"
)

// DefaultInterval is the detail sample cadence.
const DefaultInterval = 500 * time.Millisecond

var log = logging.Logger("detail")

// Sample is one detail fetch result. A failed fetch is still delivered, with
// Err set and Metrics nil.
type Sample struct {
	Player   string
	Metrics  *players.DetailMetrics
	Err      error
	Failures int // consecutive failures including this one
	At       time.Time

	gen uint64
}

// Degraded reports whether the sample carries no metrics.
func (s Sample) Degraded() bool {
	return s.Err != nil
}

// Poller runs at most one single-target fetch loop.
type Poller struct {
	fetcher  players.StatsFetcher
	interval time.Duration
	out      chan Sample

	mu     sync.Mutex
	target string
	gen    uint64 // bumped on every Watch and Unwatch
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller builds an idle poller; non-positive intervals use the default.
func NewPoller(fetcher players.StatsFetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		out:      make(chan Sample),
	}
}

// Samples is the delivery channel. It is unbuffered; a sample is only handed
// over while its loop is still current.
func (p *Poller) Samples() <-chan Sample {
	return p.out
}

// Watch starts polling name, stopping any previous loop first.
func (p *Poller) Watch(ctx context.Context, name string) {
	name = strings.TrimSpace(name)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	if name == "" {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.target = name
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, name, p.gen, p.done)
	log.Debugf("watching %s", name)
}

// Unwatch stops the loop. No sample is delivered after it returns, including
// one whose fetch was in flight.
func (p *Poller) Unwatch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Current reports whether s came from the loop that is running now. A
// receiver already blocked on Samples can be handed one last sample from a
// loop that Watch or Unwatch is replacing; such a sample is not current.
func (p *Poller) Current(s Sample) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil && s.gen == p.gen
}

// Watching returns the current target, or "" when idle.
func (p *Poller) Watching() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// Close stops any loop. The poller can still be reused.
func (p *Poller) Close() {
	p.Unwatch()
}

func (p *Poller) stopLocked() {
	p.gen++
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	log.Debugf("stopped watching %s", p.target)
	p.cancel, p.done, p.target = nil, nil, ""
}

func (p *Poller) run(ctx context.Context, name string, gen uint64, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var failures logging.FailureRun
	for {
		sample := p.fetch(ctx, name, &failures)
		sample.gen = gen
		if ctx.Err() != nil {
			return
		}
		select {
		case p.out <- sample:
		case <-ctx.Done():
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) fetch(ctx context.Context, name string, failures *logging.FailureRun) Sample {
	metrics, err := p.fetcher.FetchStats(ctx, name)
	sample := Sample{Player: name, At: time.Now()}
	if err != nil {
		n, report := failures.Fail()
		if report && ctx.Err() == nil {
			log.Warnf("stats for %s failed (failure #%d): %v", name, n, err)
		}
		sample.Err = err
		sample.Failures = n
		return sample
	}
	if n := failures.Succeed(); n > 0 {
		log.Infof("stats for %s recovered after %d failures", name, n)
	}
	sample.Metrics = metrics
	return sample
}
