package detail

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/roomdeck/internal/players"
)

type statsFunc func(ctx context.Context, name string) (*players.DetailMetrics, error)

func (f statsFunc) FetchStats(ctx context.Context, name string) (*players.DetailMetrics, error) {
	return f(ctx, name)
}

func metricsFor(name string) *players.DetailMetrics {
	return &players.DetailMetrics{PlayerName: name, SyncErrorMS: 1.5}
}

func receive(t *testing.T, p *Poller) Sample {
	t.Helper()
	select {
	case s := <-p.Samples():
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sample")
		return Sample{}
	}
}

func expectNone(t *testing.T, p *Poller, wait time.Duration) {
	t.Helper()
	select {
	case s := <-p.Samples():
		t.Fatalf("unexpected sample %#v", s)
	case <-time.After(wait):
	}
}

func TestPoller_WatchDeliversSamples(t *testing.T) {
	p := NewPoller(statsFunc(func(_ context.Context, name string) (*players.DetailMetrics, error) {
		return metricsFor(name), nil
	}), 5*time.Millisecond)
	defer p.Close()

	p.Watch(context.Background(), "Kitchen")
	if got := p.Watching(); got != "Kitchen" {
		t.Fatalf("Watching = %q, want Kitchen", got)
	}
	for i := 0; i < 3; i++ {
		s := receive(t, p)
		if s.Player != "Kitchen" || s.Degraded() || s.Metrics.PlayerName != "Kitchen" {
			t.Fatalf("sample %d = %#v", i, s)
		}
	}
}

func TestPoller_SwitchingTargetsKeepsOneLoop(t *testing.T) {
	var active, maxActive atomic.Int32
	p := NewPoller(statsFunc(func(_ context.Context, name string) (*players.DetailMetrics, error) {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		return metricsFor(name), nil
	}), time.Millisecond)
	defer p.Close()

	p.Watch(context.Background(), "A")
	if s := receive(t, p); s.Player != "A" {
		t.Fatalf("first sample for %q, want A", s.Player)
	}

	p.Watch(context.Background(), "B")
	if got := p.Watching(); got != "B" {
		t.Fatalf("Watching = %q, want B", got)
	}
	for i := 0; i < 20; i++ {
		if s := receive(t, p); s.Player != "B" {
			t.Fatalf("sample for %q after switching to B", s.Player)
		}
	}
	if maxActive.Load() > 1 {
		t.Fatalf("observed %d concurrent fetches, want 1", maxActive.Load())
	}
}

func TestPoller_UnwatchDropsInFlightFetch(t *testing.T) {
	entered := make(chan struct{})
	var once sync.Once
	p := NewPoller(statsFunc(func(ctx context.Context, name string) (*players.DetailMetrics, error) {
		once.Do(func() { close(entered) })
		<-ctx.Done()
		return metricsFor(name), nil
	}), time.Millisecond)

	p.Watch(context.Background(), "LivingRoom")
	<-entered
	p.Unwatch()

	if got := p.Watching(); got != "" {
		t.Fatalf("Watching = %q after Unwatch", got)
	}
	expectNone(t, p, 30*time.Millisecond)
}

func TestPoller_SamplesFromReplacedLoopAreNotCurrent(t *testing.T) {
	p := NewPoller(statsFunc(func(_ context.Context, name string) (*players.DetailMetrics, error) {
		return metricsFor(name), nil
	}), time.Millisecond)
	defer p.Close()

	p.Watch(context.Background(), "Kitchen")
	first := receive(t, p)
	if !p.Current(first) {
		t.Fatal("sample from the running loop should be current")
	}

	// Re-opening the same player replaces the loop.
	p.Watch(context.Background(), "Kitchen")
	if p.Current(first) {
		t.Fatal("sample from the replaced loop is still current")
	}
	next := receive(t, p)
	if next.Player != "Kitchen" || !p.Current(next) {
		t.Fatalf("sample %#v after re-watch should be current", next)
	}

	p.Unwatch()
	if p.Current(next) {
		t.Fatal("sample is current after Unwatch")
	}
}

func TestPoller_FailuresDoNotStopLoop(t *testing.T) {
	var calls atomic.Int32
	p := NewPoller(statsFunc(func(_ context.Context, name string) (*players.DetailMetrics, error) {
		if calls.Add(1) <= 3 {
			return nil, errors.New("timeout")
		}
		return metricsFor(name), nil
	}), time.Millisecond)
	defer p.Close()

	p.Watch(context.Background(), "LivingRoom")
	for i := 1; i <= 3; i++ {
		s := receive(t, p)
		if !s.Degraded() || s.Failures != i {
			t.Fatalf("sample %d = %#v, want degraded with %d failures", i, s, i)
		}
	}
	s := receive(t, p)
	if s.Degraded() || s.Metrics == nil {
		t.Fatalf("4th sample = %#v, want first success", s)
	}
	if s.Failures != 0 {
		t.Fatalf("Failures = %d on success, want 0", s.Failures)
	}
}

func TestPoller_EmptyNameUnwatches(t *testing.T) {
	p := NewPoller(statsFunc(func(_ context.Context, name string) (*players.DetailMetrics, error) {
		return metricsFor(name), nil
	}), time.Millisecond)

	p.Watch(context.Background(), "A")
	receive(t, p)
	p.Watch(context.Background(), "  ")
	if got := p.Watching(); got != "" {
		t.Fatalf("Watching = %q, want idle", got)
	}
	expectNone(t, p, 20*time.Millisecond)
}

func TestPoller_ParentContextCancelStopsLoop(t *testing.T) {
	p := NewPoller(statsFunc(func(_ context.Context, name string) (*players.DetailMetrics, error) {
		return metricsFor(name), nil
	}), time.Millisecond)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	p.Watch(ctx, "A")
	receive(t, p)
	cancel()

	// A sample already racing the cancel may still be handed over once.
	select {
	case <-p.Samples():
	case <-time.After(10 * time.Millisecond):
	}
	expectNone(t, p, 20*time.Millisecond)
}

func TestNewPoller_DefaultInterval(t *testing.T) {
	p := NewPoller(nil, 0)
	if p.interval != DefaultInterval {
		t.Fatalf("interval = %v, want %v", p.interval, DefaultInterval)
	}
}
