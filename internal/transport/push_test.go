package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/five82/roomdeck/internal/players"
)

var upgrader = websocket.Upgrader{}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
}

// pushServer upgrades every request, sends frames, then waits for the client
// to hang up. When dropAfter is set the server closes after sending.
func pushServer(t *testing.T, frames []string, dropAfter bool) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := conns.Add(1)
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		if dropAfter && n == 1 {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &conns
}

const statusFrame = `{"event":"status_update","data":{"players":[{"name":"A","volume":50,"state":"playing"}]}}`

func TestPushProber_Disabled(t *testing.T) {
	c := PushProber{Enabled: false, Options: PushOptions{URL: "ws://127.0.0.1:1/api/ws"}}.Probe(context.Background())
	u, ok := c.(PushUnavailable)
	if !ok {
		t.Fatalf("Probe = %T, want PushUnavailable", c)
	}
	if !errors.Is(u.Reason, ErrTransportUnavailable) {
		t.Fatalf("Reason = %v, want ErrTransportUnavailable", u.Reason)
	}
}

func TestPushProber_NoUpgradeMeansUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := PushProber{Enabled: true, Options: PushOptions{URL: wsURL(srv)}}.Probe(context.Background())
	u, ok := c.(PushUnavailable)
	if !ok {
		t.Fatalf("Probe = %T, want PushUnavailable", c)
	}
	if !errors.Is(u.Reason, ErrTransportUnavailable) {
		t.Fatalf("Reason = %v, want ErrTransportUnavailable", u.Reason)
	}
}

func TestPushProber_NetworkFailureStillAvailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	c := PushProber{Enabled: true, Options: PushOptions{URL: url}}.Probe(context.Background())
	a, ok := c.(PushAvailable)
	if !ok {
		t.Fatalf("Probe = %T, want PushAvailable", c)
	}
	ch, ok := a.Channel.(*PushChannel)
	if !ok || ch.initial != nil {
		t.Fatalf("channel = %#v, want push channel without connection", a.Channel)
	}
}

func TestPushChannel_DeliversStatusUpdates(t *testing.T) {
	srv, _ := pushServer(t, []string{
		`{"event":"player_added","data":{}}`,
		`not json`,
		statusFrame,
	}, false)

	c := PushProber{Enabled: true, Options: PushOptions{URL: wsURL(srv)}}.Probe(context.Background())
	a, ok := c.(PushAvailable)
	if !ok {
		t.Fatalf("Probe = %T, want PushAvailable", c)
	}
	ch, ok := a.Channel.(*PushChannel)
	if !ok || ch.initial == nil {
		t.Fatal("probe should hand over its connection")
	}

	rec := newRecorder()
	if err := ch.Start(context.Background(), rec.handlers()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer ch.Stop()

	rec.waitFor(t, "snapshot", func(r *recorder) bool { return len(r.snapshots) == 1 })

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.links) == 0 || rec.links[0] != LinkConnected {
		t.Fatalf("links = %v, want connected first", rec.links)
	}
	snap := rec.snapshots[0]
	if snap.Source != SourcePush || snap.Roster["A"].Volume != 50 {
		t.Fatalf("snapshot = %#v", snap)
	}
	if len(rec.errs) != 1 || !errors.Is(rec.errs[0], players.ErrMalformedResponse) {
		t.Fatalf("errs = %v, want one malformed frame", rec.errs)
	}
}

func TestPushChannel_ReconnectsAfterDrop(t *testing.T) {
	srv, conns := pushServer(t, []string{statusFrame}, true)

	ch := NewPushChannel(PushOptions{URL: wsURL(srv), Backoff: time.Millisecond})
	rec := newRecorder()
	if err := ch.Start(context.Background(), rec.handlers()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer ch.Stop()

	rec.waitFor(t, "second connection", func(r *recorder) bool {
		connected := 0
		for _, l := range r.links {
			if l == LinkConnected {
				connected++
			}
		}
		return connected >= 2
	})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	want := []LinkState{LinkConnected, LinkReconnecting, LinkConnected}
	for i, l := range want {
		if rec.links[i] != l {
			t.Fatalf("links = %v, want prefix %v", rec.links, want)
		}
	}
	if conns.Load() < 2 {
		t.Fatalf("server saw %d connections, want 2", conns.Load())
	}
}

func TestPushChannel_ClosesAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	ch := NewPushChannel(PushOptions{URL: wsURL(srv), Backoff: time.Millisecond, MaxAttempts: 3})
	rec := newRecorder()
	if err := ch.Start(context.Background(), rec.handlers()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer ch.Stop()

	rec.waitFor(t, "closed link", func(r *recorder) bool {
		return len(r.links) > 0 && r.links[len(r.links)-1] == LinkClosed
	})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.errs) != 3 {
		t.Fatalf("errors = %d, want 3", len(rec.errs))
	}
	var te *TransportError
	if !errors.As(rec.errs[2], &te) || te.Attempt != 3 {
		t.Fatalf("last error = %v, want attempt 3", rec.errs[2])
	}
	// Retries are not reported individually.
	if got := rec.links; len(got) != 2 || got[0] != LinkReconnecting {
		t.Fatalf("links = %v, want [reconnecting closed]", got)
	}
}

func TestPushChannel_StopSilencesHandlers(t *testing.T) {
	srv, _ := pushServer(t, nil, false)

	ch := NewPushChannel(PushOptions{URL: wsURL(srv)})
	rec := newRecorder()
	if err := ch.Start(context.Background(), rec.handlers()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	rec.waitFor(t, "connected", func(r *recorder) bool { return len(r.links) == 1 })

	ch.Stop()
	rec.mu.Lock()
	links, errs := len(rec.links), len(rec.errs)
	rec.mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.links) != links || len(rec.errs) != errs {
		t.Fatalf("handlers fired after Stop: links %v errs %v", rec.links, rec.errs)
	}
	if errs != 0 {
		t.Fatalf("Stop reported errors: %v", rec.errs)
	}
}

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantOK  bool
		wantErr bool
	}{
		{"status update", statusFrame, true, false},
		{"other event", `{"event":"ping"}`, false, false},
		{"broken json", `{"event":`, false, true},
		{"missing data", `{"event":"status_update"}`, false, true},
		{"missing players", `{"event":"status_update","data":{}}`, false, true},
		{"empty roster", `{"event":"status_update","data":{"players":[]}}`, true, false},
		{"players keyed by name", `{"event":"status_update","data":{"players":{"Kitchen":{"volume":40}}}}`, true, false},
		{"players as string", `{"event":"status_update","data":{"players":"Kitchen"}}`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, ok, err := decodeFrame([]byte(tt.frame), DefaultPushEvent)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, players.ErrMalformedResponse) {
				t.Fatalf("err = %v, want ErrMalformedResponse", err)
			}
			if tt.name == "players keyed by name" {
				if p, found := snap.Roster["Kitchen"]; !found || p.Volume != 40 {
					t.Fatalf("roster = %#v, want Kitchen volume 40", snap.Roster)
				}
			}
		})
	}
}
