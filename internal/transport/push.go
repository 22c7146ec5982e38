package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/five82/roomdeck/internal/logging"
	"github.com/five82/roomdeck/internal/players"
)

var pushLog = logging.Logger("transport/push")

const (
	// DefaultPushEvent is the event name carrying roster snapshots.
	DefaultPushEvent = "status_update"

	handshakeTimeout = 5 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = 25 * time.Second
	writeWait        = 5 * time.Second
	maxMessageSize   = 1 << 20
)

// PushOptions configure the push channel.
type PushOptions struct {
	URL         string
	Event       string        // event name to accept; empty uses DefaultPushEvent
	Backoff     time.Duration // base reconnect delay
	MaxAttempts int           // reconnect attempts per outage; zero retries forever
	Header      http.Header
}

// pushEnvelope is one server-pushed frame.
type pushEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// PushChannel holds a long-lived WebSocket subscription. It owns its own
// reconnect loop and only reports macro link transitions.
type PushChannel struct {
	opts   PushOptions
	dialer *websocket.Dialer

	mu      sync.Mutex
	initial *websocket.Conn // connection established by the probe, if any
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPushChannel builds a push channel that dials on Start.
func NewPushChannel(opts PushOptions) *PushChannel {
	return newPushChannel(opts, nil)
}

func newPushChannel(opts PushOptions, conn *websocket.Conn) *PushChannel {
	if strings.TrimSpace(opts.Event) == "" {
		opts.Event = DefaultPushEvent
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	return &PushChannel{
		opts:    opts,
		dialer:  newDialer(),
		initial: conn,
	}
}

func newDialer() *websocket.Dialer {
	return &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
}

// Start launches the subscription loop.
func (p *PushChannel) Start(ctx context.Context, h Handlers) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	conn := p.initial
	p.initial = nil
	go p.run(ctx, h, conn, p.done)
	return nil
}

// Stop closes the connection, aborts any reconnect wait, and waits for the
// loop to exit.
func (p *PushChannel) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	initial := p.initial
	p.initial = nil
	p.mu.Unlock()

	if initial != nil {
		_ = initial.Close()
	}
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *PushChannel) run(ctx context.Context, h Handlers, conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	attempts := 0
	reconnecting := false
	for {
		if conn == nil {
			c, err := p.dial(ctx)
			if ctx.Err() != nil {
				if c != nil {
					_ = c.Close()
				}
				return
			}
			if err != nil {
				attempts++
				h.fail(&TransportError{Attempt: attempts, Err: err})
				if p.opts.MaxAttempts > 0 && attempts >= p.opts.MaxAttempts {
					pushLog.Warnf("push gave up after %d attempts: %v", attempts, err)
					h.link(LinkClosed)
					return
				}
				if !reconnecting {
					reconnecting = true
					h.link(LinkReconnecting)
				}
				if !sleepContext(ctx, calculateBackoff(attempts-1, p.opts.Backoff)) {
					return
				}
				continue
			}
			conn = c
		}

		session := uuid.NewString()
		pushLog.Infow("push connected", "url", p.opts.URL, "session", session, "attempts", attempts)
		attempts = 0
		reconnecting = false
		h.link(LinkConnected)

		err := p.read(ctx, conn, h)
		_ = conn.Close()
		conn = nil
		if ctx.Err() != nil {
			return
		}
		pushLog.Warnw("push dropped", "session", session, "error", err)
		h.fail(&TransportError{Err: err})
		reconnecting = true
		h.link(LinkReconnecting)
	}
}

func (p *PushChannel) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := p.dialer.DialContext(ctx, p.opts.URL, p.opts.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", p.opts.URL, err)
	}
	return conn, nil
}

// read pumps frames until the connection fails or ctx is cancelled.
func (p *PushChannel) read(ctx context.Context, conn *websocket.Conn, h Handlers) error {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := make(chan struct{})
	defer close(stop)
	go keepalive(ctx, conn, stop)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		snap, ok, err := decodeFrame(data, p.opts.Event)
		if err != nil {
			h.fail(fmt.Errorf("%w: %w", ErrFetchFailed, err))
			continue
		}
		if !ok {
			continue
		}
		h.snapshot(snap)
	}
}

// keepalive pings the server and closes the connection when ctx ends so a
// blocked ReadMessage returns.
func keepalive(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

// decodeFrame turns a push frame into a snapshot. ok is false for frames
// carrying other events.
func decodeFrame(data []byte, event string) (Snapshot, bool, error) {
	var env pushEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Snapshot{}, false, fmt.Errorf("%w: push frame: %v", players.ErrMalformedResponse, err)
	}
	if env.Event != event {
		return Snapshot{}, false, nil
	}
	if len(env.Data) == 0 {
		return Snapshot{}, false, fmt.Errorf("%w: push event %q without data", players.ErrMalformedResponse, event)
	}
	var body players.RosterResponse
	if err := json.Unmarshal(env.Data, &body); err != nil {
		return Snapshot{}, false, fmt.Errorf("%w: push event %q: %v", players.ErrMalformedResponse, event, err)
	}
	if body.Players == nil {
		return Snapshot{}, false, fmt.Errorf("%w: push event %q missing players list", players.ErrMalformedResponse, event)
	}
	return Snapshot{
		Roster:     players.NewRoster(body.Players),
		Source:     SourcePush,
		ReceivedAt: time.Now(),
	}, true, nil
}

// isHandshakeRejection reports whether a dial failed because the server
// answered without upgrading, as opposed to a network failure.
func isHandshakeRejection(err error) bool {
	return errors.Is(err, websocket.ErrBadHandshake)
}
