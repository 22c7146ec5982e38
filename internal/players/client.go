package players

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMalformedResponse marks a payload that could not be decoded into the
	// expected shape.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrNotFound is returned when the backend does not know the player.
	ErrNotFound = errors.New("player not found")
)

// RosterFetcher fetches the full roster.
type RosterFetcher interface {
	FetchPlayers(ctx context.Context) (Roster, error)
}

// StatsFetcher fetches detail metrics for one player.
type StatsFetcher interface {
	FetchStats(ctx context.Context, name string) (*DetailMetrics, error)
}

// Controller performs the mutating player actions.
type Controller interface {
	SetVolume(ctx context.Context, name string, volume int) (int, error)
	SetOffset(ctx context.Context, name string, delayMS int) (int, error)
	StartPlayer(ctx context.Context, name string) error
	StopPlayer(ctx context.Context, name string) error
}

// Ensure Client implements the fetcher interfaces at compile time.
var (
	_ RosterFetcher = (*Client)(nil)
	_ StatsFetcher  = (*Client)(nil)
	_ Controller    = (*Client)(nil)
)

// Client talks to the audio controller HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:8080"
	defaultUserAgent = "roomdeck/0.1"
	requestTimeout   = 5 * time.Second
	maxErrorBody     = 4 << 10
)

// NewClient builds a Client using the provided host:port or URL value.
func NewClient(apiURL string) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns a copy of the normalized API base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// PushURL resolves the WebSocket endpoint for path, switching http(s) to ws(s).
func (c *Client) PushURL(path string) string {
	u := c.BaseURL()
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if strings.TrimSpace(path) == "" {
		path = "/api/ws"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = path
	return u.String()
}

// FetchPlayers retrieves the full roster.
func (c *Client) FetchPlayers(ctx context.Context) (Roster, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload RosterResponse
	if err := c.do(ctx, http.MethodGet, "/api/players", nil, &payload); err != nil {
		return nil, err
	}
	if payload.Players == nil {
		return nil, fmt.Errorf("%w: /api/players missing players list", ErrMalformedResponse)
	}
	return NewRoster(payload.Players), nil
}

// FetchPlayer retrieves a single player's state.
func (c *Client) FetchPlayer(ctx context.Context, name string) (*PlayerState, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload PlayerState
	if err := c.do(ctx, http.MethodGet, playerPath(name, ""), nil, &payload); err != nil {
		return nil, err
	}
	p := payload.Clamped()
	return &p, nil
}

// FetchStats retrieves detail metrics for one player.
func (c *Client) FetchStats(ctx context.Context, name string) (*DetailMetrics, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("player name required")
	}
	var payload DetailMetrics
	if err := c.do(ctx, http.MethodGet, playerPath(name, "stats"), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SetVolume clamps volume, sends it, and returns the value that was sent.
func (c *Client) SetVolume(ctx context.Context, name string, volume int) (int, error) {
	if c == nil {
		return 0, fmt.Errorf("client is nil")
	}
	volume = ClampVolume(volume)
	body := map[string]int{"volume": volume}
	if err := c.action(ctx, http.MethodPut, playerPath(name, "volume"), body); err != nil {
		return 0, err
	}
	return volume, nil
}

// SetOffset clamps the delay, sends it, and returns the value that was sent.
func (c *Client) SetOffset(ctx context.Context, name string, delayMS int) (int, error) {
	if c == nil {
		return 0, fmt.Errorf("client is nil")
	}
	delayMS = ClampDelay(delayMS)
	body := map[string]int{"delay_ms": delayMS}
	if err := c.action(ctx, http.MethodPut, playerPath(name, "offset"), body); err != nil {
		return 0, err
	}
	return delayMS, nil
}

// StartPlayer asks the backend to start the player process.
func (c *Client) StartPlayer(ctx context.Context, name string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.action(ctx, http.MethodPost, playerPath(name, "start"), nil)
}

// StopPlayer asks the backend to stop the player process.
func (c *Client) StopPlayer(ctx context.Context, name string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.action(ctx, http.MethodPost, playerPath(name, "stop"), nil)
}

// actionResponse is the envelope returned by mutating routes.
type actionResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) action(ctx context.Context, method, path string, body any) error {
	var payload actionResponse
	if err := c.do(ctx, method, path, body, &payload); err != nil {
		return err
	}
	if payload.Success != nil && !*payload.Success {
		msg := strings.TrimSpace(payload.Message)
		if msg == "" {
			msg = strings.TrimSpace(payload.Error)
		}
		if msg == "" {
			msg = "request rejected"
		}
		return fmt.Errorf("api %s: %s", path, msg)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("build request path: %w", err)
	}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("api %s: %w", rel.String(), ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if msg := errorMessage(detail); msg != "" {
			return fmt.Errorf("api %s returned status %d: %s", rel.String(), resp.StatusCode, msg)
		}
		return fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformedResponse, rel.String(), err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload actionResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Error)
}

func playerPath(name, action string) string {
	p := "/api/players/" + url.PathEscape(strings.TrimSpace(name))
	if action != "" {
		p += "/" + action
	}
	return p
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", apiURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
