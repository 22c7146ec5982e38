package players

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	MinVolume = 0
	MaxVolume = 100

	MinDelayMS = -5000
	MaxDelayMS = 5000
)

// Phase is the lifecycle phase a player reports. Display-only: the dashboard
// never enforces transition legality.
type Phase string

const (
	PhaseCreated    Phase = "created"
	PhaseConnecting Phase = "connecting"
	PhaseStarting   Phase = "starting"
	PhaseBuffering  Phase = "buffering"
	PhasePlaying    Phase = "playing"
	PhaseConnected  Phase = "connected"
	PhaseError      Phase = "error"
	PhaseStopped    Phase = "stopped"
)

// Normalize lowercases and trims a backend-reported phase. Unknown values are
// kept so the renderer can still show them.
func (p Phase) Normalize() Phase {
	return Phase(strings.ToLower(strings.TrimSpace(string(p))))
}

// Active reports whether the phase represents a player producing audio.
func (p Phase) Active() bool {
	switch p.Normalize() {
	case PhasePlaying, PhaseConnected, PhaseBuffering:
		return true
	}
	return false
}

// RuntimeMetrics is the optional buffer/counter block attached to a player.
type RuntimeMetrics struct {
	BufferLevel    int   `json:"buffer_level"`
	BufferCapacity int   `json:"buffer_capacity"`
	SamplesPlayed  int64 `json:"samples_played"`
	Underruns      int64 `json:"underruns"`
	Overruns       int64 `json:"overruns"`
}

// BufferPercent returns buffer occupancy in the range 0..100.
func (m RuntimeMetrics) BufferPercent() float64 {
	if m.BufferCapacity <= 0 {
		return 0
	}
	pct := float64(m.BufferLevel) / float64(m.BufferCapacity) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// PlayerState mirrors one entry of /api/players.
type PlayerState struct {
	Name         string          `json:"name"`
	Provider     string          `json:"provider,omitempty"`
	Serverless   bool            `json:"serverless"`
	Device       string          `json:"device"`
	Volume       int             `json:"volume"`
	DelayMS      int             `json:"delay_ms"`
	State        Phase           `json:"state"`
	ClockSynced  bool            `json:"is_clock_synced"`
	Muted        bool            `json:"muted"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Metrics      *RuntimeMetrics `json:"metrics,omitempty"`
	CreatedAt    *time.Time      `json:"created_at,omitempty"`
	ConnectedAt  *time.Time      `json:"connected_at,omitempty"`
}

// Clamped returns a copy with volume and delay forced into range and no
// pointer shared with the receiver.
func (p PlayerState) Clamped() PlayerState {
	out := p
	out.Volume = ClampVolume(p.Volume)
	out.DelayMS = ClampDelay(p.DelayMS)
	out.State = p.State.Normalize()
	if p.Metrics != nil {
		m := *p.Metrics
		out.Metrics = &m
	}
	if p.CreatedAt != nil {
		ts := *p.CreatedAt
		out.CreatedAt = &ts
	}
	if p.ConnectedAt != nil {
		ts := *p.ConnectedAt
		out.ConnectedAt = &ts
	}
	return out
}

// Mode returns the human label for the serverless flag.
func (p PlayerState) Mode() string {
	if p.Serverless {
		return "serverless"
	}
	return "server"
}

// Roster maps player name to state.
type Roster map[string]PlayerState

// NewRoster indexes a player list by name. Later duplicates win, entries
// without a name are dropped, and every entry is clamped.
func NewRoster(list []PlayerState) Roster {
	out := make(Roster, len(list))
	for _, p := range list {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		p.Name = name
		out[name] = p.Clamped()
	}
	return out
}

// Clone deep-copies the roster.
func (r Roster) Clone() Roster {
	if r == nil {
		return Roster{}
	}
	out := make(Roster, len(r))
	for name, p := range r {
		out[name] = p.Clamped()
	}
	return out
}

// Names returns player names in lexical order.
func (r Roster) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RosterResponse mirrors the /api/players payload and the push event body.
// The backend sends players either as a list or as an object keyed by player
// name. Statuses, when present, reports whether each player process runs.
type RosterResponse struct {
	Players  []PlayerState   `json:"players"`
	Statuses map[string]bool `json:"statuses,omitempty"`
}

// UnmarshalJSON accepts both player shapes. Players stays nil when the
// payload has no players field.
func (r *RosterResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Players  json.RawMessage `json:"players"`
		Statuses map[string]bool `json:"statuses"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Players = nil
	r.Statuses = raw.Statuses

	body := bytes.TrimSpace(raw.Players)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil
	}
	switch body[0] {
	case '[':
		list := []PlayerState{}
		if err := json.Unmarshal(body, &list); err != nil {
			return err
		}
		r.Players = list
	case '{':
		byName := map[string]PlayerState{}
		if err := json.Unmarshal(body, &byName); err != nil {
			return err
		}
		list := make([]PlayerState, 0, len(byName))
		for name, p := range byName {
			if strings.TrimSpace(p.Name) == "" {
				p.Name = name
			}
			list = append(list, p)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		r.Players = list
	default:
		return fmt.Errorf("players: want list or object, got %.32s", body)
	}

	// A player without a reported phase takes it from its process status.
	for i, p := range r.Players {
		if p.State != "" {
			continue
		}
		running, ok := r.Statuses[p.Name]
		switch {
		case !ok:
		case running:
			r.Players[i].State = PhaseConnected
		default:
			r.Players[i].State = PhaseStopped
		}
	}
	return nil
}

// CorrectionMode is the sync correction currently applied by a player.
type CorrectionMode string

const (
	CorrectionNone       CorrectionMode = "none"
	CorrectionResampling CorrectionMode = "resampling"
	CorrectionDropping   CorrectionMode = "dropping"
	CorrectionInserting  CorrectionMode = "inserting"
)

// Label returns a display label, mapping unknown or empty values to "None".
func (c CorrectionMode) Label() string {
	switch CorrectionMode(strings.ToLower(strings.TrimSpace(string(c)))) {
	case CorrectionResampling:
		return "Resampling"
	case CorrectionDropping:
		return "Dropping"
	case CorrectionInserting:
		return "Inserting"
	default:
		return "None"
	}
}

// BufferStats is the detail view's buffer occupancy.
type BufferStats struct {
	Level    int `json:"level"`
	Capacity int `json:"capacity"`
}

// Throughput holds sample/frame counters.
type Throughput struct {
	SamplesRead    int64 `json:"samples_read"`
	SamplesOutput  int64 `json:"samples_output"`
	FramesDropped  int64 `json:"frames_dropped"`
	FramesInserted int64 `json:"frames_inserted"`
}

// ClockSync is the latest clock-sync measurement.
type ClockSync struct {
	OffsetMS      float64 `json:"offset_ms"`
	UncertaintyMS float64 `json:"uncertainty_ms"`
	DriftPPM      float64 `json:"drift_ppm"`
	Reliable      bool    `json:"reliable"`
	Measurements  int     `json:"measurements"`
}

// Resampler describes the active resampler configuration.
type Resampler struct {
	InputRate  int     `json:"input_rate"`
	OutputRate int     `json:"output_rate"`
	Quality    string  `json:"quality"`
	Ratio      float64 `json:"ratio"`
}

// DetailMetrics mirrors /api/players/{name}/stats. It is never stored; each
// sample replaces the previous one.
type DetailMetrics struct {
	PlayerName     string         `json:"player_name"`
	InputFormat    string         `json:"input_format"`
	OutputFormat   string         `json:"output_format"`
	SyncErrorMS    float64        `json:"sync_error_ms"`
	CorrectionMode CorrectionMode `json:"correction_mode"`
	PlaybackActive bool           `json:"playback_active"`
	Buffer         BufferStats    `json:"buffer"`
	Throughput     Throughput     `json:"throughput"`
	Clock          ClockSync      `json:"clock"`
	Resampler      Resampler      `json:"resampler"`
}

// ClampVolume forces v into [MinVolume, MaxVolume].
func ClampVolume(v int) int {
	return clamp(v, MinVolume, MaxVolume)
}

// ClampDelay forces ms into [MinDelayMS, MaxDelayMS].
func ClampDelay(ms int) int {
	return clamp(ms, MinDelayMS, MaxDelayMS)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
