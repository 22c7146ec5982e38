package ui

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/five82/roomdeck/internal/players"
	"github.com/five82/roomdeck/internal/prefs"
	"github.com/five82/roomdeck/internal/supervisor"
)

func TestSortedNames(t *testing.T) {
	roster := players.NewRoster([]players.PlayerState{
		{Name: "d", State: players.PhaseStopped},
		{Name: "c", State: "Playing"},
		{Name: "b", State: players.PhaseError},
		{Name: "a", State: players.PhaseBuffering},
		{Name: "e", State: "mystery"},
		{Name: "f", State: players.PhasePlaying},
	})

	tests := []struct {
		order string
		want  []string
	}{
		{prefs.SortByName, []string{"a", "b", "c", "d", "e", "f"}},
		{prefs.SortByState, []string{"c", "f", "a", "b", "d", "e"}},
		{"", []string{"a", "b", "c", "d", "e", "f"}},
	}
	for _, tt := range tests {
		t.Run(tt.order, func(t *testing.T) {
			if got := sortedNames(roster, tt.order); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("sortedNames(%q) = %v, want %v", tt.order, got, tt.want)
			}
		})
	}
}

func TestBadgeColor(t *testing.T) {
	m := Model{theme: GetTheme("Nightfox")}
	tests := []struct {
		phase supervisor.Phase
		want  string
	}{
		{supervisor.PhaseLiveUpdates, m.theme.Success},
		{supervisor.PhasePolling, m.theme.Info},
		{supervisor.PhaseReconnecting, m.theme.Warning},
		{supervisor.PhaseDisconnected, m.theme.Danger},
		{supervisor.PhaseUnknown, m.theme.Muted},
	}
	for _, tt := range tests {
		if got := m.badgeColor(tt.phase); got != tt.want {
			t.Errorf("badgeColor(%v) = %q, want %q", tt.phase, got, tt.want)
		}
	}
}

func TestRenderRosterRow(t *testing.T) {
	m := Model{theme: GetTheme("Slate")}
	p := players.PlayerState{
		Name:         "Office",
		State:        players.PhaseError,
		Volume:       30,
		DelayMS:      120,
		Serverless:   true,
		ErrorMessage: "device busy",
	}
	row := m.renderRosterRow(p, 120, false)
	for _, want := range []string{"Office", "error", "30%", "+120ms", "serverless", "device busy"} {
		if !strings.Contains(row, want) {
			t.Errorf("row %q missing %q", row, want)
		}
	}

	p.Muted = true
	if row := m.renderRosterRow(p, 120, true); !strings.Contains(row, "muted") {
		t.Errorf("muted row %q", row)
	}
}

func TestSurfaceHelpers(t *testing.T) {
	bg := newSurface("#000000")
	styles := GetTheme("Nightfox").Styles()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"text keeps gaps", bg.text("device  busy", styles.Text), "device  busy"},
		{"empty text", bg.text("", styles.Text), ""},
		{"stat", bg.stat("Players", "4", styles.MutedText, styles.Text), "Players: 4"},
		{"hint", bg.hint("o", "Name", styles.AccentText, styles.FaintText), "o:Name"},
		{"field", bg.field("State", "playing", styles.MutedText), "State           playing"},
		{"bar", bg.bar([]string{"Live", "Players: 2"}), "Live  Players: 2"},
		{"columns", bg.columns("Kitchen", "50%", "+0ms"), "Kitchen 50% +0ms"},
		{"no gap", bg.gap(-1), ""},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
	if got := bg.fill("Kitchen", 12); !strings.HasPrefix(got, "Kitchen") || len([]rune(got)) != 12 {
		t.Errorf("fill = %q, want 12 cells", got)
	}
}

func TestStringHelpers(t *testing.T) {
	if got := truncate("  abcdefgh ", 6); got != "abc..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 2); got != "ab" {
		t.Errorf("truncate short limit = %q", got)
	}
	if got := cell("ab", 4); got != "ab  " {
		t.Errorf("cell = %q", got)
	}

	delays := map[int]string{0: "0ms", 25: "+25ms", -40: "-40ms"}
	for in, want := range delays {
		if got := formatDelay(in); got != want {
			t.Errorf("formatDelay(%d) = %q, want %q", in, got, want)
		}
	}

	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	ago := []struct {
		d    time.Duration
		want string
	}{
		{time.Second, "now"},
		{30 * time.Second, "30s ago"},
		{3 * time.Minute, "3m ago"},
		{2 * time.Hour, "2h ago"},
	}
	for _, tt := range ago {
		if got := humanizeAgo(now.Add(-tt.d), now); got != tt.want {
			t.Errorf("humanizeAgo(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
	if got := humanizeAgo(time.Time{}, now); got != "" {
		t.Errorf("humanizeAgo(zero) = %q", got)
	}

	if got := meter(50, 4); got != "██░░" {
		t.Errorf("meter(50) = %q", got)
	}
	if got := meter(250, 2); got != "██" {
		t.Errorf("meter(250) = %q", got)
	}
}
