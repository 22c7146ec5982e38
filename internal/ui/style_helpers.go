package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// surface paints every rendered segment, spaces included, with one
// background. Adjacent lipgloss renders reset the background between
// segments, which shows as holes on coloured bars and boxes.
type surface struct {
	bg    lipgloss.Color
	space string
}

func newSurface(color string) surface {
	bg := lipgloss.Color(color)
	return surface{bg: bg, space: lipgloss.NewStyle().Background(bg).Render(" ")}
}

// text renders s word by word so the gaps keep the background.
func (s surface) text(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	words := strings.Split(text, " ")
	style = style.Background(s.bg)
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, s.space)
}

func (s surface) gap(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s.space, n)
}

// bar joins header or command bar segments two cells apart.
func (s surface) bar(segments []string) string {
	return strings.Join(segments, s.gap(2))
}

// stat renders a header counter such as "Players: 4".
func (s surface) stat(label, value string, labelStyle, valueStyle lipgloss.Style) string {
	return s.text(label+":", labelStyle) + s.space + s.text(value, valueStyle)
}

// hint renders a command bar entry such as "o:Name".
func (s surface) hint(key, desc string, keyStyle, descStyle lipgloss.Style) string {
	return s.text(key, keyStyle) + s.text(":", descStyle) + s.text(desc, descStyle)
}

// field renders one detail line: the label padded to a fixed column, then
// the value as already styled by the caller.
func (s surface) field(label, value string, labelStyle lipgloss.Style) string {
	return s.text(padRight(label, detailLabelWidth), labelStyle) + value
}

// columns joins roster or log cells one cell apart.
func (s surface) columns(cells ...string) string {
	return strings.Join(cells, s.space)
}

// fill pads a rendered row to width so selection and box colours reach the
// right edge.
func (s surface) fill(row string, width int) string {
	return lipgloss.NewStyle().Background(s.bg).Width(width).Render(row)
}
