package ui

import (
	"image/color"

	"charm.land/bubbles/v2/table"
	"charm.land/lipgloss/v2"

	"github.com/olivoil/codeflow/tui/internal/status"
)

var (
	ColorGreen  color.Color
	ColorRed    color.Color
	ColorYellow color.Color
	ColorBlue   color.Color
	ColorDim    color.Color
	ColorWhite  color.Color
	ColorBorder color.Color
	ColorAccent color.Color
	ColorHeader color.Color

	StyleHeader        lipgloss.Style
	StyleActive        lipgloss.Style
	StyleInactive      lipgloss.Style
	StyleDim           lipgloss.Style
	StyleAccent        lipgloss.Style
	StyleError         lipgloss.Style
	StylePreviewBorder lipgloss.Style
	StyleNavItem       lipgloss.Style
	StyleNavActive     lipgloss.Style
	StyleBanner        lipgloss.Style
	StyleSnackbar      lipgloss.Style
	StyleSelected      lipgloss.Style
)

func init() { Apply(T) }

// Apply makes t the active theme and rebuilds every style from it.
func Apply(t Theme) {
	T = t

	ColorGreen = lipgloss.Color(t.Green)
	ColorRed = lipgloss.Color(t.Red)
	ColorYellow = lipgloss.Color(t.Yellow)
	ColorBlue = lipgloss.Color(t.Blue)
	ColorDim = lipgloss.Color(t.Dim)
	ColorWhite = lipgloss.Color(t.Foreground)
	ColorBorder = lipgloss.Color(t.Border)
	ColorAccent = lipgloss.Color(t.Accent)
	ColorHeader = lipgloss.Color(t.BrightWhite)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorHeader)

	StyleActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorGreen)

	StyleInactive = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorRed)

	StyleDim = lipgloss.NewStyle().
		Foreground(ColorDim)

	StyleAccent = lipgloss.NewStyle().
		Foreground(ColorAccent)

	StyleError = lipgloss.NewStyle().
		Foreground(ColorRed)

	StylePreviewBorder = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(ColorBorder).
		PaddingLeft(1)

	StyleNavItem = lipgloss.NewStyle().
		Foreground(ColorDim).
		PaddingLeft(1)

	StyleNavActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorAccent).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(ColorAccent)

	StyleBanner = lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1)

	StyleSnackbar = lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleSelected = lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.SelectionForeground)).
		Background(lipgloss.Color(t.SelectionBackground))
}

// TableStyles returns the table styles for the active theme. Views call it
// again after Apply.
func TableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		Bold(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(T.Accent)).
		Bold(true)
	return s
}

// SeverityColor returns the color for a status message severity.
func SeverityColor(s status.Severity) color.Color {
	switch s {
	case status.Success:
		return ColorGreen
	case status.Fail:
		return ColorRed
	}
	return ColorDim
}

// Banner renders a full-width connection banner, or "" for an empty message.
func Banner(m status.Message, width int) string {
	if m.Empty() {
		return ""
	}
	st := StyleBanner.
		Foreground(lipgloss.Color(T.Background)).
		Background(SeverityColor(m.Severity))
	if width > 0 {
		st = st.Width(width)
	}
	return st.Render(m.Text)
}

// Snackbar renders a transient notice with a severity-colored border.
func Snackbar(m status.Message) string {
	icon := "✓"
	if m.Severity == status.Fail {
		icon = "✗"
	}
	return StyleSnackbar.
		BorderForeground(SeverityColor(m.Severity)).
		Render(lipgloss.NewStyle().Foreground(SeverityColor(m.Severity)).Render(icon) + " " + m.Text)
}

// EnvBadge renders an environment name on its configured color, falling back
// to the accent color.
func EnvBadge(name, hex string) string {
	bg := ColorAccent
	if hex != "" {
		bg = lipgloss.Color(hex)
	}
	return lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(lipgloss.Color(T.Background)).
		Background(bg).
		Render(name)
}

// Truncate cuts s to width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
