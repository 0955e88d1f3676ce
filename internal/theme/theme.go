package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the viewer and help content areas.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders secondary text such as snippets and timestamps.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// TitleStyle is used for view titles.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// ErrorTextStyle renders inline form errors.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(ColorRed)

// TabStyle returns the style of a listing tab.
func TabStyle(active bool) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1)
	if active {
		return base.Bold(true).Foreground(ColorWhite).Background(ColorBlue)
	}
	return base.Foreground(ColorGray)
}

// NoticeColor returns the accent color for a notice level.
func NoticeColor(level model.NoticeLevel) lipgloss.TerminalColor {
	switch level {
	case model.NoticeError:
		return ColorRed
	case model.NoticeSuccess:
		return ColorGreen
	default:
		return ColorBlue
	}
}

// NoticeStyle returns the modal style for a notice level.
func NoticeStyle(level model.NoticeLevel) lipgloss.Style {
	return lipgloss.NewStyle().
		Padding(1, 3).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(NoticeColor(level))
}

// NoticeBadge renders a short level label.
func NoticeBadge(level model.NoticeLevel) string {
	label := "INFO"
	switch level {
	case model.NoticeError:
		label = "FAIL"
	case model.NoticeSuccess:
		label = " OK "
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(NoticeColor(level)).
		Render(label)
}
