// Package ui provides the console styling for the gradebook CLI.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	LightForeground = lipgloss.Color("#101F38")
	LightPrimary    = lipgloss.Color("#1F4E79")
	LightMuted      = lipgloss.Color("#6B7280")

	DarkForeground = lipgloss.Color("#f2f2f2")
	DarkPrimary    = lipgloss.Color("#8BC34A")
	DarkMuted      = lipgloss.Color("#9CA3AF")

	// Semantic colors (same in both modes)
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")
)

// Theme holds the current color scheme
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{Foreground: LightForeground, Primary: LightPrimary, Muted: LightMuted}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{Foreground: DarkForeground, Primary: DarkPrimary, Muted: DarkMuted, IsDark: true}
}

// DetectTheme picks a theme from COLORFGBG or GRADEBOOK_DARK_MODE, defaulting to light.
func DetectTheme() Theme {
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		// 0-6 and 8 are dark backgrounds
		if bg, err := strconv.Atoi(parts[1]); err == nil && ((bg >= 0 && bg <= 6) || bg == 8) {
			return DarkTheme()
		}
	}
	if os.Getenv("GRADEBOOK_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Divider lipgloss.Style
	Badge   lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Title:    lipgloss.NewStyle().Foreground(theme.Primary).Bold(true),
		Subtitle: lipgloss.NewStyle().Foreground(theme.Muted).Italic(true),
		Body:     lipgloss.NewStyle().Foreground(theme.Foreground),
		Muted:    lipgloss.NewStyle().Foreground(theme.Muted),
		Bold:     lipgloss.NewStyle().Foreground(theme.Foreground).Bold(true),

		Success: lipgloss.NewStyle().Foreground(Success).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(Destructive).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(Warning).Bold(true),
		Info:    lipgloss.NewStyle().Foreground(Info),

		Divider: lipgloss.NewStyle().Foreground(theme.Muted),
		Badge:   lipgloss.NewStyle().Padding(0, 1).Bold(true),
	}
}

// DefaultStyles returns styles for the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// Rule renders a horizontal divider of width cells.
func (s Styles) Rule(width int) string {
	return s.Divider.Render(strings.Repeat("─", width))
}

// SyncBadge renders the sync indicator. Status values: local-only, syncing, synced, sent, error.
func (s Styles) SyncBadge(status string) string {
	switch status {
	case "synced":
		return s.Success.Render("✓ Synced")
	case "sent":
		return s.Info.Render("↑ Sent (unconfirmed)")
	case "syncing":
		return s.Info.Render("⟳ Syncing")
	case "error":
		return s.Error.Render("✗ Sync error")
	}
	return s.Muted.Render("● Local only")
}

// ProgressBadge colors a curriculum status label by how far it sits from the standard.
func (s Styles) ProgressBadge(status, label string) string {
	switch status {
	case "well-above", "above":
		return s.Success.Render(label)
	case "at-standard":
		return s.Info.Render(label)
	case "below", "well-below":
		return s.Warning.Render(label)
	case "not-evident":
		return s.Error.Render(label)
	}
	return s.Muted.Render("—")
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
