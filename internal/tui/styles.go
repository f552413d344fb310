// Package tui is the terminal rendition of the review simulator wizard.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#4F46E5")
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#8A8F98")
	colorBorder  = lipgloss.Color("#D6DAE0")
	colorError   = lipgloss.Color("#E53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorStar    = lipgloss.Color("#F5B301")
)

// Styles holds every lipgloss style the wizard renders with.
type Styles struct {
	Header lipgloss.Style
	Title  lipgloss.Style
	Muted  lipgloss.Style
	Bold   lipgloss.Style
	Footer lipgloss.Style

	StepActive lipgloss.Style
	StepDone   lipgloss.Style
	StepTodo   lipgloss.Style

	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Celebrate lipgloss.Style

	Card    lipgloss.Style
	Badge   lipgloss.Style
	Stars   lipgloss.Style
	Prompt  lipgloss.Style
	Spinner lipgloss.Style

	Positive lipgloss.Style
	Neutral  lipgloss.Style
	Negative lipgloss.Style
}

// NewStyles builds the style set.
func NewStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(colorPrimary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),
		Title: lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(colorMuted),
		Bold: lipgloss.NewStyle().
			Bold(true),
		Footer: lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1),

		StepActive: lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Underline(true),
		StepDone: lipgloss.NewStyle().
			Foreground(colorAccent),
		StepTodo: lipgloss.NewStyle().
			Foreground(colorMuted),

		Error: lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(colorWarning),
		Celebrate: lipgloss.NewStyle().
			Foreground(colorStar).
			Bold(true),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),
		Badge: lipgloss.NewStyle().
			Background(colorAccent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1),
		Stars: lipgloss.NewStyle().
			Foreground(colorStar),
		Prompt: lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true),
		Spinner: lipgloss.NewStyle().
			Foreground(colorPrimary),

		Positive: lipgloss.NewStyle().Foreground(colorAccent),
		Neutral:  lipgloss.NewStyle().Foreground(colorMuted),
		Negative: lipgloss.NewStyle().Foreground(colorError),
	}
}

// DefaultStyles returns the style set, or plain styles when NO_COLOR is set.
func DefaultStyles() Styles {
	if os.Getenv("NO_COLOR") != "" {
		return plainStyles()
	}
	return NewStyles()
}

func plainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header: plain, Title: plain, Muted: plain, Bold: plain, Footer: plain.MarginTop(1),
		StepActive: plain, StepDone: plain, StepTodo: plain,
		Error: plain, Success: plain, Warning: plain, Celebrate: plain,
		Card: plain, Badge: plain, Stars: plain, Prompt: plain, Spinner: plain,
		Positive: plain, Neutral: plain, Negative: plain,
	}
}
