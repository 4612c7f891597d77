package output

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#02BA84", Dark: "#02BF87"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#D08700", Dark: "#F5A623"}
	colorError   = lipgloss.AdaptiveColor{Light: "#E03E3E", Dark: "#FF5F5F"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}
)

// Styles holds the lipgloss styles used for text output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	ID      lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
	StatusPending lipgloss.Style
}

// NewStyles builds styles bound to a lipgloss renderer, so that color is
// only emitted when the destination supports it.
func NewStyles(re *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: re.NewStyle().Bold(true).Foreground(colorPrimary),
		Header2: re.NewStyle().Bold(true),
		Bold:    re.NewStyle().Bold(true),
		Muted:   re.NewStyle().Foreground(colorMuted),
		ID:      re.NewStyle().Foreground(colorPrimary),

		Success: re.NewStyle().Foreground(colorSuccess),
		Warning: re.NewStyle().Foreground(colorWarning),
		Error:   re.NewStyle().Foreground(colorError).Bold(true),

		StatusSuccess: re.NewStyle().Foreground(colorSuccess).SetString("✓"),
		StatusFailed:  re.NewStyle().Foreground(colorError).SetString("✗"),
		StatusPending: re.NewStyle().Foreground(colorWarning).SetString("…"),
	}
}
