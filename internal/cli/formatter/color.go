package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/alexanderramin/lifelog/internal/importer"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// SeverityBadge renders an issue severity as a colored marker.
func SeverityBadge(s importer.Severity) string {
	switch s {
	case importer.SeverityError:
		return StyleRed.Render("✖ error")
	case importer.SeverityWarning:
		return StyleYellow.Render("▲ warning")
	default:
		return StyleDim.Render(string(s))
	}
}

// PolarityBadge labels what a habit's completions count toward.
func PolarityBadge(p domain.Polarity) string {
	switch p {
	case domain.PolarityPositive:
		return StyleGreen.Render("+ build")
	case domain.PolarityNegative:
		return StylePurple.Render("- avoid")
	case domain.PolarityCessation:
		return StyleRed.Render("× quit")
	default:
		return StyleDim.Render(string(p))
	}
}

// StreakStyle colors a streak length: long streaks green, fresh ones dim.
func StreakStyle(days int) lipgloss.Style {
	switch {
	case days >= 30:
		return StyleGreen
	case days >= 7:
		return StyleBlue
	case days > 0:
		return StyleFg
	default:
		return StyleDim
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
