package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/lifelog/internal/importer"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderBar renders a bar like [████░░░░] 45%. Completion rates use it too,
// so the color tracks the value: green above 66%, yellow from 33%.
func RenderBar(pct float64, width int) string {
	pct = min(max(pct, 0), 1)
	width = max(width, 2)

	filled := min(int(pct*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	if pct < 0.33 {
		style = StyleRed
	} else if pct < 0.66 {
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), pct*100)
}

// ProgressLine renders one import progress event for non-interactive output.
func ProgressLine(p importer.Progress) string {
	return fmt.Sprintf("%s %s %s",
		StyleDim.Render(fmt.Sprintf("[%3d%%]", p.Percent)),
		StyleBlue.Render(StageLabel(p.Stage)),
		p.Message)
}

// StageLabel is the human name of a pipeline stage.
func StageLabel(s importer.Stage) string {
	switch s {
	case importer.StageValidation:
		return "Validating"
	case importer.StageParsing:
		return "Parsing"
	case importer.StageConflictResolution:
		return "Checking conflicts"
	case importer.StageImporting:
		return "Importing"
	case importer.StageCalculatingStreaks:
		return "Calculating streaks"
	case importer.StageComplete:
		return "Done"
	default:
		return string(s)
	}
}
