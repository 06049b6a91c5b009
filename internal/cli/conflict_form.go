package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/lifelog/internal/cli/formatter"
	"github.com/alexanderramin/lifelog/internal/importer"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

func lifelogHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	// Blurred state: dimmed
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// conflictChoice is the form state for one conflict.
type conflictChoice struct {
	record     importer.ConflictRecord
	resolution string
	newName    string
}

func newConflictChoices(conflicts []importer.ConflictRecord) []*conflictChoice {
	out := make([]*conflictChoice, len(conflicts))
	for i, c := range conflicts {
		out[i] = &conflictChoice{
			record:     c,
			resolution: string(importer.ResolutionMerge),
			newName:    c.EntityName + " (imported)",
		}
	}
	return out
}

func (c *conflictChoice) Resolution() importer.ConflictResolution {
	r := importer.ConflictResolution{
		EntityName: c.record.EntityName,
		Resolution: importer.Resolution(c.resolution),
	}
	if r.Resolution == importer.ResolutionRename {
		r.NewName = strings.TrimSpace(c.newName)
	}
	return r
}

func validateHabitName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("name cannot be empty")
	}
	return nil
}

// conflictForm asks one question per conflict; the new-name input only
// shows up when rename was picked.
func conflictForm(choices []*conflictChoice) *huh.Form {
	groups := make([]*huh.Group, 0, 2*len(choices))
	for _, c := range choices {
		rec := c.record
		groups = append(groups,
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("%q already exists", rec.EntityName)).
					Description(fmt.Sprintf("Stored: %d entries since %s. Incoming: %d entries.",
						rec.Existing.TotalEntries, rec.Existing.CreatedAt.Format("2006-01-02"), rec.Incoming.EntryCount)).
					Options(
						huh.NewOption("Merge into the stored habit", string(importer.ResolutionMerge)),
						huh.NewOption("Replace (writes into the stored habit like merge)", string(importer.ResolutionReplace)),
						huh.NewOption("Skip this habit", string(importer.ResolutionSkip)),
						huh.NewOption("Import under a new name", string(importer.ResolutionRename)),
					).
					Value(&c.resolution),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("New name for "+rec.EntityName).
					Value(&c.newName).
					Validate(validateHabitName),
			).WithHideFunc(func() bool { return c.resolution != string(importer.ResolutionRename) }),
		)
	}
	return huh.NewForm(groups...).WithTheme(lifelogHuhTheme()).WithShowHelp(false)
}

func confirmForm(title string, result *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(result),
		),
	).WithTheme(lifelogHuhTheme()).WithShowHelp(false)
}
