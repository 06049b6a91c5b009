package cli

import (
	"log/slog"
	"net/http"

	"github.com/alexanderramin/lifelog/internal/service"
	"github.com/spf13/cobra"
)

// App holds what CLI commands need from the wired application.
type App struct {
	Imports service.ImportService
	Habits  service.HabitService

	// Handler and Addr back `lifelog serve`.
	Handler http.Handler
	Addr    string

	// UserID owns data touched from the command line.
	UserID string

	// IsInteractive reports whether stdin is a terminal; nil means never.
	IsInteractive func() bool

	Logger *slog.Logger
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// NewRootCmd creates the top-level "lifelog" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "lifelog",
		Short:         "Habit tracker with bulk import from habit-tracker CSV exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&app.UserID, "user", app.UserID, "User the command acts for")

	root.AddCommand(
		newImportCmd(app),
		newHabitsCmd(app),
		newServeCmd(app),
	)
	return root
}
