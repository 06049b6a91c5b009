package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/lifelog/internal/cli/formatter"
	"github.com/alexanderramin/lifelog/internal/repository"
	"github.com/spf13/cobra"
)

func newHabitsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "habits",
		Aliases: []string{"habit"},
		Short:   "List and manage habits",
	}
	cmd.AddCommand(
		newHabitsListCmd(app),
		newHabitsRenameCmd(app),
		newHabitsDeleteCmd(app),
		newHabitsRecalcCmd(app),
	)
	return cmd
}

func newHabitsListCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List habits with their streaks",
		RunE: func(cmd *cobra.Command, args []string) error {
			habits, err := app.Habits.List(cmd.Context(), app.UserID)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(habits)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHabitList(habits))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print habits as JSON")
	return cmd
}

func newHabitsRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename HABIT_ID NEW_NAME",
		Short: "Rename a habit, keeping its entries and streaks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.Habits.Rename(cmd.Context(), app.UserID, args[0], args[1])
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("you already have a habit named %q", args[1])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed habit %s to %s\n", formatter.TruncID(h.ID), formatter.Bold(h.Name))
			return nil
		},
	}
}

func newHabitsDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete HABIT_ID",
		Short: "Delete a habit and all of its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !yes {
				if !app.interactive() {
					return fmt.Errorf("refusing to delete %s without --yes", id)
				}
				confirmed := false
				if err := confirmForm(fmt.Sprintf("Delete habit %s and all of its entries?", id), &confirmed).RunWithContext(cmd.Context()); err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Cancelled."))
					return nil
				}
			}

			removed, err := app.Habits.Delete(cmd.Context(), app.UserID, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted habit %s and %d entries\n", id, removed)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newHabitsRecalcCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "recalc",
		Short: "Recompute streaks for every habit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			results, err := app.Habits.RecalculateAll(ctx, app.UserID)
			if err != nil {
				return err
			}
			habits, err := app.Habits.List(ctx, app.UserID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStreakResults(habits, results))
			return nil
		},
	}
}
