package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/alexanderramin/lifelog/internal/api"
	"github.com/alexanderramin/lifelog/internal/cli/formatter"
	"github.com/alexanderramin/lifelog/internal/importer"
	"github.com/alexanderramin/lifelog/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// ErrUnresolvedConflicts is returned when an import stops on conflicts that
// could not be decided on the command line.
var ErrUnresolvedConflicts = errors.New("import stopped on unresolved conflicts")

type importOptions struct {
	habits     string
	checkmarks string
	scores     string
	dir        string
	mappings   map[string]string
	resolve    resolutionFlag
	mergeAll   bool
	ndjson     bool
	noInput    bool
}

func (o *importOptions) request(userID string) (service.ImportRequest, error) {
	req := service.ImportRequest{Request: importer.Request{
		UserID:         userID,
		FolderMappings: o.mappings,
		Resolutions:    o.resolve.values,
		MergeAll:       o.mergeAll,
	}}

	if o.dir != "" {
		files, habitFiles, err := loadExportDir(o.dir)
		if err != nil {
			return req, err
		}
		req.Files, req.HabitFiles = files, habitFiles
	}

	// Explicit paths override what the directory provided.
	for _, f := range []struct {
		path string
		dst  *string
	}{
		{o.habits, &req.Files.Habits},
		{o.checkmarks, &req.Files.Checkmarks},
		{o.scores, &req.Files.Scores},
	} {
		if f.path == "" {
			continue
		}
		text, err := readRequired(f.path)
		if err != nil {
			return req, err
		}
		*f.dst = text
	}

	if o.dir == "" && o.checkmarks == "" {
		return req, errors.New("pass --dir with an unzipped export, or --habits and --checkmarks")
	}
	return req, nil
}

func newImportCmd(app *App) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a habit-tracker CSV export",
		Long: `Import habits, daily checkmarks and scores from a habit-tracker export.

When an imported habit already exists you are asked what to do with it.
Decide up front with --resolve, or merge everything with --merge-all.`,
		Example: `  lifelog import --dir ~/Downloads/export
  lifelog import --habits Habits.csv --checkmarks Checkmarks.csv --scores Scores.csv
  lifelog import --dir export --resolve "Meditate=rename:Morning Meditate" --resolve Read=skip`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(app.UserID)
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), cmd, app, opts, req)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.habits, "habits", "", "Path to Habits.csv")
	f.StringVar(&opts.checkmarks, "checkmarks", "", "Path to Checkmarks.csv")
	f.StringVar(&opts.scores, "scores", "", "Path to Scores.csv")
	f.StringVar(&opts.dir, "dir", "", "Unzipped export directory, including per-habit folders")
	f.StringToStringVar(&opts.mappings, "map", nil, "Confirm a per-habit folder as a habit: FOLDER=NAME")
	f.Var(&opts.resolve, "resolve", "Decide a conflict: NAME=merge|replace|skip|rename:NEW (repeatable)")
	f.BoolVar(&opts.mergeAll, "merge-all", false, "Merge every conflicting habit into the stored one")
	f.BoolVar(&opts.ndjson, "ndjson", false, "Stream progress events as JSON lines")
	f.BoolVar(&opts.noInput, "no-input", false, "Never prompt; fail on unresolved conflicts")

	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, app *App, opts *importOptions, req service.ImportRequest) error {
	out := cmd.OutOrStdout()
	interactive := !opts.ndjson && !opts.noInput && app.interactive()

	if opts.ndjson {
		return importNDJSON(ctx, out, app, req)
	}

	for {
		var (
			res *service.ImportOutcome
			err error
		)
		if interactive {
			res, err = importWithProgressView(ctx, cmd, app, req)
		} else {
			res, err = app.Imports.Import(ctx, req, func(p importer.Progress) {
				fmt.Fprintln(cmd.ErrOrStderr(), formatter.ProgressLine(p))
			})
		}
		if err != nil {
			return err
		}

		if res.Outcome == importer.OutcomeComplete {
			fmt.Fprintln(out, formatter.FormatImportSummary(res.Summary))
			if !res.Summary.Success {
				return errors.New("import failed")
			}
			return nil
		}

		fmt.Fprintln(out, formatter.FormatConflicts(res.Conflicts))
		if !interactive {
			return fmt.Errorf("%w: rerun with --resolve NAME=merge|replace|skip|rename:NEW for each habit, or --merge-all", ErrUnresolvedConflicts)
		}

		choices := newConflictChoices(res.Conflicts)
		if err := conflictForm(choices).RunWithContext(ctx); err != nil {
			return fmt.Errorf("resolving conflicts: %w", err)
		}
		req.Resolutions = nil
		for _, c := range choices {
			req.Resolutions = append(req.Resolutions, c.Resolution())
		}
		req.SessionID = res.SessionID
	}
}

// importWithProgressView runs the import while a bubbletea program renders
// its progress on stderr.
func importWithProgressView(ctx context.Context, cmd *cobra.Command, app *App, req service.ImportRequest) (*service.ImportOutcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(cancel), tea.WithContext(ctx), tea.WithOutput(cmd.ErrOrStderr()))
	go func() {
		out, err := app.Imports.Import(ctx, req, func(pr importer.Progress) {
			p.Send(progressMsg(pr))
		})
		p.Send(importDoneMsg{out: out, err: err})
	}()

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, fmt.Errorf("running progress view: %w", err)
	}
	m, ok := final.(progressModel)
	if !ok || !m.done {
		return nil, errInterrupted
	}
	return m.out, m.err
}

// importNDJSON writes the same event stream the HTTP endpoint serves.
func importNDJSON(ctx context.Context, w io.Writer, app *App, req service.ImportRequest) error {
	enc := json.NewEncoder(w)
	res, err := app.Imports.Import(ctx, req, func(p importer.Progress) {
		_ = enc.Encode(api.Event{Type: api.EventProgress, Progress: &p})
	})
	if err != nil {
		_ = enc.Encode(api.Event{Type: api.EventError, Message: err.Error()})
		return err
	}
	if res.Outcome == importer.OutcomeConflicts {
		_ = enc.Encode(api.Event{Type: api.EventConflicts, Conflicts: res.Conflicts, SessionID: res.SessionID})
		return ErrUnresolvedConflicts
	}
	if err := enc.Encode(api.Event{Type: api.EventComplete, Summary: res.Summary}); err != nil {
		return err
	}
	if !res.Summary.Success {
		return errors.New("import failed")
	}
	return nil
}
