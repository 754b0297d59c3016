package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gradebook/cmd/gradebook/ui"
	"gradebook/internal/gradebook"
	"gradebook/internal/logging"
	"gradebook/internal/persist"

	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

// watchCmd re-renders the dashboard whenever the stored data changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the dashboard and refresh it when the data changes",
	Long: `Show the overview and redraw it whenever another gradebook command saves.
Only the file storage backend can be watched. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchDashboard(ctx)
}

// watchDashboard renders once, then on every settled change until ctx ends.
func watchDashboard(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.Backend != persist.BackendFile {
		return fmt.Errorf("watch needs the file storage backend (configured: %s)", cfg.Storage.Backend)
	}
	backend, err := persist.NewFileBackend(cfg.DataDir(workspace))
	if err != nil {
		return err
	}
	adapter := persist.NewAdapter(backend, cfg.Storage.Key)
	defer adapter.Close()

	render := func() {
		state, err := adapter.Load()
		if err != nil {
			var corrupt *gradebook.CorruptStateError
			if errors.As(err, &corrupt) {
				fmt.Fprintf(os.Stderr, "⚠ %v\n", err)
				return
			}
			logging.Get(logging.CategoryWatch).Error("reload failed: %v", err)
			return
		}
		fmt.Print(renderDashboard(state, ui.DefaultStyles()))
	}

	w, err := persist.NewWatcher(backend.Path(adapter.Key()), watchDebounce, render)
	if err != nil {
		return err
	}
	render()
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Println("Watching for changes (Ctrl+C to stop)...")
	<-ctx.Done()
	fmt.Printf("\nStopped after %d refreshes.\n", w.Triggered())
	return nil
}

// renderDashboard draws the overview of a loaded state.
func renderDashboard(state *gradebook.AppState, styles ui.Styles) string {
	store, err := gradebook.NewStore(state, gradebook.Options{Persister: discardPersister{}})
	if err != nil {
		return err.Error() + "\n"
	}
	defer store.Close()

	ov := store.Overview()
	out := styles.Title.Render("Gradebook · "+time.Now().Format("15:04:05")) + "\n"
	out += styles.Rule(50) + "\n"
	out += fmt.Sprintf("Students: %d   Assessments: %d   Grades: %d   Notes: %d\n",
		ov.Students, ov.Assessments, ov.Grades, ov.Notes)

	recent := store.Assessments()
	if len(recent) > 5 {
		recent = recent[:5]
	}
	table := ui.NewTable("Recent assessments", "Date", "Name", "Completion")
	for _, as := range recent {
		c, err := store.ComputeCompletion(as.ID)
		if err != nil {
			continue
		}
		table.AddRow(as.Date, as.Name, fmt.Sprintf("%d/%d (%d%%)", c.Recorded, c.Total, c.Percent))
	}
	out += table.View(styles)
	return out
}

// discardPersister backs read-only stores built for rendering.
type discardPersister struct{}

func (discardPersister) Save(*gradebook.AppState) error { return nil }

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 250*time.Millisecond, "Wait this long for writes to settle")
}
