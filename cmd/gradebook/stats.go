package main

import (
	"fmt"

	"gradebook/cmd/gradebook/ui"

	"github.com/spf13/cobra"
)

// statsCmd shows the dashboard counts or one student's summary
var statsCmd = &cobra.Command{
	Use:   "stats [student]",
	Short: "Show overall counts, or one student's summary",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		styles := ui.DefaultStyles()
		if len(args) == 0 {
			fmt.Print(renderDashboard(a.Store.Snapshot(), styles))
			fmt.Println(styles.SyncBadge(string(a.Store.SyncStatus().Status)))
			return nil
		}

		st, err := resolveStudent(a.Store, args[0])
		if err != nil {
			return err
		}
		stats, err := a.Store.ComputeStudentStats(st.ID)
		if err != nil {
			return err
		}
		fmt.Println(styles.Title.Render(st.FullName))
		fmt.Println(styles.Rule(40))
		fmt.Printf("Assessments graded:   %d\n", stats.AssessmentCount)
		fmt.Printf("Notes:                %d\n", stats.NoteCount)
		fmt.Printf("Descriptors assessed: %d\n", stats.ProgressCount)
		fmt.Printf("Personal entries:     %d\n", stats.PersonalCount)
		return nil
	})
}
