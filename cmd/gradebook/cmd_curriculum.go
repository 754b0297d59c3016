package main

import (
	"fmt"
	"strings"

	"gradebook/cmd/gradebook/ui"
	"gradebook/internal/curriculum"
	"gradebook/internal/gradebook"

	"github.com/spf13/cobra"
)

// =============================================================================
// CURRICULUM COMMANDS
// =============================================================================

// curriculumCmd tracks progress against curriculum descriptors
var curriculumCmd = &cobra.Command{
	Use:     "curriculum",
	Aliases: []string{"cur"},
	Short:   "Track progress against curriculum descriptors",
	Long: `Browse the descriptor catalog and record an achievement level and note
per student and descriptor.

Levels: well-above, above, at-standard, below, well-below, not-evident, clear.`,
}

var curriculumCatalogCmd = &cobra.Command{
	Use:   "catalog [subject]",
	Short: "List subjects, or the descriptors of one subject",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCurriculumCatalog,
}

var curriculumShowCmd = &cobra.Command{
	Use:   "show <student> [subject]",
	Short: "Show a student's progress",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCurriculumShow,
}

var curriculumSetCmd = &cobra.Command{
	Use:   "set <student> <code> <level|clear>",
	Short: "Record an achievement level",
	Args:  cobra.ExactArgs(3),
	RunE:  runCurriculumSet,
}

var curriculumNoteCmd = &cobra.Command{
	Use:   "note <student> <code> [text...]",
	Short: "Set the progress note for a descriptor (no text clears it)",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCurriculumNote,
}

var curriculumSlotNoteCmd = &cobra.Command{
	Use:    "slot-note <student> <code> [text...]",
	Short:  "Set the separate descriptor note kept by older versions",
	Args:   cobra.MinimumNArgs(2),
	Hidden: true,
	RunE:   runCurriculumSlotNote,
}

var curriculumMigrateCmd = &cobra.Command{
	Use:   "migrate-notes",
	Short: "Fold separate descriptor notes into progress notes",
	Args:  cobra.NoArgs,
	RunE:  runCurriculumMigrate,
}

func runCurriculumCatalog(cmd *cobra.Command, args []string) error {
	return withApp(func(a *App) error {
		styles := ui.DefaultStyles()
		if len(args) == 0 {
			table := ui.NewTable("Curriculum subjects", "Subject", "Descriptors")
			for _, s := range a.Catalog.Subjects() {
				table.AddRow(s.Name, fmt.Sprint(len(s.Descriptors)))
			}
			fmt.Print(table.View(styles))
			return nil
		}
		subj, ok := a.Catalog.Subject(args[0])
		if !ok {
			return &gradebook.NotFoundError{Kind: "subject", ID: args[0]}
		}
		fmt.Println(styles.Title.Render(subj.Name))
		for _, d := range subj.Descriptors {
			fmt.Printf("%s  %s\n", styles.Bold.Render(d.Code), d.Text)
		}
		return nil
	})
}

func runCurriculumShow(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		st, err := resolveStudent(a.Store, args[0])
		if err != nil {
			return err
		}
		subjects := a.Catalog.Subjects()
		if len(args) == 2 {
			subj, ok := a.Catalog.Subject(args[1])
			if !ok {
				return &gradebook.NotFoundError{Kind: "subject", ID: args[1]}
			}
			subjects = []curriculum.Subject{subj}
		}

		styles := ui.DefaultStyles()
		fmt.Println(styles.Title.Render("Curriculum progress: " + st.FullName))
		for _, subj := range subjects {
			table := ui.NewTable(subj.Name, "Code", "Level", "Note")
			assessed := 0
			for _, d := range subj.Descriptors {
				e := a.Store.CurriculumProgress(st.ID, d.Code)
				if e.Status != "" {
					assessed++
				}
				table.AddRow(d.Code, styles.ProgressBadge(string(e.Status), e.Status.Label()),
					truncate(a.Store.DescriptorNote(st.ID, d.Code), 40))
			}
			fmt.Print(table.View(styles))
			fmt.Printf("%d of %d descriptors assessed\n\n", assessed, len(subj.Descriptors))
		}
		return nil
	})
}

func runCurriculumSet(cmd *cobra.Command, args []string) error {
	level := strings.ToLower(strings.TrimSpace(args[2]))
	if level == "clear" || level == "none" {
		level = ""
	}
	return withSession(func(a *App) error {
		st, err := resolveStudent(a.Store, args[0])
		if err != nil {
			return err
		}
		code := strings.TrimSpace(args[1])
		if err := a.Store.SetCurriculumStatus(st.ID, code, gradebook.Status(level)); err != nil {
			return err
		}
		if level == "" {
			fmt.Printf("✅ Cleared %s for %s\n", code, st.FullName)
			return nil
		}
		fmt.Printf("✅ %s: %s → %s\n", st.FullName, code, gradebook.Status(level).Label())
		return nil
	})
}

func runCurriculumNote(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		st, err := resolveStudent(a.Store, args[0])
		if err != nil {
			return err
		}
		if err := a.Store.SaveCurriculumNote(st.ID, args[1], joinArgs(args[2:])); err != nil {
			return err
		}
		fmt.Printf("📝 Saved note on %s for %s\n", args[1], st.FullName)
		return nil
	})
}

func runCurriculumSlotNote(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		st, err := resolveStudent(a.Store, args[0])
		if err != nil {
			return err
		}
		if err := a.Store.SetCurriculumNote(st.ID, args[1], joinArgs(args[2:])); err != nil {
			return err
		}
		fmt.Printf("📝 Saved descriptor note on %s for %s\n", args[1], st.FullName)
		return nil
	})
}

func runCurriculumMigrate(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		n, err := a.Store.MigrateDescriptorNotes()
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Println("Nothing to migrate.")
			return nil
		}
		fmt.Printf("✅ Migrated %d descriptor notes into progress notes\n", n)
		return nil
	})
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func init() {
	curriculumCmd.AddCommand(curriculumCatalogCmd, curriculumShowCmd, curriculumSetCmd,
		curriculumNoteCmd, curriculumSlotNoteCmd, curriculumMigrateCmd)
}
