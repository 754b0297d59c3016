package main

import (
	"fmt"
	"strings"

	"gradebook/cmd/gradebook/ui"
	"gradebook/internal/gradebook"

	"github.com/spf13/cobra"
)

// =============================================================================
// STUDENT COMMANDS
// =============================================================================

var (
	studentNumber string
	studentGender string
	editFirst     string
	editInitial   string
	editNumber    string
	editGender    string
)

// studentCmd manages the class list
var studentCmd = &cobra.Command{
	Use:     "student",
	Aliases: []string{"students"},
	Short:   "Manage students",
	Long: `Add, edit, remove and inspect students.

A student is referred to by id, full name ("Amy B.") or a unique first name.`,
	RunE: runStudentList,
}

var studentAddCmd = &cobra.Command{
	Use:   "add <first-name> <last-initial>",
	Short: "Add a student",
	Args:  cobra.ExactArgs(2),
	RunE:  runStudentAdd,
}

var studentEditCmd = &cobra.Command{
	Use:   "edit <student>",
	Short: "Change a student's details",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentEdit,
}

var studentRmCmd = &cobra.Command{
	Use:     "rm <student>",
	Aliases: []string{"delete"},
	Short:   "Delete a student and everything recorded for them",
	Args:    cobra.ExactArgs(1),
	RunE:    runStudentRm,
}

var studentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List students",
	Args:  cobra.NoArgs,
	RunE:  runStudentList,
}

var studentShowCmd = &cobra.Command{
	Use:   "show [student]",
	Short: "Show a student's report",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStudentShow,
}

var studentUseCmd = &cobra.Command{
	Use:   "use <student>",
	Short: "Select the current student",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentUse,
}

func runStudentAdd(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		st, err := a.Store.CreateStudent(gradebook.StudentInput{
			FirstName:     args[0],
			LastInitial:   args[1],
			StudentNumber: studentNumber,
			Gender:        studentGender,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✅ Added %s (id %s)\n", st.FullName, st.ID)
		return nil
	})
}

func runStudentEdit(cmd *cobra.Command, args []string) error {
	var u gradebook.StudentUpdate
	flags := cmd.Flags()
	if flags.Changed("first") {
		u.FirstName = &editFirst
	}
	if flags.Changed("initial") {
		u.LastInitial = &editInitial
	}
	if flags.Changed("number") {
		u.StudentNumber = &editNumber
	}
	if flags.Changed("gender") {
		u.Gender = &editGender
	}

	return withSession(func(a *App) error {
		cur, err := resolveStudent(a.Store, args[0])
		if err != nil {
			return err
		}
		st, err := a.Store.UpdateStudent(cur.ID, u)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Updated %s\n", st.FullName)
		return nil
	})
}

func runStudentRm(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		st, err := resolveStudent(a.Store, args[0])
		if err != nil {
			return err
		}
		if err := a.Store.DeleteStudent(st.ID); err != nil {
			return err
		}
		fmt.Printf("🗑  Deleted %s\n", st.FullName)
		return nil
	})
}

func runStudentList(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		students := a.Store.Students()
		if len(students) == 0 {
			fmt.Println("No students yet. Add one with: gradebook student add <first-name> <last-initial>")
			return nil
		}

		styles := ui.DefaultStyles()
		current, _ := a.Store.CurrentStudent()
		table := ui.NewTable("Students", "", "Name", "Number", "Gender", "Graded", "Notes", "ID")
		for _, st := range students {
			stats, err := a.Store.ComputeStudentStats(st.ID)
			if err != nil {
				return err
			}
			marker := ""
			if st.ID == current.ID {
				marker = "▸"
			}
			table.AddRow(marker, st.FullName, st.StudentNumber, st.Gender,
				fmt.Sprint(stats.AssessmentCount), fmt.Sprint(stats.NoteCount), st.ID)
		}
		fmt.Print(table.View(styles))
		fmt.Printf("Total: %d students\n", len(students))
		return nil
	})
}

func runStudentShow(cmd *cobra.Command, args []string) error {
	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}
	return withSession(func(a *App) error {
		st, err := resolveStudent(a.Store, ref)
		if err != nil {
			return err
		}
		report, err := buildReport(a, st)
		if err != nil {
			return err
		}
		out, err := report.Render(ui.DefaultStyles())
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	})
}

func buildReport(a *App, st gradebook.Student) (ui.StudentReport, error) {
	stats, err := a.Store.ComputeStudentStats(st.ID)
	if err != nil {
		return ui.StudentReport{}, err
	}
	graded, err := a.Store.StudentAssessments(st.ID)
	if err != nil {
		return ui.StudentReport{}, err
	}
	notes, err := a.Store.Notes(st.ID)
	if err != nil {
		return ui.StudentReport{}, err
	}

	report := ui.StudentReport{
		Student:  st,
		Stats:    stats,
		Notes:    notes,
		Progress: make(map[string]gradebook.ProgressEntry),
		Personal: make(map[gradebook.Category][]gradebook.PersonalEntry),
		Catalog:  a.Catalog,
	}
	for _, as := range graded {
		report.Grades = append(report.Grades, ui.GradeLine{Assessment: as, Grade: as.Grades[st.ID]})
	}
	progress := a.Store.StudentProgress(st.ID)
	for _, subj := range a.Catalog.Subjects() {
		for _, d := range subj.Descriptors {
			e := progress[d.Code]
			e.Note = a.Store.DescriptorNote(st.ID, d.Code)
			if !e.IsZero() {
				report.Progress[d.Code] = e
			}
		}
	}
	for _, c := range gradebook.Categories {
		entries, err := a.Store.PersonalEntries(st.ID, c)
		if err != nil {
			return ui.StudentReport{}, err
		}
		report.Personal[c] = entries
	}
	return report, nil
}

func runStudentUse(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		st, err := resolveStudent(a.Store, args[0])
		if err != nil {
			return err
		}
		if err := a.Store.SelectStudent(st.ID); err != nil {
			return err
		}
		fmt.Printf("▸ Current student: %s\n", st.FullName)
		return nil
	})
}

// joinArgs joins free-text arguments back into one string.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func init() {
	studentAddCmd.Flags().StringVar(&studentNumber, "number", "", "Student number")
	studentAddCmd.Flags().StringVar(&studentGender, "gender", "", "Gender")

	studentEditCmd.Flags().StringVar(&editFirst, "first", "", "New first name")
	studentEditCmd.Flags().StringVar(&editInitial, "initial", "", "New last initial")
	studentEditCmd.Flags().StringVar(&editNumber, "number", "", "New student number")
	studentEditCmd.Flags().StringVar(&editGender, "gender", "", "New gender")

	studentCmd.AddCommand(studentAddCmd, studentEditCmd, studentRmCmd, studentListCmd, studentShowCmd, studentUseCmd)
}
