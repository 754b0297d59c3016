package main

import (
	"fmt"
	"strings"
	"time"

	"gradebook/cmd/gradebook/ui"
	"gradebook/internal/gradebook"

	"github.com/spf13/cobra"
)

// =============================================================================
// ASSESSMENT COMMANDS
// =============================================================================

var (
	assessSubject string
	assessDate    string
	assessFormat  string
)

// assessmentCmd manages assessments and grades
var assessmentCmd = &cobra.Command{
	Use:     "assessment",
	Aliases: []string{"assessments", "as"},
	Short:   "Manage assessments and record grades",
	RunE:    runAssessmentList,
}

var assessmentAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create an assessment",
	Long: `Create an assessment. The date defaults to today.

Grade formats: percentage (default), letter, rubric, achieved, custom.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAssessmentAdd,
}

var assessmentRmCmd = &cobra.Command{
	Use:     "rm <assessment-id>",
	Aliases: []string{"delete"},
	Short:   "Delete an assessment and its grades",
	Args:    cobra.ExactArgs(1),
	RunE:    runAssessmentRm,
}

var assessmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assessments, newest first",
	Args:  cobra.NoArgs,
	RunE:  runAssessmentList,
}

var assessmentGradeCmd = &cobra.Command{
	Use:   "grade <assessment-id> <student>=<grade>...",
	Short: "Record grades",
	Long: `Record one or more grades in a single save, for example:

  gradebook assessment grade 0190a2c4 "Amy B.=85" Zoe=72

A blank grade leaves the student's existing grade unchanged.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAssessmentGrade,
}

var assessmentResultsCmd = &cobra.Command{
	Use:   "results <assessment-id>",
	Short: "Show every student's grade for an assessment",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssessmentResults,
}

func runAssessmentAdd(cmd *cobra.Command, args []string) error {
	date := assessDate
	if date == "" {
		date = time.Now().Format(gradebook.DateLayout)
	}
	return withSession(func(a *App) error {
		as, err := a.Store.CreateAssessment(gradebook.AssessmentInput{
			Name:        joinArgs(args),
			Subject:     assessSubject,
			Date:        date,
			GradeFormat: gradebook.GradeFormat(assessFormat),
		})
		if err != nil {
			return err
		}
		fmt.Printf("✅ Created %q on %s (%s, id %s)\n", as.Name, as.Date, as.GradeFormat, as.ID)
		fmt.Printf("   e.g. grade: %s\n", as.GradeFormat.Example())
		return nil
	})
}

func runAssessmentRm(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		as, err := a.Store.Assessment(args[0])
		if err != nil {
			return err
		}
		if err := a.Store.DeleteAssessment(as.ID); err != nil {
			return err
		}
		fmt.Printf("🗑  Deleted %q\n", as.Name)
		return nil
	})
}

func runAssessmentList(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		list := a.Store.Assessments()
		if len(list) == 0 {
			fmt.Println("No assessments yet. Create one with: gradebook assessment add <name>")
			return nil
		}
		table := ui.NewTable("Assessments", "Date", "Name", "Subject", "Format", "Completion", "ID")
		for _, as := range list {
			c, err := a.Store.ComputeCompletion(as.ID)
			if err != nil {
				return err
			}
			table.AddRow(as.Date, as.Name, as.Subject, string(as.GradeFormat),
				fmt.Sprintf("%d/%d (%d%%)", c.Recorded, c.Total, c.Percent), as.ID)
		}
		fmt.Print(table.View(ui.DefaultStyles()))
		return nil
	})
}

func runAssessmentGrade(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		as, err := a.Store.Assessment(args[0])
		if err != nil {
			return err
		}
		grades := make(map[string]string, len(args)-1)
		names := make(map[string]string, len(args)-1)
		for _, pair := range args[1:] {
			ref, grade, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("expected <student>=<grade>, got %q", pair)
			}
			st, err := resolveStudent(a.Store, ref)
			if err != nil {
				return err
			}
			grades[st.ID] = grade
			names[st.ID] = st.FullName
		}
		if err := a.Store.RecordGrades(as.ID, grades); err != nil {
			return err
		}
		for id, g := range grades {
			if strings.TrimSpace(g) == "" {
				fmt.Printf("   %s: unchanged\n", names[id])
				continue
			}
			fmt.Printf("✅ %s: %s\n", names[id], strings.TrimSpace(g))
		}
		return nil
	})
}

func runAssessmentResults(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		as, err := a.Store.Assessment(args[0])
		if err != nil {
			return err
		}
		rows, c, err := a.Store.AssessmentResults(as.ID)
		if err != nil {
			return err
		}
		styles := ui.DefaultStyles()
		fmt.Println(styles.Title.Render(as.Name))
		fmt.Println(styles.Subtitle.Render(fmt.Sprintf("%s · %s · %s", as.Date, orDash(as.Subject), as.GradeFormat)))
		if len(rows) == 0 {
			fmt.Println("No students yet.")
			return nil
		}
		table := ui.NewTable("", "Student", "Grade")
		for _, r := range rows {
			grade := r.Grade
			if !r.Recorded {
				grade = styles.Muted.Render("Not recorded")
			}
			table.AddRow(r.Student.FullName, grade)
		}
		fmt.Print(table.View(styles))
		fmt.Printf("Completion: %d/%d (%d%%)\n", c.Recorded, c.Total, c.Percent)
		return nil
	})
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func init() {
	assessmentAddCmd.Flags().StringVar(&assessSubject, "subject", "", "Subject")
	assessmentAddCmd.Flags().StringVar(&assessDate, "date", "", "Date as YYYY-MM-DD (default today)")
	assessmentAddCmd.Flags().StringVar(&assessFormat, "format", "percentage", "Grade format: percentage, letter, rubric, achieved, custom")

	assessmentCmd.AddCommand(assessmentAddCmd, assessmentRmCmd, assessmentListCmd, assessmentGradeCmd, assessmentResultsCmd)
}
