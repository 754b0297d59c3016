package ui

import (
	"fmt"
	"os"
	"strings"

	"gradebook/internal/curriculum"
	"gradebook/internal/gradebook"

	"github.com/charmbracelet/glamour"
)

// GradeLine is one graded assessment in a student report.
type GradeLine struct {
	Assessment gradebook.Assessment
	Grade      string
}

// StudentReport is everything shown on a student's detail page.
type StudentReport struct {
	Student  gradebook.Student
	Stats    gradebook.StudentStats
	Grades   []GradeLine
	Notes    []gradebook.Note
	Progress map[string]gradebook.ProgressEntry
	Personal map[gradebook.Category][]gradebook.PersonalEntry
	Catalog  *curriculum.Catalog
}

// Markdown renders the report as a markdown document.
func (r StudentReport) Markdown() string {
	var sb strings.Builder
	st := r.Student

	fmt.Fprintf(&sb, "# %s\n\n", st.FullName)
	if st.StudentNumber != "" {
		fmt.Fprintf(&sb, "- **Student number:** %s\n", st.StudentNumber)
	}
	if st.Gender != "" {
		fmt.Fprintf(&sb, "- **Gender:** %s\n", st.Gender)
	}
	fmt.Fprintf(&sb, "- **Assessments graded:** %d\n", r.Stats.AssessmentCount)
	fmt.Fprintf(&sb, "- **Notes:** %d\n\n", r.Stats.NoteCount)

	sb.WriteString("## Assessments\n\n")
	if len(r.Grades) == 0 {
		sb.WriteString("_No grades recorded._\n\n")
	} else {
		sb.WriteString("| Date | Assessment | Subject | Grade |\n|---|---|---|---|\n")
		for _, g := range r.Grades {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
				g.Assessment.Date, escapeCell(g.Assessment.Name), escapeCell(g.Assessment.Subject), escapeCell(g.Grade))
		}
		sb.WriteString("\n")
	}

	if len(r.Progress) > 0 && r.Catalog != nil {
		sb.WriteString("## Curriculum progress\n\n")
		for _, subj := range r.Catalog.Subjects() {
			var rows []string
			for _, d := range subj.Descriptors {
				e, ok := r.Progress[d.Code]
				if !ok || e.IsZero() {
					continue
				}
				rows = append(rows, fmt.Sprintf("| %s | %s | %s |", d.Code, e.Status.Label(), escapeCell(e.Note)))
			}
			if len(rows) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "### %s\n\n| Code | Level | Note |\n|---|---|---|\n%s\n\n", subj.Name, strings.Join(rows, "\n"))
		}
	}

	sb.WriteString("## Notes\n\n")
	if len(r.Notes) == 0 {
		sb.WriteString("_No notes yet._\n\n")
	}
	for _, n := range r.Notes {
		fmt.Fprintf(&sb, "- **%s** %s\n", n.Date.Format(gradebook.DateLayout), n.Text)
	}
	sb.WriteString("\n")

	for _, c := range gradebook.Categories {
		entries := r.Personal[c]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n", titleCase(string(c)))
		for _, e := range entries {
			fmt.Fprintf(&sb, "- **%s** %s\n", e.SortTime().Format(gradebook.DateLayout), e.Text)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Render renders the report for the terminal. Output that is not a terminal gets
// the plain style.
func (r StudentReport) Render(styles Styles) (string, error) {
	return RenderMarkdown(r.Markdown(), styles)
}

// RenderMarkdown renders md with glamour.
func RenderMarkdown(md string, styles Styles) (string, error) {
	style := "light"
	switch {
	case !IsTerminal(os.Stdout):
		style = "notty"
	case styles.Theme.IsDark:
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return renderer.Render(md)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
