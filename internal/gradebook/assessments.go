package gradebook

import (
	"sort"
	"strings"
)

// ResultRow is one student's line in an assessment's results table.
type ResultRow struct {
	Student  Student
	Grade    string
	Recorded bool
}

// CreateAssessment adds an assessment with no grades.
func (s *Store) CreateAssessment(in AssessmentInput) (Assessment, error) {
	in.normalize()
	if err := check(&in); err != nil {
		return Assessment{}, err
	}

	var created Assessment
	err := s.mutate("createAssessment", true, func(st *AppState) (string, error) {
		id := s.newID()
		if st.assessmentIndex(id) >= 0 {
			return "", invalid("id", "generated id %s already exists", id)
		}
		created = Assessment{
			ID:          id,
			Name:        in.Name,
			Subject:     in.Subject,
			Date:        in.Date,
			GradeFormat: in.GradeFormat,
			Grades:      map[string]string{},
		}
		st.Assessments = append(st.Assessments, created)
		created.Grades = map[string]string{}
		return id, nil
	})
	if err != nil {
		return Assessment{}, err
	}
	return created, nil
}

// DeleteAssessment removes an assessment and its grades.
func (s *Store) DeleteAssessment(id string) error {
	return s.mutate("deleteAssessment", true, func(st *AppState) (string, error) {
		i := st.assessmentIndex(id)
		if i < 0 {
			return "", notFound("assessment", id)
		}
		st.Assessments = append(st.Assessments[:i], st.Assessments[i+1:]...)
		return id, nil
	})
}

// Assessment returns one assessment by id.
func (s *Store) Assessment(id string) (Assessment, error) {
	var (
		out Assessment
		err error
	)
	s.read(func(st *AppState) {
		i := st.assessmentIndex(id)
		if i < 0 {
			err = notFound("assessment", id)
			return
		}
		out = st.Assessments[i]
		out.Grades = cloneStringMap(out.Grades)
	})
	return out, err
}

// Assessments returns all assessments, newest date first.
func (s *Store) Assessments() []Assessment {
	var out []Assessment
	s.read(func(st *AppState) {
		out = cloneAssessments(st.Assessments)
	})
	sortAssessments(out)
	return out
}

// StudentAssessments returns the assessments holding a grade for the student.
func (s *Store) StudentAssessments(studentID string) ([]Assessment, error) {
	var (
		out []Assessment
		err error
	)
	s.read(func(st *AppState) {
		if st.studentIndex(studentID) < 0 {
			err = notFound("student", studentID)
			return
		}
		out = []Assessment{}
		for _, a := range st.Assessments {
			if _, ok := a.Grades[studentID]; ok {
				a.Grades = cloneStringMap(a.Grades)
				out = append(out, a)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	sortAssessments(out)
	return out, nil
}

func cloneAssessments(list []Assessment) []Assessment {
	out := make([]Assessment, len(list))
	for i, a := range list {
		a.Grades = cloneStringMap(a.Grades)
		out[i] = a
	}
	return out
}

// sortAssessments orders by date descending. Dates are YYYY-MM-DD so they sort as strings.
func sortAssessments(list []Assessment) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date > list[j].Date
	})
}

// RecordGrade stores a grade. Blank text records nothing and keeps any prior grade.
func (s *Store) RecordGrade(assessmentID, studentID, text string) error {
	return s.RecordGrades(assessmentID, map[string]string{studentID: text})
}

// RecordGrades stores several grades for one assessment with a single save.
// Blank entries are skipped. Every student id must exist.
func (s *Store) RecordGrades(assessmentID string, grades map[string]string) error {
	return s.mutate("recordGrades", true, func(st *AppState) (string, error) {
		i := st.assessmentIndex(assessmentID)
		if i < 0 {
			return "", notFound("assessment", assessmentID)
		}
		a := &st.Assessments[i]
		if a.Grades == nil {
			a.Grades = map[string]string{}
		}
		changed := false
		for sid, text := range grades {
			if st.studentIndex(sid) < 0 {
				return "", notFound("student", sid)
			}
			text = strings.TrimSpace(text)
			if text == "" || a.Grades[sid] == text {
				continue
			}
			a.Grades[sid] = text
			changed = true
		}
		if !changed {
			return "", errNoChange
		}
		return assessmentID, nil
	})
}

// AssessmentResults lists every current student with their grade, ordered by name.
func (s *Store) AssessmentResults(assessmentID string) ([]ResultRow, Completion, error) {
	var (
		rows []ResultRow
		comp Completion
		err  error
	)
	s.read(func(st *AppState) {
		i := st.assessmentIndex(assessmentID)
		if i < 0 {
			err = notFound("assessment", assessmentID)
			return
		}
		a := st.Assessments[i]
		students := append([]Student{}, st.Students...)
		s.sortStudentsLocked(students)
		rows = make([]ResultRow, 0, len(students))
		for _, stu := range students {
			g, ok := a.Grades[stu.ID]
			rows = append(rows, ResultRow{Student: stu, Grade: g, Recorded: ok})
		}
		comp = completion(st, a)
	})
	return rows, comp, err
}
