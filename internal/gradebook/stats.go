package gradebook

import "math"

// StudentStats summarizes one student.
type StudentStats struct {
	AssessmentCount int `json:"assessmentCount"`
	NoteCount       int `json:"noteCount"`
	PersonalCount   int `json:"personalCount"`
	ProgressCount   int `json:"progressCount"`
}

// Completion is how many current students have a grade for an assessment.
type Completion struct {
	Recorded int `json:"recorded"`
	Total    int `json:"total"`
	Percent  int `json:"percent"`
}

// Overview is the dashboard summary.
type Overview struct {
	Students    int `json:"students"`
	Assessments int `json:"assessments"`
	Notes       int `json:"notes"`
	Grades      int `json:"grades"`
}

// ComputeStudentStats counts the assessments graded for the student and their notes.
func (s *Store) ComputeStudentStats(studentID string) (StudentStats, error) {
	var (
		out StudentStats
		err error
	)
	s.read(func(st *AppState) {
		if st.studentIndex(studentID) < 0 {
			err = notFound("student", studentID)
			return
		}
		for _, a := range st.Assessments {
			if _, ok := a.Grades[studentID]; ok {
				out.AssessmentCount++
			}
		}
		out.NoteCount = len(st.Notes[studentID])
		out.PersonalCount = st.PersonalEntries[studentID].Len()
		for _, e := range st.CurriculumProgress[studentID] {
			if e.Status != "" {
				out.ProgressCount++
			}
		}
	})
	return out, err
}

// ComputeCompletion reports grading progress. With no students the result is all zero.
func (s *Store) ComputeCompletion(assessmentID string) (Completion, error) {
	var (
		out Completion
		err error
	)
	s.read(func(st *AppState) {
		i := st.assessmentIndex(assessmentID)
		if i < 0 {
			err = notFound("assessment", assessmentID)
			return
		}
		out = completion(st, st.Assessments[i])
	})
	return out, err
}

// completion counts only grades of students that still exist.
func completion(st *AppState, a Assessment) Completion {
	c := Completion{Total: len(st.Students)}
	for _, stu := range st.Students {
		if _, ok := a.Grades[stu.ID]; ok {
			c.Recorded++
		}
	}
	if c.Total > 0 {
		c.Percent = int(math.Round(float64(c.Recorded) / float64(c.Total) * 100))
	}
	return c
}

// Overview counts the top-level collections.
func (s *Store) Overview() Overview {
	var out Overview
	s.read(func(st *AppState) {
		out.Students = len(st.Students)
		out.Assessments = len(st.Assessments)
		for _, list := range st.Notes {
			out.Notes += len(list)
		}
		for _, a := range st.Assessments {
			out.Grades += len(a.Grades)
		}
	})
	return out
}
