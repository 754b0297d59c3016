package gradebook

import (
	"sort"
)

// FullName derives the display name stored on a student.
func FullName(firstName, lastInitial string) string {
	return firstName + " " + lastInitial + "."
}

// CreateStudent adds a student and gives it an empty note list.
func (s *Store) CreateStudent(in StudentInput) (Student, error) {
	in.normalize()
	if err := check(&in); err != nil {
		return Student{}, err
	}

	var created Student
	err := s.mutate("createStudent", true, func(st *AppState) (string, error) {
		id := s.newID()
		if st.studentIndex(id) >= 0 {
			return "", invalid("id", "generated id %s already exists", id)
		}
		created = Student{
			ID:            id,
			FirstName:     in.FirstName,
			LastInitial:   in.LastInitial,
			FullName:      FullName(in.FirstName, in.LastInitial),
			StudentNumber: in.StudentNumber,
			Gender:        in.Gender,
		}
		st.Students = append(st.Students, created)
		st.Notes[id] = []Note{}
		return id, nil
	})
	if err != nil {
		return Student{}, err
	}
	return created, nil
}

// UpdateStudent changes the non-nil fields of u and re-derives the full name.
func (s *Store) UpdateStudent(id string, u StudentUpdate) (Student, error) {
	if err := u.normalize(); err != nil {
		return Student{}, err
	}
	if err := check(&u); err != nil {
		return Student{}, err
	}

	var updated Student
	err := s.mutate("updateStudent", true, func(st *AppState) (string, error) {
		i := st.studentIndex(id)
		if i < 0 {
			return "", notFound("student", id)
		}
		stu := &st.Students[i]
		if u.FirstName != nil {
			stu.FirstName = *u.FirstName
		}
		if u.LastInitial != nil {
			stu.LastInitial = *u.LastInitial
		}
		if u.StudentNumber != nil {
			stu.StudentNumber = *u.StudentNumber
		}
		if u.Gender != nil {
			stu.Gender = *u.Gender
		}
		stu.FullName = FullName(stu.FirstName, stu.LastInitial)
		updated = *stu
		return id, nil
	})
	if err != nil {
		return Student{}, err
	}
	return updated, nil
}

// DeleteStudent removes a student and everything that refers to it: notes, personal
// entries, curriculum progress and notes, and its grade in every assessment.
func (s *Store) DeleteStudent(id string) error {
	return s.mutate("deleteStudent", true, func(st *AppState) (string, error) {
		i := st.studentIndex(id)
		if i < 0 {
			return "", notFound("student", id)
		}
		st.Students = append(st.Students[:i], st.Students[i+1:]...)
		delete(st.Notes, id)
		delete(st.PersonalEntries, id)
		delete(st.CurriculumProgress, id)
		delete(st.CurriculumNotes, id)
		for j := range st.Assessments {
			delete(st.Assessments[j].Grades, id)
		}
		if st.CurrentStudent != nil && *st.CurrentStudent == id {
			st.CurrentStudent = nil
		}
		if st.CurrentPersonalStudent != nil && *st.CurrentPersonalStudent == id {
			st.CurrentPersonalStudent = nil
		}
		return id, nil
	})
}

// Student returns one student by id.
func (s *Store) Student(id string) (Student, error) {
	var (
		out Student
		err error
	)
	s.read(func(st *AppState) {
		i := st.studentIndex(id)
		if i < 0 {
			err = notFound("student", id)
			return
		}
		out = st.Students[i]
	})
	return out, err
}

// Students returns all students ordered by full name.
func (s *Store) Students() []Student {
	var out []Student
	s.read(func(st *AppState) {
		out = append([]Student{}, st.Students...)
		s.sortStudentsLocked(out)
	})
	return out
}

// sortStudentsLocked orders by collated full name, then id. Caller holds s.mu.
func (s *Store) sortStudentsLocked(list []Student) {
	sort.SliceStable(list, func(i, j int) bool {
		if c := s.collator.CompareString(list[i].FullName, list[j].FullName); c != 0 {
			return c < 0
		}
		return list[i].ID < list[j].ID
	})
}

// SelectStudent records the student whose detail view is open.
func (s *Store) SelectStudent(id string) error {
	return s.mutate("selectStudent", false, func(st *AppState) (string, error) {
		if st.studentIndex(id) < 0 {
			return "", notFound("student", id)
		}
		if st.CurrentStudent != nil && *st.CurrentStudent == id {
			return "", errNoChange
		}
		st.CurrentStudent = &id
		return id, nil
	})
}

// CurrentStudent returns the selected student, if it still exists.
func (s *Store) CurrentStudent() (Student, bool) {
	var (
		out Student
		ok  bool
	)
	s.read(func(st *AppState) {
		if st.CurrentStudent == nil {
			return
		}
		if i := st.studentIndex(*st.CurrentStudent); i >= 0 {
			out, ok = st.Students[i], true
		}
	})
	return out, ok
}
