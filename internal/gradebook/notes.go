package gradebook

import "strings"

// AddNote puts a note at the front of the student's list.
func (s *Store) AddNote(studentID, text string) (Note, error) {
	in := textInput{Text: strings.TrimSpace(text)}
	if err := check(&in); err != nil {
		return Note{}, err
	}

	var created Note
	err := s.mutate("addNote", true, func(st *AppState) (string, error) {
		if st.studentIndex(studentID) < 0 {
			return "", notFound("student", studentID)
		}
		created = Note{ID: s.newID(), Text: in.Text, Date: s.timestamp()}
		st.Notes[studentID] = append([]Note{created}, st.Notes[studentID]...)
		return created.ID, nil
	})
	if err != nil {
		return Note{}, err
	}
	return created, nil
}

// Notes returns the student's notes, newest first.
func (s *Store) Notes(studentID string) ([]Note, error) {
	var (
		out []Note
		err error
	)
	s.read(func(st *AppState) {
		if st.studentIndex(studentID) < 0 {
			err = notFound("student", studentID)
			return
		}
		out = append([]Note{}, st.Notes[studentID]...)
	})
	return out, err
}
