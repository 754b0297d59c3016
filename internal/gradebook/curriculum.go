package gradebook

import (
	"sort"
	"strings"
)

func (s *Store) checkCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", invalid("code", "is required")
	}
	if s.catalog != nil && !s.catalog.Has(code) {
		return "", invalid("code", "%s is not in the curriculum catalog", code)
	}
	return code, nil
}

// SetCurriculumStatus records a level for (student, code). The empty status deletes the
// whole entry; otherwise any existing note is kept.
func (s *Store) SetCurriculumStatus(studentID, code string, status Status) error {
	code, err := s.checkCode(code)
	if err != nil {
		return err
	}
	in := statusInput{Status: Status(strings.TrimSpace(string(status)))}
	if err := check(&in); err != nil {
		return err
	}

	return s.mutate("setCurriculumStatus", true, func(st *AppState) (string, error) {
		if st.studentIndex(studentID) < 0 {
			return "", notFound("student", studentID)
		}
		entries := st.CurriculumProgress[studentID]
		if in.Status == "" {
			if _, ok := entries[code]; !ok {
				return "", errNoChange
			}
			delete(entries, code)
			if len(entries) == 0 {
				delete(st.CurriculumProgress, studentID)
			}
			return code, nil
		}
		if entries == nil {
			entries = map[string]ProgressEntry{}
			st.CurriculumProgress[studentID] = entries
		}
		prev := entries[code]
		if prev.Status == in.Status {
			return "", errNoChange
		}
		entries[code] = ProgressEntry{Status: in.Status, Note: prev.Note}
		return code, nil
	})
}

// CurriculumProgress returns the entry for (student, code), or the zero entry.
func (s *Store) CurriculumProgress(studentID, code string) ProgressEntry {
	var out ProgressEntry
	s.read(func(st *AppState) {
		out = st.CurriculumProgress[studentID][code]
	})
	return out
}

// StudentProgress returns every progress entry of a student keyed by code.
func (s *Store) StudentProgress(studentID string) map[string]ProgressEntry {
	out := map[string]ProgressEntry{}
	s.read(func(st *AppState) {
		for code, e := range st.CurriculumProgress[studentID] {
			out[code] = e
		}
	})
	return out
}

// SaveCurriculumNote writes the note held on the progress entry, keeping its status.
// An entry left with neither status nor note is removed.
func (s *Store) SaveCurriculumNote(studentID, code, note string) error {
	code, err := s.checkCode(code)
	if err != nil {
		return err
	}
	note = strings.TrimSpace(note)

	return s.mutate("saveCurriculumNote", true, func(st *AppState) (string, error) {
		if st.studentIndex(studentID) < 0 {
			return "", notFound("student", studentID)
		}
		entries := st.CurriculumProgress[studentID]
		prev, exists := entries[code]
		next := ProgressEntry{Status: prev.Status, Note: note}
		switch {
		case next.IsZero() && !exists:
			return "", errNoChange
		case next.IsZero():
			delete(entries, code)
			if len(entries) == 0 {
				delete(st.CurriculumProgress, studentID)
			}
			return code, nil
		case exists && prev.Note == note && !prev.legacy:
			return "", errNoChange
		}
		if entries == nil {
			entries = map[string]ProgressEntry{}
			st.CurriculumProgress[studentID] = entries
		}
		entries[code] = next
		return code, nil
	})
}

// SetCurriculumNote writes the separate per-descriptor note slot. Blank text deletes it.
func (s *Store) SetCurriculumNote(studentID, code, note string) error {
	code, err := s.checkCode(code)
	if err != nil {
		return err
	}
	note = strings.TrimSpace(note)

	return s.mutate("setCurriculumNote", true, func(st *AppState) (string, error) {
		if st.studentIndex(studentID) < 0 {
			return "", notFound("student", studentID)
		}
		notes := st.CurriculumNotes[studentID]
		if note == "" {
			if _, ok := notes[code]; !ok {
				return "", errNoChange
			}
			delete(notes, code)
			if len(notes) == 0 {
				delete(st.CurriculumNotes, studentID)
			}
			return code, nil
		}
		if notes == nil {
			notes = map[string]string{}
			st.CurriculumNotes[studentID] = notes
		}
		if notes[code] == note {
			return "", errNoChange
		}
		notes[code] = note
		return code, nil
	})
}

// CurriculumNote reads the separate per-descriptor note slot.
func (s *Store) CurriculumNote(studentID, code string) string {
	var out string
	s.read(func(st *AppState) {
		out = st.CurriculumNotes[studentID][code]
	})
	return out
}

// DescriptorNote is the note to show for (student, code): the progress entry's note,
// falling back to the separate slot until MigrateDescriptorNotes has run.
func (s *Store) DescriptorNote(studentID, code string) string {
	var out string
	s.read(func(st *AppState) {
		out = descriptorNote(st, studentID, code)
	})
	return out
}

func descriptorNote(st *AppState, studentID, code string) string {
	if n := st.CurriculumProgress[studentID][code].Note; n != "" {
		return n
	}
	return st.CurriculumNotes[studentID][code]
}

// MigrateDescriptorNotes folds every separate-slot note into its progress entry and
// empties the separate slot. Differing notes are joined with a blank line. It returns
// the number of notes moved.
func (s *Store) MigrateDescriptorNotes() (int, error) {
	moved := 0
	err := s.mutate("migrateDescriptorNotes", true, func(st *AppState) (string, error) {
		moved = 0
		studentIDs := make([]string, 0, len(st.CurriculumNotes))
		for sid := range st.CurriculumNotes {
			studentIDs = append(studentIDs, sid)
		}
		sort.Strings(studentIDs)

		for _, sid := range studentIDs {
			for code, note := range st.CurriculumNotes[sid] {
				if strings.TrimSpace(note) == "" {
					continue
				}
				entries := st.CurriculumProgress[sid]
				if entries == nil {
					entries = map[string]ProgressEntry{}
					st.CurriculumProgress[sid] = entries
				}
				e := entries[code]
				switch {
				case e.Note == "":
					e.Note = note
				case e.Note != note:
					e.Note = e.Note + "\n\n" + note
				}
				entries[code] = ProgressEntry{Status: e.Status, Note: e.Note}
				moved++
			}
			delete(st.CurriculumNotes, sid)
		}
		if moved == 0 && len(studentIDs) == 0 {
			return "", errNoChange
		}
		return "", nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}
