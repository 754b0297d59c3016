package gradebook

import (
	"sort"
	"strings"
)

func parseCategory(c Category) (Category, error) {
	in := personalInput{Category: Category(strings.ToLower(strings.TrimSpace(string(c)))), Text: "-"}
	if err := check(&in); err != nil {
		return "", err
	}
	return in.Category, nil
}

// AddPersonalEntry appends an entry to one of the student's personal-log categories.
func (s *Store) AddPersonalEntry(studentID string, category Category, text string) (PersonalEntry, error) {
	in := personalInput{Category: Category(strings.ToLower(strings.TrimSpace(string(category)))), Text: strings.TrimSpace(text)}
	if err := check(&in); err != nil {
		return PersonalEntry{}, err
	}

	var created PersonalEntry
	err := s.mutate("addPersonalEntry", true, func(st *AppState) (string, error) {
		if st.studentIndex(studentID) < 0 {
			return "", notFound("student", studentID)
		}
		log := st.PersonalEntries[studentID]
		created = PersonalEntry{ID: s.newID(), Text: in.Text, Date: s.timestamp()}
		list := log.List(in.Category)
		*list = append(*list, created)
		st.PersonalEntries[studentID] = log
		st.Normalize()
		return created.ID, nil
	})
	if err != nil {
		return PersonalEntry{}, err
	}
	return created, nil
}

// EditPersonalEntry replaces an entry's text and stamps lastEdited.
func (s *Store) EditPersonalEntry(studentID string, category Category, entryID, text string) (PersonalEntry, error) {
	in := personalInput{Category: Category(strings.ToLower(strings.TrimSpace(string(category)))), Text: strings.TrimSpace(text)}
	if err := check(&in); err != nil {
		return PersonalEntry{}, err
	}

	var edited PersonalEntry
	err := s.mutate("editPersonalEntry", true, func(st *AppState) (string, error) {
		if st.studentIndex(studentID) < 0 {
			return "", notFound("student", studentID)
		}
		log, ok := st.PersonalEntries[studentID]
		if !ok {
			return "", notFound("personal entry", entryID)
		}
		list := *log.List(in.Category)
		for i := range list {
			if list[i].ID != entryID {
				continue
			}
			now := s.timestamp()
			list[i].Text = in.Text
			list[i].LastEdited = &now
			edited = list[i]
			return entryID, nil
		}
		return "", notFound("personal entry", entryID)
	})
	if err != nil {
		return PersonalEntry{}, err
	}
	return edited, nil
}

// DeletePersonalEntry removes one entry.
func (s *Store) DeletePersonalEntry(studentID string, category Category, entryID string) error {
	cat, err := parseCategory(category)
	if err != nil {
		return err
	}
	return s.mutate("deletePersonalEntry", true, func(st *AppState) (string, error) {
		if st.studentIndex(studentID) < 0 {
			return "", notFound("student", studentID)
		}
		log, ok := st.PersonalEntries[studentID]
		if !ok {
			return "", notFound("personal entry", entryID)
		}
		list := log.List(cat)
		for i := range *list {
			if (*list)[i].ID == entryID {
				*list = append((*list)[:i], (*list)[i+1:]...)
				st.PersonalEntries[studentID] = log
				return entryID, nil
			}
		}
		return "", notFound("personal entry", entryID)
	})
}

// PersonalEntries returns one category of a student's log, most recently touched first.
// A student with no log yet has empty categories.
func (s *Store) PersonalEntries(studentID string, category Category) ([]PersonalEntry, error) {
	cat, err := parseCategory(category)
	if err != nil {
		return nil, err
	}
	var out []PersonalEntry
	s.read(func(st *AppState) {
		if st.studentIndex(studentID) < 0 {
			err = notFound("student", studentID)
			return
		}
		log := st.PersonalEntries[studentID]
		out = clonePersonalEntries(*log.List(cat))
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []PersonalEntry{}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortTime().After(out[j].SortTime().Time)
	})
	return out, nil
}
