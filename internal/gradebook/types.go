// Package gradebook is the domain state store: students, assessments, grades, notes,
// curriculum progress and the personal-entry log, all held in one AppState document.
//
// The Store serializes every mutation, persists the whole document after each one, and
// then dispatches a best-effort push to the remote mirror. Local storage is always the
// source of truth; the mirror may lag or be absent.
package gradebook

// DefaultPIN is the PIN of a freshly initialized state.
const DefaultPIN = "1234"

// GradeFormat is the grading scheme of an assessment.
type GradeFormat string

const (
	FormatPercentage GradeFormat = "percentage"
	FormatLetter     GradeFormat = "letter"
	FormatRubric     GradeFormat = "rubric"
	FormatAchieved   GradeFormat = "achieved"
	FormatCustom     GradeFormat = "custom"
)

// GradeFormats lists every accepted grade format.
var GradeFormats = []GradeFormat{FormatPercentage, FormatLetter, FormatRubric, FormatAchieved, FormatCustom}

// Example returns a sample grade for the format, as shown next to the grade input.
func (f GradeFormat) Example() string {
	switch f {
	case FormatPercentage:
		return "85"
	case FormatLetter:
		return "B+"
	case FormatRubric:
		return "3"
	case FormatAchieved:
		return "Achieved"
	default:
		return "Excellent work"
	}
}

// Valid reports whether f is one of GradeFormats.
func (f GradeFormat) Valid() bool {
	for _, g := range GradeFormats {
		if g == f {
			return true
		}
	}
	return false
}

// Student is one pupil. ID never changes after creation.
type Student struct {
	ID            string `json:"id"`
	FirstName     string `json:"firstName"`
	LastInitial   string `json:"lastInitial"`
	FullName      string `json:"fullName"`
	StudentNumber string `json:"studentNumber"`
	Gender        string `json:"gender"`
}

// Assessment is a graded task. Grades maps student id to the recorded grade text.
type Assessment struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Subject     string            `json:"subject"`
	Date        string            `json:"date"`
	GradeFormat GradeFormat       `json:"gradeFormat"`
	Grades      map[string]string `json:"grades"`
}

// Note is a free-text observation about a student.
type Note struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	Date Timestamp `json:"date"`
}

// PersonalEntry is one item of a student's personal log.
type PersonalEntry struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Date       Timestamp  `json:"date"`
	LastEdited *Timestamp `json:"lastEdited,omitempty"`
}

// SortTime is the time the entry is ordered by: last edit, else creation.
func (e PersonalEntry) SortTime() Timestamp {
	if e.LastEdited != nil {
		return *e.LastEdited
	}
	return e.Date
}

// Category is one of the five fixed personal-log categories.
type Category string

const (
	CategoryBehaviour       Category = "behaviour"
	CategoryEvents          Category = "events"
	CategorySocial          Category = "social"
	CategoryInterests       Category = "interests"
	CategoryExtracurricular Category = "extracurricular"
)

// Categories is the closed set of personal-log categories, in display order.
var Categories = []Category{CategoryBehaviour, CategoryEvents, CategorySocial, CategoryInterests, CategoryExtracurricular}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// PersonalLog holds a student's personal entries by category. Storage order is append-only.
type PersonalLog struct {
	Behaviour       []PersonalEntry `json:"behaviour"`
	Events          []PersonalEntry `json:"events"`
	Social          []PersonalEntry `json:"social"`
	Interests       []PersonalEntry `json:"interests"`
	Extracurricular []PersonalEntry `json:"extracurricular"`
}

// List returns a pointer to the slice backing category c, or nil for an unknown category.
func (l *PersonalLog) List(c Category) *[]PersonalEntry {
	switch c {
	case CategoryBehaviour:
		return &l.Behaviour
	case CategoryEvents:
		return &l.Events
	case CategorySocial:
		return &l.Social
	case CategoryInterests:
		return &l.Interests
	case CategoryExtracurricular:
		return &l.Extracurricular
	}
	return nil
}

// Len returns the total number of entries across all categories.
func (l PersonalLog) Len() int {
	return len(l.Behaviour) + len(l.Events) + len(l.Social) + len(l.Interests) + len(l.Extracurricular)
}

// GoogleSettings holds the remote mirror endpoint. An empty ScriptURL means local-only.
type GoogleSettings struct {
	ScriptURL     string     `json:"scriptUrl"`
	LastSync      *Timestamp `json:"lastSync"`
	SpreadsheetID string     `json:"spreadsheetId,omitempty"`
}

// AppState is the root document. It is persisted and exported wholesale.
type AppState struct {
	Version            int                                 `json:"version"`
	IsLoggedIn         bool                                `json:"isLoggedIn"`
	PIN                string                              `json:"pin"`
	Students           []Student                           `json:"students"`
	Assessments        []Assessment                        `json:"assessments"`
	CurriculumProgress map[string]map[string]ProgressEntry `json:"curriculumProgress"`
	CurriculumNotes    map[string]map[string]string        `json:"curriculumNotes"`
	Notes              map[string][]Note                   `json:"notes"`
	PersonalEntries    map[string]PersonalLog              `json:"personalEntries"`
	GoogleSettings     GoogleSettings                      `json:"googleSettings"`
	CurrentStudent     *string                             `json:"currentStudent"`

	// CurrentPersonalStudent is kept for documents written by the personal-log view.
	CurrentPersonalStudent *string `json:"currentPersonalStudent,omitempty"`
}

// NewAppState returns a default-initialized state with every collection non-nil.
func NewAppState() *AppState {
	return &AppState{
		PIN:                DefaultPIN,
		Students:           []Student{},
		Assessments:        []Assessment{},
		CurriculumProgress: map[string]map[string]ProgressEntry{},
		CurriculumNotes:    map[string]map[string]string{},
		Notes:              map[string][]Note{},
		PersonalEntries:    map[string]PersonalLog{},
	}
}

// Normalize fills every nil collection so that a state decoded from an older or partial
// document is total. It never overwrites present data.
func (s *AppState) Normalize() {
	if s.PIN == "" {
		s.PIN = DefaultPIN
	}
	if s.Students == nil {
		s.Students = []Student{}
	}
	if s.Assessments == nil {
		s.Assessments = []Assessment{}
	}
	for i := range s.Assessments {
		if s.Assessments[i].Grades == nil {
			s.Assessments[i].Grades = map[string]string{}
		}
		if s.Assessments[i].GradeFormat == "" {
			s.Assessments[i].GradeFormat = FormatPercentage
		}
	}
	if s.CurriculumProgress == nil {
		s.CurriculumProgress = map[string]map[string]ProgressEntry{}
	}
	if s.CurriculumNotes == nil {
		s.CurriculumNotes = map[string]map[string]string{}
	}
	if s.Notes == nil {
		s.Notes = map[string][]Note{}
	}
	if s.PersonalEntries == nil {
		s.PersonalEntries = map[string]PersonalLog{}
	}
	for id, log := range s.PersonalEntries {
		for _, c := range Categories {
			if p := log.List(c); *p == nil {
				*p = []PersonalEntry{}
			}
		}
		s.PersonalEntries[id] = log
	}
}

// Clone returns a deep copy of the state.
func (s *AppState) Clone() *AppState {
	c := *s
	c.Students = append([]Student(nil), s.Students...)
	if s.Students != nil && c.Students == nil {
		c.Students = []Student{}
	}

	if s.Assessments != nil {
		c.Assessments = make([]Assessment, len(s.Assessments))
		for i, a := range s.Assessments {
			a.Grades = cloneStringMap(a.Grades)
			c.Assessments[i] = a
		}
	}

	if s.CurriculumProgress != nil {
		c.CurriculumProgress = make(map[string]map[string]ProgressEntry, len(s.CurriculumProgress))
		for sid, m := range s.CurriculumProgress {
			if m == nil {
				c.CurriculumProgress[sid] = nil
				continue
			}
			cm := make(map[string]ProgressEntry, len(m))
			for code, e := range m {
				cm[code] = e
			}
			c.CurriculumProgress[sid] = cm
		}
	}

	if s.CurriculumNotes != nil {
		c.CurriculumNotes = make(map[string]map[string]string, len(s.CurriculumNotes))
		for sid, m := range s.CurriculumNotes {
			c.CurriculumNotes[sid] = cloneStringMap(m)
		}
	}

	if s.Notes != nil {
		c.Notes = make(map[string][]Note, len(s.Notes))
		for sid, list := range s.Notes {
			if list == nil {
				c.Notes[sid] = nil
				continue
			}
			c.Notes[sid] = append(make([]Note, 0, len(list)), list...)
		}
	}

	if s.PersonalEntries != nil {
		c.PersonalEntries = make(map[string]PersonalLog, len(s.PersonalEntries))
		for sid, log := range s.PersonalEntries {
			var cl PersonalLog
			for _, cat := range Categories {
				*cl.List(cat) = clonePersonalEntries(*log.List(cat))
			}
			c.PersonalEntries[sid] = cl
		}
	}

	c.GoogleSettings.LastSync = cloneTimestamp(s.GoogleSettings.LastSync)
	c.CurrentStudent = cloneString(s.CurrentStudent)
	c.CurrentPersonalStudent = cloneString(s.CurrentPersonalStudent)
	return &c
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clonePersonalEntries(list []PersonalEntry) []PersonalEntry {
	if list == nil {
		return nil
	}
	out := make([]PersonalEntry, len(list))
	for i, e := range list {
		e.LastEdited = cloneTimestamp(e.LastEdited)
		out[i] = e
	}
	return out
}

func cloneTimestamp(t *Timestamp) *Timestamp {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (s *AppState) studentIndex(id string) int {
	for i := range s.Students {
		if s.Students[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *AppState) assessmentIndex(id string) int {
	for i := range s.Assessments {
		if s.Assessments[i].ID == id {
			return i
		}
	}
	return -1
}
