package persist

import (
	"encoding/json"
	"errors"
	"fmt"

	"gradebook/internal/gradebook"
	"gradebook/internal/logging"
)

// DefaultKey is the storage key of the state document.
const DefaultKey = "assessmentTrackerState"

// CurrentVersion is the schema version stamped on every saved document.
//
//	1: students, assessments, curriculumProgress, notes, googleSettings
//	2: + curriculumNotes
//	3: + personalEntries
const CurrentVersion = 3

// migration brings a decoded document from one version to the next by defaulting the
// fields that version introduced.
type migration struct {
	from  int
	apply func(st *gradebook.AppState)
}

var migrations = []migration{
	{from: 1, apply: func(st *gradebook.AppState) {
		if st.CurriculumNotes == nil {
			st.CurriculumNotes = map[string]map[string]string{}
		}
	}},
	{from: 2, apply: func(st *gradebook.AppState) {
		if st.PersonalEntries == nil {
			st.PersonalEntries = map[string]gradebook.PersonalLog{}
		}
	}},
}

// Adapter loads and saves the AppState under one key of a Backend.
type Adapter struct {
	backend Backend
	key     string
}

// NewAdapter wraps backend. An empty key uses DefaultKey.
func NewAdapter(backend Backend, key string) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{backend: backend, key: key}
}

// Key is the storage key in use.
func (a *Adapter) Key() string { return a.key }

// Backend returns the underlying storage.
func (a *Adapter) Backend() Backend { return a.backend }

// Load returns the stored state, or a default state when nothing is stored yet.
// A document that cannot be read as an AppState yields *gradebook.CorruptStateError.
func (a *Adapter) Load() (*gradebook.AppState, error) {
	timer := logging.StartTimer(logging.CategoryPersist, "Load")
	defer timer.Stop()

	data, err := a.backend.Get(a.key)
	if errors.Is(err, ErrNoData) {
		logging.Persist("no stored state under %q, starting fresh", a.key)
		st := gradebook.NewAppState()
		st.Version = CurrentVersion
		return st, nil
	}
	if err != nil {
		return nil, err
	}

	st, err := Decode(data)
	if err != nil {
		logging.Get(logging.CategoryPersist).Error("stored state %q is unreadable: %v", a.key, err)
		return nil, &gradebook.CorruptStateError{Key: a.key, Err: err}
	}
	logging.Persist("loaded state %q: %d bytes, %d students", a.key, len(data), len(st.Students))
	return st, nil
}

// Save writes the whole state, replacing the previous snapshot.
func (a *Adapter) Save(state *gradebook.AppState) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := a.backend.Put(a.key, data); err != nil {
		return err
	}
	logging.PersistDebug("saved state %q: %d bytes", a.key, len(data))
	return nil
}

// Close releases the backend.
func (a *Adapter) Close() error {
	return a.backend.Close()
}

// Encode is the compact stored form of a state, stamped with CurrentVersion.
func Encode(state *gradebook.AppState) ([]byte, error) {
	cp := *state
	cp.Version = CurrentVersion
	data, err := json.Marshal(&cp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// Decode parses a stored or exported document, upgrades it to CurrentVersion and fills
// every missing field with its default.
func Decode(data []byte) (*gradebook.AppState, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	if fields == nil {
		return nil, errors.New("document is null")
	}

	var st gradebook.AppState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unexpected document shape: %w", err)
	}

	version := detectVersion(fields, st.Version)
	if version > CurrentVersion {
		return nil, fmt.Errorf("document version %d is newer than supported version %d", version, CurrentVersion)
	}
	for _, m := range migrations {
		if version <= m.from {
			m.apply(&st)
		}
	}
	st.Normalize()
	st.Version = CurrentVersion
	return &st, nil
}

// detectVersion trusts an explicit version, otherwise infers it from the fields present.
func detectVersion(fields map[string]json.RawMessage, stamped int) int {
	if _, ok := fields["version"]; ok && stamped > 0 {
		return stamped
	}
	if _, ok := fields["personalEntries"]; ok {
		return 3
	}
	if _, ok := fields["curriculumNotes"]; ok {
		return 2
	}
	return 1
}
