package gradebook

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Status is a curriculum achievement level. The empty status means "cleared".
type Status string

const (
	StatusWellAbove  Status = "well-above"
	StatusAbove      Status = "above"
	StatusAtStandard Status = "at-standard"
	StatusBelow      Status = "below"
	StatusWellBelow  Status = "well-below"
	StatusNotEvident Status = "not-evident"
)

// Statuses lists the achievement levels from highest to lowest.
var Statuses = []Status{StatusWellAbove, StatusAbove, StatusAtStandard, StatusBelow, StatusWellBelow, StatusNotEvident}

// Valid reports whether s is a known level or the cleared status.
func (s Status) Valid() bool {
	if s == "" {
		return true
	}
	for _, k := range Statuses {
		if k == s {
			return true
		}
	}
	return false
}

// Label is the human-readable form of the status.
func (s Status) Label() string {
	switch s {
	case StatusWellAbove:
		return "Well Above Standard"
	case StatusAbove:
		return "Above Standard"
	case StatusAtStandard:
		return "At Standard"
	case StatusBelow:
		return "Below Standard"
	case StatusWellBelow:
		return "Well Below Standard"
	case StatusNotEvident:
		return "Not Evident"
	}
	return "Not assessed"
}

// ProgressEntry is the recorded level and note for one (student, descriptor) pair.
//
// Older documents store the level as a bare string. Such entries decode with an empty note
// and keep encoding as a bare string until they are modified, so load/save stays byte-stable.
type ProgressEntry struct {
	Status Status `json:"status"`
	Note   string `json:"note"`

	legacy bool
}

// IsZero reports whether the entry carries neither a status nor a note.
func (e ProgressEntry) IsZero() bool {
	return e.Status == "" && e.Note == ""
}

// MarshalJSON encodes untouched legacy entries in their original bare-string form.
func (e ProgressEntry) MarshalJSON() ([]byte, error) {
	if e.legacy && e.Note == "" {
		return json.Marshal(string(e.Status))
	}
	type plain struct {
		Status Status `json:"status"`
		Note   string `json:"note"`
	}
	return json.Marshal(plain{Status: e.Status, Note: e.Note})
}

// UnmarshalJSON accepts both the object form and the legacy bare string.
func (e *ProgressEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = ProgressEntry{Status: Status(s), legacy: true}
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*e = ProgressEntry{}
		return nil
	}
	var obj struct {
		Status Status `json:"status"`
		Note   string `json:"note"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("progress entry: %w", err)
	}
	*e = ProgressEntry{Status: obj.Status, Note: obj.Note}
	return nil
}
