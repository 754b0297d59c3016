package gradebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayout is ISO-8601 in UTC with millisecond precision, the form every stored
// document uses for note, entry and sync dates.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DateLayout is the calendar-date form of Assessment.Date.
const DateLayout = "2006-01-02"

// Timestamp is a UTC instant that encodes as an ISO-8601 string with milliseconds.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to milliseconds and converts it to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

// String formats the timestamp in the stored form.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// MarshalJSON encodes the zero timestamp as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts null, an empty string, or any RFC 3339 string.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	*t = NewTimestamp(parsed)
	return nil
}
