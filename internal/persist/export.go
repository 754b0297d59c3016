package persist

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gradebook/internal/gradebook"
)

// ImportError reports a backup file that could not be read. Local state is untouched.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("error importing data: %v", e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// ExportFilename is the backup file name for the given day.
func ExportFilename(t time.Time) string {
	return "assessment-tracker-backup-" + t.Format("2006-01-02") + ".json"
}

// Export writes the full state as indented JSON.
func Export(w io.Writer, state *gradebook.AppState) error {
	cp := *state
	cp.Version = CurrentVersion
	data, err := json.MarshalIndent(&cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// Import reads a previously exported document. The caller decides whether to replace.
func Import(r io.Reader) (*gradebook.AppState, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ImportError{Err: err}
	}
	st, err := Decode(data)
	if err != nil {
		return nil, &ImportError{Err: err}
	}
	return st, nil
}
