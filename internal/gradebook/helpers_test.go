package gradebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memPersister keeps every saved document as JSON.
type memPersister struct {
	mu    sync.Mutex
	saves [][]byte
	fail  error
}

func (p *memPersister) Save(st *AppState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	p.saves = append(p.saves, data)
	return nil
}

func (p *memPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

func (p *memPersister) last() *AppState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saves) == 0 {
		return nil
	}
	var st AppState
	if err := json.Unmarshal(p.saves[len(p.saves)-1], &st); err != nil {
		panic(err)
	}
	return &st
}

// fakeMirror records pushes and answers with a fixed outcome.
type fakeMirror struct {
	mu       sync.Mutex
	payloads []SyncPayload
	outcome  PushOutcome
	err      error
	block    chan struct{}
}

func (m *fakeMirror) Push(ctx context.Context, endpoint string, p SyncPayload) (PushOutcome, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, p)
	if m.err != nil {
		return "", m.err
	}
	if m.outcome == "" {
		return PushOK, nil
	}
	return m.outcome, nil
}

func (m *fakeMirror) pushes() []SyncPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SyncPayload(nil), m.payloads...)
}

// stepClock advances one second on every read.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type codeSet map[string]bool

func (c codeSet) Has(code string) bool { return c[code] }

var errDiskFull = errors.New("disk full")

func newTestStore(t *testing.T, opts Options) (*Store, *memPersister) {
	t.Helper()
	p := &memPersister{}
	if opts.Persister == nil {
		opts.Persister = p
	}
	if opts.Now == nil {
		clock := &stepClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
		opts.Now = clock.Now
	}
	if opts.NewID == nil {
		var mu sync.Mutex
		n := 0
		opts.NewID = func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%03d", n)
		}
	}
	s, err := NewStore(nil, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, p
}

func mustStudent(t *testing.T, s *Store, first, initial string) Student {
	t.Helper()
	stu, err := s.CreateStudent(StudentInput{FirstName: first, LastInitial: initial})
	require.NoError(t, err)
	return stu
}

func mustAssessment(t *testing.T, s *Store, name, date string) Assessment {
	t.Helper()
	a, err := s.CreateAssessment(AssessmentInput{Name: name, Subject: "Mathematics", Date: date})
	require.NoError(t, err)
	return a
}
