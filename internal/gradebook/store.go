package gradebook

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gradebook/internal/logging"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Persister writes the whole state document. Save must fully overwrite the previous snapshot.
type Persister interface {
	Save(state *AppState) error
}

// Catalog answers whether a descriptor code exists.
type Catalog interface {
	Has(code string) bool
}

// Event is delivered to subscribers after a committed change.
type Event struct {
	Op   string
	ID   string
	Sync SyncStatus
}

// Options configures a Store.
type Options struct {
	// Persister receives every committed state. Required.
	Persister Persister
	// Mirror receives best-effort pushes. Nil disables remote sync.
	Mirror Mirror
	// Catalog restricts curriculum codes. Nil accepts any non-empty code.
	Catalog Catalog
	// AutoPush pushes after every data mutation when an endpoint is configured.
	AutoPush bool
	// SyncTimeout bounds each remote call. Defaults to 30s.
	SyncTimeout time.Duration
	// Language orders student names. Defaults to English.
	Language language.Tag

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// errNoChange aborts a mutation without saving or notifying.
var errNoChange = errors.New("no change")

// Store holds the AppState and serializes every mutation: validate, apply to a clone,
// save, swap, notify, push.
type Store struct {
	mu        sync.Mutex
	state     *AppState
	persister Persister
	catalog   Catalog
	collator  *collate.Collator
	now       func() time.Time
	newID     func() string

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	mirror   Mirror
	autoPush bool
	timeout  time.Duration
	pushes   errgroup.Group

	syncMu    sync.Mutex
	pushSeq   uint64 // last issued
	sentSeq   uint64 // newest push handed to the mirror
	statusSeq uint64 // push that produced the current status
	status    SyncStatus
	syncErr   error
}

// NewStore wraps an already loaded state. The store owns state from here on.
func NewStore(state *AppState, opts Options) (*Store, error) {
	if opts.Persister == nil {
		return nil, fmt.Errorf("gradebook: persister is required")
	}
	if state == nil {
		state = NewAppState()
	}
	state.Normalize()

	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = 30 * time.Second
	}
	if opts.Language == language.Und {
		opts.Language = language.English
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = newUUID
	}

	s := &Store{
		state:     state,
		persister: opts.Persister,
		catalog:   opts.Catalog,
		collator:  collate.New(opts.Language, collate.IgnoreCase),
		now:       opts.Now,
		newID:     opts.NewID,
		subs:      make(map[int]func(Event)),
		mirror:    opts.Mirror,
		autoPush:  opts.AutoPush,
		timeout:   opts.SyncTimeout,
	}
	logging.Store("store ready: %d students, %d assessments, endpoint=%q",
		len(state.Students), len(state.Assessments), state.GoogleSettings.ScriptURL)
	return s, nil
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Store) timestamp() Timestamp {
	return NewTimestamp(s.now())
}

// mutate runs fn against a clone of the state and commits it. When push is true and
// a mirror is configured, the committed state is pushed in the background.
func (s *Store) mutate(op string, push bool, fn func(st *AppState) (string, error)) error {
	s.mu.Lock()
	next := s.state.Clone()
	id, err := fn(next)
	if errors.Is(err, errNoChange) {
		s.mu.Unlock()
		logging.StoreDebug("%s: nothing to change", op)
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		logging.StoreDebug("%s rejected: %v", op, err)
		return err
	}
	if err := s.persister.Save(next); err != nil {
		s.mu.Unlock()
		logging.Get(logging.CategoryStore).Error("%s: save failed, change discarded: %v", op, err)
		return fmt.Errorf("failed to save after %s: %w", op, err)
	}
	s.state = next

	var job *pushJob
	if push {
		job = s.preparePushLocked()
	}
	s.mu.Unlock()

	logging.StoreDebug("%s committed (id=%s)", op, id)
	s.notify(Event{Op: op, ID: id})
	if job != nil {
		s.dispatch(job)
	}
	return nil
}

// read runs fn under the store lock against the live state. fn must not retain it.
func (s *Store) read(fn func(st *AppState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Replace swaps in a whole new state, as an import does. Nothing is pushed.
func (s *Store) Replace(state *AppState) error {
	if state == nil {
		return &ValidationError{Message: "replacement state is empty"}
	}
	incoming := state.Clone()
	incoming.Normalize()
	return s.mutate("replace", false, func(st *AppState) (string, error) {
		*st = *incoming
		return "", nil
	})
}

// Subscribe registers fn for change events. The returned func unregisters it.
// Callbacks run synchronously after the store lock is released.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Close waits for in-flight pushes. Each push is bounded by the sync timeout.
func (s *Store) Close() error {
	err := s.pushes.Wait()
	logging.StoreDebug("store closed")
	return err
}
