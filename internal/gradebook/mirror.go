package gradebook

import (
	"context"
	"errors"
	"strings"

	"gradebook/internal/logging"
)

// PushOutcome is the terminal result of a delivered push. A push that could not be
// delivered returns an error instead.
type PushOutcome string

const (
	// PushOK means the remote side acknowledged the data.
	PushOK PushOutcome = "ok"
	// PushUnknown means the request was delivered but the reply did not confirm it.
	// Callers must not read this as success.
	PushUnknown PushOutcome = "unknown"
)

// Mirror is the remote copy of the gradebook.
type Mirror interface {
	Push(ctx context.Context, endpoint string, payload SyncPayload) (PushOutcome, error)
}

// SyncPayload is the subset of state exchanged with the remote mirror. On pull, a nil
// collection means the remote side did not send it.
type SyncPayload struct {
	Students           []Student                           `json:"students"`
	Assessments        []Assessment                        `json:"assessments"`
	CurriculumProgress map[string]map[string]ProgressEntry `json:"curriculumProgress"`
	Notes              map[string][]Note                   `json:"notes"`
	PersonalEntries    map[string]PersonalLog              `json:"personalEntries"`
	LastSync           *Timestamp                          `json:"lastSync"`
}

// SyncStatus is the indicator shown next to the sync controls.
type SyncStatus string

const (
	SyncLocalOnly SyncStatus = "local-only"
	SyncSyncing   SyncStatus = "syncing"
	SyncSynced    SyncStatus = "synced"
	SyncSent      SyncStatus = "sent"
	SyncFailed    SyncStatus = "error"
)

// SyncState is a point-in-time view of the mirror.
type SyncState struct {
	Status   SyncStatus
	Endpoint string
	LastSync *Timestamp
	Err      error
}

type pushJob struct {
	seq      uint64
	endpoint string
	payload  SyncPayload
}

func payloadFrom(st *AppState, now Timestamp) SyncPayload {
	c := st.Clone()
	return SyncPayload{
		Students:           c.Students,
		Assessments:        c.Assessments,
		CurriculumProgress: c.CurriculumProgress,
		Notes:              c.Notes,
		PersonalEntries:    c.PersonalEntries,
		LastSync:           &now,
	}
}

// preparePushLocked snapshots the committed state for an automatic push. Caller holds s.mu.
func (s *Store) preparePushLocked() *pushJob {
	endpoint := s.state.GoogleSettings.ScriptURL
	if !s.autoPush || s.mirror == nil || endpoint == "" {
		return nil
	}
	s.syncMu.Lock()
	s.pushSeq++
	seq := s.pushSeq
	s.syncMu.Unlock()
	return &pushJob{seq: seq, endpoint: endpoint, payload: payloadFrom(s.state, s.timestamp())}
}

// dispatch runs a push in the background. It never blocks or reverses the local change.
func (s *Store) dispatch(job *pushJob) {
	s.setStatus(job.seq, SyncSyncing, nil)
	s.pushes.Go(func() error {
		s.syncMu.Lock()
		if job.seq <= s.sentSeq {
			s.syncMu.Unlock()
			logging.RemoteDebug("push #%d skipped: a newer state was already sent", job.seq)
			return nil
		}
		s.sentSeq = job.seq
		s.syncMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.deliver(ctx, job); err != nil {
			logging.Get(logging.CategoryRemote).Warn("background push #%d: %v", job.seq, err)
		}
		return nil
	})
}

func (s *Store) deliver(ctx context.Context, job *pushJob) (PushOutcome, error) {
	timer := logging.StartTimer(logging.CategoryRemote, "push")
	outcome, err := s.mirror.Push(ctx, job.endpoint, job.payload)
	timer.Stop()
	if err != nil {
		var se *SyncError
		if !errors.As(err, &se) {
			err = &SyncError{Action: "save", Endpoint: job.endpoint, Err: err}
		}
		s.setStatus(job.seq, SyncFailed, err)
		return "", err
	}

	s.stampLastSync()
	status := SyncSent
	if outcome == PushOK {
		status = SyncSynced
	}
	s.setStatus(job.seq, status, nil)
	logging.Remote("push #%d delivered to %s: %s", job.seq, job.endpoint, outcome)
	return outcome, nil
}

// stampLastSync records delivery time. The save does not trigger another push.
func (s *Store) stampLastSync() {
	ts := s.timestamp()
	err := s.mutate("lastSync", false, func(st *AppState) (string, error) {
		st.GoogleSettings.LastSync = &ts
		return "", nil
	})
	if err != nil {
		logging.Get(logging.CategoryStore).Warn("failed to record last sync time: %v", err)
	}
}

func (s *Store) setStatus(seq uint64, status SyncStatus, err error) {
	s.syncMu.Lock()
	if seq < s.statusSeq {
		s.syncMu.Unlock()
		return
	}
	s.statusSeq = seq
	s.status = status
	s.syncErr = err
	s.syncMu.Unlock()
	s.notify(Event{Op: "sync", Sync: status})
}

// SyncStatus reports the mirror indicator. With no endpoint it is always local-only.
func (s *Store) SyncStatus() SyncState {
	s.mu.Lock()
	endpoint := s.state.GoogleSettings.ScriptURL
	lastSync := cloneTimestamp(s.state.GoogleSettings.LastSync)
	s.mu.Unlock()

	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	st := SyncState{Status: s.status, Endpoint: endpoint, LastSync: lastSync, Err: s.syncErr}
	if endpoint == "" || st.Status == "" {
		st.Status = SyncLocalOnly
		if endpoint != "" && lastSync != nil {
			st.Status = SyncSynced
		}
	}
	return st
}

// SyncPayload returns what a push would send right now.
func (s *Store) SyncPayload() SyncPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return payloadFrom(s.state, s.timestamp())
}

// SetSyncEndpoint stores the mirror URL. An empty URL switches to local-only.
func (s *Store) SetSyncEndpoint(url string) error {
	in := endpointInput{ScriptURL: strings.TrimSpace(url)}
	if err := check(&in); err != nil {
		return err
	}
	err := s.mutate("setEndpoint", false, func(st *AppState) (string, error) {
		if st.GoogleSettings.ScriptURL == in.ScriptURL {
			return "", errNoChange
		}
		st.GoogleSettings.ScriptURL = in.ScriptURL
		return "", nil
	})
	if err == nil && in.ScriptURL == "" {
		s.syncMu.Lock()
		s.status, s.syncErr = "", nil
		s.syncMu.Unlock()
	}
	return err
}

// PushNow pushes the current state and waits for the outcome.
func (s *Store) PushNow(ctx context.Context) (PushOutcome, error) {
	s.mu.Lock()
	endpoint := s.state.GoogleSettings.ScriptURL
	if endpoint == "" || s.mirror == nil {
		s.mu.Unlock()
		return "", &ValidationError{Field: "scriptUrl", Message: "no sync endpoint configured; data is saved locally only"}
	}
	s.syncMu.Lock()
	s.pushSeq++
	job := &pushJob{seq: s.pushSeq, endpoint: endpoint, payload: payloadFrom(s.state, s.timestamp())}
	s.sentSeq = job.seq
	s.syncMu.Unlock()
	s.mu.Unlock()

	s.setStatus(job.seq, SyncSyncing, nil)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.deliver(ctx, job)
}

// ApplyRemote overwrites the collections present in a pulled payload, records the sync
// time and saves. Nothing is pushed back.
func (s *Store) ApplyRemote(p SyncPayload) error {
	incoming := &AppState{
		Students:           p.Students,
		Assessments:        p.Assessments,
		CurriculumProgress: p.CurriculumProgress,
		Notes:              p.Notes,
		PersonalEntries:    p.PersonalEntries,
	}
	incoming = incoming.Clone()
	ts := s.timestamp()
	err := s.mutate("pull", false, func(st *AppState) (string, error) {
		if incoming.Students != nil {
			st.Students = incoming.Students
		}
		if incoming.Assessments != nil {
			st.Assessments = incoming.Assessments
		}
		if incoming.CurriculumProgress != nil {
			st.CurriculumProgress = incoming.CurriculumProgress
		}
		if incoming.Notes != nil {
			st.Notes = incoming.Notes
		}
		if incoming.PersonalEntries != nil {
			st.PersonalEntries = incoming.PersonalEntries
		}
		st.GoogleSettings.LastSync = &ts
		st.Normalize()
		return "", nil
	})
	if err != nil {
		return err
	}
	s.syncMu.Lock()
	s.pushSeq++
	seq := s.pushSeq
	s.syncMu.Unlock()
	s.setStatus(seq, SyncSynced, nil)
	return nil
}

// MarkSyncFailed records a failed manual exchange (test or pull) on the indicator.
func (s *Store) MarkSyncFailed(err error) {
	s.syncMu.Lock()
	s.pushSeq++
	seq := s.pushSeq
	s.syncMu.Unlock()
	s.setStatus(seq, SyncFailed, err)
}
