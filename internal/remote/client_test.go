package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gradebook/internal/gradebook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

// fakeScript imitates the spreadsheet web app.
type fakeScript struct {
	mu       sync.Mutex
	saved    []json.RawMessage
	status   string
	data     *gradebook.SyncPayload
	saveBody string
	queries  []string
}

func (f *fakeScript) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, r.URL.RawQuery)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost:
		var req struct {
			Action string          `json:"action"`
			Data   json.RawMessage `json:"data"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil || req.Action != "save" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		f.saved = append(f.saved, req.Data)
		io.WriteString(w, f.saveBody)
	case r.URL.Query().Get("action") == "test":
		json.NewEncoder(w).Encode(map[string]string{"status": f.status})
	case r.URL.Query().Get("action") == "load":
		json.NewEncoder(w).Encode(map[string]interface{}{"status": f.status, "data": f.data})
	default:
		http.NotFound(w, r)
	}
}

func newServer(t *testing.T, f *fakeScript) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv, NewClient(5 * time.Second).WithHTTPClient(srv.Client())
}

func TestTestConnection(t *testing.T) {
	f := &fakeScript{status: "ok"}
	srv, c := newServer(t, f)

	res, err := c.TestConnection(context.Background(), srv.URL+"/exec?key=abc")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, http.StatusOK, res.HTTPStatus)
	assert.Equal(t, "action=test&key=abc", f.queries[0], "existing query parameters are kept")

	f.status = "error"
	res, err = c.TestConnection(context.Background(), srv.URL)
	var se *gradebook.SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "test", se.Action)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestTestConnection_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	res, err := NewClient(time.Second).TestConnection(context.Background(), endpoint)
	assert.Error(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)

	_, err = NewClient(time.Second).TestConnection(context.Background(), "ftp://example.com")
	assert.Error(t, err)
}

func TestPush(t *testing.T) {
	f := &fakeScript{saveBody: `{"status":"ok"}`}
	srv, c := newServer(t, f)

	ts := gradebook.NewTimestamp(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	payload := gradebook.SyncPayload{
		Students: []gradebook.Student{{ID: "1", FirstName: "Amy", LastInitial: "B", FullName: "Amy B."}},
		LastSync: &ts,
	}
	res, err := c.Push(context.Background(), srv.URL, payload)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, res.Outcome)

	require.Len(t, f.saved, 1)
	var got gradebook.SyncPayload
	require.NoError(t, json.Unmarshal(f.saved[0], &got))
	assert.Equal(t, "Amy B.", got.Students[0].FullName)
	assert.Equal(t, "2024-03-01T00:00:00.000Z", got.LastSync.String())
	assert.Contains(t, string(f.saved[0]), `"personalEntries":null`, "every key of the save shape is sent")
}

func TestPush_UnconfirmedIsUnknown(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty reply", ""},
		{"html redirect page", "<html>Moved</html>"},
		{"error status", `{"status":"error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeScript{saveBody: tt.body}
			srv, c := newServer(t, f)
			res, err := c.Push(context.Background(), srv.URL, gradebook.SyncPayload{})
			require.NoError(t, err, "a delivered push is never an error")
			assert.Equal(t, OutcomeUnknown, res.Outcome)
		})
	}
}

func TestPush_ServerErrorIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"status":"ok"}`)
	}))
	defer srv.Close()

	res, err := NewClient(time.Second).WithHTTPClient(srv.Client()).Push(context.Background(), srv.URL, gradebook.SyncPayload{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknown, res.Outcome)
	assert.Equal(t, http.StatusInternalServerError, res.HTTPStatus)
}

func TestPush_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(50 * time.Millisecond).WithHTTPClient(srv.Client())
	res, err := c.Push(context.Background(), srv.URL, gradebook.SyncPayload{})
	var se *gradebook.SyncError
	require.ErrorAs(t, err, &se)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestPull(t *testing.T) {
	data := &gradebook.SyncPayload{
		Students: []gradebook.Student{{ID: "r1", FirstName: "Remy", LastInitial: "R", FullName: "Remy R."}},
	}
	f := &fakeScript{status: "ok", data: data}
	srv, c := newServer(t, f)

	res, err := c.Pull(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, OutcomeOK, res.Outcome)
	require.NotNil(t, res.Data)
	assert.Equal(t, "Remy R.", res.Data.Students[0].FullName)
	assert.Nil(t, res.Data.Assessments, "absent collections stay nil")

	f.data = nil
	res, err = c.Pull(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, res.Outcome)

	f.status = "error"
	f.data = data
	res, err = c.Pull(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
}

func TestPull_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>Sign in</html>")
	}))
	defer srv.Close()

	res, err := NewClient(time.Second).WithHTTPClient(srv.Client()).Pull(context.Background(), srv.URL)
	var se *gradebook.SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load", se.Action)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestMirror(t *testing.T) {
	f := &fakeScript{saveBody: `{"status":"ok"}`}
	srv, c := newServer(t, f)
	m := NewMirror(c)

	out, err := m.Push(context.Background(), srv.URL, gradebook.SyncPayload{})
	require.NoError(t, err)
	assert.Equal(t, gradebook.PushOK, out)

	f.saveBody = ""
	out, err = m.Push(context.Background(), srv.URL, gradebook.SyncPayload{})
	require.NoError(t, err)
	assert.Equal(t, gradebook.PushUnknown, out)

	_, err = m.Push(context.Background(), "://bad", gradebook.SyncPayload{})
	assert.Error(t, err)
}
