package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gradebook/cmd/gradebook/ui"
	"gradebook/internal/config"
	"gradebook/internal/curriculum"
	"gradebook/internal/gradebook"
	"gradebook/internal/persist"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setup points the CLI at a fresh workspace and logs in.
func setup(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	workspace = t.TempDir()
	configPath = ""
	loginPIN = "1234"
	importYes = false
	syncClear = false
	assessSubject, assessDate, assessFormat = "", "", "percentage"
	studentNumber, studentGender = "", ""

	captureOutput(t, func() {
		require.NoError(t, runLogin(&cobra.Command{}, nil))
	})
}

func snapshot(t *testing.T) *gradebook.AppState {
	t.Helper()
	var st *gradebook.AppState
	require.NoError(t, withApp(func(a *App) error {
		st = a.Store.Snapshot()
		return nil
	}))
	return st
}

func TestJoinArgs(t *testing.T) {
	got := joinArgs([]string{"one", "two", "three"})
	if got != "one two three" {
		t.Fatalf("expected 'one two three', got '%s'", got)
	}
}

func TestCommandsRequireLogin(t *testing.T) {
	logger = zap.NewNop()
	workspace = t.TempDir()
	configPath = ""

	err := runStudentList(&cobra.Command{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	loginPIN = "0000"
	err = runLogin(&cobra.Command{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incorrect PIN")
}

func TestLogout(t *testing.T) {
	setup(t)
	out := captureOutput(t, func() {
		require.NoError(t, runLogout(&cobra.Command{}, nil))
	})
	assert.Contains(t, out, "Logged out")
	assert.False(t, snapshot(t).IsLoggedIn)
}

func TestChangePIN(t *testing.T) {
	setup(t)
	err := runChangePIN(&cobra.Command{}, []string{"12"})
	var ve *gradebook.ValidationError
	require.ErrorAs(t, err, &ve)

	captureOutput(t, func() {
		require.NoError(t, runChangePIN(&cobra.Command{}, []string{"9876"}))
	})
	assert.Equal(t, "9876", snapshot(t).PIN)
}

func TestStudentCommands(t *testing.T) {
	setup(t)
	studentNumber = "S-17"

	out := captureOutput(t, func() {
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "b"}))
		studentNumber = ""
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Zoe", "A"}))
	})
	assert.Contains(t, out, "Added Amy B.")

	out = captureOutput(t, func() {
		require.NoError(t, runStudentList(&cobra.Command{}, nil))
	})
	assert.Contains(t, out, "Amy B.")
	assert.Contains(t, out, "S-17")
	assert.Contains(t, out, "Total: 2 students")
	assert.Less(t, strings.Index(out, "Amy B."), strings.Index(out, "Zoe A."))

	require.NoError(t, studentEditCmd.Flags().Set("first", "Amelia"))
	t.Cleanup(func() { studentEditCmd.Flags().Lookup("first").Changed = false })
	out = captureOutput(t, func() {
		require.NoError(t, runStudentEdit(studentEditCmd, []string{"Amy B."}))
	})
	assert.Contains(t, out, "Updated Amelia B.")

	out = captureOutput(t, func() {
		require.NoError(t, runStudentRm(&cobra.Command{}, []string{"zoe"}))
	})
	assert.Contains(t, out, "Deleted Zoe A.")

	st := snapshot(t)
	require.Len(t, st.Students, 1)
	assert.Equal(t, "Amelia B.", st.Students[0].FullName)
	assert.Equal(t, "S-17", st.Students[0].StudentNumber)
}

func TestStudentUseAndShow(t *testing.T) {
	setup(t)
	captureOutput(t, func() {
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "B"}))
		require.NoError(t, runNoteAdd(&cobra.Command{}, []string{"Amy", "Great", "focus", "today"}))
	})

	err := runStudentShow(&cobra.Command{}, nil)
	require.Error(t, err, "no student selected yet")

	out := captureOutput(t, func() {
		require.NoError(t, runStudentUse(&cobra.Command{}, []string{"amy"}))
		require.NoError(t, runStudentShow(&cobra.Command{}, nil))
	})
	assert.Contains(t, out, "Current student: Amy B.")
	assert.Contains(t, out, "Amy B.")
	assert.Contains(t, out, "focus")
}

func TestAssessmentCommands(t *testing.T) {
	setup(t)
	assessSubject = "Maths"
	assessDate = "2024-03-01"

	captureOutput(t, func() {
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "B"}))
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Zoe", "A"}))
		require.NoError(t, runAssessmentAdd(&cobra.Command{}, []string{"Fractions", "quiz"}))
	})

	st := snapshot(t)
	require.Len(t, st.Assessments, 1)
	id := st.Assessments[0].ID
	assert.Equal(t, "Fractions quiz", st.Assessments[0].Name)

	err := runAssessmentGrade(&cobra.Command{}, []string{id, "Amy"})
	require.Error(t, err, "pairs need an equals sign")

	err = runAssessmentGrade(&cobra.Command{}, []string{id, "Amy=80", "Nobody=70"})
	assert.True(t, gradebook.IsNotFound(err))
	assert.Empty(t, snapshot(t).Assessments[0].Grades, "a failed batch records nothing")

	captureOutput(t, func() {
		require.NoError(t, runAssessmentGrade(&cobra.Command{}, []string{id, "Amy= 85 "}))
	})

	out := captureOutput(t, func() {
		require.NoError(t, runAssessmentResults(&cobra.Command{}, []string{id}))
	})
	assert.Contains(t, out, "Fractions quiz")
	assert.Contains(t, out, "85")
	assert.Contains(t, out, "Not recorded")
	assert.Contains(t, out, "Completion: 1/2 (50%)")

	out = captureOutput(t, func() {
		require.NoError(t, runAssessmentList(&cobra.Command{}, nil))
	})
	assert.Contains(t, out, "2024-03-01")

	captureOutput(t, func() {
		require.NoError(t, runAssessmentRm(&cobra.Command{}, []string{id}))
	})
	assert.Empty(t, snapshot(t).Assessments)
}

func TestAssessmentAdd_Validation(t *testing.T) {
	setup(t)
	assessDate = "01/03/2024"
	err := runAssessmentAdd(&cobra.Command{}, []string{"Quiz"})
	var ve *gradebook.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "date", ve.Field)
}

func TestCurriculumCommands(t *testing.T) {
	setup(t)
	code := curriculum.Default().Subjects()[0].Descriptors[0].Code

	captureOutput(t, func() {
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "B"}))
		require.NoError(t, runCurriculumSet(&cobra.Command{}, []string{"Amy", code, "above"}))
		require.NoError(t, runCurriculumNote(&cobra.Command{}, []string{"Amy", code, "Reads", "widely"}))
	})

	err := runCurriculumSet(&cobra.Command{}, []string{"Amy", "NOPE-1", "above"})
	var ve *gradebook.ValidationError
	require.ErrorAs(t, err, &ve)

	out := captureOutput(t, func() {
		require.NoError(t, runCurriculumShow(&cobra.Command{}, []string{"Amy", "english"}))
	})
	assert.Contains(t, out, code)
	assert.Contains(t, out, "Above Standard")
	assert.Contains(t, out, "Reads widely")
	assert.Contains(t, out, "1 of")

	captureOutput(t, func() {
		require.NoError(t, runCurriculumSet(&cobra.Command{}, []string{"Amy", code, "clear"}))
	})
	st := snapshot(t)
	_, ok := st.CurriculumProgress[st.Students[0].ID][code]
	assert.False(t, ok, "clearing removes the entry")
}

func TestCurriculumMigrateNotes(t *testing.T) {
	setup(t)
	code := curriculum.Default().Subjects()[0].Descriptors[0].Code

	captureOutput(t, func() {
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "B"}))
		require.NoError(t, runCurriculumSlotNote(&cobra.Command{}, []string{"Amy", code, "Old", "note"}))
	})
	out := captureOutput(t, func() {
		require.NoError(t, runCurriculumMigrate(&cobra.Command{}, nil))
		require.NoError(t, runCurriculumMigrate(&cobra.Command{}, nil))
	})
	assert.Contains(t, out, "Migrated 1 descriptor notes")
	assert.Contains(t, out, "Nothing to migrate.")

	st := snapshot(t)
	assert.Equal(t, "Old note", st.CurriculumProgress[st.Students[0].ID][code].Note)
}

func TestCurriculumCatalog(t *testing.T) {
	setup(t)
	out := captureOutput(t, func() {
		require.NoError(t, runCurriculumCatalog(&cobra.Command{}, nil))
	})
	for _, s := range curriculum.Default().Subjects() {
		assert.Contains(t, out, s.Name)
	}
	err := runCurriculumCatalog(&cobra.Command{}, []string{"Latin"})
	assert.True(t, gradebook.IsNotFound(err))
}

func TestPersonalCommands(t *testing.T) {
	setup(t)
	captureOutput(t, func() {
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "B"}))
		require.NoError(t, runPersonalAdd(&cobra.Command{}, []string{"Amy", "Interests", "Loves", "chess"}))
	})

	err := runPersonalAdd(&cobra.Command{}, []string{"Amy", "hobbies", "Chess"})
	var ve *gradebook.ValidationError
	require.ErrorAs(t, err, &ve)

	st := snapshot(t)
	entries := st.PersonalEntries[st.Students[0].ID].Interests
	require.Len(t, entries, 1)
	entryID := entries[0].ID

	out := captureOutput(t, func() {
		require.NoError(t, runPersonalEdit(&cobra.Command{}, []string{"Amy", "interests", entryID, "Chess", "club", "captain"}))
		require.NoError(t, runPersonalList(&cobra.Command{}, []string{"Amy", "interests"}))
	})
	assert.Contains(t, out, "Chess club captain")
	assert.Contains(t, out, "edited")

	captureOutput(t, func() {
		require.NoError(t, runPersonalRm(&cobra.Command{}, []string{"Amy", "interests", entryID}))
	})
	st = snapshot(t)
	assert.Empty(t, st.PersonalEntries[st.Students[0].ID].Interests)
}

func TestExportImport(t *testing.T) {
	setup(t)
	captureOutput(t, func() {
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "B"}))
	})

	path := filepath.Join(t.TempDir(), "backup.json")
	captureOutput(t, func() {
		require.NoError(t, runExport(&cobra.Command{}, []string{path}))
	})
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"students\": [")

	captureOutput(t, func() {
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Zoe", "A"}))
	})

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	err = runImport(&cobra.Command{}, []string{bad})
	var ie *persist.ImportError
	require.ErrorAs(t, err, &ie)
	assert.Len(t, snapshot(t).Students, 2, "a failed import changes nothing")

	importYes = true
	captureOutput(t, func() {
		require.NoError(t, runImport(&cobra.Command{}, []string{path}))
	})
	st := snapshot(t)
	require.Len(t, st.Students, 1)
	assert.Equal(t, "Amy B.", st.Students[0].FullName)
}

func TestCorruptStateAbortsStartup(t *testing.T) {
	setup(t)
	doc := filepath.Join(workspace, config.DirName, persist.DefaultKey+".json")
	require.NoError(t, os.WriteFile(doc, []byte("[1,2,3]"), 0644))

	err := runStudentList(&cobra.Command{}, nil)
	var ce *gradebook.CorruptStateError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "left untouched")

	data, err := os.ReadFile(doc)
	require.NoError(t, err)
	assert.Equal(t, "[1,2,3]", string(data))
}

func TestSQLiteBackendFromConfig(t *testing.T) {
	setup(t)
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = "sqlite"
	configPath = filepath.Join(workspace, "sqlite.yaml")
	require.NoError(t, cfg.Save(configPath))
	t.Cleanup(func() { configPath = "" })

	captureOutput(t, func() {
		require.NoError(t, runLogin(&cobra.Command{}, nil))
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "B"}))
	})
	assert.FileExists(t, filepath.Join(workspace, config.DirName, "gradebook.db"))
	assert.Len(t, snapshot(t).Students, 1)
}

// fakeWebApp records saves and serves loads like the spreadsheet web app.
type fakeWebApp struct {
	mu    sync.Mutex
	saves int
	data  *gradebook.SyncPayload
}

func (f *fakeWebApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost:
		_, _ = io.Copy(io.Discard, r.Body)
		f.saves++
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	case r.URL.Query().Get("action") == "test":
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	case r.URL.Query().Get("action") == "load":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "data": f.data})
	}
}

func (f *fakeWebApp) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func TestSyncCommands(t *testing.T) {
	setup(t)
	app := &fakeWebApp{data: &gradebook.SyncPayload{
		Students: []gradebook.Student{{ID: "r1", FirstName: "Remy", LastInitial: "R", FullName: "Remy R."}},
	}}
	srv := httptest.NewServer(app)
	defer srv.Close()

	out := captureOutput(t, func() {
		require.NoError(t, runSyncStatus(&cobra.Command{}, nil))
	})
	assert.Contains(t, out, "Local only")

	err := runSyncPush(&cobra.Command{}, nil)
	var ve *gradebook.ValidationError
	require.ErrorAs(t, err, &ve, "push without an endpoint")

	out = captureOutput(t, func() {
		require.NoError(t, runSyncConfigure(&cobra.Command{}, []string{srv.URL}))
		require.NoError(t, runSyncTest(&cobra.Command{}, nil))
	})
	assert.Contains(t, out, "Connection OK")
	assert.Equal(t, 0, app.saveCount(), "configuring does not push")

	// A data change pushes in the background; the command waits for it on exit.
	captureOutput(t, func() {
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "B"}))
	})
	assert.Equal(t, 1, app.saveCount())

	out = captureOutput(t, func() {
		require.NoError(t, runSyncPush(&cobra.Command{}, nil))
	})
	assert.Contains(t, out, "Pushed and confirmed")

	out = captureOutput(t, func() {
		require.NoError(t, runSyncPull(&cobra.Command{}, nil))
		require.NoError(t, runSyncStatus(&cobra.Command{}, nil))
	})
	assert.Contains(t, out, "Loaded 1 students")
	assert.Contains(t, out, "Synced")

	st := snapshot(t)
	require.Len(t, st.Students, 1)
	assert.Equal(t, "Remy R.", st.Students[0].FullName)
	assert.NotNil(t, st.GoogleSettings.LastSync)

	syncClear = true
	captureOutput(t, func() {
		require.NoError(t, runSyncConfigure(&cobra.Command{}, nil))
	})
	assert.Empty(t, snapshot(t).GoogleSettings.ScriptURL)
}

func TestSyncFailureKeepsLocalData(t *testing.T) {
	setup(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	captureOutput(t, func() {
		require.NoError(t, runSyncConfigure(&cobra.Command{}, []string{endpoint}))
	})
	out := captureOutput(t, func() {
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "B"}))
	})
	assert.Contains(t, out, "Sync failed (data saved locally)")
	assert.Len(t, snapshot(t).Students, 1)

	out = captureOutput(t, func() {
		require.NoError(t, runSyncPull(&cobra.Command{}, nil))
	})
	assert.Contains(t, out, "Pull failed")
}

func TestStats(t *testing.T) {
	setup(t)
	captureOutput(t, func() {
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "B"}))
		require.NoError(t, runNoteAdd(&cobra.Command{}, []string{"Amy", "Helpful"}))
	})
	out := captureOutput(t, func() {
		require.NoError(t, runStats(&cobra.Command{}, nil))
		require.NoError(t, runStats(&cobra.Command{}, []string{"Amy"}))
	})
	assert.Contains(t, out, "Students: 1")
	assert.Regexp(t, `Notes:\s+1\n`, out)
}

func TestWatchDashboard(t *testing.T) {
	setup(t)
	assessDate = "2024-03-01"
	captureOutput(t, func() {
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "B"}))
		require.NoError(t, runAssessmentAdd(&cobra.Command{}, []string{"Spelling"}))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := captureOutput(t, func() {
		require.NoError(t, watchDashboard(ctx))
	})
	assert.Contains(t, out, "Students: 1")
	assert.Contains(t, out, "Spelling")
	assert.Contains(t, out, "0/1 (0%)")
	assert.Contains(t, out, "Stopped after 0 refreshes.")
}

func TestWatchDashboard_NeedsFileBackend(t *testing.T) {
	setup(t)
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = "memory"
	configPath = filepath.Join(workspace, "memory.yaml")
	require.NoError(t, cfg.Save(configPath))
	t.Cleanup(func() { configPath = "" })

	err := watchDashboard(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file storage backend")
}

func TestResolveStudent(t *testing.T) {
	setup(t)
	captureOutput(t, func() {
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "B"}))
		require.NoError(t, runStudentAdd(&cobra.Command{}, []string{"Amy", "C"}))
	})
	require.NoError(t, withApp(func(a *App) error {
		st, err := resolveStudent(a.Store, "amy c.")
		require.NoError(t, err)
		assert.Equal(t, "Amy C.", st.FullName)

		byID, err := resolveStudent(a.Store, st.ID)
		require.NoError(t, err)
		assert.Equal(t, st.ID, byID.ID)

		_, err = resolveStudent(a.Store, "Amy")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "matches 2 students")

		_, err = resolveStudent(a.Store, "Bob")
		assert.True(t, gradebook.IsNotFound(err))
		return nil
	}))
}

func TestTableView(t *testing.T) {
	styles := ui.NewStyles(ui.LightTheme())
	table := ui.NewTable("", "Name", "Grade")
	assert.Empty(t, table.View(styles))

	table.AddRow("Amy B.", "85")
	table.AddRow("Zoe A.")
	lines := strings.Split(strings.TrimRight(table.View(styles), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Name")
	assert.Contains(t, lines[2], "Amy B.")
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var out, errOut bytes.Buffer
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = io.Copy(&errOut, rErr)
		}()
		_, _ = io.Copy(&out, rOut)
		wg.Wait()
		done <- out.String() + errOut.String()
	}()

	defer func() {
		_ = wOut.Close()
		_ = wErr.Close()
		os.Stdout = origOut
		os.Stderr = origErr
	}()
	fn()
	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
