package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gradebook/internal/config"
	"gradebook/internal/curriculum"
	"gradebook/internal/gradebook"
	"gradebook/internal/logging"
	"gradebook/internal/persist"
	"gradebook/internal/remote"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App is the wiring of one command invocation.
type App struct {
	Config  *config.Config
	Adapter *persist.Adapter
	Catalog *curriculum.Catalog
	Client  *remote.Client
	Store   *gradebook.Store
}

// openApp loads config, the catalog and the stored state, and builds the store.
func openApp() (*App, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "openApp")
	defer timer.Stop()

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	catalog, err := curriculum.Load(cfg.CatalogPath(workspace))
	if err != nil {
		return nil, err
	}

	backend, err := persist.Open(cfg.Storage.Backend, cfg.DataDir(workspace))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	adapter := persist.NewAdapter(backend, cfg.Storage.Key)

	state, err := adapter.Load()
	if err != nil {
		_ = adapter.Close()
		var corrupt *gradebook.CorruptStateError
		if errors.As(err, &corrupt) {
			return nil, fmt.Errorf("%w\nstored data in %s was left untouched; restore it from an export or move it aside",
				err, cfg.DataDir(workspace))
		}
		return nil, err
	}

	client := remote.NewClient(cfg.GetSyncTimeout())
	store, err := gradebook.NewStore(state, gradebook.Options{
		Persister:   adapter,
		Mirror:      remote.NewMirror(client),
		Catalog:     catalog,
		AutoPush:    cfg.Sync.AutoPush,
		SyncTimeout: cfg.GetSyncTimeout(),
	})
	if err != nil {
		_ = adapter.Close()
		return nil, err
	}

	// A configured endpoint seeds documents that have none yet.
	if cfg.Sync.Endpoint != "" && state.GoogleSettings.ScriptURL == "" {
		if err := store.SetSyncEndpoint(cfg.Sync.Endpoint); err != nil {
			logging.Get(logging.CategoryBoot).Warn("ignoring sync endpoint from config: %v", err)
		}
	}

	logging.Boot("workspace %s: backend=%s students=%d", workspace, cfg.Storage.Backend, len(state.Students))
	return &App{Config: cfg, Adapter: adapter, Catalog: catalog, Client: client, Store: store}, nil
}

// Close waits for background pushes, reports a failed one, and releases storage.
func (a *App) Close() error {
	err := a.Store.Close()
	if st := a.Store.SyncStatus(); st.Status == gradebook.SyncFailed && st.Err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Sync failed (data saved locally): %v\n", st.Err)
	}
	if cerr := a.Adapter.Close(); err == nil {
		err = cerr
	}
	return err
}

// withApp runs fn against a freshly opened app.
func withApp(fn func(a *App) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	runErr := fn(a)
	if err := a.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		logging.Get(logging.CategoryCLI).Warn("command failed: %v", runErr)
	}
	return runErr
}

// withSession is withApp behind the PIN gate.
func withSession(fn func(a *App) error) error {
	return withApp(func(a *App) error {
		if !a.Store.LoggedIn() {
			return errors.New("not logged in; run 'gradebook login' first")
		}
		return fn(a)
	})
}

// resolveStudent finds a student by id, full name or unique first name. An empty
// ref means the current student.
func resolveStudent(s *gradebook.Store, ref string) (gradebook.Student, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		if cur, ok := s.CurrentStudent(); ok {
			return cur, nil
		}
		return gradebook.Student{}, errors.New("no student given and none selected; use 'gradebook student use <student>'")
	}
	if st, err := s.Student(ref); err == nil {
		return st, nil
	}

	var matches []gradebook.Student
	for _, st := range s.Students() {
		if strings.EqualFold(st.FullName, ref) {
			return st, nil
		}
		if strings.EqualFold(st.FirstName, ref) {
			matches = append(matches, st)
		}
	}
	switch len(matches) {
	case 0:
		return gradebook.Student{}, &gradebook.NotFoundError{Kind: "student", ID: ref}
	case 1:
		return matches[0], nil
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.FullName
	}
	return gradebook.Student{}, fmt.Errorf("%q matches %d students (%s); use the full name or id",
		ref, len(matches), strings.Join(names, ", "))
}

// cmdContext returns the command's context, or Background when it has none.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
