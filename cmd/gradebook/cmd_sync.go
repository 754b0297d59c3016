package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gradebook/cmd/gradebook/ui"
	"gradebook/internal/gradebook"
	"gradebook/internal/remote"

	"github.com/spf13/cobra"
)

// =============================================================================
// SYNC COMMANDS
// =============================================================================

var syncClear bool

// syncCmd manages the spreadsheet mirror
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the gradebook to a spreadsheet web app",
	Long: `Configure and drive the optional spreadsheet mirror.

Data is always saved locally first. Pushes are best effort: a failed push
never loses local data, and a push whose reply cannot be confirmed is
reported as "sent" rather than "synced".`,
	RunE: runSyncStatus,
}

var syncConfigureCmd = &cobra.Command{
	Use:   "configure [url]",
	Short: "Set the web app URL (--clear for local only)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSyncConfigure,
}

var syncTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check the web app answers",
	Args:  cobra.NoArgs,
	RunE:  runSyncTest,
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push all data now",
	Args:  cobra.NoArgs,
	RunE:  runSyncPush,
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Replace local data with the remote copy",
	Args:  cobra.NoArgs,
	RunE:  runSyncPull,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync indicator",
	Args:  cobra.NoArgs,
	RunE:  runSyncStatus,
}

func runSyncConfigure(cmd *cobra.Command, args []string) error {
	url := ""
	if len(args) == 1 {
		url = args[0]
	} else if !syncClear {
		return errors.New("give the web app URL, or --clear to work locally only")
	}
	return withSession(func(a *App) error {
		if err := a.Store.SetSyncEndpoint(url); err != nil {
			return err
		}
		if url == "" {
			fmt.Println("✅ Sync disabled; data is saved locally only.")
			return nil
		}
		fmt.Printf("✅ Sync endpoint set to %s\n", url)
		fmt.Println("Check it with: gradebook sync test")
		return nil
	})
}

// requireEndpoint returns the configured endpoint or a ValidationError.
func requireEndpoint(a *App) (string, error) {
	st := a.Store.SyncStatus()
	if st.Endpoint == "" {
		return "", &gradebook.ValidationError{Field: "scriptUrl", Message: "no sync endpoint configured; run 'gradebook sync configure <url>'"}
	}
	return st.Endpoint, nil
}

func runSyncTest(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		endpoint, err := requireEndpoint(a)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmdContext(cmd), a.Config.GetSyncTimeout())
		defer cancel()
		if _, err := a.Client.TestConnection(ctx, endpoint); err != nil {
			a.Store.MarkSyncFailed(err)
			fmt.Printf("❌ Connection failed: %v\n", err)
			return nil
		}
		fmt.Println("✅ Connection OK")
		return nil
	})
}

func runSyncPush(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		if _, err := requireEndpoint(a); err != nil {
			return err
		}
		out, err := a.Store.PushNow(cmdContext(cmd))
		if err != nil {
			fmt.Printf("⚠ Push failed (data saved locally): %v\n", err)
			return nil
		}
		if out == gradebook.PushOK {
			fmt.Println("✅ Pushed and confirmed.")
		} else {
			fmt.Println("↑ Pushed; the web app did not confirm receipt.")
		}
		return nil
	})
}

func runSyncPull(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		endpoint, err := requireEndpoint(a)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmdContext(cmd), a.Config.GetSyncTimeout())
		defer cancel()
		res, err := a.Client.Pull(ctx, endpoint)
		if err != nil {
			a.Store.MarkSyncFailed(err)
			fmt.Printf("⚠ Pull failed: %v\n", err)
			return nil
		}
		if res.Outcome == remote.OutcomeNotFound {
			fmt.Println("No data found in the spreadsheet.")
			return nil
		}
		if err := a.Store.ApplyRemote(*res.Data); err != nil {
			return err
		}
		ov := a.Store.Overview()
		fmt.Printf("✅ Loaded %d students and %d assessments from the spreadsheet\n", ov.Students, ov.Assessments)
		return nil
	})
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	return withApp(func(a *App) error {
		styles := ui.DefaultStyles()
		st := a.Store.SyncStatus()
		fmt.Println(styles.SyncBadge(string(st.Status)))
		if st.Endpoint == "" {
			fmt.Println("No endpoint configured.")
			return nil
		}
		fmt.Printf("Endpoint:  %s\n", st.Endpoint)
		if st.LastSync != nil {
			fmt.Printf("Last sync: %s\n", st.LastSync.Local().Format(time.DateTime))
		} else {
			fmt.Println("Last sync: never")
		}
		return nil
	})
}

func init() {
	syncConfigureCmd.Flags().BoolVar(&syncClear, "clear", false, "Remove the endpoint and work locally only")

	syncCmd.AddCommand(syncConfigureCmd, syncTestCmd, syncPushCmd, syncPullCmd, syncStatusCmd)
}
