// Package main implements the gradebook CLI.
//
// Every command opens the workspace state, runs one store operation and exits.
// Pushes to the spreadsheet mirror run in the background and are awaited on exit.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gradebook/internal/config"
	"gradebook/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "gradebook",
	Short: "gradebook - a local-first assessment tracker",
	Long: `gradebook keeps students, assessments, grades, notes, curriculum progress
and a personal log in a workspace directory, with an optional push/pull mirror
to a spreadsheet web app.

Run 'gradebook login' first; the default PIN is 1234.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ws, err := resolveWorkspace()
		if err != nil {
			return err
		}
		workspace = ws

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := logging.Initialize(workspace, cfg.Logging.ForLogger(verbose)); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		logger = logging.Zap()
		logger.Debug("command starting",
			zap.String("command", cmd.CommandPath()),
			zap.String("workspace", workspace))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

// resolveWorkspace returns the -w flag or the nearest directory holding .gradebook.
func resolveWorkspace() (string, error) {
	if workspace != "" {
		return filepath.Abs(workspace)
	}
	return config.FindWorkspaceRoot()
}

// loadConfig reads the -c flag or the workspace config file.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath(workspace)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logs on stderr)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: nearest directory with .gradebook)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <workspace>/.gradebook/config.yaml)")

	rootCmd.AddCommand(
		loginCmd,
		logoutCmd,
		pinCmd,
		studentCmd,
		assessmentCmd,
		noteCmd,
		curriculumCmd,
		personalCmd,
		syncCmd,
		exportCmd,
		importCmd,
		statsCmd,
		watchCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
