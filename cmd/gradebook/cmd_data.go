package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gradebook/internal/persist"

	"github.com/spf13/cobra"
)

var importYes bool

// exportCmd writes a backup
var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write a JSON backup of all data",
	Long: `Write the whole gradebook as indented JSON. Without a path the file is
assessment-tracker-backup-YYYY-MM-DD.json in the workspace.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

// importCmd restores a backup
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all data with a JSON backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runExport(cmd *cobra.Command, args []string) error {
	path := filepath.Join(workspace, persist.ExportFilename(time.Now()))
	if len(args) == 1 {
		path = args[0]
	}
	return withSession(func(a *App) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		if err := persist.Export(f, a.Store.Snapshot()); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write export file: %w", err)
		}
		fmt.Printf("💾 Exported to %s\n", path)
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	// Parse before touching anything so a bad file leaves the data as it was.
	state, err := persist.Import(f)
	if err != nil {
		return err
	}

	if !importYes {
		fmt.Print("This will replace all current data. Continue? [y/N] ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(line)); a != "y" && a != "yes" {
			fmt.Println("Import cancelled.")
			return nil
		}
	}

	return withSession(func(a *App) error {
		if err := a.Store.Replace(state); err != nil {
			return err
		}
		ov := a.Store.Overview()
		fmt.Printf("✅ Imported %d students and %d assessments\n", ov.Students, ov.Assessments)
		return nil
	})
}

func init() {
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Do not ask for confirmation")
}
