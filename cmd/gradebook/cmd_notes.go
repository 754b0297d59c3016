package main

import (
	"fmt"
	"strings"

	"gradebook/internal/gradebook"

	"github.com/spf13/cobra"
)

// noteCmd records free-text notes on a student
var noteCmd = &cobra.Command{
	Use:     "note",
	Aliases: []string{"notes"},
	Short:   "Add and list student notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <student> <text...>",
	Short: "Add a note (newest notes are listed first)",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runNoteAdd,
}

var noteListCmd = &cobra.Command{
	Use:   "list [student]",
	Short: "List a student's notes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNoteList,
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		st, err := resolveStudent(a.Store, args[0])
		if err != nil {
			return err
		}
		n, err := a.Store.AddNote(st.ID, joinArgs(args[1:]))
		if err != nil {
			return err
		}
		fmt.Printf("📝 Note added for %s at %s\n", st.FullName, n.Date.Format("2006-01-02 15:04"))
		return nil
	})
}

func runNoteList(cmd *cobra.Command, args []string) error {
	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}
	return withSession(func(a *App) error {
		st, err := resolveStudent(a.Store, ref)
		if err != nil {
			return err
		}
		notes, err := a.Store.Notes(st.ID)
		if err != nil {
			return err
		}
		if len(notes) == 0 {
			fmt.Printf("No notes for %s yet.\n", st.FullName)
			return nil
		}
		fmt.Printf("📝 Notes for %s\n", st.FullName)
		fmt.Println(strings.Repeat("─", 50))
		for _, n := range notes {
			fmt.Printf("%s  %s\n", n.Date.Format(gradebook.DateLayout), n.Text)
		}
		return nil
	})
}

func init() {
	noteCmd.AddCommand(noteAddCmd, noteListCmd)
}
