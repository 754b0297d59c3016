package main

import (
	"fmt"
	"strings"

	"gradebook/cmd/gradebook/ui"
	"gradebook/internal/gradebook"

	"github.com/spf13/cobra"
)

// personalCmd keeps the per-student personal log
var personalCmd = &cobra.Command{
	Use:   "personal",
	Short: "Keep a personal log per student",
	Long: `Record personal observations about a student under one of five categories:
behaviour, events, social, interests, extracurricular.`,
}

var personalAddCmd = &cobra.Command{
	Use:   "add <student> <category> <text...>",
	Short: "Add a personal entry",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runPersonalAdd,
}

var personalEditCmd = &cobra.Command{
	Use:   "edit <student> <category> <entry-id> <text...>",
	Short: "Rewrite a personal entry",
	Args:  cobra.MinimumNArgs(4),
	RunE:  runPersonalEdit,
}

var personalRmCmd = &cobra.Command{
	Use:     "rm <student> <category> <entry-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a personal entry",
	Args:    cobra.ExactArgs(3),
	RunE:    runPersonalRm,
}

var personalListCmd = &cobra.Command{
	Use:   "list <student> [category]",
	Short: "List personal entries, most recently written first",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runPersonalList,
}

func runPersonalAdd(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		st, err := resolveStudent(a.Store, args[0])
		if err != nil {
			return err
		}
		e, err := a.Store.AddPersonalEntry(st.ID, gradebook.Category(args[1]), joinArgs(args[2:]))
		if err != nil {
			return err
		}
		fmt.Printf("✅ Added %s entry for %s (id %s)\n", strings.ToLower(args[1]), st.FullName, e.ID)
		return nil
	})
}

func runPersonalEdit(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		st, err := resolveStudent(a.Store, args[0])
		if err != nil {
			return err
		}
		if _, err := a.Store.EditPersonalEntry(st.ID, gradebook.Category(args[1]), args[2], joinArgs(args[3:])); err != nil {
			return err
		}
		fmt.Printf("✅ Updated entry %s\n", args[2])
		return nil
	})
}

func runPersonalRm(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		st, err := resolveStudent(a.Store, args[0])
		if err != nil {
			return err
		}
		if err := a.Store.DeletePersonalEntry(st.ID, gradebook.Category(args[1]), args[2]); err != nil {
			return err
		}
		fmt.Printf("🗑  Deleted entry %s\n", args[2])
		return nil
	})
}

func runPersonalList(cmd *cobra.Command, args []string) error {
	categories := gradebook.Categories
	if len(args) == 2 {
		categories = []gradebook.Category{gradebook.Category(strings.ToLower(args[1]))}
	}
	return withSession(func(a *App) error {
		st, err := resolveStudent(a.Store, args[0])
		if err != nil {
			return err
		}
		styles := ui.DefaultStyles()
		total := 0
		for _, c := range categories {
			entries, err := a.Store.PersonalEntries(st.ID, c)
			if err != nil {
				return err
			}
			table := ui.NewTable(strings.ToUpper(string(c)), "Date", "Entry", "ID")
			for _, e := range entries {
				date := e.Date.Format(gradebook.DateLayout)
				if e.LastEdited != nil {
					date += " (edited " + e.LastEdited.Format(gradebook.DateLayout) + ")"
				}
				table.AddRow(date, truncate(e.Text, 60), e.ID)
			}
			fmt.Print(table.View(styles))
			total += table.Len()
		}
		if total == 0 {
			fmt.Printf("No personal entries for %s yet.\n", st.FullName)
		}
		return nil
	})
}

func init() {
	personalCmd.AddCommand(personalAddCmd, personalEditCmd, personalRmCmd, personalListCmd)
}
