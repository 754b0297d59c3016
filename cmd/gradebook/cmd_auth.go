package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"gradebook/internal/gradebook"

	"github.com/spf13/cobra"
)

var loginPIN string

// loginCmd unlocks the gradebook
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Unlock the gradebook with the PIN",
	Long: `Unlock the gradebook. The PIN is read from --pin or from standard input.

The PIN only gates the CLI; it does not encrypt anything.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// logoutCmd locks the gradebook
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Lock the gradebook",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

// pinCmd changes the PIN
var pinCmd = &cobra.Command{
	Use:   "pin <new-pin>",
	Short: "Change the PIN (at least 4 characters)",
	Args:  cobra.ExactArgs(1),
	RunE:  runChangePIN,
}

func runLogin(cmd *cobra.Command, args []string) error {
	pin := loginPIN
	if pin == "" {
		fmt.Print("PIN: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read PIN: %w", err)
		}
		pin = strings.TrimSpace(line)
		fmt.Println()
	}

	return withApp(func(a *App) error {
		if err := a.Store.Login(pin); err != nil {
			if errors.Is(err, gradebook.ErrIncorrectPIN) {
				return errors.New("incorrect PIN")
			}
			return err
		}
		fmt.Println("🔓 Logged in.")
		return nil
	})
}

func runLogout(cmd *cobra.Command, args []string) error {
	return withApp(func(a *App) error {
		if err := a.Store.Logout(); err != nil {
			return err
		}
		fmt.Println("🔒 Logged out.")
		return nil
	})
}

func runChangePIN(cmd *cobra.Command, args []string) error {
	return withSession(func(a *App) error {
		if err := a.Store.ChangePIN(args[0]); err != nil {
			return err
		}
		fmt.Println("✅ PIN changed.")
		return nil
	})
}

func init() {
	loginCmd.Flags().StringVar(&loginPIN, "pin", "", "PIN (prompted when omitted)")
}
