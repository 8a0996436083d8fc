package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in to the sync server",
	Long: `Exchanges username and password for a session token. The password is
read from --password, then $DAYBOOK_PASSWORD, then the first line of stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prefer $DAYBOOK_PASSWORD or stdin)")
}

func readPassword() (string, error) {
	if loginPassword != "" {
		return loginPassword, nil
	}
	if pw := os.Getenv("DAYBOOK_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	username := strings.TrimSpace(args[0])
	if username == "" {
		fmt.Fprintln(os.Stderr, "username must not be empty")
		os.Exit(1)
	}
	pw, err := readPassword()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a, cleanup := openApp()
	defer cleanup()

	ctx := context.Background()
	tok, err := a.Client.Login(ctx, username, pw)
	if err != nil {
		fatal(cleanup, fmt.Errorf("authentication failed: %w", err))
	}
	if err := a.Session.Save(ctx, username, tok); err != nil {
		fatal(cleanup, err)
	}
	fmt.Printf("Logged in as %s.\n", username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	ctx := context.Background()
	id, err := a.Session.Identity(ctx)
	if err != nil {
		fatal(cleanup, err)
	}
	if err := a.Session.Clear(ctx); err != nil {
		fatal(cleanup, err)
	}
	if id.Username == "" {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("Logged out %s. Local records were kept.\n", id.Username)
	return nil
}
