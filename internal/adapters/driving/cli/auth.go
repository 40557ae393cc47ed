package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mantis-labs/mantis-cli/internal/adapters/driven/config/file"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Store credentials",
}

var authCookieCmd = &cobra.Command{
	Use:   "cookie",
	Short: "Store the backend session cookie",
	Long: `Prompts for the backend sessionid cookie (and optional csrftoken) and
stores them in the config file. Space creation submits these with every
request; copy them from a logged-in browser session.`,
	RunE: runAuthCookie,
}

var authGithubCmd = &cobra.Command{
	Use:   "github",
	Short: "Store a GitHub personal access token",
	Long: `Prompts for a GitHub personal access token used by the GitHub Commits
connection. Without one, only public repositories are readable, within
the anonymous rate limit.`,
	RunE: runAuthGithub,
}

func init() {
	authCmd.AddCommand(authCookieCmd)
	authCmd.AddCommand(authGithubCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthCookie(cmd *cobra.Command, args []string) error {
	if settings == nil {
		return errors.New("config store not configured")
	}

	session, err := promptSecret(cmd, "sessionid: ")
	if err != nil {
		return err
	}
	if session == "" {
		return errors.New("sessionid must not be empty")
	}
	if err := settings.Set(file.KeySessionCookie, session); err != nil {
		return fmt.Errorf("saving sessionid: %w", err)
	}

	csrf, err := promptSecret(cmd, "csrftoken (optional): ")
	if err != nil {
		return err
	}
	if csrf != "" {
		if err := settings.Set(file.KeyCSRFCookie, csrf); err != nil {
			return fmt.Errorf("saving csrftoken: %w", err)
		}
	}

	cmd.Printf("Cookies saved to %s\n", settings.Path())
	return nil
}

func runAuthGithub(cmd *cobra.Command, args []string) error {
	if settings == nil {
		return errors.New("config store not configured")
	}

	token, err := promptSecret(cmd, "GitHub token: ")
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("token must not be empty")
	}
	if err := settings.Set(file.KeyGitHubToken, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	cmd.Printf("Token saved to %s\n", settings.Path())
	return nil
}

// promptSecret reads a secret without echoing when stdin is a terminal,
// falling back to a plain line read for piped input.
func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	cmd.Print(prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}

	var line string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &line); err != nil && err.Error() != "unexpected newline" {
		return "", nil
	}
	return strings.TrimSpace(line), nil
}
