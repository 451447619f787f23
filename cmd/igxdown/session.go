package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yasarefe-official/igxdown/pkg/session"
)

// sessionCmd manages the stored Instagram session
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the Instagram session used for authenticated downloads",
	Long: `Manage the Instagram session the bot uses to open login-walled posts.

The session is stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (backward compatibility)

Never share your session values or config files!`,
}

// sessionSetCmd stores session cookies interactively
var sessionSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store Instagram session cookies securely",
	Long: `Store Instagram session cookies in the system keychain or an
encrypted file.

You will be prompted for:
  - Instagram username
  - Session ID (from the sessionid cookie)
  - CSRF Token (from the csrftoken cookie)
  - User Agent (optional, press Enter for default)

To get these values:
1. Log into Instagram in your browser
2. Open Developer Tools (F12)
3. Go to Application/Storage > Cookies
4. Find and copy the sessionid and csrftoken values`,
	RunE: runSessionSet,
}

// sessionClearCmd removes the stored session
var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored Instagram session",
	RunE:  runSessionClear,
}

// sessionShowCmd prints a sanitized view of the stored session
var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored session with secrets redacted",
	RunE:  runSessionShow,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionSetCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionCmd.AddCommand(sessionShowCmd)
}

func runSessionSet(cmd *cobra.Command, args []string) error {
	manager, err := session.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Instagram username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}

	fmt.Println("\nEnter your cookie values (they will be hidden as you type):")

	fmt.Print("sessionid cookie value: ")
	sessionID, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read session id: %w", err)
	}
	if len(sessionID) < 20 {
		return fmt.Errorf("that does not look like a valid sessionid, it should be a long string")
	}

	fmt.Print("\ncsrftoken cookie value: ")
	csrfToken, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read csrf token: %w", err)
	}

	fmt.Print("\nUser Agent (press Enter to use default): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	account := &session.Account{
		Username:  username,
		SessionID: sessionID,
		CSRFToken: csrfToken,
		UserAgent: userAgent,
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	fmt.Printf("\nSession for %s stored.\n", username)
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	manager, err := session.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}
	if err := manager.Delete(); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	fmt.Println("Stored session removed.")
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	manager, err := session.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}
	account, err := manager.Retrieve()
	if err != nil {
		fmt.Println("No session stored.")
		return nil
	}

	fmt.Printf("Username:   %s\n", account.Username)
	fmt.Printf("SessionID:  %s\n", redact(account.SessionID))
	fmt.Printf("CSRF Token: %s\n", redact(account.CSRFToken))
	if account.UserAgent != "" {
		fmt.Printf("User Agent: %s\n", account.UserAgent)
	}
	return nil
}

// readPassword reads a line without echoing it
func readPassword() (string, error) {
	value, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(value)), nil
}

func redact(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
