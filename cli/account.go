// ABOUTME: Marketplace account CLI commands
// ABOUTME: Handles consent URL, code exchange, manual token entry, status, and disconnect
package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/harperreed/resell/models"
	"github.com/harperreed/resell/sync"
	"golang.org/x/term"
)

// AuthURLCommand prints the eBay consent URL
func AuthURLCommand(mgr *sync.Manager, args []string) error {
	fs := flag.NewFlagSet("auth-url", flag.ExitOnError)
	state := fs.String("state", "resell", "Opaque state echoed back on the redirect")
	open := fs.Bool("open", false, "Open the URL in the default browser")
	_ = fs.Parse(args)

	url, err := mgr.AuthURL(*state)
	if err != nil {
		return err
	}

	fmt.Println(url)
	if *open {
		_ = openBrowser(url)
	}
	return nil
}

// ConnectCommand completes the consent flow with an authorization code.
// Without --code it opens the consent page and reads the code from stdin.
func ConnectCommand(mgr *sync.Manager, args []string) error {
	fs := flag.NewFlagSet("connect", flag.ExitOnError)
	code := fs.String("code", "", "Authorization code from the consent redirect")
	_ = fs.Parse(args)

	if *code == "" {
		url, err := mgr.AuthURL("resell")
		if err != nil {
			return err
		}

		fmt.Println("Opening browser for eBay consent...")
		fmt.Printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", url)
		_ = openBrowser(url)

		fmt.Print("Paste the authorization code: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read authorization code: %w", err)
		}
		*code = strings.TrimSpace(line)
	}

	cred, err := mgr.ExchangeCodeForTokens(context.Background(), *code)
	if err != nil {
		return err
	}

	printLinkedAccount(cred)
	fmt.Println("Ready to sync! Run 'resell market sync' to import purchases.")
	return nil
}

// ManualTokenCommand stores an operator-supplied token pair.
// The access token is read without echo when --access-token is omitted.
func ManualTokenCommand(mgr *sync.Manager, args []string) error {
	fs := flag.NewFlagSet("manual-token", flag.ExitOnError)
	accessToken := fs.String("access-token", "", "OAuth user access token")
	refreshToken := fs.String("refresh-token", "", "OAuth refresh token (optional)")
	_ = fs.Parse(args)

	if *accessToken == "" {
		token, err := readSecret("Access token: ")
		if err != nil {
			return err
		}
		*accessToken = token
	}

	cred, err := mgr.StoreManualToken(context.Background(), *accessToken, *refreshToken)
	if err != nil {
		return err
	}

	printLinkedAccount(cred)
	if !cred.HasRefreshToken() {
		fmt.Println("  Note: no refresh token stored; re-link when the access token expires")
	}
	return nil
}

// StatusCommand shows the linked account and token health
func StatusCommand(mgr *sync.Manager, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	_ = fs.Parse(args)

	status, err := mgr.ConnectionStatus(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get connection status: %w", err)
	}

	if !status.Connected {
		fmt.Println("Not connected. Run 'resell market connect' to link an eBay account.")
		return nil
	}

	fmt.Printf("Account:  %s\n", status.VendorUsername)
	fmt.Printf("ID:       %s\n", status.AccountID)
	fmt.Printf("Tokens:   %s\n", tokenStatusLabel(status.TokenStatus))
	if status.LastSyncAt != nil {
		fmt.Printf("Last sync: %s\n", formatTimeSince(*status.LastSyncAt))
	} else {
		fmt.Println("Last sync: never")
	}
	return nil
}

// DisconnectCommand deactivates the linked account
func DisconnectCommand(mgr *sync.Manager, args []string) error {
	fs := flag.NewFlagSet("disconnect", flag.ExitOnError)
	_ = fs.Parse(args)

	n, err := mgr.Disconnect(context.Background())
	if err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}

	if n == 0 {
		fmt.Println("No linked account")
		return nil
	}
	fmt.Println("✓ Account disconnected")
	return nil
}

func printLinkedAccount(cred *models.Credential) {
	fmt.Printf("\n✓ Linked eBay account: %s\n", cred.VendorUsername)
	fmt.Printf("  ID: %s\n", cred.ID)
	fmt.Printf("  Access token expires: %s\n", cred.AccessTokenExpiresAt.Local().Format("2006-01-02 15:04"))
	if cred.RefreshTokenExpiresAt != nil {
		fmt.Printf("  Refresh token expires: %s\n", cred.RefreshTokenExpiresAt.Local().Format("2006-01-02"))
	}
}

func tokenStatusLabel(status string) string {
	switch status {
	case models.TokenStatusActive:
		return "✓ active"
	case models.TokenStatusExpiringSoon:
		return "⚠ expiring soon"
	case models.TokenStatusExpired:
		return "✗ expired (re-link required)"
	default:
		return status
	}
}

func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	secret, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}
