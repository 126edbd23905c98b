package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sncloud/sncloud-go/internal/config"
	"github.com/sncloud/sncloud-go/internal/supernote"
)

// envPassword supplies the login password non-interactively, for scripts
// and CI. Interactive use prompts without echo instead.
const envPassword = "SNCLOUD_PASSWORD"

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with Supernote Cloud and save the token",
		RunE:  runLogin,
	}

	cmd.Flags().String("account", "", "account email (prompted when omitted)")

	return cmd
}

// loginJSONOutput is the JSON output schema for login.
type loginJSONOutput struct {
	Account  string `json:"account"`
	SavedTo  string `json:"saved_to"`
	LoggedIn bool   `json:"logged_in"`
}

func runLogin(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := cmd.Context()

	account, err := cmd.Flags().GetString("account")
	if err != nil {
		return err
	}

	if account == "" {
		account, err = promptAccount()
		if err != nil {
			return err
		}
	}

	password := os.Getenv(envPassword)
	if password == "" {
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	client := supernote.NewClient(os.Getenv(envBaseURL), defaultHTTPClient(), logger)

	token, err := client.Login(ctx, account, password)
	if err != nil {
		return err
	}

	cfgPath := config.ResolvePath(flagConfigPath)
	if err := config.Save(cfgPath, &config.Config{AccessToken: token}); err != nil {
		return err
	}

	logger.Debug("token saved", "path", cfgPath)

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(loginJSONOutput{Account: account, SavedTo: cfgPath, LoggedIn: true})
	}

	statusf("Login successful.\n")

	return nil
}

// promptAccount reads the account email from stdin. Refuses to prompt
// when stdin is not a terminal; scripted callers should pass --account.
func promptAccount() (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return "", fmt.Errorf("%w: no terminal for account prompt, use --account", supernote.ErrInvalidArgument)
	}

	// Prompts go to stderr so they never mix with command output.
	fmt.Fprint(os.Stderr, "Account (email): ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading account: %w", err)
	}

	account := strings.TrimSpace(line)
	if account == "" {
		return "", fmt.Errorf("%w: empty account", supernote.ErrInvalidArgument)
	}

	return account, nil
}

// promptPassword reads the password without echo. Refuses to prompt when
// stdin is not a terminal; scripted callers should set SNCLOUD_PASSWORD.
func promptPassword() (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return "", fmt.Errorf("%w: no terminal for password prompt, set %s", supernote.ErrInvalidArgument, envPassword)
	}

	fmt.Fprint(os.Stderr, "Password: ")

	raw, err := term.ReadPassword(int(syscall.Stdin))

	// The echo-less read swallows the user's newline.
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	if len(raw) == 0 {
		return "", fmt.Errorf("%w: empty password", supernote.ErrInvalidArgument)
	}

	return string(raw), nil
}
