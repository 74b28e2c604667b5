package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"flickrgeo/pkg/auth"
	"flickrgeo/pkg/config"
	"flickrgeo/pkg/flickr"
	"flickrgeo/pkg/logger"
)

var verifyLogin bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Flickr API keys",
	Long: `Manage stored Flickr API keys.

Keys are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (FLICKRGEO_API_KEY, read only)

Never share your API key or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a Flickr API key",
	Long: `Store a Flickr API key and secret in the system keychain or the
encrypted credential file.

The key and secret are read without echo when stdin is a terminal.`,
	Example: `  # Interactive login as the "default" account
  flickrgeo auth login

  # Store a second key and check it against the API
  flickrgeo auth login research --verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored API key",
	Long: `Remove a stored Flickr API key.

If no name is given you can pick one from the stored accounts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().BoolVar(&verifyLogin, "verify", false, "check the key with flickr.test.echo before storing it")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := "default"
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)
	auth.PrintAPIKeyGuide(os.Stdout)

	if existing, _ := manager.Retrieve(name); existing != nil {
		if !confirm(reader, fmt.Sprintf("Account '%s' already exists. Replace it? (y/N): ", name)) {
			return nil
		}
	}

	stdout.Println("Enter your key values (they will be hidden as you type):")
	stdout.Print("API key: ")
	apiKey, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	stdout.Print("Secret (optional): ")
	secret, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}

	account := &auth.Account{Name: name, APIKey: apiKey, Secret: secret}

	if verifyLogin {
		stdout.Println("Checking key with Flickr...")
		if err := verifyAccount(cmd.Context(), account); err != nil {
			return fmt.Errorf("key rejected: %w", err)
		}
		stdout.Success("Key accepted by Flickr")
	}

	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	masked := auth.SanitizeAccount(account)
	stdout.Success("Account saved: " + name)
	stdout.Info("API key", masked.APIKey)
	stdout.Println("\nStart a crawl with:")
	if name == "default" {
		stdout.Println(`  flickrgeo crawl -s "2024-01-01 00:00:00" -e "2024-01-02 00:00:00" -o photos.csv`)
	} else {
		stdout.Printf("  flickrgeo crawl -a %s -s \"2024-01-01 00:00:00\" -e \"2024-01-02 00:00:00\" -o photos.csv\n", name)
	}
	return nil
}

// verifyAccount sends one echo request with the new key
func verifyAccount(ctx context.Context, account *auth.Account) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.DefaultConfig().Flickr
	cfg.APIKey = account.APIKey
	cfg.Secret = account.Secret

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	return flickr.NewClient(&cfg, logger.NewNopLogger()).Echo(ctx)
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if len(args) > 0 {
		return removeAccount(manager, args[0])
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		stdout.Warning("No stored accounts found")
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	if len(accounts) == 1 {
		name := accounts[0].Name
		if !confirm(reader, fmt.Sprintf("Remove account '%s'? (y/N): ", name)) {
			return nil
		}
		return removeAccount(manager, name)
	}

	stdout.Println("Select account to remove:")
	for i, account := range accounts {
		stdout.Printf("  %d. %s\n", i+1, account.Name)
	}
	stdout.Printf("  0. Cancel\n\n")
	stdout.Print("Choice: ")

	choice, err := readChoice(reader, len(accounts))
	if err != nil {
		return err
	}
	if choice == 0 {
		return nil
	}
	return removeAccount(manager, accounts[choice-1].Name)
}

func removeAccount(manager *auth.Manager, name string) error {
	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}
	stdout.Success("Account removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		stdout.Info("No stored accounts", "use 'flickrgeo auth login' to add one")
		return nil
	}

	stdout.Highlight("Stored Accounts")
	stdout.Println()
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		stdout.Printf("%d. %s\n", i+1, sanitized.Name)
		rows := [][2]string{{"API key", sanitized.APIKey}}
		if sanitized.Secret != "" {
			rows = append(rows, [2]string{"Secret", sanitized.Secret})
		}
		if !sanitized.LastModified.IsZero() {
			rows = append(rows, [2]string{"Last modified", sanitized.LastModified.Format(time.DateTime)})
		}
		stdout.Table(rows)
		stdout.Println()
	}
	return nil
}

// confirm asks a yes/no question that defaults to no
func confirm(reader *bufio.Reader, prompt string) bool {
	stdout.Print(prompt)
	input, _ := reader.ReadString('\n')
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y")
}

// readChoice reads a menu number between 0 and last
func readChoice(reader *bufio.Reader, last int) (int, error) {
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	choice, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || choice < 0 || choice > last {
		return 0, fmt.Errorf("invalid choice %q", strings.TrimSpace(input))
	}
	return choice, nil
}

// readSecret reads a value from stdin without echoing when it is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		value, err := term.ReadPassword(fd)
		stdout.Println()
		if err == nil {
			return strings.TrimSpace(string(value)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
