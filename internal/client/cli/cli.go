package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/authkeeper/internal/client/api"
	"github.com/iudanet/authkeeper/internal/client/auth"
	"github.com/iudanet/authkeeper/internal/client/iocli"
)

// Passwords задает неинтерактивные источники пароля для login
type Passwords struct {
	FromFile string
	FromArgs string
}

type Cli struct {
	io          iocli.IO
	apiClient   *api.Client
	authService *auth.Service
	passwords   Passwords
}

func New(io iocli.IO, apiClient *api.Client, authService *auth.Service, passwords Passwords) *Cli {
	return &Cli{
		io:          io,
		apiClient:   apiClient,
		authService: authService,
		passwords:   passwords,
	}
}

// getPassword retrieves the login password from various sources with priority:
// 1. Environment variable AUTHKEEPER_PASSWORD
// 2. File specified via --password-file
// 3. Command-line parameter --password
// 4. Interactive prompt (fallback)
func (c *Cli) getPassword() (string, error) {
	// Priority 1: Environment variable
	if envPassword := os.Getenv("AUTHKEEPER_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	// Priority 2: File
	if c.passwords.FromFile != "" {
		content, err := os.ReadFile(c.passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	// Priority 3: CLI parameter
	if c.passwords.FromArgs != "" {
		return c.passwords.FromArgs, nil
	}

	// Priority 4: Interactive prompt (fallback)
	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	return password, nil
}

func PrintUsage() {
	fmt.Println("AuthKeeper Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  authkeeper [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version               Show version information")
	fmt.Println("  --server URL            Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH               Path to local session database")
	fmt.Println("  --password PASSWORD     Login password (not recommended, use env var or file)")
	fmt.Println("  --password-file PATH    Path to file containing login password")
	fmt.Println()
	fmt.Println("Password Priority (highest to lowest):")
	fmt.Println("  1. AUTHKEEPER_PASSWORD environment variable")
	fmt.Println("  2. --password-file (file path)")
	fmt.Println("  3. --password (command line)")
	fmt.Println("  4. Interactive prompt (fallback)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login                     Login to server")
	fmt.Println("  logout                    Logout and revoke the session")
	fmt.Println("  status                    Show local authentication status")
	fmt.Println("  whoami                    Show current user as seen by the server")
	fmt.Println("  passwd                    Change own password")
	fmt.Println("  token list                List own API tokens")
	fmt.Println("  token create              Create a new API token")
	fmt.Println("  token revoke <id>         Revoke an API token")
	fmt.Println("  user list                 List users (admin)")
	fmt.Println("  user create               Create a user (admin)")
	fmt.Println("  user get <id>             Show user details (admin)")
	fmt.Println("  user update <id>          Update a user (admin)")
	fmt.Println("  user delete <id>          Delete a user (admin)")
	fmt.Println("  user reset-password <id>  Reset a user's password (admin)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Interactive password prompt")
	fmt.Println("  authkeeper login")
	fmt.Println("  authkeeper whoami")
	fmt.Println()
	fmt.Println("  # Using environment variable (recommended for automation)")
	fmt.Println("  export AUTHKEEPER_PASSWORD='mySecretPassword123'")
	fmt.Println("  authkeeper login")
	fmt.Println()
	fmt.Println("  # Using password file")
	fmt.Println("  echo 'mySecretPassword123' > ~/.authkeeper-password")
	fmt.Println("  chmod 600 ~/.authkeeper-password")
	fmt.Println("  authkeeper --password-file ~/.authkeeper-password login")
	fmt.Println()
	fmt.Println("  # Other examples")
	fmt.Println("  authkeeper token create")
	fmt.Println("  authkeeper token revoke b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5")
	fmt.Println("  authkeeper --server https://example.com login")
}
