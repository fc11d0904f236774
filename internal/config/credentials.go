package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// CredentialManager resolves the GitHub token through a priority chain:
// environment variables, then the OS keychain, then the credentials file,
// then an interactive prompt.
type CredentialManager struct {
	keyring    *KeyringManager
	configPath string
}

// Credentials holds the stored credential file contents.
type Credentials struct {
	GitHubToken string `yaml:"github_token"`
}

// NewCredentialManager creates a new credential manager
func NewCredentialManager(logger *logrus.Logger) *CredentialManager {
	homeDir, _ := os.UserHomeDir()
	configPath := filepath.Join(homeDir, ".defectlens", "credentials.yaml")

	return &CredentialManager{
		keyring:    NewKeyringManager(logger),
		configPath: configPath,
	}
}

// StoredGitHubToken checks every non-interactive source: environment
// variables, then the keychain, then the credentials file. Empty means no
// token is configured.
func (cm *CredentialManager) StoredGitHubToken() string {
	// 1. Environment variable (highest priority)
	for _, envVar := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := os.Getenv(envVar); token != "" {
			return token
		}
	}

	// 2. Keychain
	if cm.keyring.IsAvailable() {
		if token, err := cm.keyring.GetGitHubToken(); err == nil && token != "" {
			return token
		}
	}

	// 3. Credentials file
	if creds, err := cm.loadConfigFile(); err == nil && creds.GitHubToken != "" {
		return creds.GitHubToken
	}

	return ""
}

// GetGitHubToken retrieves the GitHub token using the priority chain,
// falling back to an interactive prompt. The token is optional for public
// repositories, so an empty result without an error is a valid outcome.
func (cm *CredentialManager) GetGitHubToken() (string, error) {
	if token := cm.StoredGitHubToken(); token != "" {
		return token, nil
	}

	// Interactive prompt (never in CI or piped runs)
	if isInteractive() {
		fmt.Println("\n⚠️  GitHub Token not found (optional).")
		fmt.Println("   Required for: private repos, higher rate limits")
		fmt.Println("   Create one at: https://github.com/settings/tokens")
		fmt.Println()
		fmt.Print("Enter GitHub Token (or press Enter to skip): ")

		token, _ := cm.readSecurely()
		if token != "" {
			// Save to keychain if available
			if cm.keyring.IsAvailable() {
				cm.keyring.SetGitHubToken(token)
			}
			return token, nil
		}
		return "", nil
	}

	return "", nil
}

// SaveGitHubToken stores the token in the keychain, falling back to the
// credentials file when no keychain is available.
func (cm *CredentialManager) SaveGitHubToken(token string) error {
	if cm.keyring.IsAvailable() {
		return cm.keyring.SetGitHubToken(token)
	}
	return cm.saveConfigFile(Credentials{GitHubToken: token})
}

// PromptGitHubToken interactively reads a token and stores it.
func (cm *CredentialManager) PromptGitHubToken() (string, error) {
	fmt.Print("Enter GitHub Token: ")
	token, err := cm.readSecurely()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("no token entered")
	}
	if err := cm.SaveGitHubToken(token); err != nil {
		return "", err
	}
	return token, nil
}

// DeleteGitHubToken removes the token from the keychain and the
// credentials file.
func (cm *CredentialManager) DeleteGitHubToken() error {
	if err := cm.keyring.DeleteGitHubToken(); err != nil {
		return err
	}
	if err := os.Remove(cm.configPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// loadConfigFile loads credentials from the credentials file
func (cm *CredentialManager) loadConfigFile() (*Credentials, error) {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}

	return &creds, nil
}

// saveConfigFile saves credentials with user-only permissions
func (cm *CredentialManager) saveConfigFile(creds Credentials) error {
	dir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	return os.WriteFile(cm.configPath, data, 0600)
}

// readSecurely reads a token from stdin without echoing
func (cm *CredentialManager) readSecurely() (string, error) {
	// Try to read from terminal (supports password masking)
	if term.IsTerminal(int(syscall.Stdin)) {
		bytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after password input
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	// Fallback: Read from stdin (piped input)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// isInteractive returns true if stdin is a terminal (not piped)
func isInteractive() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// GetConfigPath returns the path to the credentials file
func (cm *CredentialManager) GetConfigPath() string {
	return cm.configPath
}
