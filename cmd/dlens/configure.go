package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/defectlens/defectlens-go/internal/config"
)

var (
	configureToken  string
	configureShow   bool
	configureDelete bool
	configureInit   bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage the GitHub token and config file",
	Long: `Configure stores the GitHub token used by defect fetching in the OS
keychain (or a user-only credentials file on headless systems), and can
write a starter config file.`,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().StringVar(&configureToken, "token", "", "GitHub token to store")
	configureCmd.Flags().BoolVar(&configureShow, "show", false, "show the configured token (masked)")
	configureCmd.Flags().BoolVar(&configureDelete, "delete", false, "remove the stored token")
	configureCmd.Flags().BoolVar(&configureInit, "init-config", false, "write the current settings to ~/.defectlens/config.yaml")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	cm := config.NewCredentialManager(logger)

	switch {
	case configureShow:
		fmt.Printf("GitHub token: %s\n", config.MaskToken(cm.StoredGitHubToken()))
		return nil

	case configureDelete:
		if err := cm.DeleteGitHubToken(); err != nil {
			return fmt.Errorf("failed to delete token: %w", err)
		}
		fmt.Println("✅ GitHub token removed")
		return nil

	case configureInit:
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path := filepath.Join(homeDir, ".defectlens", "config.yaml")
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Printf("✅ Wrote %s\n", path)
		return nil

	case configureToken != "":
		if err := cm.SaveGitHubToken(configureToken); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		fmt.Println("✅ GitHub token saved")
		return nil

	default:
		if _, err := cm.PromptGitHubToken(); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		fmt.Println("✅ GitHub token saved")
		return nil
	}
}
