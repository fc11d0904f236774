package config

import (
	"testing"
)

func TestKeyringManagerRoundTrip(t *testing.T) {
	km := NewKeyringManager(nil)

	// Skip on headless systems without a keychain backend
	if !km.IsAvailable() {
		t.Skip("Keychain not available, skipping test")
	}

	defer km.DeleteGitHubToken()

	testToken := "ghp_test123456789"

	if err := km.SetGitHubToken(testToken); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}

	retrieved, err := km.GetGitHubToken()
	if err != nil {
		t.Fatalf("Failed to get token: %v", err)
	}
	if retrieved != testToken {
		t.Errorf("Expected token %s, got %s", testToken, retrieved)
	}

	if err := km.DeleteGitHubToken(); err != nil {
		t.Fatalf("Failed to delete token: %v", err)
	}

	retrieved, err = km.GetGitHubToken()
	if err != nil {
		t.Fatalf("Error getting token after deletion: %v", err)
	}
	if retrieved != "" {
		t.Errorf("Expected empty token after deletion, got %s", retrieved)
	}
}

func TestKeyringManagerGetMissingToken(t *testing.T) {
	km := NewKeyringManager(nil)

	if !km.IsAvailable() {
		t.Skip("Keychain not available, skipping test")
	}

	km.DeleteGitHubToken()

	token, err := km.GetGitHubToken()
	if err != nil {
		t.Fatalf("Expected no error for missing token, got: %v", err)
	}
	if token != "" {
		t.Errorf("Expected empty string for missing token, got: %s", token)
	}
}

func TestKeyringManagerSetEmptyToken(t *testing.T) {
	km := NewKeyringManager(nil)

	if err := km.SetGitHubToken(""); err == nil {
		t.Error("Expected error when saving empty token")
	}
}

func TestKeyringManagerDeleteNonExistentToken(t *testing.T) {
	km := NewKeyringManager(nil)

	if !km.IsAvailable() {
		t.Skip("Keychain not available, skipping test")
	}

	km.DeleteGitHubToken()

	// Delete again (should not error)
	if err := km.DeleteGitHubToken(); err != nil {
		t.Errorf("Expected no error when deleting non-existent token, got: %v", err)
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Standard token",
			input:    "ghp_1234567890abcdefg",
			expected: "ghp_123...defg",
		},
		{
			name:     "Empty token",
			input:    "",
			expected: "(not set)",
		},
		{
			name:     "Short token",
			input:    "ghp_abc",
			expected: "***",
		},
		{
			name:     "Exact 12 chars",
			input:    "ghp_12345678",
			expected: "ghp_123...5678",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MaskToken(tt.input)
			if result != tt.expected {
				t.Errorf("MaskToken(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}
