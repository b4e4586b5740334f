package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/pactverify/config.yml
// - macOS: ~/Library/Application Support/pactverify/config.yml
// - Windows: %APPDATA%\pactverify\config.yml
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "pactverify", "config.yml"), nil
}

// ProjectConfigPath returns the path to the project-level config file.
// This is always .pactverify/config.yml relative to the current directory.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.yml")
}

// ProjectConfigDir returns the path to the project-level config directory.
func ProjectConfigDir() string {
	return ".pactverify"
}
