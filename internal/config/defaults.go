package config

import (
	"os"
	"path/filepath"

	"att/internal/domain"
)

// DefaultSettings returns baseline local configuration for first launch:
// artifacts land in whisper_outputs under the working directory, the
// small model, automatic language detection.
func DefaultSettings() domain.Settings {
	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}

	return domain.Settings{
		OutputDir: filepath.Join(workDir, "whisper_outputs"),
		Model:     "small",
		Language:  "auto",
	}
}

// DataDir returns the per-user directory holding persisted settings and
// job history.
func DataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".att")
}
