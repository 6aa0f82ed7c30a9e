package cli

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"att/internal/config"
	"att/internal/domain"
)

var (
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "attcli",
	Short: "Transcribe audio and video files with ffmpeg and whisper",
	Long: `ATT (Audio to Transcription) turns audio and video files into transcripts.
Input media is decoded with ffmpeg, recognized with the OpenAI whisper CLI,
and written out as matching .txt, .json and .srt files.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// loadSettings reads saved settings, falling back to defaults when the
// file is unreadable.
func loadSettings() domain.Settings {
	store := config.NewJSONStore(filepath.Join(config.DataDir(), "settings.json"))
	settings, err := store.Load()
	if err != nil {
		slog.Warn("could not read saved settings, using defaults", "error", err)
		return config.DefaultSettings()
	}
	return settings
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
}
