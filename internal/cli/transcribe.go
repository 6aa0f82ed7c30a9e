package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"att/internal/config"
	"att/internal/domain"
	"att/internal/history"
	"att/internal/jobs"
	"att/internal/transcribe"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <media-file>",
	Short: "Transcribe one media file into .txt, .json and .srt artifacts",
	Long: `Transcribe runs the full pipeline for a single media file: the input is
decoded to recognizer audio with ffmpeg, recognized in one whisper call, and
the transcript is written as .txt, .json and .srt files sharing one base
name. Saved settings provide the defaults; flags override them per run.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

var (
	model          string
	language       string
	translate      bool
	wordTimestamps bool
	outputDir      string
)

func init() {
	defaults := config.DefaultSettings()

	transcribeCmd.Flags().StringVarP(&model, "model", "m", defaults.Model, "whisper model size (see attcli models)")
	transcribeCmd.Flags().StringVarP(&language, "language", "l", defaults.Language, "spoken language code, or auto to detect")
	transcribeCmd.Flags().BoolVar(&translate, "translate", false, "translate the transcript to English")
	transcribeCmd.Flags().BoolVarP(&wordTimestamps, "word-timestamps", "w", false, "collect per-word timings")
	transcribeCmd.Flags().StringVarP(&outputDir, "output-dir", "o", defaults.OutputDir, "directory the artifacts are written to")

	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", args[0])
	}

	settings := loadSettings()
	cfg := domain.JobConfig{
		SourcePath:         absPath,
		Model:              settings.Model,
		Language:           settings.Language,
		TranslateToEnglish: settings.TranslateToEnglish,
		WordTimestamps:     settings.WordTimestamps,
	}
	dir := settings.OutputDir

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = model
	}
	if flags.Changed("language") {
		cfg.Language = language
	}
	if flags.Changed("translate") {
		cfg.TranslateToEnglish = translate
	}
	if flags.Changed("word-timestamps") {
		cfg.WordTimestamps = wordTimestamps
	}
	if flags.Changed("output-dir") {
		dir = outputDir
	}

	if !transcribe.KnownModel(cfg.Model) {
		return fmt.Errorf("unknown model size: %s", cfg.Model)
	}

	ctrl := jobs.NewController()
	if hist, err := history.Open(filepath.Join(config.DataDir(), "history.db")); err != nil {
		slog.Warn("job history disabled", "error", err)
	} else {
		defer hist.Close()
		ctrl.SetRecorder(hist)
	}
	ctrl.SetOnEvent(logJobEvent)

	// SIGINT maps to the cooperative cancel: recognition in flight keeps
	// running and its result is discarded at the checkpoint.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = ctrl.RequestCancel()
	}()

	if _, err := ctrl.Start(cfg, dir); err != nil {
		return err
	}
	<-ctrl.Done()

	switch ctrl.Current().Status {
	case domain.JobStatusCompleted:
		if result, ok := ctrl.LastResult(); ok {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Artifacts.TextPath)
			fmt.Fprintln(out, result.Artifacts.JSONPath)
			fmt.Fprintln(out, result.Artifacts.SRTPath)
		}
		if !quiet {
			slog.Info("done")
		}
		return nil
	case domain.JobStatusCancelled:
		return errors.New("job cancelled; recognition result discarded")
	default:
		return errors.New(failureMessage(ctrl))
	}
}

// logJobEvent mirrors bus events onto the process logger.
func logJobEvent(event jobs.Event) {
	switch event.Type {
	case jobs.EventTypeLog:
		if event.Command != "" {
			slog.Debug("tool finished", "command", event.Command, "exitCode", event.ExitCode)
			return
		}
		slog.Warn(event.Message)
	case jobs.EventTypeError:
		slog.Error(event.Message)
		if event.Stderr != "" {
			slog.Debug("tool output", "command", event.Command, "stderr", event.Stderr)
		}
	default:
		slog.Info(event.Message)
	}
}

// failureMessage pulls the terminal error published for the last job.
func failureMessage(ctrl *jobs.Controller) string {
	events := ctrl.EventsSince(0)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == jobs.EventTypeError {
			return events[i].Message
		}
	}
	return "transcription failed"
}
