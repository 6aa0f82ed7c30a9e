package diagnostics

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"att/internal/domain"
)

// toolVersionTimeout bounds how long a version probe may run.
const toolVersionTimeout = 5 * time.Second

// Checker validates external tools and required filesystem paths.
type Checker struct {
	lookPath    func(string) (string, error)
	toolVersion func(name string, args ...string) (string, error)
	mkdirAll    func(string, os.FileMode) error
	createTemp  func(string, string) (*os.File, error)
	remove      func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:    exec.LookPath,
		toolVersion: runToolVersion,
		mkdirAll:    os.MkdirAll,
		createTemp:  os.CreateTemp,
		remove:      os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkFFmpeg(),
		c.checkWhisper(),
		c.checkOutputDir(settings.OutputDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkFFmpeg verifies ffmpeg is on PATH and actually runnable.
func (c *Checker) checkFFmpeg() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "tool_ffmpeg",
		Name: "ffmpeg",
	}

	path, err := c.lookPath("ffmpeg")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Tool not found in PATH: ffmpeg"
		item.Hint = "Install ffmpeg and ensure the binary is available on PATH before starting a transcription job."
		return item
	}

	out, err := c.toolVersion("ffmpeg", "-version")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("ffmpeg found at %s but failed to run", path)
		item.Detail = firstLine(out)
		item.Hint = "Reinstall ffmpeg; the binary on PATH did not execute."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	item.Detail = firstLine(out)
	return item
}

// checkWhisper verifies the whisper CLI is on PATH.
func (c *Checker) checkWhisper() domain.DiagnosticItem {
	path, err := c.lookPath("whisper")
	if err != nil {
		return domain.DiagnosticItem{
			ID:      "tool_whisper",
			Name:    "whisper",
			Status:  domain.DiagnosticStatusFail,
			Message: "Tool not found in PATH: whisper",
			Hint:    "Install the OpenAI whisper CLI (pip install -U openai-whisper) and ensure it is on PATH.",
		}
	}

	return domain.DiagnosticItem{
		ID:      "tool_whisper",
		Name:    "whisper",
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Output directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output directory is empty."
		item.Hint = "Set an output directory where transcript files can be written."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for transcript export."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// runToolVersion executes a version probe and returns its combined output.
func runToolVersion(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), toolVersionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// firstLine trims command output down to its first non-empty line.
func firstLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	toolVersion func(name string, args ...string) (string, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:    lookPath,
		toolVersion: toolVersion,
		mkdirAll:    mkdirAll,
		createTemp:  createTemp,
		remove:      remove,
	}
}
