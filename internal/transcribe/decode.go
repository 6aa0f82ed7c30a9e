package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DecodeError is a decoding failure with optional command context.
type DecodeError struct {
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

// Error formats decode failures for logs and UI.
func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("decoding: %s", e.Message)
	}

	return fmt.Sprintf(
		"decoding: %s (cmd=%s exit=%d)",
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DecodeResult locates the decoded audio and carries its command log.
type DecodeResult struct {
	AudioPath string
	Log       CommandLog
	tempDir   string
}

// Cleanup removes the temporary decode workspace created by Decode.
func (r *DecodeResult) Cleanup() error {
	if r == nil || r.tempDir == "" {
		return nil
	}

	if err := os.RemoveAll(r.tempDir); err != nil {
		return err
	}
	r.tempDir = ""
	return nil
}

// Decoder converts input media into the mono 16 kHz PCM WAV the
// recognition engine expects.
type Decoder struct {
	ffmpegPath string
	runner     commandRunner
	mkdirTemp  func(dir, pattern string) (string, error)
	removeAll  func(path string) error
	stat       func(name string) (os.FileInfo, error)
}

// NewDecoder constructs the production decoder with OS dependencies.
func NewDecoder() *Decoder {
	return &Decoder{
		ffmpegPath: "ffmpeg",
		runner:     &execRunner{},
		mkdirTemp:  os.MkdirTemp,
		removeAll:  os.RemoveAll,
		stat:       os.Stat,
	}
}

// Decode extracts normalized audio from the input media into a temporary
// workspace. The caller owns the result and must call Cleanup.
func (d *Decoder) Decode(ctx context.Context, inputPath string) (DecodeResult, error) {
	if strings.TrimSpace(inputPath) == "" {
		return DecodeResult{}, &DecodeError{
			Message: "input media path is required",
		}
	}

	if _, err := d.stat(inputPath); err != nil {
		return DecodeResult{}, &DecodeError{
			Message: fmt.Sprintf("cannot access input media: %s", inputPath),
			Err:     err,
		}
	}

	tempDir, err := d.mkdirTemp("", "att-decode-*")
	if err != nil {
		return DecodeResult{}, &DecodeError{
			Message: "failed to create temporary workspace",
			Err:     err,
		}
	}

	outPath := filepath.Join(tempDir, "decoded-16k-mono.wav")
	args := buildFFmpegArgs(inputPath, outPath)

	cmdResult, runErr := d.runner.Run(ctx, d.ffmpegPath, args...)
	log := logFromResult(d.ffmpegPath, args, cmdResult)
	if runErr != nil {
		_ = d.removeAll(tempDir)
		return DecodeResult{}, &DecodeError{
			Message:    "ffmpeg audio conversion failed",
			CommandLog: log,
			Err:        runErr,
		}
	}

	if _, err := d.stat(outPath); err != nil {
		_ = d.removeAll(tempDir)
		return DecodeResult{}, &DecodeError{
			Message:    "ffmpeg completed but decoded audio is missing",
			CommandLog: log,
			Err:        err,
		}
	}

	return DecodeResult{
		AudioPath: outPath,
		Log:       log,
		tempDir:   tempDir,
	}, nil
}

// buildFFmpegArgs builds decoding CLI args for mono 16k PCM WAV output.
func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

// NewDecoderForTests constructs a decoder with injectable dependencies.
func NewDecoderForTests(
	ffmpegPath string,
	runner commandRunner,
	mkdirTemp func(dir, pattern string) (string, error),
	removeAll func(path string) error,
	stat func(name string) (os.FileInfo, error),
) *Decoder {
	return &Decoder{
		ffmpegPath: ffmpegPath,
		runner:     runner,
		mkdirTemp:  mkdirTemp,
		removeAll:  removeAll,
		stat:       stat,
	}
}
