package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"att/internal/transcript"
)

// Request describes one synchronous recognition call. OnLog receives the
// engine command log when configured.
type Request struct {
	AudioPath      string
	Model          string
	Language       string
	Translate      bool
	WordTimestamps bool
	OnLog          func(log CommandLog)
}

// Recognizer runs speech recognition over decoded audio. The call is
// synchronous and not interruptible once started; implementations return
// either a complete transcript or an error, never partial results.
type Recognizer interface {
	Recognize(ctx context.Context, req Request) (transcript.Transcript, error)
}

// RecognitionError is an engine failure with optional command context.
type RecognitionError struct {
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

// Error formats recognition failures for logs and UI.
func (e *RecognitionError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("recognition: %s", e.Message)
	}

	return fmt.Sprintf(
		"recognition: %s (cmd=%s exit=%d)",
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *RecognitionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WhisperRecognizer invokes the whisper CLI once per job and converts its
// JSON result into a transcript.
type WhisperRecognizer struct {
	whisperPath string
	runner      commandRunner
	mkdirTemp   func(dir, pattern string) (string, error)
	removeAll   func(path string) error
	readFile    func(name string) ([]byte, error)
}

// NewWhisperRecognizer constructs the production recognizer.
func NewWhisperRecognizer() *WhisperRecognizer {
	return &WhisperRecognizer{
		whisperPath: "whisper",
		runner:      &execRunner{},
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		readFile:    os.ReadFile,
	}
}

// Recognize runs the engine over req.AudioPath and parses the result file
// the engine drops next to its output directory. The engine process writes
// its own model cache; nothing is passed beyond the model size name.
func (w *WhisperRecognizer) Recognize(ctx context.Context, req Request) (transcript.Transcript, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return transcript.Transcript{}, &RecognitionError{
			Message: "audio path is required",
		}
	}

	outDir, err := w.mkdirTemp("", "att-recognize-*")
	if err != nil {
		return transcript.Transcript{}, &RecognitionError{
			Message: "failed to create temporary workspace",
			Err:     err,
		}
	}
	defer func() {
		_ = w.removeAll(outDir)
	}()

	args := buildWhisperArgs(req, outDir)
	cmdResult, runErr := w.runner.Run(ctx, w.whisperPath, args...)
	log := logFromResult(w.whisperPath, args, cmdResult)
	emitLog(req.OnLog, log)
	if runErr != nil {
		return transcript.Transcript{}, &RecognitionError{
			Message:    "speech recognition failed",
			CommandLog: log,
			Err:        runErr,
		}
	}

	raw, err := w.readFile(filepath.Join(outDir, resultFileName(req.AudioPath)))
	if err != nil {
		return transcript.Transcript{}, &RecognitionError{
			Message:    "recognition finished but the result JSON is missing",
			CommandLog: log,
			Err:        err,
		}
	}

	var res whisperResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return transcript.Transcript{}, &RecognitionError{
			Message:    "recognition result JSON is malformed",
			CommandLog: log,
			Err:        err,
		}
	}

	return transcriptFromResult(res, req.WordTimestamps), nil
}

// emitLog forwards command logs when callback is configured.
func emitLog(cb func(log CommandLog), log CommandLog) {
	if cb != nil {
		cb(log)
	}
}

// buildWhisperArgs builds whisper CLI args for a JSON result export.
func buildWhisperArgs(req Request, outputDir string) []string {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = "small"
	}

	args := []string{
		req.AudioPath,
		"--model", model,
		"--output_format", "json",
		"--output_dir", outputDir,
		"--fp16", "False",
		"--verbose", "False",
	}

	if lang := normalizeLanguage(req.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	if req.Translate {
		args = append(args, "--task", "translate")
	}
	if req.WordTimestamps {
		args = append(args, "--word_timestamps", "True")
	}

	return args
}

// normalizeLanguage maps "auto" and empty language to no CLI override.
func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	return lang
}

// resultFileName is the JSON file the engine writes for a given input.
func resultFileName(audioPath string) string {
	base := filepath.Base(audioPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
}

// whisperResult mirrors the engine's JSON output document.
type whisperResult struct {
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

// whisperSegment carries one recognized span; times decode as decimals so
// millisecond conversion downstream does not drift.
type whisperSegment struct {
	Start decimal.Decimal `json:"start"`
	End   decimal.Decimal `json:"end"`
	Text  string          `json:"text"`
	Words []whisperWord   `json:"words"`
}

// whisperWord carries per-word timing; the engine may omit times.
type whisperWord struct {
	Word  string           `json:"word"`
	Start *decimal.Decimal `json:"start"`
	End   *decimal.Decimal `json:"end"`
}

// transcriptFromResult converts the engine document into the transcript
// model. Indices are assigned by position. Word timings come along only
// when the job requested them.
func transcriptFromResult(res whisperResult, includeWords bool) transcript.Transcript {
	t := transcript.Transcript{
		Language: res.Language,
		Segments: make([]transcript.Segment, len(res.Segments)),
	}
	for i, seg := range res.Segments {
		out := transcript.Segment{
			Index: i,
			Start: seg.Start.InexactFloat64(),
			End:   seg.End.InexactFloat64(),
			Text:  seg.Text,
		}
		if includeWords {
			out.Words = wordTimingsFromResult(seg.Words)
		}
		t.Segments[i] = out
	}
	return t
}

// wordTimingsFromResult keeps words that carry both timestamps and drops
// the rest. Nil comes back when nothing usable remains.
func wordTimingsFromResult(words []whisperWord) []transcript.WordTiming {
	if len(words) == 0 {
		return nil
	}

	timings := make([]transcript.WordTiming, 0, len(words))
	for _, w := range words {
		if w.Start == nil || w.End == nil {
			continue
		}
		timings = append(timings, transcript.WordTiming{
			Word:  w.Word,
			Start: w.Start.InexactFloat64(),
			End:   w.End.InexactFloat64(),
		})
	}
	if len(timings) == 0 {
		return nil
	}
	return timings
}

// NewWhisperRecognizerForTests constructs a recognizer with injectable
// dependencies.
func NewWhisperRecognizerForTests(
	whisperPath string,
	runner commandRunner,
	mkdirTemp func(dir, pattern string) (string, error),
	removeAll func(path string) error,
	readFile func(name string) ([]byte, error),
) *WhisperRecognizer {
	return &WhisperRecognizer{
		whisperPath: whisperPath,
		runner:      runner,
		mkdirTemp:   mkdirTemp,
		removeAll:   removeAll,
		readFile:    readFile,
	}
}
