package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const whisperResultDoc = `{
  "text": " Hello there. General Kenobi.",
  "language": "en",
  "segments": [
    {
      "id": 0,
      "start": 0.0,
      "end": 1.5,
      "text": " Hello there.",
      "words": [
        {"word": " Hello", "start": 0.0, "end": 0.8},
        {"word": " there.", "start": 0.8, "end": 1.5}
      ]
    },
    {
      "id": 1,
      "start": 3725.4005,
      "end": 3726.0,
      "text": " General Kenobi.",
      "words": [
        {"word": " General", "start": 3725.4005},
        {"word": " Kenobi.", "start": 3725.7, "end": 3726.0}
      ]
    }
  ]
}`

// TestWhisperRecognizerSuccess checks engine invocation, result parsing and
// workspace cleanup without word timings.
func TestWhisperRecognizerSuccess(t *testing.T) {
	root := t.TempDir()
	audioPath := filepath.Join(root, "decoded-16k-mono.wav")
	mustWriteFile(t, audioPath, "wav")

	var outDir string
	var logSeen bool
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			if name != "whisper-custom" {
				t.Fatalf("command name = %q, want whisper-custom", name)
			}
			outDir = argValue(args, "--output_dir")
			mustWriteFile(t, filepath.Join(outDir, "decoded-16k-mono.json"), whisperResultDoc)
			return commandResult{Stdout: "whisper ok", ExitCode: 0}, nil
		},
	}

	rec := NewWhisperRecognizerForTests("whisper-custom", runner, os.MkdirTemp, os.RemoveAll, os.ReadFile)
	tr, err := rec.Recognize(context.Background(), Request{
		AudioPath: audioPath,
		Model:     "small",
		OnLog:     func(log CommandLog) { logSeen = true },
	})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	if !logSeen {
		t.Fatal("expected command log callback")
	}
	if tr.Language != "en" {
		t.Fatalf("language = %q, want en", tr.Language)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(tr.Segments))
	}
	if tr.Segments[0].Index != 0 || tr.Segments[1].Index != 1 {
		t.Fatalf("indices = %d,%d, want 0,1", tr.Segments[0].Index, tr.Segments[1].Index)
	}
	if tr.Segments[1].Start != 3725.4005 {
		t.Fatalf("segment 1 start = %v, want 3725.4005", tr.Segments[1].Start)
	}
	if tr.Segments[0].Words != nil {
		t.Fatalf("words = %v, want none without word timestamps", tr.Segments[0].Words)
	}
	if err := tr.Validate(); err != nil {
		t.Fatalf("parsed transcript invalid: %v", err)
	}

	if _, err := os.Stat(outDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected engine workspace cleanup, stat err = %v", err)
	}
}

// TestWhisperRecognizerWordTimestamps checks words come through only when
// requested and that words missing a timestamp are dropped.
func TestWhisperRecognizerWordTimestamps(t *testing.T) {
	root := t.TempDir()
	audioPath := filepath.Join(root, "speech.wav")
	mustWriteFile(t, audioPath, "wav")

	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			if !hasArg(args, "--word_timestamps") {
				t.Fatalf("expected --word_timestamps in args: %v", args)
			}
			outDir := argValue(args, "--output_dir")
			mustWriteFile(t, filepath.Join(outDir, "speech.json"), whisperResultDoc)
			return commandResult{ExitCode: 0}, nil
		},
	}

	rec := NewWhisperRecognizerForTests("whisper", runner, os.MkdirTemp, os.RemoveAll, os.ReadFile)
	tr, err := rec.Recognize(context.Background(), Request{
		AudioPath:      audioPath,
		Model:          "small",
		WordTimestamps: true,
	})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	if len(tr.Segments[0].Words) != 2 {
		t.Fatalf("segment 0 words = %d, want 2", len(tr.Segments[0].Words))
	}
	if tr.Segments[0].Words[0].Word != " Hello" {
		t.Fatalf("word 0 = %q, want \" Hello\"", tr.Segments[0].Words[0].Word)
	}
	// "General" has no end time in the document and must be dropped.
	if len(tr.Segments[1].Words) != 1 {
		t.Fatalf("segment 1 words = %d, want 1", len(tr.Segments[1].Words))
	}
	if tr.Segments[1].Words[0].Word != " Kenobi." {
		t.Fatalf("segment 1 word = %q, want \" Kenobi.\"", tr.Segments[1].Words[0].Word)
	}
}

// TestWhisperRecognizerEngineFailure checks the error carries the log.
func TestWhisperRecognizerEngineFailure(t *testing.T) {
	root := t.TempDir()
	audioPath := filepath.Join(root, "speech.wav")
	mustWriteFile(t, audioPath, "wav")

	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			return commandResult{
				Stderr:   "model load failed",
				ExitCode: 1,
			}, errors.New("exit status 1")
		},
	}

	rec := NewWhisperRecognizerForTests("whisper", runner, os.MkdirTemp, os.RemoveAll, os.ReadFile)
	_, err := rec.Recognize(context.Background(), Request{AudioPath: audioPath, Model: "small"})
	if err == nil {
		t.Fatal("expected error")
	}

	var rErr *RecognitionError
	if !errors.As(err, &rErr) {
		t.Fatalf("error type = %T, want *RecognitionError", err)
	}
	if rErr.CommandLog.ExitCode != 1 {
		t.Fatalf("exit code = %d, want 1", rErr.CommandLog.ExitCode)
	}
	if rErr.CommandLog.Stderr != "model load failed" {
		t.Fatalf("stderr = %q, want model load failed", rErr.CommandLog.Stderr)
	}
}

// TestWhisperRecognizerMalformedResult checks JSON parse failures.
func TestWhisperRecognizerMalformedResult(t *testing.T) {
	root := t.TempDir()
	audioPath := filepath.Join(root, "speech.wav")
	mustWriteFile(t, audioPath, "wav")

	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			outDir := argValue(args, "--output_dir")
			mustWriteFile(t, filepath.Join(outDir, "speech.json"), "{not json")
			return commandResult{ExitCode: 0}, nil
		},
	}

	rec := NewWhisperRecognizerForTests("whisper", runner, os.MkdirTemp, os.RemoveAll, os.ReadFile)
	_, err := rec.Recognize(context.Background(), Request{AudioPath: audioPath, Model: "small"})
	if err == nil {
		t.Fatal("expected error")
	}

	var rErr *RecognitionError
	if !errors.As(err, &rErr) {
		t.Fatalf("error type = %T, want *RecognitionError", err)
	}
}

// TestWhisperRecognizerMissingResult checks the missing output file path.
func TestWhisperRecognizerMissingResult(t *testing.T) {
	root := t.TempDir()
	audioPath := filepath.Join(root, "speech.wav")
	mustWriteFile(t, audioPath, "wav")

	rec := NewWhisperRecognizerForTests("whisper", &fakeRunner{}, os.MkdirTemp, os.RemoveAll, os.ReadFile)
	_, err := rec.Recognize(context.Background(), Request{AudioPath: audioPath, Model: "small"})
	if err == nil {
		t.Fatal("expected error")
	}

	var rErr *RecognitionError
	if !errors.As(err, &rErr) {
		t.Fatalf("error type = %T, want *RecognitionError", err)
	}
}

// TestBuildWhisperArgsDefaults verifies the base argument set.
func TestBuildWhisperArgsDefaults(t *testing.T) {
	args := buildWhisperArgs(Request{AudioPath: "/audio.wav"}, "/tmp/out")

	if args[0] != "/audio.wav" {
		t.Fatalf("args[0] = %q, want /audio.wav", args[0])
	}
	if got := argValue(args, "--model"); got != "small" {
		t.Fatalf("model arg = %q, want small", got)
	}
	if got := argValue(args, "--output_format"); got != "json" {
		t.Fatalf("output_format arg = %q, want json", got)
	}
	if got := argValue(args, "--output_dir"); got != "/tmp/out" {
		t.Fatalf("output_dir arg = %q, want /tmp/out", got)
	}
	if hasArg(args, "--language") {
		t.Fatalf("did not expect --language in args: %v", args)
	}
	if hasArg(args, "--task") {
		t.Fatalf("did not expect --task in args: %v", args)
	}
	if hasArg(args, "--word_timestamps") {
		t.Fatalf("did not expect --word_timestamps in args: %v", args)
	}
}

// TestBuildWhisperArgsAllOptions verifies flag mapping from the request.
func TestBuildWhisperArgsAllOptions(t *testing.T) {
	args := buildWhisperArgs(Request{
		AudioPath:      "/audio.wav",
		Model:          "large-v3",
		Language:       "pa",
		Translate:      true,
		WordTimestamps: true,
	}, "/tmp/out")

	if got := argValue(args, "--model"); got != "large-v3" {
		t.Fatalf("model arg = %q, want large-v3", got)
	}
	if got := argValue(args, "--language"); got != "pa" {
		t.Fatalf("language arg = %q, want pa", got)
	}
	if got := argValue(args, "--task"); got != "translate" {
		t.Fatalf("task arg = %q, want translate", got)
	}
	if got := argValue(args, "--word_timestamps"); got != "True" {
		t.Fatalf("word_timestamps arg = %q, want True", got)
	}
}

// TestBuildWhisperArgsAutoLanguage verifies auto maps to no override.
func TestBuildWhisperArgsAutoLanguage(t *testing.T) {
	args := buildWhisperArgs(Request{AudioPath: "/a.wav", Language: "auto"}, "/tmp/out")
	if hasArg(args, "--language") {
		t.Fatalf("auto language should not pass --language, args=%v", args)
	}
}
