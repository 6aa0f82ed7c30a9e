package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestRunModelsListsCatalog(t *testing.T) {
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)
	if err := os.MkdirAll(filepath.Join(cache, "whisper"), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	mustWriteFile(t, filepath.Join(cache, "whisper", "base.pt"), "weights")

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	if err := runModels(cmd, nil); err != nil {
		t.Fatalf("runModels() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("len(lines) = %d, want 8", len(lines))
	}
	if !strings.HasPrefix(lines[0], "tiny") || !strings.Contains(lines[0], "not downloaded") {
		t.Fatalf("tiny line = %q, want not downloaded", lines[0])
	}
	if !strings.HasPrefix(lines[1], "base") || !strings.Contains(lines[1], "cached") {
		t.Fatalf("base line = %q, want cached", lines[1])
	}
}
