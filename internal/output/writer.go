package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"att/internal/domain"
)

const (
	extText = ".txt"
	extJSON = ".json"
	extSRT  = ".srt"

	// maxCollisionProbes bounds the counter suffix search.
	maxCollisionProbes = 1000
)

// Artifacts holds the rendered bytes for one job's three outputs.
type Artifacts struct {
	Text []byte
	JSON []byte
	SRT  []byte
}

// WriteError reports which artifact failed to persist. Files written before
// the failure are left in place but the job must not present them as a
// usable result.
type WriteError struct {
	Artifact string
	Path     string
	Err      error
}

// Error formats the failure for logs and UI.
func (e *WriteError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("writing %s artifact failed: %s: %v", e.Artifact, e.Path, e.Err)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *WriteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Writer persists one job's artifact set under a single output directory.
type Writer struct {
	mkdirAll   func(path string, perm os.FileMode) error
	stat       func(name string) (os.FileInfo, error)
	createTemp func(dir, pattern string) (*os.File, error)
	rename     func(oldpath, newpath string) error
	remove     func(name string) error
	chmod      func(name string, mode os.FileMode) error
}

// NewWriter constructs the production writer with OS dependencies.
func NewWriter() *Writer {
	return &Writer{
		mkdirAll:   os.MkdirAll,
		stat:       os.Stat,
		createTemp: os.CreateTemp,
		rename:     os.Rename,
		remove:     os.Remove,
		chmod:      os.Chmod,
	}
}

// BaseName derives the shared artifact base name from the source media
// file name: the name without its extension, trimmed, with a fixed
// fallback for degenerate names.
func BaseName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "transcript"
	}
	return name
}

// Write persists the three artifacts under dir using one shared base name.
// When any target file for the base already exists, the whole set moves to
// the first free counter suffix (base_1, base_2, ...), so the three files
// always share a base and earlier runs are never overwritten. Files go out
// in a fixed order: text, records, subtitles. Each file lands via a
// temporary file and rename. A failure stops the sequence and reports the
// artifact that failed; earlier files are not rolled back.
func (w *Writer) Write(dir, base string, a Artifacts) (domain.ArtifactSet, error) {
	if err := w.mkdirAll(dir, 0o755); err != nil {
		return domain.ArtifactSet{}, &WriteError{
			Artifact: "output directory",
			Path:     dir,
			Err:      err,
		}
	}

	resolved, err := w.resolveBase(dir, base)
	if err != nil {
		return domain.ArtifactSet{}, err
	}

	set := domain.ArtifactSet{
		TextPath: filepath.Join(dir, resolved+extText),
		JSONPath: filepath.Join(dir, resolved+extJSON),
		SRTPath:  filepath.Join(dir, resolved+extSRT),
	}

	steps := []struct {
		artifact string
		path     string
		data     []byte
	}{
		{"text", set.TextPath, a.Text},
		{"records", set.JSONPath, a.JSON},
		{"subtitles", set.SRTPath, a.SRT},
	}
	for _, step := range steps {
		if err := w.writeFileAtomic(step.path, step.data); err != nil {
			return domain.ArtifactSet{}, &WriteError{
				Artifact: step.artifact,
				Path:     step.path,
				Err:      err,
			}
		}
	}

	return set, nil
}

// resolveBase returns the first base name whose three target paths are all
// free, probing base, base_1, base_2, ... in order.
func (w *Writer) resolveBase(dir, base string) (string, error) {
	for i := 0; i <= maxCollisionProbes; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d", base, i)
		}
		if !w.anyExists(dir, candidate) {
			return candidate, nil
		}
	}
	return "", &WriteError{
		Artifact: "output directory",
		Path:     dir,
		Err:      fmt.Errorf("no free base name for %q after %d attempts", base, maxCollisionProbes),
	}
}

// anyExists reports whether any of the three target files for a candidate
// base name is already present.
func (w *Writer) anyExists(dir, base string) bool {
	for _, ext := range []string{extText, extJSON, extSRT} {
		if _, err := w.stat(filepath.Join(dir, base+ext)); err == nil {
			return true
		}
	}
	return false
}

// writeFileAtomic writes data into a same-directory temporary file and
// renames it over the destination.
func (w *Writer) writeFileAtomic(path string, data []byte) error {
	tmp, err := w.createTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = w.remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	_ = w.chmod(tmpName, 0o644)

	if err := w.rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// NewWriterForTests constructs a writer with injectable dependencies.
func NewWriterForTests(
	mkdirAll func(path string, perm os.FileMode) error,
	stat func(name string) (os.FileInfo, error),
	createTemp func(dir, pattern string) (*os.File, error),
	rename func(oldpath, newpath string) error,
) *Writer {
	return &Writer{
		mkdirAll:   mkdirAll,
		stat:       stat,
		createTemp: createTemp,
		rename:     rename,
		remove:     os.Remove,
		chmod:      os.Chmod,
	}
}
