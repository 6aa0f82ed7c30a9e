package history

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"lukechampine.com/blake3"

	"att/internal/domain"
	"att/internal/jobs"
	"att/internal/transcript"
)

// finishedAtLayout is fixed-width so lexical order matches time order.
const finishedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store records finished jobs in SQLite. A nil *Store is a valid recorder
// that drops everything, so callers can wire history best-effort.
type Store struct {
	db *sql.DB
}

var _ jobs.Recorder = (*Store)(nil)

// Entry is one persisted job row.
type Entry struct {
	JobID              string    `json:"jobId"`
	SourcePath         string    `json:"sourcePath"`
	SourceHash         string    `json:"sourceHash,omitempty"`
	Model              string    `json:"model"`
	Language           string    `json:"language"`
	TranslateToEnglish bool      `json:"translateToEnglish"`
	WordTimestamps     bool      `json:"wordTimestamps"`
	SegmentCount       int       `json:"segmentCount"`
	TextPath           string    `json:"textPath"`
	JSONPath           string    `json:"jsonPath"`
	SRTPath            string    `json:"srtPath"`
	FinishedAt         time.Time `json:"finishedAt"`
}

// Open creates or opens the history database at path, applies session
// pragmas and ensures the schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if _, err := db.Exec(`
	PRAGMA busy_timeout       = 10000;
	PRAGMA journal_mode       = WAL;
	PRAGMA journal_size_limit = 200000000;
	PRAGMA synchronous        = NORMAL;
	PRAGMA foreign_keys       = ON;
	PRAGMA temp_store         = MEMORY;
	PRAGMA cache_size         = -16000;

	create table if not exists jobs (
		id text primary key not null,
		source_path text not null,
		source_hash text not null default '',
		model text not null,
		language text not null,
		translate integer not null default 0,
		word_timestamps integer not null default 0,
		segment_count integer not null,
		text_path text not null,
		json_path text not null,
		srt_path text not null,
		finished_at text not null
	);

	create table if not exists segments (
		id integer not null,
		job_id text not null,
		text text not null,
		start_ms integer not null,
		end_ms integer not null,
		primary key (id, job_id)
	);

	create table if not exists words (
		id integer not null,
		segment_id integer not null,
		job_id text not null,
		text text not null,
		start_ms integer not null,
		end_ms integer not null,
		primary key (id, segment_id, job_id)
	);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores one finished job with its segments and word timings in a
// single transaction. The source fingerprint is best-effort: an unreadable
// source leaves the hash empty rather than failing the record.
func (s *Store) Record(ctx context.Context, job domain.Job, cfg domain.JobConfig, t transcript.Transcript, set domain.ArtifactSet) error {
	if s == nil || s.db == nil {
		return nil
	}

	hash, err := Fingerprint(cfg.SourcePath)
	if err != nil {
		hash = ""
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record job: begin tx: %w", err)
	}

	if err := insertJob(ctx, tx, job, cfg, hash, len(t.Segments), set); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := insertSegments(ctx, tx, job.ID, t.Segments); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record job: commit: %w", err)
	}
	return nil
}

// insertJob writes the job row.
func insertJob(ctx context.Context, tx *sql.Tx, job domain.Job, cfg domain.JobConfig, hash string, segmentCount int, set domain.ArtifactSet) error {
	_, err := tx.ExecContext(ctx, `
		insert into jobs (
			id, source_path, source_hash, model, language,
			translate, word_timestamps, segment_count,
			text_path, json_path, srt_path, finished_at
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		job.ID,
		cfg.SourcePath,
		hash,
		cfg.Model,
		cfg.Language,
		boolToInt(cfg.TranslateToEnglish),
		boolToInt(cfg.WordTimestamps),
		segmentCount,
		set.TextPath,
		set.JSONPath,
		set.SRTPath,
		time.Now().UTC().Format(finishedAtLayout),
	)
	if err != nil {
		return fmt.Errorf("record job: insert job: %w", err)
	}
	return nil
}

// insertSegments writes the segment rows and their word timings.
func insertSegments(ctx context.Context, tx *sql.Tx, jobID string, segments []transcript.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	segStmt, err := tx.PrepareContext(ctx, `
		insert into segments (id, job_id, text, start_ms, end_ms)
		values ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("record job: prepare segment insert: %w", err)
	}
	defer segStmt.Close()

	wordStmt, err := tx.PrepareContext(ctx, `
		insert into words (id, segment_id, job_id, text, start_ms, end_ms)
		values ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("record job: prepare word insert: %w", err)
	}
	defer wordStmt.Close()

	for _, seg := range segments {
		if _, err := segStmt.ExecContext(ctx, seg.Index, jobID, seg.Text, toMillis(seg.Start), toMillis(seg.End)); err != nil {
			return fmt.Errorf("record job: insert segment %d: %w", seg.Index, err)
		}
		for n, w := range seg.Words {
			if _, err := wordStmt.ExecContext(ctx, n, seg.Index, jobID, w.Word, toMillis(w.Start), toMillis(w.End)); err != nil {
				return fmt.Errorf("record job: insert word %d of segment %d: %w", n, seg.Index, err)
			}
		}
	}
	return nil
}

// Recent returns the most recently finished jobs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		select id, source_path, source_hash, model, language,
			translate, word_timestamps, segment_count,
			text_path, json_path, srt_path, finished_at
		from jobs
		order by finished_at desc, rowid desc
		limit $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent jobs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list recent jobs: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recent jobs: %w", err)
	}
	return entries, nil
}

// FindBySourceHash returns the newest job recorded for a source
// fingerprint, or ok=false when the file was never transcribed.
func (s *Store) FindBySourceHash(ctx context.Context, hash string) (Entry, bool, error) {
	if s == nil || s.db == nil || hash == "" {
		return Entry{}, false, nil
	}

	row := s.db.QueryRowContext(ctx, `
		select id, source_path, source_hash, model, language,
			translate, word_timestamps, segment_count,
			text_path, json_path, srt_path, finished_at
		from jobs
		where source_hash = $1
		order by finished_at desc, rowid desc
		limit 1`, hash)

	entry, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("find job by source hash: %w", err)
	}
	return entry, true, nil
}

// scanEntry reads one jobs row through any Scan-shaped callable.
func scanEntry(scan func(dest ...any) error) (Entry, error) {
	var entry Entry
	var translate, wordTimestamps int
	var finishedAt string

	if err := scan(
		&entry.JobID,
		&entry.SourcePath,
		&entry.SourceHash,
		&entry.Model,
		&entry.Language,
		&translate,
		&wordTimestamps,
		&entry.SegmentCount,
		&entry.TextPath,
		&entry.JSONPath,
		&entry.SRTPath,
		&finishedAt,
	); err != nil {
		return Entry{}, err
	}

	entry.TranslateToEnglish = translate != 0
	entry.WordTimestamps = wordTimestamps != 0
	ts, err := time.Parse(time.RFC3339Nano, finishedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse finished_at %q: %w", finishedAt, err)
	}
	entry.FinishedAt = ts
	return entry, nil
}

// Fingerprint returns the blake3-256 hex digest of the file at path.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open source for fingerprint: %w", err)
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("fingerprint source: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// toMillis converts seconds to integer milliseconds, truncating the
// fraction exactly the way the subtitle timecodes do.
func toMillis(seconds float64) int64 {
	return decimal.NewFromFloat(seconds).Mul(decimal.NewFromInt(1000)).IntPart()
}

// boolToInt stores flags as 0/1 columns.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
