package domain

// JobStatus is the lifecycle state of a transcription job.
type JobStatus string

const (
	JobStatusIdle      JobStatus = "idle"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further transitions can happen for this status
// until a new job starts.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// JobConfig captures everything a single job needs. It is copied by value
// when the job starts; later settings changes do not affect a running job.
type JobConfig struct {
	SourcePath         string `json:"sourcePath"`
	Model              string `json:"model"`
	Language           string `json:"language"`
	TranslateToEnglish bool   `json:"translateToEnglish"`
	WordTimestamps     bool   `json:"wordTimestamps"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	OutputDir          string `json:"outputDir"`
	Model              string `json:"model"`
	Language           string `json:"language"`
	TranslateToEnglish bool   `json:"translateToEnglish"`
	WordTimestamps     bool   `json:"wordTimestamps"`
}

// Job stores the current job identity, source and lifecycle status.
type Job struct {
	ID         string    `json:"id"`
	SourcePath string    `json:"sourcePath"`
	Status     JobStatus `json:"status"`
}

// ArtifactSet holds the persisted locations of one job's three outputs.
type ArtifactSet struct {
	TextPath string `json:"textPath"`
	JSONPath string `json:"jsonPath"`
	SRTPath  string `json:"srtPath"`
}
