package domain

// WhisperModelOption describes one whisper model size selectable for a job.
// Downloaded reflects whether the engine already has the weights cached
// locally, so the first run with that size will not trigger a download.
type WhisperModelOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SizeLabel   string `json:"sizeLabel,omitempty"`
	Description string `json:"description,omitempty"`
	Downloaded  bool   `json:"downloaded"`
	CachePath   string `json:"cachePath,omitempty"`
}
