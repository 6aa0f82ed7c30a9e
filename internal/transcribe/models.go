package transcribe

import (
	"os"
	"path/filepath"

	"att/internal/domain"
)

// modelCatalog lists the whisper model sizes the engine accepts, in
// ascending quality order. IDs map directly to the CLI --model flag.
var modelCatalog = []domain.WhisperModelOption{
	{
		ID:          "tiny",
		Name:        "Tiny",
		SizeLabel:   "~72 MB",
		Description: "Fastest model, lowest accuracy.",
	},
	{
		ID:          "base",
		Name:        "Base",
		SizeLabel:   "~139 MB",
		Description: "Fast with modest accuracy.",
	},
	{
		ID:          "small",
		Name:        "Small",
		SizeLabel:   "~461 MB",
		Description: "Balanced speed and accuracy.",
	},
	{
		ID:          "medium",
		Name:        "Medium",
		SizeLabel:   "~1.4 GB",
		Description: "High accuracy, slower.",
	},
	{
		ID:          "large",
		Name:        "Large",
		SizeLabel:   "~2.9 GB",
		Description: "Highest accuracy, slowest.",
	},
	{
		ID:          "large-v2",
		Name:        "Large v2",
		SizeLabel:   "~2.9 GB",
		Description: "Improved large model.",
	},
	{
		ID:          "large-v3",
		Name:        "Large v3",
		SizeLabel:   "~2.9 GB",
		Description: "Latest large model.",
	},
	{
		ID:          "turbo",
		Name:        "Turbo",
		SizeLabel:   "~1.5 GB",
		Description: "Pruned large-v3 tuned for speed.",
	},
}

// ModelCatalog returns the selectable model sizes with Downloaded set for
// sizes whose weights are already in the engine's cache directory.
func ModelCatalog() []domain.WhisperModelOption {
	return modelCatalogIn(modelCacheDir())
}

// modelCatalogIn marks cached models against one cache directory.
func modelCatalogIn(cacheDir string) []domain.WhisperModelOption {
	models := make([]domain.WhisperModelOption, len(modelCatalog))
	copy(models, modelCatalog)

	if cacheDir == "" {
		return models
	}

	for i := range models {
		candidate := filepath.Join(cacheDir, models[i].ID+".pt")
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		models[i].Downloaded = true
		models[i].CachePath = candidate
	}
	return models
}

// KnownModel reports whether id names a size in the catalog.
func KnownModel(id string) bool {
	for _, model := range modelCatalog {
		if model.ID == id {
			return true
		}
	}
	return false
}

// modelCacheDir locates the engine's model cache, honoring XDG overrides
// the same way the engine itself does.
func modelCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "whisper")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache", "whisper")
}
