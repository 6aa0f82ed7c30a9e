package transcribe

import (
	"path/filepath"
	"testing"
)

// TestModelCatalogOrderAndIDs verifies the selectable sizes and their order.
func TestModelCatalogOrderAndIDs(t *testing.T) {
	models := modelCatalogIn("")

	wantIDs := []string{"tiny", "base", "small", "medium", "large", "large-v2", "large-v3", "turbo"}
	if len(models) != len(wantIDs) {
		t.Fatalf("catalog size = %d, want %d", len(models), len(wantIDs))
	}
	for i, id := range wantIDs {
		if models[i].ID != id {
			t.Fatalf("catalog[%d].ID = %q, want %q", i, models[i].ID, id)
		}
		if models[i].Downloaded {
			t.Fatalf("catalog[%d] marked downloaded with no cache dir", i)
		}
	}
}

// TestModelCatalogMarksCachedModels verifies cache detection against a
// populated cache directory.
func TestModelCatalogMarksCachedModels(t *testing.T) {
	cacheDir := t.TempDir()
	cached := filepath.Join(cacheDir, "small.pt")
	mustWriteFile(t, cached, "weights")

	models := modelCatalogIn(cacheDir)

	for _, model := range models {
		if model.ID == "small" {
			if !model.Downloaded {
				t.Fatal("small not marked downloaded")
			}
			if model.CachePath != cached {
				t.Fatalf("cache path = %q, want %q", model.CachePath, cached)
			}
			continue
		}
		if model.Downloaded {
			t.Fatalf("%s marked downloaded without cached weights", model.ID)
		}
	}
}

// TestModelCatalogIgnoresDirectories verifies a directory named like a
// model file does not count as cached weights.
func TestModelCatalogIgnoresDirectories(t *testing.T) {
	cacheDir := t.TempDir()
	mustWriteFile(t, filepath.Join(cacheDir, "base.pt", "part"), "x")

	models := modelCatalogIn(cacheDir)

	for _, model := range models {
		if model.ID == "base" && model.Downloaded {
			t.Fatal("directory treated as cached weights")
		}
	}
}

// TestKnownModel verifies id membership checks.
func TestKnownModel(t *testing.T) {
	if !KnownModel("small") {
		t.Fatal("small should be known")
	}
	if !KnownModel("large-v3") {
		t.Fatal("large-v3 should be known")
	}
	if KnownModel("gigantic") {
		t.Fatal("gigantic should not be known")
	}
	if KnownModel("") {
		t.Fatal("empty id should not be known")
	}
}

// TestModelCacheDirHonorsXDGOverride verifies the XDG_CACHE_HOME path.
func TestModelCacheDirHonorsXDGOverride(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")

	if got, want := modelCacheDir(), filepath.Join("/custom/cache", "whisper"); got != want {
		t.Fatalf("cache dir = %q, want %q", got, want)
	}
}
