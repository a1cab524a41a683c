package state

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scraper_state.json")
	return NewStore(path), path
}

func TestMarkProcessedIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)

	store.MarkProcessed("3012345")
	store.MarkProcessed("3012345")

	if !store.IsProcessed("3012345") {
		t.Fatal("listing should be processed")
	}
	processed, _ := store.Counts()
	if processed != 1 {
		t.Fatalf("total scraped = %d, want 1", processed)
	}

	count := 0
	store.mu.Lock()
	for _, id := range store.progress.Processed {
		if id == "3012345" {
			count++
		}
	}
	store.mu.Unlock()
	if count != 1 {
		t.Fatalf("listing appears %d times in processed list, want 1", count)
	}
}

func TestPersistAndReload(t *testing.T) {
	store, path := newTestStore(t)

	store.MarkProcessed("111")
	store.MarkProcessed("222")
	store.MarkFailed("333", "https://arenda.az/kiraye-menzil-333")
	store.SetLastPage(5)

	reloaded := NewStore(path)
	if !reloaded.IsProcessed("111") || !reloaded.IsProcessed("222") {
		t.Fatal("processed listings lost across reload")
	}
	if reloaded.IsProcessed("333") {
		t.Fatal("failed listing must not be processed")
	}
	if reloaded.LastPage() != 5 {
		t.Fatalf("last page = %d, want 5", reloaded.LastPage())
	}
	processed, failed := reloaded.Counts()
	if processed != 2 || failed != 1 {
		t.Fatalf("counts = (%d, %d), want (2, 1)", processed, failed)
	}
}

func TestStateFileIsValidPrettyJSON(t *testing.T) {
	store, path := newTestStore(t)
	store.MarkProcessed("42")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read state file: %v", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	if p.TotalScraped != len(p.Processed) {
		t.Fatalf("total_scraped = %d but %d processed entries", p.TotalScraped, len(p.Processed))
	}
	if p.LastUpdate == "" {
		t.Fatal("last_update not stamped")
	}
}

func TestCorruptStateFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper_state.json")
	if err := os.WriteFile(path, []byte(`{"last_page": 3, "processed_`), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(path)
	if store.LastPage() != 0 {
		t.Fatalf("corrupt file should yield fresh state, got last page %d", store.LastPage())
	}
	processed, failed := store.Counts()
	if processed != 0 || failed != 0 {
		t.Fatalf("fresh state expected, got counts (%d, %d)", processed, failed)
	}

	// The store must still be usable and persist over the corrupt file.
	store.MarkProcessed("1")
	if !NewStore(path).IsProcessed("1") {
		t.Fatal("store did not recover from corrupt file")
	}
}

func TestCounterRepairedOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper_state.json")
	hand := `{"last_page": 2, "processed_listings": ["a", "b"], "failed_listings": [], "total_scraped": 99, "last_update": ""}`
	if err := os.WriteFile(path, []byte(hand), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(path)
	processed, _ := store.Counts()
	if processed != 2 {
		t.Fatalf("total scraped = %d, want repaired value 2", processed)
	}
}

func TestSaveDoesNotDestroyPreviousStateOnTempFailure(t *testing.T) {
	store, path := newTestStore(t)
	store.MarkProcessed("first")

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// Point the store at an unwritable directory so the temp-file create
	// fails; the previous file must survive untouched.
	store.mu.Lock()
	store.path = filepath.Join(t.TempDir(), "missing", "deep", "state.json")
	store.mu.Unlock()
	store.SetLastPage(9)

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("previous state file destroyed: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("previous state file modified by a failed save")
	}

	var p Progress
	if err := json.Unmarshal(after, &p); err != nil {
		t.Fatalf("previous state file corrupted: %v", err)
	}
}
