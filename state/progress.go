package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"arenda-scraper/utils"
)

// FailedListing is one entry in the append-only failure ledger. Failed
// listings are never removed from future consideration: they stay outside
// the processed set, so a later run re-attempts them naturally.
type FailedListing struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Time string `json:"time"`
}

// Progress is the persisted crash-recovery state. The file on disk is
// pretty-printed JSON and rewritten wholesale on every mutation.
type Progress struct {
	LastPage     int             `json:"last_page"`
	Processed    []string        `json:"processed_listings"`
	Failed       []FailedListing `json:"failed_listings"`
	TotalScraped int             `json:"total_scraped"`
	LastUpdate   string          `json:"last_update"`
}

// Store owns the progress file. It is the single writer; in-memory state
// stays authoritative even when a save fails, so a lost save is retried
// by the next mutation rather than treated as fatal.
type Store struct {
	path string

	mu       sync.Mutex
	progress Progress
	index    map[string]struct{}
}

// NewStore loads the progress file at path. A missing or corrupt file
// yields a fresh empty state; corruption is logged, never fatal.
func NewStore(path string) *Store {
	s := &Store{
		path:  path,
		index: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			utils.Warn("Could not read state file %s: %v — starting fresh", path, err)
		}
		return s
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		utils.Warn("State file %s is corrupt: %v — starting fresh", path, err)
		return s
	}

	s.progress = p
	for _, id := range p.Processed {
		s.index[id] = struct{}{}
	}
	// The counter is derived from the processed set; repair it if a
	// hand-edited file disagrees.
	if s.progress.TotalScraped != len(s.index) {
		s.progress.TotalScraped = len(s.index)
	}
	return s
}

// IsProcessed reports whether a listing was already harvested.
func (s *Store) IsProcessed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

// MarkProcessed records a completed listing and persists. Idempotent:
// marking an already-processed id is a no-op.
func (s *Store) MarkProcessed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = struct{}{}
	s.progress.Processed = append(s.progress.Processed, id)
	s.progress.TotalScraped++
	s.save()
}

// MarkFailed appends to the failure ledger and persists.
func (s *Store) MarkFailed(id, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.progress.Failed = append(s.progress.Failed, FailedListing{
		ID:   id,
		URL:  url,
		Time: time.Now().Format(time.RFC3339),
	})
	s.save()
}

// SetLastPage updates the resume cursor and persists.
func (s *Store) SetLastPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.progress.LastPage = page
	s.save()
}

// LastPage returns the resume cursor (0 when no prior run left one).
func (s *Store) LastPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.LastPage
}

// Counts returns the processed and failed totals for the summary.
func (s *Store) Counts() (processed, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.TotalScraped, len(s.progress.Failed)
}

// save rewrites the state file atomically: marshal to a temp file in the
// same directory, then rename over the old one. A reader never observes a
// half-written file; a failed save leaves the previous state intact.
// I/O errors are logged and swallowed — the in-memory state remains
// authoritative and the next mutation retries the write.
//
// Callers must hold s.mu.
func (s *Store) save() {
	s.progress.LastUpdate = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(&s.progress, "", "  ")
	if err != nil {
		utils.Error("Could not encode state: %v", err)
		return
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		utils.Error("Could not create temp state file: %v", err)
		return
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		utils.Error("Could not write state file: %v", err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		utils.Error("Could not close state file: %v", err)
		return
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		utils.Error("Could not replace state file: %v", err)
	}
}
