package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"arenda-scraper/models"
)

// utf8BOM makes the file open cleanly in spreadsheet software.
const utf8BOM = "\xef\xbb\xbf"

// CSVWriter is the append-only sink for harvested listings. One writer
// lock serializes all appends, so rows from concurrent harvest jobs can
// never interleave. Append errors are returned to the caller: a listing
// whose row failed to persist must not be marked processed, or it would
// be silently lost forever.
type CSVWriter struct {
	path string
	mu   sync.Mutex
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Initialize creates the CSV with the BOM and header row. When the file
// already exists it is a no-op: existing rows are preserved, never
// truncated, so a resumed run keeps appending where it left off.
func (w *CSVWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create output dir: %w", err)
		}
	}

	if _, err := os.Stat(w.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("could not stat csv file: %w", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("could not create csv file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("could not write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	writer.Write(models.ListingColumns)
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("could not write csv header: %w", err)
	}

	return nil
}

// Append writes one complete listing row while holding the writer lock.
func (w *CSVWriter) Append(listing models.Listing) error {
	return w.AppendBatch([]models.Listing{listing})
}

// AppendBatch writes a sequence of complete rows under a single lock hold.
func (w *CSVWriter) AppendBatch(listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open csv file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	for _, l := range listings {
		writer.Write(l.Row())
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}

	return nil
}
