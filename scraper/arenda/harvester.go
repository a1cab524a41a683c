package arenda

import (
	"context"

	"arenda-scraper/models"
	"arenda-scraper/state"
	"arenda-scraper/storage"
	"arenda-scraper/utils"
)

// HarvestStatus is the terminal state of one harvest job.
type HarvestStatus int

const (
	// HarvestDone — row persisted and the listing marked processed.
	HarvestDone HarvestStatus = iota
	// HarvestSkipped — the listing was already processed in a prior run.
	HarvestSkipped
	// HarvestFailed — fetch exhausted, page unparseable, or the sink
	// append failed. The listing stays outside the processed set, so the
	// next full run re-attempts it.
	HarvestFailed
)

// Harvester runs the fetch→parse→persist pipeline for one listing.
// Persist ordering is the crux: the CSV row is written first, and only a
// successful append marks the listing processed. The other order would
// lose the listing forever if the append failed.
type Harvester struct {
	fetcher *Fetcher
	store   *state.Store
	sink    *storage.CSVWriter
}

func NewHarvester(fetcher *Fetcher, store *state.Store, sink *storage.CSVWriter) *Harvester {
	return &Harvester{fetcher: fetcher, store: store, sink: sink}
}

// Harvest processes one job to a terminal state. The progress store is
// the single source of truth for "already done": a processed listing is
// a no-op, not an error.
func (h *Harvester) Harvest(ctx context.Context, job models.HarvestJob) (models.Listing, HarvestStatus) {
	if h.store.IsProcessed(job.ListingID) {
		utils.Info("Skipping already processed listing %s", job.ListingID)
		return models.Listing{}, HarvestSkipped
	}

	res := h.fetcher.Fetch(ctx, job.URL)
	if res.Status != FetchOK {
		utils.Error("Failed to fetch listing %s: %s", job.ListingID, job.URL)
		h.store.MarkFailed(job.ListingID, job.URL)
		return models.Listing{}, HarvestFailed
	}

	listing, err := ParseListing(res.Body, job.URL)
	if err != nil {
		utils.Error("Failed to parse listing %s: %v", job.ListingID, err)
		h.store.MarkFailed(job.ListingID, job.URL)
		return models.Listing{}, HarvestFailed
	}

	if err := h.sink.Append(listing); err != nil {
		utils.Error("Failed to persist listing %s: %v", job.ListingID, err)
		h.store.MarkFailed(job.ListingID, job.URL)
		return models.Listing{}, HarvestFailed
	}

	h.store.MarkProcessed(job.ListingID)
	utils.Success("Scraped listing %s", job.ListingID)
	return listing, HarvestDone
}
