package arenda

import (
	"context"
	"fmt"
	"sync"

	"arenda-scraper/config"
	"arenda-scraper/models"
	"arenda-scraper/state"
	"arenda-scraper/storage"
	"arenda-scraper/utils"
)

// Scraper is the top-level control loop: it walks index pages in strictly
// increasing order, fans out one harvest job per entry within a page, and
// advances the resume cursor only after every job of the page settled.
type Scraper struct {
	cfg       *config.Config
	transport Transport
	pages     *PageScanner
	harvester *Harvester
	store     *state.Store
	sink      *storage.CSVWriter
}

// RunStats summarizes one run. Failed jobs are not retried within the
// run; a later invocation picks them up because they never entered the
// processed set.
type RunStats struct {
	Pages     int
	Harvested int
	Skipped   int
	Failed    int
}

func NewScraper(cfg *config.Config, store *state.Store, sink *storage.CSVWriter) (*Scraper, error) {
	var transport Transport
	if cfg.Browser {
		transport = NewBrowserTransport(cfg)
	} else {
		transport = NewHTTPTransport(cfg)
	}

	fetcher := NewFetcher(transport, cfg)
	pages, err := NewPageScanner(fetcher, cfg)
	if err != nil {
		transport.Close()
		return nil, err
	}

	return &Scraper{
		cfg:       cfg,
		transport: transport,
		pages:     pages,
		harvester: NewHarvester(fetcher, store, sink),
		store:     store,
		sink:      sink,
	}, nil
}

// Close releases the transport. Safe on every exit path.
func (s *Scraper) Close() {
	s.transport.Close()
}

// Run harvests pages startPage..endPage. A resume cursor from a prior
// run overrides startPage; endPage 0 means auto-detect from pagination,
// falling back to the configured default when page 1 cannot be fetched.
// Cancelling ctx requests cooperative shutdown: the loop stops at the
// next page boundary, never mid-page. A page already started runs to
// completion under a context detached from the shutdown signal, so a
// request in flight finishes (success, timeout, or exhausted retries)
// and is never spuriously ledgered as failed.
func (s *Scraper) Run(ctx context.Context, startPage, endPage int) ([]models.Listing, RunStats, error) {
	var stats RunStats

	if err := s.sink.Initialize(); err != nil {
		return nil, stats, fmt.Errorf("could not initialize sink: %w", err)
	}

	if last := s.store.LastPage(); last > 0 {
		startPage = last
		utils.Info("Resuming from page %d", startPage)
	}

	if endPage == 0 {
		if n := s.pages.DetectPageCount(ctx); n > 0 {
			endPage = n
			utils.Info("Detected %d total pages", endPage)
		} else {
			endPage = s.cfg.DefaultEndPage
			utils.Warn("Could not determine total pages, defaulting to %d", endPage)
		}
	}

	utils.Info("Starting harvest from page %d to %d", startPage, endPage)

	// The shutdown signal is checked only at page boundaries; a page's
	// jobs run under a detached context so none is aborted mid-flight.
	jobCtx := context.WithoutCancel(ctx)

	var collected []models.Listing
	for page := startPage; page <= endPage; page++ {
		if ctx.Err() != nil {
			utils.Info("Shutdown requested, stopping before page %d", page)
			break
		}

		listings, err := s.runPage(jobCtx, page, &stats)
		if err != nil {
			// One bad page never kills the run.
			utils.Error("Page %d failed: %v", page, err)
		} else {
			collected = append(collected, listings...)
			stats.Pages++
			s.store.SetLastPage(page)
		}

		// The politeness delay paces failed pages too; retrying a broken
		// index back-to-back would hammer a server that is already down.
		if page < endPage {
			utils.RandomDelay(ctx, s.cfg.MinPageDelay.Std(), s.cfg.MaxPageDelay.Std())
		}
	}

	processed, failed := s.store.Counts()
	utils.Info("Harvest finished. Total scraped: %d, failed: %d", processed, failed)

	return collected, stats, nil
}

type jobResult struct {
	listing models.Listing
	status  HarvestStatus
}

// runPage scans one index page and harvests every entry concurrently,
// waiting for all jobs to settle. A job's failure never aborts its
// siblings; the per-fetch concurrency ceiling is the fetcher's.
func (s *Scraper) runPage(ctx context.Context, page int, stats *RunStats) ([]models.Listing, error) {
	utils.Info("Scanning page %d: %s", page, s.pages.IndexURL(page))

	jobs, err := s.pages.ScanIndex(ctx, page)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		utils.Warn("No listings found on page %d", page)
		return nil, nil
	}
	utils.Info("Found %d listings on page %d", len(jobs), page)

	results := make(chan jobResult, len(jobs))
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job models.HarvestJob) {
			defer wg.Done()
			listing, status := s.harvester.Harvest(ctx, job)
			results <- jobResult{listing: listing, status: status}
		}(job)
	}
	wg.Wait()
	close(results)

	var listings []models.Listing
	done := 0
	for r := range results {
		switch r.status {
		case HarvestDone:
			listings = append(listings, r.listing)
			stats.Harvested++
			done++
		case HarvestSkipped:
			stats.Skipped++
		case HarvestFailed:
			stats.Failed++
		}
	}

	utils.Success("Completed page %d: %d/%d successful", page, done, len(jobs))
	return listings, nil
}
