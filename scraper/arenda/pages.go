package arenda

import (
	"context"
	"fmt"
	"net/url"

	"arenda-scraper/config"
	"arenda-scraper/models"
	"arenda-scraper/utils"
)

// PageScanner turns one index page into harvest jobs. Fetching goes
// through the shared Fetcher; extraction is ExtractIndex's job.
type PageScanner struct {
	fetcher    *Fetcher
	base       *url.URL
	indexPath  string
	indexQuery string
}

func NewPageScanner(fetcher *Fetcher, cfg *config.Config) (*PageScanner, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	return &PageScanner{
		fetcher:    fetcher,
		base:       base,
		indexPath:  cfg.IndexPath,
		indexQuery: cfg.IndexQuery,
	}, nil
}

// IndexURL builds the listing-index URL for a 1-based page number.
func (s *PageScanner) IndexURL(page int) string {
	return fmt.Sprintf("%s/%s/%d/?%s", s.base, s.indexPath, page, s.indexQuery)
}

// ScanIndex fetches one index page and returns its harvest jobs. A page
// that legitimately has no entries yields an empty slice; a failed fetch
// is an error so the coordinator can log it and move on.
func (s *PageScanner) ScanIndex(ctx context.Context, page int) ([]models.HarvestJob, error) {
	res := s.fetcher.Fetch(ctx, s.IndexURL(page))
	if res.Status != FetchOK {
		return nil, fmt.Errorf("failed to fetch index page %d", page)
	}

	entries, err := ExtractIndex(res.Body)
	if err != nil {
		return nil, fmt.Errorf("index page %d: %w", page, err)
	}

	jobs := make([]models.HarvestJob, 0, len(entries))
	for _, e := range entries {
		ref, err := url.Parse(e.Href)
		if err != nil {
			utils.Warn("Skipping listing %s with bad href %q: %v", e.ID, e.Href, err)
			continue
		}
		jobs = append(jobs, models.HarvestJob{
			ListingID: e.ID,
			URL:       s.base.ResolveReference(ref).String(),
		})
	}

	return jobs, nil
}

// DetectPageCount fetches page 1 and reads the pagination. Returns 0 when
// the fetch itself fails, so the caller can fall back to its default.
func (s *PageScanner) DetectPageCount(ctx context.Context) int {
	res := s.fetcher.Fetch(ctx, s.IndexURL(1))
	if res.Status != FetchOK {
		return 0
	}
	return MaxPage(res.Body)
}
