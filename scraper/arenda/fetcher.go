package arenda

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"arenda-scraper/config"
	"arenda-scraper/utils"
)

// FetchStatus is the outcome of a fetch, propagated by value instead of
// by error so callers can branch on the three cases directly.
type FetchStatus int

const (
	// FetchOK — 2xx response, body attached.
	FetchOK FetchStatus = iota
	// FetchNotFound — the page is gone. Terminal: never retried.
	FetchNotFound
	// FetchFailed — retries exhausted on transport errors, timeouts or
	// unexpected status codes.
	FetchFailed
)

type FetchResult struct {
	Status FetchStatus
	Body   []byte
}

// Fetcher wraps a Transport with the global concurrency ceiling and
// bounded retries. Every fetch in the process shares the one semaphore,
// first-come first-served; the slot is released before the backoff sleep
// so a retrying request never blocks a fresh one.
type Fetcher struct {
	transport  Transport
	slots      *semaphore.Weighted
	maxRetries int
	baseDelay  time.Duration
}

func NewFetcher(transport Transport, cfg *config.Config) *Fetcher {
	return &Fetcher{
		transport:  transport,
		slots:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.RetryBaseDelay.Std(),
	}
}

// Fetch retrieves url, retrying transient failures with exponential
// backoff up to maxRetries attempts. It never returns an error: the
// result carries one of the three terminal outcomes.
func (f *Fetcher) Fetch(ctx context.Context, url string) FetchResult {
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if err := f.slots.Acquire(ctx, 1); err != nil {
			// Context cancelled while waiting for a slot.
			return FetchResult{Status: FetchFailed}
		}
		status, body, err := f.transport.Get(ctx, url)
		f.slots.Release(1)

		switch {
		case err != nil:
			utils.Warn("Error fetching %s: %v, attempt %d/%d", url, err, attempt+1, f.maxRetries)
		case status == http.StatusNotFound:
			utils.Warn("Page not found: %s", url)
			return FetchResult{Status: FetchNotFound}
		case status >= 200 && status < 300:
			return FetchResult{Status: FetchOK, Body: body}
		default:
			utils.Warn("HTTP %d for %s, attempt %d/%d", status, url, attempt+1, f.maxRetries)
		}

		if attempt < f.maxRetries-1 {
			utils.SleepBackoff(ctx, f.baseDelay, attempt)
		}
	}

	return FetchResult{Status: FetchFailed}
}
