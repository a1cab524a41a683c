package arenda

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"

	"arenda-scraper/config"
	"arenda-scraper/utils"
)

// Transport issues a single GET and returns the status code and body.
// The fetcher layers retries, backoff and the concurrency ceiling on top.
type Transport interface {
	Get(ctx context.Context, url string) (int, []byte, error)
	Close()
}

// HTTPTransport is the default transport: a plain net/http client with
// bounded connect and total-transfer timeouts.
type HTTPTransport struct {
	client *http.Client
}

func NewHTTPTransport(cfg *config.Config) *HTTPTransport {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout.Std()}
	return &HTTPTransport{
		client: &http.Client{
			Timeout: cfg.RequestTimeout.Std(),
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (t *HTTPTransport) Get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("could not build request: %w", err)
	}

	req.Header.Set("User-Agent", utils.RandomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "az,en-US;q=0.9,en;q=0.8")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("could not read body: %w", err)
	}

	return resp.StatusCode, body, nil
}

func (t *HTTPTransport) Close() {
	t.client.CloseIdleConnections()
}

// BrowserTransport renders pages in headless Chrome before handing back
// the DOM. Slower than plain HTTP; only worth it when the target hides
// content behind JavaScript.
type BrowserTransport struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
}

func NewBrowserTransport(cfg *config.Config) *BrowserTransport {
	utils.Info("Launching Chrome browser...")
	allocCtx, allocCancel := chromedp.NewExecAllocator(
		context.Background(),
		utils.StealthOpts(true)...,
	)
	return &BrowserTransport{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     cfg.RequestTimeout.Std(),
	}
}

func (t *BrowserTransport) Get(ctx context.Context, url string) (int, []byte, error) {
	tabCtx, tabCancel := chromedp.NewContext(t.allocCtx)
	defer tabCancel()

	runCtx, cancel := context.WithTimeout(tabCtx, t.timeout)
	defer cancel()

	// Abandon the tab if the caller gives up first.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		utils.HideWebDriver(),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("browser fetch failed: %w", err)
	}

	// Chrome does not surface the status code here; a rendered DOM is
	// treated as a successful fetch.
	return http.StatusOK, []byte(html), nil
}

func (t *BrowserTransport) Close() {
	utils.Info("Closing browser...")
	t.allocCancel()
}
