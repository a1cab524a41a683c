package arenda

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"arenda-scraper/config"
)

// stubTransport scripts fetch outcomes and records call counts.
type stubTransport struct {
	mu    sync.Mutex
	calls int

	status int
	body   []byte
	err    error

	// optional per-call hook, runs while the request is "in flight"
	hook func()
}

func (t *stubTransport) Get(ctx context.Context, url string) (int, []byte, error) {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	if t.hook != nil {
		t.hook()
	}
	return t.status, t.body, t.err
}

func (t *stubTransport) Close() {}

func (t *stubTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.MaxConcurrent = 5
	cfg.MaxRetries = 3
	cfg.RetryBaseDelay = config.Duration(time.Millisecond)
	return cfg
}

func TestFetchSuccess(t *testing.T) {
	transport := &stubTransport{status: http.StatusOK, body: []byte("<html></html>")}
	f := NewFetcher(transport, testConfig())

	res := f.Fetch(context.Background(), "https://arenda.az/test")
	if res.Status != FetchOK {
		t.Fatalf("status = %v, want FetchOK", res.Status)
	}
	if string(res.Body) != "<html></html>" {
		t.Fatalf("body = %q", res.Body)
	}
	if transport.callCount() != 1 {
		t.Fatalf("calls = %d, want 1", transport.callCount())
	}
}

func TestRetryableFailureExhaustsAllAttempts(t *testing.T) {
	transport := &stubTransport{status: http.StatusInternalServerError}
	f := NewFetcher(transport, testConfig())

	res := f.Fetch(context.Background(), "https://arenda.az/flaky")
	if res.Status != FetchFailed {
		t.Fatalf("status = %v, want FetchFailed", res.Status)
	}
	if transport.callCount() != 3 {
		t.Fatalf("calls = %d, want exactly max retries (3)", transport.callCount())
	}
}

func TestTransportErrorIsRetried(t *testing.T) {
	transport := &stubTransport{err: errors.New("connection reset")}
	f := NewFetcher(transport, testConfig())

	res := f.Fetch(context.Background(), "https://arenda.az/down")
	if res.Status != FetchFailed {
		t.Fatalf("status = %v, want FetchFailed", res.Status)
	}
	if transport.callCount() != 3 {
		t.Fatalf("calls = %d, want 3", transport.callCount())
	}
}

func TestNotFoundIsTerminal(t *testing.T) {
	transport := &stubTransport{status: http.StatusNotFound}
	f := NewFetcher(transport, testConfig())

	res := f.Fetch(context.Background(), "https://arenda.az/gone")
	if res.Status != FetchNotFound {
		t.Fatalf("status = %v, want FetchNotFound", res.Status)
	}
	if transport.callCount() != 1 {
		t.Fatalf("calls = %d, want exactly 1 (404 is never retried)", transport.callCount())
	}
}

func TestRecoversAfterTransientFailure(t *testing.T) {
	transport := &stubTransport{}
	transport.hook = func() {
		transport.mu.Lock()
		if transport.calls == 1 {
			transport.status = http.StatusServiceUnavailable
		} else {
			transport.status = http.StatusOK
			transport.body = []byte("ok")
		}
		transport.mu.Unlock()
	}
	f := NewFetcher(transport, testConfig())

	res := f.Fetch(context.Background(), "https://arenda.az/flaky")
	if res.Status != FetchOK {
		t.Fatalf("status = %v, want FetchOK after retry", res.Status)
	}
	if transport.callCount() != 2 {
		t.Fatalf("calls = %d, want 2", transport.callCount())
	}
}

func TestConcurrencyCeiling(t *testing.T) {
	var inflight, peak int64
	transport := &stubTransport{status: http.StatusOK}
	transport.hook = func() {
		n := atomic.AddInt64(&inflight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&inflight, -1)
	}

	f := NewFetcher(transport, testConfig())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Fetch(context.Background(), "https://arenda.az/slot")
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&peak); got > 5 {
		t.Fatalf("peak in-flight = %d, want <= 5", got)
	}
	if transport.callCount() != 20 {
		t.Fatalf("calls = %d, want 20", transport.callCount())
	}
}

func TestCancelledContextStopsFetch(t *testing.T) {
	transport := &stubTransport{status: http.StatusInternalServerError}
	f := NewFetcher(transport, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.Fetch(ctx, "https://arenda.az/any")
	if res.Status != FetchFailed {
		t.Fatalf("status = %v, want FetchFailed on cancelled context", res.Status)
	}
	if transport.callCount() != 0 {
		t.Fatalf("calls = %d, want 0 (slot acquire fails first)", transport.callCount())
	}
}
