package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/YaganovValera/reddit-collector/internal/ingest"
	"github.com/YaganovValera/reddit-collector/internal/reddit"
	"github.com/YaganovValera/reddit-collector/pkg/logger"
)

type stubRunner struct {
	sum     ingest.Summary
	trigger ingest.Trigger
	ctxErr  error
}

func (s *stubRunner) Run(ctx context.Context, trigger ingest.Trigger) ingest.Summary {
	s.trigger = trigger
	s.ctxErr = ctx.Err()
	return s.sum
}

func serveFetch(t *testing.T, runner CycleRunner) *http.Response {
	t.Helper()
	r := chi.NewRouter()
	Routes(NewHandler(runner, logger.NewNop()))(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, FetchPath, nil))
	return rec.Result()
}

func TestFetch_AlwaysSuccessText(t *testing.T) {
	for _, sum := range []ingest.Summary{
		{Outcome: ingest.OutcomeCompleted, Fetched: 3, Published: 3},
		{Outcome: ingest.OutcomeFetchFailed},
		{Outcome: ingest.OutcomeNoData},
		{Outcome: ingest.OutcomeCompleted, Fetched: 3, Published: 1, Failed: 2},
	} {
		runner := &stubRunner{sum: sum}
		resp := serveFetch(t, runner)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d", sum.Outcome, resp.StatusCode)
		}
		if string(body) != FetchResponse {
			t.Errorf("%s: body = %q", sum.Outcome, body)
		}
		if runner.trigger != ingest.TriggerManual {
			t.Errorf("trigger = %q; want manual", runner.trigger)
		}
	}
}

func TestFetch_CountHeaders(t *testing.T) {
	resp := serveFetch(t, &stubRunner{sum: ingest.Summary{Fetched: 10, Published: 7}})
	defer resp.Body.Close()
	if got := resp.Header.Get(HeaderItemsFetched); got != "10" {
		t.Errorf("%s = %q", HeaderItemsFetched, got)
	}
	if got := resp.Header.Get(HeaderItemsPublished); got != "7" {
		t.Errorf("%s = %q", HeaderItemsPublished, got)
	}
}

func TestFetch_MethodNotAllowed(t *testing.T) {
	r := chi.NewRouter()
	Routes(NewHandler(&stubRunner{}, logger.NewNop()))(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, FetchPath, nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d; want 405", rec.Code)
	}
}

func TestFetch_CycleIgnoresClientCancel(t *testing.T) {
	runner := &stubRunner{}
	h := NewHandler(runner, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, FetchPath, nil).WithContext(ctx)
	h.Fetch(httptest.NewRecorder(), req)

	if runner.ctxErr != nil {
		t.Errorf("cycle ctx err = %v; want nil", runner.ctxErr)
	}
}

type failingFetcher struct{}

func (failingFetcher) Fetch(context.Context) (*reddit.Response, error) {
	return nil, errors.New("context deadline exceeded")
}

type countingProducer struct{ n int }

func (p *countingProducer) Publish(context.Context, string, []byte, []byte) error {
	p.n++
	return nil
}
func (p *countingProducer) Ping(context.Context) error { return nil }
func (p *countingProducer) Close() error               { return nil }

func TestFetch_UpstreamTimeoutStillSucceeds(t *testing.T) {
	prod := &countingProducer{}
	cycle := ingest.NewCycle(failingFetcher{}, prod, "reddit-posts", logger.NewNop())

	start := time.Now()
	resp := serveFetch(t, cycle)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK || string(body) != FetchResponse {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}
	if prod.n != 0 {
		t.Errorf("publish calls = %d; want 0", prod.n)
	}
	if time.Since(start) > time.Second {
		t.Error("handler took too long")
	}
	if got := resp.Header.Get(HeaderItemsPublished); got != "0" {
		t.Errorf("%s = %q", HeaderItemsPublished, got)
	}
}
