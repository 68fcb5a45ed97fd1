package searcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mentionlens/mentionlens/internal/core"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		BaseURL:    server.URL,
		Index:      "epstein_files",
		HTTPClient: server.Client(),
		Sleep:      func(time.Duration) {},
	}
}

func TestSearchSuccess(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"totalHits":3,"hits":[
			{"content_preview":"...Jane Doe attended...","file_path":"/data/dataset/doc1.pdf"},
			{"content":"fallback body","file_path":"/data/dataset/doc2.pdf"}
		]}}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	result := &core.Result{}
	delay := client.Search(context.Background(), "Jane Doe", 250*time.Millisecond, result)

	require.Equal(t, 250*time.Millisecond, delay)
	require.Equal(t, 3, result.TotalMentions)
	require.Len(t, result.Hits, 2)
	require.Equal(t, "...Jane Doe attended...", result.Hits[0].Preview)
	require.Equal(t, "fallback body", result.Hits[1].Preview)
	require.Equal(t, "/data/dataset/doc2.pdf", result.Hits[1].FilePath)
	require.Empty(t, result.Err)

	// Name is searched as an exact quoted phrase.
	require.Equal(t, `"Jane Doe"`, gotQuery)
	require.NotEmpty(t, result.Provenance.SearchID)
	require.False(t, result.Provenance.ResolvedAt.IsZero())
}

func TestSearchRateLimitedWithRetryAfter(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"totalHits":1,"hits":[]}}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := newTestClient(server)
	client.Sleep = func(d time.Duration) { slept = append(slept, d) }

	result := &core.Result{}
	delay := client.Search(context.Background(), "Jane Doe", 250*time.Millisecond, result)

	// The hint replaces the delay outright, is slept once, and rides along as
	// the new baseline for the next contact.
	require.Equal(t, []time.Duration{5 * time.Second}, slept)
	require.Equal(t, 5*time.Second, delay)
	require.Equal(t, 1, result.TotalMentions)
	require.Empty(t, result.Err)
	require.Equal(t, 2, calls)
}

func TestSearchRateLimitedDoubling(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"totalHits":0,"hits":[]}}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := newTestClient(server)
	client.Sleep = func(d time.Duration) { slept = append(slept, d) }

	result := &core.Result{}
	delay := client.Search(context.Background(), "Jane Doe", time.Second, result)

	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, slept)
	require.Equal(t, 4*time.Second, delay)
	require.Empty(t, result.Err)
}

func TestSearchRateLimitedZeroBaselineSeedsOneSecond(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"totalHits":0,"hits":[]}}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := newTestClient(server)
	client.Sleep = func(d time.Duration) { slept = append(slept, d) }

	result := &core.Result{}
	delay := client.Search(context.Background(), "Jane Doe", 0, result)

	require.Equal(t, []time.Duration{time.Second}, slept)
	require.Equal(t, time.Second, delay)
}

func TestSearchRateLimitMaxDelayCap(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"totalHits":0,"hits":[]}}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	client.MaxDelay = 3 * time.Second
	var slept []time.Duration
	client.Sleep = func(d time.Duration) { slept = append(slept, d) }

	result := &core.Result{}
	delay := client.Search(context.Background(), "Jane Doe", time.Second, result)

	require.Equal(t, []time.Duration{2 * time.Second, 3 * time.Second, 3 * time.Second}, slept)
	require.Equal(t, 3*time.Second, delay)
}

func TestSearchRateLimitMaxAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server)
	client.MaxAttempts = 3

	var slept []time.Duration
	client.Sleep = func(d time.Duration) { slept = append(slept, d) }

	result := &core.Result{}
	client.Search(context.Background(), "Jane Doe", time.Second, result)

	require.Equal(t, "rate limited: retries exhausted", result.Err)
	require.Zero(t, result.TotalMentions)
	// Two sleeps happen before the third attempt gives up.
	require.Len(t, slept, 2)
}

func TestSearchHitCapAndPreviewTruncation(t *testing.T) {
	var hits []string
	for i := 0; i < 150; i++ {
		hits = append(hits, fmt.Sprintf(`{"content_preview":%q,"file_path":"/data/dataset/doc.pdf"}`,
			strings.Repeat("x", MaxPreviewLen+50)))
	}
	body := `{"success":true,"data":{"totalHits":150,"hits":[` + strings.Join(hits, ",") + `]}}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client := newTestClient(server)
	result := &core.Result{}
	client.Search(context.Background(), "Jane Doe", 0, result)

	// Stored hits are capped; the mention count reports the server total.
	require.Equal(t, 150, result.TotalMentions)
	require.Len(t, result.Hits, MaxStoredHits)
	require.Len(t, result.Hits[0].Preview, MaxPreviewLen)
}

func TestSearchDegradesOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server)
	result := &core.Result{}
	delay := client.Search(context.Background(), "Jane Doe", 250*time.Millisecond, result)

	require.Equal(t, 250*time.Millisecond, delay)
	require.Zero(t, result.TotalMentions)
	require.Empty(t, result.Hits)
	require.NotEmpty(t, result.Err)
}

func TestSearchDegradesOnMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":`))
	}))
	defer server.Close()

	client := newTestClient(server)
	result := &core.Result{}
	client.Search(context.Background(), "Jane Doe", 0, result)

	require.Equal(t, "malformed response", result.Err)
	require.Zero(t, result.TotalMentions)
}

func TestSearchDegradesOnUnsuccessfulResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"data":{"totalHits":9,"hits":[]}}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	result := &core.Result{}
	client.Search(context.Background(), "Jane Doe", 0, result)

	require.Equal(t, "search not successful", result.Err)
	require.Zero(t, result.TotalMentions)
}

func TestSearchDegradesOnTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := &Client{BaseURL: server.URL, Timeout: time.Second}
	result := &core.Result{}
	client.Search(context.Background(), "Jane Doe", 0, result)

	require.NotEmpty(t, result.Err)
	require.Zero(t, result.TotalMentions)
}

func TestSearchRelaxOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"totalHits":0,"hits":[]}}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	client.RelaxOnSuccess = true
	client.InitialDelay = 250 * time.Millisecond

	result := &core.Result{}
	delay := client.Search(context.Background(), "Jane Doe", 8*time.Second, result)
	require.Equal(t, 4*time.Second, delay)

	// Halving never undercuts the configured baseline.
	delay = client.Search(context.Background(), "Jane Doe", 300*time.Millisecond, result)
	require.Equal(t, 250*time.Millisecond, delay)
}

func TestSearchResetsPreviousOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"totalHits":0,"hits":[]}}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	result := &core.Result{
		TotalMentions: 7,
		Hits:          []core.Hit{{Preview: "stale"}},
	}
	client.Search(context.Background(), "Jane Doe", 0, result)

	require.Zero(t, result.TotalMentions)
	require.Empty(t, result.Hits)
}

func TestRetryAfterHTTPDateHint(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", time.Now().Add(10*time.Second).UTC().Format(http.TimeFormat))
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"totalHits":0,"hits":[]}}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := newTestClient(server)
	client.Sleep = func(d time.Duration) { slept = append(slept, d) }

	result := &core.Result{}
	client.Search(context.Background(), "Jane Doe", 0, result)

	require.Len(t, slept, 1)
	require.Greater(t, slept[0], 5*time.Second)
	require.LessOrEqual(t, slept[0], 10*time.Second)
}
