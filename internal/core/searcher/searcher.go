// Package searcher issues one logical full-text query per contact against
// the remote search endpoint, absorbing throttling and transient failures.
package searcher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mentionlens/mentionlens/internal/core"
)

const (
	// DefaultBaseURL is the public search endpoint for the indexed files.
	DefaultBaseURL = "https://analytics.dugganusa.com/api/v1/search"

	// DefaultIndex selects the document index to query.
	DefaultIndex = "epstein_files"

	// DefaultTimeout bounds a single network call; beyond it the request is
	// classified as a transport failure.
	DefaultTimeout = 30 * time.Second

	// MaxStoredHits caps how many hit excerpts are retained per result.
	MaxStoredHits = 100

	// MaxPreviewLen caps the stored excerpt length in bytes.
	MaxPreviewLen = 2048
)

// Client queries the search endpoint for exact-name mentions. Retries happen
// only on 429: the next delay comes from the Retry-After hint when present,
// otherwise the current delay doubles. Every other failure degrades the
// outcome to zero mentions and stops.
type Client struct {
	BaseURL    string
	Index      string
	HTTPClient *http.Client
	Timeout    time.Duration

	// MaxAttempts caps the 429 retry loop; 0 retries indefinitely, matching
	// the observed upstream behavior.
	MaxAttempts int

	// MaxDelay caps the doubling backoff; 0 leaves it unbounded.
	MaxDelay time.Duration

	// RelaxOnSuccess halves the returned delay after a clean response,
	// floored at InitialDelay. Off by default: the stock behavior is
	// ratchet-up-only across the whole run.
	RelaxOnSuccess bool
	InitialDelay   time.Duration

	ToolVersion string
	Logger      *logging.Logger

	// Sleep and Clock are injection points for tests.
	Sleep func(time.Duration)
	Clock func() time.Time
}

// searchResponse is the wire shape of a successful query.
type searchResponse struct {
	Success bool `json:"success"`
	Data    struct {
		TotalHits int `json:"totalHits"`
		Hits      []struct {
			ContentPreview string `json:"content_preview"`
			Content        string `json:"content"`
			FilePath       string `json:"file_path"`
		} `json:"hits"`
	} `json:"data"`
}

// Search issues one logical query for the exact, quoted name and fills the
// outcome into result. The returned delay seeds the next contact's call: a
// 429 encountered here inflates the baseline for the caller's next search.
func (c *Client) Search(ctx context.Context, name string, delay time.Duration, result *core.Result) time.Duration {
	if ctx == nil {
		ctx = context.Background()
	}

	result.TotalMentions = 0
	result.Hits = nil
	result.Provenance = core.Provenance{
		SearchID:    uuid.New().String(),
		RequestedAt: c.now(),
		Server:      c.baseURL(),
		ToolVersion: c.ToolVersion,
	}
	defer func() { result.Provenance.ResolvedAt = c.now() }()

	target := c.queryURL(name)
	client := c.httpClient()

	attempts := 0
	for {
		attempts++

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			result.Err = err.Error()
			return delay
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			c.warn("Search request failed", zap.String("name", name), zap.Error(err))
			result.Err = err.Error()
			return delay
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			hint := retryAfterHint(resp)
			drainClose(resp.Body)

			if hint > 0 {
				delay = hint
			} else if delay > 0 {
				delay *= 2
			} else {
				delay = time.Second
			}
			if c.MaxDelay > 0 && delay > c.MaxDelay {
				delay = c.MaxDelay
			}

			if c.MaxAttempts > 0 && attempts >= c.MaxAttempts {
				c.warn("Rate limit retries exhausted", zap.String("name", name), zap.Int("attempts", attempts))
				result.Err = "rate limited: retries exhausted"
				return delay
			}

			c.warn("Rate limited, retrying",
				zap.String("name", name),
				zap.Duration("delay", delay),
				zap.Bool("retry_after_hint", hint > 0))
			c.sleep(delay)
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
		drainClose(resp.Body)

		if resp.StatusCode != http.StatusOK {
			c.warn("Unexpected search status", zap.String("name", name), zap.Int("status", resp.StatusCode))
			result.Err = "http " + resp.Status
			return delay
		}
		if readErr != nil {
			c.warn("Search response read failed", zap.String("name", name), zap.Error(readErr))
			result.Err = readErr.Error()
			return delay
		}

		var parsed searchResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			c.warn("Search response malformed", zap.String("name", name), zap.Error(err))
			result.Err = "malformed response"
			return delay
		}
		if !parsed.Success {
			// Missing or false success indicator degrades like a transport
			// failure: zero mentions, no hits, loop continues at the caller.
			result.Err = "search not successful"
			return delay
		}

		result.TotalMentions = parsed.Data.TotalHits
		result.Hits = collectHits(parsed)

		if c.RelaxOnSuccess {
			delay = relax(delay, c.InitialDelay)
		}
		return delay
	}
}

func collectHits(parsed searchResponse) []core.Hit {
	n := len(parsed.Data.Hits)
	if n > MaxStoredHits {
		n = MaxStoredHits
	}
	if n == 0 {
		return nil
	}

	hits := make([]core.Hit, 0, n)
	for _, raw := range parsed.Data.Hits[:n] {
		preview := raw.ContentPreview
		if preview == "" {
			preview = raw.Content
		}
		if len(preview) > MaxPreviewLen {
			preview = preview[:MaxPreviewLen]
		}
		hits = append(hits, core.Hit{Preview: preview, FilePath: raw.FilePath})
	}
	return hits
}

func relax(delay, floor time.Duration) time.Duration {
	relaxed := delay / 2
	if relaxed < floor {
		relaxed = floor
	}
	return relaxed
}

func (c *Client) queryURL(name string) string {
	quoted := `"` + name + `"`
	index := c.Index
	if index == "" {
		index = DefaultIndex
	}

	values := url.Values{}
	values.Set("q", quoted)
	values.Set("indexes", index)
	return c.baseURL() + "?" + values.Encode()
}

func (c *Client) baseURL() string {
	if c != nil && strings.TrimSpace(c.BaseURL) != "" {
		return strings.TrimRight(c.BaseURL, "?")
	}
	return DefaultBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (c *Client) sleep(d time.Duration) {
	if c.Sleep != nil {
		c.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (c *Client) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}

func (c *Client) warn(msg string, fields ...zap.Field) {
	if c.Logger != nil {
		c.Logger.Warn(msg, fields...)
	}
}

func drainClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	_ = body.Close()
}
