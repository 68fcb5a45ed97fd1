package searcher

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// retryAfterHint reads the Retry-After header from a 429 response. The
// upstream service sends integer seconds; HTTP-date values are also accepted.
func retryAfterHint(resp *http.Response) time.Duration {
	if resp == nil || resp.Header == nil {
		return 0
	}

	retry := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if retry == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retry); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if parsed, err := http.ParseTime(retry); err == nil {
		if wait := time.Until(parsed); wait > 0 {
			return wait
		}
	}

	return 0
}
