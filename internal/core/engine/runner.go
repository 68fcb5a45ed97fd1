// Package engine drives the per-contact search loop and owns the shared
// backoff delay, the cancellation flag, and the sorted result aggregate.
package engine

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/mentionlens/mentionlens/internal/core"
)

// DefaultInitialDelay paces the first inter-contact sleep.
const DefaultInitialDelay = 250 * time.Millisecond

// ErrNoResults is returned when a run ends before any contact was searched;
// no report is produced in that case.
var ErrNoResults = errors.New("no results collected")

// Searcher performs one logical query and returns the delay that seeds the
// next contact's call.
type Searcher interface {
	Search(ctx context.Context, name string, delay time.Duration, result *core.Result) time.Duration
}

// Runner visits contacts strictly in ingestion order, one request in flight
// at a time. The shared delay baseline and the cancellation flag are the only
// mutable state; the flag is written from an asynchronous interrupt context
// and read here between contacts, so an atomic bool is sufficient.
type Runner struct {
	Searcher     Searcher
	InitialDelay time.Duration
	Cancelled    *atomic.Bool
	Logger       *logging.Logger

	// Progress is invoked after each contact completes. index is 1-based.
	Progress func(index, total int, result *core.Result)

	// Sleep is an injection point for tests.
	Sleep func(time.Duration)

	// Clock stamps the report; defaults to time.Now.
	Clock func() time.Time
}

// Run searches every contact and returns the sorted aggregate. Cancellation
// is observed only between contacts: a pending sleep always completes before
// the flag takes effect. A cancelled run still yields a partial report when
// at least one contact was searched.
func (r *Runner) Run(ctx context.Context, contacts []core.Contact) (*core.Report, error) {
	if r.Searcher == nil {
		return nil, errors.New("runner: searcher is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	delay := r.InitialDelay
	if delay <= 0 {
		delay = DefaultInitialDelay
	}

	results := make([]*core.Result, 0, len(contacts))
	cancelled := false

	for i, contact := range contacts {
		if r.isCancelled() {
			cancelled = true
			break
		}

		result := core.NewResult(contact)
		delay = r.Searcher.Search(ctx, contact.FullName, delay, result)
		results = append(results, result)

		if r.Progress != nil {
			r.Progress(i+1, len(contacts), result)
		}

		if i < len(contacts)-1 && !r.isCancelled() {
			r.sleep(delay)
		}
	}

	if cancelled || r.isCancelled() {
		cancelled = true
		if r.Logger != nil {
			r.Logger.Info("Search interrupted",
				zap.Int("searched", len(results)),
				zap.Int("total", len(contacts)))
		}
	}

	if len(results) == 0 {
		return nil, ErrNoResults
	}

	return r.aggregate(results, len(contacts), cancelled), nil
}

// aggregate sorts by descending mention count with a stable sort, so equal
// counts keep their ingestion order, and computes the summary counters.
func (r *Runner) aggregate(results []*core.Result, totalInput int, partial bool) *core.Report {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalMentions > results[j].TotalMentions
	})

	withMentions := 0
	for _, result := range results {
		if result.TotalMentions > 0 {
			withMentions++
		}
	}

	return &core.Report{
		Results: results,
		Summary: core.Summary{
			TotalSearched: len(results),
			WithMentions:  withMentions,
		},
		Partial:     partial && len(results) < totalInput,
		TotalInput:  totalInput,
		GeneratedAt: r.now(),
	}
}

func (r *Runner) isCancelled() bool {
	return r.Cancelled != nil && r.Cancelled.Load()
}

func (r *Runner) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (r *Runner) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}
