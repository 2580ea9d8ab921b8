package search

import (
	"context"
	"sync"
	"time"

	"curately/catalogservice/internal/domain"
)

// Debouncer serializes as-you-type aggregation: each Submit schedules one
// pending search after a quiet period and supersedes any previously scheduled
// call. In-flight aggregations are not aborted; a superseded result is simply
// discarded, so the callback only ever observes the latest query's bundle
// (last-query-wins).
type Debouncer struct {
	service *Service
	delay   time.Duration

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

const defaultDebounceDelay = 300 * time.Millisecond

func NewDebouncer(service *Service, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = defaultDebounceDelay
	}
	return &Debouncer{service: service, delay: delay}
}

// Submit schedules an aggregation for the query. The callback runs at most
// once per Submit and only when no newer Submit has arrived, either before the
// quiet period elapsed or while the aggregation was in flight.
func (d *Debouncer) Submit(ctx context.Context, query string, apply func(domain.ResultBundle)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		if !d.isCurrent(gen) {
			return
		}
		bundle, err := d.service.Aggregate(ctx, query)
		if err != nil {
			return
		}
		// Re-check after the fan-out: a newer query may have been submitted
		// while this one was in flight.
		if !d.isCurrent(gen) {
			return
		}
		apply(bundle)
	})
}

// Cancel drops any pending, not-yet-fired submission and invalidates
// in-flight ones.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) isCurrent(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen == gen
}
