package scraper

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Navigator walks listing pages by following "next" links until none remain.
type Navigator struct {
	session  *Session
	start    string
	maxPages int
	visited  *lru.Cache[string, int]
	metrics  *Metrics
	consumed bool
}

// NewNavigator builds a navigator over session starting at start.
func NewNavigator(session *Session, start string, maxPages, visitedCacheSize int, metrics *Metrics) (*Navigator, error) {
	visited, err := lru.New[string, int](visitedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("visited cache: %w", err)
	}
	return &Navigator{
		session:  session,
		start:    start,
		maxPages: maxPages,
		visited:  visited,
		metrics:  metrics,
	}, nil
}

// Pages yields each listing page in order. The sequence is single-pass:
// ranging over it a second time yields ErrSequenceConsumed. Any error ends
// the sequence.
func (n *Navigator) Pages(ctx context.Context) iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		if n.consumed {
			yield(nil, &NavigationError{URL: n.start, Err: ErrSequenceConsumed})
			return
		}
		n.consumed = true

		next := n.start
		for number := 1; ; number++ {
			if prev, ok := n.visited.Get(next); ok {
				yield(nil, &NavigationError{Page: number, URL: next, Err: fmt.Errorf("%w (page %d)", ErrPaginationLoop, prev)})
				return
			}
			n.visited.Add(next, number)

			start := time.Now()
			page, err := n.session.Load(ctx, next)
			if err != nil {
				yield(nil, &NavigationError{Page: number, URL: next, Err: err})
				return
			}
			page.Number = number
			n.metrics.IncPages()
			n.metrics.ObserveDuration(time.Since(start))

			if !yield(page, nil) {
				return
			}

			link, ok := page.NextURL()
			if !ok {
				if page.HasMorePages() {
					yield(nil, &NavigationError{Page: number, URL: page.URL.String(), Err: fmt.Errorf("%w: pager reads %d of %d", ErrMissingNextLink, page.Current, page.Total)})
				}
				return
			}
			if number >= n.maxPages {
				// A pager promising more pages means stopping here would
				// commit a partial catalog.
				if page.HasMorePages() {
					yield(nil, &NavigationError{Page: number, URL: page.URL.String(), Err: fmt.Errorf("%w: pager reads %d of %d", ErrMaxPagesReached, page.Current, page.Total)})
					return
				}
				slog.Info("max pages reached, stopping navigation",
					slog.Int("pages", number),
					slog.String("next", link),
				)
				return
			}
			next = link
		}
	}
}
