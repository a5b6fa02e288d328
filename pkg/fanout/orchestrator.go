package fanout

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/coachastral/astro-daily/pkg/upstream"
)

// DefaultWorkers bounds the pool so the upstream provider's rate limits are
// respected while the batch still finishes in roughly one call's latency.
const DefaultWorkers = 8

// Policy selects how a subject failure affects the batch.
type Policy int

const (
	// PolicyAllOrNothing escalates any subject failure to the whole batch.
	// Used when the response format guarantees the complete subject set.
	PolicyAllOrNothing Policy = iota
	// PolicyBestEffort omits failed subjects and returns the rest.
	PolicyBestEffort
)

// SubjectFetcher produces one subject's content item. Implementations carry
// their own per-call timeouts; a timeout is treated like any other
// connectivity fault for that subject.
type SubjectFetcher[V any] func(ctx context.Context, subject Subject) (V, error)

// BatchError reports a failed all-or-nothing batch. Unwrap exposes the most
// actionable subject error so callers can classify with the usual taxonomy
// helpers: quota exhaustion outranks everything else, because it means
// retrying today cannot succeed.
type BatchError struct {
	// Failed maps subject id to that subject's error.
	Failed map[string]error
	total  int
}

func (e *BatchError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Sprintf("fan-out failed for %d of %d subjects %v: %v", len(e.Failed), e.total, ids, e.Unwrap())
}

func (e *BatchError) Unwrap() error {
	var best error
	bestRank := -1
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if r := kindRank(upstream.KindOf(e.Failed[id])); r > bestRank {
			best, bestRank = e.Failed[id], r
		}
	}
	return best
}

func kindRank(k upstream.Kind) int {
	switch k {
	case upstream.KindQuotaExceeded:
		return 5
	case upstream.KindAuth:
		return 4
	case upstream.KindConfiguration:
		return 3
	case upstream.KindMalformedResponse:
		return 2
	case upstream.KindConnectivity:
		return 1
	default:
		return 0
	}
}

// Orchestrator runs one fetch per subject across a bounded worker pool and
// merges the results by subject id.
type Orchestrator[V any] struct {
	workers int
	policy  Policy
	fetch   SubjectFetcher[V]
	logger  zerolog.Logger
}

// NewOrchestrator creates an orchestrator for the given fetcher and policy.
func NewOrchestrator[V any](workers int, policy Policy, fetch SubjectFetcher[V], logger zerolog.Logger) (*Orchestrator[V], error) {
	if fetch == nil {
		return nil, fmt.Errorf("subject fetcher cannot be nil")
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Orchestrator[V]{
		workers: workers,
		policy:  policy,
		fetch:   fetch,
		logger:  logger.With().Str("component", "FanoutOrchestrator").Logger(),
	}, nil
}

// Run fetches every subject exactly once and returns the merged mapping.
//
// Each worker writes only its own slot; slots are merged after all workers
// finish. A subject failure never cancels sibling in-flight work — under
// all-or-nothing the siblings run to completion and their results are
// discarded.
//
// Under PolicyAllOrNothing any failure yields a *BatchError and no partial
// mapping. Under PolicyBestEffort failed subjects are omitted; the batch
// only errors when every subject failed.
func (o *Orchestrator[V]) Run(ctx context.Context, subjects []Subject) (map[string]V, error) {
	results := make([]V, len(subjects))
	failures := make([]error, len(subjects))

	g := new(errgroup.Group)
	g.SetLimit(o.workers)
	for i, subject := range subjects {
		g.Go(func() error {
			value, err := o.fetch(ctx, subject)
			if err != nil {
				o.logger.Warn().Err(err).Str("subject", subject.ID).Msg("Subject fetch failed.")
				failures[i] = err
				return nil
			}
			results[i] = value
			return nil
		})
	}
	_ = g.Wait()

	failed := make(map[string]error)
	for i, subject := range subjects {
		if failures[i] != nil {
			failed[subject.ID] = failures[i]
		}
	}

	if len(failed) > 0 {
		batchErr := &BatchError{Failed: failed, total: len(subjects)}
		switch {
		case o.policy == PolicyAllOrNothing:
			return nil, batchErr
		case len(failed) == len(subjects):
			// Best effort with nothing to give is still a failure.
			return nil, batchErr
		}
		o.logger.Warn().Int("failed", len(failed)).Int("total", len(subjects)).Msg("Returning partial fan-out result.")
	}

	merged := make(map[string]V, len(subjects)-len(failed))
	for i, subject := range subjects {
		if failures[i] == nil {
			merged[subject.ID] = results[i]
		}
	}
	return merged, nil
}
