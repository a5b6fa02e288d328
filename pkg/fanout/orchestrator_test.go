package fanout_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachastral/astro-daily/pkg/fanout"
	"github.com/coachastral/astro-daily/pkg/upstream"
)

func testSubjects() []fanout.Subject {
	return []fanout.Subject{
		{ID: "a", UpstreamID: "alpha"},
		{ID: "b", UpstreamID: "beta"},
		{ID: "c", UpstreamID: "gamma"},
	}
}

func TestOrchestrator_CompletenessUnderSuccess(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32

	fetch := func(_ context.Context, subject fanout.Subject) (string, error) {
		calls.Add(1)
		return "content-" + subject.UpstreamID, nil
	}
	orch, err := fanout.NewOrchestrator(8, fanout.PolicyAllOrNothing, fetch, zerolog.Nop())
	require.NoError(t, err)

	result, err := orch.Run(ctx, testSubjects())

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"a": "content-alpha",
		"b": "content-beta",
		"c": "content-gamma",
	}, result)
	assert.Equal(t, int32(3), calls.Load(), "every subject must be attempted exactly once")
}

func TestOrchestrator_AllOrNothingEscalatesSingleFailure(t *testing.T) {
	ctx := context.Background()
	connErr := upstream.NewError(upstream.KindConnectivity, "astrologyapi", "daily", errors.New("dial timeout"))

	fetch := func(_ context.Context, subject fanout.Subject) (string, error) {
		if subject.ID == "b" {
			return "", connErr
		}
		return "ok", nil
	}
	orch, err := fanout.NewOrchestrator(8, fanout.PolicyAllOrNothing, fetch, zerolog.Nop())
	require.NoError(t, err)

	result, err := orch.Run(ctx, testSubjects())

	require.Error(t, err)
	assert.Nil(t, result, "no partial mapping may be returned as success")

	var batchErr *fanout.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Len(t, batchErr.Failed, 1)
	assert.Equal(t, upstream.KindConnectivity, upstream.KindOf(err))
}

func TestOrchestrator_FailureDoesNotCancelSiblings(t *testing.T) {
	ctx := context.Background()
	var completed atomic.Int32
	gate := make(chan struct{})

	fetch := func(_ context.Context, subject fanout.Subject) (string, error) {
		if subject.ID == "a" {
			return "", upstream.NewError(upstream.KindConnectivity, "astrologyapi", "daily", errors.New("down"))
		}
		<-gate
		completed.Add(1)
		return "ok", nil
	}
	orch, err := fanout.NewOrchestrator(8, fanout.PolicyAllOrNothing, fetch, zerolog.Nop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = orch.Run(ctx, testSubjects())
	}()

	// Releasing the gate after the failure has already happened: the
	// siblings must still run to completion rather than being cancelled.
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(2), completed.Load())
}

func TestOrchestrator_BestEffortOmitsFailedSubjects(t *testing.T) {
	ctx := context.Background()

	fetch := func(_ context.Context, subject fanout.Subject) (map[string]string, error) {
		if subject.ID == "b" {
			return nil, upstream.NewError(upstream.KindConnectivity, "astrologyapi", "daily", errors.New("down"))
		}
		return map[string]string{"text": "X"}, nil
	}
	orch, err := fanout.NewOrchestrator(8, fanout.PolicyBestEffort, fetch, zerolog.Nop())
	require.NoError(t, err)

	result, err := orch.Run(ctx, testSubjects())

	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Contains(t, result, "a")
	assert.Contains(t, result, "c")
	assert.NotContains(t, result, "b")
}

func TestOrchestrator_BestEffortTotalFailureIsAnError(t *testing.T) {
	ctx := context.Background()

	fetch := func(_ context.Context, _ fanout.Subject) (string, error) {
		return "", upstream.NewError(upstream.KindConnectivity, "astrologyapi", "daily", errors.New("down"))
	}
	orch, err := fanout.NewOrchestrator(8, fanout.PolicyBestEffort, fetch, zerolog.Nop())
	require.NoError(t, err)

	result, err := orch.Run(ctx, testSubjects())

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestOrchestrator_QuotaOutranksOtherFailures(t *testing.T) {
	ctx := context.Background()

	fetch := func(_ context.Context, subject fanout.Subject) (string, error) {
		switch subject.ID {
		case "a":
			return "", upstream.NewError(upstream.KindConnectivity, "astrologyapi", "daily", errors.New("timeout"))
		case "b":
			return "", upstream.NewError(upstream.KindQuotaExceeded, "astrologyapi", "daily", errors.New("TRIAL_REQUEST_LIMIT_EXCEEDED"))
		default:
			return "", upstream.NewError(upstream.KindUnknown, "astrologyapi", "daily", errors.New("boom"))
		}
	}
	orch, err := fanout.NewOrchestrator(8, fanout.PolicyAllOrNothing, fetch, zerolog.Nop())
	require.NoError(t, err)

	_, err = orch.Run(ctx, testSubjects())

	require.Error(t, err)
	assert.Equal(t, upstream.KindQuotaExceeded, upstream.KindOf(err),
		"quota exhaustion must surface as the batch classification, verifiable by kind not string")
}

func TestOrchestrator_BoundedWorkers(t *testing.T) {
	ctx := context.Background()
	var inFlight, peak atomic.Int32

	fetch := func(_ context.Context, _ fanout.Subject) (int, error) {
		current := inFlight.Add(1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		defer inFlight.Add(-1)
		return 0, nil
	}
	orch, err := fanout.NewOrchestrator(2, fanout.PolicyAllOrNothing, fetch, zerolog.Nop())
	require.NoError(t, err)

	subjects := make([]fanout.Subject, 12)
	for i := range subjects {
		subjects[i] = fanout.Subject{ID: string(rune('a' + i)), UpstreamID: string(rune('a' + i))}
	}
	_, err = orch.Run(ctx, subjects)

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestZodiac(t *testing.T) {
	subjects := fanout.Zodiac()

	assert.Len(t, subjects, 12)
	assert.Equal(t, "aries", subjects[0].ID)
	assert.Equal(t, "piscis", subjects[11].ID)
	assert.Equal(t, "pisces", subjects[11].UpstreamID)

	// Mutating the returned slice must not affect the table.
	subjects[0].ID = "mutated"
	assert.Equal(t, "aries", fanout.Zodiac()[0].ID)
}
