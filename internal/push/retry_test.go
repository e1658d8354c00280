package push

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:           3,
		MaxNoResponseRetries: 2,
		InitialDelay:         time.Millisecond,
		BackoffMultiplier:    2,
	}
}

func TestDoWithPolicy_SucceedsFirstAttempt(t *testing.T) {
	outcomes := DoWithPolicy(context.Background(), testPolicy(), func(ctx context.Context) error {
		return nil
	})

	assert.Len(t, outcomes, 1)
	assert.NoError(t, outcomes[0].Err)
}

func TestDoWithPolicy_NoResponseTwiceThenSuccess(t *testing.T) {
	calls := 0
	outcomes := DoWithPolicy(context.Background(), testPolicy(), func(ctx context.Context) error {
		calls++
		if calls <= 2 {
			return NoResponse(errors.New("connection refused"))
		}
		return nil
	})

	assert.Equal(t, 3, calls)
	assert.Len(t, outcomes, 3)
	assert.Error(t, outcomes[0].Err)
	assert.Error(t, outcomes[1].Err)
	assert.NoError(t, outcomes[2].Err, "two no-response failures stay within the no-response cap")
}

func TestDoWithPolicy_NoResponseCapExhausted(t *testing.T) {
	calls := 0
	outcomes := DoWithPolicy(context.Background(), testPolicy(), func(ctx context.Context) error {
		calls++
		return NoResponse(errors.New("timeout"))
	})

	// initial attempt + MaxNoResponseRetries retries
	assert.Equal(t, 3, calls)
	assert.Error(t, outcomes[len(outcomes)-1].Err)
}

func TestDoWithPolicy_ResponseErrorsExhaustTotalRetries(t *testing.T) {
	calls := 0
	outcomes := DoWithPolicy(context.Background(), testPolicy(), func(ctx context.Context) error {
		calls++
		return errors.New("fcm responded 503")
	})

	// initial attempt + MaxRetries retries
	assert.Equal(t, 4, calls)
	assert.Len(t, outcomes, 4)
	assert.Error(t, outcomes[len(outcomes)-1].Err)
}

func TestDoWithPolicy_PermanentErrorStopsImmediately(t *testing.T) {
	calls := 0
	outcomes := DoWithPolicy(context.Background(), testPolicy(), func(ctx context.Context) error {
		calls++
		return Permanent(errors.New("fcm responded 404"))
	})

	assert.Equal(t, 1, calls)
	assert.Len(t, outcomes, 1)
	assert.Error(t, outcomes[0].Err)
}

func TestDoWithPolicy_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := testPolicy()
	policy.InitialDelay = time.Minute

	done := make(chan []AttemptOutcome, 1)
	go func() {
		done <- DoWithPolicy(ctx, policy, func(ctx context.Context) error {
			return errors.New("fcm responded 503")
		})
	}()
	cancel()

	select {
	case outcomes := <-done:
		last := outcomes[len(outcomes)-1]
		assert.ErrorIs(t, last.Err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("DoWithPolicy did not return after context cancellation")
	}
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsNoResponse(NoResponse(errors.New("x"))))
	assert.False(t, IsNoResponse(errors.New("x")))
	assert.True(t, IsPermanent(Permanent(errors.New("x"))))
	assert.False(t, IsPermanent(NoResponse(errors.New("x"))))
}
