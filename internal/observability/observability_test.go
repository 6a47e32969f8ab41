package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBestEffort_DetachedFromCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	RunBestEffort(ctx, "test_detached", time.Second, nil, func(callCtx context.Context) error {
		time.Sleep(20 * time.Millisecond)
		done <- callCtx.Err()
		return nil
	})
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "caller cancellation must not reach the call")
	case <-time.After(2 * time.Second):
		t.Fatal("best-effort call never ran")
	}
}

func TestRunBestEffort_CountsFailuresAndPanics(t *testing.T) {
	before := testutil.ToFloat64(BestEffortCalls.WithLabelValues("test_fail", "error"))
	panicsBefore := testutil.ToFloat64(BestEffortCalls.WithLabelValues("test_fail", "panic"))

	RunBestEffort(context.Background(), "test_fail", time.Second, map[string]interface{}{"asset_id": 1}, func(context.Context) error {
		return errors.New("enrichment unavailable")
	})
	RunBestEffort(context.Background(), "test_fail", time.Second, nil, func(context.Context) error {
		panic("boom")
	})

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(BestEffortCalls.WithLabelValues("test_fail", "error")) == before+1 &&
			testutil.ToFloat64(BestEffortCalls.WithLabelValues("test_fail", "panic")) == panicsBefore+1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunBestEffort_Timeout(t *testing.T) {
	done := make(chan error, 1)
	RunBestEffort(context.Background(), "test_timeout", 10*time.Millisecond, nil, func(callCtx context.Context) error {
		<-callCtx.Done()
		done <- callCtx.Err()
		return callCtx.Err()
	})

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout not applied")
	}
}
