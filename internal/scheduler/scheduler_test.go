package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadTimezone(t *testing.T) {
	_, err := New(context.Background(), "Not/AZone", 0, nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("0 */6 * * *"))
	assert.NoError(t, Validate("@every 1h"))
	assert.Error(t, Validate("every hour"))
	assert.Error(t, Validate("* * * *"))
}

func TestAddRemoveJob(t *testing.T) {
	s, err := New(context.Background(), "UTC", 0, nil)
	require.NoError(t, err)

	noop := func(ctx context.Context) error { return nil }
	require.NoError(t, s.AddJob("scrape", "0 7 * * *", noop))
	assert.Error(t, s.AddJob("bad", "nope", noop))

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "scrape", jobs[0].Name)

	s.RemoveJob("scrape")
	assert.Empty(t, s.ListJobs())
}

func TestRunNow(t *testing.T) {
	s, err := New(context.Background(), "UTC", time.Minute, nil)
	require.NoError(t, err)

	var deadline bool
	err = s.RunNow("scrape", func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return nil
	})
	require.NoError(t, err)
	assert.True(t, deadline)

	boom := errors.New("boom")
	assert.ErrorIs(t, s.RunNow("scrape", func(ctx context.Context) error { return boom }), boom)
}

func TestRunNowAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, err := New(ctx, "UTC", 0, nil)
	require.NoError(t, err)
	cancel()

	called := false
	err = s.RunNow("scrape", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestScheduledJobRuns(t *testing.T) {
	s, err := New(context.Background(), "UTC", 0, nil)
	require.NoError(t, err)

	var runs atomic.Int32
	require.NoError(t, s.AddJob("tick", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	<-s.Stop().Done()
}
