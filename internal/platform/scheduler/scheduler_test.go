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

func TestParseSpec(t *testing.T) {
	t.Parallel()

	ist := time.FixedZone("IST", 5*3600+1800)

	tests := []struct {
		name     string
		spec     string
		from     time.Time
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "daily with seconds field",
			spec:     "0 30 8 * * *",
			from:     time.Date(2023, 6, 1, 9, 0, 0, 0, ist),
			expected: time.Date(2023, 6, 2, 8, 30, 0, 0, ist),
		},
		{
			name:     "weekdays only",
			spec:     "0 0 16 * * 1-5",
			from:     time.Date(2023, 6, 2, 17, 0, 0, 0, ist), // Fri
			expected: time.Date(2023, 6, 5, 16, 0, 0, 0, ist), // Mon
		},
		{
			name:     "descriptor",
			spec:     "@daily",
			from:     time.Date(2023, 6, 1, 9, 0, 0, 0, ist),
			expected: time.Date(2023, 6, 2, 0, 0, 0, 0, ist),
		},
		{name: "five fields rejected", spec: "30 8 * * *", wantErr: true},
		{name: "garbage", spec: "every morning", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			schedule, err := ParseSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(schedule.Next(tt.from)), "next = %v", schedule.Next(tt.from))
		})
	}
}

func TestScheduler_Register(t *testing.T) {
	t.Parallel()

	s := New(context.Background(), time.UTC)

	require.NoError(t, s.Register("sync", "0 30 8 * * *", func(ctx context.Context) error { return nil }))

	err := s.Register("broken", "not a spec", func(ctx context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register broken task")
}

func TestScheduler_RunNow(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "base")
	s := New(ctx, time.UTC)

	var calls atomic.Int32
	require.NoError(t, s.Register("sync", "0 30 8 * * *", func(ctx context.Context) error {
		calls.Add(1)
		assert.Equal(t, "base", ctx.Value(ctxKey{}), "job receives the scheduler context")
		return errors.New("upstream down")
	}))

	require.NoError(t, s.RunNow("sync"))
	assert.Equal(t, int32(1), calls.Load(), "job errors are logged, not returned")

	assert.Error(t, s.RunNow("missing"))
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s := New(context.Background(), time.UTC)

	var calls atomic.Int32
	require.NoError(t, s.Register("tick", "* * * * * *", func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}))

	s.Start()
	assert.Eventually(t, func() bool { return calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}
