package trade

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestScheduler(t *testing.T, seed int64, window int) *Scheduler {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	factory, err := NewFactory(testGeneratorConfig(), rng)
	require.NoError(t, err)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return NewScheduler(factory, window, rng, fixedClock{t: base})
}

func TestPlanSumInvariant(t *testing.T) {
	totals := []int{0, 1, 2, 5, 37, 100, 1000}
	for seed := int64(0); seed < 20; seed++ {
		sched := newTestScheduler(t, seed, 10)
		for _, total := range totals {
			counts, err := sched.Plan(total)
			require.NoError(t, err)
			require.Len(t, counts, 10)

			sum := 0
			for _, n := range counts {
				assert.GreaterOrEqual(t, n, 0)
				sum += n
			}
			assert.Equal(t, total, sum, "seed=%d total=%d counts=%v", seed, total, counts)
		}
	}
}

func TestPlanSmallTotalsGoToFinalBucket(t *testing.T) {
	sched := newTestScheduler(t, 3, 10)

	for _, total := range []int{0, 1} {
		counts, err := sched.Plan(total)
		require.NoError(t, err)
		for i := 0; i < len(counts)-1; i++ {
			assert.Zero(t, counts[i])
		}
		assert.Equal(t, total, counts[len(counts)-1])
	}
}

func TestPlanRejectsNegativeTotal(t *testing.T) {
	sched := newTestScheduler(t, 1, 10)
	_, err := sched.Plan(-1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

// Scenario: 5 records over a 10-second window. The first nine buckets take
// randomized shares and the last absorbs whatever remains, for any draw.
func TestPlanFiveOverTenSeconds(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		sched := newTestScheduler(t, seed, 10)
		counts, err := sched.Plan(5)
		require.NoError(t, err)
		require.Len(t, counts, 10)

		allocated := 0
		for _, n := range counts[:9] {
			allocated += n
		}
		assert.Equal(t, 5-allocated, counts[9])
	}
}

func TestGenerateJitterWindow(t *testing.T) {
	const total = 200
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	sched := newTestScheduler(t, 11, 10)
	records, err := sched.Generate(total)
	require.NoError(t, err)
	require.Len(t, records, total)

	prevBucket := 0
	for _, rec := range records {
		offset := rec.EventTime.Sub(base).Seconds()
		assert.GreaterOrEqual(t, offset, 1.0, "event time must not precede base+1s")
		assert.LessOrEqual(t, offset, 11.0, "event time must stay inside the window")

		// Records come out in bucket order, so the one-second floor of
		// each offset must never decrease.
		bucket := int(offset)
		assert.GreaterOrEqual(t, bucket, prevBucket)
		prevBucket = bucket
	}
}

func TestGenerateZeroIsEmpty(t *testing.T) {
	sched := newTestScheduler(t, 2, 10)
	records, err := sched.Generate(0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGenerateRejectsNegativeTotal(t *testing.T) {
	sched := newTestScheduler(t, 2, 10)
	_, err := sched.Generate(-5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
