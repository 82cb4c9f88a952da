package trade

import (
	"errors"
	"math/rand"
	"time"
)

// ErrInvalidArgument is returned when a caller asks for a negative batch.
var ErrInvalidArgument = errors.New("total count must be a non-negative integer")

// DefaultWindowSeconds is how many one-second buckets a batch is spread over
// when the config does not say otherwise.
const DefaultWindowSeconds = 10

// Scheduler spreads a batch of records over a fixed window of one-second
// buckets, assigning each record a jittered timestamp inside its bucket.
type Scheduler struct {
	factory *Factory
	window  int
	rng     *rand.Rand
	clock   Clock
}

func NewScheduler(factory *Factory, windowSeconds int, rng *rand.Rand, clock Clock) *Scheduler {
	if windowSeconds <= 0 {
		windowSeconds = DefaultWindowSeconds
	}
	if clock == nil {
		clock = UTCClock
	}
	return &Scheduler{
		factory: factory,
		window:  windowSeconds,
		rng:     rng,
		clock:   clock,
	}
}

// Window returns the length of the scheduling window in seconds.
func (s *Scheduler) Window() int { return s.window }

// Plan allocates total across the window's buckets. Each bucket except the
// last draws a random share of what remains; the last bucket absorbs the
// remainder, so the counts always sum to total exactly.
func (s *Scheduler) Plan(total int) ([]int, error) {
	if total < 0 {
		return nil, ErrInvalidArgument
	}

	counts := make([]int, s.window)
	remaining := total
	for i := 0; i < s.window-1; i++ {
		if remaining <= 1 {
			continue
		}
		n := s.rng.Intn(remaining/3 + 1)
		counts[i] = n
		remaining -= n
	}
	counts[s.window-1] = remaining

	return counts, nil
}

// Generate plans a batch of total records and builds them through the
// factory. Records for bucket i get event times in (base+i+1, base+i+2]
// seconds, so the whole batch covers (base+1s, base+window+1s] with
// sub-second jitter. Output is in bucket order, not globally time-sorted.
func (s *Scheduler) Generate(total int) ([]Record, error) {
	counts, err := s.Plan(total)
	if err != nil {
		return nil, err
	}

	base := s.clock.Now().UTC()
	records := make([]Record, 0, total)
	for bucket, n := range counts {
		for j := 0; j < n; j++ {
			offset := time.Duration((float64(bucket+1) + s.rng.Float64()) * float64(time.Second))
			rec, err := s.factory.New(base.Add(offset))
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	}

	return records, nil
}
