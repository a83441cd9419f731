package health

import (
	"fmt"
	"time"
)

// Timing summarises a set of probe durations.
type Timing struct {
	Count int
	Total time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Aggregate computes the maximum and mean of samples.
//
// An empty input returns ErrNoSamples rather than a zero or undefined mean;
// callers decide what an empty probe set means for their check.
func Aggregate(samples []time.Duration) (Timing, error) {
	if len(samples) == 0 {
		return Timing{}, ErrNoSamples
	}

	t := Timing{Count: len(samples)}
	for _, s := range samples {
		t.Total += s
		if s > t.Max {
			t.Max = s
		}
	}
	t.Avg = t.Total / time.Duration(t.Count)
	return t, nil
}

// AvgSeconds returns the exact arithmetic mean in seconds.
func (t Timing) AvgSeconds() float64 {
	if t.Count == 0 {
		return 0
	}
	return t.Total.Seconds() / float64(t.Count)
}

// MaxSeconds returns the maximum in seconds.
func (t Timing) MaxSeconds() float64 {
	return t.Max.Seconds()
}

// PerfData renders the timing as a performance-data annotation.
func (t Timing) PerfData() string {
	return fmt.Sprintf("avg=%.6fs max=%.6fs", t.AvgSeconds(), t.MaxSeconds())
}
