package health

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		samples []time.Duration
		wantMax time.Duration
		wantAvg float64
	}{
		{"single", []time.Duration{200 * time.Millisecond}, 200 * time.Millisecond, 0.2},
		{"pair", []time.Duration{100 * time.Millisecond, 300 * time.Millisecond}, 300 * time.Millisecond, 0.2},
		{"uneven", []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}, 4 * time.Millisecond, 0.007 / 3},
		{"zeros", []time.Duration{0, 0}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(tt.samples)
			if err != nil {
				t.Fatalf("Aggregate() error = %v", err)
			}
			if got.Count != len(tt.samples) {
				t.Errorf("Count = %d, want %d", got.Count, len(tt.samples))
			}
			if got.Max != tt.wantMax {
				t.Errorf("Max = %v, want %v", got.Max, tt.wantMax)
			}
			if math.Abs(got.AvgSeconds()-tt.wantAvg) > 1e-9 {
				t.Errorf("AvgSeconds() = %v, want %v", got.AvgSeconds(), tt.wantAvg)
			}
			if got.AvgSeconds() > got.MaxSeconds() {
				t.Errorf("avg %v exceeds max %v", got.AvgSeconds(), got.MaxSeconds())
			}
		})
	}
}

func TestAggregate_Empty(t *testing.T) {
	for _, samples := range [][]time.Duration{nil, {}} {
		if _, err := Aggregate(samples); !errors.Is(err, ErrNoSamples) {
			t.Errorf("Aggregate(%v) error = %v, want ErrNoSamples", samples, err)
		}
	}
}

func TestTiming_PerfData(t *testing.T) {
	timing, err := Aggregate([]time.Duration{100 * time.Millisecond, 300 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := timing.PerfData(), "avg=0.200000s max=0.300000s"; got != want {
		t.Errorf("PerfData() = %q, want %q", got, want)
	}
}

func TestTiming_ZeroValue(t *testing.T) {
	var timing Timing
	if timing.AvgSeconds() != 0 {
		t.Errorf("AvgSeconds() on zero Timing = %v, want 0", timing.AvgSeconds())
	}
}
