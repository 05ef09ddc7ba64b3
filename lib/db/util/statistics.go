package util

import (
	"math"
	"sort"
	"sync"
)

// ----------------------------------------------------------------------------
// Helper functions
// ----------------------------------------------------------------------------

type Stats struct {
	StdDeviation float64 `json:"std_deviation" yaml:"std_deviation"`
	Min          float64 `json:"min" yaml:"min"`
	Max          float64 `json:"max" yaml:"max"`
	Mean         float64 `json:"mean" yaml:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio" yaml:"min_max_ratio"`
}

// NewStats computes the standard deviation, minimum, and maximum values
// from an array of float64 values.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	min, max := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	var sumSquaredDiffs float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	// population standard deviation
	stdDev := math.Sqrt(sumSquaredDiffs / float64(len(values)))

	var minMaxRatio float64 = 1.0
	if max > 0 {
		minMaxRatio = min / max
	}

	return Stats{
		StdDeviation: stdDev,
		Min:          min,
		Max:          max,
		Mean:         mean,
		MinMaxRatio:  minMaxRatio,
	}
}

type DistributionStats struct {
	Stats               `yaml:",inline"`
	DistributionQuality float64 `json:"distribution_quality" yaml:"distribution_quality"`
}

// NewDistributionStats computes quality metrics for value distribution
// (e.g. how evenly keys are spread across shards)
func NewDistributionStats(sizes []float64) DistributionStats {
	stats := NewStats(sizes)

	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	// lower CV and higher min/max ratio indicate better distribution
	distributionQuality := (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5

	return DistributionStats{
		Stats:               stats,
		DistributionQuality: distributionQuality,
	}
}

// ----------------------------------------------------------------------------
// Histogram
// ----------------------------------------------------------------------------

// Bucket is one bin of a Histogram. It counts samples v with Lower < v <= Upper
// (the first bucket also includes Lower itself).
type Bucket struct {
	Lower int   `json:"lower" yaml:"lower"`
	Upper int   `json:"upper" yaml:"upper"`
	Count int64 `json:"count" yaml:"count"`
}

// Histogram counts samples in buckets defined by sorted upper boundaries.
// Samples above the last boundary land in an overflow bucket.
type Histogram struct {
	mutex      sync.RWMutex
	lower      int
	boundaries []int
	buckets    []int64 // len(boundaries) + 1, last one is the overflow bucket
	count      int64
	sum        int64
}

// NewSizeHistogram creates a histogram with exponential boundaries
// from 16 bytes to 4GB, suited for tracking value sizes.
func NewSizeHistogram() *Histogram {
	return newHistogram(0, []int{
		16, 64, 256, 1024, 4096, // Bytes: 16B to 4KB
		16384, 65536, 262144, 1048576, // KB range: 16KB to 1MB
		4194304, 16777216, 67108864, // MB range: 4MB to 64MB
		268435456, 1073741824, 4294967296, // Above 256MB to 4GB
	})
}

// NewLinearHistogram creates a histogram with bins equal-width buckets covering [min, max].
// bins < 1 is treated as 1.
func NewLinearHistogram(min, max, bins int) *Histogram {
	if bins < 1 {
		bins = 1
	}
	if max < min {
		min, max = max, min
	}
	span := max - min
	boundaries := make([]int, 0, bins)
	for i := 1; i <= bins; i++ {
		upper := min + int(math.Ceil(float64(span)*float64(i)/float64(bins)))
		if len(boundaries) > 0 && upper <= boundaries[len(boundaries)-1] {
			continue // collapse empty bins when the span is smaller than bins
		}
		boundaries = append(boundaries, upper)
	}
	return newHistogram(min, boundaries)
}

func newHistogram(lower int, boundaries []int) *Histogram {
	return &Histogram{
		lower:      lower,
		boundaries: boundaries,
		buckets:    make([]int64, len(boundaries)+1),
	}
}

// AddSample adds a sample to the histogram
//
// Thread-safe: This method is safe for concurrent use
func (h *Histogram) AddSample(value int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	idx := sort.SearchInts(h.boundaries, value) // first boundary >= value
	h.buckets[idx]++
	h.count++
	h.sum += int64(value)
}

// GetCount returns the total number of samples
//
// Thread-safe: This method is safe for concurrent use
func (h *Histogram) GetCount() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.count
}

// Average returns the average of all samples
//
// Thread-safe: This method is safe for concurrent use
func (h *Histogram) Average() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// PercentileEstimate returns an estimate for the given percentile (0-100),
// the midpoint of the bucket holding that percentile.
//
// Thread-safe: This method is safe for concurrent use
func (h *Histogram) PercentileEstimate(percentile int) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 || percentile < 0 || percentile > 100 || len(h.boundaries) == 0 {
		return 0
	}

	target := int64(math.Ceil(float64(h.count) * float64(percentile) / 100.0))
	var cumulative int64
	for i, count := range h.buckets {
		cumulative += count
		if cumulative >= target {
			switch {
			case i == 0:
				return (h.lower + h.boundaries[0]) / 2
			case i < len(h.boundaries):
				return (h.boundaries[i-1] + h.boundaries[i]) / 2
			default:
				// overflow bucket
				return h.boundaries[len(h.boundaries)-1] * 2
			}
		}
	}
	return int(h.sum / h.count)
}

// MedianEstimate is PercentileEstimate(50).
func (h *Histogram) MedianEstimate() int {
	return h.PercentileEstimate(50)
}

// Buckets returns a copy of all non-overflow buckets followed by the overflow
// bucket if it holds samples.
//
// Thread-safe: This method is safe for concurrent use
func (h *Histogram) Buckets() []Bucket {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	out := make([]Bucket, 0, len(h.buckets))
	lower := h.lower
	for i, upper := range h.boundaries {
		out = append(out, Bucket{Lower: lower, Upper: upper, Count: h.buckets[i]})
		lower = upper
	}
	if overflow := h.buckets[len(h.boundaries)]; overflow > 0 {
		out = append(out, Bucket{Lower: lower, Upper: math.MaxInt, Count: overflow})
	}
	return out
}
