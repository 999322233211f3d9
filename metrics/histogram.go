package metrics

import (
	"container/ring"
	"math"
	"sort"
	"strconv"
	"sync"
)

// Histogram keeps the most recent samples of a value
type Histogram struct {
	mu          sync.Mutex
	samples     *ring.Ring
	count       int64
	sum         float64
	min         float64
	max         float64
	percentiles []float64
}

// NewHistogram creates a histogram holding at most maxSamples values
func NewHistogram(maxSamples int, percentiles ...float64) *Histogram {
	if maxSamples <= 0 {
		maxSamples = 1000
	}
	if len(percentiles) == 0 {
		percentiles = []float64{50, 90, 99}
	}
	return &Histogram{
		samples:     ring.New(maxSamples),
		min:         math.Inf(1),
		max:         math.Inf(-1),
		percentiles: percentiles,
	}
}

// Add records v
func (h *Histogram) Add(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.count++
	h.sum += v
	h.min = math.Min(h.min, v)
	h.max = math.Max(h.max, v)
	h.samples.Value = v
	h.samples = h.samples.Next()
}

// HistogramStats is a summary of a histogram
type HistogramStats struct {
	Count       int64               `json:"count"`
	Min         float64             `json:"min"`
	Max         float64             `json:"max"`
	Mean        float64             `json:"mean"`
	Percentiles map[string]float64 `json:"percentiles"` // keyed p50, p90, ...
}

// GetStats returns current histogram statistics
func (h *Histogram) GetStats() HistogramStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return HistogramStats{}
	}

	var samples []float64
	h.samples.Do(func(v any) {
		if v != nil {
			samples = append(samples, v.(float64))
		}
	})
	sort.Float64s(samples)

	stats := HistogramStats{
		Count:       h.count,
		Min:         h.min,
		Max:         h.max,
		Mean:        h.sum / float64(h.count),
		Percentiles: make(map[string]float64, len(h.percentiles)),
	}
	for _, p := range h.percentiles {
		idx := int(float64(len(samples)) * p / 100)
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		stats.Percentiles[percentileKey(p)] = samples[idx]
	}
	return stats
}

func percentileKey(p float64) string {
	return "p" + strconv.FormatFloat(p, 'f', -1, 64)
}
