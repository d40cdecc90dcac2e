package validate

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RuleStats accumulates the cost of one rule across runs.
type RuleStats struct {
	Time  time.Duration `json:"time"`
	Calls int           `json:"calls"`
}

var (
	profilingOn atomic.Bool

	statsMu sync.Mutex
	stats   = make(map[string]RuleStats)

	// Metrics is the registry the rule histogram is registered on.
	Metrics = prometheus.NewRegistry()

	ruleDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graphcheck_rule_duration_seconds",
		Help:    "Time spent in a single rule application.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"rule"})
)

func init() {
	Metrics.MustRegister(ruleDuration)
}

// EnableProfiling switches per-rule timing on or off for the whole process.
func EnableProfiling(on bool) { profilingOn.Store(on) }

// ProfilingEnabled reports whether per-rule timing is on.
func ProfilingEnabled() bool { return profilingOn.Load() }

// ProfilingStats returns a copy of the accumulated per-rule stats.
func ProfilingStats() map[string]RuleStats {
	statsMu.Lock()
	defer statsMu.Unlock()
	out := make(map[string]RuleStats, len(stats))
	for k, v := range stats {
		out[k] = v
	}
	return out
}

// ResetProfilingStats discards the accumulated stats.
func ResetProfilingStats() {
	statsMu.Lock()
	stats = make(map[string]RuleStats)
	statsMu.Unlock()
}

func record(ruleID string, d time.Duration) {
	statsMu.Lock()
	s := stats[ruleID]
	s.Time += d
	s.Calls++
	stats[ruleID] = s
	statsMu.Unlock()
	ruleDuration.WithLabelValues(ruleID).Observe(d.Seconds())
}
