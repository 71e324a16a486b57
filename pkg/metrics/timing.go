// Package metrics provides instrumentation for storytour.
//
// Two kinds of data are collected:
//   - Timing metrics for host hot paths (target resolution, rendering,
//     browser round trips)
//   - Tour analytics: event counts and per-step dwell time, gathered by a
//     Recorder plugged into the sequencer as its Tracker
//
// Collection is on by default; STORYTOUR_METRICS=0 turns it off.
//
// Usage:
//
//	func (p *Page) Resolve(locator string) (tour.Element, bool) {
//	    defer metrics.Timer(metrics.TargetResolve)()
//	    // ...
//	}
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("STORYTOUR_METRICS") != "0")
}

// SetEnabled switches collection on or off for the whole process.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric accumulates durations for one named operation. It is safe
// for concurrent use.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
	min   atomic.Int64 // 0 until the first sample
}

// NewTimingMetric creates a metric outside the global host set.
func NewTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one sample. Non-positive durations count as 1ns.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled.Load() {
		return
	}
	ns := max(d.Nanoseconds(), 1)
	m.count.Add(1)
	m.total.Add(ns)
	raise(&m.max, ns, func(cur int64) bool { return ns > cur })
	raise(&m.min, ns, func(cur int64) bool { return cur == 0 || ns < cur })
}

// raise stores ns into v while better reports it beats the current value.
func raise(v *atomic.Int64, ns int64, better func(cur int64) bool) {
	for {
		cur := v.Load()
		if !better(cur) || v.CompareAndSwap(cur, ns) {
			return
		}
	}
}

// Count returns the number of samples.
func (m *TimingMetric) Count() int64 {
	return m.count.Load()
}

// Stats snapshots the metric in milliseconds.
func (m *TimingMetric) Stats() TimingStats {
	n := m.count.Load()
	total := m.total.Load()
	var avg int64
	if n > 0 {
		avg = total / n
	}
	return TimingStats{
		Name:    m.name,
		Count:   n,
		TotalMs: ms(total),
		AvgMs:   ms(avg),
		MaxMs:   ms(m.max.Load()),
		MinMs:   ms(m.min.Load()),
	}
}

func ms(ns int64) float64 { return float64(ns) / 1e6 }

// Reset drops every sample.
func (m *TimingMetric) Reset() {
	for _, v := range []*atomic.Int64{&m.count, &m.total, &m.max, &m.min} {
		v.Store(0)
	}
}

// TimingStats is a snapshot of a TimingMetric.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer starts timing m and returns the func that records the sample:
//
//	defer metrics.Timer(metrics.UIRender)()
func Timer(m *TimingMetric) func() {
	if m == nil || !enabled.Load() {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

// Host timing metrics.
var (
	TargetResolve = NewTimingMetric("target_resolve")
	UIRender      = NewTimingMetric("ui_render")
	BrowserEval   = NewTimingMetric("browser_eval")
)

func hostMetrics() []*TimingMetric {
	return []*TimingMetric{TargetResolve, UIRender, BrowserEval}
}

// ResetAll clears the host metrics.
func ResetAll() {
	for _, m := range hostMetrics() {
		m.Reset()
	}
}

// AllTimingStats returns stats for the host metrics that have samples.
func AllTimingStats() []TimingStats {
	var stats []TimingStats
	for _, m := range hostMetrics() {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}
