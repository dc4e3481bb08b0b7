// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"sync"
	"time"
)

const LatencyBuckets = 101
const LatencyBucketSize = 50 * time.Millisecond

// Histogram counts durations in LatencyBucketSize buckets. The last bucket
// holds everything slower.
type Histogram struct {
	Buckets [LatencyBuckets]uint64 `json:"b"`
	Count   uint64                 `json:"c"`
	Sum     float64                `json:"s"` // Sum of durations in milliseconds
}

func (h *Histogram) Add(d time.Duration) {
	idx := int(d / LatencyBucketSize)
	if idx >= LatencyBuckets {
		idx = LatencyBuckets - 1
	}
	if idx < 0 {
		idx = 0
	}
	h.Buckets[idx]++
	h.Count++
	h.Sum += float64(d.Milliseconds())
}

// Mean returns the average duration in milliseconds.
func (h *Histogram) Mean() float64 {
	if h.Count == 0 {
		return 0
	}
	return h.Sum / float64(h.Count)
}

// Point is a single data point in a time series.
type Point[T any] struct {
	Timestamp int64 `json:"t"`
	Value     T     `json:"v"`
}

// RingBuffer is a fixed-size circular buffer of points aligned to a resolution.
type RingBuffer[T any] struct {
	Resolution time.Duration
	Data       []Point[T]
	Head       int // next write position
}

func NewRingBuffer[T any](resolution time.Duration, buckets int) *RingBuffer[T] {
	return &RingBuffer[T]{
		Resolution: resolution,
		Data:       make([]Point[T], buckets),
	}
}

// Update applies fn to the point of the slot holding timestamp, starting a
// new slot when timestamp falls past the last one.
func (rb *RingBuffer[T]) Update(timestamp int64, fn func(T) T) {
	resSec := int64(rb.Resolution.Seconds())
	aligned := (timestamp / resSec) * resSec

	prev := (rb.Head - 1 + len(rb.Data)) % len(rb.Data)
	if rb.Data[prev].Timestamp == aligned {
		rb.Data[prev].Value = fn(rb.Data[prev].Value)
		return
	}
	var zero T
	rb.Data[rb.Head] = Point[T]{Timestamp: aligned, Value: fn(zero)}
	rb.Head = (rb.Head + 1) % len(rb.Data)
}

// Points returns the populated points oldest first.
func (rb *RingBuffer[T]) Points() []Point[T] {
	points := make([]Point[T], 0, len(rb.Data))
	for i := 0; i < len(rb.Data); i++ {
		idx := (rb.Head + i) % len(rb.Data)
		if rb.Data[idx].Timestamp > 0 {
			points = append(points, rb.Data[idx])
		}
	}
	return points
}

// Save outcomes counted by Metrics.
const (
	OutcomeSaved    = "saved"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics tracks ball saves made through the console.
type Metrics struct {
	mu          sync.Mutex
	started     time.Time
	saveLatency Histogram
	outcomes    map[string]uint64
	perMinute   *RingBuffer[uint64] // saved balls per minute, last two hours
	now         func() time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		started:   time.Now(),
		outcomes:  make(map[string]uint64),
		perMinute: NewRingBuffer[uint64](time.Minute, 120),
		now:       time.Now,
	}
}

// ObserveSave records one save attempt.
func (m *Metrics) ObserveSave(outcome string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome]++
	m.saveLatency.Add(d)
	if outcome == OutcomeSaved {
		m.perMinute.Update(m.now().Unix(), func(n uint64) uint64 { return n + 1 })
	}
}

// MetricsPayload is served at /api/metrics.
type MetricsPayload struct {
	UptimeSeconds int64             `json:"uptimeSeconds"`
	Viewers       int               `json:"viewers"`
	SaveLatency   Histogram         `json:"saveLatency"`
	MeanSaveMS    float64           `json:"meanSaveMs"`
	Outcomes      map[string]uint64 `json:"outcomes"`
	SavesPerMin   []Point[uint64]   `json:"savesPerMinute"`
}

// Snapshot copies the current values.
func (m *Metrics) Snapshot(viewers int) MetricsPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	outcomes := make(map[string]uint64, len(m.outcomes))
	for k, v := range m.outcomes {
		outcomes[k] = v
	}
	return MetricsPayload{
		UptimeSeconds: int64(m.now().Sub(m.started).Seconds()),
		Viewers:       viewers,
		SaveLatency:   m.saveLatency,
		MeanSaveMS:    m.saveLatency.Mean(),
		Outcomes:      outcomes,
		SavesPerMin:   m.perMinute.Points(),
	}
}
