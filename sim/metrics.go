// Tracks run-wide packet delivery metrics such as:
// delivered and failed counts, failure kinds, and start-to-receive latency.

package sim

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"
)

// Metrics aggregates statistics about packet delivery
// for final reporting. Feed it events by subscribing Record.
type Metrics struct {
	mu sync.Mutex

	Started   int // packets created
	Delivered int // packets that reached their target
	Failed    int // packets that ended in error

	Latencies map[string]int64 // packet ID -> start-to-receive time, ms
	Failures  map[string]int   // error kind -> count

	startedAt map[string]int64
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Latencies: make(map[string]int64),
		Failures:  make(map[string]int),
		startedAt: make(map[string]int64),
	}
}

// Record implements Listener.
func (m *Metrics) Record(ev PacketEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := ev.Packet.ID
	switch ev.Type {
	case EventStart:
		m.Started++
		m.startedAt[id] = ev.Timestamp
	case EventReceive:
		m.Delivered++
		if at, ok := m.startedAt[id]; ok {
			m.Latencies[id] = ev.Timestamp - at
			delete(m.startedAt, id)
		}
	case EventError:
		m.Failed++
		m.Failures[ev.Error]++
		delete(m.startedAt, id)
	}
}

// Snapshot is a point-in-time summary of Metrics.
type Snapshot struct {
	Started       int            `json:"started"`
	Delivered     int            `json:"delivered"`
	Failed        int            `json:"failed"`
	InFlight      int            `json:"inFlight"`
	MeanLatencyMs float64        `json:"meanLatencyMs"`
	P50LatencyMs  float64        `json:"p50LatencyMs"`
	P95LatencyMs  float64        `json:"p95LatencyMs"`
	MaxLatencyMs  int64          `json:"maxLatencyMs"`
	Failures      map[string]int `json:"failures"`
}

// Snapshot computes the summary statistics.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	lat := make([]int64, 0, len(m.Latencies))
	for _, v := range m.Latencies {
		lat = append(lat, v)
	}
	slices.Sort(lat)

	s := Snapshot{
		Started:   m.Started,
		Delivered: m.Delivered,
		Failed:    m.Failed,
		InFlight:  len(m.startedAt),
		Failures:  make(map[string]int, len(m.Failures)),
	}
	for k, v := range m.Failures {
		s.Failures[k] = v
	}
	if len(lat) > 0 {
		s.MeanLatencyMs = CalculateMean(lat)
		s.P50LatencyMs = CalculatePercentile(lat, 50)
		s.P95LatencyMs = CalculatePercentile(lat, 95)
		s.MaxLatencyMs = lat[len(lat)-1]
	}
	return s
}

// Print writes the delivery report.
func (m *Metrics) Print(w io.Writer) {
	s := m.Snapshot()
	fmt.Fprintln(w, "=== Delivery Metrics ===")
	fmt.Fprintf(w, "Started        : %d\n", s.Started)
	fmt.Fprintf(w, "Delivered      : %d\n", s.Delivered)
	fmt.Fprintf(w, "Failed         : %d\n", s.Failed)
	if s.Delivered > 0 {
		fmt.Fprintf(w, "Mean latency   : %.1f ms\n", s.MeanLatencyMs)
		fmt.Fprintf(w, "P50 latency    : %.1f ms\n", s.P50LatencyMs)
		fmt.Fprintf(w, "P95 latency    : %.1f ms\n", s.P95LatencyMs)
		fmt.Fprintf(w, "Max latency    : %d ms\n", s.MaxLatencyMs)
	}
	kinds := make([]string, 0, len(s.Failures))
	for k := range s.Failures {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-20s %d\n", k, s.Failures[k])
	}
}
