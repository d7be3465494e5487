// Package testutil provides shared test infrastructure for the packet
// simulator: topology builders and float assertions used across sim/ and
// its sub-package tests.
package testutil

import (
	"math"
	"strings"
	"testing"

	"github.com/kelisiWu123/hardware-game/sim/topology"
)

// Topology builds a topology.Store fluently, failing the test on any
// rejected mutation.
type Topology struct {
	t     testing.TB
	Store *topology.Store
}

// NewTopology returns an empty builder.
func NewTopology(t testing.TB) *Topology {
	t.Helper()
	return &Topology{t: t, Store: topology.NewStore()}
}

// Device adds a device at (x, y).
func (b *Topology) Device(id string, typ topology.DeviceType, x, y float64) *Topology {
	b.t.Helper()
	if err := b.Store.AddDevice(topology.NewDevice(id, typ, topology.Position{X: x, Y: y})); err != nil {
		b.t.Fatalf("add device %s: %v", id, err)
	}
	return b
}

// Link connects a and c with an active connection named "a-c".
func (b *Topology) Link(a, c string) *Topology {
	b.t.Helper()
	if _, err := b.Store.AddConnection(a+"-"+c, a, c); err != nil {
		b.t.Fatalf("link %s-%s: %v", a, c, err)
	}
	return b
}

// InactiveLink connects a and c and marks the connection inactive.
func (b *Topology) InactiveLink(a, c string) *Topology {
	b.t.Helper()
	b.Link(a, c)
	if err := b.Store.SetConnectionStatus(a+"-"+c, topology.StatusInactive); err != nil {
		b.t.Fatalf("deactivate %s-%s: %v", a, c, err)
	}
	return b
}

// Star builds a centre device of type centre linked to computers leaves,
// laid out on a row 200 units apart.
func Star(t testing.TB, centreID string, centre topology.DeviceType, leaves ...string) *topology.Store {
	t.Helper()
	b := NewTopology(t).Device(centreID, centre, 0, 0)
	for i, id := range leaves {
		b.Device(id, topology.Computer, float64(i+1)*200, 200).Link(id, centreID)
	}
	return b.Store
}

// Chain builds devices linked in the given order, 200 units apart on the
// x axis. Each entry is "id:type".
func Chain(t testing.TB, entries ...string) *topology.Store {
	t.Helper()
	b := NewTopology(t)
	prev := ""
	for i, e := range entries {
		id, typ := splitEntry(t, e)
		b.Device(id, typ, float64(i)*200, 0)
		if prev != "" {
			b.Link(prev, id)
		}
		prev = id
	}
	return b.Store
}

func splitEntry(t testing.TB, e string) (string, topology.DeviceType) {
	t.Helper()
	id, name, ok := strings.Cut(e, ":")
	if !ok {
		t.Fatalf("chain entry %q: want id:type", e)
	}
	typ, err := topology.ParseDeviceType(name)
	if err != nil {
		t.Fatalf("chain entry %q: %v", e, err)
	}
	return id, typ
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
