package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelisiWu123/hardware-game/sim/internal/testutil"
	"github.com/kelisiWu123/hardware-game/sim/topology"
)

// forwardAt runs the forwarder for a packet that has travelled path and now
// sits on the last device of it.
func forwardAt(t *testing.T, store *topology.Store, target string, path ...string) Decision {
	t.Helper()
	at := path[len(path)-1]
	d, ok := store.Device(at)
	require.True(t, ok, "device %s", at)
	p := Packet{
		ID:              "p",
		SourceID:        path[0],
		TargetID:        target,
		CurrentDeviceID: at,
		Path:            path,
	}
	return NewForwarder(store, nil).Forward(p, d)
}

func TestForward_DeliversAtTargetForEveryType(t *testing.T) {
	delays := DefaultDelays()
	for _, dt := range topology.DeviceTypes() {
		t.Run(string(dt), func(t *testing.T) {
			d := topology.NewDevice("X", dt, topology.Position{})
			p := Packet{ID: "p", SourceID: "Y", TargetID: "X", Path: []string{"Y", "X"}}

			dec := NewForwarder(topology.NewStore(), nil).Forward(p, d)

			assert.True(t, dec.Delivered())
			assert.Equal(t, delays.For(dt).Delivery, dec.Delay)
		})
	}
}

func TestForward_Switch_DirectPort(t *testing.T) {
	// GIVEN C1 - S - C2
	store := testutil.Star(t, "S", topology.Switch, "C1", "C2")

	// WHEN the switch holds a packet for C2
	dec := forwardAt(t, store, "C2", "C1", "S")

	// THEN it forwards straight to C2 with the direct-port delay
	require.NoError(t, dec.Err)
	assert.Equal(t, "C2", dec.NextDeviceID)
	assert.Equal(t, int64(100), dec.Delay)
}

func TestForward_Switch_FallsBackToShortestPath(t *testing.T) {
	store := testutil.Chain(t, "C1:computer", "S1:switch", "S2:switch", "C2:computer")

	dec := forwardAt(t, store, "C2", "C1", "S1")

	require.NoError(t, dec.Err)
	assert.Equal(t, "S2", dec.NextDeviceID)
	assert.Equal(t, int64(150), dec.Delay)
}

func TestForward_Router_AlwaysUsesShortestPath(t *testing.T) {
	store := testutil.Chain(t, "C1:computer", "R1:router", "R2:router", "C2:computer")

	dec := forwardAt(t, store, "C2", "C1", "R1")
	require.NoError(t, dec.Err)
	assert.Equal(t, "R2", dec.NextDeviceID)
	assert.Equal(t, int64(200), dec.Delay)

	// directly attached target still pays the routing delay
	dec = forwardAt(t, store, "C2", "C1", "R1", "R2")
	require.NoError(t, dec.Err)
	assert.Equal(t, "C2", dec.NextDeviceID)
	assert.Equal(t, int64(200), dec.Delay)
}

func TestForward_Gateway_SlowerThanRouter(t *testing.T) {
	store := testutil.Chain(t, "C1:computer", "G:gateway", "C2:computer")

	dec := forwardAt(t, store, "C2", "C1", "G")

	require.NoError(t, dec.Err)
	assert.Equal(t, "C2", dec.NextDeviceID)
	assert.Equal(t, int64(300), dec.Delay)
	assert.Greater(t, dec.Delay, DefaultDelays().For(topology.Router).Relay)
}

func TestForward_NoRouteFound(t *testing.T) {
	store := testutil.NewTopology(t).
		Device("C1", topology.Computer, 0, 0).
		Device("R", topology.Router, 200, 0).
		Device("C2", topology.Computer, 400, 0).
		Link("C1", "R").
		Store

	dec := forwardAt(t, store, "C2", "C1", "R")

	assert.True(t, errors.Is(dec.Err, ErrNoRouteFound))
	assert.Equal(t, ErrNoRouteFound, KindOf(dec.Err))
	assert.Empty(t, dec.NextDeviceID)
	assert.Zero(t, dec.Delay)
}

func TestForward_Computer_OriginatesOwnPackets(t *testing.T) {
	store := testutil.Star(t, "S", topology.Switch, "C1", "C2")

	dec := forwardAt(t, store, "C2", "C1")

	require.NoError(t, dec.Err)
	assert.Equal(t, "S", dec.NextDeviceID)
	assert.Equal(t, int64(50), dec.Delay)
}

func TestForward_Computer_NeverRelays(t *testing.T) {
	// GIVEN a packet for C3 that ended up on computer C2
	store := testutil.Star(t, "H", topology.Hub, "C1", "C2", "C3")
	paths := [][]string{
		{"C1", "H", "C2"},
		{"C2", "H", "C2"}, // back at its own source after leaving it
	}
	for _, path := range paths {
		// WHEN the computer is asked to forward
		dec := forwardAt(t, store, "C3", path...)

		// THEN it always fails with cannot-forward
		assert.ErrorIs(t, dec.Err, ErrCannotForward, "path %v", path)
		assert.Empty(t, dec.NextDeviceID)
	}
}

func TestForward_Hub(t *testing.T) {
	t.Run("target attached", func(t *testing.T) {
		store := testutil.Star(t, "H", topology.Hub, "C1", "C2", "C3")
		dec := forwardAt(t, store, "C3", "C1", "H")
		require.NoError(t, dec.Err)
		assert.Equal(t, "C3", dec.NextDeviceID)
		assert.Equal(t, int64(50), dec.Delay)
	})

	t.Run("first port other than ingress", func(t *testing.T) {
		store := testutil.NewTopology(t).
			Device("C1", topology.Computer, 0, 0).
			Device("H", topology.Hub, 200, 0).
			Device("R", topology.Router, 400, 0).
			Device("C2", topology.Computer, 600, 0).
			Link("C1", "H").
			Link("H", "R").
			Link("R", "C2").
			Store
		dec := forwardAt(t, store, "C2", "C1", "H")
		require.NoError(t, dec.Err)
		assert.Equal(t, "R", dec.NextDeviceID)
	})

	t.Run("only the ingress port", func(t *testing.T) {
		store := testutil.NewTopology(t).
			Device("C1", topology.Computer, 0, 0).
			Device("H", topology.Hub, 200, 0).
			Device("C2", topology.Computer, 400, 0).
			Link("C1", "H").
			Store
		dec := forwardAt(t, store, "C2", "C1", "H")
		assert.ErrorIs(t, dec.Err, ErrNoForwardTarget)
	})
}

func TestForward_Bridge_PicksSegmentContainingTarget(t *testing.T) {
	// GIVEN C1 - S1 - B - S2 - C2
	store := testutil.Chain(t, "C1:computer", "S1:switch", "B:bridge", "S2:switch", "C2:computer")

	// WHEN packets cross the bridge in both directions
	east := forwardAt(t, store, "C2", "C1", "S1", "B")
	west := forwardAt(t, store, "C1", "C2", "S2", "B")

	// THEN each goes into the far segment, never back where it came from
	require.NoError(t, east.Err)
	assert.Equal(t, "S2", east.NextDeviceID)
	assert.Equal(t, int64(150), east.Delay)
	require.NoError(t, west.Err)
	assert.Equal(t, "S1", west.NextDeviceID)
}

func TestForward_Bridge_TargetBehindIncomingLink_GoesBack(t *testing.T) {
	// GIVEN C1 - S1 - B - S2 - C2 and C3 hanging off S1
	store := testutil.Chain(t, "C1:computer", "S1:switch", "B:bridge", "S2:switch", "C2:computer")
	require.NoError(t, store.AddDevice(topology.NewDevice("C3", topology.Computer, topology.Position{})))
	_, err := store.AddConnection("", "S1", "C3")
	require.NoError(t, err)

	// WHEN a packet from C1 reaches B although its target sits in the C1 segment
	dec := forwardAt(t, store, "C3", "C1", "S1", "B")

	// THEN the bridge sends it back towards S1 rather than across to S2
	require.NoError(t, dec.Err)
	assert.Equal(t, "S1", dec.NextDeviceID)
}

func TestForward_Bridge_NoSegmentReachesTarget(t *testing.T) {
	store := testutil.NewTopology(t).
		Device("C1", topology.Computer, 0, 0).
		Device("B", topology.Bridge, 200, 0).
		Device("C2", topology.Computer, 400, 0).
		Link("C1", "B").
		Store

	dec := forwardAt(t, store, "C2", "C1", "B")
	assert.ErrorIs(t, dec.Err, ErrNoRouteFound)
}

func TestForward_UnknownDeviceType(t *testing.T) {
	d := topology.Device{ID: "M", Type: "modem"}
	p := Packet{ID: "p", SourceID: "A", TargetID: "B", Path: []string{"A", "M"}}

	dec := NewForwarder(topology.NewStore(), nil).Forward(p, d)

	assert.ErrorIs(t, dec.Err, ErrCannotForward)
	assert.ErrorIs(t, dec.Err, ErrUnknownDeviceType)
	assert.Equal(t, ErrCannotForward, KindOf(dec.Err))
	assert.Empty(t, dec.NextDeviceID)
}

func TestForward_InactiveLinkIsNotUsed(t *testing.T) {
	// GIVEN S - C2 exists but is inactive
	store := testutil.NewTopology(t).
		Device("C1", topology.Computer, 0, 0).
		Device("S", topology.Switch, 200, 0).
		Device("C2", topology.Computer, 400, 0).
		Link("C1", "S").
		InactiveLink("S", "C2").
		Store

	dec := forwardAt(t, store, "C2", "C1", "S")
	assert.ErrorIs(t, dec.Err, ErrNoRouteFound)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, ErrHopLimit, KindOf(ErrHopLimit))
}

func TestNewForwarder_NilGraphPanics(t *testing.T) {
	assert.Panics(t, func() { NewForwarder(nil, nil) })
}
