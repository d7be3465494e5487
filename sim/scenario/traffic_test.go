package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelisiWu123/hardware-game/sim/topology"
)

func devices(types ...topology.DeviceType) []topology.Device {
	out := make([]topology.Device, len(types))
	for i, typ := range types {
		out[i] = topology.NewDevice(string(typ)+string(rune('A'+i)), typ, topology.Position{})
	}
	return out
}

func TestGenerateTraffic_ComputersOnly(t *testing.T) {
	devs := devices(topology.Switch, topology.Computer, topology.Computer, topology.Computer)

	packets, err := GenerateTraffic(devs, 50, 42)

	require.NoError(t, err)
	require.Len(t, packets, 50)
	var last int64
	for _, p := range packets {
		assert.NotEqual(t, p.Source, p.Target)
		assert.NotEqual(t, "switchA", p.Source)
		assert.NotEqual(t, "switchA", p.Target)
		assert.GreaterOrEqual(t, p.AtMs, last, "times are non-decreasing")
		last = p.AtMs
	}
	assert.Equal(t, int64(0), packets[0].AtMs)
}

func TestGenerateTraffic_Deterministic(t *testing.T) {
	devs := devices(topology.Computer, topology.Computer, topology.Computer, topology.Computer)
	a, err := GenerateTraffic(devs, 20, 7)
	require.NoError(t, err)
	b, err := GenerateTraffic(devs, 20, 7)
	require.NoError(t, err)
	c, err := GenerateTraffic(devs, 20, 8)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerateTraffic_FallsBackToAllDevices(t *testing.T) {
	devs := devices(topology.Router, topology.Router, topology.Computer)

	packets, err := GenerateTraffic(devs, 10, 1)

	require.NoError(t, err)
	for _, p := range packets {
		assert.NotEqual(t, p.Source, p.Target)
	}
}

func TestGenerateTraffic_NotEnoughEndpoints(t *testing.T) {
	_, err := GenerateTraffic(devices(topology.Computer), 3, 1)
	assert.ErrorIs(t, err, ErrNotEnoughEndpoints)

	packets, err := GenerateTraffic(nil, 0, 1)
	assert.NoError(t, err)
	assert.Empty(t, packets)
}
