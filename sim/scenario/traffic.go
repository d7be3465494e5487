package scenario

import (
	"errors"
	"fmt"

	"github.com/kelisiWu123/hardware-game/sim"
	"github.com/kelisiWu123/hardware-game/sim/topology"
)

// ErrNotEnoughEndpoints is returned when traffic needs two distinct devices
// and the topology has fewer.
var ErrNotEnoughEndpoints = errors.New("not enough endpoints for traffic")

// maxGapMs bounds the random spacing between generated packets.
const maxGapMs = 1000

// GenerateTraffic returns n packets between random distinct endpoints,
// spaced by random gaps below one second. Endpoints are the computers, or
// every device when there are fewer than two computers. The same seed and
// topology always produce the same traffic.
func GenerateTraffic(devices []topology.Device, n int, seed int64) ([]PacketSpec, error) {
	if n <= 0 {
		return nil, nil
	}
	endpoints := make([]string, 0, len(devices))
	for _, d := range devices {
		if d.Type == topology.Computer {
			endpoints = append(endpoints, d.ID)
		}
	}
	if len(endpoints) < 2 {
		endpoints = endpoints[:0]
		for _, d := range devices {
			endpoints = append(endpoints, d.ID)
		}
	}
	if len(endpoints) < 2 {
		return nil, fmt.Errorf("generate %d packets over %d devices: %w", n, len(devices), ErrNotEnoughEndpoints)
	}

	rng := sim.NewStreams(seed).For(sim.SubsystemTraffic)
	packets := make([]PacketSpec, n)
	var at int64
	for i := range packets {
		src := rng.Intn(len(endpoints))
		dst := rng.Intn(len(endpoints) - 1)
		if dst >= src {
			dst++
		}
		packets[i] = PacketSpec{Source: endpoints[src], Target: endpoints[dst], AtMs: at, Type: string(sim.PacketData)}
		at += rng.Int63n(maxGapMs)
	}
	return packets, nil
}
