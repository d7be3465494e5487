// Package layout computes force-directed positions for a topology.
//
// Layout is a pure function: it copies its inputs, runs a fixed number of
// spring/repulsion iterations and returns a new device list for the caller
// to commit. Identical inputs always yield identical positions.
package layout

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/kelisiWu123/hardware-game/sim"
	"github.com/kelisiWu123/hardware-game/sim/topology"
)

// node is the force simulation's private view of one device.
type node struct {
	x, y   float64
	vx, vy float64
	pinned bool
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b bounds) clamp(x, y float64) (float64, float64) {
	if x < b.minX {
		x = b.minX
	}
	if x > b.maxX {
		x = b.maxX
	}
	if y < b.minY {
		y = b.minY
	}
	if y > b.maxY {
		y = b.maxY
	}
	return x, y
}

// round snaps a clamped point to whole units without leaving the bounds.
func (b bounds) round(x, y float64) (float64, float64) {
	whole := bounds{minX: math.Ceil(b.minX), maxX: math.Floor(b.maxX), minY: math.Ceil(b.minY), maxY: math.Floor(b.maxY)}
	return whole.clamp(math.Round(x), math.Round(y))
}

// Layout places devices on a width x height canvas.
//
// Every pair of devices repels with a force of RepulsionStrength/d², every
// connection (active or not) acts as a spring pulling its ends towards
// SpringLength apart. Velocities are damped each iteration and positions are
// clamped into [Padding, dimension-DeviceSize-Padding], input positions
// included. Results are rounded to whole units inside those bounds.
// Connections naming unknown devices are ignored.
func Layout(devices []topology.Device, connections []topology.Connection, width, height float64, opts Options) []topology.Device {
	if len(devices) == 0 {
		return []topology.Device{}
	}
	b := bounds{
		minX: opts.Padding,
		maxX: width - opts.DeviceSize - opts.Padding,
		minY: opts.Padding,
		maxY: height - opts.DeviceSize - opts.Padding,
	}

	nodes := make([]node, len(devices))
	index := make(map[string]int, len(devices))
	for i, d := range devices {
		index[d.ID] = i
		nodes[i].x, nodes[i].y = b.clamp(d.Position.X, d.Position.Y)
		if p, ok := opts.Pinned[d.ID]; ok {
			nodes[i].x, nodes[i].y = b.clamp(p.X, p.Y)
			nodes[i].pinned = true
		}
	}

	type spring struct{ a, b int }
	springs := make([]spring, 0, len(connections))
	for _, c := range connections {
		a, okA := index[c.SourceID]
		z, okB := index[c.TargetID]
		if okA && okB && a != z {
			springs = append(springs, spring{a, z})
		}
	}

	rng := sim.NewStreams(opts.Seed).For(sim.SubsystemLayout)
	for iter := 0; iter < opts.Iterations; iter++ {
		for i := range nodes {
			for j := i + 1; j < len(nodes); j++ {
				repel(&nodes[i], &nodes[j], opts.RepulsionStrength, rng)
			}
		}
		for _, s := range springs {
			pull(&nodes[s.a], &nodes[s.b], opts.SpringLength, opts.SpringStrength)
		}
		for i := range nodes {
			n := &nodes[i]
			if n.pinned {
				continue
			}
			n.vx *= opts.Damping
			n.vy *= opts.Damping
			n.x, n.y = b.clamp(n.x+n.vx, n.y+n.vy)
		}
	}

	out := make([]topology.Device, len(devices))
	for i, d := range devices {
		out[i] = d.Clone()
		x, y := b.round(nodes[i].x, nodes[i].y)
		out[i].Position = topology.Position{X: x, Y: y}
	}
	logrus.Debugf("layout: %d devices, %d springs, %d iterations on %.0fx%.0f",
		len(nodes), len(springs), opts.Iterations, width, height)
	return out
}

// repel pushes a and b apart. Devices on the same point are separated
// along a random direction so they do not stay stacked.
func repel(a, b *node, strength float64, rng *rand.Rand) {
	dx, dy := b.x-a.x, b.y-a.y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		angle := rng.Float64() * 2 * math.Pi
		dx, dy, dist = math.Cos(angle), math.Sin(angle), 1
	}
	force := strength / (dist * dist)
	fx, fy := force*dx/dist, force*dy/dist
	a.vx -= fx
	a.vy -= fy
	b.vx += fx
	b.vy += fy
}

// pull moves connected devices towards their ideal distance.
func pull(a, b *node, length, strength float64) {
	dx, dy := b.x-a.x, b.y-a.y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return
	}
	force := strength * (dist - length)
	fx, fy := force*dx/dist, force*dy/dist
	a.vx += fx
	a.vy += fy
	b.vx -= fx
	b.vy -= fy
}
