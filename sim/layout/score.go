package layout

import (
	"math"

	"github.com/kelisiWu123/hardware-game/sim/topology"
)

const (
	overlapThreshold = 100.0
	overlapWeight    = 2.0
)

// Score rates a layout; higher is better and 0 is the maximum. It subtracts
// the length of every connection and, for every device pair closer than
// 100 units, twice the shortfall. It is diagnostic only and plays no part
// in Layout.
func Score(devices []topology.Device, connections []topology.Connection) float64 {
	pos := make(map[string]topology.Position, len(devices))
	for _, d := range devices {
		pos[d.ID] = d.Position
	}

	score := 0.0
	for _, c := range connections {
		a, okA := pos[c.SourceID]
		b, okB := pos[c.TargetID]
		if okA && okB {
			score -= distance(a, b)
		}
	}
	for i := range devices {
		for j := i + 1; j < len(devices); j++ {
			if d := distance(devices[i].Position, devices[j].Position); d < overlapThreshold {
				score -= (overlapThreshold - d) * overlapWeight
			}
		}
	}
	return score
}

func distance(a, b topology.Position) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
