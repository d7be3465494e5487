package sim

import (
	"slices"

	"github.com/kelisiWu123/hardware-game/sim/topology"
)

// Graph is the read-only topology view the forwarding engine and clock need.
// *topology.Store implements it.
type Graph interface {
	Device(id string) (topology.Device, bool)
	// Neighbors lists devices reachable over active links, in the order the
	// links were added to id.
	Neighbors(id string) []string
}

// ShortestPath returns the hop-count shortest path from -> to, both ends
// included, or nil when to is unreachable. The search is a plain BFS over
// the undirected graph; among equal-length paths the first discovered wins,
// which follows the order links were added to each device.
func ShortestPath(g Graph, from, to string) []string {
	if _, ok := g.Device(from); !ok {
		return nil
	}
	if from == to {
		return []string{from}
	}

	parent := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range g.Neighbors(id) {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = id
			if next == to {
				return unwind(parent, to)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// unwind rebuilds the path ending at to from BFS parent links.
func unwind(parent map[string]string, to string) []string {
	var rev []string
	for id := to; id != ""; id = parent[id] {
		rev = append(rev, id)
	}
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

// excluding hides one device from g.
type excluding struct {
	Graph
	id string
}

func (g excluding) Device(id string) (topology.Device, bool) {
	if id == g.id {
		return topology.Device{}, false
	}
	return g.Graph.Device(id)
}

func (g excluding) Neighbors(id string) []string {
	return slices.DeleteFunc(g.Graph.Neighbors(id), func(n string) bool { return n == g.id })
}
