package sim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kelisiWu123/hardware-game/sim/internal/testutil"
	"github.com/kelisiWu123/hardware-game/sim/topology"
)

func TestShortestPath_Chain(t *testing.T) {
	store := testutil.Chain(t, "C1:computer", "R1:router", "R2:router", "C2:computer")
	assert.Equal(t, []string{"C1", "R1", "R2", "C2"}, ShortestPath(store, "C1", "C2"))
	assert.Equal(t, []string{"C2", "R2", "R1", "C1"}, ShortestPath(store, "C2", "C1"))
}

func TestShortestPath_SameDevice(t *testing.T) {
	store := testutil.Chain(t, "C1:computer", "S:switch")
	assert.Equal(t, []string{"C1"}, ShortestPath(store, "C1", "C1"))
}

func TestShortestPath_UnknownOrUnreachable(t *testing.T) {
	store := testutil.NewTopology(t).
		Device("C1", topology.Computer, 0, 0).
		Device("C2", topology.Computer, 200, 0).
		Store

	assert.Nil(t, ShortestPath(store, "C1", "C2"), "disconnected")
	assert.Nil(t, ShortestPath(store, "ghost", "C2"), "unknown source")
	assert.Nil(t, ShortestPath(store, "C1", "ghost"), "unknown target")
}

func TestShortestPath_SkipsInactiveLinks(t *testing.T) {
	// GIVEN A-B inactive and a detour A-C-B
	store := testutil.NewTopology(t).
		Device("A", topology.Router, 0, 0).
		Device("B", topology.Router, 200, 0).
		Device("C", topology.Router, 100, 200).
		InactiveLink("A", "B").
		Link("A", "C").
		Link("C", "B").
		Store

	// THEN the detour is taken
	assert.Equal(t, []string{"A", "C", "B"}, ShortestPath(store, "A", "B"))
}

func TestShortestPath_TieBreakFollowsLinkOrder(t *testing.T) {
	tests := []struct {
		name    string
		first   string
		second  string
		wantVia string
	}{
		{"A linked first", "A", "B", "A"},
		{"B linked first", "B", "A", "B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN two equal-length routes R-A-T and R-B-T
			store := testutil.NewTopology(t).
				Device("R", topology.Router, 0, 0).
				Device("A", topology.Switch, 200, 0).
				Device("B", topology.Switch, 0, 200).
				Device("T", topology.Hub, 200, 200).
				Link("R", tt.first).
				Link("R", tt.second).
				Link("A", "T").
				Link("B", "T").
				Store

			// THEN the route through the earlier link wins
			assert.Equal(t, []string{"R", tt.wantVia, "T"}, ShortestPath(store, "R", "T"))
		})
	}
}

func TestShortestPath_NeverRepeatsDevices(t *testing.T) {
	for n := 2; n <= 8; n++ {
		t.Run(fmt.Sprintf("chain of %d", n), func(t *testing.T) {
			entries := []string{"C0:computer"}
			for i := 1; i < n-1; i++ {
				entries = append(entries, fmt.Sprintf("R%d:router", i))
			}
			entries = append(entries, fmt.Sprintf("C%d:computer", n-1))
			store := testutil.Chain(t, entries...)

			path := ShortestPath(store, "C0", fmt.Sprintf("C%d", n-1))
			assert.Len(t, path, n)
			seen := map[string]bool{}
			for _, id := range path {
				assert.False(t, seen[id], "device %s repeated in %v", id, path)
				seen[id] = true
			}
		})
	}
}

func TestExcluding_HidesDevice(t *testing.T) {
	store := testutil.Chain(t, "A:router", "B:router", "C:router")
	g := excluding{Graph: store, id: "B"}

	_, ok := g.Device("B")
	assert.False(t, ok)
	assert.Empty(t, g.Neighbors("A"))
	assert.Nil(t, ShortestPath(g, "A", "C"))
	// the underlying store is untouched
	assert.Equal(t, []string{"B"}, store.Neighbors("A"))
}
