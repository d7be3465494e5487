package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kelisiWu123/hardware-game/sim/topology"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		devices []topology.Device
		conns   []topology.Connection
		want    float64
	}{
		{
			name: "empty",
			want: 0,
		},
		{
			name: "connected pair is penalised by its length",
			devices: []topology.Device{
				device("A", topology.Router, 0, 0),
				device("B", topology.Router, 300, 400),
			},
			conns: []topology.Connection{link("A", "B")},
			want:  -500,
		},
		{
			name: "close unconnected pair pays twice the shortfall",
			devices: []topology.Device{
				device("A", topology.Router, 0, 0),
				device("B", topology.Router, 60, 0),
			},
			want: -80,
		},
		{
			name: "both penalties add up",
			devices: []topology.Device{
				device("A", topology.Router, 0, 0),
				device("B", topology.Router, 0, 50),
			},
			conns: []topology.Connection{link("A", "B")},
			want:  -50 - 100,
		},
		{
			name:    "dangling connection is ignored",
			devices: []topology.Device{device("A", topology.Router, 0, 0)},
			conns:   []topology.Connection{link("A", "ghost")},
			want:    0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.devices, tt.conns), 1e-9)
		})
	}
}
