package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelisiWu123/hardware-game/sim/topology"
)

const starYAML = `
name: star
seed: 3
canvas: {width: 1000, height: 700}
devices:
  - {id: S, type: switch, x: 300, y: 200}
  - {id: C1, type: computer, x: 100, y: 400}
  - {id: C2, type: computer, x: 500, y: 400}
  - {id: C3, type: computer, x: 700, y: 100}
connections:
  - {source: C1, target: S}
  - {source: C2, target: S}
  - {source: C3, target: S, status: inactive}
packets:
  - {source: C1, target: C2, at_ms: 500}
  - {source: C2, target: C1, at_ms: 0, type: data}
layout:
  iterations: 20
`

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	sc, err := LoadScenario(writeTempYAML(t, starYAML))
	require.NoError(t, err)
	require.NoError(t, sc.Validate())

	assert.Equal(t, "star", sc.Name)
	assert.Len(t, sc.Devices, 4)
	assert.Len(t, sc.Connections, 3)
	assert.Len(t, sc.Packets, 2)

	w, h := sc.CanvasSize()
	assert.Equal(t, 1000.0, w)
	assert.Equal(t, 700.0, h)

	opts := sc.LayoutOptions()
	assert.Equal(t, 20, opts.Iterations)
	assert.Equal(t, int64(3), opts.Seed, "scenario seed feeds layout")
}

func TestLoadScenario_RejectsUnknownKeys(t *testing.T) {
	_, err := LoadScenario(writeTempYAML(t, "devices:\n  - {id: A, type: hub, z: 3}\n"))
	assert.Error(t, err)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading scenario")
}

func TestScenario_CanvasDefaults(t *testing.T) {
	sc := &Scenario{}
	w, h := sc.CanvasSize()
	assert.Equal(t, 800.0, w)
	assert.Equal(t, 600.0, h)
}

func TestScenario_Validate_Errors(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{
			Devices: []DeviceSpec{{ID: "A", Type: "router"}, {ID: "B", Type: "computer"}},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantMsg string
	}{
		{"no devices", func(s *Scenario) { s.Devices = nil }, "at least one device"},
		{"empty id", func(s *Scenario) { s.Devices[0].ID = "" }, "id required"},
		{"duplicate id", func(s *Scenario) { s.Devices[1].ID = "A" }, "duplicate id"},
		{"unknown type", func(s *Scenario) { s.Devices[0].Type = "modem" }, "modem"},
		{"dangling connection", func(s *Scenario) {
			s.Connections = []ConnectionSpec{{Source: "A", Target: "Z"}}
		}, "connection[0]"},
		{"bad status", func(s *Scenario) {
			s.Connections = []ConnectionSpec{{Source: "A", Target: "B", Status: "flaky"}}
		}, "unknown status"},
		{"dangling packet", func(s *Scenario) {
			s.Packets = []PacketSpec{{Source: "A", Target: "Z"}}
		}, "packet[0]"},
		{"negative time", func(s *Scenario) {
			s.Packets = []PacketSpec{{Source: "A", Target: "B", AtMs: -1}}
		}, "at_ms"},
		{"bad packet type", func(s *Scenario) {
			s.Packets = []PacketSpec{{Source: "A", Target: "B", Type: "probe"}}
		}, "unknown type"},
		{"negative canvas", func(s *Scenario) { s.Canvas.Width = -1 }, "canvas"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := base()
			tt.mutate(sc)
			err := sc.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestScenario_Build(t *testing.T) {
	// GIVEN the star scenario
	sc, err := LoadScenario(writeTempYAML(t, starYAML))
	require.NoError(t, err)

	// WHEN built
	store, err := sc.Build()
	require.NoError(t, err)

	// THEN devices, links and statuses match the file
	devices, conns := store.Len()
	assert.Equal(t, 4, devices)
	assert.Equal(t, 3, conns)
	s, ok := store.Device("S")
	require.True(t, ok)
	assert.Equal(t, topology.Position{X: 300, Y: 200}, s.Position)
	assert.Equal(t, []string{"C1", "C2", "C3"}, s.ConnectedDeviceIDs)
	assert.Equal(t, []string{"C1", "C2"}, store.Neighbors("S"), "inactive link is not routable")
}

func TestScenario_Build_PortExhausted(t *testing.T) {
	sc := &Scenario{
		Devices: []DeviceSpec{{ID: "C1", Type: "computer"}, {ID: "A", Type: "hub"}, {ID: "B", Type: "hub"}},
		Connections: []ConnectionSpec{
			{Source: "C1", Target: "A"},
			{Source: "C1", Target: "B"},
		},
	}
	require.NoError(t, sc.Validate())

	_, err := sc.Build()

	require.Error(t, err)
	assert.ErrorIs(t, err, topology.ErrPortExhausted)
	assert.Contains(t, err.Error(), "connection[1]")
}
