// Package scenario loads topology scenarios from YAML and turns them into a
// populated topology store plus a timed packet schedule.
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/kelisiWu123/hardware-game/sim"
	"github.com/kelisiWu123/hardware-game/sim/layout"
	"github.com/kelisiWu123/hardware-game/sim/topology"
)

const (
	defaultCanvasWidth  = 800
	defaultCanvasHeight = 600
)

// Scenario is a complete topology plus the packets to send across it.
// Loaded from YAML via LoadScenario(path).
type Scenario struct {
	Name        string            `yaml:"name,omitempty"`
	Seed        int64             `yaml:"seed"`
	Canvas      CanvasSpec        `yaml:"canvas"`
	Devices     []DeviceSpec      `yaml:"devices"`
	Connections []ConnectionSpec  `yaml:"connections"`
	Packets     []PacketSpec      `yaml:"packets,omitempty"`
	Layout      *layout.Overrides `yaml:"layout,omitempty"`
}

// CanvasSpec is the drawing area used by layout. Zero means the default 800x600.
type CanvasSpec struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// DeviceSpec places one device.
type DeviceSpec struct {
	ID   string  `yaml:"id"`
	Type string  `yaml:"type"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// ConnectionSpec links two devices. Status defaults to active.
type ConnectionSpec struct {
	ID     string `yaml:"id,omitempty"`
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Status string `yaml:"status,omitempty"`
}

// PacketSpec injects one packet once the clock reaches AtMs.
type PacketSpec struct {
	Source string `yaml:"source" json:"source"`
	Target string `yaml:"target" json:"target"`
	AtMs   int64  `yaml:"at_ms" json:"atMs"`
	Type   string `yaml:"type,omitempty" json:"type,omitempty"` // defaults to data
}

// PacketType returns the packet type, defaulting to data.
func (p PacketSpec) PacketType() sim.PacketType {
	if p.Type == "" {
		return sim.PacketData
	}
	return sim.PacketType(p.Type)
}

// LoadScenario reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &sc, nil
}

// Validate checks references and enum values. Port capacity and duplicate
// links are left to Build, which enforces them through the store.
func (s *Scenario) Validate() error {
	if s.Canvas.Width < 0 || s.Canvas.Height < 0 {
		return fmt.Errorf("canvas: width and height must be non-negative, got %gx%g", s.Canvas.Width, s.Canvas.Height)
	}
	if len(s.Devices) == 0 {
		return fmt.Errorf("at least one device required")
	}
	ids := make(map[string]bool, len(s.Devices))
	for i, d := range s.Devices {
		if d.ID == "" {
			return fmt.Errorf("device[%d]: id required", i)
		}
		if ids[d.ID] {
			return fmt.Errorf("device[%d]: duplicate id %q", i, d.ID)
		}
		if _, err := topology.ParseDeviceType(d.Type); err != nil {
			return fmt.Errorf("device[%d] %q: %w; valid: %v", i, d.ID, err, topology.DeviceTypes())
		}
		ids[d.ID] = true
	}
	for i, c := range s.Connections {
		if !ids[c.Source] || !ids[c.Target] {
			return fmt.Errorf("connection[%d]: unknown device in %q-%q", i, c.Source, c.Target)
		}
		if c.Status != "" && !topology.ConnectionStatus(c.Status).IsValid() {
			return fmt.Errorf("connection[%d]: unknown status %q; valid: active, inactive", i, c.Status)
		}
	}
	for i, p := range s.Packets {
		if !ids[p.Source] || !ids[p.Target] {
			return fmt.Errorf("packet[%d]: unknown device in %q->%q", i, p.Source, p.Target)
		}
		if p.AtMs < 0 {
			return fmt.Errorf("packet[%d]: at_ms must be non-negative, got %d", i, p.AtMs)
		}
		if !p.PacketType().IsValid() {
			return fmt.Errorf("packet[%d]: unknown type %q; valid: data, ack, error", i, p.Type)
		}
	}
	if err := s.LayoutOptions().Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	return nil
}

// CanvasSize returns the canvas dimensions with defaults applied.
func (s *Scenario) CanvasSize() (width, height float64) {
	width, height = s.Canvas.Width, s.Canvas.Height
	if width == 0 {
		width = defaultCanvasWidth
	}
	if height == 0 {
		height = defaultCanvasHeight
	}
	return width, height
}

// LayoutOptions returns the default layout options with the scenario's
// overrides applied. The scenario seed is used unless the overrides set one.
func (s *Scenario) LayoutOptions() layout.Options {
	base := layout.DefaultOptions()
	base.Seed = s.Seed
	return s.Layout.Apply(base)
}

// Build creates a topology store holding the scenario's devices and
// connections, in file order.
func (s *Scenario) Build() (*topology.Store, error) {
	store := topology.NewStore()
	for i, d := range s.Devices {
		dev := topology.NewDevice(d.ID, topology.DeviceType(d.Type), topology.Position{X: d.X, Y: d.Y})
		if err := store.AddDevice(dev); err != nil {
			return nil, fmt.Errorf("device[%d]: %w", i, err)
		}
	}
	for i, c := range s.Connections {
		conn, err := store.AddConnection(c.ID, c.Source, c.Target)
		if err != nil {
			return nil, fmt.Errorf("connection[%d]: %w", i, err)
		}
		if c.Status == string(topology.StatusInactive) {
			if err := store.SetConnectionStatus(conn.ID, topology.StatusInactive); err != nil {
				return nil, fmt.Errorf("connection[%d]: %w", i, err)
			}
		}
	}
	devices, conns := store.Len()
	logrus.Infof("scenario %q: %d devices, %d connections, %d packets", s.Name, devices, conns, len(s.Packets))
	return store, nil
}
