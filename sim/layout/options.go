package layout

import (
	"fmt"

	"github.com/kelisiWu123/hardware-game/sim/topology"
)

// Options tunes the force simulation. Width and height are passed to Layout
// separately because they come from the canvas, not from tuning.
type Options struct {
	DeviceSize        float64 // devices occupy a DeviceSize square from their position
	Padding           float64 // minimum gap between a device and the canvas edge
	SpringLength      float64 // ideal distance between connected devices
	SpringStrength    float64
	RepulsionStrength float64
	Damping           float64 // velocity multiplier per iteration, in [0, 1)
	Iterations        int

	// Pinned devices keep these coordinates (clamped into the canvas) and
	// are never moved, though they still push and pull the others.
	Pinned map[string]topology.Position

	// Seed drives the nudges that separate devices stacked on one point.
	Seed int64
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		DeviceSize:        128,
		Padding:           50,
		SpringLength:      200,
		SpringStrength:    0.1,
		RepulsionStrength: 8000,
		Damping:           0.5,
		Iterations:        100,
	}
}

// Validate checks that the options produce a converging simulation.
func (o Options) Validate() error {
	if o.DeviceSize < 0 {
		return fmt.Errorf("device size must be non-negative, got %f", o.DeviceSize)
	}
	if o.Padding < 0 {
		return fmt.Errorf("padding must be non-negative, got %f", o.Padding)
	}
	if o.SpringLength < 0 || o.SpringStrength < 0 || o.RepulsionStrength < 0 {
		return fmt.Errorf("spring length, spring strength and repulsion must be non-negative")
	}
	if o.Damping < 0 || o.Damping >= 1 {
		return fmt.Errorf("damping must be in [0, 1), got %f", o.Damping)
	}
	if o.Iterations < 0 {
		return fmt.Errorf("iterations must be non-negative, got %d", o.Iterations)
	}
	return nil
}

// Overrides holds optional option values, loadable from YAML or JSON.
// Nil fields keep the base value.
type Overrides struct {
	DeviceSize        *float64 `yaml:"device_size" json:"deviceSize,omitempty"`
	Padding           *float64 `yaml:"padding" json:"padding,omitempty"`
	SpringLength      *float64 `yaml:"spring_length" json:"springLength,omitempty"`
	SpringStrength    *float64 `yaml:"spring_strength" json:"springStrength,omitempty"`
	RepulsionStrength *float64 `yaml:"repulsion_strength" json:"repulsionStrength,omitempty"`
	Damping           *float64 `yaml:"damping" json:"damping,omitempty"`
	Iterations        *int     `yaml:"iterations" json:"iterations,omitempty"`
	Seed              *int64   `yaml:"seed" json:"seed,omitempty"`

	Pinned map[string]topology.Position `yaml:"pinned" json:"pinned,omitempty"`
}

// Apply overlays the set fields onto base.
func (o *Overrides) Apply(base Options) Options {
	if o == nil {
		return base
	}
	out := base
	setFloat := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setFloat(&out.DeviceSize, o.DeviceSize)
	setFloat(&out.Padding, o.Padding)
	setFloat(&out.SpringLength, o.SpringLength)
	setFloat(&out.SpringStrength, o.SpringStrength)
	setFloat(&out.RepulsionStrength, o.RepulsionStrength)
	setFloat(&out.Damping, o.Damping)
	if o.Iterations != nil {
		out.Iterations = *o.Iterations
	}
	if o.Seed != nil {
		out.Seed = *o.Seed
	}
	if len(o.Pinned) > 0 {
		out.Pinned = make(map[string]topology.Position, len(base.Pinned)+len(o.Pinned))
		for id, p := range base.Pinned {
			out.Pinned[id] = p
		}
		for id, p := range o.Pinned {
			out.Pinned[id] = p
		}
	}
	return out
}
