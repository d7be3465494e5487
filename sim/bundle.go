package sim

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/kelisiWu123/hardware-game/sim/topology"
)

// ConfigBundle holds simulation configuration, loadable from a YAML file.
// Nil pointer fields mean "not set in YAML"; they do not override the base Config.
type ConfigBundle struct {
	Clock      ClockBundle      `yaml:"clock"`
	Forwarding ForwardingBundle `yaml:"forwarding"`
}

// ClockBundle holds packet clock settings.
type ClockBundle struct {
	TickIntervalMs *int64   `yaml:"tick_interval_ms"`
	HopDurationMs  *int64   `yaml:"hop_duration_ms"`
	GracePeriodMs  *int64   `yaml:"grace_period_ms"`
	DeviceSize     *float64 `yaml:"device_size"`
}

// ForwardingBundle holds forwarding engine settings.
type ForwardingBundle struct {
	MaxHops      *int                   `yaml:"max_hops"`
	AckOnReceive *bool                  `yaml:"ack_on_receive"`
	Delays       map[string]DelayBundle `yaml:"delays"` // keyed by device type
}

// DelayBundle overrides parts of a DelayProfile.
type DelayBundle struct {
	Relay    *int64 `yaml:"relay"`
	Direct   *int64 `yaml:"direct"`
	Delivery *int64 `yaml:"delivery"`
}

// LoadConfigBundle reads and parses a YAML simulation configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfigBundle(path string) (*ConfigBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sim config: %w", err)
	}
	var bundle ConfigBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing sim config: %w", err)
	}
	return &bundle, nil
}

// Validate checks that the bundle's set fields are in range.
func (b *ConfigBundle) Validate() error {
	if v := b.Clock.TickIntervalMs; v != nil && *v <= 0 {
		return fmt.Errorf("clock.tick_interval_ms must be positive, got %d", *v)
	}
	if v := b.Clock.HopDurationMs; v != nil && *v <= 0 {
		return fmt.Errorf("clock.hop_duration_ms must be positive, got %d", *v)
	}
	if v := b.Clock.GracePeriodMs; v != nil && *v < 0 {
		return fmt.Errorf("clock.grace_period_ms must be non-negative, got %d", *v)
	}
	if v := b.Clock.DeviceSize; v != nil && *v < 0 {
		return fmt.Errorf("clock.device_size must be non-negative, got %f", *v)
	}
	if v := b.Forwarding.MaxHops; v != nil && *v < 0 {
		return fmt.Errorf("forwarding.max_hops must be non-negative, got %d", *v)
	}
	for name, d := range b.Forwarding.Delays {
		if !topology.DeviceType(name).IsValid() {
			return fmt.Errorf("forwarding.delays: unknown device type %q", name)
		}
		for field, v := range map[string]*int64{"relay": d.Relay, "direct": d.Direct, "delivery": d.Delivery} {
			if v != nil && *v < 0 {
				return fmt.Errorf("forwarding.delays.%s.%s must be non-negative, got %d", name, field, *v)
			}
		}
	}
	return nil
}

// Apply overlays the bundle's set fields onto base and returns the result.
// base.Delays is copied, never modified.
func (b *ConfigBundle) Apply(base Config) Config {
	out := base
	out.Delays = make(ForwardingDelays, len(base.Delays))
	for t, p := range base.Delays {
		out.Delays[t] = p
	}

	if v := b.Clock.TickIntervalMs; v != nil {
		out.TickIntervalMs = *v
	}
	if v := b.Clock.HopDurationMs; v != nil {
		out.HopDurationMs = *v
	}
	if v := b.Clock.GracePeriodMs; v != nil {
		out.GracePeriodMs = *v
	}
	if v := b.Clock.DeviceSize; v != nil {
		out.DeviceSize = *v
	}
	if v := b.Forwarding.MaxHops; v != nil {
		out.MaxHops = *v
	}
	if v := b.Forwarding.AckOnReceive; v != nil {
		out.AckOnReceive = *v
	}
	for name, d := range b.Forwarding.Delays {
		t := topology.DeviceType(name)
		p := out.Delays[t]
		if d.Relay != nil {
			p.Relay = *d.Relay
		}
		if d.Direct != nil {
			p.Direct = *d.Direct
		}
		if d.Delivery != nil {
			p.Delivery = *d.Delivery
		}
		out.Delays[t] = p
		logrus.Debugf("sim config: %s delays set to %+v", t, p)
	}
	return out
}
