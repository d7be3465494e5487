package sim

import (
	"fmt"

	"github.com/kelisiWu123/hardware-game/sim/topology"
)

// DelayProfile groups the processing delays (ms) a device type adds to a hop.
type DelayProfile struct {
	Relay    int64 // forwarding along a computed path
	Direct   int64 // forwarding straight to a directly attached target
	Delivery int64 // the device is the packet's target
}

// ForwardingDelays maps each device type to its delay profile.
type ForwardingDelays map[topology.DeviceType]DelayProfile

// DefaultDelays returns the per-type delays. Routers pay routing overhead
// over switches; gateways pay protocol translation on top.
func DefaultDelays() ForwardingDelays {
	return ForwardingDelays{
		topology.Router:   {Relay: 200, Direct: 200, Delivery: 100},
		topology.Switch:   {Relay: 150, Direct: 100, Delivery: 100},
		topology.Bridge:   {Relay: 150, Direct: 150, Delivery: 150},
		topology.Hub:      {Relay: 50, Direct: 50, Delivery: 50},
		topology.Gateway:  {Relay: 300, Direct: 300, Delivery: 300},
		topology.Computer: {Relay: 50, Direct: 50, Delivery: 50},
	}
}

// For returns the profile of t, or a zero profile for unknown types.
func (d ForwardingDelays) For(t topology.DeviceType) DelayProfile {
	return d[t]
}

// Config groups the packet simulation clock and forwarding parameters.
// All durations are simulated milliseconds.
type Config struct {
	TickIntervalMs int64   // clock advance per Tick (16 ≈ 60 ticks/s)
	HopDurationMs  int64   // base travel time of one hop, before device delay
	GracePeriodMs  int64   // how long terminal packets stay visible before purge
	DeviceSize     float64 // packets travel between device centres (position + size/2)
	MaxHops        int     // hop limit per packet; 0 disables the limit
	AckOnReceive   bool    // receivers answer delivered data packets with an ack
	Delays         ForwardingDelays
}

// DefaultConfig returns the standard clock: 60 ticks per second, one second
// per hop, two seconds of grace.
func DefaultConfig() Config {
	return Config{
		TickIntervalMs: 16,
		HopDurationMs:  1000,
		GracePeriodMs:  2000,
		DeviceSize:     128,
		MaxHops:        64,
		Delays:         DefaultDelays(),
	}
}

// Validate checks that the config can drive a simulation.
func (c Config) Validate() error {
	if c.TickIntervalMs <= 0 {
		return fmt.Errorf("tick interval must be positive, got %d", c.TickIntervalMs)
	}
	if c.HopDurationMs <= 0 {
		return fmt.Errorf("hop duration must be positive, got %d", c.HopDurationMs)
	}
	if c.HopDurationMs <= c.TickIntervalMs {
		return fmt.Errorf("hop duration %dms must exceed the tick interval %dms", c.HopDurationMs, c.TickIntervalMs)
	}
	if c.GracePeriodMs < 0 {
		return fmt.Errorf("grace period must be non-negative, got %d", c.GracePeriodMs)
	}
	if c.DeviceSize < 0 {
		return fmt.Errorf("device size must be non-negative, got %f", c.DeviceSize)
	}
	if c.MaxHops < 0 {
		return fmt.Errorf("max hops must be non-negative, got %d", c.MaxHops)
	}
	for t, p := range c.Delays {
		if !t.IsValid() {
			return fmt.Errorf("delays: unknown device type %q", t)
		}
		if p.Relay < 0 || p.Direct < 0 || p.Delivery < 0 {
			return fmt.Errorf("delays: %s has a negative delay", t)
		}
	}
	return nil
}
