package sim

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/kelisiWu123/hardware-game/sim/topology"
)

// ErrorKind classifies why a packet could not continue.
// It implements error so decisions can be tested with errors.Is.
type ErrorKind string

const (
	ErrCannotForward     ErrorKind = "cannot-forward"
	ErrNoRouteFound      ErrorKind = "no-route-found"
	ErrNoForwardTarget   ErrorKind = "no-forward-target"
	ErrUnknownDeviceType ErrorKind = "unknown-device-type"
	ErrDeviceNotFound    ErrorKind = "device-not-found"
	ErrHopLimit          ErrorKind = "hop-limit-exceeded"
)

func (k ErrorKind) Error() string { return string(k) }

// KindOf extracts the first ErrorKind in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var k ErrorKind
	if errors.As(err, &k) {
		return k
	}
	return ""
}

// Decision is the forwarding engine's answer for one packet at one device.
type Decision struct {
	NextDeviceID string // empty when the packet stops here
	Delay        int64  // device processing delay, ms
	Err          error  // non-nil when the packet cannot continue
	Reason       string // human-readable explanation
}

// Delivered reports whether the packet reached its target at this device.
func (d Decision) Delivered() bool {
	return d.Err == nil && d.NextDeviceID == ""
}

// Forwarder decides next hops according to device-type policy.
// It reads the topology afresh on every call; routes are never cached.
type Forwarder struct {
	graph  Graph
	delays ForwardingDelays
}

// NewForwarder creates a Forwarder over g. Panics if g is nil.
func NewForwarder(g Graph, delays ForwardingDelays) *Forwarder {
	if g == nil {
		panic("NewForwarder: nil graph")
	}
	if delays == nil {
		delays = DefaultDelays()
	}
	return &Forwarder{graph: g, delays: delays}
}

// Forward returns where p goes next from device d, the device it occupies.
//
// Any device that is the packet's target delivers it. Otherwise the policy
// depends on the device type:
//   - computer: originates its own packets along the shortest path; never relays.
//   - switch: direct link to the target if there is one, else shortest path.
//   - router, gateway: shortest path; gateways are slower.
//   - bridge: first link whose segment contains the target. Each segment
//     is searched with the bridge itself removed, so a packet only goes back
//     the way it came when the target is in that segment.
//   - hub: the target if attached, else the first link other than the one
//     the packet came in on.
func (f *Forwarder) Forward(p Packet, d topology.Device) Decision {
	delays := f.delays.For(d.Type)
	if d.ID == p.TargetID {
		return Decision{Delay: delays.Delivery, Reason: fmt.Sprintf("%s delivered", d.Type)}
	}

	var dec Decision
	switch d.Type {
	case topology.Computer:
		dec = f.forwardComputer(p, d, delays)
	case topology.Switch:
		dec = f.forwardSwitch(p, d, delays)
	case topology.Router, topology.Gateway:
		dec = f.forwardShortestPath(p, d, delays.Relay)
	case topology.Bridge:
		dec = f.forwardBridge(p, d, delays)
	case topology.Hub:
		dec = f.forwardHub(p, d, delays)
	default:
		logrus.Warnf("forward %s: device %s has unknown type %q", p.ID, d.ID, d.Type)
		dec = Decision{
			Err:    fmt.Errorf("%w: %w: %q", ErrCannotForward, ErrUnknownDeviceType, d.Type),
			Reason: "unknown device type",
		}
	}
	if dec.Err != nil {
		dec.NextDeviceID = ""
		dec.Delay = 0
	}
	logrus.Debugf("forward %s at %s(%s): next=%q delay=%d reason=%q err=%v",
		p.ID, d.ID, d.Type, dec.NextDeviceID, dec.Delay, dec.Reason, dec.Err)
	return dec
}

// forwardComputer sends a packet the computer created itself; a computer
// holding someone else's packet cannot relay it.
func (f *Forwarder) forwardComputer(p Packet, d topology.Device, delays DelayProfile) Decision {
	originating := p.SourceID == d.ID && len(p.Path) <= 1
	if !originating {
		return Decision{Err: ErrCannotForward, Reason: "computers do not relay packets"}
	}
	return f.forwardShortestPath(p, d, delays.Relay)
}

func (f *Forwarder) forwardSwitch(p Packet, d topology.Device, delays DelayProfile) Decision {
	if slices.Contains(f.graph.Neighbors(d.ID), p.TargetID) {
		return Decision{NextDeviceID: p.TargetID, Delay: delays.Direct, Reason: "switch direct port"}
	}
	return f.forwardShortestPath(p, d, delays.Relay)
}

func (f *Forwarder) forwardShortestPath(p Packet, d topology.Device, delay int64) Decision {
	path := ShortestPath(f.graph, d.ID, p.TargetID)
	if len(path) < 2 {
		return Decision{Err: ErrNoRouteFound, Reason: fmt.Sprintf("no path from %s to %s", d.ID, p.TargetID)}
	}
	return Decision{
		NextDeviceID: path[1],
		Delay:        delay,
		Reason:       fmt.Sprintf("%s shortest path (%d hops)", d.Type, len(path)-1),
	}
}

// forwardBridge searches each segment without crossing back through the
// bridge, so a packet is never sent back into the segment it came from
// unless the target lives there.
func (f *Forwarder) forwardBridge(p Packet, d topology.Device, delays DelayProfile) Decision {
	segment := excluding{Graph: f.graph, id: d.ID}
	for _, next := range f.graph.Neighbors(d.ID) {
		if ShortestPath(segment, next, p.TargetID) != nil {
			return Decision{NextDeviceID: next, Delay: delays.Relay, Reason: "bridge segment leads to target"}
		}
	}
	return Decision{Err: ErrNoRouteFound, Reason: "no bridge segment reaches the target"}
}

func (f *Forwarder) forwardHub(p Packet, d topology.Device, delays DelayProfile) Decision {
	from := p.PreviousDeviceID()
	candidates := slices.DeleteFunc(f.graph.Neighbors(d.ID), func(id string) bool { return id == from })
	if slices.Contains(candidates, p.TargetID) {
		return Decision{NextDeviceID: p.TargetID, Delay: delays.Direct, Reason: "hub broadcast reached target"}
	}
	if len(candidates) == 0 {
		return Decision{Err: ErrNoForwardTarget, Reason: "hub has no other ports in use"}
	}
	return Decision{NextDeviceID: candidates[0], Delay: delays.Relay, Reason: "hub broadcast, first port"}
}
