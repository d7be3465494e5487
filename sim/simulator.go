// sim/simulator.go
package sim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kelisiWu123/hardware-game/sim/topology"
	"github.com/kelisiWu123/hardware-game/sim/trace"
)

// flight is the clock's private bookkeeping for one packet.
type flight struct {
	packet     Packet
	elapsedMs  int64 // time spent in the current hop
	windowMs   int64 // length of the current hop
	finishedAt int64 // clock at which the packet went terminal
}

// Simulator is the packet simulation clock. It owns every in-flight packet,
// advances them on Tick, consults the Forwarder on arrival and emits one
// PacketEvent per state transition.
//
// Hop arrival is driven by a per-packet elapsed counter compared with the
// hop window fixed when the hop started, so results depend only on the
// number of ticks, never on wall-clock time.
type Simulator struct {
	mu        sync.Mutex
	cfg       Config
	graph     Graph
	forwarder *Forwarder
	trace     *trace.SimulationTrace
	nextID    IDGenerator

	clock     int64 // simulated ms
	tickCount int64
	flights   []*flight

	listenerMu sync.RWMutex
	listeners  []Listener

	stopped atomic.Bool
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithTrace records every forwarding decision and outcome into st.
func WithTrace(st *trace.SimulationTrace) Option {
	return func(s *Simulator) { s.trace = st }
}

// WithIDGenerator replaces the default UUID packet ids.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Simulator) { s.nextID = gen }
}

// NewSimulator creates a packet clock over g. Panics on a nil graph or an
// invalid config; callers validate user input beforehand.
func NewSimulator(g Graph, cfg Config, opts ...Option) *Simulator {
	if g == nil {
		panic("NewSimulator: nil graph")
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("NewSimulator: invalid config: %v", err))
	}
	s := &Simulator{
		cfg:       cfg,
		graph:     g,
		forwarder: NewForwarder(g, cfg.Delays),
		nextID:    UUIDs(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l to receive every subsequent event.
func (s *Simulator) Subscribe(l Listener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Simulator) emit(events []PacketEvent) {
	if len(events) == 0 {
		return
	}
	s.listenerMu.RLock()
	listeners := s.listeners
	s.listenerMu.RUnlock()
	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}

// CreatePacket injects a data packet at sourceID addressed to targetID.
// See CreatePacketOfType.
func (s *Simulator) CreatePacket(sourceID, targetID string) (Packet, error) {
	return s.CreatePacketOfType(sourceID, targetID, PacketData)
}

// CreatePacketOfType injects a packet and asks the forwarding engine for
// its first hop. The returned error is non-nil only when either endpoint
// does not exist; no event is emitted in that case. A packet whose first
// hop fails emits start then error and is not kept. A packet addressed to
// its own source is received immediately.
func (s *Simulator) CreatePacketOfType(sourceID, targetID string, typ PacketType) (Packet, error) {
	if !typ.IsValid() {
		return Packet{}, fmt.Errorf("create packet: unknown packet type %q", typ)
	}
	s.mu.Lock()
	p, events, err := s.createLocked(sourceID, targetID, typ)
	s.mu.Unlock()
	s.emit(events)
	return p, err
}

func (s *Simulator) createLocked(sourceID, targetID string, typ PacketType) (Packet, []PacketEvent, error) {
	src, ok := s.graph.Device(sourceID)
	if !ok {
		return Packet{}, nil, fmt.Errorf("create packet: source %q: %w", sourceID, ErrDeviceNotFound)
	}
	if _, ok := s.graph.Device(targetID); !ok {
		return Packet{}, nil, fmt.Errorf("create packet: target %q: %w", targetID, ErrDeviceNotFound)
	}

	f := &flight{packet: Packet{
		ID:              s.nextID(),
		SourceID:        sourceID,
		TargetID:        targetID,
		Type:            typ,
		CurrentDeviceID: sourceID,
		Status:          StatusWaiting,
		Path:            []string{sourceID},
		Position:        s.center(src),
	}}
	p := &f.packet

	dec := s.decide(p, src)
	var events []PacketEvent
	switch {
	case dec.Err != nil:
		events = append(events, s.event(EventStart, p, "", ""))
		s.fail(f, dec.Err)
		events = append(events, s.event(EventError, p, "", ""))
		logrus.Infof("[%07d ms] %s rejected at source: %v", s.clock, p.ID, dec.Err)
		return p.Clone(), events, nil
	case dec.Delivered():
		events = append(events, s.event(EventStart, p, "", ""))
		s.finish(f, StatusReceived)
		events = append(events, s.event(EventReceive, p, sourceID, sourceID))
		logrus.Infof("[%07d ms] %s delivered at source %s", s.clock, p.ID, sourceID)
	default:
		p.NextDeviceID = dec.NextDeviceID
		p.Status = StatusTransmitting
		f.windowMs = s.cfg.HopDurationMs + dec.Delay
		events = append(events, s.event(EventStart, p, "", ""))
		logrus.Infof("[%07d ms] %s started %s -> %s via %s", s.clock, p.ID, sourceID, targetID, dec.NextDeviceID)
	}
	s.flights = append(s.flights, f)
	return p.Clone(), events, nil
}

// decide consults the forwarding engine and records the decision.
func (s *Simulator) decide(p *Packet, d topology.Device) Decision {
	dec := s.forwarder.Forward(*p, d)
	s.trace.RecordHop(trace.HopRecord{
		PacketID:     p.ID,
		Clock:        s.clock,
		DeviceID:     d.ID,
		DeviceType:   string(d.Type),
		NextDeviceID: dec.NextDeviceID,
		Delay:        dec.Delay,
		Reason:       dec.Reason,
		Error:        string(KindOf(dec.Err)),
	})
	return dec
}

func (s *Simulator) fail(f *flight, err error) {
	f.packet.Error = string(KindOf(err))
	if f.packet.Error == "" {
		f.packet.Error = err.Error()
	}
	s.finish(f, StatusError)
}

func (s *Simulator) finish(f *flight, status PacketStatus) {
	p := &f.packet
	p.Status = status
	p.NextDeviceID = ""
	f.finishedAt = s.clock
	s.trace.RecordOutcome(trace.OutcomeRecord{
		PacketID: p.ID,
		Clock:    s.clock,
		Status:   string(status),
		Error:    p.Error,
		Path:     append([]string(nil), p.Path...),
	})
}

func (s *Simulator) event(typ EventType, p *Packet, from, to string) PacketEvent {
	return PacketEvent{
		Type:       typ,
		Timestamp:  s.clock,
		Packet:     p.Clone(),
		FromDevice: from,
		ToDevice:   to,
		Error:      p.Error,
	}
}

// center is the point packets travel to and from on a device.
func (s *Simulator) center(d topology.Device) topology.Position {
	half := s.cfg.DeviceSize / 2
	return topology.Position{X: d.Position.X + half, Y: d.Position.Y + half}
}

// Tick advances the clock by one interval: every transmitting packet moves
// along its hop, packets whose hop window has elapsed arrive and are
// forwarded again, and terminal packets past their grace period are purged.
// A failing packet never affects the others.
func (s *Simulator) Tick() {
	s.mu.Lock()
	events := s.tickLocked()
	s.mu.Unlock()
	s.emit(events)
}

func (s *Simulator) tickLocked() []PacketEvent {
	s.clock += s.cfg.TickIntervalMs
	s.tickCount++

	var events []PacketEvent
	current := s.flights
	s.flights = make([]*flight, 0, len(current))
	for _, f := range current {
		if f.packet.Status.IsTerminal() {
			if s.clock-f.finishedAt >= s.cfg.GracePeriodMs {
				logrus.Debugf("[%07d ms] purged %s", s.clock, f.packet.ID)
				continue
			}
			s.flights = append(s.flights, f)
			continue
		}

		s.flights = append(s.flights, f)
		f.elapsedMs += s.cfg.TickIntervalMs
		if f.elapsedMs >= f.windowMs {
			events = append(events, s.arrive(f)...)
			continue
		}
		s.interpolate(f)
	}
	return events
}

// interpolate places the packet on the line between its current and next
// device according to the fraction of the hop window already spent.
func (s *Simulator) interpolate(f *flight) {
	from, ok := s.graph.Device(f.packet.CurrentDeviceID)
	if !ok {
		return
	}
	to, ok := s.graph.Device(f.packet.NextDeviceID)
	if !ok {
		return
	}
	progress := float64(f.elapsedMs) / float64(f.windowMs)
	a, b := s.center(from), s.center(to)
	f.packet.Position = topology.Position{
		X: a.X + (b.X-a.X)*progress,
		Y: a.Y + (b.Y-a.Y)*progress,
	}
}

// arrive completes the current hop and asks the forwarding engine what happens next.
func (s *Simulator) arrive(f *flight) []PacketEvent {
	p := &f.packet
	from, to := p.CurrentDeviceID, p.NextDeviceID

	p.Path = append(p.Path, to)
	p.CurrentDeviceID = to
	p.NextDeviceID = ""
	f.elapsedMs = 0

	dev, ok := s.graph.Device(to)
	if !ok {
		s.fail(f, fmt.Errorf("device %q removed mid-flight: %w", to, ErrDeviceNotFound))
		logrus.Warnf("[%07d ms] %s lost: %s no longer exists", s.clock, p.ID, to)
		return []PacketEvent{s.event(EventError, p, from, to)}
	}
	p.Position = s.center(dev)

	dec := s.decide(p, dev)
	switch {
	case dec.Err != nil:
		s.fail(f, dec.Err)
		logrus.Infof("[%07d ms] %s failed at %s: %v", s.clock, p.ID, to, dec.Err)
		return []PacketEvent{s.event(EventError, p, from, to)}
	case dec.Delivered():
		s.finish(f, StatusReceived)
		logrus.Infof("[%07d ms] %s received at %s after %d hops", s.clock, p.ID, to, p.Hops())
		events := []PacketEvent{s.event(EventReceive, p, from, to)}
		if s.cfg.AckOnReceive && p.Type == PacketData {
			_, ackEvents, err := s.createLocked(p.TargetID, p.SourceID, PacketAck)
			if err != nil {
				logrus.Warnf("[%07d ms] ack for %s not sent: %v", s.clock, p.ID, err)
			}
			events = append(events, ackEvents...)
		}
		return events
	case s.cfg.MaxHops > 0 && p.Hops() >= s.cfg.MaxHops:
		s.fail(f, ErrHopLimit)
		logrus.Warnf("[%07d ms] %s dropped at %s: hop limit %d reached", s.clock, p.ID, to, s.cfg.MaxHops)
		return []PacketEvent{s.event(EventError, p, from, to)}
	default:
		p.NextDeviceID = dec.NextDeviceID
		f.windowMs = s.cfg.HopDurationMs + dec.Delay
		logrus.Debugf("[%07d ms] %s hop %s -> %s, next %s", s.clock, p.ID, from, to, dec.NextDeviceID)
		return []PacketEvent{s.event(EventHop, p, from, to)}
	}
}

// Run ticks the simulator every TickIntervalMs of wall-clock time until ctx
// is cancelled or Stop is called. Each tick runs to completion before the
// next one is considered; ticks that fall behind are dropped, not queued.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(s.cfg.TickIntervalMs) * time.Millisecond)
	defer ticker.Stop()
	logrus.Infof("packet clock running every %d ms", s.cfg.TickIntervalMs)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.stopped.Load() {
				logrus.Infof("packet clock stopped at %d ms", s.Clock())
				return nil
			}
			s.Tick()
		}
	}
}

// Stop halts tick scheduling for good: Run returns at its next tick and
// RunUntilIdle before its next one. In-flight packets keep their state and
// manual Tick calls still work.
func (s *Simulator) Stop() {
	s.stopped.Store(true)
}

// Stopped reports whether Stop was called.
func (s *Simulator) Stopped() bool {
	return s.stopped.Load()
}

// RunUntilIdle ticks without wall-clock pacing until no packet is
// transmitting, maxTicks is reached, or Stop is called. It returns the
// number of ticks executed and whether the simulator went idle.
func (s *Simulator) RunUntilIdle(maxTicks int64) (ticks int64, idle bool) {
	for ticks < maxTicks {
		if s.InFlight() == 0 {
			return ticks, true
		}
		if s.stopped.Load() {
			return ticks, false
		}
		s.Tick()
		ticks++
	}
	return ticks, s.InFlight() == 0
}

// Packets returns snapshots of every retained packet, terminal ones included.
func (s *Simulator) Packets() []Packet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Packet, len(s.flights))
	for i, f := range s.flights {
		out[i] = f.packet.Clone()
	}
	return out
}

// Packet returns the snapshot of one retained packet.
func (s *Simulator) Packet(id string) (Packet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.flights {
		if f.packet.ID == id {
			return f.packet.Clone(), true
		}
	}
	return Packet{}, false
}

// InFlight returns the number of packets still transmitting.
func (s *Simulator) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.flights {
		if !f.packet.Status.IsTerminal() {
			n++
		}
	}
	return n
}

// Clock returns the simulated time in ms.
func (s *Simulator) Clock() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// TickCount returns the number of ticks executed.
func (s *Simulator) TickCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickCount
}

// Config returns the simulator's configuration.
func (s *Simulator) Config() Config {
	return s.cfg
}
