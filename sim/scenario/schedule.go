package scenario

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/kelisiWu123/hardware-game/sim"
)

// Schedule releases packets in at_ms order. Packets sharing a time keep
// their file order.
type Schedule struct {
	pending []PacketSpec
}

// NewSchedule sorts a copy of packets by time.
func NewSchedule(packets []PacketSpec) *Schedule {
	pending := slices.Clone(packets)
	slices.SortStableFunc(pending, func(a, b PacketSpec) int {
		switch {
		case a.AtMs < b.AtMs:
			return -1
		case a.AtMs > b.AtMs:
			return 1
		}
		return 0
	})
	return &Schedule{pending: pending}
}

// Due removes and returns every packet scheduled at or before clockMs.
func (s *Schedule) Due(clockMs int64) []PacketSpec {
	n := 0
	for n < len(s.pending) && s.pending[n].AtMs <= clockMs {
		n++
	}
	due := s.pending[:n:n]
	s.pending = s.pending[n:]
	return due
}

// Len returns the number of packets not yet released.
func (s *Schedule) Len() int {
	return len(s.pending)
}

// Play injects scheduled packets into s as its clock passes their time and
// ticks until everything has been sent and delivered or failed, maxTicks
// runs out, or the simulator is stopped. It returns the ticks executed and
// whether the run finished.
func (s *Schedule) Play(simulator *sim.Simulator, maxTicks int64) (ticks int64, finished bool, err error) {
	for {
		for _, p := range s.Due(simulator.Clock()) {
			if _, err := simulator.CreatePacketOfType(p.Source, p.Target, p.PacketType()); err != nil {
				return ticks, false, fmt.Errorf("injecting %s->%s at %d ms: %w", p.Source, p.Target, p.AtMs, err)
			}
		}
		if s.Len() == 0 && simulator.InFlight() == 0 {
			return ticks, true, nil
		}
		if ticks >= maxTicks || simulator.Stopped() {
			logrus.Warnf("schedule stopped after %d ticks with %d packets pending and %d in flight",
				ticks, s.Len(), simulator.InFlight())
			return ticks, false, nil
		}
		simulator.Tick()
		ticks++
	}
}
