package scenario

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/kelisiWu123/hardware-game/sim/topology"
)

// SyncStats counts the changes Sync made.
type SyncStats struct {
	DevicesAdded, DevicesRemoved, DevicesMoved int
	LinksAdded, LinksRemoved, LinksUpdated     int
}

// Changed reports whether Sync touched the store at all.
func (st SyncStats) Changed() bool {
	return st != SyncStats{}
}

// Sync makes a live store match the scenario. Devices are matched by id and
// links by their unordered device pair, so existing connection ids survive
// unless the scenario names a different one.
// A device whose type changed is removed and re-added. Packets are not
// touched; any in flight across a removed device fail on their next hop.
//
// The scenario is built into a scratch store first, so a scenario that
// cannot be applied is rejected before the live store changes.
func (s *Scenario) Sync(store *topology.Store) (SyncStats, error) {
	var st SyncStats
	if _, err := s.Build(); err != nil {
		return st, fmt.Errorf("sync: %w", err)
	}
	want := make(map[string]DeviceSpec, len(s.Devices))
	for _, d := range s.Devices {
		want[d.ID] = d
	}
	wantLinks := make(map[string]ConnectionSpec, len(s.Connections))
	claimed := make(map[string]string, len(s.Connections))
	for _, c := range s.Connections {
		wantLinks[linkKey(c.Source, c.Target)] = c
		if c.ID != "" {
			claimed[c.ID] = linkKey(c.Source, c.Target)
		}
	}

	stale := func(id string) bool {
		spec, ok := want[id]
		if !ok {
			return true
		}
		d, _ := store.Device(id)
		return string(d.Type) != spec.Type
	}

	for _, c := range store.Connections() {
		key := linkKey(c.SourceID, c.TargetID)
		spec, ok := wantLinks[key]
		owner, isClaimed := claimed[c.ID]
		idMatches := (!isClaimed || owner == key) && (spec.ID == "" || spec.ID == c.ID)
		if ok && idMatches && !stale(c.SourceID) && !stale(c.TargetID) {
			continue
		}
		if err := store.RemoveConnection(c.ID); err != nil {
			return st, fmt.Errorf("sync: %w", err)
		}
		st.LinksRemoved++
	}
	for _, d := range store.Devices() {
		if !stale(d.ID) {
			continue
		}
		if err := store.RemoveDevice(d.ID); err != nil {
			return st, fmt.Errorf("sync: %w", err)
		}
		st.DevicesRemoved++
	}

	for _, spec := range s.Devices {
		pos := topology.Position{X: spec.X, Y: spec.Y}
		current, ok := store.Device(spec.ID)
		if !ok {
			if err := store.AddDevice(topology.NewDevice(spec.ID, topology.DeviceType(spec.Type), pos)); err != nil {
				return st, fmt.Errorf("sync: %w", err)
			}
			st.DevicesAdded++
			continue
		}
		if current.Position != pos {
			if err := store.SetPosition(spec.ID, pos); err != nil {
				return st, fmt.Errorf("sync: %w", err)
			}
			st.DevicesMoved++
		}
	}

	for _, spec := range s.Connections {
		status := topology.StatusActive
		if spec.Status != "" {
			status = topology.ConnectionStatus(spec.Status)
		}
		conn, existed := store.ConnectionBetween(spec.Source, spec.Target)
		if !existed {
			added, err := store.AddConnection(spec.ID, spec.Source, spec.Target)
			if err != nil {
				return st, fmt.Errorf("sync: %w", err)
			}
			st.LinksAdded++
			conn = added
		}
		if conn.Status == status {
			continue
		}
		if existed {
			st.LinksUpdated++
		}
		if err := store.SetConnectionStatus(conn.ID, status); err != nil {
			return st, fmt.Errorf("sync: %w", err)
		}
	}

	logrus.Infof("scenario %q synced: %+v", s.Name, st)
	return st, nil
}

func linkKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}
