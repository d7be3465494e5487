// Package topology holds the authoritative set of devices and connections.
//
// The Store enforces the structural invariants of a topology: device ids
// are unique, every connection references two existing devices, at most one
// connection exists per unordered device pair, a device never exceeds its
// port capacity, and each device's ConnectedDeviceIDs mirrors the
// connection set. It performs no routing of its own.
package topology

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store owns device and connection lifetime. All methods are safe for
// concurrent use; a single lock guards the whole topology.
type Store struct {
	mu          sync.RWMutex
	devices     map[string]*Device
	deviceOrder []string
	connections map[string]*Connection
	connOrder   []string
	pairs       map[string]string // pairKey -> connection ID
}

// NewStore creates an empty topology.
func NewStore() *Store {
	return &Store{
		devices:     make(map[string]*Device),
		connections: make(map[string]*Connection),
		pairs:       make(map[string]string),
	}
}

// AddDevice inserts a device. Its connection list must be empty; links are
// only created through AddConnection. A zero PortCapacity is filled from the type.
func (s *Store) AddDevice(d Device) error {
	if !d.Type.IsValid() {
		return fmt.Errorf("add device %q: %w: %q", d.ID, ErrUnknownDeviceType, d.Type)
	}
	if d.ID == "" {
		return fmt.Errorf("add device: empty id")
	}
	if len(d.ConnectedDeviceIDs) > 0 {
		return fmt.Errorf("add device %q: connections must be added with AddConnection", d.ID)
	}
	if d.PortCapacity <= 0 {
		d.PortCapacity = d.Type.PortCapacity()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.devices[d.ID]; exists {
		return fmt.Errorf("add device %q: %w", d.ID, ErrDuplicateDevice)
	}
	d.ConnectedDeviceIDs = nil
	s.devices[d.ID] = &d
	s.deviceOrder = append(s.deviceOrder, d.ID)
	logrus.Debugf("topology: added %s", d)
	return nil
}

// RemoveDevice deletes an unconnected device. Devices with links are
// rejected rather than cascading the removal.
func (s *Store) RemoveDevice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return fmt.Errorf("remove device %q: %w", id, ErrNotFound)
	}
	if len(d.ConnectedDeviceIDs) > 0 {
		return fmt.Errorf("remove device %q (%d links): %w", id, len(d.ConnectedDeviceIDs), ErrDeviceConnected)
	}
	delete(s.devices, id)
	s.deviceOrder = slices.DeleteFunc(s.deviceOrder, func(v string) bool { return v == id })
	logrus.Debugf("topology: removed device %s", id)
	return nil
}

// AddConnection links devices a and b and returns the stored connection.
// An empty id is replaced by a generated one.
func (s *Store) AddConnection(id, a, b string) (Connection, error) {
	if a == b {
		return Connection{}, fmt.Errorf("add connection %s-%s: %w", a, b, ErrSelfConnection)
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	da, ok := s.devices[a]
	if !ok {
		return Connection{}, fmt.Errorf("add connection: device %q: %w", a, ErrNotFound)
	}
	db, ok := s.devices[b]
	if !ok {
		return Connection{}, fmt.Errorf("add connection: device %q: %w", b, ErrNotFound)
	}
	if existing, dup := s.pairs[pairKey(a, b)]; dup {
		logrus.Warnf("topology: %s and %s already linked by %s", a, b, existing)
		return Connection{}, fmt.Errorf("add connection %s-%s: %w", a, b, ErrDuplicateConnection)
	}
	if _, dup := s.connections[id]; dup {
		return Connection{}, fmt.Errorf("add connection %q: id in use: %w", id, ErrDuplicateConnection)
	}
	for _, d := range []*Device{da, db} {
		if d.FreePorts() <= 0 {
			logrus.Warnf("topology: %s has no free ports", d.ID)
			return Connection{}, fmt.Errorf("add connection %s-%s: %s: %w", a, b, d.ID, ErrPortExhausted)
		}
	}

	conn := &Connection{ID: id, SourceID: a, TargetID: b, Status: StatusActive}
	s.connections[id] = conn
	s.connOrder = append(s.connOrder, id)
	s.pairs[pairKey(a, b)] = id
	da.ConnectedDeviceIDs = append(da.ConnectedDeviceIDs, b)
	db.ConnectedDeviceIDs = append(db.ConnectedDeviceIDs, a)
	logrus.Debugf("topology: linked %s <-> %s (%s)", a, b, id)
	return *conn, nil
}

// RemoveConnection deletes a link by id and detaches both endpoints.
func (s *Store) RemoveConnection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.connections[id]
	if !ok {
		return fmt.Errorf("remove connection %q: %w", id, ErrNotFound)
	}
	s.detach(conn)
	return nil
}

// RemoveConnectionBetween deletes the link between a and b, in either direction.
func (s *Store) RemoveConnectionBetween(a, b string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.pairs[pairKey(a, b)]
	if !ok {
		return fmt.Errorf("remove connection %s-%s: %w", a, b, ErrNotFound)
	}
	s.detach(s.connections[id])
	return nil
}

// detach removes conn and its endpoint references. Callers hold s.mu.
func (s *Store) detach(conn *Connection) {
	delete(s.connections, conn.ID)
	delete(s.pairs, pairKey(conn.SourceID, conn.TargetID))
	s.connOrder = slices.DeleteFunc(s.connOrder, func(v string) bool { return v == conn.ID })
	if d, ok := s.devices[conn.SourceID]; ok {
		d.ConnectedDeviceIDs = without(d.ConnectedDeviceIDs, conn.TargetID)
	}
	if d, ok := s.devices[conn.TargetID]; ok {
		d.ConnectedDeviceIDs = without(d.ConnectedDeviceIDs, conn.SourceID)
	}
	logrus.Debugf("topology: unlinked %s <-> %s (%s)", conn.SourceID, conn.TargetID, conn.ID)
}

// without removes id from ids, keeping order. An emptied list becomes nil.
func without(ids []string, id string) []string {
	ids = slices.DeleteFunc(ids, func(v string) bool { return v == id })
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// SetConnectionStatus switches a link between active and inactive.
// Inactive links keep their ports but are skipped by Neighbors.
func (s *Store) SetConnectionStatus(id string, status ConnectionStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("set status %q: %w: %q", id, ErrInvalidStatus, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.connections[id]
	if !ok {
		return fmt.Errorf("set status %q: %w", id, ErrNotFound)
	}
	conn.Status = status
	return nil
}

// SetPosition moves a device.
func (s *Store) SetPosition(id string, pos Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return fmt.Errorf("set position %q: %w", id, ErrNotFound)
	}
	d.Position = pos
	return nil
}

// ApplyPositions commits the positions of the given devices, typically the
// output of an auto-layout run. Devices unknown to the store are skipped
// and counted in the returned value.
func (s *Store) ApplyPositions(devices []Device) (skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range devices {
		d, ok := s.devices[in.ID]
		if !ok {
			skipped++
			continue
		}
		d.Position = in.Position
	}
	return skipped
}

// Device returns a copy of the device with the given id.
func (s *Store) Device(id string) (Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[id]
	if !ok {
		return Device{}, false
	}
	return d.Clone(), true
}

// Devices returns copies of all devices in insertion order.
func (s *Store) Devices() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Device, 0, len(s.deviceOrder))
	for _, id := range s.deviceOrder {
		out = append(out, s.devices[id].Clone())
	}
	return out
}

// Connections returns copies of all connections in insertion order.
func (s *Store) Connections() []Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Connection, 0, len(s.connOrder))
	for _, id := range s.connOrder {
		out = append(out, *s.connections[id])
	}
	return out
}

// ConnectionBetween returns the link joining a and b, if any.
func (s *Store) ConnectionBetween(a, b string) (Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.pairs[pairKey(a, b)]
	if !ok {
		return Connection{}, false
	}
	return *s.connections[id], true
}

// Neighbors returns the devices reachable over active links from id, in the
// order those links were added to the device. Unknown ids yield nil.
func (s *Store) Neighbors(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(d.ConnectedDeviceIDs))
	for _, other := range d.ConnectedDeviceIDs {
		if s.connections[s.pairs[pairKey(id, other)]].IsActive() {
			out = append(out, other)
		}
	}
	return out
}

// Len returns the number of devices and connections.
func (s *Store) Len() (devices, connections int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices), len(s.connections)
}
