// Defines the Packet struct that models one packet travelling through the topology.
// Tracks source/target, the hop in progress, the visited path and the
// interpolated canvas position.

package sim

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kelisiWu123/hardware-game/sim/topology"
)

// PacketStatus represents the lifecycle state of a packet.
//
//	waiting -> transmitting -> received
//	                        -> error
type PacketStatus string

const (
	StatusWaiting      PacketStatus = "waiting"
	StatusTransmitting PacketStatus = "transmitting"
	StatusReceived     PacketStatus = "received"
	StatusError        PacketStatus = "error"
)

// IsTerminal reports whether no further hops occur in this state.
func (s PacketStatus) IsTerminal() bool {
	return s == StatusReceived || s == StatusError
}

// PacketType distinguishes payload packets from acknowledgements and error reports.
type PacketType string

const (
	PacketData  PacketType = "data"
	PacketAck   PacketType = "ack"
	PacketError PacketType = "error"
)

// IsValid reports whether t is a known packet type.
func (t PacketType) IsValid() bool {
	return t == PacketData || t == PacketAck || t == PacketError
}

type Packet struct {
	ID       string     `json:"id"`
	SourceID string     `json:"sourceId"` // fixed for the packet's lifetime
	TargetID string     `json:"targetId"` // fixed for the packet's lifetime
	Type     PacketType `json:"type"`

	CurrentDeviceID string       `json:"currentDeviceId"`
	NextDeviceID    string       `json:"nextDeviceId,omitempty"` // empty when no hop is in progress
	Status          PacketStatus `json:"status"`
	Error           string       `json:"error,omitempty"` // error kind once Status is error

	Path     []string          `json:"path"` // visited devices, append-only
	Position topology.Position `json:"position"`
}

// PreviousDeviceID returns the device the packet arrived from, or "" at its source.
func (p Packet) PreviousDeviceID() string {
	if len(p.Path) < 2 {
		return ""
	}
	return p.Path[len(p.Path)-2]
}

// Hops returns the number of links traversed so far.
func (p Packet) Hops() int {
	return max(len(p.Path)-1, 0)
}

// Clone returns a deep copy safe to hand to event listeners.
func (p Packet) Clone() Packet {
	p.Path = slices.Clone(p.Path)
	return p
}

// This method returns a human-readable string representation of a Packet.
func (p Packet) String() string {
	return fmt.Sprintf("Packet: (ID: %s, %s -> %s, Status: %s, At: %s, Path: %v)", p.ID, p.SourceID, p.TargetID, p.Status, p.CurrentDeviceID, p.Path)
}

// IDGenerator produces packet identifiers.
type IDGenerator func() string

// UUIDs generates random packet ids.
func UUIDs() IDGenerator {
	return func() string { return "packet-" + uuid.NewString() }
}

// SequentialIDs generates prefix-1, prefix-2, ... Useful for reproducible output.
func SequentialIDs(prefix string) IDGenerator {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("%s-%d", prefix, n.Add(1)) }
}
