package topology

import (
	"fmt"
	"slices"
)

// DeviceType is one of the fixed set of device kinds a topology can hold.
type DeviceType string

const (
	Router   DeviceType = "router"
	Switch   DeviceType = "switch"
	Bridge   DeviceType = "bridge"
	Hub      DeviceType = "hub"
	Gateway  DeviceType = "gateway"
	Computer DeviceType = "computer"
)

// portCapacities is the number of ports each device type ships with.
var portCapacities = map[DeviceType]int{
	Router:   4,
	Switch:   8,
	Bridge:   2,
	Hub:      4,
	Gateway:  2,
	Computer: 1,
}

// DeviceTypes returns every known device type in a stable order.
func DeviceTypes() []DeviceType {
	return []DeviceType{Router, Switch, Bridge, Hub, Gateway, Computer}
}

// IsValid reports whether t is one of the known device types.
func (t DeviceType) IsValid() bool {
	_, ok := portCapacities[t]
	return ok
}

// PortCapacity returns the fixed port count for t, or 0 for unknown types.
func (t DeviceType) PortCapacity() int {
	return portCapacities[t]
}

// ParseDeviceType converts a user-supplied name into a DeviceType.
func ParseDeviceType(name string) (DeviceType, error) {
	t := DeviceType(name)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDeviceType, name)
	}
	return t, nil
}

// Position is a point on the canvas. Devices are positioned by their top-left corner.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Device is a node of the topology.
type Device struct {
	ID                 string     `json:"id" yaml:"id"`
	Type               DeviceType `json:"type" yaml:"type"`
	Position           Position   `json:"position" yaml:"position"`
	PortCapacity       int        `json:"portCapacity" yaml:"port_capacity"`
	ConnectedDeviceIDs []string   `json:"connectedDeviceIds" yaml:"connected_device_ids"`
}

// NewDevice creates an unconnected device whose port capacity comes from its type.
func NewDevice(id string, t DeviceType, pos Position) Device {
	return Device{
		ID:           id,
		Type:         t,
		Position:     pos,
		PortCapacity: t.PortCapacity(),
	}
}

// FreePorts returns how many more connections the device accepts.
func (d Device) FreePorts() int {
	return d.PortCapacity - len(d.ConnectedDeviceIDs)
}

// IsConnectedTo reports whether id is on the device's connection list.
func (d Device) IsConnectedTo(id string) bool {
	return slices.Contains(d.ConnectedDeviceIDs, id)
}

// Clone returns a deep copy of the device.
func (d Device) Clone() Device {
	d.ConnectedDeviceIDs = slices.Clone(d.ConnectedDeviceIDs)
	return d
}

func (d Device) String() string {
	return fmt.Sprintf("Device: (ID: %s, Type: %s, Ports: %d/%d)", d.ID, d.Type, len(d.ConnectedDeviceIDs), d.PortCapacity)
}
