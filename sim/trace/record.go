// Package trace provides forwarding-decision recording for packet simulations.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// HopRecord captures a single forwarding decision taken at a device.
type HopRecord struct {
	PacketID     string
	Clock        int64
	DeviceID     string
	DeviceType   string
	NextDeviceID string // empty when the packet terminated at DeviceID
	Delay        int64
	Reason       string
	Error        string // error kind, empty on success
}

// OutcomeRecord captures how a packet ended.
type OutcomeRecord struct {
	PacketID string
	Clock    int64
	Status   string // "received" or "error"
	Error    string
	Path     []string
}

// Hops returns the number of links the packet traversed.
func (r OutcomeRecord) Hops() int {
	if len(r.Path) == 0 {
		return 0
	}
	return len(r.Path) - 1
}
