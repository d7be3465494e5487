package topology

// ConnectionStatus marks whether a link carries traffic.
type ConnectionStatus string

const (
	StatusActive   ConnectionStatus = "active"
	StatusInactive ConnectionStatus = "inactive"
)

// IsValid reports whether s is a known connection status.
func (s ConnectionStatus) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Connection is an undirected point-to-point link between two devices.
// SourceID and TargetID only record which end the link was drawn from.
type Connection struct {
	ID       string           `json:"id" yaml:"id"`
	SourceID string           `json:"sourceId" yaml:"source"`
	TargetID string           `json:"targetId" yaml:"target"`
	Status   ConnectionStatus `json:"status" yaml:"status"`
}

// Involves checks if this connection touches the given device.
func (c Connection) Involves(deviceID string) bool {
	return c.SourceID == deviceID || c.TargetID == deviceID
}

// OtherEnd returns the device on the far side of the link from deviceID.
func (c Connection) OtherEnd(deviceID string) string {
	if c.SourceID == deviceID {
		return c.TargetID
	}
	return c.SourceID
}

// IsActive reports whether routing may use the link.
func (c Connection) IsActive() bool {
	return c.Status == StatusActive
}

// pairKey identifies an unordered device pair.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}
