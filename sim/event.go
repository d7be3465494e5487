package sim

// EventType names a packet state transition.
type EventType string

const (
	EventStart   EventType = "start"
	EventHop     EventType = "hop"
	EventReceive EventType = "receive"
	EventError   EventType = "error"
)

// PacketEvent is emitted once per packet state transition.
// Packet is a snapshot taken at the moment of the transition.
type PacketEvent struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"` // simulation clock, ms
	Packet    Packet    `json:"packet"`

	// FromDevice and ToDevice are set on hop, receive and mid-flight error
	// events: the device the packet left and the device it arrived at.
	FromDevice string `json:"fromDevice,omitempty"`
	ToDevice   string `json:"toDevice,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Listener receives packet events. Listeners run on the goroutine that
// called CreatePacket or Tick, after the simulator's lock is released.
// Events from one call arrive in order, but calls made from different
// goroutines may interleave their batches. A packet's start always reaches
// listeners before its first hop as long as the hop duration exceeds the
// tick interval, which Config.Validate enforces.
type Listener func(PacketEvent)

// EventRecorder is a Listener that keeps every event in order.
type EventRecorder struct {
	Events []PacketEvent
}

// Record implements Listener.
func (r *EventRecorder) Record(ev PacketEvent) {
	r.Events = append(r.Events, ev)
}

// Types returns the recorded event types in order.
func (r *EventRecorder) Types() []EventType {
	out := make([]EventType, len(r.Events))
	for i, ev := range r.Events {
		out[i] = ev.Type
	}
	return out
}

// ForPacket returns the events of one packet in order.
func (r *EventRecorder) ForPacket(id string) []PacketEvent {
	var out []PacketEvent
	for _, ev := range r.Events {
		if ev.Packet.ID == id {
			out = append(out, ev)
		}
	}
	return out
}
