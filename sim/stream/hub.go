// Package stream publishes simulation events to websocket clients and
// exposes the topology, packet and layout operations over HTTP.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kelisiWu123/hardware-game/sim"
	"github.com/kelisiWu123/hardware-game/sim/topology"
)

// Message kinds sent to websocket clients.
const (
	KindPacket   = "packet"
	KindTopology = "topology"
)

// Message is the envelope of every websocket frame.
type Message struct {
	Kind     string            `json:"kind"`
	Event    *sim.PacketEvent  `json:"event,omitempty"`
	Topology *TopologySnapshot `json:"topology,omitempty"`
}

// TopologySnapshot is the full device and connection set.
type TopologySnapshot struct {
	Devices     []topology.Device     `json:"devices"`
	Connections []topology.Connection `json:"connections"`
}

// Snapshot copies the store's current topology.
func Snapshot(store *topology.Store) TopologySnapshot {
	return TopologySnapshot{Devices: store.Devices(), Connections: store.Connections()}
}

// client buffers frames for one connection; a dedicated writer goroutine
// drains send, so the connection only ever has one writer.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to every connected websocket client. Slow clients
// whose buffer fills up are disconnected rather than blocking the simulation.
type Hub struct {
	upgrader  websocket.Upgrader
	clients   map[*client]bool
	register  chan *client
	remove    chan *client
	broadcast chan []byte
	done      chan struct{}
	count     atomic.Int64
}

const (
	broadcastBuffer = 256
	clientBuffer    = 64
)

// NewHub creates a hub. Call Run to start delivering messages.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*client]bool),
		register:  make(chan *client),
		remove:    make(chan *client),
		broadcast: make(chan []byte, broadcastBuffer),
		done:      make(chan struct{}),
	}
}

// Run delivers messages until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			h.count.Store(int64(len(h.clients)))
			logrus.Debugf("websocket client %s connected (total: %d)", c.conn.RemoteAddr(), len(h.clients))
		case c := <-h.remove:
			if h.clients[c] {
				h.drop(c)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					logrus.Warnf("websocket client %s is too slow, disconnecting", c.conn.RemoteAddr())
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	h.count.Store(int64(len(h.clients)))
	close(c.send)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// PublishEvent broadcasts a packet event. It never blocks; events are
// dropped when the broadcast buffer is full.
func (h *Hub) PublishEvent(ev sim.PacketEvent) {
	h.publish(Message{Kind: KindPacket, Event: &ev})
}

// PublishTopology broadcasts a topology snapshot.
func (h *Hub) PublishTopology(snap TopologySnapshot) {
	h.publish(Message{Kind: KindTopology, Topology: &snap})
}

func (h *Hub) publish(m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		logrus.Errorf("marshalling %s message: %v", m.Kind, err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logrus.Warnf("broadcast buffer full, dropping %s message", m.Kind)
	}
}

// ServeWS upgrades the request, sends greeting (if any) as the first frame
// and keeps the client registered until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, greeting []byte) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("websocket upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	if greeting != nil {
		c.send <- greeting
	}
	go c.writeLoop()

	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.Warnf("websocket error: %v", err)
			}
			break
		}
	}
	select {
	case h.remove <- c:
	case <-h.done:
	}
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logrus.Debugf("websocket write to %s failed: %v", c.conn.RemoteAddr(), err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
