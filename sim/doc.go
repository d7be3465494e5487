// Package sim provides the packet forwarding simulation for the network
// topology game.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - packet.go: Packet lifecycle (waiting → transmitting → received | error)
//   - forwarding.go: per-device-type forwarding policies and error kinds
//   - simulator.go: the packet clock that advances hops and emits events
//
// Configuration lives in config.go (defaults) and bundle.go (YAML overlay);
// metrics.go aggregates delivery statistics from the event stream.
//
// # Architecture
//
// The sim package owns packets, forwarding and the clock; supporting code
// lives in sub-packages:
//   - sim/topology/: devices, connections and the topology store
//   - sim/layout/: force-directed auto-layout and layout scoring
//   - sim/scenario/: YAML scenario files, packet schedules, random traffic
//     and live file sync
//   - sim/stream/: websocket event hub and HTTP control surface
//   - sim/trace/: forwarding decision trace recording
//
// The forwarding engine never caches routes: every decision reads the
// topology afresh through the Graph interface, so edits made while packets
// are in flight apply to their next hop.
package sim
