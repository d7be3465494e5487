package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kelisiWu123/hardware-game/sim"
	"github.com/kelisiWu123/hardware-game/sim/layout"
	"github.com/kelisiWu123/hardware-game/sim/topology"
)

// ServerConfig sets the canvas and layout defaults used by POST /api/layout.
type ServerConfig struct {
	Width  float64
	Height float64
	Layout layout.Options
}

// Server exposes a topology store and its packet simulator over HTTP and
// streams every packet event and topology change to websocket clients.
//
//	GET    /ws                        websocket event stream
//	GET    /api/topology              devices and connections
//	POST   /api/devices               {id, type, position}
//	PUT    /api/devices/{id}/position {x, y}
//	DELETE /api/devices/{id}
//	POST   /api/connections           {id?, sourceId, targetId}
//	PATCH  /api/connections/{id}      {status}
//	DELETE /api/connections/{id}
//	GET    /api/packets               retained packets
//	GET    /api/metrics               delivery metrics since start
//	POST   /api/packets               {source, target, type?}
//	POST   /api/layout                {width?, height?, options?}
type Server struct {
	store *topology.Store
	sim   *sim.Simulator
	hub   *Hub
	cfg   ServerConfig
	stats *sim.Metrics
	mux   *http.ServeMux
}

// NewServer wires the routes and subscribes the hub to the simulator's events.
func NewServer(store *topology.Store, simulator *sim.Simulator, hub *Hub, cfg ServerConfig) *Server {
	s := &Server{store: store, sim: simulator, hub: hub, cfg: cfg, stats: sim.NewMetrics(), mux: http.NewServeMux()}
	simulator.Subscribe(hub.PublishEvent)
	simulator.Subscribe(s.stats.Record)

	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /api/topology", s.handleTopology)
	s.mux.HandleFunc("POST /api/devices", s.handleAddDevice)
	s.mux.HandleFunc("PUT /api/devices/{id}/position", s.handleMoveDevice)
	s.mux.HandleFunc("DELETE /api/devices/{id}", s.handleRemoveDevice)
	s.mux.HandleFunc("POST /api/connections", s.handleAddConnection)
	s.mux.HandleFunc("PATCH /api/connections/{id}", s.handleSetConnectionStatus)
	s.mux.HandleFunc("DELETE /api/connections/{id}", s.handleRemoveConnection)
	s.mux.HandleFunc("GET /api/packets", s.handleListPackets)
	s.mux.HandleFunc("POST /api/packets", s.handleCreatePacket)
	s.mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	s.mux.HandleFunc("POST /api/layout", s.handleLayout)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logrus.Infof("serving on %s", addr)

	select {
	case err := <-errc:
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	greeting, err := json.Marshal(Message{Kind: KindTopology, Topology: ptr(Snapshot(s.store))})
	if err != nil {
		logrus.Errorf("marshalling greeting: %v", err)
		greeting = nil
	}
	s.hub.ServeWS(w, r, greeting)
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Snapshot(s.store))
}

type addDeviceRequest struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Position topology.Position `json:"position"`
}

func (s *Server) handleAddDevice(w http.ResponseWriter, r *http.Request) {
	var req addDeviceRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := topology.ParseDeviceType(req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	d := topology.NewDevice(req.ID, t, req.Position)
	if err := s.store.AddDevice(d); err != nil {
		writeError(w, err)
		return
	}
	created, _ := s.store.Device(req.ID)
	s.topologyChanged()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleMoveDevice(w http.ResponseWriter, r *http.Request) {
	var pos topology.Position
	if !decode(w, r, &pos) {
		return
	}
	if err := s.store.SetPosition(r.PathValue("id"), pos); err != nil {
		writeError(w, err)
		return
	}
	s.topologyChanged()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveDevice(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveDevice(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	s.topologyChanged()
	w.WriteHeader(http.StatusNoContent)
}

type addConnectionRequest struct {
	ID       string `json:"id,omitempty"`
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

func (s *Server) handleAddConnection(w http.ResponseWriter, r *http.Request) {
	var req addConnectionRequest
	if !decode(w, r, &req) {
		return
	}
	conn, err := s.store.AddConnection(req.ID, req.SourceID, req.TargetID)
	if err != nil {
		writeError(w, err)
		return
	}
	s.topologyChanged()
	writeJSON(w, http.StatusCreated, conn)
}

func (s *Server) handleSetConnectionStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status topology.ConnectionStatus `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.store.SetConnectionStatus(r.PathValue("id"), req.Status); err != nil {
		writeError(w, err)
		return
	}
	s.topologyChanged()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveConnection(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	s.topologyChanged()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPackets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sim.Packets())
}

type createPacketRequest struct {
	Source string         `json:"source"`
	Target string         `json:"target"`
	Type   sim.PacketType `json:"type,omitempty"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

func (s *Server) handleCreatePacket(w http.ResponseWriter, r *http.Request) {
	var req createPacketRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Type == "" {
		req.Type = sim.PacketData
	}
	p, err := s.sim.CreatePacketOfType(req.Source, req.Target, req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type layoutRequest struct {
	Width   float64           `json:"width,omitempty"`
	Height  float64           `json:"height,omitempty"`
	Options *layout.Overrides `json:"options,omitempty"`
}

type layoutResponse struct {
	Devices []topology.Device `json:"devices"`
	Score   float64           `json:"score"`
}

// handleLayout computes a layout for the current topology and commits it.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	width, height := s.cfg.Width, s.cfg.Height
	if req.Width > 0 {
		width = req.Width
	}
	if req.Height > 0 {
		height = req.Height
	}
	opts := req.Options.Apply(s.cfg.Layout)
	if err := opts.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	conns := s.store.Connections()
	devices := layout.Layout(s.store.Devices(), conns, width, height, opts)
	if skipped := s.store.ApplyPositions(devices); skipped > 0 {
		logrus.Warnf("layout: %d devices were removed before positions were committed", skipped)
	}
	s.topologyChanged()
	writeJSON(w, http.StatusOK, layoutResponse{Devices: devices, Score: layout.Score(devices, conns)})
}

func (s *Server) topologyChanged() {
	s.hub.PublishTopology(Snapshot(s.store))
}

type errorBody struct {
	Error string `json:"error"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, topology.ErrNotFound), errors.Is(err, sim.ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, topology.ErrDuplicateDevice),
		errors.Is(err, topology.ErrDuplicateConnection),
		errors.Is(err, topology.ErrPortExhausted),
		errors.Is(err, topology.ErrDeviceConnected):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("writing response: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
