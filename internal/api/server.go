// Package api exposes the mission generator and the tuning store over HTTP.
package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xtding233/alienpod-sim/internal/config"
	"github.com/xtding233/alienpod-sim/internal/ini"
	"github.com/xtding233/alienpod-sim/internal/mission"
)

// Server holds the current snapshot and serves requests against it. A reload
// swaps the snapshot atomically; in-flight requests finish on the old one.
type Server struct {
	loader *config.Loader
	hub    *Hub
	rng    mission.RandomSource

	snap   atomic.Pointer[config.Snapshot]
	saveMu sync.Mutex // serializes writes to the tuning file
}

// NewServer loads the first snapshot. rng must be safe for concurrent use;
// nil uses mission.DefaultRNG. hub may be nil.
func NewServer(loader *config.Loader, hub *Hub, rng mission.RandomSource) (*Server, error) {
	if rng == nil {
		rng = mission.DefaultRNG()
	}
	s := &Server{loader: loader, hub: hub, rng: rng}
	snap, err := loader.Current()
	if err != nil {
		return nil, err
	}
	s.snap.Store(snap)
	return s, nil
}

// Snapshot returns the snapshot requests are currently served from.
func (s *Server) Snapshot() *config.Snapshot { return s.snap.Load() }

// Reload rereads every source file. On failure the current snapshot stays.
func (s *Server) Reload(reason string) (*config.Snapshot, error) {
	snap, err := s.loader.Reload()
	if err != nil {
		slog.Error("reload failed", "reason", reason, "error", err)
		return nil, err
	}
	s.snap.Store(snap)
	s.publish(EventSnapshotReloaded, map[string]any{
		"revision": snap.Revision,
		"reason":   reason,
		"findings": snap.Findings,
	})
	return snap, nil
}

func (s *Server) publish(eventType string, payload any) {
	if s.hub != nil {
		s.hub.Publish(eventType, payload)
	}
}

// Handler returns the routed, logged, CORS-enabled HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// generation
	mux.HandleFunc("POST /roll", s.handleRoll)
	mux.HandleFunc("POST /roll/report", s.handleReport)
	mux.HandleFunc("POST /api/simulate_draft", s.handleSimulateDraft)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/stats", s.handleStats)

	// tuning store
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSaveConfig)
	mux.HandleFunc("POST /api/revert", s.handleRevert)
	mux.HandleFunc("GET /api/findings", s.handleFindings)
	mux.HandleFunc("GET /api/constants", s.handleConstants)

	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.hub.ServeWs)
	}
	return logRequests(corsMiddleware(mux))
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	var p rollParams
	if err := decodeBody(r, &p); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.generate(w, r, s.Snapshot().Engine(), p.request())
}

// handleReport is /roll rendered as the plain-text mission report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var p rollParams
	if err := decodeBody(r, &p); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	res, err := s.Snapshot().Engine().Generate(p.request(), s.rng)
	if err != nil {
		writeError(w, r, generateStatus(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := mission.WriteReport(w, res); err != nil {
		slog.Error("write report failed", "error", err)
	}
}

// handleSimulateDraft runs one mission against an unsaved config layered
// over the current store. Nothing is written to disk.
func (s *Server) handleSimulateDraft(w http.ResponseWriter, r *http.Request) {
	var body draftBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if body.Params == nil {
		body.Params = &rollParams{}
	}
	snap := s.Snapshot()
	engine := snap.EngineFor(config.Resolve(snap.Store, body.Config))
	s.generate(w, r, engine, body.Params.request())
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, e *mission.Engine, req mission.Request) {
	res, err := e.Generate(req, s.rng)
	if err != nil {
		writeError(w, r, generateStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var body statsBody
	var err error
	if r.Method == http.MethodGet {
		body, err = statsFromQuery(r)
	} else {
		err = decodeBody(r, &body)
	}
	if err == nil {
		err = body.normalize()
	}
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	rng := s.rng
	if body.Seed != nil {
		rng = mission.NewSeededRNG(*body.Seed)
	}
	st, err := mission.RunMonteCarlo(s.Snapshot().Engine(), body.Params.request(), body.Goal, body.Trials, rng)
	if err != nil {
		writeError(w, r, generateStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":     st,
		"histogram": st.Histogram(),
	})
}

// handleGetConfig reads the file from disk, not the snapshot, so the editor
// sees saves that are still waiting for the watcher.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	store, err := s.loader.Manager().Load()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, store)
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	store := ini.NewStore()
	if err := decodeBody(r, store); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := store.CheckIndices(); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := s.loader.Manager().Save(store); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	snap, err := s.Reload(EventConfigSaved)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("saved, but reload failed: %w", err))
		return
	}
	s.publish(EventConfigSaved, map[string]any{"revision": snap.Revision})
	writeJSON(w, http.StatusOK, map[string]any{"status": "saved", "revision": snap.Revision, "findings": snap.Findings})
}

func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	m := s.loader.Manager()
	if err := m.Revert(); err != nil {
		if errors.Is(err, ini.ErrNoBackup) {
			writeJSON(w, http.StatusNotFound, map[string]any{"status": "error", "message": "No backup found"})
			return
		}
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	snap, err := s.Reload(EventConfigReverted)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	s.publish(EventConfigReverted, map[string]any{"revision": snap.Revision})
	writeJSON(w, http.StatusOK, map[string]any{"status": "reverted", "revision": snap.Revision, "config": snap.Store})
}

func (s *Server) handleFindings(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	findings := snap.Findings
	if findings == nil {
		findings = []config.Finding{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"revision":  snap.Revision,
		"loaded_at": snap.LoadedAt,
		"findings":  findings,
	})
}

func (s *Server) handleConstants(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	perks := make(map[string]string)
	for _, id := range snap.Perks.IDs() {
		perks[fmt.Sprint(id)] = snap.Perks.Name(id)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"eChars":       snap.Catalog.CharacterTypes(),
		"eShips":       mission.ShipTypes,
		"missionTypes": []mission.MissionType{mission.Abduction, mission.Terror, mission.UFO, mission.Special},
		"goals":        mission.Goals,
		"perks":        perks,
	})
}

// generateStatus maps engine errors: bad input is the caller's fault, bad
// tuning is reported as unprocessable so editors can tell them apart.
func generateStatus(err error) int {
	var ce *mission.ConfigError
	switch {
	case errors.Is(err, mission.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

const maxBodyBytes = 8 << 20

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

type errorResp struct {
	Err       string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, status, errorResp{Err: err.Error(), RequestID: w.Header().Get(requestIDHeader)})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack lets the websocket upgrade through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// logRequests tags every response with a request id and logs it.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", id,
		)
	})
}
