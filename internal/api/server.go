// Package api provides the HTTP API for observing a running world.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/lifegrid/internal/engine"
	"github.com/talgya/lifegrid/internal/snapshot"
	"github.com/talgya/lifegrid/internal/world"
)

const (
	maxStreamConns = 8
	maxStepTurns   = 100
)

// EventStore serves the persisted event history.
type EventStore interface {
	RecentEvents(ctx context.Context, category string, limit int) ([]world.Event, error)
}

// Server serves the world state over HTTP.
type Server struct {
	Eng         *engine.Engine
	Events      EventStore // optional; /events answers 404 without it
	Port        int
	AdminKey    string // Bearer token for POST endpoints. Empty = POST disabled.
	SnapshotDir string

	upgrader    websocket.Upgrader
	streamConns atomic.Int32
	srv         *http.Server
}

// Handler builds the API router.
func (s *Server) Handler() http.Handler {
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	stepLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/organisms", s.handleOrganisms)
	mux.HandleFunc("GET /api/v1/tile/{x}/{y}", s.handleTile)
	mux.HandleFunc("GET /api/v1/map", s.handleMap)
	mux.HandleFunc("GET /api/v1/logs", s.handleLogs)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// Admin endpoints.
	mux.HandleFunc("POST /api/v1/step", s.adminOnly(RateLimitMiddleware(stepLimiter, s.handleStep)))
	mux.HandleFunc("POST /api/v1/steer", s.adminOnly(s.handleSteer))
	mux.HandleFunc("POST /api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

type playerView struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Power   int    `json:"power"`
	Steer   string `json:"steer"`
	Ability string `json:"ability,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var status map[string]any
	s.Eng.Do(func(wd *world.World) error {
		rules := wd.Rules()
		status = map[string]any{
			"name":      "lifegrid",
			"run_id":    wd.ID(),
			"turn":      wd.Turn(),
			"seed":      wd.Seed(),
			"width":     wd.Width(),
			"height":    wd.Height(),
			"organisms": wd.Count(),
			"census":    engine.SortedCensus(engine.Census(wd)),
			"rules": map[string]any{
				"reproduction":  rules.Reproduction,
				"wildlife":      rules.Wildlife,
				"spread_chance": rules.SpreadChance,
			},
		}
		if p, ok := wd.Player(); ok {
			pv := playerView{X: p.Tile().X, Y: p.Tile().Y, Power: p.Power, Steer: p.Steer.String()}
			if p.Ability != nil {
				pv.Ability = p.Ability.Describe()
			}
			status["player"] = pv
		}
		return nil
	})
	writeJSON(w, status)
}

type organismView struct {
	ID            string `json:"id"`
	Species       string `json:"species"`
	Symbol        string `json:"symbol"`
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Power         int    `json:"power"`
	Initiative    int    `json:"initiative"`
	Age           uint64 `json:"age"`
	BreedCooldown int    `json:"breed_cooldown"`
	Ability       string `json:"ability,omitempty"`
}

func viewOf(o *world.Organism) organismView {
	v := organismView{
		ID:            o.ID.String(),
		Species:       string(o.Species()),
		Symbol:        o.Symbol(),
		Power:         o.Power,
		Initiative:    o.Initiative,
		Age:           o.Age,
		BreedCooldown: o.BreedCooldown,
	}
	if t := o.Tile(); t != nil {
		v.X, v.Y = t.X, t.Y
	}
	if o.Ability != nil {
		v.Ability = o.Ability.Describe()
	}
	return v
}

func (s *Server) handleOrganisms(w http.ResponseWriter, r *http.Request) {
	filter := world.Species(r.URL.Query().Get("species"))
	out := []organismView{}
	s.Eng.Do(func(wd *world.World) error {
		for _, o := range wd.Organisms() {
			if o.Dead() || (filter != "" && o.Species() != filter) {
				continue
			}
			out = append(out, viewOf(o))
		}
		return nil
	})
	writeJSON(w, out)
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.PathValue("x"))
	y, errY := strconv.Atoi(r.PathValue("y"))
	if errX != nil || errY != nil {
		http.Error(w, "invalid coordinates", http.StatusBadRequest)
		return
	}

	var resp map[string]any
	err := s.Eng.Do(func(wd *world.World) error {
		t, err := wd.Tile(x, y)
		if err != nil {
			return err
		}
		resp = map[string]any{"x": t.X, "y": t.Y, "free": t.IsFree()}
		if o, ok := wd.OccupantOf(t); ok {
			resp["organism"] = viewOf(o)
		}
		return nil
	})
	if errors.Is(err, world.ErrOutOfRange) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, resp)
}

// handleMap returns the grid as rows of glyphs, "." for free tiles.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	var resp map[string]any
	s.Eng.Do(func(wd *world.World) error {
		rows := make([]string, wd.Height())
		for y := range rows {
			var b strings.Builder
			for x := 0; x < wd.Width(); x++ {
				t, _ := wd.Tile(x, y)
				if o, ok := wd.OccupantOf(t); ok {
					b.WriteString(o.Symbol())
				} else {
					b.WriteByte('.')
				}
			}
			rows[y] = b.String()
		}
		resp = map[string]any{
			"turn":   wd.Turn(),
			"width":  wd.Width(),
			"height": wd.Height(),
			"rows":   rows,
		}
		return nil
	})
	writeJSON(w, resp)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	var logs []string
	s.Eng.Do(func(wd *world.World) error {
		logs = wd.Logs()
		return nil
	})
	writeJSON(w, logs)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.Events == nil {
		http.Error(w, "event history not available", http.StatusNotFound)
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	events, err := s.Events.RecentEvents(r.Context(), r.URL.Query().Get("category"), limit)
	if err != nil {
		slog.Error("recent events", "error", err)
		http.Error(w, "event query failed", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []world.Event{}
	}
	writeJSON(w, events)
}

// handleStream upgrades to a websocket and pushes one JSON turn summary per
// completed turn until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := s.streamConns.Add(1)
	defer s.streamConns.Add(-1)
	if current > maxStreamConns {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch, unsubscribe := s.Eng.Subscribe(16)
	defer unsubscribe()
	slog.Info("stream client connected", "remote", r.RemoteAddr)

	// Reader: only control frames and close are expected.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case sum, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(sum); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-gone:
			slog.Info("stream client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Turns int `json:"turns"`
	}{Turns: 1}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}
	if req.Turns < 1 || req.Turns > maxStepTurns {
		http.Error(w, fmt.Sprintf("turns must be 1-%d", maxStepTurns), http.StatusBadRequest)
		return
	}

	var last engine.Summary
	for i := 0; i < req.Turns; i++ {
		sum, err := s.Eng.Step(r.Context())
		if err != nil {
			slog.Error("step failed", "error", err)
			http.Error(w, "step failed", http.StatusInternalServerError)
			return
		}
		last = sum
	}
	slog.Info("admin step", "turns", req.Turns, "turn", last.Turn)
	writeJSON(w, last)
}

func (s *Server) handleSteer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
		Ability   *bool  `json:"ability"` // nil leaves the ability as it is
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	dir, ok := world.ParseDirection(req.Direction)
	if !ok {
		http.Error(w, "direction must be one of self, up, right, down, left", http.StatusBadRequest)
		return
	}

	found, armed := false, false
	s.Eng.Do(func(wd *world.World) error {
		if found = wd.Steer(dir); !found {
			return nil
		}
		if req.Ability != nil && !wd.ArmAbility(*req.Ability) {
			return nil
		}
		if p, ok := wd.Player(); ok && p.Ability != nil {
			armed = p.Ability.Armed
		}
		return nil
	})
	if !found {
		http.Error(w, "no player in the world", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]any{"status": "ok", "direction": dir.String(), "armed": armed})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.SnapshotDir == "" {
		http.Error(w, "snapshots disabled", http.StatusForbidden)
		return
	}
	st, err := s.Eng.State()
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	path := snapshot.Path(s.SnapshotDir, st.ID, st.Turn)
	if err := snapshot.Write(path, st); err != nil {
		slog.Error("snapshot failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	slog.Info("snapshot written", "path", path, "turn", st.Turn)
	writeJSON(w, map[string]any{"path": path, "turn": st.Turn})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
