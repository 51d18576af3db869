// Package api provides the HTTP API for observing the colony.
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
	"strconv"
	"strings"
	"time"

	"github.com/talgya/red-sands/internal/engine"
	"github.com/talgya/red-sands/internal/persistence"
	"github.com/talgya/red-sands/internal/units"
)

// Server serves the colony state over HTTP.
type Server struct {
	Sim         *engine.Simulation
	Eng         *engine.Engine
	DB          *persistence.DB // Optional; journal endpoints return 503 without it
	Port        int
	AdminKey    string   // Bearer token for POST endpoints. Empty = POST disabled.
	CORSOrigins []string // Extra allowed origins beyond localhost dev servers

	// Requests per minute allowed on the intervention endpoint, per IP.
	InterventionRate int
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	rate := s.InterventionRate
	if rate <= 0 {
		rate = 30
	}
	interventionLimiter := NewRateLimiter(rate, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/settlements", s.handleSettlements)
	mux.HandleFunc("GET /api/v1/settlement/{id}", s.handleSettlementDetail)
	mux.HandleFunc("GET /api/v1/vehicles", s.handleVehicles)
	mux.HandleFunc("GET /api/v1/vehicle/{id}", s.handleVehicleDetail)
	mux.HandleFunc("GET /api/v1/persons", s.handlePersons)
	mux.HandleFunc("GET /api/v1/person/{id}", s.handlePersonDetail)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/events/history", s.handleEventHistory)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	mux.HandleFunc("GET /api/v1/stats/history", s.handleStatsHistory)

	// Admin endpoints.
	mux.HandleFunc("GET /api/v1/speed", s.handleSpeed)
	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("POST /api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("POST /api/v1/intervention", s.adminOnly(RateLimitMiddleware(interventionLimiter, s.handleIntervention)))

	return corsMiddleware(s.CORSOrigins, mux)
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "")

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("HTTP API shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(extra []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range extra {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins[origin] = true
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
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
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

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"name":    "Red Sands",
		"status":  s.Sim.Status(),
		"speed":   s.Eng.Speed(),
		"running": s.Eng.Running(),
	})
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	type settlementSummary struct {
		ID         units.SettlementID `json:"id"`
		Name       string             `json:"name"`
		Population int                `json:"population"`
		Capacity   int                `json:"capacity"`
		Parked     int                `json:"parked_vehicles"`
		FoodStock  float64            `json:"food_stock"`
	}

	setts := s.Sim.Settlements()
	result := make([]settlementSummary, 0, len(setts))
	for _, st := range setts {
		result = append(result, settlementSummary{
			ID:         st.ID,
			Name:       st.Name,
			Population: st.Population,
			Capacity:   st.Capacity,
			Parked:     len(st.ParkedVehicles),
			FoodStock:  st.FoodStock,
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleSettlementDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "settlement")
	if !ok {
		return
	}
	sett, found := s.Sim.Settlement(units.SettlementID(id))
	if !found {
		http.Error(w, "settlement not found", http.StatusNotFound)
		return
	}
	writeJSON(w, sett)
}

func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles := s.Sim.Vehicles()
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := make([]engine.VehicleView, 0, len(vehicles))
		for _, v := range vehicles {
			if strings.EqualFold(v.Status.String(), status) {
				filtered = append(filtered, v)
			}
		}
		vehicles = filtered
	}
	writeJSON(w, vehicles)
}

func (s *Server) handleVehicleDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "vehicle")
	if !ok {
		return
	}
	for _, v := range s.Sim.Vehicles() {
		if v.ID == units.VehicleID(id) {
			writeJSON(w, v)
			return
		}
	}
	http.Error(w, "vehicle not found", http.StatusNotFound)
}

func (s *Server) handlePersons(w http.ResponseWriter, r *http.Request) {
	persons := s.Sim.Persons()
	if settlement := r.URL.Query().Get("settlement"); settlement != "" {
		filtered := make([]engine.PersonView, 0, len(persons))
		for _, p := range persons {
			if p.Settlement == settlement {
				filtered = append(filtered, p)
			}
		}
		persons = filtered
	}
	writeJSON(w, persons)
}

func (s *Server) handlePersonDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "person")
	if !ok {
		return
	}
	p, found := s.Sim.Person(units.PersonID(id))
	if !found {
		http.Error(w, "person not found", http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 500)
	events := s.Sim.RecentEvents(limit, r.URL.Query().Get("category"))
	if events == nil {
		events = []engine.Event{}
	}
	writeJSON(w, events)
}

func (s *Server) handleEventHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	rows, err := s.DB.RecentEvents(queryLimit(r, 100, 1000), r.URL.Query().Get("category"))
	if err != nil {
		slog.Error("event history query failed", "error", err)
		http.Error(w, "event history unavailable", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []persistence.EventRecord{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Stats())
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	rows, err := s.DB.StatsHistory(queryLimit(r, 30, 1000))
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		writeJSON(w, []persistence.StatsRecord{})
		return
	}
	if rows == nil {
		rows = []persistence.StatsRecord{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > engine.MaxSpeed {
			http.Error(w, fmt.Sprintf("speed must be 0-%g", engine.MaxSpeed), http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	if err := s.DB.SaveRun(s.Sim); err != nil {
		slog.Error("journal flush failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"tick":    s.Sim.CurrentTick(),
		"message": "journal flushed",
	})
}

func (s *Server) handleIntervention(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type        string  `json:"type"`
		Description string  `json:"description,omitempty"`
		Settlement  string  `json:"settlement,omitempty"`
		Kilograms   float64 `json:"kg,omitempty"`
		PersonID    uint64  `json:"person_id,omitempty"`
		VehicleID   uint64  `json:"vehicle_id,omitempty"`
		Failure     string  `json:"failure,omitempty"`
		Hours       float64 `json:"hours,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var desc string
	var err error
	switch req.Type {
	case "event":
		if req.Description == "" {
			http.Error(w, "description required for event type", http.StatusBadRequest)
			return
		}
		s.Sim.EmitEvent(engine.CategoryIntervention, req.Description)
		desc = "event injected"

	case "provision":
		desc, err = s.Sim.ProvisionSettlement(req.Settlement, req.Kilograms)

	case "dispatch":
		desc, err = s.Sim.DispatchDrive(units.PersonID(req.PersonID), req.Settlement)

	case "breakdown":
		desc, err = s.Sim.InduceBreakdown(units.VehicleID(req.VehicleID), req.Failure, req.Hours)

	default:
		http.Error(w, "unknown intervention type (use: event, provision, dispatch, breakdown)", http.StatusBadRequest)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), interventionStatus(err))
		return
	}
	writeJSON(w, map[string]any{"success": true, "details": desc})
}

func interventionStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrPersonNotFound),
		errors.Is(err, engine.ErrVehicleNotFound),
		errors.Is(err, units.ErrUnknownSettlement):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrAlreadyBroken),
		errors.Is(err, engine.ErrNotInSettlement):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func pathID(w http.ResponseWriter, r *http.Request, kind string) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid "+kind+" id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func queryLimit(r *http.Request, def, maxLimit int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= maxLimit {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Warn("encode response", "error", err)
	}
}
