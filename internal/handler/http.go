package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geocode"
	"github.com/ugaemi/jetlagged-server/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// HTTP serves the REST endpoints and the WebSocket upgrade.
type HTTP struct {
	searcher Searcher
	hub      *ws.Hub
	checks   map[string]Checker
}

func NewHTTP(searcher Searcher, hub *ws.Hub, checks map[string]Checker) *HTTP {
	return &HTTP{searcher: searcher, hub: hub, checks: checks}
}

func (h *HTTP) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(searchTimeout))
		r.Get("/search", h.handleSearch)
		r.Get("/popular", h.handlePopular)
	})
	r.Get("/ws", h.handleWebSocket)
	return r
}

func (h *HTTP) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	results := map[string]string{"status": "ok"}
	status := http.StatusOK
	for name, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			slog.Error("health check failed", "name", name, "error", err)
			results[name] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	if status != http.StatusOK {
		results["status"] = "degraded"
	}
	writeJSON(w, status, results)
}

func (h *HTTP) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusOK, searchResultsMessage{Query: query, Results: []game.Address{}})
		return
	}

	results, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		slog.Warn("location search failed", "query", query, "error", err)
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}
	if results == nil {
		results = []game.Address{}
	}
	writeJSON(w, http.StatusOK, searchResultsMessage{Query: query, Results: results})
}

func (h *HTTP) handlePopular(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, popularLocationsMessage{Locations: geocode.PopularLocations()})
}

func (h *HTTP) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
