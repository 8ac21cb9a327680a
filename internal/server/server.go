// Package server exposes the route planner over HTTP: a planning endpoint,
// health and reload endpoints, and Prometheus metrics.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"field-planner/internal/crops"
	"field-planner/internal/geometry"
	"field-planner/internal/planner"
)

// Config wires the server's collaborators.
type Config struct {
	// Oracle answers fruit queries for every planning request.
	Oracle planner.FruitOracle

	// Crops backs /health statistics and /reload. Optional; nil when the
	// oracle is not a crop map.
	Crops *crops.Map

	// Reload re-reads the crop source. Optional; enables POST /reload.
	Reload func() ([]crops.Patch, error)

	// DefaultWidth is the implement width used when a request does not
	// carry its own.
	DefaultWidth float64
}

// Server plans field routes for HTTP clients.
type Server struct {
	cfg     Config
	planner *planner.Planner
	mux     *http.ServeMux
}

// New builds a server with all endpoints registered.
func New(cfg Config) *Server {
	s := &Server{
		cfg:     cfg,
		planner: planner.New(cfg.Oracle, planner.WithStatsHook(observeStats)),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/route", corsMiddleware(s.routeHandler))
	mux.HandleFunc("/health", corsMiddleware(s.healthHandler))
	mux.HandleFunc("/reload", corsMiddleware(s.reloadHandler))
	mux.Handle("/metrics", promhttp.Handler())
	s.mux = mux
	return s
}

// Handler returns the root handler serving all endpoints.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// RouteRequest is the planning request body for POST /route. Coordinates are
// world coordinates in field units.
type RouteRequest struct {
	Start        geometry.Point   `json:"start"`
	End          geometry.Point   `json:"end"`
	Field        geometry.Polygon `json:"field"`
	Width        float64          `json:"width,omitempty"`
	IncludeGraph bool             `json:"includeGraph,omitempty"`
}

// RouteResponse is the planning result returned to the client.
type RouteResponse struct {
	Success   bool             `json:"success"`
	RequestID string           `json:"requestId"`
	Path      []geometry.Point `json:"path,omitempty"`
	Length    float64          `json:"length,omitempty"`
	Message   string           `json:"message,omitempty"`
	Graph     *GraphDump       `json:"graph,omitempty"`
}

// GraphDump is a wire snapshot of the planning graph, with link segments in
// world coordinates.
type GraphDump struct {
	Nodes int                `json:"nodes"`
	Cols  int                `json:"cols"`
	Links [][]geometry.Point `json:"links"`
}

// corsMiddleware adds CORS headers so browser clients can call the API.
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) routeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	started := time.Now()
	requestID := uuid.NewString()

	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [%s] Invalid request body: %v", requestID, err)
		routeRequests.WithLabelValues("invalid").Inc()
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	width := req.Width
	if width == 0 {
		width = s.cfg.DefaultWidth
	}

	log.Printf("========================================")
	log.Printf("📍 [%s] Route request: (%.1f, %.1f) -> (%.1f, %.1f), width %.1f",
		requestID, req.Start.X, req.Start.Y, req.End.X, req.End.Y, width)

	path, graph, err := s.planner.FindPath(req.Start, req.End, req.Field, width)
	routeDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		log.Printf("❌ [%s] Rejected: %v", requestID, err)
		routeRequests.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, RouteResponse{
			RequestID: requestID,
			Message:   err.Error(),
		})
		return
	}

	resp := RouteResponse{RequestID: requestID}
	if req.IncludeGraph && graph != nil {
		resp.Graph = dumpGraph(graph)
	}

	if path == nil {
		routeRequests.WithLabelValues("no_path").Inc()
		resp.Message = "no feasible route between start and end"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	routeRequests.WithLabelValues("found").Inc()
	resp.Success = true
	resp.Path = path
	resp.Length = geometry.Length(path)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":       "ready",
		"defaultWidth": s.cfg.DefaultWidth,
	}
	if s.cfg.Crops != nil {
		patches, area := s.cfg.Crops.Stats()
		health["patches"] = patches
		health["cropArea"] = area
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.cfg.Reload == nil || s.cfg.Crops == nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "no reloadable crop source configured",
		})
		return
	}

	log.Printf("🔄 Reload requested")
	patches, err := s.cfg.Reload()
	if err != nil {
		log.Printf("❌ Reload failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": fmt.Sprintf("reload failed: %v", err),
		})
		return
	}

	s.cfg.Crops.Replace(patches)
	count, area := s.cfg.Crops.Stats()
	log.Printf("   ✅ Crop map reloaded: %d patches", count)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"patches":  count,
		"cropArea": area,
	})
}

func dumpGraph(g *planner.Graph) *GraphDump {
	segments := g.LineStrings()
	for i := range segments {
		segments[i] = geometry.ToWorldPath(segments[i])
	}
	return &GraphDump{Nodes: len(g.Nodes), Cols: g.Cols, Links: segments}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️  Failed to encode response: %v", err)
	}
}
