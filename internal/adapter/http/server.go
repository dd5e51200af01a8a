package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sidetalker/rental-registry/internal/adapter/sqlite"
	"github.com/Sidetalker/rental-registry/internal/geo"
	"github.com/Sidetalker/rental-registry/internal/renewal"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ListingStore serves the stored listing collection.
type ListingStore interface {
	Listings(ctx context.Context) ([]sqlite.StoredListing, error)
	CategoryCounts(ctx context.Context) (map[string]int, error)
}

// Server exposes health, readiness, metrics, and listing query endpoints.
type Server struct {
	httpServer *http.Server
	store      ListingStore
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /listings, and /renewals/summary routes.
func NewServer(addr string, ready ReadinessChecker, store ListingStore, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:  store,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /listings", s.handleListings)
	mux.HandleFunc("GET /renewals/summary", s.handleRenewalSummary)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleListings returns stored listings, optionally filtered by search
// regions passed as a JSON array in the "regions" query parameter. An empty
// or absent region list matches everything; listings without coordinates are
// excluded only when regions are given.
func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.store.Listings(r.Context())
	if err != nil {
		s.logger.Error("list listings", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage unavailable"})
		return
	}

	if raw := r.URL.Query().Get("regions"); raw != "" {
		if !json.Valid([]byte(raw)) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid regions parameter"})
			return
		}
		regions := geo.ParseRegions([]byte(raw))
		listings = geo.FilterByRegions(listings, regions, listingLocation)
	}

	if category := r.URL.Query().Get("category"); category != "" {
		filtered := listings[:0]
		for _, listing := range listings {
			if recomputeCategory(listing) == renewal.Category(category) {
				filtered = append(filtered, listing)
			}
		}
		listings = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(listings),
		"listings": listings,
	})
}

// handleRenewalSummary reports listing counts per renewal category,
// recomputed against today so stored categories never go stale.
func (s *Server) handleRenewalSummary(w http.ResponseWriter, r *http.Request) {
	listings, err := s.store.Listings(r.Context())
	if err != nil {
		s.logger.Error("summarize renewals", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage unavailable"})
		return
	}

	counts := make(map[string]int)
	for _, listing := range listings {
		counts[string(recomputeCategory(listing))]++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":      len(listings),
		"categories": counts,
	})
}

// recomputeCategory re-evaluates the due-date bucket from the stored
// renewal date rather than trusting the category written at sync time.
func recomputeCategory(listing sqlite.StoredListing) renewal.Category {
	if listing.Renewal.Estimate == nil {
		return renewal.CategoryMissing
	}
	est := listing.Renewal.Estimate
	return renewal.CategoriseDate(est.Date, est.Method, time.Time{}).Category
}

func listingLocation(listing sqlite.StoredListing) (geo.Point, bool) {
	rec := listing.Record
	if rec.Latitude == nil || rec.Longitude == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *rec.Latitude, Lng: *rec.Longitude}, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
