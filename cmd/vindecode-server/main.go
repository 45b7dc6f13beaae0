// Command vindecode-server exposes the decoder over HTTP: a single
// POST /decode endpoint, rate-limited per spec.md §8's "embeddable as a
// library or run as a thin service" guidance, wired to the same
// structured logging, metrics, and tracing the library uses internally.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	vindecoder "autolytiq/vindecoder"
	"autolytiq/vindecoder/internal/catalogdata"
	"autolytiq/vindecoder/internal/catalogstore"
	"autolytiq/vindecoder/internal/obslog"
	"autolytiq/vindecoder/internal/obsmetrics"
	"autolytiq/vindecoder/internal/vconfig"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Server wraps the decoder and HTTP router, mirroring the Autolytiq
// services' Server shape: a router plus whatever backs it, with
// middleware layered on in setupMiddleware.
type Server struct {
	decoder *vindecoder.Decoder
	router  *mux.Router
	logger  *obslog.Logger
	limiter *rate.Limiter
}

// NewServer builds a Server around an already-constructed Decoder.
func NewServer(decoder *vindecoder.Decoder, logger *obslog.Logger, limiter *rate.Limiter) *Server {
	s := &Server{
		decoder: decoder,
		router:  mux.NewRouter(),
		logger:  logger,
		limiter: limiter,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.rateLimitMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/decode", s.handleDecode).Methods(http.MethodPost)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(map[string]interface{}{
			"method":    r.Method,
			"path":      r.URL.Path,
			"elapsedMs": time.Since(start).Milliseconds(),
		}).Info("request handled")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// decodeRequest is the POST /decode body.
type decodeRequest struct {
	VIN               string `json:"vin"`
	ModelYearOverride *int   `json:"modelYearOverride,omitempty"`
	AssumedMakeID     *int64 `json:"assumedMakeId,omitempty"`
	IncludePatterns   bool   `json:"includePatterns,omitempty"`
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VIN == "" {
		respondError(w, http.StatusBadRequest, "vin is required")
		return
	}

	result, err := s.decoder.Decode(r.Context(), req.VIN, vindecoder.DecodeOptions{
		ModelYearOverride: req.ModelYearOverride,
		AssumedMakeID:     req.AssumedMakeID,
		IncludePatterns:   req.IncludePatterns,
	})
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("decode failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func main() {
	cfg, err := vconfig.Load(os.Getenv("VINDECODER_CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logger := obslog.New(obslog.Config{
		Component:   "vindecode-server",
		Level:       obslog.Level(cfg.Log.Level),
		PrettyPrint: cfg.Log.PrettyPrint,
	})

	var store catalogstore.Store
	if cfg.Catalog.Backend == "postgres" {
		store, err = catalogstore.NewSQLStore(cfg.Catalog.DatabaseURL, logger)
	} else {
		store, err = catalogdata.NewDefaultStore(true)
	}
	if err != nil {
		logger.WithError(err).Error("catalog init failed")
		os.Exit(1)
	}
	defer store.Close()

	metrics := obsmetrics.New(obsmetrics.Config{Namespace: "vindecoder"})

	decoder, err := vindecoder.New(vindecoder.Config{
		Store:           store,
		Logger:          logger,
		Metrics:         metrics,
		DefaultTimeout:  cfg.Decode.Timeout,
		FutureYearGuard: cfg.Decode.FutureYearGuard,
		PreferOfficial:  cfg.Decode.PreferOfficial,
	})
	if err != nil {
		logger.WithError(err).Error("decoder init failed")
		os.Exit(1)
	}
	defer decoder.Close()

	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 20)
	server := NewServer(decoder, logger, limiter)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := fmt.Sprintf(":%s", port)
	logger.WithFields(map[string]interface{}{"addr": addr}).Info("vindecode-server listening")

	if err := http.ListenAndServe(addr, server.router); err != nil {
		logger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}
