// Package relay serves the summary endpoint straight from EVM JSON-RPC
// nodes, so the viewer can run without a full explorer backend.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const maxRequestBody = 1 << 16

// Server is the relay HTTP server.
type Server struct {
	nodes    *Nodes
	metrics  *Metrics
	registry *prometheus.Registry
	router   *chi.Mux
	logger   zerolog.Logger
}

// NewServer builds a relay over rpcURLs with its own metrics registry.
func NewServer(rpcURLs []string, callTimeout time.Duration, logger zerolog.Logger) *Server {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	s := &Server{
		nodes:    NewNodes(rpcURLs, callTimeout, metrics, logger),
		metrics:  metrics,
		registry: registry,
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/web3relay", s.handleRelay)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.router = r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("listen", addr).Msg("relay listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type relayRequest struct {
	Addr      string   `json:"addr"`
	Options   []string `json:"options"`
	AddrTrace string   `json:"addr_trace"`
}

func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	const endpoint = "web3relay"
	timer := s.metrics.RequestTimer(endpoint)
	defer timer.ObserveDuration()

	var req relayRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.fail(w, endpoint, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	switch {
	case req.AddrTrace != "":
		if !common.IsHexAddress(req.AddrTrace) {
			s.fail(w, endpoint, http.StatusBadRequest, "bad_request", "invalid address")
			return
		}
		traces, err := s.nodes.Traces(r.Context(), common.HexToAddress(req.AddrTrace))
		if err != nil {
			s.upstreamError(w, endpoint, err)
			return
		}
		if traces == nil {
			traces = []json.RawMessage{}
		}
		s.reply(w, endpoint, traces)
	case req.Addr != "":
		if !common.IsHexAddress(req.Addr) {
			s.fail(w, endpoint, http.StatusBadRequest, "bad_request", "invalid address")
			return
		}
		summary, err := s.nodes.Summary(r.Context(), common.HexToAddress(req.Addr), req.Options)
		if err != nil {
			s.upstreamError(w, endpoint, err)
			return
		}
		s.reply(w, endpoint, summary)
	default:
		s.fail(w, endpoint, http.StatusBadRequest, "bad_request", "addr or addr_trace is required")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) reply(w http.ResponseWriter, endpoint string, body interface{}) {
	s.metrics.RequestCounter(endpoint, "200", "ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) upstreamError(w http.ResponseWriter, endpoint string, err error) {
	s.logger.Error().Err(err).Str("endpoint", endpoint).Msg("upstream failure")
	if errors.Is(err, ErrNoNodes) {
		s.fail(w, endpoint, http.StatusServiceUnavailable, "no_nodes", err.Error())
		return
	}
	s.fail(w, endpoint, http.StatusBadGateway, "upstream", "upstream nodes unavailable")
}

func (s *Server) fail(w http.ResponseWriter, endpoint string, status int, cause, msg string) {
	s.metrics.RequestCounter(endpoint, strconv.Itoa(status), cause).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
