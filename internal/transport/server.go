// Package transport serves the classifier over HTTP: the calculate endpoint,
// per-client history, the region image, metrics and the live record feed.
package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/danielpatrickdp/regioncheck/internal/config"
	"github.com/danielpatrickdp/regioncheck/internal/logging"
	"github.com/danielpatrickdp/regioncheck/internal/metrics"
	"github.com/danielpatrickdp/regioncheck/internal/orchestrator"
	"github.com/danielpatrickdp/regioncheck/internal/render"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// #region server

// Server is the HTTP front end.
type Server struct {
	cfg        config.ServerConfig
	orch       *orchestrator.Orchestrator
	hub        *Hub
	renderer   *render.Renderer
	logger     zerolog.Logger
	now        func() time.Time
	httpServer *http.Server
}

// NewServer wires the handlers. hub may be nil, which disables /ws.
func NewServer(cfg config.ServerConfig, orch *orchestrator.Orchestrator, hub *Hub, renderer *render.Renderer, logger zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		orch:     orch,
		hub:      hub,
		renderer: renderer,
		logger:   logger.With().Str("component", "http").Logger(),
		now:      time.Now,
	}
}

// Handler returns the routed handler wrapped with access logging and CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/calculate", s.instrument("/calculate", s.handleCalculate))
	mux.HandleFunc("/history", s.instrument("/history", s.handleHistory))
	mux.HandleFunc("/region.png", s.instrument("/region.png", s.handleRegionPNG))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	if s.hub != nil {
		mux.HandleFunc("/ws", s.handleFeed)
	}
	return logging.Middleware(s.logger, corsMiddleware(mux))
}

// Start listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("http server listening")

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.logger.Info().Msg("http server shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// #endregion server

// #region middleware

// instrument counts requests per route and final status.
func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)
		metrics.RequestCount.WithLabelValues("http", route, strconv.Itoa(sw.status)).Inc()
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// #endregion middleware

// #region client-id

// clientID returns the caller's history scope, issuing a new cookie when the
// request carries none or a malformed one.
func (s *Server) clientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(ClientCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   365 * 24 * 60 * 60,
	})
	return id
}

// #endregion client-id
