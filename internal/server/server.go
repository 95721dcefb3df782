// Package server exposes the desk over a local-only JSON API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradelock/desk"
	"github.com/rustyeddy/tradelock/journal"
	"github.com/rustyeddy/tradelock/metrics"
)

// Commentator is the AI side used by the /ai endpoints.
type Commentator interface {
	IsConfigured() bool
	Reaction(ctx context.Context, kind journal.TradeType, amount decimal.Decimal, reason string) string
	DailySummary(ctx context.Context, trades []journal.TradeEntry, net decimal.Decimal) string
	PopUp(trades []journal.TradeEntry, dayTotal decimal.Decimal, lossCount int) string
	Quote() string
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// RequestTimeout bounds each handler, AI calls included.
	RequestTimeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:           "127.0.0.1", // Local-only by default
		Port:           8420,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   2 * time.Minute,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 90 * time.Second,
	}
}

type Deps struct {
	Desk    *desk.Desk
	AI      Commentator
	Feed    *desk.Feed
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// Server represents the local HTTP server
type Server struct {
	router  *mux.Router
	server  *http.Server
	desk    *desk.Desk
	ai      Commentator
	feed    *desk.Feed
	metrics *metrics.Metrics
	log     zerolog.Logger
	config  Config
}

func New(config Config, deps Deps) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		desk:    deps.Desk,
		ai:      deps.AI,
		feed:    deps.Feed,
		metrics: deps.Metrics,
		log:     deps.Logger,
		config:  config,
	}
	if s.feed == nil {
		s.feed = desk.NewFeed(0)
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.Address(),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// Handler is the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.recoverMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.timeoutMiddleware)
	s.router.Use(s.corsMiddleware)

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	s.router.HandleFunc("/report", s.Report).Methods(http.MethodGet)
	s.router.HandleFunc("/export.csv", s.ExportCSV).Methods(http.MethodGet)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)

	api.HandleFunc("/health", s.Health).Methods(http.MethodGet)
	api.HandleFunc("/today", s.Today).Methods(http.MethodGet)

	api.HandleFunc("/trades", s.AddTrade).Methods(http.MethodPost)
	api.HandleFunc("/trades/{week:[0-9]+}/{day:[0-9]+}/{row:[0-9]+}", s.SetField).Methods(http.MethodPatch)
	api.HandleFunc("/trades/{week:[0-9]+}/{day:[0-9]+}/{row:[0-9]+}", s.DeleteTrade).Methods(http.MethodDelete)
	api.HandleFunc("/trades/{week:[0-9]+}/{day:[0-9]+}/{row:[0-9]+}/loss", s.RequestLoss).Methods(http.MethodPost)

	api.HandleFunc("/loss", s.PendingLoss).Methods(http.MethodGet)
	api.HandleFunc("/loss", s.CancelLoss).Methods(http.MethodDelete)
	api.HandleFunc("/loss/confirm", s.ConfirmLoss).Methods(http.MethodPost)

	api.HandleFunc("/pledge", s.Pledge).Methods(http.MethodGet)
	api.HandleFunc("/pledge", s.SubmitPledge).Methods(http.MethodPost)

	api.HandleFunc("/stats", s.Stats).Methods(http.MethodGet)
	api.HandleFunc("/history", s.History).Methods(http.MethodGet)

	api.HandleFunc("/notes", s.Notes).Methods(http.MethodGet)
	api.HandleFunc("/notes", s.AddNote).Methods(http.MethodPost)
	api.HandleFunc("/notes/{id}", s.DeleteNote).Methods(http.MethodDelete)

	api.HandleFunc("/regret", s.Regret).Methods(http.MethodGet)
	api.HandleFunc("/regret/refresh", s.RefreshRegret).Methods(http.MethodPost)

	api.HandleFunc("/ai/reaction", s.Reaction).Methods(http.MethodPost)
	api.HandleFunc("/ai/summary", s.Summary).Methods(http.MethodGet)
	api.HandleFunc("/ai/popup", s.PopUp).Methods(http.MethodGet)
	api.HandleFunc("/ai/quote", s.Quote).Methods(http.MethodGet)

	api.HandleFunc("/settings/api-key", s.SetAPIKey).Methods(http.MethodPut)
	api.HandleFunc("/notices", s.Notices).Methods(http.MethodGet)
	api.HandleFunc("/reset", s.Reset).Methods(http.MethodPost)

	s.router.NotFoundHandler = http.HandlerFunc(s.NotFound)
}

type ctxKey int

const requestIDKey ctxKey = iota

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return "unknown"
}

// requestIDMiddleware adds unique request ID to each request and a logger
// carrying it
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		ctx = s.log.With().Str("request_id", id).Logger().WithContext(ctx)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				zerolog.Ctx(r.Context()).Error().Interface("panic", v).Str("path", r.URL.Path).Msg("handler panic")
				writeError(w, r, http.StatusInternalServerError, "internal_error", "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestLoggingMiddleware logs all requests with structured format
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Capture response status
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.HTTPRequest(r.Method, route, wrapper.statusCode, duration)

		zerolog.Ctx(r.Context()).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("request")
	})
}

// timeoutMiddleware enforces request timeouts
func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.RequestTimeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsMiddleware adds CORS headers for a local front end
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only allow localhost origins
		origin := r.Header.Get("Origin")
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// jsonContentTypeMiddleware sets JSON content type for API responses
func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Address())
	if err != nil {
		return fmt.Errorf("port %d is busy or unavailable: %w", s.config.Port, err)
	}
	s.log.Info().Str("addr", s.Address()).Msg("starting HTTP server (local-only)")

	errc := make(chan error, 1)
	go func() { errc <- s.server.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Address returns the server address
func (s *Server) Address() string {
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

// responseWrapper captures HTTP status codes for logging
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
