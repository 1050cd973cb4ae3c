package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nao1215/removalscan/internal/metrics"
	"github.com/nao1215/removalscan/internal/model"
)

// APIVersion is reported in the metadata of list responses.
const APIVersion = "1.0"

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Reader is the read side of the store.
type Reader interface {
	Load(ctx context.Context) ([]model.Record, error)
	ModTime() (time.Time, bool, error)
}

// Server handles API requests.
type Server struct {
	reader  Reader
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics enables request counting and the /metrics route.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a Server reading from reader.
func New(reader Reader, opts ...Option) *Server {
	s := &Server{reader: reader}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1/removals", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/summary", s.handleSummary)
		r.Get("/country/{country}", s.handleCountry)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("api shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

type listMetadata struct {
	TotalEntries int      `json:"total_entries"`
	LastUpdated  *float64 `json:"last_updated"`
	Version      string   `json:"version"`
}

type listResponse struct {
	Metadata listMetadata   `json:"metadata"`
	Data     []model.Record `json:"data"`
}

type summaryResponse struct {
	TotalRemovals        int            `json:"total_removals"`
	TotalPeople          int            `json:"total_people"`
	Destinations         int            `json:"destinations"`
	ByDestinationCountry map[string]int `json:"by_destination_country"`
	OngoingPrograms      int            `json:"ongoing_programs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, ok := s.load(w, r)
	if !ok {
		return
	}

	meta := listMetadata{TotalEntries: len(records), Version: APIVersion}
	mt, exists, err := s.reader.ModTime()
	if err != nil {
		s.logger.Warn("failed to stat store", "error", err)
	} else if exists {
		secs := float64(mt.UnixNano()) / float64(time.Second)
		meta.LastUpdated = &secs
	}

	s.writeJSON(w, http.StatusOK, listResponse{Metadata: meta, Data: records})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	records, ok := s.load(w, r)
	if !ok {
		return
	}

	summary := model.Summarize(records)
	resp := summaryResponse{
		TotalRemovals:        summary.TotalEvents,
		TotalPeople:          summary.TotalPeople,
		Destinations:         summary.Destinations,
		ByDestinationCountry: make(map[string]int, len(summary.ByCountry)),
		OngoingPrograms:      summary.Ongoing,
	}
	for _, c := range summary.ByCountry {
		resp.ByDestinationCountry[c.Country] = c.People
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCountry(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	records, ok := s.load(w, r)
	if !ok {
		return
	}

	matched := make([]model.Record, 0)
	for _, rec := range records {
		if strings.EqualFold(rec.DestinationCountry, country) {
			matched = append(matched, rec)
		}
	}
	s.writeJSON(w, http.StatusOK, matched)
}

// load reads the store, writing a 500 response on failure.
func (s *Server) load(w http.ResponseWriter, r *http.Request) ([]model.Record, bool) {
	records, err := s.reader.Load(r.Context())
	if err != nil {
		s.logger.Error("failed to load store", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "dataset unavailable"})
		return nil, false
	}
	return records, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

// countRequests records each request by route pattern and status.
func (s *Server) countRequests(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.IncrementRequest(route, status)
	})
}
