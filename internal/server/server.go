// Package server exposes a read-only HTTP view of a feature repository:
// the declared sources and the metadata of the objects behind them.
// Credentials never appear in any response.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/featurerepo/internal/datasource"
	"github.com/koustreak/featurerepo/internal/errs"
	"github.com/koustreak/featurerepo/internal/logger"
	"github.com/koustreak/featurerepo/internal/objectstore"
)

const shutdownTimeout = 10 * time.Second

// Catalog is the part of repo.Repo the server reads from.
type Catalog interface {
	Sources() []*datasource.FileSource
	Source(name string) (*datasource.FileSource, bool)
	Stat(ctx context.Context, name string) (*objectstore.ObjectInfo, error)
}

// Server serves the inspection API.
type Server struct {
	catalog Catalog
	log     *logger.Logger
	router  chi.Router
}

// New builds the router. A nil log discards request logs.
func New(catalog Catalog, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{catalog: catalog, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/sources", func(r chi.Router) {
		r.Get("/", s.handleListSources)
		r.Get("/{name}", s.handleGetSource)
		r.Get("/{name}/object", s.handleStatObject)
	})

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("http server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.log.ErrorWith("http server stopped", err, map[string]interface{}{"addr": addr})
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("http server shutdown: %v", err)
		return err
	}
	return nil
}

type objectResponse struct {
	Source       string    `json:"source"`
	URI          string    `json:"uri"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources := s.catalog.Sources()
	out := make([]datasource.Summary, 0, len(sources))
	for _, src := range sources {
		out = append(out, src.Describe())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sources": out})
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	src, ok := s.catalog.Source(name)
	if !ok {
		writeError(w, errs.Field(errs.ErrKindNotFound, "name", "no data source named "+name))
		return
	}
	writeJSON(w, http.StatusOK, src.Describe())
}

func (s *Server) handleStatObject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	info, err := s.catalog.Stat(r.Context(), name)
	if err != nil {
		log := logger.FromContext(r.Context()).ForSource(name)
		if statusFor(err) >= http.StatusInternalServerError {
			log.ErrorWith("stat failed", err, map[string]interface{}{"kind": errs.KindOf(err).String()})
		} else {
			log.With().Err(err).Logger().Warn("stat failed")
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, objectResponse{
		Source:       name,
		URI:          info.URI.String(),
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified.UTC(),
	})
}

// statusFor maps an error kind to the HTTP status returned to clients.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{
		Error: err.Error(),
		Kind:  errs.KindOf(err).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request and stores a logger tagged with
// the request ID on the request context for handlers to pick up.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			reqLog := log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			r = r.WithContext(reqLog.WithContext(r.Context()))

			defer func() {
				reqLog.HTTPEvent().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("http request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
