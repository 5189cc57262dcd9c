package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mgpai22/lyricquiz/internal/catalog"
	"github.com/mgpai22/lyricquiz/internal/fetch"
	"github.com/mgpai22/lyricquiz/internal/logging"
	"github.com/mgpai22/lyricquiz/internal/quiz"
)

// upstream calls proxied by the API
type Upstream interface {
	AudioDescriptor(ctx context.Context, trackID string) (*fetch.DescriptorResponse, error)
	Resource(ctx context.Context, ref string) (*fetch.Resource, error)
}

type Server struct {
	repo     catalog.Repository
	policy   *quiz.Policy
	upstream Upstream
	logger   *logging.Logger
	router   chi.Router
}

func New(repo catalog.Repository, policy *quiz.Policy, upstream Upstream, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		repo:     repo,
		policy:   policy,
		upstream: upstream,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/round", s.getRound)
		r.Get("/fetch-audio", s.getFetchAudio)
		r.Get("/fetch-album-art", s.getFetchAlbumArt)
		r.Get("/lyrics", s.getLyrics)
		r.Get("/lyrics/line", s.getLyricLine)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Serving", "address", addr)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Infow("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debugw("Served request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) renderJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorw("Failed to encode response", "error", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, code int, reqErr error) {
	msg := http.StatusText(code)
	if reqErr != nil {
		s.logger.Warnw("Request failed", "status", code, "error", reqErr)
		msg = reqErr.Error()
	}
	s.renderJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
