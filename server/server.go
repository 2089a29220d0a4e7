// Package server serves a live HTML preview of a wiki.
// Every GET / re-runs the conversion so edits to the Markdown files show
// up on reload. Downloaded images are kept for the lifetime of the server.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gaurav-prasanna/wikipipe/config"
	"github.com/gaurav-prasanna/wikipipe/core"
	"github.com/gaurav-prasanna/wikipipe/core/fetch"
	"github.com/gaurav-prasanna/wikipipe/core/output"
	"github.com/gaurav-prasanna/wikipipe/core/render"
	"github.com/gaurav-prasanna/wikipipe/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP preview server.
type Server struct {
	router      chi.Router
	cfg         *config.Config
	contentRoot string
	assetDir    string
	fetcher     core.Fetcher
	log         *slog.Logger
}

// NewServer creates a Server for the wiki under contentRoot. Downloaded
// images are kept in assetDir and served from /img/. A nil fetcher selects
// an HTTP fetcher with the configured timeout.
func NewServer(cfg *config.Config, contentRoot, assetDir string, fetcher core.Fetcher, log *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if fetcher == nil {
		fetcher = fetch.New(cfg.FetchTimeout)
	}
	s := &Server{
		cfg:         cfg,
		contentRoot: contentRoot,
		assetDir:    assetDir,
		fetcher:     &sharedFetcher{next: fetcher, done: make(map[string]*core.FetchResult)},
		log:         log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleWiki)

	img := http.Dir(filepath.Join(s.assetDir, output.AssetDir))
	r.Handle("/"+output.AssetDir+"/*", http.StripPrefix("/"+output.AssetDir+"/", http.FileServer(img)))
	// Local images referenced relative to the content root.
	r.Handle("/*", http.FileServer(http.Dir(s.contentRoot)))

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleWiki(w http.ResponseWriter, r *http.Request) {
	job := pipeline.Job{
		Config:      s.cfg,
		ContentRoot: s.contentRoot,
		AssetDir:    s.assetDir,
		DocumentDir: s.contentRoot,
		Fetcher:     s.fetcher,
	}
	res, err := pipeline.Run(r.Context(), job, render.NewHTMLRenderer(), s.log)
	if err != nil {
		s.log.Error("conversion failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrPageNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(res.Document)
}

// sharedFetcher keeps successful downloads across requests. Failures are
// not kept, so a broken image is tried again on the next reload.
type sharedFetcher struct {
	next core.Fetcher

	mu   sync.Mutex
	done map[string]*core.FetchResult
}

func (f *sharedFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	f.mu.Lock()
	res, ok := f.done[url]
	f.mu.Unlock()
	if ok {
		return res, nil
	}

	res, err := f.next.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.done[url] = res
	f.mu.Unlock()
	return res, nil
}

// RequestLogger logs each request with method, path, status and duration.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"request_id", middleware.GetReqID(r.Context()),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
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
