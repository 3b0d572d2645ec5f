package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"convergedash/internal/format"
	"convergedash/internal/logging"
	"convergedash/internal/models"
	"convergedash/internal/render"
)

//go:embed static/*
var embeddedStatic embed.FS

// Options describes what the dashboard page shows besides the indicator.
type Options struct {
	HealthEndpoint string
	PollInterval   time.Duration
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Server wraps HTTP serving of the dashboard page, indicator API and static assets.
type Server struct {
	httpServer *http.Server
	page       *render.Page
	staticFS   fs.FS
	index      *template.Template
	opts       Options
	startedAt  time.Time
	log        *logrus.Entry
}

// New creates a configured HTTP server for the dashboard.
func New(addr string, page *render.Page, opts Options) *Server {
	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		panic("static assets missing: " + err.Error())
	}
	index := template.Must(template.New("index.html").Funcs(format.FuncMap()).ParseFS(staticFS, "index.html"))

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		page:       page,
		staticFS:   staticFS,
		index:      index,
		opts:       opts,
		startedAt:  time.Now(),
		log:        logging.WithComponent("server"),
	}
	s.registerRoutes(mux)
	return s
}

// Handler exposes the routing table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	fileServer := http.FileServer(http.FS(s.staticFS))

	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.Handle("/favicon.ico", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("/api/indicator", s.handleIndicator)
	mux.HandleFunc("/ws/indicator", s.handleIndicatorWS)
	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics)
	}
}

type indexData struct {
	IndicatorID    string
	Indicator      template.HTML
	UpdatedAt      *time.Time
	HealthEndpoint string
	PollSeconds    float64
	StartedAt      time.Time
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := indexData{
		IndicatorID:    models.IndicatorID,
		HealthEndpoint: s.opts.HealthEndpoint,
		PollSeconds:    s.opts.PollInterval.Seconds(),
		StartedAt:      s.startedAt,
	}
	if snap, ok := s.page.Snapshot(models.IndicatorID); ok {
		// markup comes from models.Presentation, which escapes its parts
		data.Indicator = template.HTML(snap.HTML)
		if !snap.UpdatedAt.IsZero() {
			updated := snap.UpdatedAt.Local()
			data.UpdatedAt = &updated
		}
	}

	var buf bytes.Buffer
	if err := s.index.Execute(&buf, data); err != nil {
		s.log.WithError(err).Error("render index")
		http.Error(w, "index unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleIndicator(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.page.Snapshot(models.IndicatorID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "indicator not present"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
