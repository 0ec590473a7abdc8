// ABOUTME: Web server for read-only share pages, the pipeline dashboard, and metrics
// ABOUTME: Share pages resolve tokens through the coordinator; /metrics serves Prometheus counters
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/models"
	"github.com/harperreed/pursuit/viz"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Server struct {
	coord     *engine.Coordinator
	templates *template.Template
	logger    *log.Logger
	gatherer  prometheus.Gatherer
	now       func() time.Time
}

// Options configures NewServer. A nil Gatherer serves the default registry.
type Options struct {
	Logger   *log.Logger
	Gatherer prometheus.Gatherer
	Now      func() time.Time
}

func NewServer(coord *engine.Coordinator, opts Options) (*Server, error) {
	// Helper functions for templates
	funcMap := template.FuncMap{
		"money": func(cents int64) string {
			return fmt.Sprintf("$%.2f", float64(cents)/100)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("2006-01-02")
		},
		"phaseClass": func(s models.PhaseStatus) string {
			return map[models.PhaseStatus]string{
				models.PhaseInProgress: "active",
				models.PhaseComplete:   "done",
				models.PhaseBlocked:    "blocked",
				models.PhaseSkipped:    "skipped",
			}[s]
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		coord:     coord,
		templates: tmpl,
		logger:    opts.Logger,
		gatherer:  opts.Gatherer,
		now:       opts.Now,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s, nil
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /share/{token}", s.handleShare)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	vms := s.coord.List()
	var open []*models.EngagementViewModel
	for _, vm := range vms {
		if !vm.IsArchived {
			open = append(open, vm)
		}
	}

	data := map[string]interface{}{
		"Title":           "Pipeline",
		"Stats":           viz.GenerateDashboardStats(vms, s.now()),
		"Engagements":     open,
		"ContentTemplate": "dashboard-content",
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	vm, err := s.coord.ResolveShareLink(r.Context(), token)
	if errors.Is(err, engine.ErrNotFound) {
		http.Error(w, "This link is invalid or has expired.", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("share link lookup failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title":           vm.Company,
		"Engagement":      vm,
		"Phases":          vm.PhaseList(),
		"ContentTemplate": "share-content",
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template render failed", "template", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
