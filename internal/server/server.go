// Package server exposes the dashboard, the choropleth and report downloads
// over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"complaint-insights-go/internal/config"
	"complaint-insights-go/internal/dataset"
	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/logger"
	"complaint-insights-go/internal/pipeline"
	"complaint-insights-go/internal/processor"
	"complaint-insights-go/internal/report"
	"complaint-insights-go/internal/theme"
	"complaint-insights-go/internal/types"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxUpload = 32 << 20

// Server holds the session table. Handlers work on a snapshot taken under the
// read lock, so an upload never changes a request already in flight.
type Server struct {
	cfg    *config.Config
	deps   pipeline.Deps
	geo    pipeline.Boundaries
	theme  theme.Theme
	router *chi.Mux

	mu      sync.RWMutex
	table   types.Table
	summary dataset.DatasetSummary
}

func New(cfg *config.Config, t types.Table, deps pipeline.Deps, geo pipeline.Boundaries) (*Server, error) {
	th, err := theme.ByName(cfg.Report.Theme)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		geo:     geo,
		theme:   th,
		router:  chi.NewRouter(),
		table:   t,
		summary: dataset.Summarize(t),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/filters", s.handleFilters)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/map", s.handleMap)
		r.Get("/report", s.handleReport)
		r.Post("/dataset", s.handleUpload)
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// snapshot returns the current table and its summary.
func (s *Server) snapshot() (types.Table, dataset.DatasetSummary) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table, s.summary
}

// Replace swaps the session table.
func (s *Server) Replace(t types.Table) dataset.DatasetSummary {
	sum := dataset.Summarize(t)
	s.mu.Lock()
	s.table, s.summary = t, sum
	s.mu.Unlock()
	return sum
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	logger.New().WithRequest(r).Debug("health check")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	t, sum := s.snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"options": dataset.FilterOptions(t),
		"summary": sum,
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "dashboard")
	cfg, err := s.reportConfig(r)
	if err != nil {
		writeError(w, err)
		return
	}
	t, _ := s.snapshot()
	d, err := pipeline.BuildDashboard(t, filtersFrom(r), cfg, s.deps)
	if err != nil {
		reqLog.WithError(err).Warn("dashboard unavailable")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "map")
	t, _ := s.snapshot()
	m, err := pipeline.BuildMap(r.Context(), t, filtersFrom(r), s.geo, s.theme)
	if err != nil {
		reqLog.WithError(err).Warn("map unavailable")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "report")
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}
	cfg, err := s.reportConfig(r)
	if err != nil {
		writeError(w, err)
		return
	}
	opts, err := report.OptionsFromConfig(cfg)
	if err != nil {
		writeError(w, err)
		return
	}

	t, _ := s.snapshot()
	var buf bytes.Buffer
	res, err := processor.GenerateReport(t, processor.Request{
		Filters:  filtersFrom(r),
		Format:   format,
		Options:  opts,
		LogoPath: s.cfg.Paths.Logo,
	}, &buf)
	if err != nil {
		reqLog.WithError(err).Warn("report failed")
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("X-Report-ID", res.Report.ID)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		reqLog.WithError(err).Error("failed to write report")
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "upload")
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, apperrors.InvalidInput("expected multipart form with a file field"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.InvalidInput("missing file field"))
		return
	}
	defer file.Close()

	t, err := dataset.LoadReader(file, header.Filename)
	if err != nil {
		reqLog.WithError(err).Warn("upload unreadable")
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	if err := dataset.ValidateView(t, dataset.ViewBase); err != nil {
		reqLog.WithError(err).Warn("upload rejected")
		writeError(w, err)
		return
	}
	sum := s.Replace(t)
	reqLog.WithField("filename", header.Filename).WithField("rows", sum.TotalComplaints).Info("dataset replaced")
	writeJSON(w, http.StatusOK, sum)
}

// reportConfig applies the optional per-request seed and theme to the
// configured report knobs.
func (s *Server) reportConfig(r *http.Request) (config.ReportConfig, error) {
	cfg := s.cfg.Report
	q := r.URL.Query()
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, apperrors.InvalidInput("seed must be an integer")
		}
		cfg.Seed = &seed
	}
	if v := q.Get("theme"); v != "" {
		if _, err := theme.ByName(v); err != nil {
			return cfg, apperrors.InvalidInput(err.Error())
		}
		cfg.Theme = v
	}
	return cfg, nil
}

// filtersFrom reads one query parameter per filter column; absent or "all"
// means no filter.
func filtersFrom(r *http.Request) dataset.FilterSet {
	q := r.URL.Query()
	fs := dataset.FilterSet{}
	for _, c := range dataset.FilterColumns {
		if v := q.Get(string(c)); v != "" {
			fs[c] = v
		}
	}
	return fs
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.New().WithError(err).Error("failed to write response")
	}
}

type errorBody struct {
	Code    string   `json:"code"`
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case apperrors.CodeMissingColumn:
		status = http.StatusUnprocessableEntity
	case apperrors.CodeInvalidInput, apperrors.CodeConfigInvalid:
		status = http.StatusBadRequest
	case apperrors.CodeExternalResource:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorBody{Code: code, Error: err.Error(), Missing: apperrors.MissingFrom(err)})
}
