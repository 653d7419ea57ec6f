// Package processor runs the report flow end to end: validate, filter,
// assemble and render into a single artifact.
package processor

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"complaint-insights-go/internal/dataset"
	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/logger"
	"complaint-insights-go/internal/report"
	"complaint-insights-go/internal/types"
)

// Request describes one report generation.
type Request struct {
	Filters dataset.FilterSet
	Format  report.Format
	// Layout defaults to report.DefaultLayout.
	Layout   []dataset.View
	Options  report.Options
	LogoPath string
}

// Result is returned alongside the rendered artifact.
type Result struct {
	Report      *report.Report `json:"report"`
	Filename    string         `json:"filename"`
	Path        string         `json:"path,omitempty"`
	ContentType string         `json:"content_type"`
	Bytes       int64          `json:"bytes"`
	DurationMs  int64          `json:"duration_ms"`
}

// countingWriter tracks how much of the artifact has been written.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// GenerateReport renders a report of t into w. The base columns are checked
// on the unfiltered table and their absence stops generation; everything
// narrower only skips sections.
func GenerateReport(t types.Table, req Request, w io.Writer) (Result, error) {
	log := logger.New().Component("processor").WithField("format", string(req.Format))
	start := time.Now()

	if err := dataset.ValidateView(t, dataset.ViewBase); err != nil {
		log.WithError(err).Error("dataset lacks base columns")
		return Result{}, err
	}
	r, err := report.NewRenderer(req.Format, req.LogoPath)
	if err != nil {
		return Result{}, err
	}
	layout := req.Layout
	if layout == nil {
		layout = report.DefaultLayout
	}

	ft := dataset.Apply(t, req.Filters)
	rep := report.Assemble(ft, layout, req.Options)

	cw := &countingWriter{w: w}
	if err := r.Render(cw, rep); err != nil {
		log.WithError(err).Error("render failed")
		return Result{Report: rep}, apperrors.Wrapf(err, "render %s", req.Format)
	}

	res := Result{
		Report:      rep,
		Filename:    report.Filename(rep, req.Format),
		ContentType: r.ContentType(),
		Bytes:       cw.n,
		DurationMs:  time.Since(start).Milliseconds(),
	}
	log.WithFields(map[string]interface{}{
		"report_id":   rep.ID,
		"rows":        rep.Rows,
		"sections":    len(rep.Sections),
		"warnings":    len(rep.Warnings),
		"bytes":       res.Bytes,
		"duration_ms": res.DurationMs,
	}).Info("report generated")
	return res, nil
}

// GenerateReportFile renders into path, or into dir/<default filename> when
// path is a directory. The file is written under a temporary name and closed
// exactly once before it is moved into place, so a failed render never leaves
// a partial artifact behind.
func GenerateReportFile(t types.Table, req Request, path string) (res Result, err error) {
	dir, name := filepath.Split(path)
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		dir, name = path, ""
	}
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return Result{}, apperrors.Wrap(err, "create report file")
	}
	tmp := f.Name()
	closed := false
	defer func() {
		if !closed {
			f.Close()
		}
		if err != nil {
			os.Remove(tmp)
		}
	}()
	if err = f.Chmod(0o644); err != nil {
		return Result{}, apperrors.Wrap(err, "create report file")
	}

	res, err = GenerateReport(t, req, f)
	if err != nil {
		return res, err
	}
	closed = true
	if err = f.Close(); err != nil {
		return res, apperrors.Wrap(err, "close report file")
	}

	if name == "" {
		name = res.Filename
	}
	res.Path = filepath.Join(dir, name)
	if err = os.Rename(tmp, res.Path); err != nil {
		return res, apperrors.Wrap(err, "move report file")
	}
	return res, nil
}
