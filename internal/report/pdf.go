package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/logger"
	"complaint-insights-go/internal/theme"

	"github.com/go-pdf/fpdf"
)

const logoName = "branding-logo"

// PDFRenderer draws one landscape page per section, plus overflow pages for
// long tables and chart grids. When LogoPath loads, the logo is stamped on
// every page.
type PDFRenderer struct {
	LogoPath string
}

func (r *PDFRenderer) Format() Format      { return FormatPDF }
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

type pdfDoc struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	theme theme.Theme
	w, h  float64
}

func (r *PDFRenderer) Render(w io.Writer, rep *Report) error {
	log := logger.New().Component("report.pdf")
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 15)
	pdf.SetTitle("Feedback Report", true)
	pdf.SetCreator("complaint-insights", true)

	d := &pdfDoc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), theme: rep.Theme}
	d.w, d.h = pdf.GetPageSize()

	if logo, err := r.registerLogo(pdf); err != nil {
		log.WithError(err).Warn("logo overlay disabled")
		rep.Warn(err.Error())
	} else if logo != nil {
		lw := 30.0
		lh := lw * logo.Height() / logo.Width()
		pdf.SetFooterFunc(func() {
			pdf.SetAlpha(0.5, "Normal")
			pdf.ImageOptions(logoName, d.w-lw-5, d.h-lh-5, lw, lh, false, fpdf.ImageOptions{}, 0, "")
			pdf.SetAlpha(1, "Normal")
		})
	}

	for _, s := range rep.Sections {
		d.section(s)
	}
	if len(rep.Sections) == 0 {
		d.page("Feedback Report", "No section had enough data")
	}
	if err := pdf.Output(w); err != nil {
		return apperrors.Wrap(err, "write pdf")
	}
	return nil
}

// registerLogo returns nil, nil when no logo is configured.
func (r *PDFRenderer) registerLogo(pdf *fpdf.Fpdf) (*fpdf.ImageInfoType, error) {
	if r.LogoPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(r.LogoPath)
	if err != nil {
		return nil, apperrors.ExternalResource("logo "+r.LogoPath, err)
	}
	typ := strings.TrimPrefix(strings.ToUpper(filepath.Ext(r.LogoPath)), ".")
	if typ == "JPEG" {
		typ = "JPG"
	}
	info := pdf.RegisterImageOptionsReader(logoName, fpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
	if !pdf.Ok() || info == nil {
		err := pdf.Error()
		pdf.ClearError()
		return nil, apperrors.ExternalResource("logo "+r.LogoPath, err)
	}
	return info, nil
}

func (d *pdfDoc) setColor(hex string, fill bool) {
	r, g, b := theme.RGB(hex)
	if fill {
		d.pdf.SetFillColor(r, g, b)
	} else {
		d.pdf.SetTextColor(r, g, b)
	}
}

// page starts a page with a title block and returns the y where content begins.
func (d *pdfDoc) page(title, subtitle string) float64 {
	d.pdf.AddPage()
	d.pdf.SetFont("Helvetica", "B", 20)
	d.setColor(d.theme.Primary, false)
	d.pdf.SetXY(15, 12)
	d.pdf.CellFormat(d.w-30, 10, d.tr(title), "", 1, "C", false, 0, "")
	y := 24.0
	if subtitle != "" {
		d.pdf.SetFont("Helvetica", "I", 12)
		d.setColor(d.theme.Dark, false)
		d.pdf.SetX(15)
		d.pdf.CellFormat(d.w-30, 7, d.tr(subtitle), "", 1, "C", false, 0, "")
		y += 8
	}
	d.setColor(d.theme.Dark, false)
	return y + 4
}

func (d *pdfDoc) section(s Section) {
	switch p := s.Payload.(type) {
	case Cover:
		d.cover(p)
	case Summary:
		y := d.page(s.Title, s.Subtitle)
		d.lines(y, summaryLines(p), 13)
	case BarChart:
		y := d.page(s.Title, s.Subtitle)
		d.barChart(p, 25, y, d.w-50, d.h-y-25, 10)
	case ChartGrid:
		d.grid(s, p)
	case TableData:
		d.table(s, p)
	case LineChart:
		y := d.page(s.Title, s.Subtitle)
		d.lineChart(p, 30, y, d.w-60, d.h-y-30)
	case Findings:
		y := d.page(s.Title, s.Subtitle)
		d.lines(y, findingLines(p), 13)
	case Recommendations:
		y := d.page(s.Title, s.Subtitle)
		d.lines(y, recommendationLines(p), 13)
	case Comments:
		for _, sample := range p.Samples {
			y := d.page(fmt.Sprintf("%s: %s", s.Title, sample.Sentiment), s.Subtitle)
			d.lines(y, commentLines(sample.Comments), 11)
		}
	}
}

func (d *pdfDoc) cover(c Cover) {
	d.pdf.AddPage()
	d.setColor(d.theme.Secondary, true)
	d.pdf.Rect(0, 0, d.w, d.h, "F")
	d.setColor(d.theme.Primary, true)
	d.pdf.Rect(20, d.h*0.25, d.w-40, d.h*0.4, "F")
	d.pdf.SetTextColor(255, 255, 255)
	d.pdf.SetFont("Helvetica", "B", 32)
	d.pdf.SetXY(20, d.h*0.35)
	d.pdf.CellFormat(d.w-40, 14, d.tr(c.Title), "", 1, "C", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 16)
	d.pdf.SetX(20)
	d.pdf.CellFormat(d.w-40, 10, c.Date, "", 1, "C", false, 0, "")
}

// lines writes text lines; an empty line is a paragraph gap. Overflow starts a
// continuation page.
func (d *pdfDoc) lines(y float64, lines []string, size float64) {
	d.pdf.SetFont("Helvetica", "", size)
	d.pdf.SetXY(25, y)
	for _, l := range lines {
		if d.pdf.GetY() > d.h-25 {
			d.pdf.AddPage()
			d.pdf.SetFont("Helvetica", "", size)
			d.pdf.SetXY(25, 20)
		}
		if l == "" {
			d.pdf.Ln(size * 0.3)
			continue
		}
		d.pdf.SetX(25)
		d.pdf.MultiCell(d.w-50, size*0.5, d.tr(l), "", "L", false)
	}
}

func (d *pdfDoc) barChart(c BarChart, x, y, w, h, font float64) {
	if len(c.Bars) == 0 {
		return
	}
	maxV := 0.0
	for _, b := range c.Bars {
		maxV = math.Max(maxV, b.Value)
	}
	if maxV == 0 {
		maxV = 1
	}
	d.pdf.SetDrawColor(120, 120, 120)
	d.pdf.SetFont("Helvetica", "", font)

	if c.Horizontal {
		labelW := w * 0.25
		plotW := w - labelW - 25
		step := h / float64(len(c.Bars))
		barH := step * 0.7
		for i, b := range c.Bars {
			by := y + float64(i)*step + (step-barH)/2
			bw := plotW * b.Value / maxV
			d.setColor(d.theme.Dark, false)
			d.pdf.SetXY(x, by)
			d.pdf.CellFormat(labelW-2, barH, d.tr(d.fit(b.Label, labelW-2)), "", 0, "R", false, 0, "")
			d.setColor(b.Color, true)
			d.pdf.Rect(x+labelW, by, bw, barH, "F")
			d.pdf.SetXY(x+labelW+bw+1, by)
			d.pdf.CellFormat(25, barH, d.tr(b.Annotation), "", 0, "L", false, 0, "")
		}
		d.pdf.Line(x+labelW, y, x+labelW, y+h)
		return
	}

	labelH := font * 0.9
	plotH := h - labelH - font*0.6
	step := w / float64(len(c.Bars))
	barW := step * 0.7
	base := y + font*0.6 + plotH
	for i, b := range c.Bars {
		bx := x + float64(i)*step + (step-barW)/2
		bh := plotH * b.Value / maxV
		d.setColor(b.Color, true)
		d.pdf.Rect(bx, base-bh, barW, bh, "F")
		d.setColor(d.theme.Dark, false)
		d.pdf.SetXY(bx-step*0.15, base-bh-font*0.5)
		d.pdf.CellFormat(step, font*0.45, d.tr(b.Annotation), "", 0, "C", false, 0, "")
		d.pdf.SetXY(bx-step*0.15, base+1)
		d.pdf.CellFormat(step, font*0.45, d.tr(d.fit(b.Label, step)), "", 0, "C", false, 0, "")
	}
	d.pdf.Line(x, base, x+w, base)
}

// fit truncates s to the given width at the current font.
func (d *pdfDoc) fit(s string, width float64) string {
	if d.pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 1 && d.pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

// grid lays out panels two by two, four per page.
func (d *pdfDoc) grid(s Section, g ChartGrid) {
	cols := g.Columns
	if cols <= 0 {
		cols = 2
	}
	perPage := cols * 2
	var top float64
	for i, p := range g.Panels {
		if i%perPage == 0 {
			top = d.page(s.Title, s.Subtitle)
		}
		slot := i % perPage
		cw := (d.w - 30) / float64(cols)
		ch := (d.h - top - 20) / 2
		px := 15 + float64(slot%cols)*cw
		py := top + float64(slot/cols)*ch
		d.pdf.SetFont("Helvetica", "B", 11)
		d.setColor(d.theme.Dark, false)
		d.pdf.SetXY(px, py)
		d.pdf.CellFormat(cw, 6, d.tr(p.Title), "", 0, "C", false, 0, "")
		d.barChart(p.Chart, px+5, py+7, cw-10, ch-12, 8)
	}
}

func (d *pdfDoc) table(s Section, t TableData) {
	y := d.page(s.Title, s.Subtitle)
	colW := (d.w - 60) / float64(max(len(t.Headers), 1))
	rowH := 7.0
	header := func() {
		d.pdf.SetFont("Helvetica", "B", 11)
		d.setColor(d.theme.Primary, true)
		d.pdf.SetTextColor(255, 255, 255)
		d.pdf.SetX(30)
		for _, h := range t.Headers {
			d.pdf.CellFormat(colW, rowH, d.tr(h), "1", 0, "C", true, 0, "")
		}
		d.pdf.Ln(-1)
		d.pdf.SetFont("Helvetica", "", 10)
		d.setColor(d.theme.Dark, false)
		d.pdf.SetFillColor(245, 245, 245)
	}
	d.pdf.SetY(y)
	header()
	for _, row := range t.Rows {
		if d.pdf.GetY()+rowH > d.h-20 {
			d.pdf.AddPage()
			d.pdf.SetY(20)
			header()
		}
		d.pdf.SetX(30)
		for _, cell := range row {
			d.pdf.CellFormat(colW, rowH, d.tr(d.fit(cell, colW-2)), "1", 0, "C", true, 0, "")
		}
		d.pdf.Ln(-1)
	}
}

func (d *pdfDoc) lineChart(c LineChart, x, y, w, h float64) {
	if len(c.Points) == 0 {
		return
	}
	maxV := 0.0
	for _, p := range c.Points {
		maxV = math.Max(maxV, p.Value)
	}
	if maxV == 0 {
		maxV = 1
	}
	base := y + h
	d.pdf.SetDrawColor(120, 120, 120)
	d.pdf.Line(x, y, x, base)
	d.pdf.Line(x, base, x+w, base)

	step := 0.0
	if len(c.Points) > 1 {
		step = w / float64(len(c.Points)-1)
	}
	pos := func(i int) (float64, float64) {
		return x + float64(i)*step, base - h*c.Points[i].Value/maxV
	}
	r, g, b := theme.RGB(c.Color)
	d.pdf.SetDrawColor(r, g, b)
	d.pdf.SetLineWidth(0.6)
	for i := 1; i < len(c.Points); i++ {
		x1, y1 := pos(i - 1)
		x2, y2 := pos(i)
		d.pdf.Line(x1, y1, x2, y2)
	}
	d.pdf.SetLineWidth(0.2)

	d.pdf.SetFont("Helvetica", "", 8)
	d.setColor(d.theme.Dark, false)
	every := max(1, len(c.Points)/12)
	for i := range c.Points {
		if i%every != 0 {
			continue
		}
		px, _ := pos(i)
		d.pdf.SetXY(px-12, base+1)
		d.pdf.CellFormat(24, 4, c.Points[i].Label, "", 0, "C", false, 0, "")
	}
	d.pdf.SetXY(x-15, y-2)
	d.pdf.CellFormat(14, 4, formatFloat(maxV, 0), "", 0, "R", false, 0, "")
	d.pdf.SetXY(x-15, base-2)
	d.pdf.CellFormat(14, 4, "0", "", 0, "R", false, 0, "")
}
