package report

import (
	"fmt"
	"io"
	"strings"

	apperrors "complaint-insights-go/internal/errors"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

// ParseFormat accepts pdf, xlsx or html; empty means pdf.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPDF, nil
	case FormatPDF, FormatXLSX, FormatHTML:
		return f, nil
	}
	return "", apperrors.InvalidInput(fmt.Sprintf("unsupported report format %q", s))
}

// Renderer turns an assembled report into a single artifact. Problems that only
// affect decoration (a missing logo) are added to the report's warnings.
type Renderer interface {
	Format() Format
	ContentType() string
	Render(w io.Writer, rep *Report) error
}

// NewRenderer returns the renderer for f. logoPath may be empty.
func NewRenderer(f Format, logoPath string) (Renderer, error) {
	switch f {
	case FormatPDF:
		return &PDFRenderer{LogoPath: logoPath}, nil
	case FormatXLSX:
		return &XLSXRenderer{}, nil
	case FormatHTML:
		return &HTMLRenderer{}, nil
	}
	return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported report format %q", f))
}

// Filename is the suggested download name for rep in format f.
func Filename(rep *Report, f Format) string {
	return fmt.Sprintf("complaints_report_%s.%s", rep.GeneratedAt.Format("20060102"), f)
}
