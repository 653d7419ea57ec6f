package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	apperrors "complaint-insights-go/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// HTMLRenderer writes the report as a single self-contained page. Sections are
// first written as markdown, charts as tables.
type HTMLRenderer struct{}

func (r *HTMLRenderer) Format() Format      { return FormatHTML }
func (r *HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }

func (r *HTMLRenderer) Render(w io.Writer, rep *Report) error {
	md := Markdown(rep)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage | html.SkipHTML | html.Safelink,
		Title: "Feedback Report",
	})
	out := markdown.ToHTML([]byte(md), p, renderer)
	if _, err := w.Write(out); err != nil {
		return apperrors.Wrap(err, "write html")
	}
	return nil
}

// Markdown renders rep as a markdown document. Text taken from the report is
// escaped, so neither markup nor raw HTML in it reaches the page.
func Markdown(rep *Report) string {
	var b strings.Builder
	for _, s := range rep.Sections {
		if _, ok := s.Payload.(Cover); !ok {
			fmt.Fprintf(&b, "## %s\n\n", escape(s.Title))
			if s.Subtitle != "" {
				fmt.Fprintf(&b, "*%s*\n\n", escape(s.Subtitle))
			}
		}
		switch p := s.Payload.(type) {
		case Cover:
			fmt.Fprintf(&b, "# %s\n\n%s\n\n", escape(p.Title), escape(p.Date))
		case Summary:
			writeLines(&b, summaryLines(p))
		case BarChart:
			writeBarTable(&b, p)
		case ChartGrid:
			for _, panel := range p.Panels {
				fmt.Fprintf(&b, "### %s\n\n", escape(panel.Title))
				writeBarTable(&b, panel.Chart)
			}
		case TableData:
			writeTable(&b, p.Headers, p.Rows)
		case LineChart:
			rows := make([][]string, len(p.Points))
			for i, pt := range p.Points {
				rows[i] = []string{pt.Label, formatFloat(pt.Value, 0)}
			}
			writeTable(&b, []string{p.XLabel, p.YLabel}, rows)
		case Findings:
			writeLines(&b, findingLines(p))
		case Recommendations:
			writeLines(&b, recommendationLines(p))
		case Comments:
			for _, sample := range p.Samples {
				fmt.Fprintf(&b, "### %s\n\n", escape(sample.Sentiment))
				writeLines(&b, commentLines(sample.Comments))
			}
		}
	}
	if len(rep.Warnings) > 0 {
		b.WriteString("---\n\n")
		for _, w := range rep.Warnings {
			fmt.Fprintf(&b, "> Warning: %s\n\n", escape(w))
		}
	}
	return b.String()
}

func writeLines(b *strings.Builder, lines []string) {
	for _, l := range lines {
		if l == "" {
			b.WriteString("\n")
			continue
		}
		if rest, ok := strings.CutPrefix(l, "- "); ok {
			b.WriteString("- " + escape(rest))
		} else {
			b.WriteString(escape(l))
		}
		b.WriteString("  \n")
	}
	b.WriteString("\n")
}

func writeBarTable(b *strings.Builder, c BarChart) {
	rows := make([][]string, len(c.Bars))
	for i, bar := range c.Bars {
		rows[i] = []string{bar.Label, formatFloat(bar.Value, 0), bar.Annotation}
	}
	label, value := c.XLabel, c.YLabel
	if c.Horizontal {
		label, value = c.YLabel, c.XLabel
	}
	writeTable(b, []string{label, value, ""}, rows)
}

func writeTable(b *strings.Builder, headers []string, rows [][]string) {
	b.WriteString("|")
	for _, h := range headers {
		b.WriteString(" " + escape(h) + " |")
	}
	b.WriteString("\n|")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("|")
		for _, c := range row {
			b.WriteString(" " + escape(c) + " |")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// escape backslash-escapes every character the markdown parser treats as
// markup. Newlines become spaces so a value stays on its line.
func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteByte(' ')
			continue
		case r < utf8.RuneSelf && bytes.IndexByte(parser.EscapeChars, byte(r)) >= 0:
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
