package report

import (
	"fmt"
	"io"
	"strings"

	apperrors "complaint-insights-go/internal/errors"

	"github.com/xuri/excelize/v2"
)

const overviewSheet = "Overview"

// XLSXRenderer writes one worksheet per section, with a native chart next to
// every chart section's data.
type XLSXRenderer struct{}

func (r *XLSXRenderer) Format() Format { return FormatXLSX }
func (r *XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

type xlsxDoc struct {
	f     *excelize.File
	rep   *Report
	title int
	head  int
	used  map[string]bool
}

func (r *XLSXRenderer) Render(w io.Writer, rep *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	d := &xlsxDoc{f: f, rep: rep, used: map[string]bool{overviewSheet: true}}
	if err := d.styles(); err != nil {
		return apperrors.Wrap(err, "xlsx styles")
	}
	if err := f.SetSheetName(f.GetSheetName(0), overviewSheet); err != nil {
		return apperrors.Wrap(err, "xlsx overview")
	}
	if err := d.overview(); err != nil {
		return apperrors.Wrap(err, "xlsx overview")
	}
	for _, s := range rep.Sections {
		if _, ok := s.Payload.(Cover); ok {
			continue
		}
		if err := d.section(s); err != nil {
			return apperrors.Wrapf(err, "xlsx section %s", s.Kind)
		}
	}
	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return apperrors.Wrap(err, "write xlsx")
	}
	return nil
}

func (d *xlsxDoc) styles() error {
	var err error
	d.title, err = d.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16, Color: strings.TrimPrefix(d.rep.Theme.Primary, "#")},
	})
	if err != nil {
		return err
	}
	d.head, err = d.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(d.rep.Theme.Primary, "#")}},
	})
	return err
}

func (d *xlsxDoc) overview() error {
	rows := [][]interface{}{
		{"Feedback Report"},
		{},
		{"Report ID", d.rep.ID},
		{"Generated", d.rep.GeneratedAt.Format("2006-01-02 15:04")},
		{"Rows", d.rep.Rows},
		{"Theme", d.rep.Theme.Name},
	}
	for _, s := range d.rep.Skipped {
		rows = append(rows, []interface{}{"Skipped " + string(s.Kind), s.Reason})
	}
	for _, w := range d.rep.Warnings {
		rows = append(rows, []interface{}{"Warning", w})
	}
	if err := d.rows(overviewSheet, 1, rows); err != nil {
		return err
	}
	return d.f.SetCellStyle(overviewSheet, "A1", "A1", d.title)
}

// sheetName derives a unique, valid worksheet name from the section kind.
func (d *xlsxDoc) sheetName(s Section) string {
	base := string(s.Kind)
	if len(base) > 28 {
		base = base[:28]
	}
	name := base
	for i := 2; d.used[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	d.used[name] = true
	return name
}

func (d *xlsxDoc) section(s Section) error {
	sheet := d.sheetName(s)
	if _, err := d.f.NewSheet(sheet); err != nil {
		return err
	}
	if err := d.rows(sheet, 1, [][]interface{}{{s.Title}, {s.Subtitle}}); err != nil {
		return err
	}
	if err := d.f.SetCellStyle(sheet, "A1", "A1", d.title); err != nil {
		return err
	}

	switch p := s.Payload.(type) {
	case Summary:
		return d.lines(sheet, 4, summaryLines(p))
	case BarChart:
		_, err := d.barBlock(sheet, 4, s.Title, p)
		return err
	case ChartGrid:
		row := 4
		for _, panel := range p.Panels {
			next, err := d.barBlock(sheet, row, panel.Title, panel.Chart)
			if err != nil {
				return err
			}
			row = max(next, row+16) + 1
		}
		return nil
	case TableData:
		rows := make([][]interface{}, len(p.Rows))
		for i, r := range p.Rows {
			rows[i] = toRow(r)
		}
		return d.table(sheet, 4, p.Headers, rows)
	case LineChart:
		rows := make([][]interface{}, len(p.Points))
		for i, pt := range p.Points {
			rows[i] = []interface{}{pt.Label, pt.Value}
		}
		if err := d.table(sheet, 4, []string{p.XLabel, p.YLabel}, rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return d.f.AddChart(sheet, "D4", &excelize.Chart{
			Type: excelize.Line,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("'%s'!$B$4", sheet),
				Categories: fmt.Sprintf("'%s'!$A$5:$A$%d", sheet, 4+len(rows)),
				Values:     fmt.Sprintf("'%s'!$B$5:$B$%d", sheet, 4+len(rows)),
				Line:       excelize.ChartLine{Width: 2},
			}},
			Title:  []excelize.RichTextRun{{Text: s.Title}},
			Legend: excelize.ChartLegend{Position: "none"},
		})
	case Findings:
		return d.lines(sheet, 4, findingLines(p))
	case Recommendations:
		rows := make([][]interface{}, len(p.Cards))
		for i, c := range p.Cards {
			rows[i] = []interface{}{c.Insight, c.Action, c.Impact}
		}
		return d.table(sheet, 4, []string{"Insight", "Action", "Impact"}, rows)
	case Comments:
		var rows [][]interface{}
		for _, sample := range p.Samples {
			for _, c := range sample.Comments {
				rows = append(rows, []interface{}{sample.Sentiment, c})
			}
		}
		return d.table(sheet, 4, []string{"Sentiment", "Comment"}, rows)
	}
	return nil
}

// barBlock writes a chart's data at row and places a chart beside it. It
// returns the last row used.
func (d *xlsxDoc) barBlock(sheet string, row int, title string, c BarChart) (int, error) {
	label, value := c.XLabel, c.YLabel
	if c.Horizontal {
		label, value = c.YLabel, c.XLabel
	}
	rows := make([][]interface{}, len(c.Bars))
	for i, b := range c.Bars {
		rows[i] = []interface{}{b.Label, b.Value, b.Annotation}
	}
	if err := d.table(sheet, row, []string{label, value, ""}, rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return row, nil
	}
	first, last := row+1, row+len(rows)
	typ := excelize.Col
	if c.Horizontal {
		typ = excelize.Bar
	}
	anchor, err := excelize.CoordinatesToCellName(5, row)
	if err != nil {
		return 0, err
	}
	err = d.f.AddChart(sheet, anchor, &excelize.Chart{
		Type: typ,
		Series: []excelize.ChartSeries{{
			Name:       title,
			Categories: fmt.Sprintf("'%s'!$A$%d:$A$%d", sheet, first, last),
			Values:     fmt.Sprintf("'%s'!$B$%d:$B$%d", sheet, first, last),
			Fill:       excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(c.Bars[0].Color, "#")}},
		}},
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
	return last, err
}

func (d *xlsxDoc) table(sheet string, row int, headers []string, rows [][]interface{}) error {
	out := make([][]interface{}, 0, len(rows)+1)
	out = append(out, toRow(headers))
	out = append(out, rows...)
	if err := d.rows(sheet, row, out); err != nil {
		return err
	}
	from, _ := excelize.CoordinatesToCellName(1, row)
	to, _ := excelize.CoordinatesToCellName(max(len(headers), 1), row)
	return d.f.SetCellStyle(sheet, from, to, d.head)
}

func (d *xlsxDoc) lines(sheet string, row int, lines []string) error {
	out := make([][]interface{}, len(lines))
	for i, l := range lines {
		out[i] = []interface{}{l}
	}
	return d.rows(sheet, row, out)
}

func (d *xlsxDoc) rows(sheet string, start int, rows [][]interface{}) error {
	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, start+i)
		if err != nil {
			return err
		}
		if err := d.f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

func toRow(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
