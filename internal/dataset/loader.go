package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/logger"
	"complaint-insights-go/internal/types"

	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order for textual sent dates. Month-first, like the
// exports this tool receives.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// Load reads a complaint export (.xlsx or .csv) into a Table.
func Load(path string) (types.Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return types.Table{}, fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		return LoadCSV(f)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return types.Table{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return fromWorkbook(f)
}

// LoadReader reads an uploaded export; name is only used to pick the format.
func LoadReader(r io.Reader, name string) (types.Table, error) {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return LoadCSV(r)
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return types.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return fromWorkbook(f)
}

func LoadCSV(r io.Reader) (types.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return types.Table{}, fmt.Errorf("read csv: %w", err)
	}
	return FromRows(rows)
}

func fromWorkbook(f *excelize.File) (types.Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return types.Table{}, fmt.Errorf("no sheets")
	}
	// raw values keep dates as serial numbers and ratings unformatted
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return types.Table{}, fmt.Errorf("read rows: %w", err)
	}
	return FromRows(rows)
}

// FromRows converts a header row plus data rows into a Table. Cells that fail
// coercion are left null on that row only.
func FromRows(rows [][]string) (types.Table, error) {
	log := logger.New().Component("dataset.loader")
	if len(rows) == 0 {
		return types.Table{}, fmt.Errorf("no header row")
	}

	header := rows[0]
	cols := make([]types.Column, 0, len(header))
	index := make([]types.Column, len(header))
	seen := map[types.Column]bool{}
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			continue
		}
		c := types.CanonicalColumn(h)
		if seen[c] {
			// first occurrence wins
			continue
		}
		seen[c] = true
		index[i] = c
		cols = append(cols, c)
	}

	unparseable := 0
	out := make([]types.Record, 0, len(rows)-1)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if blank(row) {
			continue
		}
		var rec types.Record
		for j, cell := range row {
			if j >= len(index) || index[j] == "" {
				continue
			}
			v := strings.TrimSpace(cell)
			if v == "" {
				continue
			}
			if err := assign(&rec, index[j], v); err != nil {
				unparseable++
				log.WithField("row", i+1).WithField("field", string(index[j])).
					Debug(apperrors.UnparseableValue(i+1, string(index[j]), err).Error())
			}
		}
		out = append(out, rec)
	}

	log.WithField("rows", len(out)).WithField("columns", len(cols)).
		WithField("unparseable_cells", unparseable).Info("dataset loaded")
	return types.NewTable(cols, out), nil
}

func assign(rec *types.Record, col types.Column, v string) error {
	switch col {
	case types.ColCity:
		rec.City = &v
	case types.ColStateCode:
		rec.StateCode = &v
	case types.ColStateName:
		rec.StateName = &v
	case types.ColCategory:
		rec.Category = &v
	case types.ColSentiment:
		rec.Sentiment = &v
	case types.ColMessage:
		rec.Message = &v
	case types.ColProductType:
		rec.ProductType = &v
	case types.ColZipCode:
		rec.ZipCode = &v
	case types.ColTokens:
		rec.TokensRaw = &v
	case types.ColStarRating:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		rec.StarRating = &f
	case types.ColConfidence:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		rec.Confidence = &f
	case types.ColSentDate:
		rec.SentDateRaw = &v
		ts, err := ParseDate(v)
		if err != nil {
			return err
		}
		rec.SentDate = &ts
	default:
		if rec.Extra == nil {
			rec.Extra = map[string]string{}
		}
		rec.Extra[string(col)] = v
	}
	return nil
}

// Excel serials are only trusted inside this window; anything else is a
// mistyped cell, not a date.
var (
	minSerialDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	maxSerialDate = time.Date(2101, 1, 1, 0, 0, 0, 0, time.UTC)
)

// ParseDate accepts a compact yyyymmdd date, an Excel serial date or one of
// the textual layouts.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if len(v) == 8 && isDigits(v) {
		ts, err := time.Parse("20060102", v)
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognised date %q", v)
		}
		return ts, nil
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		ts, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, err
		}
		if ts.Before(minSerialDate) || !ts.Before(maxSerialDate) {
			return time.Time{}, fmt.Errorf("date serial %q out of range", v)
		}
		return ts, nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
