package processor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"complaint-insights-go/internal/dataset"
	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/report"
	"complaint-insights-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var s = types.Ptr[string]

func baseTable() types.Table {
	return types.NewTable(
		[]types.Column{types.ColCity, types.ColCategory, types.ColStarRating, types.ColSentiment, types.ColMessage},
		[]types.Record{
			{City: s("Austin"), Category: s("A"), StarRating: types.Ptr(4.0), Sentiment: s("Positivo"), Message: s("fine")},
			{City: s("Austin"), Category: s("A"), StarRating: types.Ptr(2.0), Sentiment: s("Negativo"), Message: s("bad")},
			{City: s("Boston"), Category: s("B"), StarRating: types.Ptr(5.0), Sentiment: s("Positivo"), Message: s("great")},
		},
	)
}

func request(f report.Format) Request {
	seed := int64(3)
	opts := report.DefaultOptions()
	opts.Seed = &seed
	opts.Now = func() time.Time { return time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC) }
	return Request{Format: f, Options: opts}
}

func TestGenerateReportFiltersBeforeAssembly(t *testing.T) {
	req := request(report.FormatHTML)
	req.Filters = dataset.FilterSet{types.ColCategory: "B"}

	var buf bytes.Buffer
	res, err := GenerateReport(baseTable(), req, &buf)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Report.Rows)
	assert.Equal(t, "complaints_report_20240506.html", res.Filename)
	assert.Equal(t, int64(buf.Len()), res.Bytes)
	sum, ok := res.Report.Section(dataset.ViewSummary)
	require.True(t, ok)
	assert.Equal(t, "5.00", sum.Payload.(report.Summary).MeanRatingText())
}

func TestGenerateReportHaltsOnMissingBaseColumns(t *testing.T) {
	tbl := types.NewTable([]types.Column{types.ColCity, types.ColCategory}, nil)
	var buf bytes.Buffer
	_, err := GenerateReport(tbl, request(report.FormatPDF), &buf)
	require.Error(t, err)
	assert.Equal(t, []string{"star_rating", "sentiment", "message"}, apperrors.MissingFrom(err))
	assert.Zero(t, buf.Len())
}

func TestGenerateReportRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	_, err := GenerateReport(baseTable(), request("docx"), &buf)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestGenerateReportFileIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	res, err := GenerateReportFile(baseTable(), request(report.FormatPDF), dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "complaints_report_20240506.pdf"), res.Path)
	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, int64(len(data)), res.Bytes)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGenerateReportFileNamedPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	res, err := GenerateReportFile(baseTable(), request(report.FormatXLSX), path)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.FileExists(t, path)
}

func TestGenerateReportFileLeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	tbl := types.NewTable([]types.Column{types.ColCity}, nil)
	_, err := GenerateReportFile(tbl, request(report.FormatPDF), dir)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
