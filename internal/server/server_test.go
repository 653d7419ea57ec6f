package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"complaint-insights-go/internal/config"
	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/pipeline"
	"complaint-insights-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var s = types.Ptr[string]

type stubBoundaries struct {
	body []byte
	err  error
}

func (b stubBoundaries) Fetch(context.Context) ([]byte, error) { return b.body, b.err }

func table() types.Table {
	return types.NewTable(
		[]types.Column{types.ColCity, types.ColStateCode, types.ColCategory, types.ColStarRating, types.ColSentiment, types.ColMessage},
		[]types.Record{
			{City: s("Austin"), StateCode: s("TX"), Category: s("A"), StarRating: types.Ptr(4.0), Sentiment: s("Positivo"), Message: s("fine")},
			{City: s("Austin"), StateCode: s("TX"), Category: s("A"), StarRating: types.Ptr(2.0), Sentiment: s("Negativo"), Message: s("bad")},
			{City: s("Boston"), StateCode: s("MA"), Category: s("B"), StarRating: types.Ptr(5.0), Sentiment: s("Positivo"), Message: s("great")},
		},
	)
}

func newServer(t *testing.T, geo pipeline.Boundaries) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.Logo = ""
	srv, err := New(cfg, table(), pipeline.Deps{}, geo)
	require.NoError(t, err)
	return srv
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newServer(t, nil), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestFilters(t *testing.T) {
	rec := do(newServer(t, nil), httptest.NewRequest(http.MethodGet, "/api/filters", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Options map[string][]string `json:"options"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"A", "B"}, body.Options["category"])
	assert.Equal(t, []string{"Austin", "Boston"}, body.Options["city"])
}

func TestDashboardFilters(t *testing.T) {
	rec := do(newServer(t, nil), httptest.NewRequest(http.MethodGet, "/api/dashboard?category=B&city=all&seed=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var d pipeline.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, 1, d.Rows)
	assert.Equal(t, "5.0", d.Metrics.AverageRating)
	assert.Len(t, d.Findings, 7)
}

func TestDashboardRejectsBadSeed(t *testing.T) {
	rec := do(newServer(t, nil), httptest.NewRequest(http.MethodGet, "/api/dashboard?seed=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMapDegradesWhenBoundariesFail(t *testing.T) {
	geo := stubBoundaries{err: apperrors.ExternalResource("state boundaries", errors.New("offline"))}
	rec := do(newServer(t, geo), httptest.NewRequest(http.MethodGet, "/api/map", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var m pipeline.Map
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Contains(t, m.Warning, "state boundaries unavailable")
	assert.Len(t, m.Counts, 2)
}

func TestMap(t *testing.T) {
	geo := stubBoundaries{body: []byte(`{"type":"FeatureCollection","features":[{"type":"Feature","id":"TX","properties":{"name":"Texas"}}]}`)}
	rec := do(newServer(t, geo), httptest.NewRequest(http.MethodGet, "/api/map?city=Austin", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var m pipeline.Map
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	require.Len(t, m.States, 1)
	assert.Equal(t, 2, m.States[0].Count)
}

func TestReportDownload(t *testing.T) {
	rec := do(newServer(t, nil), httptest.NewRequest(http.MethodGet, "/api/report?format=pdf&seed=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "complaints_report_")
	assert.NotEmpty(t, rec.Header().Get("X-Report-ID"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestReportRejectsUnknownFormat(t *testing.T) {
	rec := do(newServer(t, nil), httptest.NewRequest(http.MethodGet, "/api/report?format=docx", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func upload(t *testing.T, name, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dataset", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadReplacesTable(t *testing.T) {
	srv := newServer(t, nil)
	csv := "city,predicted_category,PuntajeEstrellas,Clasificacion,message\nDenver,C,3,Neutro,hm\n"
	rec := do(srv, upload(t, "new.csv", csv))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(srv, httptest.NewRequest(http.MethodGet, "/api/filters", nil))
	var body struct {
		Options map[string][]string `json:"options"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Denver"}, body.Options["city"])
}

func TestUploadRejectsMissingColumns(t *testing.T) {
	srv := newServer(t, nil)
	rec := do(srv, upload(t, "bad.csv", "city,message\nDenver,hm\n"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeMissingColumn, body.Code)
	assert.Equal(t, []string{"category", "star_rating", "sentiment"}, body.Missing)

	// the session table is untouched
	tbl, _ := srv.snapshot()
	assert.Equal(t, 3, tbl.Len())
}
