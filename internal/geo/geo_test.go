package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"complaint-insights-go/internal/aggregator"
	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/theme"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const states = `{"type":"FeatureCollection","features":[
{"type":"Feature","id":"TX","properties":{"name":"Texas"},"geometry":null},
{"type":"Feature","id":"MA","properties":{"name":"Massachusetts"},"geometry":null},
{"type":"Feature","id":"CO","properties":{"name":"Colorado"},"geometry":null}]}`

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(states))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	body, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, int64(3), gjson.GetBytes(body, "features.#").Int())
}

func TestFetchClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 5*time.Second).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeExternalResource))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchRejectsNonGeoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hello":"world"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 5*time.Second).Fetch(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeExternalResource))
}

func TestChoropleth(t *testing.T) {
	counts := []aggregator.KeyCount{{Key: "TX", Count: 4}, {Key: "MA", Count: 1}}
	doc, out, err := Choropleth([]byte(states), counts, theme.Corporate)
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, "TX", out[0].ID)
	assert.Equal(t, theme.Corporate.Primary, out[0].Fill)
	assert.Equal(t, theme.Corporate.Warning, out[1].Fill)
	assert.Equal(t, "CO", out[2].ID)
	assert.Equal(t, 0, out[2].Count)
	assert.Equal(t, theme.Corporate.Light, out[2].Fill)

	assert.Equal(t, int64(4), gjson.GetBytes(doc, "features.0.properties.count").Int())
	assert.Equal(t, "Texas: 4", gjson.GetBytes(doc, "features.0.properties.tooltip").String())
	assert.Equal(t, "Texas", gjson.GetBytes(doc, "features.0.properties.name").String())
}

func TestChoroplethRejectsMissingFeatures(t *testing.T) {
	_, _, err := Choropleth([]byte(`{}`), nil, theme.Corporate)
	assert.Error(t, err)
}

func TestColorFor(t *testing.T) {
	stops := []string{"#000000", "#FFFFFF"}
	assert.Equal(t, "#000000", ColorFor(1, 1, 1, stops))
	assert.Equal(t, "#808080", ColorFor(5, 0, 10, stops))
	assert.Equal(t, "#FFFFFF", ColorFor(10, 0, 10, stops))
	assert.Equal(t, "#FF0000", ColorFor(3, 0, 10, []string{"#FF0000"}))
}
