package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOutsideLocal(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "production", "info")

	log.Component("report.assembler").WithField("section", "top_states").Warn("section skipped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "report.assembler", entry["component"])
	assert.Equal(t, "top_states", entry["section"])
	assert.Equal(t, "warning", entry["level"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "production", "warn")
	log.Info("hidden")
	assert.Empty(t, buf.String())
	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithRequestUsesHeaderID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "production", "info")
	r := httptest.NewRequest("GET", "/api/dashboard", nil)
	r.Header.Set("X-Request-ID", "abc-123")

	log.WithRequest(r).Info("hit")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc-123", entry["req_id"])
	assert.Equal(t, "/api/dashboard", entry["path"])
}

func TestWithErrorNil(t *testing.T) {
	log := NewWithOutput(&bytes.Buffer{}, "", "")
	assert.Equal(t, log.Entry, log.WithError(nil))
	assert.Equal(t, "x", log.WithError(errors.New("x")).Data["error"])
}
