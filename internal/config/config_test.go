package config

import (
	"testing"
	"time"

	apperrors "complaint-insights-go/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "DATASET_PATH", "STOPWORDS_PATH", "LOGO_PATH", "GEOJSON_URL", "REPORT_THEME",
		"SAMPLE_SEED", "TOP_STATES", "TOP_PRODUCTS", "TOP_CITIES", "SAMPLE_SIZE", "HTTP_TIMEOUT_SEC",
	} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Nil(t, cfg.Report.Seed)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REPORT_THEME", "Classic")
	t.Setenv("SAMPLE_SEED", "42")
	t.Setenv("TOP_STATES", "10")
	t.Setenv("HTTP_TIMEOUT_SEC", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "classic", cfg.Report.Theme)
	require.NotNil(t, cfg.Report.Seed)
	assert.Equal(t, int64(42), *cfg.Report.Seed)
	assert.Equal(t, 10, cfg.Report.TopStates)
	assert.Equal(t, 3*time.Second, cfg.Server.HTTPTimeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"non-numeric top":  {"TOP_PRODUCTS", "ten"},
		"bad seed":         {"SAMPLE_SEED", "abc"},
		"unknown theme":    {"REPORT_THEME", "neon"},
		"zero top states":  {"TOP_STATES", "0"},
		"negative timeout": {"HTTP_TIMEOUT_SEC", "-1"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeConfigInvalid))
		})
	}
}
