package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresBackendURL(t *testing.T) {
	t.Setenv("BACKEND_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, "BACKEND_URL environment variable is required", err.Error())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend:8000/api/")
	t.Setenv("PORT", "")
	t.Setenv("BACKEND_TIMEOUT", "")
	t.Setenv("BACKEND_RPS", "")
	t.Setenv("AGGREGATION_CONCURRENCY", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.Equal(t, float64(20), cfg.BackendRPS)
	assert.Equal(t, 8, cfg.AggregationConcurrency)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "timeout", key: "BACKEND_TIMEOUT", value: "soon"},
		{name: "negative rps", key: "BACKEND_RPS", value: "-1"},
		{name: "zero concurrency", key: "AGGREGATION_CONCURRENCY", value: "0"},
		{name: "ttl", key: "SESSION_TTL", value: "forever"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BACKEND_URL", "http://backend")
			t.Setenv("DB_HOST", "")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDatabaseNeedsUser(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USERNAME", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USERNAME")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}
