package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.PolymarketGammaURL)
	assert.Equal(t, "https://clob.polymarket.com", cfg.PolymarketCLOBURL)
	assert.Equal(t, "https://api.elections.kalshi.com/trade-api/v2", cfg.KalshiAPIURL)
	assert.Equal(t, 100, cfg.PolymarketPageSize)
	assert.Equal(t, 200, cfg.KalshiPageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.VenuePageDelay)
	assert.Equal(t, 2*time.Second, cfg.VenueRateLimitDelay)
	assert.Equal(t, 5, cfg.VenueRateLimitMaxRetries)
	assert.Equal(t, 500, cfg.VenueMaxPages)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.InDelta(t, 0.4, cfg.MatchMinConfidence, 1e-9)
	assert.InDelta(t, 0.5, cfg.MatchMinProfitPct, 1e-9)
	assert.Equal(t, "paper", cfg.ExecutionMode)
	assert.InDelta(t, 100, cfg.ExecutionMaxStake, 1e-9)
	assert.Equal(t, 5*time.Minute, cfg.OpportunityCacheTTL)
	assert.Equal(t, "memory", cfg.StorageMode)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("KALSHI_API_URL", "http://localhost:4000")
	t.Setenv("KALSHI_PAGE_SIZE", "50")
	t.Setenv("VENUE_PAGE_DELAY", "0s")
	t.Setenv("REFRESH_INTERVAL", "0")
	t.Setenv("MATCH_MIN_CONFIDENCE", "0.7")
	t.Setenv("EXECUTION_MODE", "live")
	t.Setenv("STORAGE_MODE", "postgres")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "http://localhost:4000", cfg.KalshiAPIURL)
	assert.Equal(t, 50, cfg.KalshiPageSize)
	assert.Zero(t, cfg.VenuePageDelay)
	assert.Zero(t, cfg.RefreshInterval, "zero disables the refresh timer")
	assert.InDelta(t, 0.7, cfg.MatchMinConfidence, 1e-9)
	assert.Equal(t, "live", cfg.ExecutionMode)
	assert.Equal(t, "postgres", cfg.StorageMode)
}

func TestLoadFromEnv_UnparseableFallsBackToDefault(t *testing.T) {
	t.Setenv("POLYMARKET_PAGE_SIZE", "lots")
	t.Setenv("EXECUTION_MAX_STAKE", "a-hundred")
	t.Setenv("VENUE_HTTP_TIMEOUT", "soon")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.PolymarketPageSize)
	assert.InDelta(t, 100, cfg.ExecutionMaxStake, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.VenueHTTPTimeout)
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{"bad-execution-mode", "EXECUTION_MODE", "yolo", "EXECUTION_MODE"},
		{"bad-storage-mode", "STORAGE_MODE", "s3", "STORAGE_MODE"},
		{"confidence-above-one", "MATCH_MIN_CONFIDENCE", "1.5", "MATCH_MIN_CONFIDENCE"},
		{"negative-refresh", "REFRESH_INTERVAL", "-5s", "REFRESH_INTERVAL"},
		{"negative-page-delay", "VENUE_PAGE_DELAY", "-1s", "VENUE_PAGE_DELAY"},
		{"negative-retries", "VENUE_RATE_LIMIT_MAX_RETRIES", "-1", "VENUE_RATE_LIMIT_MAX_RETRIES"},
		{"zero-page-size", "KALSHI_PAGE_SIZE", "0", "page sizes"},
		{"negative-stake", "EXECUTION_MAX_STAKE", "-10", "EXECUTION_MAX_STAKE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := LoadFromEnv()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "CROSSARB_DOTENV_TEST_VALUE"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o600))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv(key))
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "7000")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT=1234\n"), 0o600))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "7000", os.Getenv("HTTP_PORT"))
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		logger, err := NewLogger(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}

	_, err := NewLogger("chatty")
	assert.Error(t, err)
}
