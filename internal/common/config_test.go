package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "screener.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 500*time.Millisecond, config.Fetch.Delay.Duration)
	assert.Equal(t, 24*time.Hour, config.Fetch.TTL.Duration)
	assert.Equal(t, 3, config.Fetch.Retries)
	assert.True(t, config.Fetch.UseCache)
	assert.Equal(t, time.Second, config.Fetch.BackoffStep.Duration)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 5000, config.Server.Port)
	assert.Equal(t, CacheBackendFile, config.Cache.Backend)
	assert.Equal(t, "./reports", config.Reports.Dir)
	assert.NoError(t, config.Validate())
}

func TestLoadFromFilesLayers(t *testing.T) {
	base := writeConfig(t, `
[fetch]
delay = "1s"
retries = 5

[screener]
default_tickers = ["AAPL", "MSFT"]

[[screener.rules]]
key = "market_cap_min"
value = 1000000000

[[screener.rules]]
key = "positive_earnings"
value = true
`)
	override := writeConfig(t, `
[fetch]
retries = 2

[server]
port = 8080
`)

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, time.Second, config.Fetch.Delay.Duration)
	assert.Equal(t, 2, config.Fetch.Retries)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, []string{"AAPL", "MSFT"}, config.Screener.DefaultTickers)
	assert.Equal(t, []string{"market_cap_min", "positive_earnings"}, config.Screener.Rules.Keys())

	value, ok := config.Screener.Rules.Get("positive_earnings")
	require.True(t, ok)
	assert.Equal(t, true, value)
}

func TestLoadFromFilesErrors(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadFromFiles(writeConfig(t, "[fetch\n"))
	assert.Error(t, err)

	_, err = LoadFromFiles(writeConfig(t, "[fetch]\ndelay = \"soon\"\n"))
	assert.Error(t, err)

	_, err = LoadFromFiles(writeConfig(t, "[cache]\nbackend = \"memcached\"\n"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCREENER_SERVER_PORT", "9090")
	t.Setenv("SCREENER_SERVER_HOST", "0.0.0.0")
	t.Setenv("EODHD_API_KEY", "plain-key")
	t.Setenv("SCREENER_CACHE_BACKEND", "Badger")
	t.Setenv("SCREENER_LOG_LEVEL", "DEBUG")

	config, err := LoadFromFile("")
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, "plain-key", config.EODHD.APIKey)
	assert.Equal(t, CacheBackendBadger, config.Cache.Backend)
	assert.Equal(t, "debug", config.Logging.Level)

	t.Setenv("SCREENER_EODHD_API_KEY", "prefixed-key")
	config, err = LoadFromFile("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed-key", config.EODHD.APIKey)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 5000, config.Server.Port)

	ApplyFlagOverrides(config, 7000, "localhost")
	assert.Equal(t, 7000, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
}

func TestValidate(t *testing.T) {
	config := NewDefaultConfig()
	config.Fetch.Retries = 0
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Reports.Formats = []string{"csv", "docx"}
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Cache.Backend = CacheBackendRedis
	config.Storage.Redis.Addr = ""
	assert.Error(t, config.Validate())
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 6 * * 1-5"))
	assert.NoError(t, ValidateSchedule("@daily"))
	assert.Error(t, ValidateSchedule(""))
	assert.Error(t, ValidateSchedule("every morning"))
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("ninety")))
}

func TestLoadVersion(t *testing.T) {
	original := Version
	t.Cleanup(func() { Version = original })

	path := filepath.Join(t.TempDir(), ".version")
	assert.Equal(t, original, loadVersion(path))

	require.NoError(t, os.WriteFile(path, []byte("1.2.3\n"), 0644))
	assert.Equal(t, "1.2.3", loadVersion(path))
	assert.Contains(t, GetFullVersion(), "1.2.3")
}

func TestNewSilentLogger(t *testing.T) {
	logger := NewSilentLogger()
	require.NotNil(t, logger)
	assert.NotPanics(t, func() {
		logger.Info().Str("ticker", "AAPL").Msg("discarded")
	})
}
