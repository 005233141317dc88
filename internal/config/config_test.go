package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "assessment.db", cfg.Store.DatabaseURL)
	assert.Equal(t, CatalogEmbedded, cfg.Catalog.Source)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 1.5, cfg.Scoring.Weights["financial_health"], 0.001)
	assert.Len(t, cfg.Scoring.Weights, 10)
	assert.Equal(t, []string{"risk_score"}, cfg.Scoring.Inverted)
	assert.InDelta(t, 20, cfg.Scoring.Bands.Initial, 0.001)
	assert.InDelta(t, 80, cfg.Scoring.Bands.Managed, 0.001)
	assert.Equal(t, 300, cfg.Monitoring.CheckIntervalSecs)
	assert.InDelta(t, 0.5, cfg.Monitoring.AbandonRateThreshold, 0.001)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/assessment
log:
  level: debug
  format: console
server:
  port: 9090
catalog:
  source: file
  path: questions.yaml
scoring:
  bands:
    initial: 25
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, CatalogFile, cfg.Catalog.Source)
	assert.InDelta(t, 25, cfg.Scoring.Bands.Initial, 0.001)
	// Defaults still apply for unset values
	assert.InDelta(t, 40, cfg.Scoring.Bands.Developing, 0.001)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("ASSESSMENT_STORE_DRIVER", "postgres")
	t.Setenv("ASSESSMENT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ASSESSMENT_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store:   StoreConfig{Driver: "sqlite", DatabaseURL: "a.db"},
			Catalog: CatalogConfig{Source: CatalogEmbedded},
			Server:  ServerConfig{Port: 8080},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad driver", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver"},
		{"missing url", func(c *Config) { c.Store.DatabaseURL = "" }, "store.database_url"},
		{"file without path", func(c *Config) { c.Catalog.Source = CatalogFile }, "catalog.path"},
		{"notion without token", func(c *Config) { c.Catalog.Source = CatalogNotion }, "notion.token"},
		{"unknown source", func(c *Config) { c.Catalog.Source = "s3" }, "catalog.source"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}

func TestInitLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "assessment.log")
	err := InitLogger(LogConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	zap.L().Info("config: file sink test")
	_ = zap.L().Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "config: file sink test")

	zap.ReplaceGlobals(zap.NewNop())
}
