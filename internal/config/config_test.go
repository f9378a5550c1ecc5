package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKlolbullen/bhtriage/internal/model"
	"github.com/MKlolbullen/bhtriage/internal/query"
	"github.com/MKlolbullen/bhtriage/internal/report"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(afero.NewMemMapFs(), "/nope/config.yaml", env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())

	opts, err := cfg.QueryOptions()
	require.NoError(t, err)
	assert.Equal(t, query.Unbounded, opts.Limit)
}

func TestLoadFrom_YAMLAndEnv(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg.yaml", []byte(`
limit: "10"
filter: svc
tiers: critical, HIGH
format: json
log_level: debug
server:
  addr: 0.0.0.0:9000
  cache_ttl: 5m
  max_upload_mb: 64
`), 0o644))

	cfg, err := LoadFrom(fs, "/cfg.yaml", env(map[string]string{
		"BHTRIAGE_FILTER":             "sql",
		"BHTRIAGE_EXCLUDE_PRIVILEGED": "true",
		"BHTRIAGE_DATA_DIR":           "/var/lib/bhtriage",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sql", cfg.Filter)
	assert.True(t, cfg.ExcludePrivilegedDest)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/bhtriage", cfg.Server.DataDir)
	assert.Equal(t, 5*time.Minute, cfg.Server.CacheTTL)
	assert.Equal(t, int64(64), cfg.Server.MaxUploadMB)

	opts, err := cfg.QueryOptions()
	require.NoError(t, err)
	assert.Equal(t, query.Options{
		Filter:                "sql",
		ExcludePrivilegedDest: true,
		Limit:                 query.Max(10),
		Tiers:                 []model.Tier{model.TierCritical, model.TierHigh},
	}, opts)

	f, err := cfg.OutputFormat()
	require.NoError(t, err)
	assert.Equal(t, report.FormatJSON, f)

	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadFrom_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("limit: [unterminated"), 0o644))
	_, err := LoadFrom(fs, "/bad.yaml", env(nil))
	assert.Error(t, err)

	_, err = LoadFrom(afero.NewMemMapFs(), "/x.yaml", env(map[string]string{"BHTRIAGE_EXCLUDE_PRIVILEGED": "maybe"}))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Limit = "-3"
	assert.ErrorIs(t, cfg.Validate(), query.ErrInvalidLimit)

	cfg = Default()
	cfg.Format = "xml"
	assert.ErrorIs(t, cfg.Validate(), report.ErrInvalidFormat)

	cfg = Default()
	cfg.Tiers = "critical,urgent"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Server.MaxUploadMB = 0
	assert.Error(t, cfg.Validate())
}
