package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"japanoil-catalog/internal/scraper"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.SeedURLs, 6)
	require.Equal(t, "products.csv", cfg.Output.CatalogPath)
	require.Equal(t, 0, cfg.HTTP.MaxRetries)

	// Default() отдаёт копию списка категорий
	cfg.SeedURLs[0] = "changed"
	require.NotEqual(t, "changed", DefaultSeedURLs[0])
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	t.Setenv("TEST_CATALOG_DSN", "sqlserver://user:pass@db:1433?database=catalog")

	path := writeFile(t, "config.yaml", `
seed_urls:
  - https://japanoil.jp/motorcycle-oils/
http:
  max_retries: 3
output:
  catalog_path: out/products.csv
storage:
  enabled: true
  dsn: "${TEST_CATALOG_DSN}"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, []string{"https://japanoil.jp/motorcycle-oils/"}, cfg.SeedURLs)
	require.Equal(t, 3, cfg.HTTP.MaxRetries)
	require.Equal(t, 60000, cfg.HTTP.TotalTimeoutMS)
	require.Equal(t, "out/products.csv", cfg.Output.CatalogPath)
	require.Equal(t, ".", cfg.Output.AssetsDir)
	require.Equal(t, "sqlserver://user:pass@db:1433?database=catalog", cfg.Storage.DSN)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty seeds", "seed_urls: []\n"},
		{"negative retries", "http:\n  max_retries: -1\n"},
		{"backoff order", "backoff:\n  min_ms: 100\n  max_ms: 10\n"},
		{"storage without dsn", "storage:\n  enabled: true\n  dsn: \"\"\n"},
		{"unknown field", "unknown_key: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "config.yaml", tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoadConfigOrDefault(t *testing.T) {
	cfg, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSelectorsMergesDefaults(t *testing.T) {
	path := writeFile(t, "selectors.yaml", `
product_link: "h3.title a"
fields:
  title: "h1.product-title"
`)

	s, err := LoadSelectors(path)
	require.NoError(t, err)

	require.Equal(t, "h3.title a", s.ProductLink)
	title, err := s.Lookup(scraper.FieldTitle)
	require.NoError(t, err)
	require.Equal(t, "h1.product-title", title)

	// Остальные ключи: из встроенной таблицы
	image, err := s.Lookup(scraper.FieldImageURL)
	require.NoError(t, err)
	require.Equal(t, scraper.DefaultSelectors().Fields[scraper.FieldImageURL], image)
}

func TestConfigSelectors(t *testing.T) {
	cfg := Default()
	s, err := cfg.Selectors()
	require.NoError(t, err)
	require.Equal(t, scraper.DefaultSelectors(), s)

	cfg.SelectorsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.Selectors()
	require.Error(t, err)
}

func TestGetters(t *testing.T) {
	cfg := Default()
	require.Equal(t, "1m0s", cfg.GetTotalTimeout().String())
	require.Equal(t, "10s", cfg.GetConnectTimeout().String())
	require.Equal(t, "500ms", cfg.GetBackoffMin().String())
	require.Equal(t, "12h0m0s", cfg.GetRobotsCacheTTL().String())
}
