package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects run counters. The process is a batch job, so the registry
// is dumped in textfile-collector format at exit instead of being served.
type Metrics struct {
	registry *prometheus.Registry

	PagesFetched      *prometheus.CounterVec
	ProductsExtracted prometheus.Counter
	AssetDownloads    *prometheus.CounterVec
	ProductsFailed    prometheus.Counter
	ProductsStored    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PagesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_pages_fetched_total",
				Help: "Pages fetched, by kind (category, product)",
			},
			[]string{"kind"},
		),
		ProductsExtracted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_products_extracted_total",
				Help: "Products extracted from product pages",
			},
		),
		AssetDownloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_asset_downloads_total",
				Help: "Asset downloads, by result (ok, error)",
			},
			[]string{"result"},
		),
		ProductsFailed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_product_downloads_failed_total",
				Help: "Products whose asset fan-out failed",
			},
		),
		ProductsStored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_products_stored_total",
				Help: "Products written to the catalog database, by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		m.PagesFetched,
		m.ProductsExtracted,
		m.AssetDownloads,
		m.ProductsFailed,
		m.ProductsStored,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile пишет метрики в файл; пустой путь: ничего не делаем.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
