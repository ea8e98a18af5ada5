package app

import (
	"context"
	"fmt"

	"japanoil-catalog/internal/checksum"
	"japanoil-catalog/internal/config"
	"japanoil-catalog/internal/download"
	"japanoil-catalog/internal/export"
	"japanoil-catalog/internal/observability"
	"japanoil-catalog/internal/scraper"
	"japanoil-catalog/internal/storage"
)

// PageFetcher returns a page body as text. fetcher.Fetcher implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

type Orchestrator struct {
	cfg        *config.Config
	logger     *observability.Logger
	metrics    *observability.Metrics
	fetcher    PageFetcher
	scraper    *scraper.Scraper
	downloader *download.Downloader
	repo       storage.Repository
	checksum   *checksum.Generator
}

func NewOrchestrator(
	cfg *config.Config,
	logger *observability.Logger,
	metrics *observability.Metrics,
	f PageFetcher,
	s *scraper.Scraper,
	d *download.Downloader,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		fetcher:    f,
		scraper:    s,
		downloader: d,
		checksum:   checksum.NewGenerator(),
	}
}

// WithRepository включает зеркалирование каталога в БД
func (o *Orchestrator) WithRepository(repo storage.Repository) *Orchestrator {
	o.repo = repo
	return o
}

type RunStats struct {
	Categories      int
	ProductURLs     int
	Products        int
	Stored          map[storage.Outcome]int
	StoreFailed     int
	DownloadsFailed int
}

// Run: категории → товары → CSV → (БД) → файлы.
// Ошибки обхода, извлечения и записи CSV фатальны; ошибки загрузок: нет.
func (o *Orchestrator) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{Stored: make(map[storage.Outcome]int)}

	productURLs, err := o.crawlCategories(ctx, stats)
	if err != nil {
		return stats, err
	}

	products, err := o.extractProducts(ctx, productURLs)
	if err != nil {
		return stats, err
	}
	stats.Products = len(products)

	o.logger.Info("CSV creating...", "path", o.cfg.Output.CatalogPath, "products", len(products))
	if err := export.WriteCatalogFile(o.cfg.Output.CatalogPath, products); err != nil {
		return stats, fmt.Errorf("failed to export catalog: %w", err)
	}

	if o.repo != nil {
		o.storeProducts(ctx, products, stats)
	}

	o.logger.Info("Downloading files...", "dir", o.cfg.Output.AssetsDir)
	stats.DownloadsFailed = o.downloader.DownloadAll(ctx, products)

	o.logger.Info("Done!",
		"categories", stats.Categories,
		"product_urls", stats.ProductURLs,
		"products", stats.Products,
		"downloads_failed", stats.DownloadsFailed,
	)
	return stats, nil
}

// crawlCategories обходит категории последовательно; дубли между категориями сохраняются
func (o *Orchestrator) crawlCategories(ctx context.Context, stats *RunStats) ([]string, error) {
	var productURLs []string

	for _, categoryURL := range o.cfg.SeedURLs {
		o.logger.Info("Processing category", "url", categoryURL)

		body, err := o.fetcher.FetchPage(ctx, categoryURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch category %s: %w", categoryURL, err)
		}
		o.pageFetched("category")

		urls, err := o.scraper.ParseListing(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse category %s: %w", categoryURL, err)
		}

		o.logger.Info("Category parsed", "url", categoryURL, "products", len(urls))
		stats.Categories++
		productURLs = append(productURLs, urls...)
	}

	stats.ProductURLs = len(productURLs)
	return productURLs, nil
}

func (o *Orchestrator) extractProducts(ctx context.Context, productURLs []string) ([]*scraper.Product, error) {
	products := make([]*scraper.Product, 0, len(productURLs))

	for i, productURL := range productURLs {
		o.logger.Debug("Processing product", "index", i, "url", productURL)

		body, err := o.fetcher.FetchPage(ctx, productURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch product %s: %w", productURL, err)
		}
		o.pageFetched("product")

		product, err := o.scraper.ParseProduct(productURL, body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse product %s: %w", productURL, err)
		}

		if o.metrics != nil {
			o.metrics.ProductsExtracted.Inc()
		}
		products = append(products, product)
	}

	return products, nil
}

// storeProducts: ошибки БД не фатальны: CSV уже записан.
func (o *Orchestrator) storeProducts(ctx context.Context, products []*scraper.Product, stats *RunStats) {
	for i, p := range products {
		rec := storage.NewProductRecord(i, p, o.checksum.GenerateProductHash(p))

		outcome, err := o.repo.UpsertProduct(ctx, rec)
		if err != nil {
			stats.StoreFailed++
			o.logger.Error("Failed to store product",
				"sku", rec.SKU,
				"title", rec.Title,
				"error", err.Error(),
			)
			if o.metrics != nil {
				o.metrics.ProductsStored.WithLabelValues("error").Inc()
			}
			continue
		}

		stats.Stored[outcome]++
		if o.metrics != nil {
			o.metrics.ProductsStored.WithLabelValues(string(outcome)).Inc()
		}
	}

	total, err := o.repo.GetProductCount(ctx)
	if err != nil {
		o.logger.Warn("Failed to count stored products", "error", err.Error())
	}

	o.logger.Info("Catalog stored",
		"inserted", stats.Stored[storage.OutcomeInserted],
		"updated", stats.Stored[storage.OutcomeUpdated],
		"unchanged", stats.Stored[storage.OutcomeUnchanged],
		"failed", stats.StoreFailed,
		"total_in_db", total,
	)
}

func (o *Orchestrator) pageFetched(kind string) {
	if o.metrics != nil {
		o.metrics.PagesFetched.WithLabelValues(kind).Inc()
	}
}
