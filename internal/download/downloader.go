package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"japanoil-catalog/internal/observability"
	"japanoil-catalog/internal/scraper"
)

var ErrMalformedURL = errors.New("malformed asset URL")

// Opener streams the body behind a URL. fetcher.Fetcher implements it.
type Opener interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

type Downloader struct {
	opener  Opener
	baseDir string
	logger  *observability.Logger
	metrics *observability.Metrics
}

func NewDownloader(opener Opener, baseDir string, logger *observability.Logger, metrics *observability.Metrics) *Downloader {
	return &Downloader{
		opener:  opener,
		baseDir: baseDir,
		logger:  logger,
		metrics: metrics,
	}
}

// DirName: имя папки товара: пробелы заменяются на "_".
func DirName(title string) string {
	return strings.ReplaceAll(title, " ", "_")
}

// FileName returns the last "/"-delimited segment of the URL.
func FileName(url string) (string, error) {
	idx := strings.LastIndexByte(url, '/')
	if idx < 0 {
		return "", fmt.Errorf("%w: no path separator in %q", ErrMalformedURL, url)
	}
	name := url[idx+1:]
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: empty file name in %q", ErrMalformedURL, url)
	}
	return name, nil
}

// DownloadProduct скачивает три файла товара параллельно. Первая ошибка отменяет
// остальные загрузки; результат либо все три файла, либо одна ошибка.
func (d *Downloader) DownloadProduct(ctx context.Context, p *scraper.Product) error {
	dir := filepath.Join(d.baseDir, DirName(p.Title))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create dir %s: %w", dir, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, assetURL := range p.AssetURLs() {
		assetURL := assetURL
		g.Go(func() error {
			err := d.downloadFile(gctx, assetURL, dir)
			if d.metrics != nil {
				result := "ok"
				if err != nil {
					result = "error"
				}
				d.metrics.AssetDownloads.WithLabelValues(result).Inc()
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to download assets for %q: %w", p.Title, err)
	}
	return nil
}

// DownloadAll обрабатывает товары строго по очереди. Ошибка одного товара
// логируется и не прерывает остальные; возвращается число неудачных
// (или не начатых из-за отмены) товаров.
func (d *Downloader) DownloadAll(ctx context.Context, products []*scraper.Product) (failed int) {
	for i, p := range products {
		if ctx.Err() != nil {
			d.logger.Warn("Download phase cancelled", "remaining", len(products)-i)
			return failed + len(products) - i
		}

		if err := d.DownloadProduct(ctx, p); err != nil {
			failed++
			if d.metrics != nil {
				d.metrics.ProductsFailed.Inc()
			}
			d.logger.Error("Error downloading files",
				"title", p.Title,
				"image_url", p.ImageURL,
				"tds_url", p.TDSFormPDFURL,
				"msds_url", p.MSDSFormPDFURL,
				"error", err.Error(),
			)
			continue
		}
		d.logger.Info("Successfully downloaded files", "title", p.Title)
	}
	return failed
}

// downloadFile пишет во временный файл и переименовывает только после успеха,
// так что оборванная загрузка не оставляет файла под итоговым именем.
func (d *Downloader) downloadFile(ctx context.Context, url, dir string) (err error) {
	name, err := FileName(url)
	if err != nil {
		return err
	}

	body, err := d.opener.Open(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = body.Close() }()

	tmp, err := os.CreateTemp(dir, name+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, body); err != nil {
		return fmt.Errorf("failed to write %s: %w", url, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return nil
}
