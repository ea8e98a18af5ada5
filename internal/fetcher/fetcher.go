package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"japanoil-catalog/internal/config"
	"japanoil-catalog/internal/observability"
)

var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type Fetcher struct {
	client      *http.Client
	cfg         *config.Config
	logger      *observability.Logger
	robotsCache *RobotsCache
	rateLimiter *RateLimiter
	renderer    *Renderer
}

type FetchResponse struct {
	StatusCode int
	Body       []byte
	URL        string
	Headers    http.Header
}

// NewFetcher создаёт общий HTTP-клиент; он переиспользуется всеми запросами.
func NewFetcher(cfg *config.Config, logger *observability.Logger) *Fetcher {
	dialer := &net.Dialer{
		Timeout:   cfg.GetConnectTimeout(),
		KeepAlive: 30 * time.Second,
	}
	client := &http.Client{
		Timeout: cfg.GetTotalTimeout(),
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   cfg.GetConnectTimeout(),
			ResponseHeaderTimeout: cfg.GetConnectTimeout(),
			MaxIdleConns:          cfg.HTTP.MaxIdleConnections,
			MaxIdleConnsPerHost:   cfg.HTTP.MaxIdleConnectionsPerHost,
			IdleConnTimeout:       cfg.GetIdleConnectionTimeout(),
		},
	}

	f := &Fetcher{
		client:      client,
		cfg:         cfg,
		logger:      logger,
		rateLimiter: NewRateLimiter(cfg.RateLimit.RPM, cfg.RateLimit.Burst),
	}
	if cfg.Robots.Enabled {
		f.robotsCache = NewRobotsCache(cfg.GetRobotsCacheTTL(), cfg.Robots.UserAgent)
	}
	return f
}

// WithRenderer routes FetchPage through a headless browser.
func (f *Fetcher) WithRenderer(r *Renderer) *Fetcher {
	f.renderer = r
	return f
}

// FetchPage возвращает тело страницы как текст
func (f *Fetcher) FetchPage(ctx context.Context, urlStr string) (string, error) {
	if f.renderer != nil {
		if err := f.admit(ctx, urlStr); err != nil {
			return "", err
		}
		return f.renderer.Render(ctx, urlStr)
	}

	resp, err := f.Fetch(ctx, urlStr)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// Fetch performs a GET with the configured retry policy and reads the whole body.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*FetchResponse, error) {
	if err := f.admit(ctx, urlStr); err != nil {
		return nil, err
	}

	return backoff.RetryNotifyWithData(func() (*FetchResponse, error) {
		return f.fetchOnce(ctx, urlStr)
	}, f.policy(ctx), f.notify(urlStr))
}

// Open performs a GET with the retry policy and hands the body to the caller
// unread. The caller must close it.
func (f *Fetcher) Open(ctx context.Context, urlStr string) (io.ReadCloser, error) {
	if err := f.admit(ctx, urlStr); err != nil {
		return nil, err
	}

	return backoff.RetryNotifyWithData(func() (io.ReadCloser, error) {
		resp, err := f.do(ctx, urlStr)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}, f.policy(ctx), f.notify(urlStr))
}

// admit проверяет robots.txt и ждёт rate limiter
func (f *Fetcher) admit(ctx context.Context, urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if f.robotsCache != nil {
		allowed, err := f.robotsCache.IsAllowed(ctx, parsedURL, f.client)
		if err != nil {
			return fmt.Errorf("robots.txt check failed: %w", err)
		}
		if !allowed {
			return fmt.Errorf("%w: %s", ErrDisallowed, urlStr)
		}
	}

	if err := f.rateLimiter.Wait(ctx, parsedURL.Host); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}
	return nil
}

func (f *Fetcher) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.cfg.GetBackoffMin()
	b.MaxInterval = f.cfg.GetBackoffMax()
	b.RandomizationFactor = float64(f.cfg.Backoff.JitterPct) / 100
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.cfg.HTTP.MaxRetries)), ctx)
}

func (f *Fetcher) notify(urlStr string) backoff.Notify {
	return func(err error, wait time.Duration) {
		f.logger.Warn("Fetch failed, retrying",
			"url", urlStr,
			"wait", wait.String(),
			"error", err.Error(),
		)
	}
}

// do sends one request. Non-2xx responses are closed and turned into errors;
// only 5xx and 429 are worth another attempt.
func (f *Fetcher) do(ctx context.Context, urlStr string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if f.cfg.HTTP.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.HTTP.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		if err := resp.Body.Close(); err != nil {
			f.logger.Debug("Failed to close response body", "error", err.Error())
		}
		statusErr := &StatusError{URL: urlStr, StatusCode: resp.StatusCode}
		if statusErr.retryable() {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	return resp, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, urlStr string) (*FetchResponse, error) {
	resp, err := f.do(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Debug("Failed to close response body", "error", err.Error())
		}
	}()

	// Transport снимает gzip сам, если мы не ставили Accept-Encoding;
	// сервер всё равно может прислать сжатое тело.
	reader := io.Reader(resp.Body)
	if resp.Header.Get("Content-Encoding") == "gzip" && !resp.Uncompressed {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Fetched",
		"url", urlStr,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"bytes", len(body),
	)

	return &FetchResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
		URL:        resp.Request.URL.String(),
		Headers:    resp.Header,
	}, nil
}
