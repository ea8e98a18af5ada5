package fetcher

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"japanoil-catalog/internal/config"
)

// Renderer загружает страницы через headless Chrome, когда разметка
// собирается скриптами и обычный GET её не видит.
type Renderer struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	cfg      *config.Config
}

func NewRenderer(cfg *config.Config) (*Renderer, error) {
	l := launcher.New().Headless(true)
	if cfg.Rod.ChromePath != "" {
		l = l.Bin(cfg.Rod.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &Renderer{launcher: l, browser: browser, cfg: cfg}, nil
}

func (r *Renderer) Render(ctx context.Context, urlStr string) (string, error) {
	page, err := r.browser.Context(ctx).Timeout(r.cfg.GetRodPageTimeout()).
		Page(proto.TargetCreateTarget{URL: urlStr})
	if err != nil {
		return "", fmt.Errorf("failed to open page %s: %w", urlStr, err)
	}
	defer func() { _ = page.Close() }()

	if err := page.Timeout(r.cfg.GetRodWaitLoadTimeout()).WaitLoad(); err != nil {
		return "", fmt.Errorf("failed to load page %s: %w", urlStr, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page %s: %w", urlStr, err)
	}
	return html, nil
}

func (r *Renderer) Close() error {
	err := r.browser.Close()
	r.launcher.Cleanup()
	return err
}
