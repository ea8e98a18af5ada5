package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"japanoil-catalog/internal/observability"
)

type Scraper struct {
	selectors   *Selectors
	productLink cascadia.Selector
	fields      map[string]cascadia.Selector
	logger      *observability.Logger
}

// NewScraper компилирует таблицу селекторов. Ошибка здесь: дефект конфигурации,
// а не входных данных.
func NewScraper(selectors *Selectors, logger *observability.Logger) (*Scraper, error) {
	if err := selectors.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selectors: %w", err)
	}

	productLink, err := cascadia.Compile(selectors.ProductLink)
	if err != nil {
		return nil, fmt.Errorf("failed to compile product_link selector: %w", err)
	}

	fields := make(map[string]cascadia.Selector, len(ProductFields))
	for _, key := range ProductFields {
		raw, _ := selectors.Lookup(key)
		sel, err := cascadia.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s selector: %w", key, err)
		}
		fields[key] = sel
	}

	return &Scraper{
		selectors:   selectors,
		productLink: productLink,
		fields:      fields,
		logger:      logger,
	}, nil
}

// ParseListing возвращает ссылки на товары со страницы категории в порядке документа
func (s *Scraper) ParseListing(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var urls []string
	doc.FindMatcher(s.productLink).Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}
		urls = append(urls, href)
	})

	return urls, nil
}

// ParseProduct извлекает карточку товара со страницы товара
func (s *Scraper) ParseProduct(pageURL, html string) (*Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	p := &Product{
		Title:          trimTitle(s.value(doc, FieldTitle)),
		ImageURL:       s.value(doc, FieldImageURL),
		TDSFormPDFURL:  s.value(doc, FieldTDSFormPDF),
		MSDSFormPDFURL: s.value(doc, FieldMSDSFormPDF),
		SourceURL:      pageURL,
	}
	p.Description = BuildDescription(s.value(doc, FieldDescription), p.TDSFormPDFURL, p.MSDSFormPDFURL)

	p.ShortDescription, err = ShortDescription(p.Description)
	if err != nil {
		s.logger.Warn("Short description falls back to full description",
			"url", pageURL,
			"error", err.Error(),
		)
		p.ShortDescription = p.Description
	}

	return p, nil
}

func (s *Scraper) value(doc *goquery.Document, key string) string {
	return resolveValue(doc.FindMatcher(s.fields[key]))
}
