package scraper

import (
	"errors"
	"fmt"
)

// Product: одна позиция каталога, извлечённая со страницы товара.
// Отсутствующие поля всегда пустая строка.
type Product struct {
	Title            string
	ShortDescription string
	Description      string
	ImageURL         string
	TDSFormPDFURL    string
	MSDSFormPDFURL   string
	SourceURL        string
}

// AssetURLs returns image, TDS and MSDS URLs in download order.
func (p *Product) AssetURLs() []string {
	return []string{p.ImageURL, p.TDSFormPDFURL, p.MSDSFormPDFURL}
}

// Ключи таблицы селекторов
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldImageURL    = "image_url"
	FieldTDSFormPDF  = "tds_form_pdf_url"
	FieldMSDSFormPDF = "msds_form_pdf_url"
)

// ProductFields lists the selector keys every table must define.
var ProductFields = []string{
	FieldTitle,
	FieldDescription,
	FieldImageURL,
	FieldTDSFormPDF,
	FieldMSDSFormPDF,
}

var ErrUnknownSelector = errors.New("unknown selector key")

// Selectors: таблица CSS-селекторов, загружается один раз и дальше только читается.
type Selectors struct {
	ProductLink string            `yaml:"product_link"`
	Fields      map[string]string `yaml:"fields"`
}

// DefaultSelectors returns the selector table for the japanoil.jp markup.
func DefaultSelectors() *Selectors {
	const root = "#content > div:nth-of-type(2) > div > section:nth-of-type(2) > div > "
	return &Selectors{
		ProductLink: ".elementor-image-box-title a",
		Fields: map[string]string{
			FieldTitle: root +
				"div:nth-of-type(2) > div > div > div > h2",
			FieldDescription: root +
				"div:nth-of-type(2) > div > section:first-of-type > div > div > div > div > div > p",
			FieldTDSFormPDF: root +
				"div:nth-of-type(2) > div > section:nth-of-type(3) > div > div:first-of-type > div > div:nth-of-type(3) > div > div > a",
			FieldMSDSFormPDF: root +
				"div:nth-of-type(2) > div > section:nth-of-type(3) > div > div:nth-of-type(2) > div > div:nth-of-type(3) > div > div > a",
			FieldImageURL: root +
				"div:first-of-type > div > div > div > img",
		},
	}
}

// Lookup возвращает селектор по ключу
func (s *Selectors) Lookup(key string) (string, error) {
	sel, ok := s.Fields[key]
	if !ok || sel == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownSelector, key)
	}
	return sel, nil
}

// Validate проверяет что все обязательные ключи заданы
func (s *Selectors) Validate() error {
	if s.ProductLink == "" {
		return fmt.Errorf("product_link selector is required")
	}
	for _, key := range ProductFields {
		if _, err := s.Lookup(key); err != nil {
			return err
		}
	}
	return nil
}
