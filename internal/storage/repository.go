package storage

import (
	"context"

	"japanoil-catalog/internal/export"
	"japanoil-catalog/internal/scraper"
)

// ProductRecord: строка каталога для сохранения в БД
type ProductRecord struct {
	SKU              string
	CatalogID        int
	Title            string
	ShortDescription string
	Description      string
	ImageURL         string
	TDSFormPDFURL    string
	MSDSFormPDFURL   string
	SourceURL        string
	CheckSum         string // SHA256 контента
}

// Outcome of an upsert.
type Outcome string

const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// Repository интерфейс для работы с хранилищем каталога
type Repository interface {
	// UpsertProduct сохраняет товар по SKU; строка с тем же CheckSum не трогается
	UpsertProduct(ctx context.Context, rec *ProductRecord) (Outcome, error)

	// GetProductCount получает количество товаров в каталоге
	GetProductCount(ctx context.Context) (int, error)

	Close() error
}

// NewProductRecord builds the stored form of the product at catalog index.
func NewProductRecord(index int, p *scraper.Product, checkSum string) *ProductRecord {
	return &ProductRecord{
		SKU:              export.SKU(index),
		CatalogID:        export.ID(index),
		Title:            p.Title,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		ImageURL:         p.ImageURL,
		TDSFormPDFURL:    p.TDSFormPDFURL,
		MSDSFormPDFURL:   p.MSDSFormPDFURL,
		SourceURL:        p.SourceURL,
		CheckSum:         checkSum,
	}
}
