package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"japanoil-catalog/internal/scraper"
)

// FirstID is the catalog ID assigned to the first product.
const FirstID = 296

// Header: 41 колонка в формате импорта WooCommerce
var Header = []string{
	"ID",
	"Type",
	"SKU",
	"GTIN, UPC, EAN, or ISBN",
	"Name",
	"Published",
	"Is featured?",
	"Visibility in catalog",
	"Short description",
	"Description",
	"Date sale price starts",
	"Date sale price ends",
	"Tax status",
	"Tax class",
	"In stock?",
	"Stock",
	"Low stock amount",
	"Backorders allowed?",
	"Sold individually?",
	"Weight (lbs)",
	"Length (in)",
	"Width (in)",
	"Height (in)",
	"Allow customer reviews?",
	"Purchase note",
	"Sale price",
	"Regular price",
	"Categories",
	"Tags",
	"Shipping class",
	"Images",
	"Download limit",
	"Download expiry days",
	"Parent",
	"Grouped products",
	"Upsells",
	"Cross-sells",
	"External URL",
	"Button text",
	"Position",
	"Brands",
}

// Fixed business defaults shared by every row.
const (
	productType  = "simple"
	published    = "1"
	featured     = "0"
	visibility   = "visible"
	taxStatus    = "taxable"
	inStock      = "1"
	stock        = "10"
	backorders   = "0"
	soldAlone    = "0"
	allowReviews = "1"
	salePrice    = "15"
	regularPrice = "25"
	categories   = "Motor Yağları > Binek ve Hafif Ticari Araç Motor Yağları"
	tags         = "motoryag, yag"
	position     = "0"
	brand        = "JAPAN OIL"
)

// ID returns the catalog ID for the product at index.
func ID(index int) int {
	return FirstID + index
}

// SKU returns "SKU" followed by the catalog ID.
func SKU(index int) string {
	return "SKU" + strconv.Itoa(ID(index))
}

// Row строит строку CSV для товара с индексом index (с нуля)
func Row(index int, p *scraper.Product) []string {
	return []string{
		strconv.Itoa(ID(index)), // ID
		productType,             // Type
		SKU(index),              // SKU
		"",                      // GTIN
		p.Title,                 // Name
		published,               // Published
		featured,                // Is featured?
		visibility,              // Visibility
		p.ShortDescription,      // Short description
		p.Description,           // Description
		"",                      // Date sale price starts
		"",                      // Date sale price ends
		taxStatus,               // Tax status
		"",                      // Tax class
		inStock,                 // In stock?
		stock,                   // Stock
		"",                      // Low stock amount
		backorders,              // Backorders allowed?
		soldAlone,               // Sold individually?
		"",                      // Weight
		"",                      // Length
		"",                      // Width
		"",                      // Height
		allowReviews,            // Allow customer reviews?
		"",                      // Purchase note
		salePrice,               // Sale price
		regularPrice,            // Regular price
		categories,              // Categories
		tags,                    // Tags
		"",                      // Shipping class
		p.ImageURL,              // Images
		"",                      // Download limit
		"",                      // Download expiry days
		"",                      // Parent
		"",                      // Grouped products
		"",                      // Upsells
		"",                      // Cross-sells
		"",                      // External URL
		"",                      // Button text
		position,                // Position
		brand,                   // Brands
	}
}

// WriteCatalog writes the header and one row per product, in order.
func WriteCatalog(w io.Writer, products []*scraper.Product) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, p := range products {
		if err := writer.Write(Row(i, p)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush catalog: %w", err)
	}
	return nil
}

// WriteCatalogFile пишет каталог в файл и возвращается только после fsync и
// закрытия файла: каталог должен лежать на диске до начала загрузок.
func WriteCatalogFile(path string, products []*scraper.Product) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create catalog dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create catalog file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close catalog file: %w", closeErr)
		}
	}()

	if err := WriteCatalog(file, products); err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync catalog file: %w", err)
	}
	return nil
}
