package checksum

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"japanoil-catalog/internal/scraper"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateProductHash генерирует SHA256 хеш карточки товара
// Формула: SHA256(title|short|description|image|tds|msds)
func (g *Generator) GenerateProductHash(p *scraper.Product) string {
	content := strings.Join([]string{
		p.Title,
		p.ShortDescription,
		p.Description,
		p.ImageURL,
		p.TDSFormPDFURL,
		p.MSDSFormPDFURL,
	}, "|")

	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}

// VerifyProductHash проверяет соответствие хеша
func (g *Generator) VerifyProductHash(expectedHash string, p *scraper.Product) bool {
	return g.GenerateProductHash(p) == expectedHash
}
