package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"japanoil-catalog/internal/scraper"
)

func testProducts() []*scraper.Product {
	return []*scraper.Product{
		{
			Title:            "JAPAN OIL 5W-30 ",
			ShortDescription: "Fully synthetic.",
			Description:      "Fully synthetic.\n\n<a href=\"t\" target=\"_blank\" rel=\"noopener\">TDS FORMU</a>",
			ImageURL:         "https://japanoil.jp/img/5w30.png",
		},
		{
			Title:            "Brake Fluid, DOT 4",
			ShortDescription: "Fren \"hidroliği\".",
			Description:      "Fren \"hidroliği\".",
			ImageURL:         "",
		},
		{
			Title: "Grease EP2",
		},
	}
}

func TestHeader(t *testing.T) {
	require.Len(t, Header, 41)
	require.Equal(t, "ID", Header[0])
	require.Equal(t, "GTIN, UPC, EAN, or ISBN", Header[3])
	require.Equal(t, "Images", Header[30])
	require.Equal(t, "Brands", Header[40])
}

func TestIDAndSKU(t *testing.T) {
	require.Equal(t, 296, ID(0))
	require.Equal(t, "SKU296", SKU(0))
	require.Equal(t, 305, ID(9))
	require.Equal(t, "SKU305", SKU(9))
}

func TestRow(t *testing.T) {
	p := testProducts()[0]
	row := Row(2, p)

	require.Len(t, row, len(Header))

	col := func(name string) string {
		for i, h := range Header {
			if h == name {
				return row[i]
			}
		}
		t.Fatalf("no column %q", name)
		return ""
	}

	require.Equal(t, "298", col("ID"))
	require.Equal(t, "SKU298", col("SKU"))
	require.Equal(t, "simple", col("Type"))
	require.Equal(t, p.Title, col("Name"))
	require.Equal(t, p.ShortDescription, col("Short description"))
	require.Equal(t, p.Description, col("Description"))
	require.Equal(t, p.ImageURL, col("Images"))
	require.Equal(t, "taxable", col("Tax status"))
	require.Equal(t, "10", col("Stock"))
	require.Equal(t, "15", col("Sale price"))
	require.Equal(t, "25", col("Regular price"))
	require.Equal(t, "Motor Yağları > Binek ve Hafif Ticari Araç Motor Yağları", col("Categories"))
	require.Equal(t, "motoryag, yag", col("Tags"))
	require.Equal(t, "JAPAN OIL", col("Brands"))
	require.Equal(t, "0", col("Position"))
	require.Equal(t, "", col("Weight (lbs)"))
}

func TestWriteCatalog(t *testing.T) {
	products := testProducts()

	var buf bytes.Buffer
	require.NoError(t, WriteCatalog(&buf, products))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, len(products)+1)
	require.Equal(t, Header, records[0])
	for i, p := range products {
		require.Equal(t, Row(i, p), records[i+1])
	}
}

func TestWriteCatalogDeterministic(t *testing.T) {
	products := testProducts()

	var first, second bytes.Buffer
	require.NoError(t, WriteCatalog(&first, products))
	require.NoError(t, WriteCatalog(&second, products))
	require.Equal(t, first.Bytes(), second.Bytes())
}

func TestWriteCatalogEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCatalog(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{Header}, records)
}

func TestWriteCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "products.csv")
	products := testProducts()

	require.NoError(t, WriteCatalogFile(path, products))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCatalog(&buf, products))
	require.Equal(t, buf.Bytes(), data)

	// Повторная запись перезаписывает файл тем же содержимым
	require.NoError(t, WriteCatalogFile(path, products))
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, data, again)
}
