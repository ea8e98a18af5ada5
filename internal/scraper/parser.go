package scraper

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

const descriptionLinks = "\n\n" +
	`<a href="%s" target="_blank" rel="noopener">TDS FORMU</a>` + "\n" +
	`<a href="%s" target="_blank" rel="noopener">MSDS FORMU</a>`

var ErrMalformedDescription = errors.New("description has no period")

// resolveValue возвращает значение первого совпадения:
// href для <a>, src для <img>, иначе весь текст потомков.
func resolveValue(matches *goquery.Selection) string {
	sel := matches.First()
	if sel.Length() == 0 {
		return ""
	}

	switch goquery.NodeName(sel) {
	case "a":
		return sel.AttrOr("href", "")
	case "img":
		return sel.AttrOr("src", "")
	default:
		return sel.Text()
	}
}

// BuildDescription appends the TDS and MSDS link fragments to the raw text.
// Empty URLs still produce both links.
func BuildDescription(raw, tdsURL, msdsURL string) string {
	return raw + fmt.Sprintf(descriptionLinks, tdsURL, msdsURL)
}

// ShortDescription returns description up to and including the first period.
func ShortDescription(description string) (string, error) {
	idx := strings.IndexByte(description, '.')
	if idx < 0 {
		return "", ErrMalformedDescription
	}
	return description[:idx+1], nil
}

func trimTitle(s string) string {
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}
