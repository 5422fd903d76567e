// Package extract derives structured product records from pages
// classified as product pages. Field derivation is layered: structured
// metadata embedded in the page (schema.org JSON-LD, OpenGraph tags)
// is preferred, selector heuristics fill the gaps, and the most
// prominent heading is the last resort for the name. Only the name and
// product URL are required; designer and description are best-effort.
package extract

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/catalog-crawler/internal/domain"
)

var (
	nameSelectors = []string{
		"h1", "h2", ".product-title", ".product-name", ".title", ".name",
		"[class*='title']", "[class*='name']",
	}
	descSelectors = []string{
		".description", ".product-description", ".product-info",
		".details", "[class*='description']",
	}
	designerSelectors = []string{
		".designer", ".brand", ".author", "[class*='designer']", "[class*='brand']",
	}
	// regionSelectors identify the product content region whose images
	// belong to the product, in document order.
	regionSelectors = []string{
		".product", ".product-detail", "[class*='product']", "main", "article",
	}

	designerPrefix = regexp.MustCompile(`(?i)^(by|design by|designed by|designer:?|brand:?)\s*`)
	designedByText = regexp.MustCompile(`(?i)design(?:ed)?\s+by\s+([\p{L}][\p{L}' ]{1,40})`)

	furnitureTypes = []string{
		"sofa", "armchair", "chair", "table", "bench", "stool", "ottoman",
		"pouffe", "bookshelf", "shelf", "cabinet", "bed", "desk", "lamp",
	}
)

// Product derives a ProductRecord from a product-classified page.
// It fails with an ExtractionError when no plausible name can be found.
func Product(doc *goquery.Document, pageURL string) (*domain.ProductRecord, error) {
	base, err := url.Parse(pageURL)
	if err != nil || pageURL == "" {
		return nil, &domain.ExtractionError{URL: pageURL, MissingField: "productUrl"}
	}

	rec := &domain.ProductRecord{ProductURL: pageURL}

	if ld := fromJSONLD(doc); ld != nil {
		rec.Name = ld.Name
		rec.Description = ld.Description
		rec.Designer = ld.Brand
		rec.FurnitureType = strings.ToLower(ld.Category)
		for _, img := range ld.Images {
			appendImage(rec, base, img)
		}
	}

	if rec.Name == "" {
		if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
			rec.Name = clean(og)
		}
	}
	if rec.Name == "" {
		rec.Name = firstText(doc, nameSelectors)
	}
	if rec.Name == "" {
		return nil, &domain.ExtractionError{URL: pageURL, MissingField: "name"}
	}

	if rec.Description == "" {
		if og, ok := doc.Find("meta[property='og:description']").Attr("content"); ok {
			rec.Description = clean(og)
		}
	}
	if rec.Description == "" {
		if desc := firstText(doc, descSelectors); len(desc) > 20 && !strings.EqualFold(desc, rec.Name) {
			rec.Description = desc
		}
	}

	if rec.Designer == "" {
		rec.Designer = designerPrefix.ReplaceAllString(firstText(doc, designerSelectors), "")
	}
	if rec.Designer == "" {
		if m := designedByText.FindStringSubmatch(doc.Find("body").Text()); m != nil {
			rec.Designer = clean(m[1])
		}
	}

	if len(rec.ImageURLs) == 0 {
		collectImages(rec, doc, base)
	}
	if rec.FurnitureType == "" {
		rec.FurnitureType = inferType(pageURL, rec.Name)
	}
	return rec, nil
}

// collectImages walks image elements within the product content region,
// preserving document order; the first image is the primary one.
func collectImages(rec *domain.ProductRecord, doc *goquery.Document, base *url.URL) {
	region := doc.Selection
	for _, sel := range regionSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			region = s
			break
		}
	}
	region.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := firstAttr(s, "src", "data-src", "data-lazy", "data-original")
		appendImage(rec, base, src)
	})
}

func appendImage(rec *domain.ProductRecord, base *url.URL, src string) {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return
	}
	ref, err := url.Parse(src)
	if err != nil {
		return
	}
	abs := base.ResolveReference(ref).String()
	for _, existing := range rec.ImageURLs {
		if existing == abs {
			return
		}
	}
	rec.ImageURLs = append(rec.ImageURLs, abs)
}

// jsonLDProduct is the subset of schema.org Product markup we consume.
type jsonLDProduct struct {
	Name        string
	Description string
	Brand       string
	Category    string
	Images      []string
}

// fromJSONLD scans ld+json script blocks for a schema.org Product node,
// including nodes nested inside @graph arrays.
func fromJSONLD(doc *goquery.Document) *jsonLDProduct {
	var found *jsonLDProduct
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw interface{}
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true
		}
		found = findProductNode(raw)
		return found == nil
	})
	return found
}

func findProductNode(raw interface{}) *jsonLDProduct {
	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			if p := findProductNode(item); p != nil {
				return p
			}
		}
	case map[string]interface{}:
		if t, _ := v["@type"].(string); strings.EqualFold(t, "Product") {
			return decodeProductNode(v)
		}
		if graph, ok := v["@graph"]; ok {
			return findProductNode(graph)
		}
	}
	return nil
}

func decodeProductNode(node map[string]interface{}) *jsonLDProduct {
	p := &jsonLDProduct{}
	p.Name, _ = node["name"].(string)
	p.Description, _ = node["description"].(string)
	p.Category, _ = node["category"].(string)

	switch brand := node["brand"].(type) {
	case string:
		p.Brand = brand
	case map[string]interface{}:
		p.Brand, _ = brand["name"].(string)
	}
	if p.Brand == "" {
		if creator, ok := node["creator"].(map[string]interface{}); ok {
			p.Brand, _ = creator["name"].(string)
		}
	}

	switch img := node["image"].(type) {
	case string:
		p.Images = []string{img}
	case []interface{}:
		for _, item := range img {
			if s, ok := item.(string); ok {
				p.Images = append(p.Images, s)
			}
		}
	case map[string]interface{}:
		if u, ok := img["url"].(string); ok {
			p.Images = []string{u}
		}
	}

	p.Name = clean(p.Name)
	p.Description = clean(p.Description)
	p.Brand = clean(p.Brand)
	return p
}

// inferType guesses the furniture type from the URL path and name so
// the price merger has a second join key to work with.
func inferType(pageURL, name string) string {
	haystack := strings.ToLower(pageURL + " " + name)
	for _, t := range furnitureTypes {
		if strings.Contains(haystack, t) {
			return t
		}
	}
	return ""
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if text := clean(s.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

func firstAttr(s *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := s.Attr(name); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var whitespace = regexp.MustCompile(`\s+`)

func clean(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
