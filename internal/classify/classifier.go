// Package classify labels fetched pages by their role in a shop's
// hierarchy using structural and textual heuristics, without
// site-specific rules. Signals are collected into a feature set first
// and scored against named thresholds, so the heuristic surface stays
// auditable independently of traversal.
package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/catalog-crawler/internal/domain"
)

const (
	// listingCardMin is how many repeated image+link card structures a
	// page needs before it reads as a catalog grid.
	listingCardMin = 4
	// productScoreMin is the single-product signal score needed for the
	// product label. Product wins ties against listing: a mis-visited
	// category page is cheap, a missed product page loses data.
	productScoreMin = 3
	// categoryLinkMin is how many category-flavored links a page needs
	// to read as a category or subcategory hub.
	categoryLinkMin = 5
	// subcategoryPathDepth: category pages this deep in the path (or
	// with a breadcrumb trail) are subcategories.
	subcategoryPathDepth = 2
)

var (
	pricePattern     = regexp.MustCompile(`(?i)([$€£]\s*\d)|(\d[\d.,]*\s*(€|£|\$|eur|usd|gbp))`)
	addToCartPattern = regexp.MustCompile(`(?i)add to (cart|bag|basket)|buy now|purchase`)
	nextPagePattern  = regexp.MustCompile(`(?i)^(next|more|›|»)$`)

	categoryKeywords = []string{
		"category", "collection", "products", "catalog", "furniture",
		"sofa", "armchair", "chair", "table", "shop", "seating",
	}
	irrelevantKeywords = []string{
		"privacy", "terms", "legal", "cookie", "imprint", "contact",
		"about", "blog", "news", "press", "career", "faq", "shipping",
		"returns", "login", "account", "checkout", "wishlist", "newsletter",
	}
)

// features is the raw signal set extracted from one page.
type features struct {
	cards         int  // repeated card-like structures (image + link)
	priceHits     int  // currency-pattern occurrences in text
	addToCart     bool // add-to-cart style affordance present
	schemaProduct bool // schema.org Product markup present
	ogProduct     bool // OpenGraph og:type=product
	headingPrice  bool // dominant heading with a price nearby
	categoryLinks int  // links pointing at category-ish sections
	breadcrumbs   int  // breadcrumb trail length
	pathDepth     int
	chromePage    bool // navigation chrome / legal page signals
}

// Classify labels a fetched page. Ties between product and listing
// signals break toward product.
func Classify(doc *goquery.Document, pageURL string) domain.PageLabel {
	f := collect(doc, pageURL)

	if f.chromePage {
		return domain.LabelIrrelevant
	}
	// Product is checked before listing so that pages carrying both
	// signal sets resolve to the more specific label.
	if f.productScore() >= productScoreMin {
		return domain.LabelProduct
	}
	if f.cards >= listingCardMin {
		return domain.LabelListing
	}
	if f.pathDepth == 0 {
		return domain.LabelHome
	}
	if f.categoryLinks >= categoryLinkMin {
		if f.pathDepth >= subcategoryPathDepth || f.breadcrumbs >= 2 {
			return domain.LabelSubcategory
		}
		return domain.LabelCategory
	}
	return domain.LabelIrrelevant
}

// productScore weighs single-product signals. Structured markup counts
// more than visual heuristics.
func (f features) productScore() int {
	score := 0
	if f.schemaProduct {
		score += 3
	}
	if f.ogProduct {
		score += 2
	}
	if f.addToCart {
		score += 2
	}
	if f.headingPrice {
		score++
	}
	return score
}

func collect(doc *goquery.Document, pageURL string) features {
	var f features

	if u, err := url.Parse(pageURL); err == nil {
		path := strings.Trim(u.Path, "/")
		if path != "" {
			f.pathDepth = len(strings.Split(path, "/"))
		}
		lower := strings.ToLower(u.Path)
		for _, kw := range irrelevantKeywords {
			if strings.Contains(lower, kw) {
				f.chromePage = true
				break
			}
		}
	}
	title := strings.ToLower(doc.Find("title").First().Text())
	for _, kw := range irrelevantKeywords {
		if strings.Contains(title, kw) {
			f.chromePage = true
			break
		}
	}

	// Repeated card structures: containers that pair an image with a link.
	doc.Find(".product, .item, article, li, [class*='product'], [class*='item'], [class*='card']").
		Each(func(_ int, s *goquery.Selection) {
			if s.Find("img").Length() > 0 && s.Find("a[href]").Length() > 0 {
				f.cards++
			}
		})

	body := doc.Find("body").Text()
	f.priceHits = len(pricePattern.FindAllString(body, 20))

	doc.Find("button, input[type='submit'], a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if text == "" {
			text, _ = s.Attr("value")
		}
		if addToCartPattern.MatchString(text) {
			f.addToCart = true
			return false
		}
		return true
	})

	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(s.Text(), `"Product"`) {
			f.schemaProduct = true
			return false
		}
		return true
	})
	if og, ok := doc.Find("meta[property='og:type']").Attr("content"); ok {
		f.ogProduct = strings.Contains(strings.ToLower(og), "product")
	}

	if h1 := doc.Find("h1").First(); h1.Length() > 0 && f.priceHits > 0 {
		f.headingPrice = true
	}

	seen := map[string]struct{}{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		haystack := strings.ToLower(href + " " + s.Text())
		for _, kw := range categoryKeywords {
			if strings.Contains(haystack, kw) {
				if _, dup := seen[href]; !dup {
					seen[href] = struct{}{}
					f.categoryLinks++
				}
				break
			}
		}
	})

	f.breadcrumbs = doc.Find("[class*='breadcrumb'] a, nav[aria-label='breadcrumb'] a").Length()

	return f
}

// HasNextPage reports whether the page advertises URL-based pagination.
func HasNextPage(doc *goquery.Document) bool {
	if doc.Find("a[rel='next']").Length() > 0 {
		return true
	}
	found := false
	doc.Find(".pagination a, [class*='pagination'] a, [class*='pager'] a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if nextPagePattern.MatchString(strings.TrimSpace(s.Text())) {
			found = true
			return false
		}
		return true
	})
	return found
}
