package navigate

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/catalog-crawler/internal/domain"
	"github.com/user/catalog-crawler/internal/fetch"
)

// fakeFetcher serves canned HTML keyed by normalized URL.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fetches int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*fetch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	html, ok := f.pages[url]
	if !ok {
		return nil, &domain.FetchError{Kind: domain.FetchHTTPError, URL: url, Status: 404}
	}
	return &fetch.Result{URL: url, HTML: html, Status: 200}, nil
}

func productPage(name string) string {
	return fmt.Sprintf(`<html><head><title>%s</title>
<script type="application/ld+json">{"@type":"Product","name":"%s","brand":{"name":"Studio"}}</script>
</head><body><h1>%s</h1></body></html>`, name, name, name)
}

func card(href, label string) string {
	return fmt.Sprintf(`<li class="product"><img src="/i.jpg"><a href="%s">%s</a></li>`, href, label)
}

// shopPages is a small site: home links a category hub and a legal
// page, the hub links two listings, the listings share three products.
func shopPages() map[string]string {
	return map[string]string{
		"https://shop.test/": `<html><head><title>Form and Function</title></head><body>
<a href="/furniture">Furniture</a>
<a href="/privacy">Privacy</a>
</body></html>`,

		"https://shop.test/privacy": `<html><head><title>Privacy</title></head><body></body></html>`,

		"https://shop.test/furniture": `<html><head><title>All furniture</title></head><body>
<a href="/furniture/chairs">Chairs</a>
<a href="/furniture/tables">Tables</a>
<a href="/furniture/chairs/">All chairs</a>
<a href="/furniture/tables/">All tables</a>
<a href="/furniture/chairs#picks">Chair picks</a>
<a href="/furniture/tables#picks">Table picks</a>
</body></html>`,

		"https://shop.test/furniture/chairs": `<html><head><title>Chairs</title></head><body><ul>` +
			card("/products/alpha-chair", "Alpha") +
			card("/products/beta-chair", "Beta") +
			card("/products/gamma-chair", "Gamma") +
			card("/products/delta-chair", "Delta") +
			`</ul><a href="/products/alpha-chair">Alpha again</a></body></html>`,

		"https://shop.test/furniture/tables": `<html><head><title>Tables</title></head><body><ul>` +
			card("/products/beta-chair", "Beta") +
			card("/products/gamma-chair", "Gamma") +
			card("/products/delta-chair", "Delta") +
			card("/products/oak-table", "Oak") +
			`</ul></body></html>`,

		"https://shop.test/products/alpha-chair": productPage("Alpha Chair"),
		"https://shop.test/products/beta-chair":  productPage("Beta Chair"),
		"https://shop.test/products/gamma-chair": productPage("Gamma Chair"),
		"https://shop.test/products/delta-chair": productPage("Delta Chair"),
		"https://shop.test/products/oak-table":   productPage("Oak Table"),
	}
}

func TestCrawlWholeSite(t *testing.T) {
	ff := &fakeFetcher{pages: shopPages()}
	nav := New(ff, Config{MaxDepth: 3, Budget: NewPageBudget(50), Concurrency: 2}, zap.NewNop(), nil)

	res := nav.Crawl(context.Background(), "https://shop.test/")

	names := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		names = append(names, rec.Name)
	}
	// Shared products extracted once; order follows traversal order.
	assert.Equal(t, []string{"Alpha Chair", "Beta Chair", "Gamma Chair", "Delta Chair", "Oak Table"}, names)
	assert.Equal(t, 10, res.PagesVisited)
	assert.Zero(t, res.FetchFailures)
	assert.Zero(t, res.ExtractionFailures)
	assert.Equal(t, 10, ff.fetches, "no URL is fetched twice")
}

func TestCrawlPageBudget(t *testing.T) {
	ff := &fakeFetcher{pages: shopPages()}
	nav := New(ff, Config{MaxDepth: 3, Budget: NewPageBudget(3), Concurrency: 1}, zap.NewNop(), nil)

	res := nav.Crawl(context.Background(), "https://shop.test/")

	assert.Equal(t, 3, res.PagesVisited)
	assert.Empty(t, res.Records, "budget exhausted before any product page")
}

func TestCrawlDepthLimit(t *testing.T) {
	ff := &fakeFetcher{pages: shopPages()}
	nav := New(ff, Config{MaxDepth: 1, Budget: NewPageBudget(50), Concurrency: 2}, zap.NewNop(), nil)

	res := nav.Crawl(context.Background(), "https://shop.test/")

	// Depth 1 reaches the hub and the legal page but no listings.
	assert.Empty(t, res.Records)
	assert.Equal(t, 3, res.PagesVisited)
}

func TestCrawlFetchFailureIsPruned(t *testing.T) {
	pages := shopPages()
	delete(pages, "https://shop.test/products/oak-table")
	ff := &fakeFetcher{pages: pages}
	nav := New(ff, Config{MaxDepth: 3, Budget: NewPageBudget(50), Concurrency: 2}, zap.NewNop(), nil)

	res := nav.Crawl(context.Background(), "https://shop.test/")

	assert.Len(t, res.Records, 4)
	assert.Equal(t, 1, res.FetchFailures)
}

func TestCrawlCancelledContext(t *testing.T) {
	ff := &fakeFetcher{pages: shopPages()}
	nav := New(ff, Config{MaxDepth: 3, Budget: NewPageBudget(50), Concurrency: 2}, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := nav.Crawl(ctx, "https://shop.test/")

	assert.Empty(t, res.Records)
	assert.Zero(t, res.PagesVisited)
}

func TestCrawlFollowsPagination(t *testing.T) {
	pageOne := `<html><head><title>Lounge</title></head><body><ul>` +
		card("/products/alpha-chair", "Alpha") +
		card("/products/beta-chair", "Beta") +
		card("/products/gamma-chair", "Gamma") +
		card("/products/delta-chair", "Delta") +
		`</ul><a rel="next" href="/lounge?page=2">2</a></body></html>`
	pageTwo := `<html><head><title>Lounge</title></head><body><ul>` +
		card("/products/beta-chair", "Beta") +
		card("/products/gamma-chair", "Gamma") +
		card("/products/delta-chair", "Delta") +
		card("/products/oak-table", "Oak") +
		`</ul></body></html>`

	pages := shopPages()
	pages["https://shop.test/lounge"] = pageOne
	pages["https://shop.test/lounge?page=2"] = pageTwo
	ff := &fakeFetcher{pages: pages}
	nav := New(ff, Config{MaxDepth: 2, Budget: NewPageBudget(50), Concurrency: 1}, zap.NewNop(), nil)

	res := nav.Crawl(context.Background(), "https://shop.test/lounge")

	names := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		names = append(names, rec.Name)
	}
	assert.Equal(t, []string{"Alpha Chair", "Beta Chair", "Gamma Chair", "Delta Chair", "Oak Table"}, names)
	assert.Equal(t, 7, res.PagesVisited)
}

// The fetch layer resolves load-more pagination during the render, so
// a listing carrying the affordance costs exactly one fetch and one
// unit of the page budget.
func TestCrawlLoadMoreListingFetchedOnce(t *testing.T) {
	listing := `<html><head><title>Lounge</title></head><body><ul>` +
		card("/products/alpha-chair", "Alpha") +
		card("/products/beta-chair", "Beta") +
		card("/products/gamma-chair", "Gamma") +
		card("/products/delta-chair", "Delta") +
		card("/products/oak-table", "Oak") +
		`</ul><button>Load more</button></body></html>`

	pages := shopPages()
	pages["https://shop.test/lounge"] = listing
	ff := &fakeFetcher{pages: pages}
	nav := New(ff, Config{MaxDepth: 1, Budget: NewPageBudget(50), Concurrency: 1}, zap.NewNop(), nil)

	res := nav.Crawl(context.Background(), "https://shop.test/lounge")

	require.Len(t, res.Records, 5)
	assert.Equal(t, 6, res.PagesVisited)
	assert.Equal(t, 6, ff.fetches, "listing is not re-rendered for expansion")
}

// Two crawls drawing from one budget stop at the shared cap.
func TestCrawlSharedBudget(t *testing.T) {
	budget := NewPageBudget(7)
	first := &fakeFetcher{pages: shopPages()}
	second := &fakeFetcher{pages: shopPages()}

	resA := New(first, Config{MaxDepth: 3, Budget: budget, Concurrency: 1}, zap.NewNop(), nil).
		Crawl(context.Background(), "https://shop.test/")
	resB := New(second, Config{MaxDepth: 3, Budget: budget, Concurrency: 1}, zap.NewNop(), nil).
		Crawl(context.Background(), "https://shop.test/")

	assert.Equal(t, 7, resA.PagesVisited)
	assert.Zero(t, resB.PagesVisited)
	assert.Zero(t, second.fetches)
}
