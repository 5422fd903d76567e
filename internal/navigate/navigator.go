// Package navigate drives breadth-first traversal across a classified
// site graph: category and subcategory pages are expanded, listing
// pages additionally drive URL-based pagination, and product pages are
// handed to the extractor. Load-more pagination is resolved by the
// fetch layer during rendering. Traversal is bounded by a maximum
// depth and a page budget so it terminates even on sites with
// unbounded dynamic content.
package navigate

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/catalog-crawler/internal/classify"
	"github.com/user/catalog-crawler/internal/domain"
	"github.com/user/catalog-crawler/internal/extract"
	"github.com/user/catalog-crawler/internal/fetch"
	"github.com/user/catalog-crawler/internal/monitoring"
	"github.com/user/catalog-crawler/pkg/urlutil"
)

// Config bounds one crawl.
type Config struct {
	MaxDepth    int
	Budget      *PageBudget
	Concurrency int
}

// PageBudget caps total fetches across one job. Crawls of several
// targets within a job share a single budget, so a batch never fetches
// more pages than a single-site job would.
type PageBudget struct {
	mu        sync.Mutex
	remaining int
}

func NewPageBudget(max int) *PageBudget {
	return &PageBudget{remaining: max}
}

// Reserve claims one fetch from the budget.
func (b *PageBudget) Reserve() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// Result is what one site crawl produced. Record order is
// deterministic given a fixed page budget and link order.
type Result struct {
	Records            []domain.ProductRecord
	PagesVisited       int
	FetchFailures      int
	ExtractionFailures int
}

// Navigator walks one site from its seed URL.
type Navigator struct {
	fetcher fetch.Fetcher
	cfg     Config
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

func New(fetcher fetch.Fetcher, cfg Config, logger *zap.Logger, metrics *monitoring.Metrics) *Navigator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Budget == nil {
		cfg.Budget = NewPageBudget(0)
	}
	return &Navigator{fetcher: fetcher, cfg: cfg, logger: logger, metrics: metrics}
}

// crawlState is the mutable state shared by workers of one crawl: the
// visited set, the fetch counter and the node arena. All three are
// guarded by a single mutex to prevent double-enqueue races. The
// visited set never shrinks during a job.
type crawlState struct {
	mu      sync.Mutex
	visited map[string]struct{}
	fetched int
	arena   []*domain.PageNode
}

// enqueue creates a PageNode for a URL not yet in the visited set.
// Marking happens at enqueue time, so no URL is fetched twice within a
// job even when the site graph contains cycles.
func (st *crawlState) enqueue(rawURL string, depth int, parent domain.NodeID) *domain.PageNode {
	norm, err := urlutil.Normalize(rawURL)
	if err != nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, seen := st.visited[norm]; seen {
		return nil
	}
	st.visited[norm] = struct{}{}
	node := &domain.PageNode{
		ID:       domain.NodeID(len(st.arena)),
		URL:      norm,
		Depth:    depth,
		ParentID: parent,
		Status:   domain.StatusQueued,
	}
	st.arena = append(st.arena, node)
	return node
}

// reserveFetch claims one unit of the shared page budget and counts
// it against this crawl.
func (st *crawlState) reserveFetch(budget *PageBudget) bool {
	if !budget.Reserve() {
		return false
	}
	st.mu.Lock()
	st.fetched++
	st.mu.Unlock()
	return true
}

// path reconstructs the traversal path to a node through parent
// back-references.
func (st *crawlState) path(id domain.NodeID) []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	var parts []string
	for id != domain.RootParent {
		node := st.arena[id]
		parts = append([]string{node.URL}, parts...)
		id = node.ParentID
	}
	return parts
}

// nodeOutcome is what processing one node yields: extracted records
// plus candidate child links in document order.
type nodeOutcome struct {
	records       []domain.ProductRecord
	links         []string
	fetchFailed   bool
	extractFailed bool
}

// Crawl traverses the site breadth-first from startURL. Cancelling ctx
// stops new work but already-extracted records are preserved in the
// returned result.
func (n *Navigator) Crawl(ctx context.Context, startURL string) *Result {
	st := &crawlState{visited: make(map[string]struct{})}
	res := &Result{}

	root := st.enqueue(startURL, 0, domain.RootParent)
	if root == nil {
		return res
	}

	frontier := []*domain.PageNode{root}
	for depth := 0; len(frontier) > 0 && depth <= n.cfg.MaxDepth && ctx.Err() == nil; depth++ {
		outcomes := make([]*nodeOutcome, len(frontier))
		sem := make(chan struct{}, n.cfg.Concurrency)
		var wg sync.WaitGroup
		for i, node := range frontier {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, node *domain.PageNode) {
				defer wg.Done()
				outcomes[i] = n.process(ctx, st, node)
				<-sem
			}(i, node)
		}
		wg.Wait()

		// Link collection runs sequentially in frontier order so the
		// visited-set decisions, and with them the output, stay
		// deterministic for a fixed budget and link order.
		var next []*domain.PageNode
		for i, out := range outcomes {
			if out == nil {
				continue
			}
			res.Records = append(res.Records, out.records...)
			if out.fetchFailed {
				res.FetchFailures++
			}
			if out.extractFailed {
				res.ExtractionFailures++
			}
			if frontier[i].Depth >= n.cfg.MaxDepth || ctx.Err() != nil {
				continue
			}
			for _, link := range out.links {
				if child := st.enqueue(link, frontier[i].Depth+1, frontier[i].ID); child != nil {
					next = append(next, child)
				}
			}
		}
		frontier = next
	}

	res.PagesVisited = st.fetched
	return res
}

// process runs one node through the fetching → classified →
// {expanded | extracted | pruned} state machine.
func (n *Navigator) process(ctx context.Context, st *crawlState, node *domain.PageNode) *nodeOutcome {
	out := &nodeOutcome{}
	if ctx.Err() != nil || !st.reserveFetch(n.cfg.Budget) {
		node.Status = domain.StatusPruned
		return out
	}

	node.Status = domain.StatusFetching
	page, err := n.fetcher.Fetch(ctx, node.URL)
	if err != nil {
		n.logger.Warn("fetch failed, pruning node", zap.String("url", node.URL), zap.Error(err))
		node.Status = domain.StatusPruned
		out.fetchFailed = true
		return out
	}
	node.HTML = page.HTML

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(node.HTML))
	if err != nil {
		node.Status = domain.StatusPruned
		node.HTML = ""
		return out
	}

	pageURL := node.URL
	if page.FinalURL != "" {
		pageURL = page.FinalURL
	}
	node.Label = classify.Classify(doc, pageURL)
	node.Status = domain.StatusClassified
	n.metrics.IncClassified(string(node.Label))

	switch node.Label {
	case domain.LabelProduct:
		rec, err := extract.Product(doc, pageURL)
		if err != nil {
			n.logger.Warn("product extraction failed", zap.String("url", node.URL), zap.Error(err))
			node.Status = domain.StatusPruned
			out.extractFailed = true
			break
		}
		rec.SourceNodeID = node.ID
		out.records = append(out.records, *rec)
		node.Status = domain.StatusExtracted
		n.logger.Debug("extracted product",
			zap.String("name", rec.Name),
			zap.Strings("path", st.path(node.ID)))

	case domain.LabelListing:
		// The fetch layer already drove any load-more affordance, so
		// the document holds the fully expanded listing.
		out.links = extractLinks(doc, pageURL)
		if next := nextPageLink(doc, pageURL); next != "" {
			out.links = append([]string{next}, out.links...)
		}
		node.Status = domain.StatusExpanded

	case domain.LabelHome, domain.LabelCategory, domain.LabelSubcategory:
		out.links = extractLinks(doc, pageURL)
		node.Status = domain.StatusExpanded

	default:
		node.Status = domain.StatusPruned
	}

	// Content is released once the decision for this node is final;
	// only URL and label persist.
	node.HTML = ""
	return out
}

// extractLinks returns same-host links in document order.
func extractLinks(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") {
			return
		}
		abs, err := urlutil.ToAbsolute(base, href)
		if err != nil {
			return
		}
		if !strings.HasPrefix(abs, "http") || !urlutil.SameHost(abs, pageURL) {
			return
		}
		links = append(links, abs)
	})
	return links
}

// nextPageLink returns the URL-based pagination successor of a
// listing, if it advertises one. The successor is enqueued ahead of
// the listing's other links so paging survives a tight page budget.
func nextPageLink(doc *goquery.Document, pageURL string) string {
	if !classify.HasNextPage(doc) {
		return ""
	}
	href, ok := doc.Find("a[rel='next']").First().Attr("href")
	if !ok {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	abs, err := urlutil.ToAbsolute(base, href)
	if err != nil || !urlutil.SameHost(abs, pageURL) {
		return ""
	}
	return abs
}
