// Package seed normalizes a crawl input, a brand name or a URL, into
// a canonical start URL. URLs pass through; brand names go through
// search-based discovery, picking the highest-scoring plausible
// official domain.
package seed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/user/catalog-crawler/internal/domain"
	"github.com/user/catalog-crawler/pkg/urlutil"
)

// minPlausibleScore is the lowest candidate score accepted as an
// official site. Below it the brand is unresolvable.
const minPlausibleScore = 3

// SearchResult is one hit from the discovery lookup.
type SearchResult struct {
	URL   string
	Title string
}

// Searcher performs the discovery lookup. No specific provider is
// assumed; anything that can answer "<brand> official site" works.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// marketplaceDomains never count as a brand's official site.
var marketplaceDomains = []string{
	"amazon.", "ebay.", "wayfair.", "etsy.", "ikea.com/us/en/search",
	"pinterest.", "instagram.", "facebook.", "youtube.", "linkedin.",
	"wikipedia.", "twitter.", "x.com", "tiktok.",
}

// ecommerceSignals hint that a candidate page sells something.
var ecommerceSignals = []string{"shop", "store", "collection", "products", "furniture", "catalog"}

// Resolver resolves crawl inputs into SiteTargets.
type Resolver struct {
	searcher Searcher
	logger   *zap.Logger
}

func NewResolver(searcher Searcher, logger *zap.Logger) *Resolver {
	return &Resolver{searcher: searcher, logger: logger}
}

// Resolve returns a resolved SiteTarget, or ErrUnresolvableBrand when
// no plausible official site can be found for a brand name. A failed
// input never aborts its batch siblings; the caller records the
// failure and moves on.
func (r *Resolver) Resolve(ctx context.Context, input string) (domain.SiteTarget, error) {
	input = strings.TrimSpace(input)
	target := domain.SiteTarget{Input: input, Status: domain.TargetUnresolvable}

	if raw, ok := asURL(input); ok {
		norm, err := urlutil.Normalize(raw)
		if err != nil {
			return target, fmt.Errorf("invalid URL %q: %w", input, err)
		}
		target.ResolvedURL = norm
		target.Status = domain.TargetResolved
		return target, nil
	}

	results, err := r.searcher.Search(ctx, input+" official site")
	if err != nil {
		return target, fmt.Errorf("brand discovery for %q: %w", input, err)
	}

	bestScore := 0
	var bestURL string
	for _, res := range results {
		score := scoreCandidate(input, res.URL, res.Title)
		if score > bestScore {
			bestScore = score
			bestURL = res.URL
		}
	}
	if bestScore < minPlausibleScore {
		return target, fmt.Errorf("%q: %w", input, domain.ErrUnresolvableBrand)
	}

	norm, err := urlutil.Normalize(bestURL)
	if err != nil {
		return target, fmt.Errorf("%q: %w", input, domain.ErrUnresolvableBrand)
	}
	r.logger.Info("brand resolved",
		zap.String("brand", input), zap.String("url", norm), zap.Int("score", bestScore))
	target.ResolvedURL = norm
	target.Status = domain.TargetResolved
	return target, nil
}

// asURL reports whether the input should be treated as a URL rather
// than a brand name. Bare domains ("example.com") count and get an
// https scheme.
func asURL(input string) (string, bool) {
	if urlutil.IsWebURL(input) {
		return input, true
	}
	if !strings.ContainsAny(input, " \t") && strings.Contains(input, ".") && !strings.HasPrefix(input, ".") {
		candidate := "https://" + input
		if urlutil.IsWebURL(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// scoreCandidate rates a search hit as the brand's official site:
// exact or near token match of the brand in the domain weighs most,
// then the brand in the page title, then e-commerce signals.
// Marketplace and social domains are excluded outright.
func scoreCandidate(brand, resultURL, title string) int {
	host := urlutil.Host(resultURL)
	if host == "" {
		return 0
	}
	lowerURL := strings.ToLower(resultURL)
	for _, m := range marketplaceDomains {
		if strings.Contains(host, m) || strings.Contains(lowerURL, m) {
			return 0
		}
	}

	tokens := strings.Fields(strings.ToLower(brand))
	joined := strings.Join(tokens, "")
	hyphenated := strings.Join(tokens, "-")

	score := 0
	domainPart := strings.TrimSuffix(host, ".com")
	if i := strings.Index(domainPart, "."); i > 0 {
		domainPart = domainPart[:i]
	}
	switch {
	case domainPart == joined || domainPart == hyphenated:
		score += 5
	case strings.Contains(host, joined) || strings.Contains(host, hyphenated):
		score += 4
	default:
		for _, tok := range tokens {
			if len(tok) > 2 && strings.Contains(host, tok) {
				score += 2
				break
			}
		}
	}

	lowerTitle := strings.ToLower(title)
	if strings.Contains(lowerTitle, strings.ToLower(brand)) {
		score += 2
	}
	for _, signal := range ecommerceSignals {
		if strings.Contains(lowerTitle, signal) || strings.Contains(lowerURL, signal) {
			score++
			break
		}
	}
	return score
}
