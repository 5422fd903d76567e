package seed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/catalog-crawler/internal/domain"
	"github.com/user/catalog-crawler/pkg/urlutil"
)

const searcherUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// HTTPSearcher queries an HTML search endpoint and scrapes result
// anchors. It understands redirect-wrapped hrefs (the uddg parameter
// used by the DuckDuckGo HTML frontend) and plain absolute links.
type HTTPSearcher struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSearcher(endpoint string) *HTTPSearcher {
	return &HTTPSearcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *HTTPSearcher) Search(ctx context.Context, query string) ([]SearchResult, error) {
	reqURL := s.endpoint + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", searcherUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.FetchError{Kind: domain.FetchHTTPError, URL: reqURL, Status: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	endpointHost := urlutil.Host(s.endpoint)
	var results []SearchResult
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		link := unwrapRedirect(href)
		if !urlutil.IsWebURL(link) {
			return
		}
		host := urlutil.Host(link)
		if host == "" || host == endpointHost {
			return
		}
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		results = append(results, SearchResult{
			URL:   link,
			Title: strings.TrimSpace(sel.Text()),
		})
	})
	return results, nil
}

// unwrapRedirect extracts the destination from a redirect-wrapped
// href, or returns the href unchanged.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if dest := u.Query().Get("uddg"); dest != "" {
		return dest
	}
	return href
}
