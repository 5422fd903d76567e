package fetch

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/catalog-crawler/internal/config"
	"github.com/user/catalog-crawler/internal/domain"
	"github.com/user/catalog-crawler/internal/monitoring"
	"github.com/user/catalog-crawler/pkg/urlutil"
)

// Result is the rendered content of one fetched page.
type Result struct {
	URL      string
	FinalURL string
	HTML     string
	Status   int
}

// Fetcher acquires rendered page content. It is the single suspension
// point of the pipeline; everything downstream is synchronous.
// Implementations resolve dynamic load-more pagination inside the
// render, so a URL costs exactly one fetch regardless of how much of
// its content is loaded lazily.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

const (
	initialBackoff = 500 * time.Millisecond
	loadMoreWait   = 800 * time.Millisecond
)

// Browser is a chromedp-backed Fetcher with per-origin rate limiting
// and bounded retry on transient failures.
type Browser struct {
	allocPool        *sync.Pool
	limiter          *OriginLimiter
	agents           *AgentRotation
	timeout          time.Duration
	maxRetries       int
	paginationBudget int
	logger           *zap.Logger
	metrics          *monitoring.Metrics
}

func NewBrowser(cfg *config.Config, logger *zap.Logger, metrics *monitoring.Metrics) *Browser {
	headless := cfg.Headless
	pool := &sync.Pool{
		New: func() interface{} {
			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", headless),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
				chromedp.Flag("disable-blink-features", "AutomationControlled"),
			)
			allocCtx, _ := chromedp.NewExecAllocator(context.Background(), opts...)
			return allocCtx
		},
	}
	// Pre-warm one allocator per worker
	for i := 0; i < cfg.Concurrency; i++ {
		pool.Put(pool.New())
	}
	return &Browser{
		allocPool:        pool,
		limiter:          NewOriginLimiter(cfg.PerOriginDelay()),
		agents:           NewAgentRotation(),
		timeout:          cfg.PageLoadTimeout(),
		maxRetries:       cfg.MaxRetries,
		paginationBudget: cfg.PaginationBudget,
		logger:           logger,
		metrics:          metrics,
	}
}

// Fetch renders a page and returns its content, retrying transient
// failures with exponential backoff. A load-more affordance on the
// page is driven in the same navigation until no new links appear or
// the pagination budget runs out, so the returned HTML is the
// post-expansion DOM and no second render is ever needed. Cancelling
// ctx abandons retries.
func (b *Browser) Fetch(ctx context.Context, url string) (*Result, error) {
	origin := urlutil.Host(url)
	var lastErr error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := initialBackoff << (attempt - 1)
			backoff += time.Duration(rand.Int63n(int64(backoff) / 2))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, b.wrapCtxErr(ctx, url)
			}
		}
		if err := b.limiter.Wait(ctx, origin); err != nil {
			return nil, b.wrapCtxErr(ctx, url)
		}

		start := time.Now()
		res, err := b.render(ctx, url)
		b.metrics.ObserveFetch(origin, time.Since(start).Seconds())
		if err == nil {
			b.metrics.IncFetched(origin)
			return res, nil
		}

		var fe *domain.FetchError
		if !errors.As(err, &fe) {
			fe = &domain.FetchError{Kind: domain.FetchHTTPError, URL: url, Err: err}
		}
		b.metrics.IncFetchError(string(fe.Kind))
		lastErr = fe
		if !fe.Transient() || ctx.Err() != nil {
			break
		}
		b.logger.Warn("transient fetch failure, will retry",
			zap.String("url", url), zap.Int("attempt", attempt+1), zap.Error(fe))
	}
	return nil, lastErr
}

func (b *Browser) wrapCtxErr(ctx context.Context, url string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.FetchError{Kind: domain.FetchTimeout, URL: url, Err: ctx.Err()}
	}
	return ctx.Err()
}

// render performs a single navigation attempt in a fresh tab.
func (b *Browser) render(ctx context.Context, url string) (*Result, error) {
	allocCtx := b.allocPool.Get().(context.Context)
	defer b.allocPool.Put(allocCtx)

	taskCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, b.timeout)
	defer cancelTimeout()

	var (
		statusMu sync.Mutex
		status   int
	)
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			statusMu.Lock()
			if status == 0 {
				status = int(resp.Response.Status)
			}
			statusMu.Unlock()
		}
	})

	var html, finalURL string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"User-Agent": b.agents.Next()}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(dismissCookieBannerJS, nil),
	)
	if err == nil {
		err = b.expandActions(taskCtx)
	}
	if err == nil {
		err = chromedp.Run(taskCtx,
			chromedp.Location(&finalURL),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
	}

	statusMu.Lock()
	gotStatus := status
	statusMu.Unlock()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &domain.FetchError{Kind: domain.FetchTimeout, URL: url, Err: err}
		}
		return nil, &domain.FetchError{Kind: domain.FetchHTTPError, URL: url, Status: gotStatus, Err: err}
	}
	if kind, bad := classifyStatus(gotStatus); bad {
		return nil, &domain.FetchError{Kind: kind, URL: url, Status: gotStatus}
	}
	if isBlockPage(html) {
		return nil, &domain.FetchError{Kind: domain.FetchBlocked, URL: url, Status: gotStatus}
	}
	return &Result{URL: url, FinalURL: finalURL, HTML: html, Status: gotStatus}, nil
}

// blockMarkers are DOM fingerprints of bot-challenge interstitials
// that render with a 200 status.
var blockMarkers = []string{
	"cf-browser-verification",
	"challenge-platform",
	"_Incapsula_Resource",
	"px-captcha",
}

func isBlockPage(html string) bool {
	for _, m := range blockMarkers {
		if strings.Contains(html, m) {
			return true
		}
	}
	return false
}

// classifyStatus maps HTTP status codes to the fetch error taxonomy.
// 403 and 429 are treated as anti-bot block signals, never retried.
func classifyStatus(status int) (domain.FetchErrorKind, bool) {
	switch {
	case status == 0: // no document response observed, assume OK render
		return "", false
	case status == 403 || status == 429:
		return domain.FetchBlocked, true
	case status >= 400:
		return domain.FetchHTTPError, true
	default:
		return "", false
	}
}

// expandActions clicks the page's load-more affordance until the link
// count stops growing or the pagination budget runs out. Pages without
// the affordance cost one no-op script evaluation.
func (b *Browser) expandActions(ctx context.Context) error {
	var prevCount int
	if err := chromedp.Run(ctx, chromedp.Evaluate(countAnchorsJS, &prevCount)); err != nil {
		return err
	}
	for i := 0; i < b.paginationBudget; i++ {
		var clicked bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(clickLoadMoreJS, &clicked)); err != nil {
			return err
		}
		if !clicked {
			return nil
		}
		var count int
		if err := chromedp.Run(ctx,
			chromedp.Sleep(loadMoreWait),
			chromedp.Evaluate(countAnchorsJS, &count),
		); err != nil {
			return err
		}
		if count <= prevCount {
			return nil
		}
		prevCount = count
	}
	return nil
}

const countAnchorsJS = `document.querySelectorAll('a[href]').length`

// clickLoadMoreJS clicks the first visible button or link whose label
// looks like a load-more trigger. Anchors carrying a real href are
// skipped; clicking those navigates instead of expanding in place.
// Returns whether anything was clicked.
const clickLoadMoreJS = `(() => {
	const labels = ['load more', 'show more', 'view more', 'more products', 'see more'];
	const candidates = document.querySelectorAll('button, a, [role="button"]');
	for (const el of candidates) {
		const text = (el.textContent || '').trim().toLowerCase();
		if (!text || text.length > 40) continue;
		if (!labels.some(l => text.includes(l)) || el.offsetParent === null) continue;
		const href = el.getAttribute('href');
		if (href && href !== '#' && !href.startsWith('javascript:')) continue;
		el.click();
		return true;
	}
	return false;
})()`

// dismissCookieBannerJS clicks a consent button when a cookie banner is
// present, so overlays don't hide the product content region.
const dismissCookieBannerJS = `(() => {
	const labels = ['accept all', 'accept cookies', 'allow all', 'i agree', 'agree',
		'got it', 'i understand', 'accept', 'ok'];
	const candidates = document.querySelectorAll('button, [role="button"], input[type="submit"]');
	for (const el of candidates) {
		const text = (el.textContent || el.value || '').trim().toLowerCase();
		if (!text || text.length > 30) continue;
		if (labels.some(l => text === l || text.startsWith(l))) {
			el.click();
			return true;
		}
	}
	return false;
})()`
