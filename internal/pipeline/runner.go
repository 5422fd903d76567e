// Package pipeline ties the crawl stages together: seed resolution,
// traversal, extraction, deduplication, validation and price merging.
// Records stream out as they are produced; a terminal job summary
// always follows, even on partial failure, so callers can tell "no
// products found" apart from "site unreachable" and "cancelled".
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/catalog-crawler/internal/config"
	"github.com/user/catalog-crawler/internal/domain"
	"github.com/user/catalog-crawler/internal/fetch"
	"github.com/user/catalog-crawler/internal/monitoring"
	"github.com/user/catalog-crawler/internal/navigate"
)

// drainTimeout bounds the validation of records that were already
// extracted when the job context was cancelled or expired.
const drainTimeout = 30 * time.Second

// Resolver turns a brand-or-URL input into a crawlable site target.
type Resolver interface {
	Resolve(ctx context.Context, input string) (domain.SiteTarget, error)
}

// Runner executes whole jobs.
type Runner struct {
	resolver Resolver
	fetcher  fetch.Fetcher
	checker  fetch.URLChecker
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

func NewRunner(resolver Resolver, fetcher fetch.Fetcher, checker fetch.URLChecker,
	cfg *config.Config, logger *zap.Logger, metrics *monitoring.Metrics) *Runner {
	return &Runner{
		resolver: resolver,
		fetcher:  fetcher,
		checker:  checker,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run crawls every input and streams merged records as they are
// produced. The record channel is closed when the job is done; the
// summary channel then yields exactly one terminal JobSummary. The
// stream is finite and not restartable. Cancelling ctx stops traversal
// but records already extracted still flush before the channel closes.
func (r *Runner) Run(ctx context.Context, inputs []string, prices []domain.PriceEntry) (<-chan domain.MergedRecord, <-chan domain.JobSummary) {
	records := make(chan domain.MergedRecord)
	summaries := make(chan domain.JobSummary, 1)

	go func() {
		defer close(summaries)

		jobCtx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout())
		defer cancel()

		summary := domain.JobSummary{Targets: make([]domain.TargetOutcome, len(inputs))}
		var mu sync.Mutex

		validator := NewValidator(r.checker, r.logger)
		merger := NewMerger(r.cfg.FuzzyMatchThreshold, r.cfg.MergePrecedence, r.logger)
		budget := navigate.NewPageBudget(r.cfg.MaxPagesPerJob)

		// Targets run concurrently up to the worker pool limit; rate
		// limiting inside the fetcher keeps each origin serialized.
		sem := make(chan struct{}, r.cfg.Concurrency)
		var wg sync.WaitGroup
		for i, input := range inputs {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, input string) {
				defer wg.Done()
				outcome := r.runTarget(jobCtx, input, prices, budget, validator, merger, records, &summary, &mu)
				mu.Lock()
				summary.Targets[i] = outcome
				mu.Unlock()
				<-sem
			}(i, input)
		}
		wg.Wait()
		close(records)

		summary.Outcome = jobOutcome(jobCtx, &summary)
		summaries <- summary
	}()

	return records, summaries
}

// runTarget crawls one resolved site and pushes its validated, merged
// records to the shared stream.
func (r *Runner) runTarget(ctx context.Context, input string, prices []domain.PriceEntry,
	budget *navigate.PageBudget, validator *Validator, merger *Merger,
	records chan<- domain.MergedRecord, summary *domain.JobSummary, mu *sync.Mutex) domain.TargetOutcome {

	outcome := domain.TargetOutcome{Input: input}

	target, err := r.resolver.Resolve(ctx, input)
	if err != nil {
		r.logger.Error("seed resolution failed", zap.String("input", input), zap.Error(err))
		outcome.Outcome = domain.OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}
	outcome.ResolvedURL = target.ResolvedURL
	r.logger.Info("crawling target",
		zap.String("input", input), zap.String("url", target.ResolvedURL))

	nav := navigate.New(r.fetcher, navigate.Config{
		MaxDepth:    r.cfg.MaxDepth,
		Budget:      budget,
		Concurrency: r.cfg.Concurrency,
	}, r.logger, r.metrics)
	crawl := nav.Crawl(ctx, target.ResolvedURL)

	deduped := Dedupe(crawl.Records)

	// Records extracted before a cancel or timeout still flush, so
	// validation runs on its own deadline detached from the job
	// context. Only traversal is bound to ctx.
	drainCtx, cancelDrain := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancelDrain()

	var rejected, mergedCount int
	for _, rec := range deduped {
		if err := validator.Validate(drainCtx, &rec); err != nil {
			rejected++
			continue
		}
		merged := merger.Merge(rec, prices)
		if merged.Matched {
			mergedCount++
		}
		r.metrics.IncEmitted(merged.Matched)
		records <- merged
	}

	mu.Lock()
	summary.PagesVisited += crawl.PagesVisited
	summary.ProductsExtracted += len(crawl.Records)
	summary.RecordsRejected += rejected + crawl.ExtractionFailures
	summary.RecordsMerged += mergedCount
	mu.Unlock()

	outcome.Pages = crawl.PagesVisited
	outcome.Products = len(crawl.Records)
	outcome.Outcome = targetOutcome(ctx, crawl, len(deduped)-rejected)
	if outcome.Outcome != domain.OutcomeSucceeded {
		outcome.Error = targetError(ctx, crawl)
	}
	return outcome
}

func targetOutcome(ctx context.Context, crawl *navigate.Result, emitted int) domain.Outcome {
	switch {
	case ctx.Err() != nil:
		return domain.OutcomePartial
	case emitted == 0 && crawl.FetchFailures > 0 && crawl.PagesVisited <= crawl.FetchFailures:
		// Fetch failures dominate: the site was unreachable, not empty.
		return domain.OutcomeFailed
	case crawl.FetchFailures > 0 || crawl.ExtractionFailures > 0:
		return domain.OutcomePartial
	default:
		return domain.OutcomeSucceeded
	}
}

func targetError(ctx context.Context, crawl *navigate.Result) string {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.ErrJobTimedOut.Error()
	case ctx.Err() != nil:
		return domain.ErrJobCancelled.Error()
	case crawl.FetchFailures > 0:
		return "fetch failures during traversal"
	case crawl.ExtractionFailures > 0:
		return "extraction failures on product pages"
	default:
		return ""
	}
}

// jobOutcome rolls target outcomes up into the job verdict: failed only
// when every target failed, partial when the job was cut short or any
// target fell short, succeeded otherwise.
func jobOutcome(ctx context.Context, summary *domain.JobSummary) domain.Outcome {
	allFailed := len(summary.Targets) > 0
	anyShort := false
	for _, t := range summary.Targets {
		if t.Outcome != domain.OutcomeFailed {
			allFailed = false
		}
		if t.Outcome != domain.OutcomeSucceeded {
			anyShort = true
		}
	}
	switch {
	case allFailed:
		return domain.OutcomeFailed
	case ctx.Err() != nil || anyShort:
		return domain.OutcomePartial
	default:
		return domain.OutcomeSucceeded
	}
}
