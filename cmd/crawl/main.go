package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/user/catalog-crawler/internal/config"
	"github.com/user/catalog-crawler/internal/domain"
	"github.com/user/catalog-crawler/internal/exporter"
	"github.com/user/catalog-crawler/internal/fetch"
	"github.com/user/catalog-crawler/internal/monitoring"
	"github.com/user/catalog-crawler/internal/pipeline"
	"github.com/user/catalog-crawler/internal/pricelist"
	"github.com/user/catalog-crawler/internal/seed"
)

// crawl runs one job from the command line: resolve the inputs, crawl
// them, and write records plus the job summary to JSON files.
func main() {
	inputsFlag := flag.String("inputs", "", "comma-separated brand names or site URLs (required)")
	pricesFlag := flag.String("prices", "", "path to a JSON price dataset to merge against")
	outFlag := flag.String("out", "output", "directory for result files")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if *inputsFlag == "" {
		fmt.Fprintln(os.Stderr, "usage: crawl -inputs 'vitra,https://www.hay.dk' [-prices prices.json] [-out dir]")
		os.Exit(2)
	}
	var inputs []string
	for _, in := range strings.Split(*inputsFlag, ",") {
		if in = strings.TrimSpace(in); in != "" {
			inputs = append(inputs, in)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	var prices []domain.PriceEntry
	if *pricesFlag != "" {
		prices, err = pricelist.Load(*pricesFlag)
		if err != nil {
			logger.Fatal("could not load price dataset", zap.Error(err))
		}
		logger.Info("price dataset loaded", zap.Int("entries", len(prices)))
	}

	metrics := monitoring.NewMetrics()
	browser := fetch.NewBrowser(cfg, logger, metrics)
	resolver := seed.NewResolver(seed.NewHTTPSearcher(cfg.SearchEndpoint), logger)
	runner := pipeline.NewRunner(resolver, browser, fetch.NewHeadChecker(), cfg, logger, metrics)

	// Ctrl-C cancels the job; records produced so far still flush.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, summaries := runner.Run(ctx, inputs, prices)

	var collected []domain.MergedRecord
	for rec := range records {
		collected = append(collected, rec)
		logger.Info("record",
			zap.String("name", rec.Name),
			zap.String("url", rec.ProductURL),
			zap.Bool("matched", rec.Matched))
	}
	summary := <-summaries

	path, err := exporter.Export(*outFlag, collected, summary)
	if err != nil {
		logger.Fatal("could not write output", zap.Error(err))
	}

	logger.Info("job finished",
		zap.String("outcome", string(summary.Outcome)),
		zap.Int("pages_visited", summary.PagesVisited),
		zap.Int("products", summary.ProductsExtracted),
		zap.Int("merged", summary.RecordsMerged),
		zap.String("records_file", path))

	if summary.Outcome == domain.OutcomeFailed {
		os.Exit(1)
	}
}
