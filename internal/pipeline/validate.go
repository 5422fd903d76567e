package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/user/catalog-crawler/internal/domain"
	"github.com/user/catalog-crawler/internal/fetch"
)

// Rejection reasons surfaced to the logging boundary.
var (
	errMissingName    = errors.New("missing product name")
	errMissingURL     = errors.New("missing product URL")
	errUnreachableURL = errors.New("product URL unreachable")
)

// imageBlacklist marks decorative, non-product image URLs: logos,
// icons, vector assets, placeholders.
var imageBlacklist = []string{"logo", "icon", "placeholder", "favicon", "sprite", ".svg", ".eps"}

// Validator filters and repairs product records against the
// data-quality rules. It is applied per record, independent of
// deduplication order.
type Validator struct {
	checker fetch.URLChecker
	logger  *zap.Logger
}

func NewValidator(checker fetch.URLChecker, logger *zap.Logger) *Validator {
	return &Validator{checker: checker, logger: logger}
}

// Validate repairs rec in place and returns an error when the record
// must be dropped entirely. Name and product URL are the only required
// fields; an empty image list after cleaning is not a rejection reason.
// Rejections are reported to the log collaborator with their reason.
func (v *Validator) Validate(ctx context.Context, rec *domain.ProductRecord) error {
	var reason error
	switch {
	case strings.TrimSpace(rec.Name) == "":
		reason = errMissingName
	case strings.TrimSpace(rec.ProductURL) == "":
		reason = errMissingURL
	case !v.checker.Reachable(ctx, rec.ProductURL):
		reason = errUnreachableURL
	}
	if reason != nil {
		v.logger.Warn("record rejected",
			zap.String("name", rec.Name),
			zap.String("product_url", rec.ProductURL),
			zap.String("reason", reason.Error()))
		return fmt.Errorf("validate %q: %w", rec.Name, reason)
	}

	cleaned := rec.ImageURLs[:0]
	for _, img := range rec.ImageURLs {
		if IsCatalogImage(img) {
			cleaned = append(cleaned, img)
		}
	}
	rec.ImageURLs = cleaned
	return nil
}

// IsCatalogImage reports whether an image URL plausibly shows the
// product rather than site chrome. Vector formats and logo-patterned
// paths are rejected.
func IsCatalogImage(url string) bool {
	if strings.TrimSpace(url) == "" {
		return false
	}
	lower := strings.ToLower(url)
	for _, marker := range imageBlacklist {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}
