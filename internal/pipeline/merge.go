package pipeline

import (
	"math"

	"go.uber.org/zap"

	"github.com/user/catalog-crawler/internal/config"
	"github.com/user/catalog-crawler/internal/domain"
)

// scoreEpsilon bounds how close two combined similarities must be to
// count as an unresolved tie.
const scoreEpsilon = 1e-9

// Merger fuzzy-joins validated product records against the external
// price dataset on the (product name, furniture type) pair. Both
// fields must clear the similarity threshold for a match.
type Merger struct {
	threshold  float64
	precedence string
	logger     *zap.Logger
}

func NewMerger(threshold float64, precedence string, logger *zap.Logger) *Merger {
	return &Merger{threshold: threshold, precedence: precedence, logger: logger}
}

// Merge joins one record against the price set. When several entries
// tie for the best combined similarity, the ambiguity is reported and
// the record is emitted unmerged; this is never fatal.
func (m *Merger) Merge(rec domain.ProductRecord, prices []domain.PriceEntry) domain.MergedRecord {
	merged := domain.MergedRecord{ProductRecord: rec}

	best := -1
	bestScore := 0.0
	tied := false
	for i, entry := range prices {
		nameScore := tokenSetRatio(rec.Name, entry.Name)
		typeScore := typeRatio(rec.FurnitureType, entry.FurnitureType)
		if nameScore < m.threshold || typeScore < m.threshold {
			continue
		}
		score := (nameScore + typeScore) / 2
		switch {
		case score > bestScore+scoreEpsilon:
			best, bestScore, tied = i, score, false
		case best >= 0 && math.Abs(score-bestScore) <= scoreEpsilon:
			tied = true
		}
	}

	if best < 0 {
		return merged
	}
	if tied {
		m.logger.Warn("price merge ambiguity, emitting unmerged",
			zap.String("name", rec.Name),
			zap.Float64("score", bestScore),
			zap.Error(domain.ErrAmbiguousMerge))
		return merged
	}

	entry := prices[best]
	merged.Matched = true
	merged.Confidence = bestScore
	merged.Price = &entry.Price
	merged.PriceExtra = entry.Extra
	// On field overlap the configured precedence decides which source
	// is retained.
	if m.precedence == config.PrecedencePriceWins && entry.FurnitureType != "" {
		merged.FurnitureType = entry.FurnitureType
	}
	return merged
}
