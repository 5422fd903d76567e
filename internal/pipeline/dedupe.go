package pipeline

import (
	"github.com/user/catalog-crawler/internal/domain"
	"github.com/user/catalog-crawler/pkg/urlutil"
)

// Dedupe collapses product records observed via different traversal
// paths, grouping by normalized product URL. When duplicates conflict,
// the record with the richer field set wins (more non-empty fields,
// then more images); ties keep the first-encountered record, so output
// is reproducible for a fixed traversal order.
func Dedupe(records []domain.ProductRecord) []domain.ProductRecord {
	out := make([]domain.ProductRecord, 0, len(records))
	index := make(map[string]int, len(records))

	for _, rec := range records {
		key, err := urlutil.Normalize(rec.ProductURL)
		if err != nil {
			key = rec.ProductURL
		}
		if i, seen := index[key]; seen {
			if richer(rec, out[i]) {
				rec.ProductURL = out[i].ProductURL // keep the canonical URL of the first sighting
				out[i] = rec
			}
			continue
		}
		index[key] = len(out)
		out = append(out, rec)
	}
	return out
}

// richer reports whether a should replace b: strictly more non-empty
// fields, or the same number of fields and strictly more images.
func richer(a, b domain.ProductRecord) bool {
	fa, fb := fieldCount(a), fieldCount(b)
	if fa != fb {
		return fa > fb
	}
	return len(a.ImageURLs) > len(b.ImageURLs)
}

func fieldCount(r domain.ProductRecord) int {
	n := 0
	for _, f := range []string{r.Name, r.Designer, r.Description, r.FurnitureType} {
		if f != "" {
			n++
		}
	}
	return n
}
