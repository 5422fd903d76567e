package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/catalog-crawler/internal/domain"
)

func TestDedupeCollapsesByNormalizedURL(t *testing.T) {
	records := []domain.ProductRecord{
		{Name: "Alpha Chair", ProductURL: "https://example.com/p/alpha"},
		{Name: "Beta Chair", ProductURL: "https://example.com/p/beta"},
		{Name: "Alpha Chair", ProductURL: "https://example.com/p/alpha/"},
		{Name: "Alpha Chair", ProductURL: "HTTPS://EXAMPLE.com/p/alpha#gallery"},
	}

	out := Dedupe(records)

	assert.Len(t, out, 2)
	assert.Equal(t, "Alpha Chair", out[0].Name)
	assert.Equal(t, "Beta Chair", out[1].Name)
}

func TestDedupeRicherRecordWins(t *testing.T) {
	records := []domain.ProductRecord{
		{Name: "Alpha Chair", ProductURL: "https://example.com/p/alpha"},
		{
			Name:        "Alpha Chair",
			Designer:    "Alvar Aalto",
			Description: "Bent birch frame.",
			ProductURL:  "https://example.com/p/alpha/",
			ImageURLs:   []string{"https://example.com/i/1.jpg"},
		},
	}

	out := Dedupe(records)

	assert.Len(t, out, 1)
	assert.Equal(t, "Alvar Aalto", out[0].Designer)
	// The canonical URL of the first sighting is kept.
	assert.Equal(t, "https://example.com/p/alpha", out[0].ProductURL)
}

func TestDedupeEqualRichnessKeepsFirst(t *testing.T) {
	records := []domain.ProductRecord{
		{Name: "Alpha Chair", Designer: "First", ProductURL: "https://example.com/p/alpha"},
		{Name: "Alpha Chair", Designer: "Second", ProductURL: "https://example.com/p/alpha"},
	}

	out := Dedupe(records)

	assert.Len(t, out, 1)
	assert.Equal(t, "First", out[0].Designer)
}

func TestDedupeMoreImagesBreaksFieldTie(t *testing.T) {
	records := []domain.ProductRecord{
		{Name: "Alpha Chair", ProductURL: "https://example.com/p/alpha",
			ImageURLs: []string{"a.jpg"}},
		{Name: "Alpha Chair", ProductURL: "https://example.com/p/alpha",
			ImageURLs: []string{"a.jpg", "b.jpg"}},
	}

	out := Dedupe(records)

	assert.Len(t, out, 1)
	assert.Len(t, out[0].ImageURLs, 2)
}
