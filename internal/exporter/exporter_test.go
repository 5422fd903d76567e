package exporter

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/catalog-crawler/internal/domain"
)

func TestExport(t *testing.T) {
	dir := t.TempDir()
	price := 450.0
	records := []domain.MergedRecord{
		{
			ProductRecord: domain.ProductRecord{
				Name:       "Aalto Chair",
				ProductURL: "https://example.com/p/aalto",
				ImageURLs:  []string{"https://example.com/i/1.jpg"},
			},
			Price:   &price,
			Matched: true,
		},
	}
	summary := domain.JobSummary{Outcome: domain.OutcomeSucceeded, ProductsExtracted: 1}

	path, err := Export(dir, records, summary)
	require.NoError(t, err)
	require.FileExists(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []domain.MergedRecord
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Aalto Chair", got[0].Name)
	require.NotNil(t, got[0].Price)
	assert.Equal(t, 450.0, *got[0].Price)
}
