package pricelist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCanonicalKeys(t *testing.T) {
	path := writeFile(t, `[
		{"name": "Aalto Chair", "furniture_type": "chair", "price": 450},
		{"name": "Oak Table", "furniture_type": "table", "price": 1200.50}
	]`)

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Aalto Chair", entries[0].Name)
	assert.Equal(t, "chair", entries[0].FurnitureType)
	assert.Equal(t, 450.0, entries[0].Price)
	assert.Equal(t, 1200.50, entries[1].Price)
}

func TestLoadAlternateKeys(t *testing.T) {
	path := writeFile(t, `[
		{"product_name": "Wishbone Chair", "type": "chair", "cost": "€ 620.00"},
		{"title": "Shell Sofa", "category": "sofa", "price": "1.450"}
	]`)

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Wishbone Chair", entries[0].Name)
	assert.Equal(t, "chair", entries[0].FurnitureType)
	assert.Equal(t, 620.00, entries[0].Price)
	assert.Equal(t, "Shell Sofa", entries[1].Name)
}

func TestLoadKeepsExtraFields(t *testing.T) {
	path := writeFile(t, `[
		{"name": "Aalto Chair", "furniture_type": "chair", "price": 450,
		 "currency": "EUR", "sku": "A-450", "stock": 3}
	]`)

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "EUR", entries[0].Extra["currency"])
	assert.Equal(t, "A-450", entries[0].Extra["sku"])
	// Non-string extras are dropped rather than coerced.
	assert.NotContains(t, entries[0].Extra, "stock")
}

func TestLoadDropsUnusableRows(t *testing.T) {
	path := writeFile(t, `[
		{"name": "No Price Stool"},
		{"price": 300},
		{"name": "Good Bench", "price": 300}
	]`)

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Good Bench", entries[0].Name)
}

func TestLoadBadFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := writeFile(t, `{"not": "an array"}`)
	_, err = Load(path)
	assert.Error(t, err)
}
