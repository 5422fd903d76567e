// Package pricelist loads the externally supplied price dataset from a
// JSON file. Source files vary in key naming, so loading is tolerant:
// known keys map onto the entry fields and everything else is kept as
// extra data.
package pricelist

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/user/catalog-crawler/internal/domain"
)

var (
	nameKeys  = []string{"name", "product_name", "product", "title"}
	typeKeys  = []string{"furniture_type", "type", "category"}
	priceKeys = []string{"price", "cost", "amount"}
)

// Load reads a JSON array of price entries from path. Entries without
// a usable name or price are dropped.
func Load(path string) ([]domain.PriceEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price file: %w", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse price file %s: %w", path, err)
	}

	entries := make([]domain.PriceEntry, 0, len(raw))
	for _, row := range raw {
		entry, ok := fromRow(row)
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func fromRow(row map[string]any) (domain.PriceEntry, bool) {
	var entry domain.PriceEntry
	used := make(map[string]bool)

	for _, k := range nameKeys {
		if v, ok := stringValue(row, k); ok {
			entry.Name = v
			used[k] = true
			break
		}
	}
	for _, k := range typeKeys {
		if v, ok := stringValue(row, k); ok {
			entry.FurnitureType = v
			used[k] = true
			break
		}
	}
	for _, k := range priceKeys {
		if v, ok := numberValue(row, k); ok {
			entry.Price = v
			used[k] = true
			break
		}
	}
	if entry.Name == "" || entry.Price == 0 {
		return entry, false
	}

	for k, v := range row {
		if used[k] {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			if entry.Extra == nil {
				entry.Extra = make(map[string]string)
			}
			entry.Extra[k] = s
		}
	}
	return entry, true
}

func stringValue(row map[string]any, key string) (string, bool) {
	v, ok := row[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	s = strings.TrimSpace(s)
	return s, ok && s != ""
}

// numberValue accepts both JSON numbers and numeric strings, with
// currency symbols and thousands separators stripped.
func numberValue(row map[string]any, key string) (float64, bool) {
	v, ok := row[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, n > 0
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' {
				return r
			}
			return -1
		}, n)
		f, err := strconv.ParseFloat(cleaned, 64)
		return f, err == nil && f > 0
	}
	return 0, false
}
