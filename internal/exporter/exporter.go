// Package exporter writes crawl output to local JSON files for the
// one-shot CLI.
package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/user/catalog-crawler/internal/domain"
)

// Export writes records and the job summary as pretty-printed JSON
// under dir, one file each, named by timestamp. Returns the records
// file path.
func Export(dir string, records []domain.MergedRecord, summary domain.JobSummary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	stamp := time.Now().Format("20060102-150405")
	recordsPath := filepath.Join(dir, fmt.Sprintf("records-%s.json", stamp))
	if err := writeJSON(recordsPath, records); err != nil {
		return "", err
	}
	summaryPath := filepath.Join(dir, fmt.Sprintf("summary-%s.json", stamp))
	if err := writeJSON(summaryPath, summary); err != nil {
		return "", err
	}
	return recordsPath, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
