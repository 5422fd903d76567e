// Package storage persists job state and crawl output. Postgres holds
// the records a job produced; Redis holds ephemeral job status and the
// recently-submitted guard.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/catalog-crawler/internal/domain"
)

// PostgresStore writes merged records to PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// SaveRecords stores a job's output within a single transaction. Rerunning
// a job upserts on (job_id, product_url) so a retried job never duplicates
// rows.
func (s *PostgresStore) SaveRecords(ctx context.Context, jobID string, records []domain.MergedRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(
			`INSERT INTO catalog_records
			   (job_id, product_url, name, designer, description, furniture_type,
			    image_urls, price, price_extra, matched, confidence)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (job_id, product_url) DO UPDATE SET
			   name = EXCLUDED.name, designer = EXCLUDED.designer,
			   description = EXCLUDED.description, furniture_type = EXCLUDED.furniture_type,
			   image_urls = EXCLUDED.image_urls, price = EXCLUDED.price,
			   price_extra = EXCLUDED.price_extra, matched = EXCLUDED.matched,
			   confidence = EXCLUDED.confidence, updated_at = NOW()`,
			jobID, rec.ProductURL, rec.Name, rec.Designer, rec.Description,
			rec.FurnitureType, rec.ImageURLs, rec.Price, rec.PriceExtra,
			rec.Matched, rec.Confidence,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetRecords returns the stored output of one job.
func (s *PostgresStore) GetRecords(ctx context.Context, jobID string) ([]domain.MergedRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT name, designer, description, furniture_type, image_urls,
		        product_url, price, price_extra, matched, confidence
		 FROM catalog_records WHERE job_id = $1 ORDER BY id`,
		jobID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.MergedRecord
	for rows.Next() {
		var rec domain.MergedRecord
		if err := rows.Scan(
			&rec.Name, &rec.Designer, &rec.Description, &rec.FurnitureType,
			&rec.ImageURLs, &rec.ProductURL, &rec.Price, &rec.PriceExtra,
			&rec.Matched, &rec.Confidence,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
