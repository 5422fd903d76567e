package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/catalog-crawler/internal/domain"
	"github.com/user/catalog-crawler/pkg/urlutil"
)

// ErrJobNotFound is returned when a job ID has no stored state.
var ErrJobNotFound = errors.New("job not found")

// Job status values.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Job is the stored state of one submitted crawl job.
type Job struct {
	ID          string             `json:"id"`
	Status      string             `json:"status"`
	Inputs      []string           `json:"inputs"`
	SubmittedAt time.Time          `json:"submitted_at"`
	FinishedAt  *time.Time         `json:"finished_at,omitempty"`
	Summary     *domain.JobSummary `json:"summary,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// jobTTL keeps finished job state queryable for a day.
const jobTTL = 24 * time.Hour

// RedisStore holds job state and the recently-submitted guard.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// SaveJob writes the full job state, replacing any previous version.
func (s *RedisStore) SaveJob(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("job:%s", job.ID)
	return s.client.Set(ctx, key, data, jobTTL).Err()
}

// GetJob retrieves a job's state by ID.
func (s *RedisStore) GetJob(ctx context.Context, jobID string) (*Job, error) {
	key := fmt.Sprintf("job:%s", jobID)
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkSubmitted records that a site was crawled, with a TTL that
// suppresses immediate resubmission of the same site.
func (s *RedisStore) MarkSubmitted(ctx context.Context, siteURL string, ttl time.Duration) error {
	key := fmt.Sprintf("submitted:%s", urlutil.Hash(siteURL))
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// RecentlySubmitted reports whether a site was crawled within the
// suppression window.
func (s *RedisStore) RecentlySubmitted(ctx context.Context, siteURL string) (bool, error) {
	key := fmt.Sprintf("submitted:%s", urlutil.Hash(siteURL))
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}
