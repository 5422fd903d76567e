package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/catalog-crawler/internal/domain"
	"github.com/user/catalog-crawler/internal/storage"
	"github.com/user/catalog-crawler/pkg/urlutil"
)

// JobRequest is the body of POST /api/jobs. Inputs mix brand names and
// URLs freely. Force bypasses the recently-submitted guard.
type JobRequest struct {
	Inputs []string            `json:"inputs"`
	Prices []domain.PriceEntry `json:"prices,omitempty"`
	Force  bool                `json:"force,omitempty"`
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Inputs) == 0 {
		s.respondWithError(w, http.StatusBadRequest, "Inputs list cannot be empty")
		return
	}

	// URL inputs hit the recently-submitted guard here; brand inputs
	// are only guarded after resolution, inside the job.
	inputs := req.Inputs
	var skipped []string
	if !req.Force {
		inputs = inputs[:0:0]
		for _, in := range req.Inputs {
			if urlutil.IsWebURL(in) {
				recent, err := s.redisStore.RecentlySubmitted(r.Context(), in)
				if err != nil {
					s.logger.Warn("recently-submitted check failed", zap.Error(err))
				} else if recent {
					skipped = append(skipped, in)
					continue
				}
			}
			inputs = append(inputs, in)
		}
		if len(inputs) == 0 {
			s.respondWithError(w, http.StatusConflict, "All inputs were crawled recently; retry with force")
			return
		}
	}

	job := &storage.Job{
		ID:          uuid.NewString(),
		Status:      storage.JobPending,
		Inputs:      inputs,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.redisStore.SaveJob(r.Context(), job); err != nil {
		s.logger.Error("failed to save job", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not create job")
		return
	}

	go s.runJob(job, req.Prices)

	resp := map[string]any{"job_id": job.ID, "status": job.Status}
	if len(skipped) > 0 {
		resp["skipped"] = skipped
	}
	s.respondWithJSON(w, http.StatusAccepted, resp)
}

// runJob drives one job to completion in the background and persists
// its state transitions and output.
func (s *Server) runJob(job *storage.Job, prices []domain.PriceEntry) {
	ctx := context.Background()

	job.Status = storage.JobRunning
	if err := s.redisStore.SaveJob(ctx, job); err != nil {
		s.logger.Error("failed to mark job running", zap.String("job_id", job.ID), zap.Error(err))
	}

	records, summaries := s.runner.Run(ctx, job.Inputs, prices)

	var collected []domain.MergedRecord
	for rec := range records {
		collected = append(collected, rec)
	}
	summary := <-summaries

	if s.pgStore != nil {
		if err := s.pgStore.SaveRecords(ctx, job.ID, collected); err != nil {
			s.logger.Error("failed to persist records", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	ttl := time.Duration(s.config.DeduplicationDays) * 24 * time.Hour
	for _, target := range summary.Targets {
		if target.ResolvedURL == "" {
			continue
		}
		if err := s.redisStore.MarkSubmitted(ctx, target.ResolvedURL, ttl); err != nil {
			s.logger.Warn("failed to mark site submitted", zap.Error(err))
		}
	}

	now := time.Now().UTC()
	job.FinishedAt = &now
	job.Summary = &summary
	if summary.Outcome == domain.OutcomeFailed {
		job.Status = storage.JobFailed
	} else {
		job.Status = storage.JobCompleted
	}
	if err := s.redisStore.SaveJob(ctx, job); err != nil {
		s.logger.Error("failed to save finished job", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.logger.Info("job finished",
		zap.String("job_id", job.ID),
		zap.String("outcome", string(summary.Outcome)),
		zap.Int("records", len(collected)))
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.redisStore.GetJob(r.Context(), jobID)
	if err == storage.ErrJobNotFound {
		s.respondWithError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get job", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not retrieve job")
		return
	}
	s.respondWithJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobRecords(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if s.pgStore == nil {
		s.respondWithError(w, http.StatusNotImplemented, "Record storage is not configured")
		return
	}
	if _, err := s.redisStore.GetJob(r.Context(), jobID); err == storage.ErrJobNotFound {
		s.respondWithError(w, http.StatusNotFound, "Job not found")
		return
	}
	records, err := s.pgStore.GetRecords(r.Context(), jobID)
	if err != nil {
		s.logger.Error("failed to get records", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not retrieve records")
		return
	}
	if records == nil {
		records = []domain.MergedRecord{}
	}
	s.respondWithJSON(w, http.StatusOK, records)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	healthStatus := make(map[string]string)

	if err := s.redisStore.Ping(ctx); err != nil {
		healthStatus["redis"] = "unhealthy"
		s.logger.Error("health check failed for redis", zap.Error(err))
	} else {
		healthStatus["redis"] = "healthy"
	}

	if s.pgStore != nil {
		if err := s.pgStore.Ping(ctx); err != nil {
			healthStatus["postgres"] = "unhealthy"
			s.logger.Error("health check failed for postgres", zap.Error(err))
		} else {
			healthStatus["postgres"] = "healthy"
		}
	}

	for _, v := range healthStatus {
		if v != "healthy" {
			s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
			return
		}
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
