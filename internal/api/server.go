// Package api exposes the crawl pipeline over HTTP: job submission,
// job status, and stored records.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/catalog-crawler/internal/config"
	"github.com/user/catalog-crawler/internal/pipeline"
	"github.com/user/catalog-crawler/internal/storage"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	runner     *pipeline.Runner
	pgStore    *storage.PostgresStore
	redisStore *storage.RedisStore
	logger     *zap.Logger
}

func NewServer(cfg *config.Config, runner *pipeline.Runner, ps *storage.PostgresStore, rs *storage.RedisStore, l *zap.Logger) *Server {
	s := &Server{
		config:     cfg,
		runner:     runner,
		pgStore:    ps,
		redisStore: rs,
		logger:     l,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
