// Package api exposes the scraper over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/aluiziolira/go-scrape-shop/config"
	"github.com/aluiziolira/go-scrape-shop/models"
)

// Runner performs one scrape session.
type Runner interface {
	Run(ctx context.Context, pageLimit int, proxy string) (*models.ScraperResult, error)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	runner     Runner
	registry   *prometheus.Registry
	logger     *zap.Logger
}

// NewServer wires the router. registry may be nil, in which case /metrics is not served.
func NewServer(cfg *config.Config, runner Runner, registry *prometheus.Registry, l *zap.Logger) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	s := &Server{
		config:   cfg,
		runner:   runner,
		registry: registry,
		logger:   l,
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		// No write timeout: a scrape answers only when every page is done.
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
