// Package server is the reference backend for subjects, topics, test
// generation, results and progress.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/practest/internal/questiongen"
	"github.com/abhisek/practest/internal/server/event"
	"github.com/abhisek/practest/internal/server/repo"
)

// Options configures a Server.
type Options struct {
	Repo repo.Repository

	// Events receives result and progress events. Nil disables publishing.
	Events event.Publisher

	// Generator authors questions when the bank runs short. Nil disables it.
	Generator questiongen.Generator

	// CORSOrigins lists allowed browser origins. "*" allows any.
	CORSOrigins []string

	Logger *slog.Logger

	// Now and Seed are overridable for tests.
	Now  func() time.Time
	Seed uint64
}

// Server serves the HTTP API.
type Server struct {
	repo      repo.Repository
	events    event.Publisher
	generator questiongen.Generator
	logger    *slog.Logger
	now       func() time.Time
	seed      uint64
	engine    *gin.Engine
}

// New builds the server and its routes.
func New(opts Options) *Server {
	s := &Server{
		repo:      opts.Repo,
		events:    opts.Events,
		generator: opts.Generator,
		logger:    opts.Logger,
		now:       opts.Now,
		seed:      opts.Seed,
	}
	if s.events == nil {
		s.events = event.Nop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.engine = s.routes(opts.CORSOrigins)
	return s
}

// rnd returns the random source for one request. A fixed seed makes
// selection reproducible.
func (s *Server) rnd() *rand.Rand {
	if s.seed != 0 {
		return rand.New(rand.NewPCG(s.seed, s.seed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))
	if len(origins) > 0 {
		r.Use(cors.New(corsConfig(origins)))
	}

	r.GET("/healthz", s.healthz)
	r.GET("/subjects", s.listSubjects)
	r.GET("/topics/:subject", s.listTopics)
	r.GET("/generate-test", s.generateTest)
	r.POST("/results", s.saveResult)
	r.GET("/results/:userId", s.listResults)
	r.POST("/progress/:userId/:topicId", s.updateProgress)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
