// Package api serves the corpus, statistics and quiz sessions over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/example/wordwise/internal/service"
)

// Config for the HTTP server
type Config struct {
	Addr             string
	CORSOrigins      []string
	DefaultLearnerID string
}

// Server is the REST API
type Server struct {
	svc    *service.Service
	cfg    Config
	log    *slog.Logger
	router *gin.Engine
}

// New builds the router
func New(svc *service.Service, cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.DefaultLearnerID == "" {
		cfg.DefaultLearnerID = "default"
	}

	s := &Server{svc: svc, cfg: cfg, log: log.With("component", "api")}
	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	s.routes()
	return s
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Learner-ID"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func (s *Server) routes() {
	s.router.GET("/health", func(c *gin.Context) {
		ok(c, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	api.GET("/vocabulary", s.listVocabulary)
	api.GET("/phrases", s.listPhrases)
	api.GET("/stats", s.stats)
	api.GET("/review", s.review)
	api.GET("/wrong", s.wrong)

	sessions := api.Group("/sessions")
	sessions.POST("", s.startSession)
	sessions.POST("/resume", s.resumeSession)
	sessions.GET("/:id", s.getSession)
	sessions.GET("/:id/question", s.nextQuestion)
	sessions.POST("/:id/answer", s.answer)
	sessions.POST("/:id/finish", s.finish)
	sessions.GET("/:id/summary", s.summary)
	sessions.POST("/:id/redo", s.redo)
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// learnerID reads the userId query parameter or the X-Learner-ID header
func (s *Server) learnerID(c *gin.Context) string {
	if id := c.Query("userId"); id != "" {
		return id
	}
	if id := c.GetHeader("X-Learner-ID"); id != "" {
		return id
	}
	return s.cfg.DefaultLearnerID
}
