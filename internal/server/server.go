package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lpreports/fundxtract/internal/artifact"
	"github.com/lpreports/fundxtract/internal/pipeline"
	"github.com/lpreports/fundxtract/internal/repository"
)

// HealthFunc probes a downstream dependency, typically the database.
type HealthFunc func(ctx context.Context) error

// Server owns the HTTP surface. All mutations go through the pipeline
// service; the repositories are only read directly for the
// administrative list/get endpoints.
type Server struct {
	pipeline      *pipeline.Service
	store         *repository.Store
	uploads       *artifact.Store
	outputs       *artifact.Store
	queue         *pipeline.Queue
	health        HealthFunc
	maxUploadSize int64
	log           *slog.Logger

	http *http.Server
}

type Options struct {
	Addr          string
	CORSOrigins   string
	MaxUploadSize int64
}

func New(
	svc *pipeline.Service,
	store *repository.Store,
	uploads, outputs *artifact.Store,
	queue *pipeline.Queue,
	health HealthFunc,
	opts Options,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		pipeline:      svc,
		store:         store,
		uploads:       uploads,
		outputs:       outputs,
		queue:         queue,
		health:        health,
		maxUploadSize: opts.MaxUploadSize,
		log:           logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), corsMiddleware(opts.CORSOrigins))
	router.MaxMultipartMemory = opts.MaxUploadSize

	router.GET("/health", s.handleHealth)
	api := router.Group("/api")
	{
		api.POST("/extract", s.handleExtract)
		api.GET("/jobs", s.handleListJobs)
		api.GET("/jobs/:job_id", s.handleGetJob)
		api.POST("/jobs/:job_id/cancel", s.handleCancelJob)
		api.GET("/files", s.handleListFiles)
		api.GET("/files/:id", s.handleGetFile)
		api.DELETE("/files/:id", s.handleDeleteFile)
		api.GET("/results", s.handleListResults)
		api.GET("/results/:file_id", s.handleGetResult)
		api.GET("/logs/:file_id", s.handleListLogs)
		api.GET("/download/:filename", s.handleDownload)
		api.GET("/preview/:filename", s.handlePreview)
		api.GET("/templates", s.handleTemplates)
	}

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info("http.listen", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http.request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"client", c.ClientIP())
	}
}

func corsMiddleware(origins string) gin.HandlerFunc {
	allowed := strings.TrimSpace(origins)
	if allowed == "" {
		allowed = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowed)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
