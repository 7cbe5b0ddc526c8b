package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abeer-rozba/vr-therapy-server/core/pipeline"
	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
	"github.com/abeer-rozba/vr-therapy-server/internal/worker"
)

type Server struct {
	config   *ServerConfig
	pipeline *pipeline.Pipeline
	worker   *worker.Worker
	router   *gin.Engine
}

func NewServer(options ...ConfigOption) (*Server, error) {
	config := &ServerConfig{
		WorkerCount: 4,
		QueueDepth:  100,
		Port:        "8080",
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return nil, err
		}
	}

	if config.Store == nil {
		return nil, errors.New("a session store is required")
	}

	p := pipeline.New(config.Store)

	server := &Server{
		config:   config,
		pipeline: p,
		router:   gin.Default(),
	}
	if config.MessageQueue != nil {
		server.worker = worker.New(p, config.WorkerCount, config.QueueDepth)
	}

	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Metrics endpoint
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := s.router.Group("/api/v1")
	{
		api.POST("/samples", s.handleSubmit)
		api.POST("/samples/bulk", s.handleBulkSubmit)
		api.GET("/sessions", s.handleListSessions)
		api.GET("/sessions/:id", s.handleGetSession)
		api.POST("/crypto/demo", s.handleCryptoDemo)
	}
}

func (s *Server) handleSubmit(c *gin.Context) {
	var env domain.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, domain.SubmitResult{Accepted: false, Error: "malformed request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	res, err := s.pipeline.Submit(ctx, env)
	if err != nil {
		log.Printf("Ingestion failed: %v", err)
		c.JSON(http.StatusInternalServerError, res)
		return
	}
	if !res.Accepted {
		c.JSON(http.StatusBadRequest, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleBulkSubmit(c *gin.Context) {
	if s.config.MessageQueue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "bulk ingestion is not enabled"})
		return
	}

	var batch domain.BulkEnvelope
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(batch.Envelopes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no envelopes provided"})
		return
	}
	batch.BatchID = uuid.NewString()

	data, err := json.Marshal(batch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to serialize batch"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := s.config.MessageQueue.Publish(ctx, data); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to publish batch"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "batch accepted for processing",
		"batchId": batch.BatchID,
		"count":   len(batch.Envelopes),
	})
}

func (s *Server) handleGetSession(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	rec, err := s.pipeline.FetchSession(ctx, c.Param("id"))
	if errors.Is(err, domain.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		log.Printf("Session fetch failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleListSessions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	summaries, err := s.pipeline.ListSessions(ctx)
	if err != nil {
		log.Printf("Session list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": summaries,
		"count":    len(summaries),
	})
}

func (s *Server) handleCryptoDemo(c *gin.Context) {
	var req pipeline.DemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	res, err := s.pipeline.Demo(req)
	if err != nil {
		var vErr *domain.ValidationError
		var cErr *domain.CryptoError
		if errors.As(err, &vErr) || errors.As(err, &cErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) Start(ctx context.Context) error {
	// Start queue workers when bulk ingestion is enabled
	if s.worker != nil {
		go func() {
			if err := s.worker.Start(ctx, s.config.MessageQueue); err != nil {
				log.Printf("Worker pool error: %v", err)
			}
		}()
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + s.config.Port,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("Server starting on port %s", s.config.Port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) Close() error {
	if s.config.MessageQueue != nil {
		s.config.MessageQueue.Close()
	}
	if s.config.Store != nil {
		s.config.Store.Close()
	}
	return nil
}
