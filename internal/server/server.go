// Package server exposes recommendations over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/filtering"
	"github.com/spigell/jobrec/internal/index"
	"github.com/spigell/jobrec/internal/matching"
	"github.com/spigell/jobrec/internal/recommend"
	"github.com/spigell/jobrec/internal/resume"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "RequestID"

	shutdownTimeout = 10 * time.Second
)

type Recommender interface {
	Recommend(ctx context.Context, doc *resume.Document, opts recommend.Options) ([]*matching.Recommendation, error)
	Explain(ctx context.Context, jobID string, doc *resume.Document, prefs *resume.Preferences) (string, error)
}

// Readiness reports the state of the embedding index.
type Readiness interface {
	Ready() bool
	Len() int
}

type Server struct {
	engine Recommender
	index  Readiness
	logger *zap.Logger
	router *gin.Engine
}

// Response standardizes the API JSON response.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Error     any    `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type recommendRequest struct {
	Resume      *resume.Document    `json:"resume" binding:"required"`
	Limit       int                 `json:"limit" binding:"omitempty,gte=1,lte=100"`
	Filters     filtering.Criteria  `json:"filters"`
	Preferences *resume.Preferences `json:"preferences"`
}

type explainRequest struct {
	Resume      *resume.Document    `json:"resume" binding:"required"`
	Preferences *resume.Preferences `json:"preferences"`
}

func New(engine Recommender, idx Readiness, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{engine: engine, index: idx, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestID())
	r.Use(s.accessLog())

	r.GET("/healthz", s.health)
	api := r.Group("/api/recommendations")
	{
		api.POST("/jobs", s.recommend)
		api.POST("/jobs/:id/explain", s.explain)
	}

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(recommend.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	data := gin.H{"ready": s.index.Ready(), "postings": s.index.Len()}
	if !s.index.Ready() {
		s.fail(c, http.StatusServiceUnavailable, "embedding index is not ready", data)
		return
	}
	s.success(c, http.StatusOK, "ready", data)
}

func (s *Server) recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	recs, err := s.engine.Recommend(c.Request.Context(), req.Resume, recommend.Options{
		Limit:       req.Limit,
		Filters:     req.Filters,
		Preferences: req.Preferences,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	s.success(c, http.StatusOK, "recommendations", gin.H{"recommendations": recs})
}

func (s *Server) explain(c *gin.Context) {
	var req explainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	text, err := s.engine.Explain(c.Request.Context(), c.Param("id"), req.Resume, req.Preferences)
	if err != nil {
		s.handleError(c, err)
		return
	}

	s.success(c, http.StatusOK, "explanation", gin.H{"explanation": text})
}

func (s *Server) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, recommend.ErrInvalidOptions):
		s.fail(c, http.StatusBadRequest, "invalid options", err.Error())
	case errors.Is(err, recommend.ErrPostingNotFound):
		s.fail(c, http.StatusNotFound, "posting not found", nil)
	case errors.Is(err, index.ErrDimensionMismatch):
		s.logger.Error("embedding index is inconsistent with the profile extractor", zap.Error(err))
		s.fail(c, http.StatusInternalServerError, "recommendation engine misconfigured", nil)
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.fail(c, http.StatusInternalServerError, "an unexpected error occurred", nil)
	}
}

func (s *Server) success(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Response{Success: true, Message: message, Data: data, RequestID: c.GetString(requestIDKey)})
}

func (s *Server) fail(c *gin.Context, code int, message string, detail any) {
	c.JSON(code, Response{Success: false, Message: message, Error: detail, RequestID: c.GetString(requestIDKey)})
}
