package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
	"SwingSentinel/internal/notifier"
	"SwingSentinel/internal/scanner"
	"SwingSentinel/internal/scheduler"
)

// Server exposes the orchestrator and value scanner over HTTP.
type Server struct {
	Orch    *scheduler.Orchestrator
	Scanner *scanner.Scanner
	Sink    notifier.Sink

	// ScanTimeout bounds a value scan request.
	ScanTimeout time.Duration
}

func NewServer(orch *scheduler.Orchestrator, sc *scanner.Scanner, sink notifier.Sink) *Server {
	return &Server{Orch: orch, Scanner: sc, Sink: sink, ScanTimeout: 2 * time.Minute}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.GET("/status", s.getStatus)
	api.GET("/signals", s.getSignals)
	api.DELETE("/signals", s.resetSignals)
	api.POST("/scan", s.postScan)
	api.POST("/refresh-data", s.postRefresh)
	api.POST("/set-data", s.postSetData)
	api.POST("/update-price", s.postUpdatePrice)
	api.DELETE("/override", s.deleteOverride)
	api.POST("/test-notify", s.postTestNotify)
	api.POST("/value-scan", s.postValueScan)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/healthz" || c.Request.URL.Path == "/metrics" {
			return
		}
		log.Printf("[INFO] %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidSample):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrDataUnavailable), errors.Is(err, model.ErrInsufficientHistory):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrNotificationFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"success": false, "error": err.Error()})
}
