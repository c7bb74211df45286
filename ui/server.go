package ui

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pgocasting/ipatrollersys-sub002/app"
	"github.com/pgocasting/ipatrollersys-sub002/internal"
	"github.com/pgocasting/ipatrollersys-sub002/ui/middleware"

	"github.com/gin-gonic/gin"
)

// DefaultMaxUpload bounds the size of an imported spreadsheet.
const DefaultMaxUpload int64 = 10 << 20

// Server is the dashboard API. Mutating operations are serialized: while
// one runs, others are rejected with 409 instead of queueing.
type Server struct {
	router    *gin.Engine
	service   *app.ReconciliationService
	logger    *internal.Logger
	busy      atomic.Bool
	maxUpload int64
}

// NewServer creates the API server around service.
func NewServer(service *app.ReconciliationService, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), middleware.Actor())

	s := &Server{
		router:    router,
		service:   service,
		logger:    logger,
		maxUpload: DefaultMaxUpload,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api/reports")
	api.GET("", s.handleListReports)
	api.POST("/reload", s.handleReload)
	api.GET("/duplicates", s.handlePlanDuplicates)
	api.POST("/duplicates/remove", s.handleRemoveDuplicates)
	api.POST("/import", s.handleImport)
	api.PATCH("/:id", s.handleUpdateReport)
	api.DELETE("/:id", s.handleDeleteReport)

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "records": s.service.Summary().Records})
	})
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// exclusive runs fn unless another mutating operation is in flight.
func (s *Server) exclusive(c *gin.Context, operation string, fn func()) bool {
	if !s.busy.CompareAndSwap(false, true) {
		writeError(c, busyError(operation))
		return false
	}
	defer s.busy.Store(false)
	fn()
	return true
}

func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[HTTP] %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
