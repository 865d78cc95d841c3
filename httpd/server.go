// Package httpd binds the pipeline's single Run boundary to HTTP. Every
// request resolves to HTTP 200 with a result envelope; failures live inside
// the envelope, never in the status code.
package httpd

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nacam403/phenyl"
)

const sessionHeader = "X-Session-Id"

// Server wraps a gin router around one engine.
type Server struct {
	engine *phenyl.Engine
	router *gin.Engine
	logger *zap.Logger
}

// New builds the server. A nil logger falls back to a no-op logger.
func New(engine *phenyl.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{engine: engine, router: router, logger: logger}
	router.GET("/health", s.health)
	router.POST("/api", s.handle)
	return s
}

// Handler exposes the router for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	return s.router.Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handle decodes the wire envelope, normalizes it to a typed command, and
// runs the pipeline. The session id may come from the envelope or the
// X-Session-Id header; the envelope wins.
func (s *Server) handle(c *gin.Context) {
	var env phenyl.WireEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusOK, &phenyl.Result{
			Err: phenyl.NewError(phenyl.KindInvalidRequest, "malformed request body"),
		})
		return
	}

	sessionID := env.SessionID
	if sessionID == "" {
		sessionID = c.GetHeader(sessionHeader)
	}

	cmd, err := env.Normalize()
	if err != nil {
		c.JSON(http.StatusOK, &phenyl.Result{Err: phenyl.AsError(err)})
		return
	}

	res := s.engine.Run(c.Request.Context(), cmd, sessionID)
	c.JSON(http.StatusOK, res)
}
