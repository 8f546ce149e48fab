// Package health serves the keep-alive endpoint hosting platforms poll to see that the bot is up.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklahomer/go-kasumi/logger"
)

// ConnectionReporter reports whether the chat gateway is connected. *discord.Adapter satisfies it.
type ConnectionReporter interface {
	Connected() bool
}

// Server is the keep-alive HTTP server.
type Server struct {
	server *http.Server
}

// NewRouter builds the routes:
//
//	GET /        -> "Alive"
//	GET /healthz -> {"status":"ok","discord":"connected"|"disconnected"}
func NewRouter(reporter ConnectionReporter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Alive")
	})

	router.GET("/healthz", func(c *gin.Context) {
		state := "disconnected"
		if reporter.Connected() {
			state = "connected"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"discord": state,
		})
	})

	return router
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, reporter ConnectionReporter) *Server {
	gin.SetMode(gin.ReleaseMode)

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(reporter),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start binds the listener and serves in the background. Binding errors are returned synchronously.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	logger.Infof("Keep-alive endpoint listening on %s", listener.Addr())
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Keep-alive endpoint stopped: %+v", err)
		}
	}()
	return nil
}

// Shutdown stops accepting requests and waits for active ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
