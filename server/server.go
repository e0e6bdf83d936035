// Package server hosts the storytelling MCP server over two transports:
// stdio for host processes that spawn the binary directly, and SSE over HTTP
// for remote hosts.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/storymesh/story-mcp/engine/tools"
	"github.com/storymesh/story-mcp/pkg/config"
	"github.com/storymesh/story-mcp/pkg/logger"
	"github.com/storymesh/story-mcp/pkg/version"
)

const serverName = "story-mcp"

// Server wraps the MCP server and its transports.
type Server struct {
	Router     *gin.Engine
	mcp        *mcpserver.MCPServer
	sse        *mcpserver.SSEServer
	httpServer *http.Server
	config     *config.ServerConfig
}

// New builds the MCP server, registers the storytelling tools, and prepares
// the HTTP transport.
func New(cfg *config.ServerConfig, svc *tools.Service) *Server {
	mcp := mcpserver.NewMCPServer(
		serverName,
		version.Get().Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	svc.Register(mcp)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			p := param.Path
			if param.Request != nil && param.Request.URL != nil {
				p = param.Request.URL.EscapedPath()
			}
			return fmt.Sprintf("[%s] %s %s %d %s\n",
				param.TimeStamp.Format("2006-01-02 15:04:05"),
				param.Method,
				p,
				param.StatusCode,
				param.Latency,
			)
		},
	}))
	router.Use(gin.Recovery())

	sse := mcpserver.NewSSEServer(mcp,
		mcpserver.WithBaseURL(cfg.BaseURL),
	)

	s := &Server{
		Router: router,
		mcp:    mcp,
		sse:    sse,
		config: cfg,
		httpServer: &http.Server{
			Addr:         cfg.Host + ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.Router.GET("/healthz", s.healthzHandler)

	// SSE transport: event stream plus the message endpoint the stream
	// advertises back to the client.
	s.Router.GET("/sse", gin.WrapH(s.sse.SSEHandler()))
	s.Router.POST("/message", gin.WrapH(s.sse.MessageHandler()))
}

func (s *Server) healthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.Get().Version,
	})
}

// ServeStdio runs the MCP server over stdin/stdout until the context is
// canceled or the host closes the stream.
func (s *Server) ServeStdio(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Starting MCP server on stdio")
	stdio := mcpserver.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// Start runs the HTTP/SSE transport and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Starting MCP server on SSE", "host", s.config.Host, "port", s.config.Port)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		} else {
			errChan <- nil
		}
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
	case <-time.After(100 * time.Millisecond):
		// Server started successfully
	case <-ctx.Done():
		return ctx.Err()
	}

	log.Info("MCP server started successfully")
	return s.waitForShutdown(ctx, errChan)
}

// Stop gracefully stops the HTTP transport.
func (s *Server) Stop(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Shutting down MCP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		return err
	}

	log.Info("MCP server stopped gracefully")
	return nil
}

func (s *Server) waitForShutdown(ctx context.Context, errChan <-chan error) error {
	log := logger.FromContext(ctx)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-ctx.Done():
		log.Debug("Context canceled, shutting down server")
		return s.Stop(ctx)
	case sig := <-quit:
		log.Info("Received shutdown signal", "signal", sig.String())
		return s.Stop(ctx)
	case err := <-errChan:
		if err != nil {
			log.Error("HTTP server failed", "error", err)
			if stopErr := s.Stop(ctx); stopErr != nil {
				log.Error("Failed to stop server after HTTP failure", "error", stopErr)
			}
			return err
		}
		return s.Stop(ctx)
	}
}
