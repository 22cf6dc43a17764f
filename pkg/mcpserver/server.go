package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/focusmcp/focusmcp/engine/infra/monitoring"
	"github.com/focusmcp/focusmcp/engine/schema"
	"github.com/focusmcp/focusmcp/pkg/logger"
	"github.com/focusmcp/focusmcp/pkg/version"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds server configuration
type Config struct {
	Name            string
	Version         string
	Transport       string
	Host            string
	Port            int
	Path            string
	ShutdownTimeout time.Duration
	// RateLimit caps HTTP MCP requests per client per minute; 0 disables it.
	RateLimit int
}

func DefaultConfig() *Config {
	return &Config{
		Name:            "focusmcp",
		Version:         version.Version,
		Transport:       TransportStdio,
		Host:            "127.0.0.1",
		Port:            6060,
		Path:            "/mcp",
		ShutdownTimeout: 10 * time.Second,
	}
}

func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unsupported transport %q", c.Transport)
	}
	if c.Name == "" {
		return errors.New("server name is required")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit %d", c.RateLimit)
	}
	if c.Transport == TransportHTTP {
		if c.Host == "" {
			return errors.New("host is required")
		}
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("invalid port %d", c.Port)
		}
		if c.Path == "" || c.Path[0] != '/' {
			return fmt.Errorf("path must start with '/': got %q", c.Path)
		}
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type Option func(*Server)

// WithBatch enables batch_create_items.
func WithBatch(runner BatchRunner) Option {
	return func(s *Server) { s.batch = runner }
}

// WithMonitoring serves metrics next to the HTTP transport.
func WithMonitoring(svc *monitoring.Service) Option {
	return func(s *Server) { s.monitoring = svc }
}

// Server exposes OmniFocus operations as MCP tools.
type Server struct {
	config     *Config
	mcp        *server.MCPServer
	ops        Operations
	batch      BatchRunner
	monitoring *monitoring.Service
	schemas    map[string]*schema.Schema
	tools      []mcp.Tool
	log        logger.Logger
}

func NewServer(ctx context.Context, cfg *Config, ops Operations, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	if ops == nil {
		return nil, errors.New("operations are required")
	}
	s := &Server{
		config:  cfg,
		ops:     ops,
		schemas: make(map[string]*schema.Schema),
		log:     logger.FromContext(ctx),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcp = server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(withRequestScope(s.log)),
		server.WithInstructions("Manage OmniFocus folders, projects, tasks and tags. "+
			"Use batch_create_items to build a hierarchy in one call."),
	)
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) registerTools() error {
	for _, def := range s.toolDefs() {
		if def.name == "batch_create_items" && s.batch == nil {
			continue
		}
		sch, err := schema.FromType(def.args)
		if err != nil {
			return fmt.Errorf("failed to build schema for %s: %w", def.name, err)
		}
		raw, err := sch.JSON()
		if err != nil {
			return fmt.Errorf("failed to encode schema for %s: %w", def.name, err)
		}
		tool := mcp.NewToolWithRawSchema(def.name, def.description, raw)
		tool.Annotations.ReadOnlyHint = mcp.ToBoolPtr(def.readOnly)
		tool.Annotations.DestructiveHint = mcp.ToBoolPtr(def.destructive)
		s.schemas[def.name] = &sch
		s.tools = append(s.tools, tool)
		s.mcp.AddTool(tool, def.handler)
	}
	return nil
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Tools lists registered tools in registration order.
func (s *Server) Tools() []mcp.Tool {
	return s.tools
}

// Run serves the configured transport until ctx is canceled or a shutdown
// signal arrives.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.ContextWithLogger(ctx, s.log)
	switch s.config.Transport {
	case TransportHTTP:
		return s.ServeHTTP(ctx)
	default:
		return s.ServeStdio(ctx, os.Stdin, os.Stdout)
	}
}

// ServeStdio speaks MCP over the given streams.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.log.Info("Starting MCP server", "transport", TransportStdio, "tools", len(s.tools))
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(logWriter{log: s.log}, "", 0))
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("stdio transport failed: %w", err)
	}
	s.log.Info("MCP server stopped")
	return nil
}

// Router builds the HTTP surface: health check, MCP endpoint and metrics.
func (s *Server) Router(ctx context.Context) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.log))
	if s.monitoring != nil {
		router.Use(s.monitoring.GinMiddleware(ctx))
	}
	router.GET("/healthz", s.healthzHandler)
	streamable := server.NewStreamableHTTPServer(
		s.mcp,
		server.WithEndpointPath(s.config.Path),
		server.WithHTTPContextFunc(withLogger(s.log)),
	)
	router.Any(s.config.Path, rateLimit(s.config.RateLimit, s.log), gin.WrapH(streamable))
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		router.GET(s.monitoring.Path(), gin.WrapH(s.monitoring.ExporterHandler()))
	}
	return router
}

func (s *Server) healthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   s.config.Version,
		"tools":     len(s.tools),
	})
}

// ServeHTTP runs the streamable HTTP transport and shuts it down gracefully
// when ctx ends.
func (s *Server) ServeHTTP(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", httpServer.Addr, err)
	}
	return s.serveListener(ctx, httpServer, listener)
}

func (s *Server) serveListener(ctx context.Context, httpServer *http.Server, listener net.Listener) error {
	s.log.Info("Starting MCP server",
		"transport", TransportHTTP,
		"addr", listener.Addr().String(),
		"path", s.config.Path,
		"tools", len(s.tools),
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("Shutting down MCP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Info("MCP server stopped gracefully")
	return nil
}
