package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/thebluefowl/s3toolbox/internal/config"
	"github.com/thebluefowl/s3toolbox/internal/metrics"
	"github.com/thebluefowl/s3toolbox/internal/storage"
	"github.com/thebluefowl/s3toolbox/internal/tools"
)

const shutdownTimeout = 5 * time.Second

// Server serves the S3 tools over one MCP transport.
type Server struct {
	cfg     *config.Config
	mcp     *mcpserver.MCPServer
	log     zerolog.Logger
	metrics *metrics.Metrics

	stdin  io.Reader
	stdout io.Writer
}

// New builds the MCP server and registers the tool table backed by store.
func New(cfg *config.Config, version string, store storage.Storage, log zerolog.Logger, m *metrics.Metrics) *Server {
	log = log.With().Str("component", "server").Logger()

	s := mcpserver.NewMCPServer(cfg.Server.Name, version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
		mcpserver.WithToolHandlerMiddleware(tools.Observe(log, m)),
	)
	tools.New(store).Register(s)

	return &Server{
		cfg:     cfg,
		mcp:     s,
		log:     log,
		metrics: m,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
	}
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

// Run serves the configured transport until ctx is cancelled or the transport fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	if s.cfg.MetricsAddr != "" && s.metrics != nil {
		stop := s.serveMetrics(s.cfg.MetricsAddr)
		defer stop()
	}

	transport := s.cfg.Server.Transport
	s.log.Info().Str("transport", transport).Str("addr", s.cfg.Server.Addr).Msg("starting mcp server")

	switch transport {
	case config.TransportStdio:
		stdio := mcpserver.NewStdioServer(s.mcp)
		stdio.SetErrorLogger(log.New(s.log, "", 0))
		err := stdio.Listen(ctx, s.stdin, s.stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio transport: %w", err)
		}
		return nil
	case config.TransportSSE:
		sse := mcpserver.NewSSEServer(s.mcp)
		return s.runHTTP(ctx, transport, func() error { return sse.Start(s.cfg.Server.Addr) }, sse.Shutdown)
	case config.TransportHTTP:
		streamable := mcpserver.NewStreamableHTTPServer(s.mcp)
		return s.runHTTP(ctx, transport, func() error { return streamable.Start(s.cfg.Server.Addr) }, streamable.Shutdown)
	default:
		return fmt.Errorf("unknown transport %q", transport)
	}
}

func (s *Server) runHTTP(ctx context.Context, transport string, start func() error, shutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s transport: %w", transport, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Str("transport", transport).Msg("shutting down mcp server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s shutdown: %w", transport, err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s transport: %w", transport, err)
	}
	s.log.Info().Msg("mcp server stopped")
	return nil
}

// serveMetrics exposes /metrics on addr and returns a function stopping it.
func (s *Server) serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	s.log.Info().Str("addr", addr).Msg("metrics listening")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
