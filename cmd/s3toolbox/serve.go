package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thebluefowl/s3toolbox/internal/logging"
	"github.com/thebluefowl/s3toolbox/internal/metrics"
	"github.com/thebluefowl/s3toolbox/internal/server"
)

var (
	transportFlag   string
	addrFlag        string
	metricsAddrFlag string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long:  `Runs the MCP server exposing the S3 tools over stdio (default), SSE or streamable HTTP.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&transportFlag, "transport", "t", "", "transport: stdio, sse or http (overrides config)")
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address for sse and http transports (overrides config)")
	serveCmd.Flags().StringVar(&metricsAddrFlag, "metrics-addr", "", "serve Prometheus metrics on this address (overrides config)")
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("transport") {
		cfg.Server.Transport = transportFlag
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = addrFlag
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddrFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.Stderr(cfg.LogLevel)

	svc, err := initService(ctx, cfg, log)
	if err != nil {
		return err
	}

	return server.New(cfg, version, svc, log, metrics.New()).Run(ctx)
}
