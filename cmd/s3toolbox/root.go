package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/thebluefowl/s3toolbox/internal/config"
	"github.com/thebluefowl/s3toolbox/internal/logging"
	"github.com/thebluefowl/s3toolbox/internal/storage/s3store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "s3toolbox",
	Short:        "S3 bucket and object tools for MCP clients",
	Long:         `Serves S3 bucket and object operations as Model Context Protocol tools, and runs the same operations from the command line.`,
	Version:      version,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/s3toolbox/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(bucketsCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(rmCmd)
}

// loadConfig reads the config file and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// initService builds the S3 client and the service shared by every command.
func initService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*s3store.Service, error) {
	client, err := s3store.NewClient(ctx, &s3store.Opts{
		Region:       cfg.S3.Region,
		Profile:      cfg.S3.Profile,
		Endpoint:     cfg.S3.Endpoint,
		UsePathStyle: cfg.S3.UsePathStyle,
		AccessKey:    cfg.S3.AccessKey,
		SecretKey:    cfg.S3.SecretKey,
		SessionToken: cfg.S3.SessionToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
	}
	return s3store.New(client, log), nil
}

// commandService is loadConfig + initService for one-shot CLI commands.
func commandService(ctx context.Context) (*s3store.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logging.Stderr(cfg.LogLevel)
	return initService(ctx, cfg, log)
}
