package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var ErrConfigNotFound = errors.New("config not found")

// Transport names accepted by Server.Transport.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

const envPrefix = "S3TOOLBOX"

type Config struct {
	S3          S3Config     `mapstructure:"s3" yaml:"s3"`
	Server      ServerConfig `mapstructure:"server" yaml:"server"`
	MetricsAddr string       `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	LogLevel    string       `mapstructure:"log_level" yaml:"log_level"`
}

// S3Config selects the backend. Empty credentials mean the default AWS
// credential chain is used.
type S3Config struct {
	Region       string `mapstructure:"region" yaml:"region"`
	Profile      string `mapstructure:"profile" yaml:"profile"`
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style" yaml:"use_path_style"`
	AccessKey    string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey    string `mapstructure:"secret_key" yaml:"secret_key"`
	SessionToken string `mapstructure:"session_token" yaml:"session_token"`
}

type ServerConfig struct {
	Name      string `mapstructure:"name" yaml:"name"`
	Transport string `mapstructure:"transport" yaml:"transport"`
	Addr      string `mapstructure:"addr" yaml:"addr"`
}

// DefaultPath returns the config file location under the user config directory.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "s3toolbox", "config.yaml"), nil
}

// Load reads the config file at path, applies S3TOOLBOX_* environment
// overrides and defaults. An empty path means DefaultPath; a missing default
// file is not an error, a missing explicit file is ErrConfigNotFound.
func Load(path string) (*Config, error) {
	v := newViper()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			if explicit {
				return nil, ErrConfigNotFound
			}
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Save writes cfg to path, creating the parent directory. Empty path means DefaultPath.
func Save(cfg Config, path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("s3.region", cfg.S3.Region)
	v.Set("s3.profile", cfg.S3.Profile)
	v.Set("s3.endpoint", cfg.S3.Endpoint)
	v.Set("s3.use_path_style", cfg.S3.UsePathStyle)
	v.Set("s3.access_key", cfg.S3.AccessKey)
	v.Set("s3.secret_key", cfg.S3.SecretKey)
	v.Set("s3.session_token", cfg.S3.SessionToken)
	v.Set("server.name", cfg.Server.Name)
	v.Set("server.transport", cfg.Server.Transport)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("metrics_addr", cfg.MetricsAddr)
	v.Set("log_level", cfg.LogLevel)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	// The file may hold static credentials.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to restrict config file: %w", err)
	}
	return nil
}

// Exists reports whether a config file is present at path (or DefaultPath).
func Exists(path string) bool {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return false
		}
		path = p
	}
	_, err := os.Stat(path)
	return err == nil
}

// Validate checks the server settings.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio:
	case TransportSSE, TransportHTTP:
		if c.Server.Addr == "" {
			return fmt.Errorf("transport %s requires server.addr", c.Server.Transport)
		}
	default:
		return fmt.Errorf("unknown transport %q (want %s, %s or %s)", c.Server.Transport, TransportStdio, TransportSSE, TransportHTTP)
	}
	if (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
		return errors.New("s3.access_key and s3.secret_key must be set together")
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.profile", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.session_token", "")

	v.SetDefault("server.name", "s3toolbox")
	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.addr", "127.0.0.1:8080")

	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_level", "info")
}
