// Package config provides functionality for managing configuration options
// for the server using command-line flags, a JSON file and environment
// variables, and for the client using a TOML file.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

// Duration is a time.Duration read from text such as "30s" or "720h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// CertFile, KeyFile and CAFile locate the server TLS pair and the CA
	// used to verify client certificates.
	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`
	CAFile   string `json:"ca_file"`

	// Retention is how long soft-deleted rows are kept.
	Retention Duration `json:"retention"`
	// CleanupInterval is how often the cleaner runs.
	CleanupInterval Duration `json:"cleanup_interval"`

	// LogLevel is a zap level name.
	LogLevel string `json:"log_level"`
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	opts, err := Load(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("error while loading config: %v", err)
	}
	return opts
}

// Load builds Options from args, an optional JSON file and getenv. The file
// overrides flags and the environment overrides both.
func Load(args []string, getenv func(string) string) (*Options, error) {
	options := &Options{
		Retention:       Duration{30 * 24 * time.Hour},
		CleanupInterval: Duration{time.Hour},
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8443", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&options.CertFile, "cert", "certs/server.crt", "server TLS certificate")
	fs.StringVar(&options.KeyFile, "key", "certs/server.key", "server TLS key")
	fs.StringVar(&options.CAFile, "ca", "certs/ca.crt", "CA for client certificates")
	fs.DurationVar(&options.Retention.Duration, "retention", options.Retention.Duration, "soft-delete retention")
	fs.DurationVar(&options.CleanupInterval.Duration, "cleanup", options.CleanupInterval.Duration, "soft-delete cleanup interval")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if serverAddress := getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}

	return options, nil
}
