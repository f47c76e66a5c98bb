// Package config loads server settings from the environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Config holds the server settings.
type Config struct {
	Host            string
	Port            int
	StaticDir       string
	NotFoundFile    string
	ProjectID       string
	LogLevel        zapcore.Level
	H2C             bool
	Metrics         bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Default returns the settings used when no variable is set.
func Default() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            8080,
		StaticDir:       "static",
		NotFoundFile:    "404.html",
		LogLevel:        zapcore.InfoLevel,
		H2C:             true,
		Metrics:         true,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load reads the given .env files (default ".env") into the process environment
// without overriding variables already set, then builds a Config from it.
// Missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, starting from Default.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	p.str("HOST", &cfg.Host)
	p.port("PORT", &cfg.Port)
	p.str("STATIC_DIR", &cfg.StaticDir)
	p.str("NOT_FOUND_FILE", &cfg.NotFoundFile)
	p.projectID(&cfg.ProjectID)
	p.level("LOG_LEVEL", &cfg.LogLevel)
	p.boolean("H2C_ENABLED", &cfg.H2C)
	p.boolean("METRICS_ENABLED", &cfg.Metrics)
	p.duration("READ_TIMEOUT", &cfg.ReadTimeout)
	p.duration("WRITE_TIMEOUT", &cfg.WriteTimeout)
	p.duration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)

	if p.err != nil {
		return Config{}, p.err
	}
	if cfg.StaticDir == "" {
		return Config{}, errors.New("STATIC_DIR must not be empty")
	}
	if cfg.NotFoundFile == "" {
		return Config{}, errors.New("NOT_FOUND_FILE must not be empty")
	}
	return cfg, nil
}

// parser keeps the first error so FromEnv can read every variable in sequence.
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) get(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.lookup(key)
	return v, ok && v != ""
}

func (p *parser) fail(key, value string, err error) {
	p.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *parser) port(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err == nil && (n < 0 || n > 65535) {
		err = errors.New("out of range")
	}
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = n
}

func (p *parser) boolean(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = b
}

func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err == nil && d < 0 {
		err = errors.New("negative duration")
	}
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = d
}

func (p *parser) level(key string, dst *zapcore.Level) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	l, err := zapcore.ParseLevel(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = l
}

// projectID picks the first GCP project variable that is set; it only enables trace correlation.
func (p *parser) projectID(dst *string) {
	for _, key := range []string{"GOOGLE_CLOUD_PROJECT", "GCP_PROJECT", "GCLOUD_PROJECT", "PROJECT_ID"} {
		if v, ok := p.get(key); ok {
			*dst = v
			return
		}
	}
}
