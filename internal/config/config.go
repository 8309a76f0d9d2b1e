package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mx4242/go-flash-rtmp/internal/validator"
)

// IdentityConfig defines the client identity advertised in the connect command.
type IdentityConfig struct {
	FlashVer       string `json:"flash_ver"`
	SwfURL         string `json:"swf_url"`
	PageURL        string `json:"page_url"`
	ObjectEncoding int    `json:"object_encoding"` // 0 (AMF0) or 3 (AMF3)
}

// RetryConfig defines dial retry settings.
type RetryConfig struct {
	Enabled         bool    `json:"enabled"`
	MaxAttempts     int     `json:"max_attempts"`
	InitialDelaySec int     `json:"initial_delay_sec"`
	MaxDelaySec     int     `json:"max_delay_sec"`
	Multiplier      float64 `json:"multiplier"`
	JitterFraction  float64 `json:"jitter_fraction"`
}

// CircuitBreakerConfig defines reconnect circuit breaker settings.
type CircuitBreakerConfig struct {
	Enabled         bool  `json:"enabled"`
	MaxFailures     int32 `json:"max_failures"`
	ResetTimeoutSec int   `json:"reset_timeout_sec"`
	SuccessThresh   int32 `json:"success_threshold"`
}

// Config defines client settings.
type Config struct {
	URL            string               `json:"url"`
	HTTPAddr       string               `json:"http_addr"` // metrics endpoint, empty to disable
	ConnectTimeout Duration             `json:"connect_timeout"`
	ChunkSize      int                  `json:"chunk_size"`       // outbound chunk size
	MaxMessageSize int                  `json:"max_message_size"` // inbound reassembly guard
	DialsPerSecond float64              `json:"dials_per_second"` // reconnect pacing, 0 disables
	Identity       IdentityConfig       `json:"identity,omitempty"`
	Retry          RetryConfig          `json:"retry,omitempty"`
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker,omitempty"`
}

const (
	MinChunkSize = 128
	MaxChunkSize = 65536

	// DefaultMaxMessageSize guards reassembly against absurd declared lengths.
	DefaultMaxMessageSize = 16 * 1024 * 1024
)

func Default() Config {
	return Config{
		HTTPAddr:       ":8080",
		ConnectTimeout: Duration(10 * time.Second),
		ChunkSize:      128,
		MaxMessageSize: DefaultMaxMessageSize,
		Identity: IdentityConfig{
			FlashVer: "WIN 32,0,0,465",
		},
	}
}

func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return errors.New("url is required")
	}
	if _, err := validator.ParseTcURL(c.URL); err != nil {
		return fmt.Errorf("url validation failed: %w", err)
	}
	if c.ConnectTimeout.AsDuration() <= 0 {
		return errors.New("connect_timeout must be positive")
	}
	if c.ChunkSize < MinChunkSize || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("chunk_size must be between %d and %d bytes", MinChunkSize, MaxChunkSize)
	}
	if c.MaxMessageSize <= 0 {
		return errors.New("max_message_size must be positive")
	}
	if c.DialsPerSecond < 0 {
		return errors.New("dials_per_second must be >= 0")
	}
	if enc := c.Identity.ObjectEncoding; enc != 0 && enc != 3 {
		return errors.New("identity.object_encoding must be 0 (AMF0) or 3 (AMF3)")
	}
	if c.Retry.Enabled {
		if c.Retry.MaxAttempts <= 0 {
			return errors.New("retry.max_attempts must be positive when retry is enabled")
		}
		if c.Retry.JitterFraction < 0 || c.Retry.JitterFraction > 1 {
			return errors.New("retry.jitter_fraction must be in [0, 1]")
		}
	}
	if c.CircuitBreaker.Enabled && c.CircuitBreaker.MaxFailures <= 0 {
		return errors.New("circuit_breaker.max_failures must be positive when enabled")
	}
	return nil
}
