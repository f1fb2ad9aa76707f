// Package config provides configuration management for the application.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/labstack/gommon/log"
)

// Config holds the application configuration.
type Config struct {
	Port             string
	AllowedOrigin    string
	AWSRegion        string
	S3Bucket         string
	CloudfrontDomain string
	LogLevel         string
	GameProfile      string
	GameConfigPath   string
	BedrockEnabled   bool
	BedrockModelID   string // empty keeps the caption writer's default model
	CoinDebug        bool
	RateLimit        int // requests per second per client IP, 0 disables
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT", "20"))
	if err != nil {
		return nil, errors.New("invalid RATE_LIMIT: must be a number")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		AllowedOrigin:    getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		AWSRegion:        getEnv("AWS_REGION", "ap-northeast-1"),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		CloudfrontDomain: getEnv("CLOUDFRONT_DOMAIN", ""),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		GameProfile:      getEnv("GAME_PROFILE", ProfileDesktop),
		GameConfigPath:   getEnv("GAME_CONFIG", ""),
		BedrockEnabled:   getEnvBool("BEDROCK_ENABLED", false),
		BedrockModelID:   getEnv("BEDROCK_MODEL_ID", ""),
		CoinDebug:        getEnvBool("COIN_DEBUG", false),
		RateLimit:        rateLimit,
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate port is a number
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.New("invalid port: must be a number")
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error", "off":
	default:
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.RateLimit < 0 {
		return errors.New("invalid rate limit: must not be negative")
	}

	return nil
}

// Level returns the logger level for LogLevel.
func (c *Config) Level() log.Lvl {
	switch c.LogLevel {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// UseS3 reports whether assets should be read from S3.
func (c *Config) UseS3() bool {
	return c.S3Bucket != ""
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
