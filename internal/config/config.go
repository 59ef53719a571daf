package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	DatabaseURL string
	RedisURL    string

	// JWTSecret verifies bearer tokens minted by the external identity
	// provider.
	JWTSecret string

	Port string

	// WeatherBaseURL overrides the Open-Meteo endpoint (used in tests and
	// local stubs). Empty means the production endpoint.
	WeatherBaseURL string

	// Image storage. Upload support is disabled when S3Bucket is empty.
	S3Bucket           string
	S3Endpoint         string
	S3AccessKeyID      string
	S3SecretAccessKey  string
	ImagePublicBaseURL string
	ImageMaxSizeMB     int
}

// Load reads configuration from the environment, with a best-effort .env
// file load first. Missing required variables are reported together.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "err", err)
	}

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		Port:               getenvDefault("PORT", "8080"),
		WeatherBaseURL:     os.Getenv("WEATHER_BASE_URL"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:      os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:  os.Getenv("S3_SECRET_ACCESS_KEY"),
		ImagePublicBaseURL: os.Getenv("IMAGE_PUBLIC_BASE_URL"),
		ImageMaxSizeMB:     getenvInt("IMAGE_MAX_SIZE_MB", 10),
	}

	var missing []string
	for _, req := range []struct{ key, val string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_URL", cfg.RedisURL},
		{"JWT_SECRET", cfg.JWTSecret},
	} {
		if req.val == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.S3Bucket != "" {
		for _, req := range []struct{ key, val string }{
			{"S3_ENDPOINT", cfg.S3Endpoint},
			{"S3_ACCESS_KEY_ID", cfg.S3AccessKeyID},
			{"S3_SECRET_ACCESS_KEY", cfg.S3SecretAccessKey},
			{"IMAGE_PUBLIC_BASE_URL", cfg.ImagePublicBaseURL},
		} {
			if req.val == "" {
				return nil, fmt.Errorf("S3_BUCKET is set but %s is not", req.key)
			}
		}
	}

	return cfg, nil
}

// ImagesEnabled reports whether image upload is configured.
func (c *Config) ImagesEnabled() bool {
	return c.S3Bucket != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
