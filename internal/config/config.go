// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the
// HTTP server, logging, object storage, the record store, the public feed,
// webhook authentication, asset fetching, rate limiting, and observability.
//
// The Config value is built once at process start and handed to component
// constructors; business logic never reads the environment directly.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Record store backends accepted by RECORD_STORE.
const (
	RecordStoreSQLite = "sqlite"
	RecordStoreMongo  = "mongo"
)

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	Token       string  // OTEL_EXPORTER_OTLP_TOKEN, sent as a bearer authorization header
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// S3Config describes the bucket that receives downloaded assets.
type S3Config struct {
	Bucket        string // S3_BUCKET_NAME
	Region        string // AWS_REGION, falls back to AWS_DEFAULT_REGION
	Endpoint      string // S3_ENDPOINT host[:port], no scheme
	UseSSL        bool   // S3_USE_SSL
	AccessKey     string // AWS_ACCESS_KEY_ID
	SecretKey     string // AWS_SECRET_ACCESS_KEY
	SessionToken  string // AWS_SESSION_TOKEN
	PublicBaseURL string // S3_PUBLIC_BASE_URL, overrides the AWS public URL formula
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Kind          string // RECORD_STORE: sqlite|mongo
	DBPath        string // DB_PATH (sqlite)
	MongoURI      string // MONGO_URI
	MongoDatabase string // MONGO_DATABASE
	Table         string // VIDEOS_TABLE_NAME (table or collection)
}

// FeedConfig holds the public channel metadata rendered into the feed.
type FeedConfig struct {
	URL         string // FEED_URL
	Title       string // FEED_TITLE
	Description string // FEED_DESCRIPTION
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // large enough for a full ingestion run
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration
	GinMode           string // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Storage
	S3    S3Config
	Store StoreConfig

	// Feed
	Feed FeedConfig

	// Webhook
	WebhookSecret string        // WEBHOOK_SECRET; empty rejects every ingestion request
	FetchTimeout  time.Duration // per asset download
	MaxAssetBytes int64         // per asset download

	// Rate limiting (webhook only)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		S3: S3Config{
			Bucket:        getenv("S3_BUCKET_NAME", "videos"),
			Region:        firstEnv("us-east-1", "AWS_REGION", "AWS_DEFAULT_REGION"),
			Endpoint:      getenv("S3_ENDPOINT", "s3.amazonaws.com"),
			UseSSL:        getbool("S3_USE_SSL", true),
			AccessKey:     getenv("AWS_ACCESS_KEY_ID", ""),
			SecretKey:     getenv("AWS_SECRET_ACCESS_KEY", ""),
			SessionToken:  getenv("AWS_SESSION_TOKEN", ""),
			PublicBaseURL: strings.TrimRight(getenv("S3_PUBLIC_BASE_URL", ""), "/"),
		},
		Store: StoreConfig{
			Kind:          strings.ToLower(getenv("RECORD_STORE", RecordStoreSQLite)),
			DBPath:        getenv("DB_PATH", "videos.db"),
			MongoURI:      getenv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: getenv("MONGO_DATABASE", "feeds"),
			Table:         getenv("VIDEOS_TABLE_NAME", "videos"),
		},

		Feed: FeedConfig{
			URL:         getenv("FEED_URL", "http://localhost:8080/"),
			Title:       getenv("FEED_TITLE", "Videos"),
			Description: getenv("FEED_DESCRIPTION", "Latest videos"),
		},

		WebhookSecret: firstEnv("", "WEBHOOK_SECRET", "ZAPIER_SECRET_KEY"),
		FetchTimeout:  getdur("FETCH_TIMEOUT", 60*time.Second),
		MaxAssetBytes: int64(getint("MAX_ASSET_BYTES", 512<<20)),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			Token:       getenv("OTEL_EXPORTER_OTLP_TOKEN", ""),
			ServiceName: getenv("OTEL_SERVICE_NAME", "video-feed-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 ||
		cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 || cfg.FetchTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if strings.TrimSpace(cfg.S3.Bucket) == "" {
		return cfg, errors.New("S3_BUCKET_NAME must not be empty")
	}
	if strings.TrimSpace(cfg.S3.Endpoint) == "" {
		return cfg, errors.New("S3_ENDPOINT must not be empty")
	}
	switch cfg.Store.Kind {
	case RecordStoreSQLite:
		if strings.TrimSpace(cfg.Store.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case RecordStoreMongo:
		if strings.TrimSpace(cfg.Store.MongoURI) == "" || strings.TrimSpace(cfg.Store.MongoDatabase) == "" {
			return cfg, errors.New("MONGO_URI and MONGO_DATABASE must not be empty")
		}
	default:
		return cfg, errors.New("RECORD_STORE must be one of: sqlite, mongo")
	}
	if strings.TrimSpace(cfg.Store.Table) == "" {
		return cfg, errors.New("VIDEOS_TABLE_NAME must not be empty")
	}
	if cfg.MaxAssetBytes <= 0 {
		return cfg, errors.New("MAX_ASSET_BYTES must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

// firstEnv returns the first non-empty value among keys, or def.
func firstEnv(def string, keys ...string) string {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
