package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	S3        S3Config
	Image     ImageConfig
	Inference InferenceConfig
	Watcher   WatcherConfig
	Log       LogConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// S3Config holds AWS S3 settings for the input and archive buckets.
type S3Config struct {
	Region        string `mapstructure:"region"`
	InputBucket   string `mapstructure:"input_bucket"`
	ArchiveBucket string `mapstructure:"archive_bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	RecordsPrefix string `mapstructure:"records_prefix"`
	StatusPrefix  string `mapstructure:"status_prefix"`
	// Presigned upload URLs are short-lived; download URLs outlive them.
	UploadExpiry   int64 `mapstructure:"upload_expiry"`
	DownloadExpiry int64 `mapstructure:"download_expiry"`
}

// ImageConfig holds normalization settings.
type ImageConfig struct {
	MaxDimension  int    `mapstructure:"max_dimension"`
	DefaultFormat string `mapstructure:"default_format"`
	JPEGQuality   int    `mapstructure:"jpeg_quality"`
}

// InvokerConfig holds settings for a single inference provider.
type InvokerConfig struct {
	Provider     string  `mapstructure:"provider"`
	APIKey       string  `mapstructure:"api_key"`
	Region       string  `mapstructure:"region"`
	DefaultModel string  `mapstructure:"default_model"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature"`
	TimeoutSecs  int     `mapstructure:"timeout_secs"`
}

// InferenceConfig holds inference settings with multi-provider fallback.
type InferenceConfig struct {
	Primary   InvokerConfig `mapstructure:"primary"`
	Secondary InvokerConfig `mapstructure:"secondary"`
}

// SecondaryConfig returns the secondary invoker config, or nil if not configured.
func (c *InferenceConfig) SecondaryConfig() *InvokerConfig {
	if c.Secondary.Provider != "" {
		return &c.Secondary
	}
	return nil
}

// WatcherConfig holds ingest watcher settings.
type WatcherConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	PollIntervalSecs int  `mapstructure:"poll_interval_secs"`
	Concurrency      int  `mapstructure:"concurrency"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the TICKMILL_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TICKMILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.input_bucket", "tickmill-inbound")
	v.SetDefault("s3.archive_bucket", "tickmill-archive")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.records_prefix", "records/")
	v.SetDefault("s3.status_prefix", "status/")
	v.SetDefault("s3.upload_expiry", 300)
	v.SetDefault("s3.download_expiry", 3600)

	// Image defaults. 1120px is the vision model's maximum input edge.
	v.SetDefault("image.max_dimension", 1120)
	v.SetDefault("image.default_format", "jpeg")
	v.SetDefault("image.jpeg_quality", 90)

	// Inference defaults
	v.SetDefault("inference.primary.provider", "bedrock")
	v.SetDefault("inference.primary.api_key", "")
	v.SetDefault("inference.primary.region", "us-east-1")
	v.SetDefault("inference.primary.default_model", "us.meta.llama3-2-11b-instruct-v1:0")
	v.SetDefault("inference.primary.max_tokens", 2000)
	v.SetDefault("inference.primary.temperature", 0.1)
	v.SetDefault("inference.primary.timeout_secs", 120)
	v.SetDefault("inference.secondary.provider", "")
	v.SetDefault("inference.secondary.api_key", "")
	v.SetDefault("inference.secondary.region", "")
	v.SetDefault("inference.secondary.default_model", "")
	v.SetDefault("inference.secondary.max_tokens", 2000)
	v.SetDefault("inference.secondary.temperature", 0.1)
	v.SetDefault("inference.secondary.timeout_secs", 120)

	// Watcher defaults
	v.SetDefault("watcher.enabled", true)
	v.SetDefault("watcher.poll_interval_secs", 10)
	v.SetDefault("watcher.concurrency", 3)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                   "TICKMILL_SERVER_PORT",
		"server.read_timeout":           "TICKMILL_SERVER_READ_TIMEOUT",
		"server.write_timeout":          "TICKMILL_SERVER_WRITE_TIMEOUT",
		"server.environment":            "TICKMILL_SERVER_ENVIRONMENT",
		"s3.region":                     "TICKMILL_S3_REGION",
		"s3.input_bucket":               "TICKMILL_S3_INPUT_BUCKET",
		"s3.archive_bucket":             "TICKMILL_S3_ARCHIVE_BUCKET",
		"s3.endpoint":                   "TICKMILL_S3_ENDPOINT",
		"s3.access_key":                 "TICKMILL_S3_ACCESS_KEY",
		"s3.secret_key":                 "TICKMILL_S3_SECRET_KEY",
		"s3.records_prefix":             "TICKMILL_S3_RECORDS_PREFIX",
		"s3.status_prefix":              "TICKMILL_S3_STATUS_PREFIX",
		"s3.upload_expiry":              "TICKMILL_S3_UPLOAD_EXPIRY",
		"s3.download_expiry":            "TICKMILL_S3_DOWNLOAD_EXPIRY",
		"image.max_dimension":           "TICKMILL_IMAGE_MAX_DIMENSION",
		"image.default_format":          "TICKMILL_IMAGE_DEFAULT_FORMAT",
		"image.jpeg_quality":            "TICKMILL_IMAGE_JPEG_QUALITY",
		"inference.primary.provider":    "TICKMILL_INFERENCE_PRIMARY_PROVIDER",
		"inference.primary.api_key":     "TICKMILL_INFERENCE_PRIMARY_API_KEY",
		"inference.primary.region":      "TICKMILL_INFERENCE_PRIMARY_REGION",
		"inference.primary.default_model": "TICKMILL_INFERENCE_PRIMARY_DEFAULT_MODEL",
		"inference.primary.max_tokens":    "TICKMILL_INFERENCE_PRIMARY_MAX_TOKENS",
		"inference.primary.temperature":   "TICKMILL_INFERENCE_PRIMARY_TEMPERATURE",
		"inference.primary.timeout_secs":  "TICKMILL_INFERENCE_PRIMARY_TIMEOUT_SECS",
		"inference.secondary.provider":    "TICKMILL_INFERENCE_SECONDARY_PROVIDER",
		"inference.secondary.api_key":     "TICKMILL_INFERENCE_SECONDARY_API_KEY",
		"inference.secondary.region":      "TICKMILL_INFERENCE_SECONDARY_REGION",
		"inference.secondary.default_model": "TICKMILL_INFERENCE_SECONDARY_DEFAULT_MODEL",
		"inference.secondary.max_tokens":    "TICKMILL_INFERENCE_SECONDARY_MAX_TOKENS",
		"inference.secondary.temperature":   "TICKMILL_INFERENCE_SECONDARY_TEMPERATURE",
		"inference.secondary.timeout_secs":  "TICKMILL_INFERENCE_SECONDARY_TIMEOUT_SECS",
		"watcher.enabled":                   "TICKMILL_WATCHER_ENABLED",
		"watcher.poll_interval_secs":        "TICKMILL_WATCHER_POLL_INTERVAL_SECS",
		"watcher.concurrency":               "TICKMILL_WATCHER_CONCURRENCY",
		"log.level":                         "TICKMILL_LOG_LEVEL",
		"log.format":                        "TICKMILL_LOG_FORMAT",
		"cors.allowed_origins":              "TICKMILL_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if TICKMILL_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("TICKMILL_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.S3 = S3Config{
		Region:         v.GetString("s3.region"),
		InputBucket:    v.GetString("s3.input_bucket"),
		ArchiveBucket:  v.GetString("s3.archive_bucket"),
		Endpoint:       v.GetString("s3.endpoint"),
		AccessKey:      v.GetString("s3.access_key"),
		SecretKey:      v.GetString("s3.secret_key"),
		RecordsPrefix:  v.GetString("s3.records_prefix"),
		StatusPrefix:   v.GetString("s3.status_prefix"),
		UploadExpiry:   v.GetInt64("s3.upload_expiry"),
		DownloadExpiry: v.GetInt64("s3.download_expiry"),
	}
	cfg.Image = ImageConfig{
		MaxDimension:  v.GetInt("image.max_dimension"),
		DefaultFormat: v.GetString("image.default_format"),
		JPEGQuality:   v.GetInt("image.jpeg_quality"),
	}
	cfg.Inference = InferenceConfig{
		Primary: InvokerConfig{
			Provider:     v.GetString("inference.primary.provider"),
			APIKey:       v.GetString("inference.primary.api_key"),
			Region:       v.GetString("inference.primary.region"),
			DefaultModel: v.GetString("inference.primary.default_model"),
			MaxTokens:    v.GetInt("inference.primary.max_tokens"),
			Temperature:  v.GetFloat64("inference.primary.temperature"),
			TimeoutSecs:  v.GetInt("inference.primary.timeout_secs"),
		},
		Secondary: InvokerConfig{
			Provider:     v.GetString("inference.secondary.provider"),
			APIKey:       v.GetString("inference.secondary.api_key"),
			Region:       v.GetString("inference.secondary.region"),
			DefaultModel: v.GetString("inference.secondary.default_model"),
			MaxTokens:    v.GetInt("inference.secondary.max_tokens"),
			Temperature:  v.GetFloat64("inference.secondary.temperature"),
			TimeoutSecs:  v.GetInt("inference.secondary.timeout_secs"),
		},
	}
	cfg.Watcher = WatcherConfig{
		Enabled:          v.GetBool("watcher.enabled"),
		PollIntervalSecs: v.GetInt("watcher.poll_interval_secs"),
		Concurrency:      v.GetInt("watcher.concurrency"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	return cfg, nil
}
