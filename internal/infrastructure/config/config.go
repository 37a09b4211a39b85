package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Render      RenderConfig
	Idempotency IdempotencyConfig
	Redis       RedisConfig
	Telemetry   TelemetryConfig
	Batch       BatchConfig
	Storage     StorageConfig
	Database    DatabaseConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int           // requests allowed per window per client
	RateLimitWindow   time.Duration // refill window
	RateLimitBurst    int
	TrustedProxies    []string
}

// RenderConfig holds certificate rendering settings
type RenderConfig struct {
	BackgroundImage   string        // path to the page background; empty disables it
	RequireBackground bool          // fail startup when BackgroundImage is missing
	ChromeURL         string        // remote DevTools URL; empty launches a local browser
	ChromePath        string        // local browser executable; empty uses the default lookup
	NoSandbox         bool          // launch Chrome without its sandbox (containers running as root)
	Timeout           time.Duration // per-document PDF render timeout
}

// IdempotencyConfig holds Idempotency-Key replay settings
type IdempotencyConfig struct {
	Enabled   bool
	Backend   string // memory, redis
	TTL       time.Duration
	KeyPrefix string
	MaxItems  int // memory backend only
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable tracing
	CollectorEndpoint string  // OTLP gRPC endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool // Use a non-TLS connection (development only)
	DBTraceEnabled    bool // Trace ledger queries (otelgorm)
}

// BatchConfig holds submission driver settings. Zero values (and nil
// pointers) mean "use the mode preset".
type BatchConfig struct {
	Mode              string // csv, synthetic
	Input             string
	Delimiter         string
	Count             int
	Seed              int64
	RenderURL         string
	RequestTimeout    time.Duration
	MaxAttempts       *int // 0 = unbounded
	RetryDelay        *time.Duration
	Backoff           string // fixed, exponential
	BackoffMultiplier float64
	BackoffMaxDelay   time.Duration
	BackoffJitter     float64
	RecordDelay       *time.Duration
	BreakerThreshold  int
	BreakerCooldown   time.Duration
	Reports           *bool
	MetricsAddr       string
}

// StorageConfig holds artifact and report destinations
type StorageConfig struct {
	Backend   string // filesystem, s3
	PDFDir    string
	ReportDir string
	S3        S3Config
}

// S3Config holds S3-compatible object storage settings
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // custom endpoint for MinIO/RustFS
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	UsePathStyle    bool
}

// DatabaseConfig holds run ledger database settings
type DatabaseConfig struct {
	Enabled      bool
	Driver       string // sqlite, postgres
	Path         string // sqlite file
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// Load loads configuration from a TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with CERTGEN_ prefix (e.g., CERTGEN_RENDER_CHROME_URL)
// 2. The config file: path when given, otherwise config.toml in ., ./configs, /etc/certgen
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/certgen")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("CERTGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			RateLimitBurst:    v.GetInt("http.rate_limit_burst"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Render: RenderConfig{
			BackgroundImage:   v.GetString("render.background_image"),
			RequireBackground: v.GetBool("render.require_background"),
			ChromeURL:         v.GetString("render.chrome_url"),
			ChromePath:        v.GetString("render.chrome_path"),
			NoSandbox:         v.GetBool("render.no_sandbox"),
			Timeout:           v.GetDuration("render.timeout"),
		},
		Idempotency: IdempotencyConfig{
			Enabled:   v.GetBool("idempotency.enabled"),
			Backend:   v.GetString("idempotency.backend"),
			TTL:       v.GetDuration("idempotency.ttl"),
			KeyPrefix: v.GetString("idempotency.key_prefix"),
			MaxItems:  v.GetInt("idempotency.max_items"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
		Batch: BatchConfig{
			Mode:              v.GetString("batch.mode"),
			Input:             v.GetString("batch.input"),
			Delimiter:         v.GetString("batch.delimiter"),
			Count:             v.GetInt("batch.count"),
			Seed:              v.GetInt64("batch.seed"),
			RenderURL:         v.GetString("batch.render_url"),
			RequestTimeout:    v.GetDuration("batch.request_timeout"),
			Backoff:           v.GetString("batch.backoff"),
			BackoffMultiplier: v.GetFloat64("batch.backoff_multiplier"),
			BackoffMaxDelay:   v.GetDuration("batch.backoff_max_delay"),
			BackoffJitter:     v.GetFloat64("batch.backoff_jitter"),
			BreakerThreshold:  v.GetInt("batch.breaker_threshold"),
			BreakerCooldown:   v.GetDuration("batch.breaker_cooldown"),
			MetricsAddr:       v.GetString("batch.metrics_addr"),
		},
		Storage: StorageConfig{
			Backend:   v.GetString("storage.backend"),
			PDFDir:    v.GetString("storage.pdf_dir"),
			ReportDir: v.GetString("storage.report_dir"),
			S3: S3Config{
				Bucket:          v.GetString("storage.s3.bucket"),
				Region:          v.GetString("storage.s3.region"),
				Endpoint:        v.GetString("storage.s3.endpoint"),
				AccessKeyID:     v.GetString("storage.s3.access_key_id"),
				SecretAccessKey: v.GetString("storage.s3.secret_access_key"),
				Prefix:          v.GetString("storage.s3.prefix"),
				UsePathStyle:    v.GetBool("storage.s3.use_path_style"),
			},
		},
		Database: DatabaseConfig{
			Enabled:      v.GetBool("database.enabled"),
			Driver:       v.GetString("database.driver"),
			Path:         v.GetString("database.path"),
			Host:         v.GetString("database.host"),
			Port:         v.GetInt("database.port"),
			User:         v.GetString("database.user"),
			Password:     v.GetString("database.password"),
			DBName:       v.GetString("database.dbname"),
			SSLMode:      v.GetString("database.sslmode"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
		},
	}

	// Presence matters for these: 0 attempts means unbounded and 0 delay is valid.
	if v.IsSet("batch.max_attempts") {
		n := v.GetInt("batch.max_attempts")
		cfg.Batch.MaxAttempts = &n
	}
	if v.IsSet("batch.retry_delay") {
		d := v.GetDuration("batch.retry_delay")
		cfg.Batch.RetryDelay = &d
	}
	if v.IsSet("batch.record_delay") {
		d := v.GetDuration("batch.record_delay")
		cfg.Batch.RecordDelay = &d
	}
	if v.IsSet("batch.reports") {
		b := v.GetBool("batch.reports")
		cfg.Batch.Reports = &b
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "gcci-certgen"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8000"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 60
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = 10
	}
	if cfg.Render.Timeout == 0 {
		cfg.Render.Timeout = 30 * time.Second
	}
	if cfg.Idempotency.Backend == "" {
		cfg.Idempotency.Backend = "memory"
	}
	if cfg.Idempotency.TTL == 0 {
		cfg.Idempotency.TTL = 24 * time.Hour
	}
	if cfg.Idempotency.KeyPrefix == "" {
		cfg.Idempotency.KeyPrefix = "certgen:idem:"
	}
	if cfg.Idempotency.MaxItems == 0 {
		cfg.Idempotency.MaxItems = 1000
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Batch.Mode == "" {
		cfg.Batch.Mode = "csv"
	}
	if cfg.Batch.Delimiter == "" {
		cfg.Batch.Delimiter = ","
	}
	if cfg.Batch.RenderURL == "" {
		cfg.Batch.RenderURL = "http://localhost:8000/generate-origin-certificate-pdf/"
	}
	if cfg.Batch.RequestTimeout == 0 {
		cfg.Batch.RequestTimeout = 60 * time.Second
	}
	if cfg.Batch.Backoff == "" {
		cfg.Batch.Backoff = "fixed"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "filesystem"
	}
	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = "us-east-1"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "certgen_runs.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "certgen"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 5
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Idempotency.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("idempotency.backend must be memory or redis, got %q", c.Idempotency.Backend)
	}
	switch c.Batch.Mode {
	case "csv", "synthetic":
	default:
		return fmt.Errorf("batch.mode must be csv or synthetic, got %q", c.Batch.Mode)
	}
	if c.Batch.MaxAttempts != nil && *c.Batch.MaxAttempts < 0 {
		return fmt.Errorf("batch.max_attempts cannot be negative")
	}
	if c.Batch.RetryDelay != nil && *c.Batch.RetryDelay < 0 {
		return fmt.Errorf("batch.retry_delay cannot be negative")
	}
	if c.Batch.Count < 0 {
		return fmt.Errorf("batch.count cannot be negative")
	}
	if utf8.RuneCountInString(c.Batch.Delimiter) != 1 {
		return fmt.Errorf("batch.delimiter must be a single character, got %q", c.Batch.Delimiter)
	}
	switch c.Storage.Backend {
	case "filesystem":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when storage.backend is s3")
		}
	default:
		return fmt.Errorf("storage.backend must be filesystem or s3, got %q", c.Storage.Backend)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.App.Env == "production" && c.Render.BackgroundImage == "" {
		return fmt.Errorf("render.background_image is required in production")
	}
	return nil
}

// DSN returns the postgres connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
