package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Log       LogConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Archive   ArchiveConfig
	Rendering RenderingConfig
	Profiles  ProfilesConfig
	Footer    FooterConfig
	Printing  PrintingConfig
	Quota     QuotaConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
	Auth      AuthConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
	CORSOrigins    []string // empty rejects cross-origin requests
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // sqlite or postgres
	Path            string // sqlite file path
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	AutoMigrate     bool
}

// StorageConfig holds the label file store settings
type StorageConfig struct {
	BasePath       string // prepared label PDFs
	WorkspaceDir   string // per-record scratch directories
	AttachmentsDir string // base of relative sale attachment paths
	RetentionDays int    // 0 keeps labels forever
}

// ArchiveConfig holds the optional S3-compatible label mirror
type ArchiveConfig struct {
	Enabled      bool
	Bucket       string
	Prefix       string
	AccessKey    string
	SecretKey    string
	Region       string
	Endpoint     string
	UseSSL       bool
	UsePathStyle bool
}

// RenderingConfig holds the rasterizer chain settings
type RenderingConfig struct {
	PdftoppmEnabled bool
	PdftoppmPath    string
	ChromeEnabled   bool
	ChromeRemoteURL string // connect to a running browser instead of launching one
	ChromeNoSandbox bool
	Timeout         time.Duration
	TempDir         string
}

// ProfilesConfig holds the carrier sets of the carrier-specific profiles
type ProfilesConfig struct {
	QuadrantCarriers        []string
	QuadrantMarketplaces    []string
	HalfRotatedCarriers     []string
	HalfRotatedMarketplaces []string
	TextDetection           bool
}

// FooterConfig holds footer text formatting
type FooterConfig struct {
	Separator  string
	DateLayout string
}

// PrintingConfig holds print submission settings
type PrintingConfig struct {
	// ExternalTool is the preferred submission program; empty disables it
	ExternalTool     string
	ExternalToolArgs []string // {printer} and {file} are substituted
	SubmitTimeout    time.Duration
	ListTimeout      time.Duration
	RecentJobsLimit  int
}

// Quota modes
const (
	QuotaModeNone  = "none"
	QuotaModeRedis = "redis"
)

// QuotaConfig holds the print quota gate settings
type QuotaConfig struct {
	Mode         string // none or redis
	MonthlyLimit int64
	KeyPrefix    string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool    // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool    // Log full SQL statements (dev only)
	MetricsEnabled    bool    // Expose /metrics
}

// AuthConfig holds API bearer token settings
type AuthConfig struct {
	Enabled  bool
	Secret   string
	Issuer   string
	TokenTTL time.Duration // lifetime of tokens issued by labelctl
}

// Load loads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with LABELBRIDGE_ prefix (e.g., LABELBRIDGE_DATABASE_DRIVER)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/labelbridge")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}
	return load(v)
}

// LoadFile loads configuration from an explicit file, still honouring environment overrides
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("LABELBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true need an explicit default, zero values are meaningful
	v.SetDefault("rendering.pdftoppm_enabled", true)
	v.SetDefault("rendering.chrome_enabled", true)
	v.SetDefault("profiles.text_detection", true)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("telemetry.metrics_enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: stringList(v, "http.trusted_proxies"),
			CORSOrigins:    stringList(v, "http.cors_origins"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Storage: StorageConfig{
			BasePath:       v.GetString("storage.base_path"),
			WorkspaceDir:   v.GetString("storage.workspace_dir"),
			AttachmentsDir: v.GetString("storage.attachments_dir"),
			RetentionDays:  v.GetInt("storage.retention_days"),
		},
		Archive: ArchiveConfig{
			Enabled:      v.GetBool("archive.enabled"),
			Bucket:       v.GetString("archive.bucket"),
			Prefix:       v.GetString("archive.prefix"),
			AccessKey:    v.GetString("archive.access_key"),
			SecretKey:    v.GetString("archive.secret_key"),
			Region:       v.GetString("archive.region"),
			Endpoint:     v.GetString("archive.endpoint"),
			UseSSL:       v.GetBool("archive.use_ssl"),
			UsePathStyle: v.GetBool("archive.use_path_style"),
		},
		Rendering: RenderingConfig{
			PdftoppmEnabled: v.GetBool("rendering.pdftoppm_enabled"),
			PdftoppmPath:    v.GetString("rendering.pdftoppm_path"),
			ChromeEnabled:   v.GetBool("rendering.chrome_enabled"),
			ChromeRemoteURL: v.GetString("rendering.chrome_remote_url"),
			ChromeNoSandbox: v.GetBool("rendering.chrome_no_sandbox"),
			Timeout:         v.GetDuration("rendering.timeout"),
			TempDir:         v.GetString("rendering.temp_dir"),
		},
		Profiles: ProfilesConfig{
			QuadrantCarriers:        stringList(v, "profiles.quadrant_carriers"),
			QuadrantMarketplaces:    stringList(v, "profiles.quadrant_marketplaces"),
			HalfRotatedCarriers:     stringList(v, "profiles.half_rotated_carriers"),
			HalfRotatedMarketplaces: stringList(v, "profiles.half_rotated_marketplaces"),
			TextDetection:           v.GetBool("profiles.text_detection"),
		},
		Footer: FooterConfig{
			Separator:  v.GetString("footer.separator"),
			DateLayout: v.GetString("footer.date_layout"),
		},
		Printing: PrintingConfig{
			ExternalTool:     v.GetString("printing.external_tool"),
			ExternalToolArgs: stringList(v, "printing.external_tool_args"),
			SubmitTimeout:    v.GetDuration("printing.submit_timeout"),
			ListTimeout:      v.GetDuration("printing.list_timeout"),
			RecentJobsLimit:  v.GetInt("printing.recent_jobs_limit"),
		},
		Quota: QuotaConfig{
			Mode:         v.GetString("quota.mode"),
			MonthlyLimit: v.GetInt64("quota.monthly_limit"),
			KeyPrefix:    v.GetString("quota.key_prefix"),
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
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
		},
		Auth: AuthConfig{
			Enabled:  v.GetBool("auth.enabled"),
			Secret:   v.GetString("auth.secret"),
			Issuer:   v.GetString("auth.issuer"),
			TokenTTL: v.GetDuration("auth.token_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// stringList reads a list that may come from TOML as an array or from the environment as a
// comma-separated string
func stringList(v *viper.Viper, key string) []string {
	var items []string
	switch raw := v.Get(key).(type) {
	case nil:
		return nil
	case string:
		items = strings.Split(raw, ",")
	default:
		items = v.GetStringSlice(key)
	}

	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "labelbridge"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// preparing a batch rasterizes every record synchronously
		cfg.HTTP.WriteTimeout = 5 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
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

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "labelbridge.db"
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
		cfg.Database.DBName = "labelbridge"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}

	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = filepath.Join("data", "labels")
	}
	if cfg.Storage.AttachmentsDir == "" {
		cfg.Storage.AttachmentsDir = filepath.Join("data", "attachments")
	}
	if cfg.Storage.WorkspaceDir == "" {
		cfg.Storage.WorkspaceDir = filepath.Join("data", "work")
	}

	if cfg.Archive.Region == "" {
		cfg.Archive.Region = "us-east-1"
	}
	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = "labels"
	}

	if cfg.Rendering.Timeout == 0 {
		cfg.Rendering.Timeout = 30 * time.Second
	}

	if len(cfg.Profiles.QuadrantCarriers) == 0 {
		cfg.Profiles.QuadrantCarriers = []string{"mondial relay", "inpost", "relais colis"}
	}
	if len(cfg.Profiles.HalfRotatedCarriers) == 0 {
		cfg.Profiles.HalfRotatedCarriers = []string{"colissimo", "chronopost", "la poste"}
	}

	if cfg.Footer.Separator == "" {
		cfg.Footer.Separator = " | "
	}
	if cfg.Footer.DateLayout == "" {
		cfg.Footer.DateLayout = "02/01/2006"
	}

	if len(cfg.Printing.ExternalToolArgs) == 0 {
		cfg.Printing.ExternalToolArgs = []string{"-print-to", "{printer}", "-silent", "{file}"}
	}
	if cfg.Printing.SubmitTimeout == 0 {
		cfg.Printing.SubmitTimeout = 60 * time.Second
	}
	if cfg.Printing.ListTimeout == 0 {
		cfg.Printing.ListTimeout = 10 * time.Second
	}
	if cfg.Printing.RecentJobsLimit == 0 {
		cfg.Printing.RecentJobsLimit = 50
	}

	if cfg.Quota.Mode == "" {
		cfg.Quota.Mode = QuotaModeNone
	}
	if cfg.Quota.KeyPrefix == "" {
		cfg.Quota.KeyPrefix = "labelbridge:quota"
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
		cfg.Telemetry.ServiceName = "labelbridge"
	}

	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "labelbridge"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if !slices.Contains([]string{DriverSQLite, DriverPostgres}, c.Database.Driver) {
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("storage.retention_days cannot be negative")
	}

	if c.Archive.Enabled {
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket is required when the archive is enabled")
		}
		if c.Archive.AccessKey == "" || c.Archive.SecretKey == "" {
			return fmt.Errorf("archive.access_key and archive.secret_key are required when the archive is enabled")
		}
	}

	switch c.Quota.Mode {
	case QuotaModeNone:
	case QuotaModeRedis:
		if c.Quota.MonthlyLimit <= 0 {
			return fmt.Errorf("quota.monthly_limit must be positive in redis mode")
		}
	default:
		return fmt.Errorf("quota.mode must be %q or %q, got %q", QuotaModeNone, QuotaModeRedis, c.Quota.Mode)
	}

	if c.Auth.Enabled && len(c.Auth.Secret) < 32 {
		return fmt.Errorf("auth.secret must be at least 32 characters when auth is enabled")
	}

	if c.App.Env == "production" {
		if !c.Auth.Enabled {
			return fmt.Errorf("auth.enabled must be true in production")
		}
		if c.Database.Driver == DriverPostgres && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return d.Path
	}
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

// MigrateURL returns the golang-migrate database URL
func (d *DatabaseConfig) MigrateURL() string {
	if d.Driver == DriverSQLite {
		return "sqlite3://" + d.Path
	}
	return d.DSN()
}
