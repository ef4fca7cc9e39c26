// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types
const (
	SQLiteDatabase = "sqlite"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	PrivateKey  string   `mapstructure:"privatekey"`

	SessionTimeoutSeconds      int `mapstructure:"sessiontimeoutseconds"`
	LoginSessionTimeoutSeconds int `mapstructure:"loginsessiontimeoutseconds"`

	// File paths
	DatabasePath          string `mapstructure:"storagepath"`
	DatabaseName          string `mapstructure:"-"` // Derived from other settings
	PublicDirectory       string `mapstructure:"publicdir"`
	PublicAssetsUrlPrefix string `mapstructure:"publicassetsurlprefix"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseType         string `mapstructure:"dbtype"`
	DatabaseMaxOpenConns int    `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int    `mapstructure:"dbmaxidleconns"`

	// Job scheduling settings
	JobIntervalSeconds int `mapstructure:"jobintervalseconds"`

	// Data retention settings
	EventsRetentionDays int `mapstructure:"eventsretentiondays"`

	// Report engine settings
	ReportBatchLimit     int `mapstructure:"reportbatchlimit"`
	ReportTimeoutSeconds int `mapstructure:"reporttimeoutseconds"`
	IngestMaxBatch       int `mapstructure:"ingestmaxbatch"`

	// Report cache (disabled when RedisURL is empty)
	RedisURL              string `mapstructure:"redisurl"`
	ReportCacheTTLSeconds int    `mapstructure:"reportcachettlseconds"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "swipely")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", "88888888888888888888888888888888")
		v.SetDefault("sessiontimeoutseconds", 1800)
		v.SetDefault("loginsessiontimeoutseconds", 604800)
		v.SetDefault("storagepath", "storage")
		v.SetDefault("publicdir", "web/dist/assets")
		v.SetDefault("publicassetsurlprefix", "/")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbtype", SQLiteDatabase)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("jobintervalseconds", 3600)
		v.SetDefault("eventsretentiondays", 400)
		v.SetDefault("reportbatchlimit", 10000)
		v.SetDefault("reporttimeoutseconds", 10)
		v.SetDefault("ingestmaxbatch", 200)
		v.SetDefault("redisurl", "")
		v.SetDefault("reportcachettlseconds", 60)

		v.BindEnv("appname", "SWIPELY_APP_NAME")
		v.BindEnv("appport", "SWIPELY_APP_PORT")
		v.BindEnv("environment", "SWIPELY_ENV")
		v.BindEnv("loglevel", "SWIPELY_LOG_LEVEL")
		v.BindEnv("privatekey", "SWIPELY_PRIVATE_KEY")
		v.BindEnv("sessiontimeoutseconds", "SWIPELY_SESSION_TIMEOUT_SECONDS")
		v.BindEnv("loginsessiontimeoutseconds", "SWIPELY_LOGIN_SESSION_TIMEOUT_SECONDS")
		v.BindEnv("storagepath", "SWIPELY_STORAGE_PATH")
		v.BindEnv("publicdir", "SWIPELY_PUBLIC_DIR")
		v.BindEnv("publicassetsurlprefix", "SWIPELY_PUBLIC_ASSETS_URL_PREFIX")
		v.BindEnv("logsdir", "SWIPELY_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "SWIPELY_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "SWIPELY_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "SWIPELY_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbtype", "SWIPELY_DB_TYPE")
		v.BindEnv("dbmaxopenconns", "SWIPELY_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "SWIPELY_DB_MAX_IDLE_CONNS")
		v.BindEnv("jobintervalseconds", "SWIPELY_JOB_INTERVAL_SECONDS")
		v.BindEnv("eventsretentiondays", "SWIPELY_EVENTS_RETENTION_DAYS")
		v.BindEnv("reportbatchlimit", "SWIPELY_REPORT_BATCH_LIMIT")
		v.BindEnv("reporttimeoutseconds", "SWIPELY_REPORT_TIMEOUT_SECONDS")
		v.BindEnv("ingestmaxbatch", "SWIPELY_INGEST_MAX_BATCH")
		v.BindEnv("redisurl", "SWIPELY_REDIS_URL")
		v.BindEnv("reportcachettlseconds", "SWIPELY_REPORT_CACHE_TTL_SECONDS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		cfg.DatabaseName = cfg.GetDatabasePath()

		defaultKey := "88888888888888888888888888888888"
		if cfg.PrivateKey == "" {
			log.Fatal("Private key is required")
		}
		if cfg.IsProduction() && cfg.PrivateKey == defaultKey {
			log.Fatal("Production requires a unique SWIPELY_PRIVATE_KEY (cannot use default)")
		}
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validDBTypes := map[string]bool{
		SQLiteDatabase: true,
	}
	if !validDBTypes[c.DatabaseType] {
		return fmt.Errorf("invalid database type: %s", c.DatabaseType)
	}

	if c.ReportBatchLimit <= 0 {
		return fmt.Errorf("report batch limit must be positive: %d", c.ReportBatchLimit)
	}
	if c.IngestMaxBatch <= 0 {
		return fmt.Errorf("ingest max batch must be positive: %d", c.IngestMaxBatch)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// ReportTimeout returns the per-request deadline for report generation.
func (c *Config) ReportTimeout() time.Duration {
	if c.ReportTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ReportTimeoutSeconds) * time.Second
}

// ReportCacheTTL returns how long rendered reports stay in the cache.
func (c *Config) ReportCacheTTL() time.Duration {
	return time.Duration(c.ReportCacheTTLSeconds) * time.Second
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return c.PublicAssetsUrlPrefix
}

// GetAppName returns the application name (implements cartridge.FactoryConfig interface).
func (c *Config) GetAppName() string {
	return c.AppName
}

// DatabaseDSN returns the database connection string (implements cartridge.FactoryConfig interface).
func (c *Config) DatabaseDSN() string {
	return c.GetDatabasePath()
}

// GetSessionSecret returns the session encryption key (implements cartridge.FactoryConfig interface).
func (c *Config) GetSessionSecret() string {
	return c.PrivateKey
}

// GetSessionTimeout returns the visitor session timeout in seconds.
func (c *Config) GetSessionTimeout() int {
	return c.SessionTimeoutSeconds
}

// GetLoginSessionTimeout returns the login session timeout in seconds.
func (c *Config) GetLoginSessionTimeout() int {
	return c.LoginSessionTimeoutSeconds
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1
// - Development/Production: 10 (report requests read concurrently)
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
