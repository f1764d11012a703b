package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Cache drivers accepted by CACHE_DRIVER.
const (
	CacheDriverNone   = "none"
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Cache        CacheConfig
	Registration RegistrationConfig
	Transcripts  TranscriptConfig
	Seed         SeedConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig selects the catalog response cache backend.
type CacheConfig struct {
	Driver          string
	CatalogTTL      time.Duration
	CleanupInterval time.Duration
}

// RegistrationConfig tunes batch registration fan-out.
type RegistrationConfig struct {
	BatchConcurrency int
	BatchMaxItems    int
}

// TranscriptConfig controls importing completion facts from the records database.
type TranscriptConfig struct {
	Enabled           bool
	ImportOnStartup   bool
	WorkerConcurrency int
	WorkerRetries     int
	RetryDelay        time.Duration
}

// SeedConfig points at an optional YAML file with courses, accounts and completions.
type SeedConfig struct {
	File string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	driver := strings.ToLower(strings.TrimSpace(v.GetString("CACHE_DRIVER")))
	switch driver {
	case CacheDriverNone, CacheDriverMemory, CacheDriverRedis:
	default:
		driver = CacheDriverMemory
	}
	cfg.Cache = CacheConfig{
		Driver:          driver,
		CatalogTTL:      parseDuration(v.GetString("CATALOG_CACHE_TTL"), 30*time.Second),
		CleanupInterval: parseDuration(v.GetString("CACHE_CLEANUP_INTERVAL"), 5*time.Minute),
	}

	cfg.Registration = RegistrationConfig{
		BatchConcurrency: v.GetInt("BULK_REGISTRATION_CONCURRENCY"),
		BatchMaxItems:    v.GetInt("BULK_REGISTRATION_MAX_ITEMS"),
	}

	cfg.Transcripts = TranscriptConfig{
		Enabled:           v.GetBool("ENABLE_TRANSCRIPT_IMPORT"),
		ImportOnStartup:   v.GetBool("TRANSCRIPT_IMPORT_ON_STARTUP"),
		WorkerConcurrency: v.GetInt("TRANSCRIPT_IMPORT_WORKERS"),
		WorkerRetries:     v.GetInt("TRANSCRIPT_IMPORT_RETRIES"),
		RetryDelay:        parseDuration(v.GetString("TRANSCRIPT_IMPORT_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Seed = SeedConfig{File: v.GetString("SEED_FILE")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "records")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "enrollment-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CACHE_DRIVER", CacheDriverMemory)
	v.SetDefault("CATALOG_CACHE_TTL", "30s")
	v.SetDefault("CACHE_CLEANUP_INTERVAL", "5m")

	v.SetDefault("BULK_REGISTRATION_CONCURRENCY", 8)
	v.SetDefault("BULK_REGISTRATION_MAX_ITEMS", 500)

	v.SetDefault("ENABLE_TRANSCRIPT_IMPORT", false)
	v.SetDefault("TRANSCRIPT_IMPORT_ON_STARTUP", true)
	v.SetDefault("TRANSCRIPT_IMPORT_WORKERS", 1)
	v.SetDefault("TRANSCRIPT_IMPORT_RETRIES", 3)
	v.SetDefault("TRANSCRIPT_IMPORT_RETRY_DELAY", "5s")

	v.SetDefault("SEED_FILE", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
