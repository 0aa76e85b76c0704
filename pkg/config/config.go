package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Generator GeneratorConfig
	Export    ExportConfig
	Jobs      JobsConfig
	Metrics   MetricsConfig
	Swagger   SwaggerConfig
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

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GeneratorConfig tunes the timetable generation engine.
type GeneratorConfig struct {
	DefaultAlgorithm  string
	DefaultTimeBudget time.Duration
	MaxTimeBudget     time.Duration
	ResultCacheTTL    time.Duration
	LunchWaves        int
	LunchWaveCapacity int
	Parallelism       int
}

// ExportConfig gates the report export endpoint.
type ExportConfig struct {
	Enabled bool
}

// JobsConfig sizes the background generation queue.
type JobsConfig struct {
	QueueSize  int
	Workers    int
	JobTimeout time.Duration
}

// MetricsConfig gates the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// SwaggerConfig gates the interactive API docs.
type SwaggerConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

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

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Generator = GeneratorConfig{
		DefaultAlgorithm:  v.GetString("GENERATOR_DEFAULT_ALGORITHM"),
		DefaultTimeBudget: parseDuration(v.GetString("GENERATOR_DEFAULT_TIME_BUDGET"), 30*time.Second),
		MaxTimeBudget:     parseDuration(v.GetString("GENERATOR_MAX_TIME_BUDGET"), 10*time.Minute),
		ResultCacheTTL:    parseDuration(v.GetString("GENERATOR_RESULT_CACHE_TTL"), time.Hour),
		LunchWaves:        v.GetInt("GENERATOR_LUNCH_WAVES"),
		LunchWaveCapacity: v.GetInt("GENERATOR_LUNCH_WAVE_CAPACITY"),
		Parallelism:       v.GetInt("GENERATOR_PARALLELISM"),
	}

	cfg.Export = ExportConfig{Enabled: v.GetBool("ENABLE_EXPORT")}

	cfg.Jobs = JobsConfig{
		QueueSize:  v.GetInt("JOBS_QUEUE_SIZE"),
		Workers:    v.GetInt("JOBS_WORKERS"),
		JobTimeout: parseDuration(v.GetString("JOBS_TIMEOUT"), 15*time.Minute),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}
	cfg.Swagger = SwaggerConfig{Enabled: v.GetBool("ENABLE_SWAGGER")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GENERATOR_DEFAULT_ALGORITHM", "SIMULATED_ANNEALING")
	v.SetDefault("GENERATOR_DEFAULT_TIME_BUDGET", "30s")
	v.SetDefault("GENERATOR_MAX_TIME_BUDGET", "10m")
	v.SetDefault("GENERATOR_RESULT_CACHE_TTL", "1h")
	v.SetDefault("GENERATOR_LUNCH_WAVES", 3)
	v.SetDefault("GENERATOR_LUNCH_WAVE_CAPACITY", 300)
	v.SetDefault("GENERATOR_PARALLELISM", 0)

	v.SetDefault("ENABLE_EXPORT", true)

	v.SetDefault("JOBS_QUEUE_SIZE", 16)
	v.SetDefault("JOBS_WORKERS", 1)
	v.SetDefault("JOBS_TIMEOUT", "15m")

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("ENABLE_SWAGGER", false)
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
