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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Health    HealthConfig
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
	// AutoMigrate applies embedded migrations when the gateway starts.
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to verify tokens minted by the identity provider.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig tunes the flight generation pipeline.
type SchedulerConfig struct {
	Enabled        bool
	HomeBaseIATA   string
	Seed           uint64
	Parallelism    int
	EquipmentGate  bool
	ServiceBuffer  time.Duration
	VariantRanking string
	RunTTL         time.Duration
	QueueRetries   int
	RetryDelay     time.Duration
	// GenerateRate limits generation requests per user per minute; zero disables the limit.
	GenerateRate   float64
	GenerateBurst  int
}

// HealthConfig governs the flight board.
type HealthConfig struct {
	CacheTTL time.Duration
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
		var pathErr *fs.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
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
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	parallelism := v.GetInt("SCHEDULER_PARALLELISM")
	if parallelism <= 0 {
		parallelism = 1
	}
	cfg.Scheduler = SchedulerConfig{
		Enabled:        v.GetBool("ENABLE_SCHEDULER"),
		HomeBaseIATA:   strings.ToUpper(strings.TrimSpace(v.GetString("SCHEDULER_HOME_BASE"))),
		Seed:           v.GetUint64("SCHEDULER_SEED"),
		Parallelism:    parallelism,
		EquipmentGate:  v.GetBool("SCHEDULER_EQUIPMENT_GATE"),
		ServiceBuffer:  parseDuration(v.GetString("SCHEDULER_SERVICE_BUFFER"), 0),
		VariantRanking: strings.ToLower(v.GetString("SCHEDULER_VARIANT_RANKING")),
		RunTTL:         parseDuration(v.GetString("SCHEDULER_RUN_TTL"), 6*time.Hour),
		QueueRetries:   v.GetInt("SCHEDULER_QUEUE_RETRIES"),
		RetryDelay:     parseDuration(v.GetString("SCHEDULER_RETRY_DELAY"), 5*time.Second),
		GenerateRate:   v.GetFloat64("SCHEDULER_GENERATE_RATE"),
		GenerateBurst:  v.GetInt("SCHEDULER_GENERATE_BURST"),
	}

	cfg.Health = HealthConfig{
		CacheTTL: parseDuration(v.GetString("FLIGHT_BOARD_CACHE_TTL"), time.Minute),
	}

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
	v.SetDefault("DB_NAME", "route_network")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SCHEDULER", true)
	v.SetDefault("SCHEDULER_HOME_BASE", "")
	v.SetDefault("SCHEDULER_SEED", 1)
	v.SetDefault("SCHEDULER_PARALLELISM", 4)
	v.SetDefault("SCHEDULER_EQUIPMENT_GATE", false)
	v.SetDefault("SCHEDULER_SERVICE_BUFFER", "0s")
	v.SetDefault("SCHEDULER_VARIANT_RANKING", "first_feasible")
	v.SetDefault("SCHEDULER_RUN_TTL", "6h")
	v.SetDefault("SCHEDULER_QUEUE_RETRIES", 2)
	v.SetDefault("SCHEDULER_RETRY_DELAY", "5s")
	v.SetDefault("SCHEDULER_GENERATE_RATE", 2)
	v.SetDefault("SCHEDULER_GENERATE_BURST", 1)

	v.SetDefault("FLIGHT_BOARD_CACHE_TTL", "1m")
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
