package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - вся конфигурация процесса (бот, админка, ctl)
type Config struct {
	Database    DatabaseConfig
	Telegram    TelegramConfig
	AI          AIConfig
	Redis       RedisConfig
	Admin       AdminConfig
	Telemetry   TelemetryConfig
	Storage     StorageConfig
	MetricsAddr string // /metrics процесса бота, пустой отключает
	LogLevel    string
}

// DatabaseConfig - подключение к PostgreSQL и размер пула
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectAttempts int
}

// TelegramConfig - токен и администраторы бота
type TelegramConfig struct {
	Token          string
	AdminIDs       []int64
	PollTimeout    int
	MaxConcurrency int
}

// AIConfig - OpenRouter (Gemini) для оценки КБЖУ и советов
type AIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	VisionModel   string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	ResponseTTL   time.Duration
	NutritionTTL  time.Duration
	RecipeTTL     time.Duration
}

// RedisConfig - кэш ответов AI, пустой адрес отключает кэш
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AdminConfig - HTTP админка
type AdminConfig struct {
	Port string
	Key  string
}

// TelemetryConfig - OpenTelemetry трейсинг
type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

// StorageConfig - S3-совместимое хранилище для фото еды, пустой endpoint отключает архив
type StorageConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnectAttempts: getEnvAsInt("DB_CONNECT_ATTEMPTS", 15),
		},
		Telegram: TelegramConfig{
			Token:          getEnv("TELEGRAM_TOKEN", ""),
			AdminIDs:       ParseIDs(getEnv("ADMIN_IDS", "")),
			PollTimeout:    getEnvAsInt("TELEGRAM_POLL_TIMEOUT", 60),
			MaxConcurrency: getEnvAsInt("TELEGRAM_MAX_CONCURRENCY", 16),
		},
		AI: AIConfig{
			APIKey:        getEnv("OPENROUTER_API_KEY", ""),
			BaseURL:       getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:         getEnv("OPENROUTER_MODEL", "google/gemini-2.0-flash-001"),
			VisionModel:   getEnv("OPENROUTER_VISION_MODEL", "google/gemini-2.0-flash-001"),
			Timeout:       getEnvAsDuration("AI_TIMEOUT", 30*time.Second),
			RetryAttempts: getEnvAsInt("AI_RETRY_ATTEMPTS", 3),
			RetryDelay:    getEnvAsDuration("AI_RETRY_DELAY", time.Second),
			ResponseTTL:   getEnvAsDuration("AI_CACHE_TTL", time.Hour),
			NutritionTTL:  getEnvAsDuration("AI_NUTRITION_CACHE_TTL", 7*24*time.Hour),
			RecipeTTL:     getEnvAsDuration("AI_RECIPE_CACHE_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Admin: AdminConfig{
			Port: getEnv("ADMIN_PORT", "8080"),
			Key:  getEnv("ADMIN_API_KEY", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "pro-pitashka"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", "food-photos"),
		},
		MetricsAddr: lookupEnv("METRICS_ADDR", ":9091"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate проверяет общие для всех процессов поля
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive")
	}
	if c.AI.RetryAttempts < 1 {
		return fmt.Errorf("AI_RETRY_ATTEMPTS must be positive")
	}
	return nil
}

// ValidateBot - дополнительные требования процесса бота
func (c *Config) ValidateBot() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	return nil
}

// ValidateAdmin - дополнительные требования HTTP админки
func (c *Config) ValidateAdmin() error {
	if c.Admin.Key == "" {
		return fmt.Errorf("ADMIN_API_KEY is required")
	}
	return nil
}

// ParseIDs преобразует строку вида "123,456,789" в срез int64, мусор пропускается
func ParseIDs(ids string) []int64 {
	var result []int64
	for _, s := range strings.Split(ids, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			result = append(result, id)
		}
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv в отличие от getEnv различает пустое значение и отсутствие переменной
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration понимает и "30s", и просто секунды "30"
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}
