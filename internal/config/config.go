package config

import (
	"os"
	"strconv"
	"strings"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Kafka     KafkaConfig     `json:"kafka"`
	Logger    LoggerConfig    `json:"logger"`
	Catalog   CatalogConfig   `json:"catalog"`
	Cart      CartConfig      `json:"cart"`
	Analytics AnalyticsConfig `json:"analytics"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// ServerConfig представляет конфигурацию HTTP сервера
type ServerConfig struct {
	Port         string `json:"port"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
}

// DatabaseConfig представляет конфигурацию базы данных
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// KafkaConfig представляет конфигурацию Kafka
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	GroupID string   `json:"group_id"`
	Topics  Topics   `json:"topics"`
}

// Topics представляет список топиков Kafka
type Topics struct {
	Catalog string `json:"catalog"`
	Orders  string `json:"orders"`
	Chat    string `json:"chat"`
}

// LoggerConfig представляет конфигурацию логгера
type LoggerConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// CatalogConfig хранит настройки витрины
type CatalogConfig struct {
	DefaultPageSize int `json:"default_page_size"`
	MaxPageSize     int `json:"max_page_size"`
	RelatedLimit    int `json:"related_limit"`
	CacheTTLMinutes int `json:"cache_ttl_minutes"`
}

// CartConfig хранит настройки корзины
type CartConfig struct {
	TTLHours int `json:"ttl_hours"`
	MaxItems int `json:"max_items"`
}

// AnalyticsConfig хранит настройки аналитики продаж
type AnalyticsConfig struct {
	CacheTTLMinutes int `json:"cache_ttl_minutes"`
	DefaultTopLimit int `json:"default_top_limit"`
	MaxRangeDays    int `json:"max_range_days"`
}

// RateLimitConfig описывает настройки rate limiting
type RateLimitConfig struct {
	Enabled       bool   `json:"enabled"`
	Requests      int    `json:"requests"`
	WindowSeconds int    `json:"window_seconds"`
	KeyPrefix     string `json:"key_prefix"`
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "store_user"),
			Password: getEnv("DB_PASSWORD", "store_pass"),
			DBName:   getEnv("DB_NAME", "fragrance_store"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", "fragrance-store"),
			Topics: Topics{
				Catalog: getEnv("KAFKA_TOPIC_CATALOG", "catalog"),
				Orders:  getEnv("KAFKA_TOPIC_ORDERS", "orders"),
				Chat:    getEnv("KAFKA_TOPIC_CHAT", "chat"),
			},
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Catalog: CatalogConfig{
			DefaultPageSize: getEnvAsInt("CATALOG_DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:     getEnvAsInt("CATALOG_MAX_PAGE_SIZE", 100),
			RelatedLimit:    getEnvAsInt("CATALOG_RELATED_LIMIT", 4),
			CacheTTLMinutes: getEnvAsInt("CATALOG_CACHE_TTL_MINUTES", 5),
		},
		Cart: CartConfig{
			TTLHours: getEnvAsInt("CART_TTL_HOURS", 72),
			MaxItems: getEnvAsInt("CART_MAX_ITEMS", 50),
		},
		Analytics: AnalyticsConfig{
			CacheTTLMinutes: getEnvAsInt("ANALYTICS_CACHE_TTL_MINUTES", 10),
			DefaultTopLimit: getEnvAsInt("ANALYTICS_DEFAULT_TOP_LIMIT", 5),
			MaxRangeDays:    getEnvAsInt("ANALYTICS_MAX_RANGE_DAYS", 365),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			KeyPrefix:     getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit"),
		},
	}
}

// getEnv получает значение переменной окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает значение переменной окружения как int с значением по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool получает значение переменной окружения как bool с значением по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(getEnv(key, ""))
	if valueStr == "true" || valueStr == "1" || valueStr == "yes" {
		return true
	}
	if valueStr == "false" || valueStr == "0" || valueStr == "no" {
		return false
	}
	return defaultValue
}
