package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все настройки Background Worker Service
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Cron     CronConfig
}

type ServerConfig struct {
	Port string // Порт health/metrics сервера (по умолчанию 8080)
}

// DatabaseConfig - общая БД каталога и заказов, воркер только читает остатки
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - кеш каталога, который воркер инвалидирует
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// KafkaConfig - подписка на топик order_events
type KafkaConfig struct {
	Brokers  []string // Список брокеров Kafka (формат: host:port)
	Topic    string   // Топик событий заказов
	GroupID  string   // ID группы потребителей
	MinBytes int      // Минимум байт для fetch запроса
	MaxBytes int      // Максимум байт для fetch запроса
}

// CronConfig - расписание отчета о заканчивающихся товарах
type CronConfig struct {
	LowStock          string        // Расписание с секундами, например "0 */15 * * * *"
	LowStockThreshold int           // Вариант считается заканчивающимся при 0 < stock <= порога
	LowStockLimit     int           // Сколько вариантов выводить в лог
	ReportTTL         time.Duration // Время жизни последнего отчета в Redis
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	minBytes, err := getEnvInt("KAFKA_MIN_BYTES", 1)
	if err != nil {
		return nil, err
	}
	maxBytes, err := getEnvInt("KAFKA_MAX_BYTES", 10e6)
	if err != nil {
		return nil, err
	}
	threshold, err := getEnvInt("LOW_STOCK_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	if threshold < 1 {
		return nil, fmt.Errorf("LOW_STOCK_THRESHOLD must be positive, got %d", threshold)
	}
	limit, err := getEnvInt("LOW_STOCK_REPORT_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	reportTTL, err := getEnvDuration("LOW_STOCK_REPORT_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:  splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:    getEnv("KAFKA_TOPIC", "order_events"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "background-worker-group"),
			MinBytes: minBytes,
			MaxBytes: maxBytes,
		},
		Cron: CronConfig{
			LowStock:          getEnv("CRON_LOW_STOCK", "0 */15 * * * *"),
			LowStockThreshold: threshold,
			LowStockLimit:     limit,
			ReportTTL:         reportTTL,
		},
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *ServerConfig) Address() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
