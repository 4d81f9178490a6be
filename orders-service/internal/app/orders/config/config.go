package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Tracing  TracingConfig
	Checkout CheckoutConfig
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8082)
}

type DatabaseConfig struct {
	Host        string // Хост PostgreSQL
	Port        string // Порт PostgreSQL
	User        string // Имя пользователя БД
	Password    string // Пароль БД
	DBName      string // Имя базы данных
	SSLMode     string // Режим SSL (disable/require/verify-full)
	AutoMigrate bool
}

type KafkaConfig struct {
	Brokers []string // Список брокеров Kafka (формат: host:port)
	Topic   string   // Топик для событий ORDER_CREATED, ORDER_STATUS_CHANGED
}

type JWTConfig struct {
	Secret string // Секретный ключ для проверки JWT токенов админки
}

type CORSConfig struct {
	AllowedOrigins []string
}

type TracingConfig struct {
	Endpoint string
}

// CheckoutConfig - политика повторов оформления заказа
type CheckoutConfig struct {
	MaxAttempts int
	Backoff     time.Duration
	Jitter      time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	maxAttempts, err := getEnvInt("CHECKOUT_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	if maxAttempts < 1 {
		return nil, fmt.Errorf("CHECKOUT_MAX_ATTEMPTS must be at least 1, got %d", maxAttempts)
	}
	backoff, err := getEnvDuration("CHECKOUT_BACKOFF", 30*time.Millisecond)
	if err != nil {
		return nil, err
	}
	jitter, err := getEnvDuration("CHECKOUT_BACKOFF_JITTER", 20*time.Millisecond)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8082"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "storefront"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			AutoMigrate: getEnv("DB_AUTO_MIGRATE", "false") == "true",
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "order_events"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Tracing: TracingConfig{
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
		Checkout: CheckoutConfig{
			MaxAttempts: maxAttempts,
			Backoff:     backoff,
			Jitter:      jitter,
		},
	}, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
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
