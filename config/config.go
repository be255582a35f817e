package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Search    SearchConfig
	Kafka     KafkaConfig
	S3        S3Config
	RateLimit RateLimitConfig
	Tickets   TicketConfig
	Admin     AdminSeedConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

// IsProduction reports whether schema sync and debug output should be off
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled is false when no redis host is configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type SearchConfig struct {
	URL      string
	Username string
	Password string
	Index    string
}

func (s SearchConfig) Enabled() bool {
	return s.URL != ""
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type RateLimitConfig struct {
	AuthPerSecond float64
	AuthBurst     int
}

type TicketConfig struct {
	AutoCloseAfter time.Duration
	AutoCloseCron  string
}

type AdminSeedConfig struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// Load reads and validates the configuration for the API server
func Load() (*Config, error) {
	config := Read()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Read loads .env and the process environment without validation. Tools
// that never issue tokens use it directly.
func Read() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "3002"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Expiry: parseDuration(getEnv("JWT_EXPIRY", "24h"), 24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			CacheTTL: parseDuration(getEnv("CACHE_TTL", "5m"), 5*time.Minute),
		},
		Search: SearchConfig{
			URL:      getEnv("ELASTICSEARCH_URL", ""),
			Username: getEnv("ELASTICSEARCH_USER", ""),
			Password: getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:    getEnv("ELASTICSEARCH_INDEX", "products"),
		},
		Kafka: KafkaConfig{
			Brokers: parseSlice(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "storefront.events"),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "eu-central-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "storefront-product-images"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		RateLimit: RateLimitConfig{
			AuthPerSecond: parseFloat(getEnv("AUTH_RATE_LIMIT", "5"), 5),
			AuthBurst:     parseInt(getEnv("AUTH_RATE_BURST", "10"), 10),
		},
		Tickets: TicketConfig{
			AutoCloseAfter: parseDuration(getEnv("TICKET_AUTO_CLOSE_AFTER", "168h"), 168*time.Hour),
			AutoCloseCron:  getEnv("TICKET_AUTO_CLOSE_CRON", "0 3 * * *"),
		},
		Admin: AdminSeedConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@admin.com"),
			Password: getEnv("ADMIN_PASSWORD", "admin123"),
			Name:     getEnv("ADMIN_NAME", "Admin"),
			Phone:    getEnv("ADMIN_PHONE", "+1234567890"),
		},
	}

	return config
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("Invalid number %s, using default %v", s, fallback)
		return fallback
	}
	return f
}

func parseSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
