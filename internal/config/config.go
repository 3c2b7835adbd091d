package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Purchase  PurchaseConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	CinemaTTL       time.Duration
	AvailabilityTTL time.Duration
}

type PostgresConfig struct {
	User           string
	Password       string
	Name           string
	Host           string
	Port           int
	SSLMode        string
	MaxConns       int32
	MigrateOnStart bool
}

// RabbitMQConfig is optional; an empty URL disables domain event publishing.
type RabbitMQConfig struct {
	URL   string
	Queue string
}

type PurchaseConfig struct {
	Timeout        time.Duration
	IdempotencyTTL time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// DSN returns a postgres:// connection URL.
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: stringEnv("SERVER_HOST", "localhost"),
		Port: serverPort,
	}

	postgresPort, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	maxConns, err := intEnv("POSTGRES_MAX_CONNS", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	migrateOnStart, err := boolEnv("MIGRATE_ON_START", true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresCfg := PostgresConfig{
		User:           postgresUser,
		Password:       postgresPassword,
		Name:           postgresDB,
		Host:           stringEnv("POSTGRES_HOST", "localhost"),
		Port:           postgresPort,
		SSLMode:        stringEnv("POSTGRES_SSLMODE", "disable"),
		MaxConns:       int32(maxConns),
		MigrateOnStart: migrateOnStart,
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cinemaTTL, err := durationEnv("CINEMA_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	availabilityTTL, err := durationEnv("AVAILABILITY_CACHE_TTL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:            stringEnv("REDIS_ADDR", "localhost:6379"),
		Password:        os.Getenv("REDIS_PASSWORD"),
		DB:              redisDB,
		CinemaTTL:       cinemaTTL,
		AvailabilityTTL: availabilityTTL,
	}

	rabbitCfg := RabbitMQConfig{
		URL:   os.Getenv("RABBITMQ_URL"),
		Queue: stringEnv("RABBITMQ_QUEUE", "seats.sold"),
	}

	purchaseTimeout, err := durationEnv("PURCHASE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	idemTTL, err := durationEnv("IDEMPOTENCY_TTL", 2*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rlRequests, err := intEnv("RATE_LIMIT_REQUESTS", 10)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rlWindow, err := durationEnv("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Config{
		Server:   serverCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		RabbitMQ: rabbitCfg,
		Purchase: PurchaseConfig{
			Timeout:        purchaseTimeout,
			IdempotencyTTL: idemTTL,
		},
		RateLimit: RateLimitConfig{
			Requests: rlRequests,
			Window:   rlWindow,
		},
	}, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}

	return b, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return d, nil
}
