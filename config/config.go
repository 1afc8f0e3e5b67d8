package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App               AppConfig
	HTTP              ServerConfig
	GRPC              ServerConfig
	Log               LogConfig
	InternalEndpoints InternalEndpointsConfig
	Gateway           GatewayConfig
	Polling           PollingConfig
	Sessions          SessionConfig
	Navigation        NavigationConfig
	Redis             RedisConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type LogConfig struct {
	Level string
}

type InternalEndpointsConfig struct {
	AuthGRPCAddr string
}

type GatewayConfig struct {
	BaseURL        string
	StatusPath     string
	Method         string
	APIKey         string
	RequestTimeout time.Duration
}

type PollingConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

type SessionConfig struct {
	IdleTimeout   time.Duration
	Retention     time.Duration
	SweepInterval time.Duration
}

type NavigationConfig struct {
	DashboardURL string
	CheckoutURL  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	gatewayURL := strings.TrimRight(os.Getenv("GATEWAY_BASE_URL"), "/")
	if gatewayURL == "" {
		return nil, errors.New("GATEWAY_BASE_URL environment variable is required")
	}

	method := strings.ToUpper(getEnv("GATEWAY_METHOD", "GET"))
	if method != "GET" && method != "POST" {
		return nil, errors.New("GATEWAY_METHOD must be GET or POST")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "payment-status-service"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		Log: LogConfig{Level: getEnv("LOG_LEVEL", "info")},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr: getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9090"),
		},
		Gateway: GatewayConfig{
			BaseURL:        gatewayURL,
			StatusPath:     getEnv("GATEWAY_STATUS_PATH", "/paymentstatus/{id}"),
			Method:         method,
			APIKey:         getEnv("GATEWAY_API_KEY", ""),
			RequestTimeout: getSecondsEnv("GATEWAY_REQUEST_TIMEOUT_SECONDS", 15*time.Second),
		},
		Polling: PollingConfig{
			Interval: getSecondsEnv("POLL_INTERVAL_SECONDS", 5*time.Second),
			Timeout:  getSecondsEnv("POLL_TIMEOUT_SECONDS", 5*time.Minute),
		},
		Sessions: SessionConfig{
			IdleTimeout:   getSecondsEnv("SESSION_IDLE_TIMEOUT_SECONDS", time.Minute),
			Retention:     getDurationEnv("SESSION_RETENTION_MINUTES", 30*time.Minute),
			SweepInterval: getSecondsEnv("SESSION_SWEEP_INTERVAL_SECONDS", 30*time.Second),
		},
		Navigation: NavigationConfig{
			DashboardURL: getEnv("NAV_DASHBOARD_URL", "/dashboard"),
			CheckoutURL:  getEnv("NAV_CHECKOUT_URL", "/checkout"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil && minutes > 0 {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
