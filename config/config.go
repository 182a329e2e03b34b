package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Session  SessionConfig
	Net32    Net32Config
}

type ServerConfig struct {
	AppEnv string
	Port   string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

type SessionConfig struct {
	TTLMinutes int
}

type Net32Config struct {
	BaseURL                  string
	InventoryURL             string
	SubscriptionKey          string
	InventorySubscriptionKey string
	TimeoutSeconds           int
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv: getEnv("APP_ENV", "development"),
			Port:   getEnv("PORT", "3000"),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASS", ""),
			DBName:          getEnv("DB_NAME", "net32_admin"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
		},
		Session: SessionConfig{
			TTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 120),
		},
		Net32: Net32Config{
			BaseURL:                  getEnv("NET32_BASE_URL", ""),
			InventoryURL:             getEnv("NET32_INVENTORY_URL", ""),
			SubscriptionKey:          getEnv("SUBSCRIPTION_KEY", ""),
			InventorySubscriptionKey: getEnv("INVENTORY_SUBSCRIPTION_KEY", ""),
			TimeoutSeconds:           getEnvInt("NET32_TIMEOUT_SECONDS", 10),
		},
	}
}

// DSN builds the Postgres connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
