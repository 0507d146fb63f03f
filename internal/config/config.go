package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultWebhookIPs are the PortOne webhook source addresses.
var DefaultWebhookIPs = []string{"52.78.100.19", "52.78.48.223", "52.78.5.241"}

const defaultGatewayTimeout = 5 * time.Second

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	PortOneShopID     string
	PortOnePGProvider string
	PortOneAPIKey     string
	PortOneAPISecret  string
	PortOneTimeout    time.Duration
	WebhookIPs        []string

	TrustedOrigins []string

	KafkaBrokers    []string
	KafkaOrderTopic string
}

// LoadConfig reads the process environment (and an optional .env file) once.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:            os.Getenv("DB_HOST"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		DBPort:            os.Getenv("DB_PORT"),
		AppPort:           os.Getenv("APP_PORT"),
		AppEnv:            os.Getenv("APP_ENV"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		PortOneShopID:     os.Getenv("PORTONE_SHOP_ID"),
		PortOnePGProvider: os.Getenv("PORTONE_PG_PROVIDER"),
		PortOneAPIKey:     os.Getenv("PORTONE_API_KEY"),
		PortOneAPISecret:  os.Getenv("PORTONE_API_SECRET"),
		PortOneTimeout:    parseDuration(os.Getenv("PORTONE_TIMEOUT"), defaultGatewayTimeout),
		WebhookIPs:        splitList(os.Getenv("PORTONE_WEBHOOK_IPS"), DefaultWebhookIPs),
		TrustedOrigins:    splitList(os.Getenv("CSRF_TRUSTED_ORIGINS"), nil),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS"), nil),
		KafkaOrderTopic:   os.Getenv("KAFKA_ORDER_TOPIC"),
	}

	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}
	if cfg.KafkaOrderTopic == "" {
		cfg.KafkaOrderTopic = "mall.orders"
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func splitList(raw string, fallback []string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
