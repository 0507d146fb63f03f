package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5432")
		t.Setenv("APP_PORT", "9000")
		t.Setenv("APP_ENV", "test")
		t.Setenv("PORTONE_SHOP_ID", "imp00000000")
		t.Setenv("PORTONE_API_KEY", "key")
		t.Setenv("PORTONE_API_SECRET", "secret")
		t.Setenv("PORTONE_WEBHOOK_IPS", "10.0.0.1, 10.0.0.2")
		t.Setenv("PORTONE_TIMEOUT", "2s")
		t.Setenv("CSRF_TRUSTED_ORIGINS", "https://mall.example.com")
		t.Setenv("KAFKA_BROKERS", "")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5432", cfg.DBPort)
		assert.Equal(t, "9000", cfg.AppPort)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "imp00000000", cfg.PortOneShopID)
		assert.Equal(t, "key", cfg.PortOneAPIKey)
		assert.Equal(t, "secret", cfg.PortOneAPISecret)
		assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.WebhookIPs)
		assert.Equal(t, 2*time.Second, cfg.PortOneTimeout)
		assert.Equal(t, []string{"https://mall.example.com"}, cfg.TrustedOrigins)
		assert.Empty(t, cfg.KafkaBrokers)
		assert.Equal(t, "mall.orders", cfg.KafkaOrderTopic)
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("APP_PORT", "")
		t.Setenv("PORTONE_WEBHOOK_IPS", "")
		t.Setenv("PORTONE_TIMEOUT", "not-a-duration")

		cfg := LoadConfig()

		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, DefaultWebhookIPs, cfg.WebhookIPs)
		assert.Equal(t, 5*time.Second, cfg.PortOneTimeout)
	})
}
