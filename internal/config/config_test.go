package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

func TestParseGateways(t *testing.T) {
	gateways, err := ParseGateways("stripe:Stripe:test, paypal:PayPal:live ,gcash:GCash:disabled,maya:Maya")
	require.NoError(t, err)
	assert.Equal(t, []domain.Gateway{
		{Name: "stripe", DisplayName: "Stripe", TestMode: true, Enabled: true},
		{Name: "paypal", DisplayName: "PayPal", Enabled: true},
		{Name: "gcash", DisplayName: "GCash", Enabled: false},
		{Name: "maya", DisplayName: "Maya", Enabled: true},
	}, gateways)

	for _, bad := range []string{"stripe", ":Stripe", "stripe:Stripe:sandbox", "a:b:c:d"} {
		_, err := ParseGateways(bad)
		assert.Error(t, err, bad)
	}

	none, err := ParseGateways("")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 0.8, cfg.PaymentSuccessRate)
	assert.Equal(t, 2*time.Second, cfg.PaymentDelay)
	assert.Equal(t, "dev-secret", cfg.JWTSecret)
	assert.Len(t, cfg.Gateways, 2)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "persistent")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("PAYMENT_DELAY", "250ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPersistent, cfg.StorageDriver)
	assert.Equal(t, 6543, cfg.Postgres.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.PaymentDelay)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"DB_PORT":              "abc",
		"PAYMENT_SUCCESS_RATE": "1.5",
		"STORAGE_DRIVER":       "sqlite",
		"PAYMENT_DELAY":        "soon",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_SecretRequiredInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}
