package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

const (
	DriverMemory     = "memory"
	DriverPersistent = "persistent"
)

type Postgres struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	MigrationsPath string
}

type Config struct {
	Env      string
	LogLevel string

	HTTPPort        string
	GRPCPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64

	StorageDriver string
	Postgres      Postgres
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	CartTTL       time.Duration
	MenuCacheTTL  time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	PollInterval time.Duration

	JWTSecret string
	Currency  string

	Gateways           []domain.Gateway
	PaymentDelay       time.Duration
	PaymentSuccessRate float64
	BreakerFailures    uint32
	BreakerTimeout     time.Duration
}

// Load reads configuration from the environment, after loading an optional
// .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	rate, err := strconv.ParseFloat(getEnv("PAYMENT_SUCCESS_RATE", "0.8"), 64)
	if err != nil || rate < 0 || rate > 1 {
		return nil, fmt.Errorf("invalid PAYMENT_SUCCESS_RATE %q", os.Getenv("PAYMENT_SUCCESS_RATE"))
	}
	failures, err := strconv.ParseUint(getEnv("BREAKER_FAILURES", "5"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid BREAKER_FAILURES: %w", err)
	}
	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "3145728"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %w", err)
	}
	gateways, err := ParseGateways(getEnv("GATEWAYS", "stripe:Stripe:test,paymongo:PayMongo:test"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		GRPCPort:       getEnv("GRPC_PORT", "50060"),
		MaxUploadBytes: maxUpload,

		StorageDriver: getEnv("STORAGE_DRIVER", DriverMemory),
		Postgres: Postgres{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           port,
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "storefront"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/repository/postgres/migrations"),
		},
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "storefront"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "storefront.events"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		Currency:  getEnv("CURRENCY", "PHP"),

		Gateways:           gateways,
		PaymentSuccessRate: rate,
		BreakerFailures:    uint32(failures),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"REQUEST_TIMEOUT", "15s", &cfg.RequestTimeout},
		{"SHUTDOWN_TIMEOUT", "10s", &cfg.ShutdownTimeout},
		{"CART_TTL", "24h", &cfg.CartTTL},
		{"MENU_CACHE_TTL", "10m", &cfg.MenuCacheTTL},
		{"OUTBOX_POLL_INTERVAL", "2s", &cfg.PollInterval},
		{"PAYMENT_DELAY", "2s", &cfg.PaymentDelay},
		{"BREAKER_TIMEOUT", "30s", &cfg.BreakerTimeout},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if cfg.StorageDriver != DriverMemory && cfg.StorageDriver != DriverPersistent {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.JWTSecret == "" {
		if cfg.Env != "development" {
			return nil, fmt.Errorf("JWT_SECRET must be set outside development")
		}
		cfg.JWTSecret = "dev-secret"
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ParseGateways reads "name:Display Name:test|live" entries separated by
// commas. Order is preserved.
func ParseGateways(s string) ([]domain.Gateway, error) {
	var gateways []domain.Gateway
	for _, entry := range splitList(s) {
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
			return nil, fmt.Errorf("invalid gateway entry %q", entry)
		}
		g := domain.Gateway{Name: strings.TrimSpace(parts[0]), DisplayName: strings.TrimSpace(parts[1]), Enabled: true}
		if len(parts) == 3 {
			switch strings.TrimSpace(parts[2]) {
			case "test":
				g.TestMode = true
			case "live":
			case "disabled":
				g.Enabled = false
			default:
				return nil, fmt.Errorf("invalid gateway mode in %q", entry)
			}
		}
		gateways = append(gateways, g)
	}
	return gateways, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
