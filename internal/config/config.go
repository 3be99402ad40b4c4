package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env  string `validate:"required,oneof=development stage production"`
	Http Http

	Cors CORS `validate:"required"`

	Kafka Kafka `validate:"required"`

	Postgres Postgres `validate:"required"`

	Redis Redis `validate:"required"`

	Cache Cache

	Store Store `validate:"required"`

	Borzo Borzo `validate:"required"`

	Razorpay Razorpay `validate:"required"`

	Orders Orders

	Outbox Outbox
}

type Http struct {
	Host string `validate:"required,hostname|ip"`
	Port string `validate:"required,gt=0,lte=65535"`

	RequestTimeout time.Duration `validate:"gte=0"`
}

type Kafka struct {
	GroupID string   `validate:"required"`
	Brokers []string `validate:"required,min=1,dive,hostname_port"`
	// StatusTopic carries kitchen status updates consumed by the service.
	StatusTopic string `validate:"required"`
	// EventsTopic receives order events from the outbox relay.
	EventsTopic string `validate:"required"`

	ReaderMaxWait time.Duration `validate:"gte=0"`
	BatchTimeout  time.Duration `validate:"gte=0"`
}

type Postgres struct {
	Host     string `validate:"required,hostname|ip"`
	Port     int    `validate:"required,gt=0,lte=65535"`
	DBName   string `validate:"required"`
	User     string `validate:"required"`
	Password string `validate:"required"`

	SSLMode string `validate:"required,oneof=disable require verify-ca verify-full"`

	MaxOpenConns    int           `validate:"gte=1"`
	MaxIdleConns    int           `validate:"gte=0"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`

	AutoMigrate bool
}

type Redis struct {
	Addr     string `validate:"required,hostname_port"`
	Password string
	DB       int `validate:"gte=0"`

	IdempotencyTTL time.Duration `validate:"gt=0"`
}

type Cache struct {
	Capacity int           `validate:"gte=1"`
	TTL      time.Duration `validate:"gt=0"`
}

type CORS struct {
	AllowedOrigins []string `validate:"required,min=1,dive,url"`
}

// Store is the bakery kitchen every delivery starts from.
type Store struct {
	Name      string  `validate:"required"`
	Address   string  `validate:"required"`
	Phone     string  `validate:"required"`
	Latitude  float64 `validate:"latitude"`
	Longitude float64 `validate:"longitude"`
}

type Borzo struct {
	URL           string        `validate:"required,url"`
	Token         string
	VehicleTypeID int           `validate:"gte=1"`
	Timeout       time.Duration `validate:"gt=0"`
	RadiusMeters  float64       `validate:"gt=0"`
	// SafetyBuffer is the share added on top of a quote, 0.1 means 10%.
	SafetyBuffer float64 `validate:"gte=0,lte=1"`
}

type Razorpay struct {
	URL       string        `validate:"required,url"`
	KeyID     string        `validate:"required"`
	KeySecret string        `validate:"required"`
	Timeout   time.Duration `validate:"gt=0"`
}

type Orders struct {
	NumberPrefix        string `validate:"required,alpha"`
	FallbackDeliveryFee decimal.Decimal
	RestockOnCancel     bool
	DefaultSlotCapacity int `validate:"gte=1"`
}

type Outbox struct {
	Interval    time.Duration `validate:"gt=0"`
	BatchSize   int           `validate:"gte=1"`
	MaxAttempts int           `validate:"gte=1"`
}

func New() Config {
	return Config{
		Env: env("ENV", "development"),

		Http: Http{
			Host: env("HOST", "localhost"),
			Port: env("PORT", "8080"),

			RequestTimeout: envDuration("HTTP_REQUEST_TIMEOUT", 15*time.Second),
		},

		Cors: CORS{
			AllowedOrigins: strings.Split(env("ALLOWED_CORS_ORIGINS", "http://localhost:3000"), ","),
		},

		Kafka: Kafka{
			GroupID:     env("KAFKA_GROUP_ID", "order-service"),
			StatusTopic: env("KAFKA_STATUS_TOPIC", "kitchen.order-status"),
			EventsTopic: env("KAFKA_EVENTS_TOPIC", "orders.events"),
			Brokers:     strings.Split(env("KAFKA_BROKERS", "localhost:9092"), ","),

			ReaderMaxWait: envDuration("KAFKA_READER_MAX_WAIT", 10*time.Millisecond),
			BatchTimeout:  envDuration("KAFKA_BATCH_TIMEOUT", 10*time.Millisecond),
		},

		Postgres: Postgres{
			Port:     envInt("POSTGRES_PORT", 5432),
			Host:     env("POSTGRES_HOST", "localhost"),
			DBName:   env("POSTGRES_DB", "lafete"),
			User:     env("POSTGRES_USER", ""),
			Password: env("POSTGRES_PASSWORD", ""),

			SSLMode: env("POSTGRES_SSL_MODE", "disable"),

			MaxOpenConns:    envInt("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("POSTGRES_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: envDuration("POSTGRES_CONN_MAX_LIFETIME", 5*time.Minute),

			AutoMigrate: envBool("POSTGRES_AUTO_MIGRATE", false),
		},

		Redis: Redis{
			Addr:     env("REDIS_ADDR", "localhost:6379"),
			Password: env("REDIS_PASSWORD", ""),
			DB:       envInt("REDIS_DB", 0),

			IdempotencyTTL: envDuration("REDIS_IDEMPOTENCY_TTL", 24*time.Hour),
		},

		Cache: Cache{
			Capacity: envInt("CACHE_CAPACITY", 1000),
			TTL:      envDuration("CACHE_TTL", 5*time.Minute),
		},

		Store: Store{
			Name:      env("STORE_NAME", "La Fête Kitchen"),
			Address:   env("STORE_ADDRESS", "La Fête Kitchen, Mumbai"),
			Phone:     env("STORE_PHONE", "+91XXXXXXXXXX"),
			Latitude:  envFloat("STORE_LATITUDE", 19.0760),
			Longitude: envFloat("STORE_LONGITUDE", 72.8777),
		},

		Borzo: Borzo{
			URL:           env("BORZO_API_URL", "https://robot.borzodelivery.com/api/business/1.2"),
			Token:         env("BORZO_API_TOKEN", ""),
			VehicleTypeID: envInt("BORZO_VEHICLE_TYPE_ID", 8),
			Timeout:       envDuration("BORZO_TIMEOUT", 5*time.Second),
			RadiusMeters:  envFloat("BORZO_DELIVERY_RADIUS_METERS", 25000),
			SafetyBuffer:  envFloat("BORZO_SAFETY_BUFFER", 0.1),
		},

		Razorpay: Razorpay{
			URL:       env("RAZORPAY_API_URL", "https://api.razorpay.com/v1"),
			KeyID:     env("RAZORPAY_KEY_ID", ""),
			KeySecret: env("RAZORPAY_KEY_SECRET", ""),
			Timeout:   envDuration("RAZORPAY_TIMEOUT", 10*time.Second),
		},

		Orders: Orders{
			NumberPrefix:        env("ORDERS_NUMBER_PREFIX", "LF"),
			FallbackDeliveryFee: envDecimal("ORDERS_FALLBACK_DELIVERY_FEE", decimal.NewFromInt(100)),
			RestockOnCancel:     envBool("ORDERS_RESTOCK_ON_CANCEL", false),
			DefaultSlotCapacity: envInt("ORDERS_DEFAULT_SLOT_CAPACITY", 5),
		},

		Outbox: Outbox{
			Interval:    envDuration("OUTBOX_INTERVAL", 500*time.Millisecond),
			BatchSize:   envInt("OUTBOX_BATCH_SIZE", 100),
			MaxAttempts: envInt("OUTBOX_MAX_ATTEMPTS", 10),
		},
	}
}

func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Orders.FallbackDeliveryFee.IsNegative() {
		return errors.New("fallback delivery fee must not be negative")
	}
	return nil
}

func env(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if value, ok := os.LookupEnv(key); ok {
		d, err := decimal.NewFromString(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}
