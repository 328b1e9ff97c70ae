package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	Stripe       StripeConfig
	PayPal       PayPalConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Pricing.Rate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPCART_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPCART_DB_DSN"`
	Driver string `envconfig:"SHOPCART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SHOPCART_DB_HOST"`
	Port     int    `envconfig:"SHOPCART_DB_PORT" default:"5432"`
	User     string `envconfig:"SHOPCART_DB_USER"`
	Password string `envconfig:"SHOPCART_DB_PASSWORD"`
	Name     string `envconfig:"SHOPCART_DB_NAME"`
	SSLMode  string `envconfig:"SHOPCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPCART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPCART_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPCART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHOPCART_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PricingConfig drives the cart pricing engine. Tax applies to the subtotal
// before discounts; shipping is flat unless a free-shipping threshold is set.
type PricingConfig struct {
	TaxRate               string `envconfig:"SHOPCART_TAX_RATE" default:"0.085"`
	Currency              string `envconfig:"SHOPCART_CURRENCY" default:"usd"`
	FlatShippingFee       string `envconfig:"SHOPCART_FLAT_SHIPPING_FEE" default:"0"`
	FreeShippingThreshold string `envconfig:"SHOPCART_FREE_SHIPPING_THRESHOLD"`
}

// Rate parses the configured tax rate.
func (p PricingConfig) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tax rate %q: %w", p.TaxRate, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("tax rate must not be negative")
	}
	return rate, nil
}

// ShippingFee parses the flat shipping fee, defaulting to zero.
func (p PricingConfig) ShippingFee() decimal.Decimal {
	fee, err := decimal.NewFromString(strings.TrimSpace(p.FlatShippingFee))
	if err != nil {
		return decimal.Zero
	}
	return fee
}

// Threshold parses the free-shipping threshold; nil means no threshold rule.
func (p PricingConfig) Threshold() *decimal.Decimal {
	raw := strings.TrimSpace(p.FreeShippingThreshold)
	if raw == "" {
		return nil
	}
	threshold, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &threshold
}

type StripeConfig struct {
	APIKey string `envconfig:"SHOPCART_STRIPE_API_KEY"`
	Env    string `envconfig:"SHOPCART_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PayPalConfig struct {
	ClientID string `envconfig:"SHOPCART_PAYPAL_CLIENT_ID"`
	Secret   string `envconfig:"SHOPCART_PAYPAL_SECRET"`
	BaseURL  string `envconfig:"SHOPCART_PAYPAL_BASE_URL" default:"https://api-m.sandbox.paypal.com"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPCART_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := []struct {
		env string
		val string
	}{
		{"SHOPCART_DB_HOST", db.Host},
		{"SHOPCART_DB_USER", db.User},
		{"SHOPCART_DB_NAME", db.Name},
	}
	for _, req := range required {
		if req.val == "" {
			missing = append(missing, req.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either SHOPCART_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
