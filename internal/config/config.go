package config

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	Database Database
	Auth     Auth
	Store    Store

	Paypal    Paypal    `envPrefix:"PAYPAL_"`
	BrainTree Braintree `envPrefix:"BRAINTREE_"`
	Curlec    Curlec    `envPrefix:"CURLEC_"`
	Mail      Mail      `envPrefix:"SENDGRID_"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	WebhookID    string `env:"WEBHOOK_ID"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT" envDefault:"sandbox"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

// Curlec speaks the Razorpay API.
type Curlec struct {
	BaseApiURL    string `env:"BASE_API_URL" envDefault:"https://api.razorpay.com"`
	KeyID         string `env:"KEY_ID"`
	KeySecret     string `env:"KEY_SECRET"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

type Mail struct {
	APIKey   string `env:"API_KEY"`
	From     string `env:"FROM" envDefault:"orders@binwahab.com"`
	FromName string `env:"FROM_NAME" envDefault:"BINWAHAB"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Database struct {
	Driver       string `env:"DB_DRIVER" envDefault:"mysql"`
	URL          string `env:"DATABASE_URL"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"50"`
	Seed         bool   `env:"DB_SEED" envDefault:"false"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
	Issuer    string `env:"JWT_ISSUER" envDefault:"binwahab"`
}

type Store struct {
	Currency         string          `env:"STORE_CURRENCY" envDefault:"MYR"`
	TaxRate          decimal.Decimal `env:"STORE_TAX_RATE" envDefault:"0.06"`
	ReturnWindowDays int             `env:"RETURN_WINDOW_DAYS" envDefault:"14"`
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Store.ReturnWindowDays <= 0 {
		return fmt.Errorf("RETURN_WINDOW_DAYS must be positive")
	}
	if c.Store.TaxRate.IsNegative() {
		return fmt.Errorf("STORE_TAX_RATE must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment.Name == "production"
}
