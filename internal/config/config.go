// Package config loads and validates service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/JakeFAU/empresasbrasil/internal/billing"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	DB        DBConfig        `mapstructure:"db"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Apify     ApifyConfig     `mapstructure:"apify"`
	Email     EmailConfig     `mapstructure:"email"`
	Stripe    billing.Config  `mapstructure:"stripe"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	FrontendURL    string        `mapstructure:"frontend_url"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LoggingConfig sets the zap level. Development encoding follows Env.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DBConfig controls access to the registry database.
type DBConfig struct {
	DSN            string        `mapstructure:"dsn"`
	MaxConns       int32         `mapstructure:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// MonitorConfig drives the connection-mode monitor.
type MonitorConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	BackoffInterval time.Duration `mapstructure:"backoff_interval"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
}

// AuthConfig defines JWT signing.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
}

// ApifyConfig configures the scraping proxy.
type ApifyConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PlacesActor    string        `mapstructure:"places_actor"`
	InstagramActor string        `mapstructure:"instagram_actor"`
	InstagramLimit int           `mapstructure:"instagram_limit"`
	ResultLimit    int           `mapstructure:"result_limit"`
}

// EmailConfig lists the transactional email providers.
type EmailConfig struct {
	From           string     `mapstructure:"from"`
	FromName       string     `mapstructure:"from_name"`
	AdminEmail     string     `mapstructure:"admin_email"`
	ResendAPIKey   string     `mapstructure:"resend_api_key"`
	SendGridAPIKey string     `mapstructure:"sendgrid_api_key"`
	SMTP           SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig is the last-resort relay.
type SMTPConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	ImplicitTLS bool   `mapstructure:"implicit_tls"`
}

// RateLimitConfig throttles login and scraper endpoints per client.
type RateLimitConfig struct {
	LoginRPS     float64 `mapstructure:"login_rps"`
	LoginBurst   int     `mapstructure:"login_burst"`
	ScraperRPS   float64 `mapstructure:"scraper_rps"`
	ScraperBurst int     `mapstructure:"scraper_burst"`
}

// legacyEnv maps config keys to the unprefixed variables the deployment
// already sets.
var legacyEnv = map[string][]string{
	"env":                      {"NODE_ENV"},
	"server.port":              {"PORT"},
	"server.frontend_url":      {"FRONTEND_URL"},
	"db.dsn":                   {"DATABASE_URL"},
	"auth.jwt_secret":          {"JWT_SECRET"},
	"apify.api_key":            {"APIFY_API_KEY", "APIFY_TOKEN"},
	"email.from":               {"EMAIL_FROM"},
	"email.admin_email":        {"ADMIN_EMAIL"},
	"email.resend_api_key":     {"RESEND_API_KEY"},
	"email.sendgrid_api_key":   {"SENDGRID_API_KEY"},
	"email.smtp.host":          {"SMTP_HOST"},
	"email.smtp.port":          {"SMTP_PORT"},
	"email.smtp.username":      {"SMTP_USER"},
	"email.smtp.password":      {"SMTP_PASS"},
	"stripe.secret_key":        {"STRIPE_SECRET_KEY"},
	"stripe.webhook_secret":    {"STRIPE_WEBHOOK_SECRET"},
	"stripe.affiliate_coupon":  {"STRIPE_AFFILIATE_COUPON"},
	"stripe.price_ids.pro":     {"STRIPE_PRICE_PRO"},
	"stripe.price_ids.premium": {"STRIPE_PRICE_PREMIUM"},
	"stripe.price_ids.max":     {"STRIPE_PRICE_MAX"},
}

// LoadDotEnv reads KEY=VALUE pairs from the given files into the process
// environment without overriding what is already set. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EMPRESAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for key, names := range legacyEnv {
		args := append([]string{key, "EMPRESAS_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))}, names...)
		if err := v.BindEnv(args...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("server.port", 6000)
	v.SetDefault("server.frontend_url", "http://localhost:5173")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("logging.level", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.connect_timeout", 10*time.Second)
	v.SetDefault("monitor.interval", 30*time.Second)
	v.SetDefault("monitor.backoff_interval", 120*time.Second)
	v.SetDefault("monitor.probe_timeout", 5*time.Second)
	v.SetDefault("monitor.max_retries", 5)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.issuer", "empresasbrasil")
	v.SetDefault("apify.api_key", "")
	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.timeout", 30*time.Second)
	v.SetDefault("apify.places_actor", "nwua9Gu5YrADL7ZDj")
	v.SetDefault("apify.instagram_actor", "apify~instagram-search-scraper")
	v.SetDefault("apify.instagram_limit", 50)
	v.SetDefault("apify.result_limit", 0)
	v.SetDefault("email.from", "noreply@empresasbrasil.com.br")
	v.SetDefault("email.from_name", "Empresas Brasil")
	v.SetDefault("email.admin_email", "")
	v.SetDefault("email.resend_api_key", "")
	v.SetDefault("email.sendgrid_api_key", "")
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")
	v.SetDefault("email.smtp.implicit_tls", false)
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.affiliate_coupon", "")
	v.SetDefault("stripe.price_ids.pro", "")
	v.SetDefault("stripe.price_ids.premium", "")
	v.SetDefault("stripe.price_ids.max", "")
	v.SetDefault("stripe.success_url", "")
	v.SetDefault("stripe.cancel_url", "")
	v.SetDefault("rate_limit.login_rps", 0.2)
	v.SetDefault("rate_limit.login_burst", 10)
	v.SetDefault("rate_limit.scraper_rps", 1)
	v.SetDefault("rate_limit.scraper_burst", 5)
}

func (c *Config) applyDerived() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.Server.FrontendURL = strings.TrimRight(c.Server.FrontendURL, "/")
	if c.Stripe.SuccessURL == "" {
		c.Stripe.SuccessURL = c.Server.FrontendURL + "/dashboard?payment=success&session_id={CHECKOUT_SESSION_ID}"
	}
	if c.Stripe.CancelURL == "" {
		c.Stripe.CancelURL = c.Server.FrontendURL + "/planos?payment=cancelled"
	}
	if len(c.Server.CORSOrigins) == 0 && c.Server.FrontendURL != "" {
		c.Server.CORSOrigins = []string{c.Server.FrontendURL}
	}
}

// Development reports whether the service runs outside production.
func (c Config) Development() bool { return c.Env != "production" }

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	switch c.Env {
	case "development", "production", "test":
	default:
		return fmt.Errorf("env must be development, production or test, got %q", c.Env)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be > 0")
	}
	if c.DB.MaxConns <= 0 {
		return fmt.Errorf("db.max_conns must be > 0")
	}
	if c.Monitor.Interval <= 0 || c.Monitor.BackoffInterval <= 0 || c.Monitor.ProbeTimeout <= 0 {
		return fmt.Errorf("monitor intervals and probe timeout must be > 0")
	}
	if c.Monitor.MaxRetries <= 0 {
		return fmt.Errorf("monitor.max_retries must be > 0")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0")
	}
	if !c.Development() && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters in production")
	}
	if c.Email.SMTP.Host != "" && c.Email.SMTP.Port <= 0 {
		return fmt.Errorf("email.smtp.port must be > 0 when smtp is enabled")
	}
	if err := c.Stripe.Validate(); err != nil {
		return err
	}
	return nil
}

// JWTSecret returns the signing secret, falling back to a fixed
// development key outside production.
func (c Config) JWTSecret() []byte {
	if c.Auth.JWTSecret == "" && c.Development() {
		return []byte("empresasbrasil-development-secret")
	}
	return []byte(c.Auth.JWTSecret)
}
