package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings is the environment-driven configuration of the notifier.
type Settings struct {
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	Port        string
	GinMode     string
	CORSOrigins []string
	JWTSecret   string
	JWTExpiry   time.Duration

	LogLevel  string
	LogFormat string

	DefaultTimezone    string
	DefaultLanguage    string
	DefaultCountryCode string

	ScanWindow      time.Duration
	ScanSchedule    string
	DuplicateWindow time.Duration

	Gateway GatewaySettings
	Twilio  TwilioSettings
	Redis   RedisSettings

	RunLeaseTTL            time.Duration
	ExecutionRetentionDays int
}

type GatewaySettings struct {
	Provider      string // whatsapp or twilio
	BaseURL       string
	Session       string
	SecretKey     string
	Token         string
	Timeout       time.Duration
	MaxAttempts   int
	RatePerSecond float64
	Burst         int
}

type TwilioSettings struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string
	WhatsAppNumber string
}

type RedisSettings struct {
	Addr     string
	Password string
	DB       int
}

const (
	ProviderWhatsApp = "whatsapp"
	ProviderTwilio   = "twilio"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DEFAULT_TIMEZONE", "UTC")
	v.SetDefault("DEFAULT_LANGUAGE", "pt_BR")
	v.SetDefault("DEFAULT_COUNTRY_CODE", "55")
	v.SetDefault("SCAN_WINDOW", "5m")
	v.SetDefault("SCAN_SCHEDULE", "@every 5m")
	v.SetDefault("DUPLICATE_WINDOW", "10m")
	v.SetDefault("GATEWAY_PROVIDER", ProviderWhatsApp)
	v.SetDefault("GATEWAY_SESSION", "default")
	v.SetDefault("GATEWAY_TIMEOUT", "15s")
	v.SetDefault("GATEWAY_MAX_ATTEMPTS", 3)
	v.SetDefault("GATEWAY_RATE_PER_SECOND", 1.0)
	v.SetDefault("GATEWAY_BURST", 1)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RUN_LEASE_TTL", "15m")
	v.SetDefault("EXECUTION_RETENTION_DAYS", 90)
}

// Load reads .env (if present) and the process environment.
func Load() (Settings, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds Settings from an already populated viper instance.
func FromViper(v *viper.Viper) (Settings, error) {
	s := Settings{
		DatabaseURL:       v.GetString("DB_URL"),
		DBMaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		DBConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),

		Port:        v.GetString("PORT"),
		GinMode:     v.GetString("GIN_MODE"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		JWTSecret:   v.GetString("JWT_SECRET"),
		JWTExpiry:   time.Duration(v.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		DefaultTimezone:    v.GetString("DEFAULT_TIMEZONE"),
		DefaultLanguage:    v.GetString("DEFAULT_LANGUAGE"),
		DefaultCountryCode: v.GetString("DEFAULT_COUNTRY_CODE"),

		ScanWindow:      v.GetDuration("SCAN_WINDOW"),
		ScanSchedule:    v.GetString("SCAN_SCHEDULE"),
		DuplicateWindow: v.GetDuration("DUPLICATE_WINDOW"),

		Gateway: GatewaySettings{
			Provider:      strings.ToLower(v.GetString("GATEWAY_PROVIDER")),
			BaseURL:       strings.TrimRight(v.GetString("GATEWAY_URL"), "/"),
			Session:       v.GetString("GATEWAY_SESSION"),
			SecretKey:     v.GetString("GATEWAY_SECRET_KEY"),
			Token:         v.GetString("GATEWAY_TOKEN"),
			Timeout:       v.GetDuration("GATEWAY_TIMEOUT"),
			MaxAttempts:   v.GetInt("GATEWAY_MAX_ATTEMPTS"),
			RatePerSecond: v.GetFloat64("GATEWAY_RATE_PER_SECOND"),
			Burst:         v.GetInt("GATEWAY_BURST"),
		},
		Twilio: TwilioSettings{
			AccountSID:     v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:      v.GetString("TWILIO_AUTH_TOKEN"),
			PhoneNumber:    v.GetString("TWILIO_PHONE_NUMBER"),
			WhatsAppNumber: v.GetString("TWILIO_WHATSAPP_NUMBER"),
		},
		Redis: RedisSettings{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},

		RunLeaseTTL:            v.GetDuration("RUN_LEASE_TTL"),
		ExecutionRetentionDays: v.GetInt("EXECUTION_RETENTION_DAYS"),
	}
	return s, s.Validate()
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidationErrors collects every configuration problem found.
type ValidationErrors []string

func (e ValidationErrors) Error() string {
	return "invalid configuration: " + strings.Join(e, "; ")
}

// Validate checks settings every command needs. Secrets only some commands
// use are checked by RequireJWT.
func (s Settings) Validate() error {
	var errs ValidationErrors

	if s.DatabaseURL == "" {
		errs = append(errs, "DB_URL is required")
	}
	if _, err := time.LoadLocation(s.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Sprintf("DEFAULT_TIMEZONE %q is not a known zone", s.DefaultTimezone))
	}
	if s.ScanWindow <= 0 {
		errs = append(errs, "SCAN_WINDOW must be positive")
	}
	if s.DuplicateWindow < 0 {
		errs = append(errs, "DUPLICATE_WINDOW must not be negative")
	}
	if s.ScanSchedule == "" {
		errs = append(errs, "SCAN_SCHEDULE is required")
	}
	if s.Gateway.MaxAttempts < 1 {
		errs = append(errs, "GATEWAY_MAX_ATTEMPTS must be at least 1")
	}
	if s.Gateway.RatePerSecond <= 0 {
		errs = append(errs, "GATEWAY_RATE_PER_SECOND must be positive")
	}
	switch s.Gateway.Provider {
	case ProviderWhatsApp:
		if s.Gateway.BaseURL == "" {
			errs = append(errs, "GATEWAY_URL is required for the whatsapp provider")
		}
	case ProviderTwilio:
	default:
		errs = append(errs, fmt.Sprintf("GATEWAY_PROVIDER %q is not supported", s.Gateway.Provider))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RequireJWT is checked by commands that sign or verify operator tokens.
func (s Settings) RequireJWT() error {
	if s.JWTSecret == "" {
		return ValidationErrors{"JWT_SECRET is required"}
	}
	return nil
}

// Masked returns a printable copy with secrets hidden.
func (s Settings) Masked() Settings {
	m := s
	m.DatabaseURL = mask(s.DatabaseURL)
	m.JWTSecret = mask(s.JWTSecret)
	m.Gateway.SecretKey = mask(s.Gateway.SecretKey)
	m.Gateway.Token = mask(s.Gateway.Token)
	m.Twilio.AuthToken = mask(s.Twilio.AuthToken)
	m.Redis.Password = mask(s.Redis.Password)
	return m
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	return "****"
}
