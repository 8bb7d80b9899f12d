package commands

import (
	"context"
	"os"

	"salonpro-notifier/config"
	"salonpro-notifier/gateway"
	"salonpro-notifier/metrics"
	"salonpro-notifier/services"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// app holds what every command shares once settings are loaded.
type app struct {
	settings  config.Settings
	log       zerolog.Logger
	db        *gorm.DB
	store     *gateway.TokenStore
	limiter   *rate.Limiter
	registry  *prometheus.Registry
	redis     *redis.Client
	reminders *services.ReminderService
}

func loadSettings() (config.Settings, zerolog.Logger, error) {
	settings, err := config.Load()
	if err != nil {
		return settings, zerolog.Nop(), err
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	log, err := config.NewLogger(settings.LogLevel, settings.LogFormat, os.Stderr)
	if err != nil {
		return settings, zerolog.Nop(), errors.Wrap(err, "logger")
	}
	return settings, log, nil
}

// newApp connects the database and wires the reminder service.
func newApp(ctx context.Context) (*app, error) {
	settings, log, err := loadSettings()
	if err != nil {
		return nil, err
	}

	db, err := config.ConnectDB(settings)
	if err != nil {
		return nil, err
	}

	a := &app{
		settings: settings,
		log:      log,
		db:       db,
		registry: prometheus.NewRegistry(),
		store:    gateway.NewTokenStore(gatewayConfig(settings)),
		// One limiter for the whole process: the gateway session is shared.
		limiter: gateway.NewLimiter(settings.Gateway.RatePerSecond, settings.Gateway.Burst),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var locker services.RunLocker = services.NewLocalRunLocker()
	if settings.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     settings.Redis.Addr,
			Password: settings.Redis.Password,
			DB:       settings.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, errors.WithHint(errors.Wrap(err, "redis"), "check REDIS_ADDR or unset it to use in-process locks")
		}
		locker = services.NewRedisRunLocker(a.redis, settings.RunLeaseTTL)
		log.Info().Str("addr", settings.Redis.Addr).Msg("using redis run leases")
	}

	a.reminders = services.NewReminderService(db,
		services.ReminderConfig{
			Window:          settings.ScanWindow,
			DuplicateWindow: settings.DuplicateWindow,
			DefaultTimezone: settings.DefaultTimezone,
			DefaultLanguage: settings.DefaultLanguage,
		},
		a.newSender,
		log,
		services.WithRunLocker(locker),
		services.WithMetrics(metrics.NewPrometheusSink(a.registry, log)),
	)
	return a, nil
}

func gatewayConfig(s config.Settings) gateway.Config {
	return gateway.Config{
		BaseURL:            s.Gateway.BaseURL,
		Session:            s.Gateway.Session,
		SecretKey:          s.Gateway.SecretKey,
		Token:              s.Gateway.Token,
		Timeout:            s.Gateway.Timeout,
		DefaultCountryCode: s.DefaultCountryCode,
	}
}

func (a *app) gatewayOptions() []gateway.Option {
	return []gateway.Option{
		gateway.WithLimiter(a.limiter),
		gateway.WithRetryPolicy(gateway.RetryPolicy{MaxAttempts: a.settings.Gateway.MaxAttempts}),
	}
}

// newClient builds a WhatsApp gateway client for one configuration snapshot.
func (a *app) newClient(cfg gateway.Config) *gateway.Client {
	return gateway.NewClient(cfg, a.log, a.gatewayOptions()...)
}

// newSender is the per-run sender factory for the configured provider.
func (a *app) newSender() services.MessageSender {
	if a.settings.Gateway.Provider == config.ProviderTwilio {
		tw := a.settings.Twilio
		return gateway.NewTwilioSender(gateway.TwilioConfig{
			AccountSID:         tw.AccountSID,
			AuthToken:          tw.AuthToken,
			PhoneNumber:        tw.PhoneNumber,
			WhatsAppNumber:     tw.WhatsAppNumber,
			DefaultCountryCode: a.settings.DefaultCountryCode,
		}, a.log, a.gatewayOptions()...)
	}
	return a.newClient(a.store.Snapshot())
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
