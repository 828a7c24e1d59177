package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultAppName          = "salescrm"
	defaultHTTPAddr         = ":8080"
	defaultDatabaseURL      = "salescrm.db"
	defaultJWTSecret        = "change-me-jwt-secret"
	defaultJWTTTL           = "24h"
	defaultLogLevel         = "info"
	defaultTimezone         = "Asia/Shanghai"
	defaultLockFile         = "/tmp/salescrm_scheduler.lock"
	defaultWebhookTimeout   = "5s"
	defaultRecycleAfter     = "720h"
	defaultRecycleCron      = "0 2 * * *"
	defaultReminderCron     = "* * * * *"
	defaultMarkPurgeCron    = "@hourly"
	defaultReminderMarkTTL  = "2h"
	defaultReminderWindow   = "5m"
	defaultSchedulerEnabled = true
)

type Config struct {
	AppEnv      string
	AppName     string
	HTTPAddr    string
	DatabaseURL string
	LogLevel    string

	JWTSecret string
	JWTTTL    time.Duration

	Location *time.Location

	Scheduler SchedulerConfig
	Reminder  ReminderConfig

	CORSAllowedOrigins []string
}

type SchedulerConfig struct {
	Enabled       bool
	LockFile      string
	RecycleAfter  time.Duration
	RecycleCron   string
	ReminderCron  string
	MarkPurgeCron string
}

type ReminderConfig struct {
	WebhookURL     string
	WebhookTimeout time.Duration
	MarkTTL        time.Duration
	Window         time.Duration
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_NAME", defaultAppName)
	v.SetDefault("HTTP_ADDR", defaultHTTPAddr)
	v.SetDefault("DATABASE_URL", defaultDatabaseURL)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL", defaultJWTTTL)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("TIMEZONE", defaultTimezone)
	v.SetDefault("SCHEDULER_ENABLED", defaultSchedulerEnabled)
	v.SetDefault("SCHEDULER_LOCK_FILE", defaultLockFile)
	v.SetDefault("RECYCLE_AFTER", defaultRecycleAfter)
	v.SetDefault("RECYCLE_CRON", defaultRecycleCron)
	v.SetDefault("REMINDER_CRON", defaultReminderCron)
	v.SetDefault("REMINDER_MARK_PURGE_CRON", defaultMarkPurgeCron)
	v.SetDefault("REMINDER_WEBHOOK_URL", "")
	v.SetDefault("REMINDER_WEBHOOK_TIMEOUT", defaultWebhookTimeout)
	v.SetDefault("REMINDER_MARK_TTL", defaultReminderMarkTTL)
	v.SetDefault("REMINDER_WINDOW", defaultReminderWindow)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:      strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		AppName:     strings.TrimSpace(v.GetString("APP_NAME")),
		HTTPAddr:    strings.TrimSpace(v.GetString("HTTP_ADDR")),
		DatabaseURL: strings.TrimSpace(v.GetString("DATABASE_URL")),
		LogLevel:    strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		JWTSecret:   strings.TrimSpace(v.GetString("JWT_SECRET")),
		Scheduler: SchedulerConfig{
			Enabled:       v.GetBool("SCHEDULER_ENABLED"),
			LockFile:      strings.TrimSpace(v.GetString("SCHEDULER_LOCK_FILE")),
			RecycleCron:   strings.TrimSpace(v.GetString("RECYCLE_CRON")),
			ReminderCron:  strings.TrimSpace(v.GetString("REMINDER_CRON")),
			MarkPurgeCron: strings.TrimSpace(v.GetString("REMINDER_MARK_PURGE_CRON")),
		},
		Reminder: ReminderConfig{
			WebhookURL: strings.TrimSpace(v.GetString("REMINDER_WEBHOOK_URL")),
		},
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.JWTTTL, err = parseDuration(v, "JWT_TTL"); err != nil {
		return nil, err
	}
	if cfg.Scheduler.RecycleAfter, err = parseDuration(v, "RECYCLE_AFTER"); err != nil {
		return nil, err
	}
	if cfg.Reminder.WebhookTimeout, err = parseDuration(v, "REMINDER_WEBHOOK_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.Reminder.MarkTTL, err = parseDuration(v, "REMINDER_MARK_TTL"); err != nil {
		return nil, err
	}
	if cfg.Reminder.Window, err = parseDuration(v, "REMINDER_WINDOW"); err != nil {
		return nil, err
	}

	tz := strings.TrimSpace(v.GetString("TIMEZONE"))
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE value %q: %w", tz, err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.Scheduler.RecycleAfter <= 0 {
		return fmt.Errorf("RECYCLE_AFTER must be > 0")
	}
	if cfg.Reminder.WebhookTimeout <= 0 {
		return fmt.Errorf("REMINDER_WEBHOOK_TIMEOUT must be > 0")
	}
	if cfg.Reminder.MarkTTL <= 0 {
		return fmt.Errorf("REMINDER_MARK_TTL must be > 0")
	}
	if cfg.Reminder.Window <= 0 {
		return fmt.Errorf("REMINDER_WINDOW must be > 0")
	}
	if cfg.Scheduler.Enabled && cfg.Scheduler.LockFile == "" {
		return fmt.Errorf("SCHEDULER_LOCK_FILE must not be empty when the scheduler is enabled")
	}

	if IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}

	return nil
}

// IsProdLike reports whether env names a production deployment.
func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDuration(v *viper.Viper, name string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(name))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
