package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/segyhp/student-fees/internal/feecalc"
)

// Config holds all configuration for our application
type Config struct {
	Server       ServerConfig       `mapstructure:",squash"`
	Database     DatabaseConfig     `mapstructure:",squash"`
	Redis        RedisConfig        `mapstructure:",squash"`
	Scheduler    SchedulerConfig    `mapstructure:",squash"`
	Logging      LoggingConfig      `mapstructure:",squash"`
	Notification NotificationConfig `mapstructure:",squash"`
	Business     BusinessConfig     `mapstructure:",squash"`
	Health       HealthConfig       `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string `mapstructure:"SERVER_PORT"`
	Host         string `mapstructure:"SERVER_HOST"`
	Env          string `mapstructure:"ENV"`
	ReadTimeout  string `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout string `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"DATABASE_URL"`
	Host            string `mapstructure:"DATABASE_HOST"`
	Port            string `mapstructure:"DATABASE_PORT"`
	Name            string `mapstructure:"DATABASE_NAME"`
	User            string `mapstructure:"DATABASE_USER"`
	Password        string `mapstructure:"DATABASE_PASSWORD"`
	SSLMode         string `mapstructure:"DATABASE_SSLMODE"`
	MaxOpenConns    int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime string `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	URL      string `mapstructure:"REDIS_URL"`
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	Timezone         string `mapstructure:"SCHEDULER_TIMEZONE"`
	SweepSchedule    string `mapstructure:"SWEEP_SCHEDULE"`
	ReminderSchedule string `mapstructure:"REMINDER_SCHEDULE"`
	JobLockTTL       string `mapstructure:"JOB_LOCK_TTL"`
}

type LoggingConfig struct {
	Level        string `mapstructure:"LOG_LEVEL"`
	Format       string `mapstructure:"LOG_FORMAT"`
	RollbarToken string `mapstructure:"ROLLBAR_TOKEN"`
}

type NotificationConfig struct {
	SendGridAPIKey string `mapstructure:"SENDGRID_API_KEY"`
	FromAddress    string `mapstructure:"MAIL_FROM_ADDRESS"`
	FromName       string `mapstructure:"MAIL_FROM_NAME"`
	InstituteName  string `mapstructure:"INSTITUTE_NAME"`
}

type BusinessConfig struct {
	RegistrationFee       string `mapstructure:"REGISTRATION_FEE"`
	EarlyBirdPercent      string `mapstructure:"EARLY_BIRD_PERCENT"`
	LateFeePercentPerWeek string `mapstructure:"LATE_FEE_PERCENT_PER_WEEK"`
	LateFeeMaxPercent     string `mapstructure:"LATE_FEE_MAX_PERCENT"`
	BatchMultipliers      string `mapstructure:"BATCH_MULTIPLIERS"`
	DurationDiscounts     string `mapstructure:"DURATION_DISCOUNTS"`
	ReminderLeadDays      int    `mapstructure:"REMINDER_LEAD_DAYS"`
	FinalNoticeAfterDays  int    `mapstructure:"FINAL_NOTICE_AFTER_DAYS"`
	StatsCacheTTL         string `mapstructure:"STATS_CACHE_TTL"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_HOST", "")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_NAME", "student_fees")
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SCHEDULER_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("SWEEP_SCHEDULE", "0 30 0 * * *")
	v.SetDefault("REMINDER_SCHEDULE", "0 0 9 * * *")
	v.SetDefault("JOB_LOCK_TTL", "30m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ROLLBAR_TOKEN", "")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_ADDRESS", "noreply@institute.local")
	v.SetDefault("MAIL_FROM_NAME", "Fees Office")
	v.SetDefault("INSTITUTE_NAME", "Training Institute")
	v.SetDefault("REGISTRATION_FEE", "500")
	v.SetDefault("EARLY_BIRD_PERCENT", "5")
	v.SetDefault("LATE_FEE_PERCENT_PER_WEEK", "2")
	v.SetDefault("LATE_FEE_MAX_PERCENT", "20")
	v.SetDefault("BATCH_MULTIPLIERS", "morning=1.0,afternoon=0.95,evening=1.10")
	v.SetDefault("DURATION_DISCOUNTS", "1=0,3=5,6=10,12=15")
	v.SetDefault("REMINDER_LEAD_DAYS", 3)
	v.SetDefault("FINAL_NOTICE_AFTER_DAYS", 30)
	v.SetDefault("STATS_CACHE_TTL", "5m")
	v.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")

	// Read from environment variables
	v.AutomaticEnv()

	// Try to read from .env file (optional)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required")
	}

	if c.Business.ReminderLeadDays < 0 {
		return fmt.Errorf("REMINDER_LEAD_DAYS must not be negative")
	}

	if c.Business.FinalNoticeAfterDays <= 0 {
		return fmt.Errorf("FINAL_NOTICE_AFTER_DAYS must be greater than 0")
	}

	if _, err := c.Policy(); err != nil {
		return err
	}

	durations := map[string]string{
		"SERVER_READ_TIMEOUT":        c.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":       c.Server.WriteTimeout,
		"DATABASE_CONN_MAX_LIFETIME": c.Database.ConnMaxLifetime,
		"JOB_LOCK_TTL":               c.Scheduler.JobLockTTL,
		"STATS_CACHE_TTL":            c.Business.StatsCacheTTL,
		"HEALTH_CHECK_TIMEOUT":       c.Health.Timeout,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", key, err)
		}
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// DSN returns the postgres connection string. Explicit host settings win
// over DATABASE_URL so tests can point at a scratch database.
func (d DatabaseConfig) DSN() string {
	if d.Host == "" && d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns host:port for the redis client
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, r.Port)
}

// Policy builds the fee calculator tables from the business settings
func (c *Config) Policy() (feecalc.Policy, error) {
	p := feecalc.DefaultPolicy()

	amounts := []struct {
		key    string
		value  string
		target *decimal.Decimal
	}{
		{"REGISTRATION_FEE", c.Business.RegistrationFee, &p.RegistrationFee},
		{"EARLY_BIRD_PERCENT", c.Business.EarlyBirdPercent, &p.EarlyBirdPercent},
		{"LATE_FEE_PERCENT_PER_WEEK", c.Business.LateFeePercentPerWeek, &p.LateFeePercentPerWeek},
		{"LATE_FEE_MAX_PERCENT", c.Business.LateFeeMaxPercent, &p.LateFeeMaxPercent},
	}
	for _, a := range amounts {
		if a.value == "" {
			continue
		}
		d, err := decimal.NewFromString(a.value)
		if err != nil {
			return feecalc.Policy{}, fmt.Errorf("%s must be a valid decimal: %w", a.key, err)
		}
		if d.IsNegative() {
			return feecalc.Policy{}, fmt.Errorf("%s must not be negative", a.key)
		}
		*a.target = d
	}

	if c.Business.BatchMultipliers != "" {
		pairs, err := parsePairs(c.Business.BatchMultipliers)
		if err != nil {
			return feecalc.Policy{}, fmt.Errorf("BATCH_MULTIPLIERS: %w", err)
		}
		p.BatchMultipliers = make(map[string]decimal.Decimal, len(pairs))
		for k, v := range pairs {
			p.BatchMultipliers[k] = v
		}
	}

	if c.Business.DurationDiscounts != "" {
		pairs, err := parsePairs(c.Business.DurationDiscounts)
		if err != nil {
			return feecalc.Policy{}, fmt.Errorf("DURATION_DISCOUNTS: %w", err)
		}
		p.DurationDiscounts = make(map[int]decimal.Decimal, len(pairs))
		for k, v := range pairs {
			months, err := strconv.Atoi(k)
			if err != nil || months <= 0 {
				return feecalc.Policy{}, fmt.Errorf("DURATION_DISCOUNTS: %q is not a month count", k)
			}
			p.DurationDiscounts[months] = v
		}
	}

	return p, nil
}

// parsePairs reads "a=1,b=2.5" lists
func parsePairs(s string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		k, v, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("%q is not a key=value pair", item)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%q has an invalid value: %w", item, err)
		}
		out[strings.TrimSpace(k)] = d
	}
	return out, nil
}

// GetReadTimeout returns the server read timeout as duration
func (c *Config) GetReadTimeout() time.Duration {
	return mustDuration(c.Server.ReadTimeout)
}

// GetWriteTimeout returns the server write timeout as duration
func (c *Config) GetWriteTimeout() time.Duration {
	return mustDuration(c.Server.WriteTimeout)
}

// GetConnMaxLifetime returns the pooled connection lifetime
func (c *Config) GetConnMaxLifetime() time.Duration {
	return mustDuration(c.Database.ConnMaxLifetime)
}

// GetJobLockTTL returns how long a scheduler job lock is held at most
func (c *Config) GetJobLockTTL() time.Duration {
	return mustDuration(c.Scheduler.JobLockTTL)
}

// GetStatsCacheTTL returns how long fee stats stay cached
func (c *Config) GetStatsCacheTTL() time.Duration {
	return mustDuration(c.Business.StatsCacheTTL)
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	return mustDuration(c.Health.Timeout)
}

// GetLocation returns the scheduler time zone, UTC if unset
func (c *Config) GetLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
