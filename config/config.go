package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"time"
	_ "time/tzdata"

	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/configparser"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
)

// Flags
var (
	modeFlag = flag.String("mode", "", "application mode: journey-service | notifier-service")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
	ErrInvalidConfig   = errors.New("invalid config")
)

// sections are the top-level keys settable from the environment.
var sections = []string{"database", "redis", "rabbitmq", "http", "auth", "journey", "notifier", "log", "seed"}

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode types.ServiceMode `koanf:"-"`

		Database DatabaseConfig `koanf:"database"`
		Redis    RedisConfig    `koanf:"redis"`
		RabbitMQ RabbitMQConfig `koanf:"rabbitmq"`
		HTTP     HTTPConfig     `koanf:"http"`
		Auth     AuthConfig     `koanf:"auth"`
		Journey  JourneyConfig  `koanf:"journey"`
		Notifier NotifierConfig `koanf:"notifier"`
		Log      LogConfig      `koanf:"log"`
		Seed     SeedConfig     `koanf:"seed"`
	}

	DatabaseConfig struct {
		Host     string `koanf:"host"`
		Port     string `koanf:"port"`
		User     string `koanf:"user"`
		Password string `koanf:"password"`
		Database string `koanf:"database"`
		SSLMode  string `koanf:"sslmode"`

		MaxConns        int32         `koanf:"max_conns"`
		MinConns        int32         `koanf:"min_conns"`
		MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
		MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
	}

	// RedisConfig is optional. An empty address runs without cross-instance fan-out.
	RedisConfig struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	}

	RabbitMQConfig struct {
		Host     string `koanf:"host"`
		Port     string `koanf:"port"`
		User     string `koanf:"user"`
		Password string `koanf:"password"`
	}

	HTTPConfig struct {
		Port            string        `koanf:"port"`
		AllowedOrigins  []string      `koanf:"allowed_origins"`
		RateLimit       int           `koanf:"rate_limit"` // per minute and client IP
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	}

	AuthConfig struct {
		JWTSecret      string        `koanf:"jwt_secret"`
		AccessTokenTTL time.Duration `koanf:"access_token_ttl"`
	}

	JourneyConfig struct {
		Timezone          string        `koanf:"timezone"`
		InactivityWindow  time.Duration `koanf:"inactivity_window"`
		IdleSpeed         float64       `koanf:"idle_speed"`
		CurfewHour        int           `koanf:"curfew_hour"`
		GuardedStartSpeed float64       `koanf:"guarded_start_speed"`
	}

	NotifierConfig struct {
		Port          string        `koanf:"port"` // health and metrics
		Hour          int           `koanf:"hour"`
		Minute        int           `koanf:"minute"`
		ExpoURL       string        `koanf:"expo_url"`
		RatePerSecond float64       `koanf:"rate_per_second"`
		Burst         int           `koanf:"burst"`
		Timeout       time.Duration `koanf:"timeout"`
		Concurrency   int           `koanf:"concurrency"`
		LockTTL       time.Duration `koanf:"lock_ttl"`
	}

	LogConfig struct {
		Level string `koanf:"level"`
	}

	// SeedConfig is read by cmd/seed only.
	SeedConfig struct {
		AdminName     string `koanf:"admin_name"`
		AdminEmail    string `koanf:"admin_email"`
		AdminPassword string `koanf:"admin_password"`
	}
)

func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "fieldtrack",
			Password:        "fieldtrack",
			Database:        "fieldtrack",
			SSLMode:         "disable",
			MaxConns:        20,
			MinConns:        2,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     "5672",
			User:     "guest",
			Password: "guest",
		},
		HTTP: HTTPConfig{
			Port:            "3000",
			AllowedOrigins:  []string{"*"},
			RateLimit:       600,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			AccessTokenTTL: 12 * time.Hour,
		},
		Journey: JourneyConfig{
			Timezone:          "America/Bogota",
			InactivityWindow:  5 * time.Minute,
			IdleSpeed:         1,
			CurfewHour:        19,
			GuardedStartSpeed: 10,
		},
		Notifier: NotifierConfig{
			Port:          "3001",
			Hour:          7,
			Minute:        0,
			ExpoURL:       "https://exp.host/--/api/v2/push/send",
			RatePerSecond: 10,
			Burst:         10,
			Timeout:       10 * time.Second,
			Concurrency:   8,
			LockTTL:       36 * time.Hour,
		},
		Log: LogConfig{
			Level: "INFO",
		},
		Seed: SeedConfig{
			AdminName:  "Administrador",
			AdminEmail: "admin@fieldtrack.local",
		},
	}
}

func (c DatabaseConfig) GetDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

func (c DatabaseConfig) PoolLimits() (maxConns, minConns int32, maxLifetime, maxIdle time.Duration) {
	return c.MaxConns, c.MinConns, c.MaxConnLifetime, c.MaxConnIdleTime
}

func (c RedisConfig) GetAddr() string     { return c.Addr }
func (c RedisConfig) GetPassword() string { return c.Password }
func (c RedisConfig) GetDB() int          { return c.DB }

func (c RabbitMQConfig) GetDSN() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/",
	}
	return u.String()
}

// Location loads the configured timezone.
func (c JourneyConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate reports settings the services cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret must be set"))
	}
	if _, err := c.Journey.Location(); err != nil {
		errs = append(errs, fmt.Errorf("journey.timezone: %w", err))
	}
	if c.Journey.CurfewHour < 0 || c.Journey.CurfewHour > 24 {
		errs = append(errs, errors.New("journey.curfew_hour must be between 0 and 24"))
	}
	if c.Journey.InactivityWindow <= 0 {
		errs = append(errs, errors.New("journey.inactivity_window must be positive"))
	}
	if !logger.ValidateLogLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q must be DEBUG, INFO, WARN or ERROR", c.Log.Level))
	}
	if c.Notifier.Hour < 0 || c.Notifier.Hour > 23 || c.Notifier.Minute < 0 || c.Notifier.Minute > 59 {
		errs = append(errs, errors.New("notifier.hour and notifier.minute must form a valid time of day"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Load layers defaults, the YAML file at path and the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	err := configparser.Load(configparser.Options{
		Defaults:  Defaults(),
		FilePath:  path,
		Sections:  sections,
		SliceKeys: []string{"http.allowed_origins"},
	}, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}
	return cfg, nil
}

func NewConfig(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Parsing flags
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	if modeFlag == nil || *modeFlag == "" {
		return ErrModeNotProvided
	}

	cfg.Mode = types.ServiceMode(*modeFlag)

	return nil
}
