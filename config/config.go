package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Booking    BookingConfig    `yaml:"booking"`
	Waitlist   WaitlistConfig   `yaml:"waitlist"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration. Driver is
// "postgres" for production deployments or "sqlite" for local development.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableRangeIndex       bool   `yaml:"enable_range_index"`
}

// BookingConfig holds the commit workflow knobs.
type BookingConfig struct {
	LockTimeoutSeconds int           `yaml:"lock_timeout_seconds"`
	LockTimeout        time.Duration `yaml:"-"`
}

// WaitlistConfig holds the waitlist offer policy.
type WaitlistConfig struct {
	OfferWindowHours     int           `yaml:"offer_window_hours"`
	OfferWindow          time.Duration `yaml:"-"`
	MaxOffers            int           `yaml:"max_offers"`
	SweepIntervalSeconds int           `yaml:"sweep_interval_seconds"`
	SweepInterval        time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Booking.LockTimeoutSeconds <= 0 {
		cfg.Booking.LockTimeoutSeconds = 3
	}
	cfg.Booking.LockTimeout = time.Duration(cfg.Booking.LockTimeoutSeconds) * time.Second

	if cfg.Waitlist.OfferWindowHours <= 0 {
		cfg.Waitlist.OfferWindowHours = 24
	}
	cfg.Waitlist.OfferWindow = time.Duration(cfg.Waitlist.OfferWindowHours) * time.Hour

	if cfg.Waitlist.MaxOffers <= 0 {
		cfg.Waitlist.MaxOffers = 3
	}
	if cfg.Waitlist.SweepIntervalSeconds <= 0 {
		cfg.Waitlist.SweepIntervalSeconds = 60
	}
	cfg.Waitlist.SweepInterval = time.Duration(cfg.Waitlist.SweepIntervalSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
