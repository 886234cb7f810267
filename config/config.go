package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Attendance AttendanceConfig `yaml:"attendance"`
	Seed       SeedConfig       `yaml:"seed"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	ReadTimeout     time.Duration `yaml:"-"`
	WriteTimeout    time.Duration `yaml:"-"`
	ReadTimeoutRaw  string        `yaml:"read_timeout"`
	WriteTimeoutRaw string        `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	URL                string        `yaml:"url"`
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
	AutoMigrate        bool          `yaml:"auto_migrate"`
	LogLevel           string        `yaml:"log_level"`
}

type AuthConfig struct {
	JWTSecret           string        `yaml:"jwt_secret"`
	BcryptCost          int           `yaml:"bcrypt_cost"`
	SessionTTL          time.Duration `yaml:"-"`
	ImpersonationTTL    time.Duration `yaml:"-"`
	SessionTTLRaw       string        `yaml:"session_ttl"`
	ImpersonationTTLRaw string        `yaml:"impersonation_ttl"`
}

type AttendanceConfig struct {
	Location        *time.Location `yaml:"-"`
	HalfDayAfter    time.Duration  `yaml:"-"`
	TimezoneRaw     string         `yaml:"timezone"`
	HalfDayAfterRaw string         `yaml:"half_day_after"`
}

// SeedConfig describes the administrator created on first start.
type SeedConfig struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
}

// Load reads an optional .env file, then the YAML file at path (skipped when
// path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Seed.Email = getEnv("ADMIN_EMAIL", c.Seed.Email)
	c.Seed.Password = getEnv("ADMIN_PASSWORD", c.Seed.Password)
	if v := os.Getenv("DATABASE_AUTO_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Database.AutoMigrate = b
		}
	}
}

func (c *Config) validateAndNormalize() error {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	var err error
	if c.Server.ReadTimeout, err = parseDurationDefault(c.Server.ReadTimeoutRaw, 15*time.Second); err != nil {
		return fmt.Errorf("config: server.read_timeout: %w", err)
	}
	if c.Server.WriteTimeout, err = parseDurationDefault(c.Server.WriteTimeoutRaw, 30*time.Second); err != nil {
		return fmt.Errorf("config: server.write_timeout: %w", err)
	}

	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Auth.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Attendance.validateAndNormalize(); err != nil {
		return err
	}

	if c.Seed.FirstName == "" {
		c.Seed.FirstName = "Admin"
	}
	if c.Seed.LastName == "" {
		c.Seed.LastName = "User"
	}
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.URL == "" {
		if d.Host == "" {
			return fmt.Errorf("config: database.url or database.host must be set")
		}
		if d.Port == 0 {
			d.Port = 5432
		}
		if d.User == "" {
			return fmt.Errorf("config: database.user must be set")
		}
		if d.Name == "" {
			return fmt.Errorf("config: database.name must be set")
		}
		if d.SSLMode == "" {
			d.SSLMode = "disable"
		}
	}
	if d.LogLevel == "" {
		d.LogLevel = "warn"
	}
	switch d.LogLevel {
	case "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("config: database.log_level %q is not one of silent, error, warn, info", d.LogLevel)
	}

	lifetime, err := parseDurationDefault(d.ConnMaxLifetimeRaw, 0)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationDefault(d.ConnMaxIdleTimeRaw, 0)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (a *AuthConfig) validateAndNormalize() error {
	if a.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret must be set")
	}
	var err error
	if a.SessionTTL, err = parseDurationDefault(a.SessionTTLRaw, 24*time.Hour); err != nil {
		return fmt.Errorf("config: auth.session_ttl: %w", err)
	}
	if a.ImpersonationTTL, err = parseDurationDefault(a.ImpersonationTTLRaw, time.Hour); err != nil {
		return fmt.Errorf("config: auth.impersonation_ttl: %w", err)
	}
	if a.SessionTTL <= 0 || a.ImpersonationTTL <= 0 {
		return fmt.Errorf("config: auth ttls must be positive")
	}
	return nil
}

func (a *AttendanceConfig) validateAndNormalize() error {
	tz := a.TimezoneRaw
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("config: attendance.timezone: %w", err)
	}
	a.Location = loc

	if a.HalfDayAfter, err = parseDurationDefault(a.HalfDayAfterRaw, 0); err != nil {
		return fmt.Errorf("config: attendance.half_day_after: %w", err)
	}
	if a.HalfDayAfter < 0 || a.HalfDayAfter >= 24*time.Hour {
		return fmt.Errorf("config: attendance.half_day_after must be within a day")
	}
	return nil
}

// DSN returns the connection string for the postgres driver.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

func parseDurationDefault(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	return time.ParseDuration(raw)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
