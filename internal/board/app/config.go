package app

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Port                int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	// DatabaseDriver selects the store: "sqlite" or "postgres".
	DatabaseDriver   string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseFile     string `env:"DATABASE_FILE" envDefault:"agileboard.db"`
	DatabaseURL      string `env:"DATABASE_URL"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`

	Issuer     string        `env:"AUTH_ISSUER" envDefault:"agileboard"`
	Audience   []string      `env:"AUTH_AUDIENCE" envSeparator:"," envDefault:"agileboard"`
	SigningKey string        `env:"AUTH_SIGNING_KEY_FILE" envDefault:"signing.pem"`
	PepperFile string        `env:"AUTH_PEPPER_FILE" envDefault:"pepper"`
	AccessTTL  time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"168h"`

	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"false"`
	CookieDomain string `env:"COOKIE_DOMAIN"`

	// BaseURL is the public web origin used in invitation links.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:5173"`

	// SMTPHost empty means invitation mail is only logged.
	SMTPHost       string        `env:"SMTP_HOST"`
	SMTPPort       int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername   string        `env:"SMTP_USERNAME"`
	SMTPPassword   string        `env:"SMTP_PASSWORD"`
	SMTPFrom       string        `env:"SMTP_FROM" envDefault:"Agileboard <no-reply@localhost>"`
	SMTPEncryption string        `env:"SMTP_ENCRYPTION" envDefault:"starttls"`
	SMTPInsecure   bool          `env:"SMTP_INSECURE_SKIP_VERIFY" envDefault:"false"`
	SMTPTimeout    time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`

	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
	MetricsEnabled       bool          `env:"METRICS_ENABLED" envDefault:"true"`
}

// LoadConfig reads an optional .env file then parses the environment.
// Variables already set in the environment win over the file.
func LoadConfig(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.HousekeepingInterval <= 0 {
		return errors.New("HOUSEKEEPING_INTERVAL must be positive")
	}
	return nil
}
