package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Dashboard struct {
		Username string `env:"DASHBOARD_USERNAME" envDefault:"admin"`
		Password string `env:"DASHBOARD_PASSWORD,notEmpty"`
	}

	Bot struct {
		Name     string        `env:"BOT_NAME" envDefault:"SeaBot"`
		Prefixes []string      `env:"BOT_PREFIXES" envSeparator:"," envDefault:".,!,#,/"`
		OwnerIDs []string      `env:"BOT_OWNER_IDS" envSeparator:"," envDefault:"6285709557572"`
		Cooldown time.Duration `env:"BOT_COOLDOWN" envDefault:"2s"`

		DailyLimit     int   `env:"BOT_DAILY_LIMIT" envDefault:"30"`
		DefaultBalance int64 `env:"BOT_DEFAULT_BALANCE" envDefault:"50"`
		DefaultBonus   int64 `env:"BOT_DEFAULT_BONUS" envDefault:"100"`

		// NameMerge enables attaching an unseen identifier to an existing
		// account with the same display name.
		NameMerge bool `env:"BOT_NAME_MERGE" envDefault:"false"`

		CommandTimeout time.Duration `env:"COMMAND_TIMEOUT" envDefault:"30s"`
		NotifyOwner    bool          `env:"BOT_NOTIFY_OWNER" envDefault:"true"`

		// Timezone decides when the midnight limit reset runs.
		Timezone string `env:"BOT_TIMEZONE" envDefault:"Asia/Jakarta"`
	}

	Outbox struct {
		Enabled  bool   `env:"OUTBOX_ENABLED" envDefault:"true"`
		Consumer string `env:"OUTBOX_CONSUMER" envDefault:"seabot-1"`
	}

	Media struct {
		// PublicURL is where external APIs reach the dashboard server's /media route.
		PublicURL string        `env:"MEDIA_PUBLIC_URL" envDefault:"http://localhost:8080"`
		TTL       time.Duration `env:"MEDIA_TTL" envDefault:"5m"`
	}

	RateLimit struct {
		PerMinute   int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
		PerHour     int           `env:"RATE_LIMIT_PER_HOUR" envDefault:"100"`
		BanDuration time.Duration `env:"RATE_LIMIT_BAN_DURATION" envDefault:"1h"`
		Store       string        `env:"RATE_LIMIT_STORE" envDefault:"memory"` // memory, redis
	}

	WhatsApp struct {
		StoreDialect string `env:"WHATSAPP_STORE_DIALECT" envDefault:"sqlite3"` // sqlite3, postgres
		StoreAddress string `env:"WHATSAPP_STORE_ADDRESS" envDefault:"file:session/whatsapp.db?_foreign_keys=on"`
		PairingPhone string `env:"WHATSAPP_PAIRING_PHONE"`
		LogLevel     string `env:"WHATSAPP_LOG_LEVEL" envDefault:"warn"`
	}

	APIs struct {
		BetaBotzURL  string        `env:"BETABOTZ_URL" envDefault:"https://api.betabotz.eu.org"`
		BetaBotzKey  string        `env:"BETABOTZ_KEY"`
		BotCahXURL   string        `env:"BOTCAHX_URL" envDefault:"https://api.botcahx.eu.org"`
		BotCahXKey   string        `env:"BOTCAHX_KEY"`
		InstagramURL string        `env:"INSTAGRAM_URL" envDefault:"https://www.instagram.com"`
		Timeout      time.Duration `env:"API_TIMEOUT" envDefault:"20s"`
		MaxTries     uint          `env:"API_MAX_TRIES" envDefault:"2"`
	}

	Log struct {
		File       string `env:"LOG_FILE" envDefault:"logs/seabot.log"`
		MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
		MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	}

	Postgres PostgresConfig

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}
}

type PostgresConfig struct {
	Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User            string        `env:"POSTGRES_USER" envDefault:"seabot"`
	Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database        string        `env:"POSTGRES_DB" envDefault:"seabot"`
	SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnectTimeout  time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" envDefault:"30s"`
}

// GetDSN builds a lib/pq connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// .env is optional, production sets variables directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	prefixes := c.Bot.Prefixes[:0]
	for _, p := range c.Bot.Prefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	c.Bot.Prefixes = prefixes

	switch {
	case len(c.Bot.Prefixes) == 0:
		return fmt.Errorf("BOT_PREFIXES must contain at least one prefix")
	case c.Bot.DailyLimit <= 0:
		return fmt.Errorf("BOT_DAILY_LIMIT must be positive, got %d", c.Bot.DailyLimit)
	case c.Bot.CommandTimeout <= 0:
		return fmt.Errorf("COMMAND_TIMEOUT must be positive")
	case c.RateLimit.PerMinute <= 0 || c.RateLimit.PerHour <= 0:
		return fmt.Errorf("rate limits must be positive")
	}

	if _, err := time.LoadLocation(c.Bot.Timezone); err != nil {
		return fmt.Errorf("invalid BOT_TIMEZONE %q: %w", c.Bot.Timezone, err)
	}

	switch c.RateLimit.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown RATE_LIMIT_STORE %q", c.RateLimit.Store)
	}

	switch c.WhatsApp.StoreDialect {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unknown WHATSAPP_STORE_DIALECT %q", c.WhatsApp.StoreDialect)
	}

	return nil
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Location is the validated BOT_TIMEZONE.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Bot.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
