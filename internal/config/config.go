package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const EnvPrefix = "PIXELIZ"

const (
	SourceAPI  = "api"
	SourceDB   = "db"
	SourceFile = "file"
)

type Config struct {
	Bind     string
	Port     int
	LogLevel string
	LogDev   bool

	Schedule        string
	ShimmerInterval time.Duration
	HintDelay       time.Duration
	CooldownWon     time.Duration
	CooldownLost    time.Duration

	SourceMode  string
	RoundsFile  string
	DatabaseURL string
	DBMigrate   bool
	RedisURL    string
	CatalogTTL  time.Duration

	NATSURL     string
	NATSSubject string

	PublicURL      string
	AllowedOrigins []string

	ImageMaxSide int
	ImageTimeout time.Duration

	schedule engine.Schedule
}

// Register declares every flag on fs, writing into cfg.
func Register(fs *pflag.FlagSet, cfg *Config) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: PIXELIZ_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 3000, "port to listen on (env: PIXELIZ_PORT)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: PIXELIZ_LOG_LEVEL)")
	fs.BoolVar(&cfg.LogDev, "log-dev", false, "human readable console logs (env: PIXELIZ_LOG_DEV)")

	fs.StringVar(&cfg.Schedule, "schedule", engine.DefaultSchedule.String(), "pixelation steps as resolution:seconds,... (env: PIXELIZ_SCHEDULE)")
	fs.DurationVar(&cfg.ShimmerInterval, "shimmer-interval", 150*time.Millisecond, "time between shimmer frames (env: PIXELIZ_SHIMMER_INTERVAL)")
	fs.DurationVar(&cfg.HintDelay, "hint-delay", 10*time.Second, "time before the first hint is shown (env: PIXELIZ_HINT_DELAY)")
	fs.DurationVar(&cfg.CooldownWon, "cooldown-won", 3*time.Second, "pause after a round is guessed (env: PIXELIZ_COOLDOWN_WON)")
	fs.DurationVar(&cfg.CooldownLost, "cooldown-lost", 4*time.Second, "pause after a round times out or is skipped (env: PIXELIZ_COOLDOWN_LOST)")

	fs.StringVar(&cfg.SourceMode, "source-mode", SourceAPI, "where rounds come from: api, db or file (env: PIXELIZ_SOURCE_MODE)")
	fs.StringVar(&cfg.RoundsFile, "rounds-file", "", "YAML rounds file for --source-mode=file (env: PIXELIZ_ROUNDS_FILE)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres DSN for --source-mode=db (env: PIXELIZ_DATABASE_URL)")
	fs.BoolVar(&cfg.DBMigrate, "db-migrate", false, "create the game_images table on startup (env: PIXELIZ_DB_MIGRATE)")
	fs.StringVar(&cfg.RedisURL, "redis-url", "", "redis URL used to cache catalog lookups (env: PIXELIZ_REDIS_URL)")
	fs.DurationVar(&cfg.CatalogTTL, "catalog-ttl", 6*time.Hour, "how long cached catalogs stay valid (env: PIXELIZ_CATALOG_TTL)")

	fs.StringVar(&cfg.NATSURL, "nats-url", "", "mirror game events to this NATS server (env: PIXELIZ_NATS_URL)")
	fs.StringVar(&cfg.NATSSubject, "nats-subject", "pixeliz.events", "subject prefix for mirrored events (env: PIXELIZ_NATS_SUBJECT)")

	fs.StringVar(&cfg.PublicURL, "public-url", "", "URL encoded in the /qr code (env: PIXELIZ_PUBLIC_URL)")
	fs.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", []string{"*"}, "origins allowed to connect (env: PIXELIZ_ALLOWED_ORIGINS)")

	fs.IntVar(&cfg.ImageMaxSide, "image-max-side", 1024, "longest image edge kept after decoding (env: PIXELIZ_IMAGE_MAX_SIDE)")
	fs.DurationVar(&cfg.ImageTimeout, "image-timeout", 15*time.Second, "timeout for fetching one image (env: PIXELIZ_IMAGE_TIMEOUT)")
}

// BindEnv lets PIXELIZ_* variables fill any flag not set on the command line.
func BindEnv(fs *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	sched, err := engine.ParseSchedule(c.Schedule)
	if err != nil {
		return err
	}
	c.schedule = sched

	for name, d := range map[string]time.Duration{
		"shimmer-interval": c.ShimmerInterval,
		"hint-delay":       c.HintDelay,
		"cooldown-won":     c.CooldownWon,
		"cooldown-lost":    c.CooldownLost,
		"image-timeout":    c.ImageTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("--%s must be positive, got %s", name, d)
		}
	}

	switch c.SourceMode {
	case SourceAPI:
	case SourceDB:
		if c.DatabaseURL == "" {
			return errors.New("--source-mode=db requires --database-url")
		}
	case SourceFile:
		if c.RoundsFile == "" {
			return errors.New("--source-mode=file requires --rounds-file")
		}
	default:
		return fmt.Errorf("unknown source mode %q (want api, db or file)", c.SourceMode)
	}

	if c.ImageMaxSide < 1 {
		return fmt.Errorf("invalid image max side: %d", c.ImageMaxSide)
	}
	return nil
}

// ParsedSchedule is only meaningful after Validate succeeded.
func (c *Config) ParsedSchedule() engine.Schedule {
	if c.schedule == nil {
		return engine.DefaultSchedule.Clone()
	}
	return c.schedule.Clone()
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
