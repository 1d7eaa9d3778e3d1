package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/park285/chessmatch/internal/kv"
	"github.com/park285/chessmatch/internal/match"
)

const DefaultInitialClock = match.DefaultInitialClock

type AppConfig struct {
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	RedisURL    string
	DatabaseURL string

	InitialClock uint64
	TimeControls map[string]uint64

	CatalogDir string
}

// Load reads chessmatch.yaml from . or ./configs when present and applies
// CHESSMATCH_* environment overrides (CHESSMATCH_REDIS_URL for redis.url).
// REDIS_URL and DATABASE_URL are honoured as well.
func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("chessmatch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper resolves the configuration from an already populated viper instance.
func FromViper(v *viper.Viper) (*AppConfig, error) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("clock.initial", DefaultInitialClock)

	v.SetEnvPrefix("CHESSMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("redis.url", "CHESSMATCH_REDIS_URL", "REDIS_URL")
	_ = v.BindEnv("database.url", "CHESSMATCH_DATABASE_URL", "DATABASE_URL")

	cfg := &AppConfig{
		HTTPAddr:         strings.TrimSpace(v.GetString("http.addr")),
		HTTPReadTimeout:  v.GetDuration("http.read_timeout"),
		HTTPWriteTimeout: v.GetDuration("http.write_timeout"),
		RedisURL:         strings.TrimSpace(v.GetString("redis.url")),
		DatabaseURL:      strings.TrimSpace(v.GetString("database.url")),
		InitialClock:     v.GetUint64("clock.initial"),
		TimeControls:     map[string]uint64{},
		CatalogDir:       strings.TrimSpace(v.GetString("catalog.dir")),
	}
	for label, raw := range v.GetStringMap("clock.time_controls") {
		n, err := strconv.ParseUint(strings.TrimSpace(fmt.Sprint(raw)), 10, 64)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("clock.time_controls.%s: want a positive tick count, got %v", label, raw)
		}
		cfg.TimeControls[label] = n
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http.addr is required")
	}
	if c.InitialClock == 0 {
		return errors.New("clock.initial must be positive")
	}
	if c.RedisURL != "" {
		if _, err := kv.ParseRedisURL(c.RedisURL); err != nil {
			return fmt.Errorf("redis.url: %w", err)
		}
	}
	return nil
}
