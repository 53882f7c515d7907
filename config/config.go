// Package config loads the client and backend settings from CAMPAIGN_*
// environment variables.
package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-campaign-client/cache"
	goerrors "github.com/goliatone/go-errors"
)

// Prefix is prepended to every variable name.
const Prefix = "CAMPAIGN_"

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

type Config struct {
	// BaseURL is where the remote actor is served.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	// LoginProviderURL is shown to anonymous users; the client never calls it.
	LoginProviderURL string        `env:"LOGIN_PROVIDER_URL"`
	Principal        string        `env:"PRINCIPAL"`
	Token            string        `env:"TOKEN"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	ListenAddr     string `env:"LISTEN_ADDR" envDefault:":8080"`
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite3"`
	DatabaseDSN    string `env:"DATABASE_DSN" envDefault:"file:campaigns.db?cache=shared&_foreign_keys=on"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// InvalidateOnIdentityChange drops every cached read when the gateway
	// switches to another principal.
	InvalidateOnIdentityChange bool `env:"INVALIDATE_ON_IDENTITY_CHANGE" envDefault:"false"`

	CacheCapacity           int           `env:"CACHE_CAPACITY" envDefault:"10000"`
	CacheShards             int           `env:"CACHE_SHARDS" envDefault:"256"`
	CacheTTL                time.Duration `env:"CACHE_TTL" envDefault:"0s"`
	CacheEvictionPercentage int           `env:"CACHE_EVICTION_PERCENTAGE" envDefault:"10"`
	CacheEvictionInterval   time.Duration `env:"CACHE_EVICTION_INTERVAL" envDefault:"0s"`
}

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom reads vars instead of the process environment. Keys carry the
// prefix, as in the environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "config: parse environment").
			WithTextCode("CONFIG_PARSE")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default is the configuration of an empty environment.
func Default() Config {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		// envDefault tags are constants
		panic(err)
	}
	return cfg
}

func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.LoginProviderURL, is.URL),
		validation.Field(&c.RequestTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.DatabaseDriver, validation.Required, validation.In("sqlite3", "postgres")),
		validation.Field(&c.DatabaseDSN, validation.Required),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In(FormatJSON, FormatConsole)),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid configuration").WithTextCode("INVALID_CONFIG")
	}
	return c.CacheConfig().Validate()
}

// CacheConfig maps the flat cache settings onto cache.Config.
func (c Config) CacheConfig() cache.Config {
	cc := cache.DefaultConfig()
	if c.CacheTTL != 0 {
		cc = cache.ExpiringConfig(c.CacheTTL)
	}
	cc.Capacity = c.CacheCapacity
	cc.NumShards = c.CacheShards
	cc.EvictionPercentage = c.CacheEvictionPercentage
	cc.EvictionInterval = c.CacheEvictionInterval
	return cc
}

// Anonymous reports whether no principal is configured.
func (c Config) Anonymous() bool {
	return strings.TrimSpace(c.Principal) == ""
}
