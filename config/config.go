// Package config loads the taskboard configuration. Sources are layered in
// order: built in defaults, an optional YAML file, TASKBOARD_ environment
// variables and finally command line flags.
package config

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	RevocationNone   = "none"
	RevocationMemory = "memory"
	RevocationRedis  = "redis"

	LimiterMemory = "memory"
	LimiterRedis  = "redis"

	// DevSigningKey is only acceptable outside production
	DevSigningKey = "taskboard-development-signing-key"
)

type Config struct {
	App         App         `koanf:"app" yaml:"app"`
	HTTP        HTTP        `koanf:"http" yaml:"http"`
	Auth        Auth        `koanf:"auth" yaml:"auth"`
	Persistence Persistence `koanf:"persistence" yaml:"persistence"`
	Redis       Redis       `koanf:"redis" yaml:"redis"`
	RateLimit   RateLimit   `koanf:"rate_limit" yaml:"rate_limit"`
	Logging     Logging     `koanf:"logging" yaml:"logging"`
}

type App struct {
	Name  string `koanf:"name" yaml:"name"`
	Env   string `koanf:"env" yaml:"env"`
	Debug bool   `koanf:"debug" yaml:"debug"`
}

type HTTP struct {
	Addr            string        `koanf:"addr" yaml:"addr"`
	BodyLimit       int           `koanf:"body_limit" yaml:"body_limit"`
	ReadTimeout     time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins" yaml:"cors_origins"`
}

type Auth struct {
	SigningKey       string        `koanf:"signing_key" yaml:"signing_key"`
	TokenTTL         time.Duration `koanf:"token_ttl" yaml:"token_ttl"`
	Issuer           string        `koanf:"issuer" yaml:"issuer"`
	Audience         []string      `koanf:"audience" yaml:"audience"`
	BcryptCost       int           `koanf:"bcrypt_cost" yaml:"bcrypt_cost"`
	DeterministicIDs bool          `koanf:"deterministic_ids" yaml:"deterministic_ids"`
	Revocation       Revocation    `koanf:"revocation" yaml:"revocation"`
}

type Revocation struct {
	Store string `koanf:"store" yaml:"store"`
	// PruneSchedule is a cron spec for dropping expired entries of the memory store
	PruneSchedule string `koanf:"prune_schedule" yaml:"prune_schedule"`
}

type Persistence struct {
	Driver           string        `koanf:"driver" yaml:"driver"`
	DSN              string        `koanf:"dsn" yaml:"dsn"`
	Database         string        `koanf:"database" yaml:"database"`
	Debug            bool          `koanf:"debug" yaml:"debug"`
	AutoMigrate      bool          `koanf:"auto_migrate" yaml:"auto_migrate"`
	FallbackToMemory bool          `koanf:"fallback_to_memory" yaml:"fallback_to_memory"`
	PingTimeout      time.Duration `koanf:"ping_timeout" yaml:"ping_timeout"`
}

type Redis struct {
	Addr     string `koanf:"addr" yaml:"addr"`
	Password string `koanf:"password" yaml:"password"`
	DB       int    `koanf:"db" yaml:"db"`
}

type RateLimit struct {
	Enabled       bool          `koanf:"enabled" yaml:"enabled"`
	Backend       string        `koanf:"backend" yaml:"backend"`
	Requests      int           `koanf:"requests" yaml:"requests"`
	Window        time.Duration `koanf:"window" yaml:"window"`
	PruneSchedule string        `koanf:"prune_schedule" yaml:"prune_schedule"`
}

type Logging struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() Config {
	return Config{
		App: App{
			Name: "taskboard",
			Env:  "development",
		},
		HTTP: HTTP{
			Addr:            ":5000",
			BodyLimit:       1 << 20,
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Auth: Auth{
			SigningKey: DevSigningKey,
			TokenTTL:   24 * time.Hour,
			BcryptCost: 12,
			Revocation: Revocation{
				Store:         RevocationNone,
				PruneSchedule: "@every 10m",
			},
		},
		Persistence: Persistence{
			Driver:           "sqlite",
			DSN:              "file:taskboard.db?cache=shared",
			AutoMigrate:      true,
			FallbackToMemory: true,
			PingTimeout:      5 * time.Second,
		},
		RateLimit: RateLimit{
			Enabled:       true,
			Backend:       LimiterMemory,
			Requests:      20,
			Window:        15 * time.Minute,
			PruneSchedule: "@every 30m",
		},
		Logging: Logging{
			Level:  "info",
			Format: "pretty",
		},
	}
}

// IsProduction reports whether the app runs in production
func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// UsesRedis reports whether any component needs a redis connection
func (c Config) UsesRedis() bool {
	return c.Auth.Revocation.Store == RevocationRedis ||
		(c.RateLimit.Enabled && c.RateLimit.Backend == LimiterRedis)
}

func (c Config) GetHTTP() HTTP               { return c.HTTP }
func (c Config) GetAuth() Auth               { return c.Auth }
func (c Config) GetPersistence() Persistence { return c.Persistence }

// Validate will run validation rules
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.HTTP),
		validation.Field(&c.Auth),
		validation.Field(&c.Persistence),
		validation.Field(&c.RateLimit),
		validation.Field(&c.Logging),
		validation.Field(&c.Redis, validation.By(func(any) error {
			if c.UsesRedis() && c.Redis.Addr == "" {
				return errors.New("redis address is required")
			}
			return nil
		})),
		validation.Field(&c.App, validation.By(func(any) error {
			if c.IsProduction() && c.Auth.SigningKey == DevSigningKey {
				return errors.New("the development signing key cannot be used in production")
			}
			return nil
		})),
	)
}

func (h HTTP) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Addr, validation.Required),
		validation.Field(&h.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SigningKey, validation.Required, validation.RuneLength(16, 0)),
		validation.Field(&a.TokenTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&a.BcryptCost, validation.Min(4), validation.Max(31)),
		validation.Field(&a.Revocation),
	)
}

func (r Revocation) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Store, validation.In(RevocationNone, RevocationMemory, RevocationRedis)),
	)
}

func (p Persistence) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Driver, validation.Required, validation.In("sqlite", "postgres", "mongo", "memory")),
		validation.Field(&p.DSN, when(p.Driver == "postgres" || p.Driver == "mongo", validation.Required)...),
	)
}

func (r RateLimit) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Backend, validation.In(LimiterMemory, LimiterRedis)),
		validation.Field(&r.Requests, when(r.Enabled, validation.Required, validation.Min(1))...),
		validation.Field(&r.Window, when(r.Enabled, validation.Required)...),
	)
}

func (l Logging) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("trace", "debug", "info", "warn", "warning", "error", "disabled", "off")),
		validation.Field(&l.Format, validation.In("pretty", "json")),
	)
}

// when returns rules only if cond holds
func when(cond bool, rules ...validation.Rule) []validation.Rule {
	if !cond {
		return nil
	}
	return rules
}
