package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix marks the environment variables read by Load. Nested keys are
// separated by a double underscore: TASKBOARD_AUTH__SIGNING_KEY.
const EnvPrefix = "TASKBOARD_"

// FlagKeys maps command line flag names to configuration keys
var FlagKeys = map[string]string{
	"addr":      "http.addr",
	"driver":    "persistence.driver",
	"dsn":       "persistence.dsn",
	"log-level": "logging.level",
	"debug":     "app.debug",
}

// Options tells Load where to look
type Options struct {
	File  string
	Flags *pflag.FlagSet
	// Environ replaces the process environment, used by tests
	Environ []string
}

// Load builds the configuration from defaults, file, environment and flags
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load config defaults")
	}

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, fmt.Sprintf("failed to load config file %s", opts.File))
		}
	}

	if opts.Environ != nil {
		for _, kv := range opts.Environ {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || !strings.HasPrefix(key, EnvPrefix) {
				continue
			}
			if err := k.Set(envKey(key), value); err != nil {
				return nil, errors.Wrap(err, errors.CategoryInternal, "failed to apply environment")
			}
		}
	} else if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load environment")
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, f.Value.String()
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load flags")
		}
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid configuration")
	}

	return cfg, nil
}

// envKey turns TASKBOARD_RATE_LIMIT__REQUESTS into rate_limit.requests
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

const redacted = "[redacted]"

// Print writes cfg as YAML with secrets redacted
func Print(w io.Writer, cfg Config) error {
	if cfg.Auth.SigningKey != "" {
		cfg.Auth.SigningKey = redacted
	}
	if cfg.Redis.Password != "" {
		cfg.Redis.Password = redacted
	}
	cfg.Persistence.DSN = redactDSN(cfg.Persistence.DSN)

	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// redactDSN hides the password in URL style DSNs
func redactDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return dsn
	}
	return scheme + "://" + user + ":" + redacted + "@" + host
}
