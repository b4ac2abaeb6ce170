package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "QUILL"

// Options controls where Load looks for configuration.
type Options struct {
	// Path is an explicit config file. When empty ResolveConfigPath decides.
	Path string
	// Flags are bound over every other source, keyed by their flag names
	// ("store.base_url").
	Flags     *pflag.FlagSet
	EnvLookup EnvLookup
	HomeDir   func() (string, error)
}

// Metadata reports where the loaded configuration came from.
type Metadata struct {
	Path   string
	Source string
	Loaded bool
}

// Load layers defaults, the YAML file, QUILL_* environment variables and
// bound flags, in increasing priority, and validates the result.
func Load(opts Options) (Config, Metadata, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	meta := Metadata{Path: opts.Path, Source: "flag"}
	if meta.Path == "" {
		meta.Path, meta.Source = ResolveConfigPath(opts.EnvLookup, opts.HomeDir)
	}
	if meta.Path != "" {
		v.SetConfigFile(meta.Path)
		v.SetConfigType("yaml")
		err := v.ReadInConfig()
		switch {
		case err == nil:
			meta.Loaded = true
		case opts.Path == "" && isMissingFile(err):
			// optional default locations
		default:
			return Config{}, meta, fmt.Errorf("read config %s: %w", meta.Path, err)
		}
	}

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return Config{}, meta, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, meta, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	if report := Validate(cfg); report.HasErrors() {
		return cfg, meta, report
	}
	return cfg, meta, nil
}

func isMissingFile(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}

func (c *Config) normalize() {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Store.BaseURL = strings.TrimRight(strings.TrimSpace(c.Store.BaseURL), "/")
	c.Store.DeliveryURL = strings.TrimRight(strings.TrimSpace(c.Store.DeliveryURL), "/")
	if c.Store.DeliveryURL == "" {
		c.Store.DeliveryURL = c.Store.BaseURL
	}
}
