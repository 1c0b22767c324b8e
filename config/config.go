// Package config loads the input and output settings of a job from YAML
// files and ARTIO_* environment variables.
package config

import (
	"reflect"
	"strings"

	"github.com/spf13/viper"

	"github.com/arloliu/artio/errs"
)

// Config aggregates the input and output settings of one job.
type Config struct {
	ProcessName string `mapstructure:"processName"`
	Input       Input  `mapstructure:"source"`
	Output      Output `mapstructure:"output"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		ProcessName: "artio",
		Input:       DefaultInput(),
		Output:      DefaultOutput(),
	}
}

// Load reads configuration from the file at path, if any, and from
// environment variables. Environment variables use the prefix "ARTIO" and
// the dot character in keys is replaced by an underscore, so
// "source.skipBadFiles" becomes "ARTIO_SOURCE_SKIPBADFILES".
//
// Parameters:
//   - path: YAML file to read; empty means environment and defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration error for unreadable files or illegal combinations
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ARTIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrap(errs.Configuration, "read config "+path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errs.Wrap(errs.Configuration, "decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks both sections for illegal option combinations.
func (c *Config) Validate() error {
	if c.ProcessName == "" {
		return errs.New(errs.Configuration, "config", "processName must not be empty")
	}
	if err := c.Input.Validate(); err != nil {
		return err
	}

	return c.Output.Validate()
}

// bindEnvs registers all scalar keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string{}, parts...), tag)
		switch f.Type.Kind() { //nolint:exhaustive
		case reflect.Struct:
			bindEnvs(v, val.Field(i).Interface(), key...)
		case reflect.Slice, reflect.Map:
		default:
			_ = v.BindEnv(strings.Join(key, "."))
		}
	}
}
