// Package config loads the Telegram application credentials the tool needs
// before anything else can run.
package config

import (
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var (
	// ErrConfigMissing is returned when the config file does not exist.
	ErrConfigMissing = errors.New("config file not found")
	// ErrConfigInvalid is returned when the config file cannot be read or
	// required fields are absent.
	ErrConfigInvalid = errors.New("config is invalid")
)

// Config holds the credentials used by every Telegram client the tool creates.
// It is loaded once and never modified afterwards.
type Config struct {
	AppID   int    `mapstructure:"api_id"`
	AppHash string `mapstructure:"api_hash"`
	// BotToken is optional; when set, extracted init data is checked against it.
	BotToken string `mapstructure:"bot_token"`
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.Wrap(ErrConfigInvalid, "the configuration is missing")
	}

	if c.AppID == 0 {
		return errors.Wrap(ErrConfigInvalid, "api_id is missing")
	}

	if len(strings.TrimSpace(c.AppHash)) == 0 {
		return errors.Wrap(ErrConfigInvalid, "api_hash is missing")
	}

	return nil
}

// Load reads the config file at path. API_ID, API_HASH and BOT_TOKEN
// environment variables take precedence over the file values.
func Load(fs afero.Fs, path string) (*Config, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	if !exists {
		return nil, errors.Wrapf(ErrConfigMissing, "%s", path)
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}

	for _, key := range []string{"api_id", "api_hash", "bot_token"} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "bind %s", key)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(ErrConfigInvalid, "read %s: %v", path, err)
	}

	var cfg *Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(ErrConfigInvalid, "decode %s: %v", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.AppHash = strings.TrimSpace(cfg.AppHash)

	return cfg, nil
}
