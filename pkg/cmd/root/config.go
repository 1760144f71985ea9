package root

import (
	"errors"

	"github.com/soluchok/tgquery/pkg/telegram"
)

type config struct {
	Config     string  `mapstructure:"config"`
	Env        string  `mapstructure:"env"`
	Sessions   string  `mapstructure:"sessions"`
	Devices    string  `mapstructure:"devices"`
	DevicesURL string  `mapstructure:"devices-url"`
	Output     string  `mapstructure:"output"`
	Proxy      string  `mapstructure:"proxy"`
	RPS        float64 `mapstructure:"rps"`
	LogLevel   string  `mapstructure:"log-level"`
	LogFile    string  `mapstructure:"log-file"`
}

func (c *config) Validate() error {
	if c == nil {
		return errors.New("The configuration is missing. Please ensure that it was properly parsed.")
	}

	var errs []error

	if len(c.Config) == 0 {
		errs = append(errs, errors.New("The credentials file path is missing."))
	}

	if len(c.Sessions) == 0 {
		errs = append(errs, errors.New("The sessions directory is missing."))
	}

	if len(c.Devices) == 0 {
		errs = append(errs, errors.New("The device catalog path is missing."))
	}

	if len(c.Output) == 0 {
		errs = append(errs, errors.New("The output file name is missing."))
	}

	if c.RPS < 0 {
		errs = append(errs, errors.New("The request rate cannot be negative."))
	}

	if _, err := telegram.ParseProxyURL(c.Proxy); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
