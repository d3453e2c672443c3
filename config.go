package sdk

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/veridian/lib-license-go/model"
)

// LoadFromEnv builds the public Config from LICENSE_* environment variables,
// applying the documented defaults for any unset option.
func LoadFromEnv() (model.Config, error) {
	var cfg model.Config
	if err := envconfig.Process("", &cfg); err != nil {
		return model.Config{}, err
	}

	return cfg, nil
}
