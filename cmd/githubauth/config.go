// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// config holds CLI configuration, resolved from flags, environment
// variables (GITHUBAUTH_ prefix) and an optional config file, in that
// order of precedence.
type config struct {
	AppID      string `mapstructure:"app_id"`      // issuer, carried verbatim in "iss"
	PrivateKey string `mapstructure:"private_key"` // path to the PEM private key file
	APIURL     string `mapstructure:"api_url"`     // REST API endpoint
	LogLevel   string `mapstructure:"log_level"`   // debug, info, warn or error
}

// loadConfig resolves configuration. The config file is optional; a
// missing file is not an error, a malformed one is.
func loadConfig(v *viper.Viper, cfgFile string) (*config, error) {
	v.SetEnvPrefix("GITHUBAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so bind each one
	// explicitly instead of relying on AutomaticEnv alone.
	for _, key := range []string{"app_id", "private_key", "api_url", "log_level"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	v.SetDefault("api_url", "https://api.github.com/")
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("githubauth")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks that required fields are present.
func (c *config) validate() error {
	var err error
	if c.AppID == "" {
		err = errors.Join(err, errors.New("app id is required"))
	}
	if c.PrivateKey == "" {
		err = errors.Join(err, errors.New("private key path is required"))
	}
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
