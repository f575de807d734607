// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package config loads scoring configuration from a file and the environment.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/OpenPSG/slowwave"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// N3SCORE_SCORING_EPOCH_SECONDS.
const EnvPrefix = "N3SCORE"

// Config represents the complete application configuration
type Config struct {
	Scoring ScoringConfig `mapstructure:"scoring"`
	Input   InputConfig   `mapstructure:"input"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ScoringConfig holds the slow-wave detector tunables
type ScoringConfig struct {
	EpochSeconds    float64 `mapstructure:"epoch_seconds"`
	N3Threshold     float64 `mapstructure:"n3_threshold"`
	SNRThreshold    float64 `mapstructure:"snr_threshold"`
	AmplitudeUV     float64 `mapstructure:"amplitude_uv"`
	MinWaveSeconds  float64 `mapstructure:"min_wave_seconds"`
	MaxWaveSeconds  float64 `mapstructure:"max_wave_seconds"`
	PassbandLowHz   float64 `mapstructure:"passband_low_hz"`
	PassbandHighHz  float64 `mapstructure:"passband_high_hz"`
	Taps            int     `mapstructure:"taps"`
	DeriveTaps      bool    `mapstructure:"derive_taps"`
	Workers         int     `mapstructure:"workers"`
	ContinueOnError bool    `mapstructure:"continue_on_error"`
	MaxSamples      int     `mapstructure:"max_samples"`
}

// InputConfig selects the channel to score
type InputConfig struct {
	Channel string `mapstructure:"channel"`
}

// OutputConfig holds report settings
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"` // Empty or "-" writes to stdout
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scoring.epoch_seconds", slowwave.DefaultEpochSeconds)
	v.SetDefault("scoring.n3_threshold", slowwave.DefaultN3Threshold)
	v.SetDefault("scoring.snr_threshold", slowwave.DefaultSNRThreshold)
	v.SetDefault("scoring.amplitude_uv", slowwave.DefaultAmplitudeThreshold)
	v.SetDefault("scoring.min_wave_seconds", slowwave.DefaultMinWaveSeconds)
	v.SetDefault("scoring.max_wave_seconds", slowwave.DefaultMaxWaveSeconds)
	v.SetDefault("scoring.passband_low_hz", slowwave.DefaultPassbandLow)
	v.SetDefault("scoring.passband_high_hz", slowwave.DefaultPassbandHigh)
	v.SetDefault("scoring.taps", slowwave.DefaultTaps)
	v.SetDefault("scoring.derive_taps", false)
	v.SetDefault("scoring.workers", runtime.GOMAXPROCS(0))
	v.SetDefault("scoring.continue_on_error", false)
	v.SetDefault("scoring.max_samples", slowwave.DefaultMaxSamples)

	v.SetDefault("input.channel", "")

	v.SetDefault("output.format", "json")
	v.SetDefault("output.path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	s := c.Scoring
	if s.EpochSeconds <= 0 {
		return fmt.Errorf("scoring.epoch_seconds must be positive")
	}
	if s.N3Threshold < 0 || s.N3Threshold > 100 {
		return fmt.Errorf("scoring.n3_threshold must be between 0 and 100")
	}
	if s.SNRThreshold < 0 {
		return fmt.Errorf("scoring.snr_threshold must not be negative")
	}
	if s.AmplitudeUV < 0 {
		return fmt.Errorf("scoring.amplitude_uv must not be negative")
	}
	if s.MinWaveSeconds < 0 || s.MaxWaveSeconds < s.MinWaveSeconds {
		return fmt.Errorf("scoring.min_wave_seconds must be between 0 and scoring.max_wave_seconds")
	}
	if s.PassbandLowHz <= 0 || s.PassbandHighHz <= s.PassbandLowHz {
		return fmt.Errorf("scoring.passband_low_hz must be positive and below scoring.passband_high_hz")
	}
	if !s.DeriveTaps && s.Taps < 3 {
		return fmt.Errorf("scoring.taps must be at least 3")
	}
	if s.Workers < 1 {
		return fmt.Errorf("scoring.workers must be at least 1")
	}
	if s.MaxSamples < 1 {
		return fmt.Errorf("scoring.max_samples must be at least 1")
	}

	validFormats := map[string]bool{"json": true, "csv": true, "xlsx": true}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("output.format must be one of: json, csv, xlsx")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// ScoringOptions converts the scoring section into scorer options.
func (c *Config) ScoringOptions() []slowwave.Option {
	s := c.Scoring
	opts := []slowwave.Option{
		slowwave.WithEpochSeconds(s.EpochSeconds),
		slowwave.WithN3Threshold(s.N3Threshold),
		slowwave.WithSNRThreshold(s.SNRThreshold),
		slowwave.WithAmplitudeThreshold(s.AmplitudeUV),
		slowwave.WithDurationBand(s.MinWaveSeconds, s.MaxWaveSeconds),
		slowwave.WithPassband(s.PassbandLowHz, s.PassbandHighHz),
		slowwave.WithTaps(s.Taps),
		slowwave.WithWorkers(s.Workers),
		slowwave.WithMaxSamples(s.MaxSamples),
	}
	if s.DeriveTaps {
		opts = append(opts, slowwave.WithDerivedTaps())
	}
	if s.ContinueOnError {
		opts = append(opts, slowwave.WithContinueOnError())
	}
	return opts
}
