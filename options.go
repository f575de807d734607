// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package slowwave

import (
	"fmt"
	"log/slog"
	"runtime"
)

const (
	DefaultEpochSeconds       = 30.0
	DefaultN3Threshold        = 20.0 // Percent of the epoch
	DefaultSNRThreshold       = 5.0  // Empirical, not clinically derived
	DefaultAmplitudeThreshold = 75.0 // µV peak-to-peak
	DefaultMinWaveSeconds     = 0.5
	DefaultMaxWaveSeconds     = 2.0
	DefaultPassbandLow        = 0.5 // Hz
	DefaultPassbandHigh       = 2.0 // Hz
	DefaultTaps               = 366

	// DefaultMaxSamples bounds a recording to 7 days at 512 Hz.
	DefaultMaxSamples = 7 * 24 * 60 * 60 * 512
)

// Option configures epoch and recording scoring.
type Option func(*settings)

type settings struct {
	epochSeconds    float64
	n3Threshold     float64
	snrThreshold    float64
	criteria        Criteria
	passLow         float64
	passHigh        float64
	taps            int
	deriveTaps      bool
	workers         int
	continueOnError bool
	maxSamples      int
	logger          *slog.Logger
}

func newSettings(opts []Option) settings {
	s := settings{
		epochSeconds: DefaultEpochSeconds,
		n3Threshold:  DefaultN3Threshold,
		snrThreshold: DefaultSNRThreshold,
		criteria:     DefaultCriteria(),
		passLow:      DefaultPassbandLow,
		passHigh:     DefaultPassbandHigh,
		taps:         DefaultTaps,
		workers:      runtime.GOMAXPROCS(0),
		maxSamples:   DefaultMaxSamples,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) validate() error {
	switch {
	case s.epochSeconds <= 0:
		return fmt.Errorf("%w: epoch duration must be positive", ErrInvalidInput)
	case s.n3Threshold < 0 || s.n3Threshold > 100:
		return fmt.Errorf("%w: N3 threshold must be between 0 and 100", ErrInvalidInput)
	case s.snrThreshold < 0:
		return fmt.Errorf("%w: SNR threshold must not be negative", ErrInvalidInput)
	case s.criteria.MinPeakToPeak < 0:
		return fmt.Errorf("%w: amplitude threshold must not be negative", ErrInvalidInput)
	case s.criteria.MinDuration < 0 || s.criteria.MaxDuration < s.criteria.MinDuration:
		return fmt.Errorf("%w: invalid slow-wave duration band [%g, %g]", ErrInvalidInput, s.criteria.MinDuration, s.criteria.MaxDuration)
	case s.passLow <= 0 || s.passHigh <= s.passLow:
		return fmt.Errorf("%w: invalid passband [%g, %g] Hz", ErrInvalidInput, s.passLow, s.passHigh)
	case !s.deriveTaps && s.taps < 3:
		return fmt.Errorf("%w: filter needs at least 3 taps, got %d", ErrInvalidInput, s.taps)
	case s.workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidInput)
	case s.maxSamples < 1:
		return fmt.Errorf("%w: max samples must be at least 1", ErrInvalidInput)
	}
	return nil
}

// WithEpochSeconds sets the epoch duration (default 30s).
func WithEpochSeconds(seconds float64) Option {
	return func(s *settings) { s.epochSeconds = seconds }
}

// WithN3Threshold sets the slow-wave percentage at or above which an epoch is
// scored N3 (default 20%).
func WithN3Threshold(percent float64) Option {
	return func(s *settings) { s.n3Threshold = percent }
}

// WithSNRThreshold sets the minimum signal to noise ratio of the quality gate.
func WithSNRThreshold(snr float64) Option {
	return func(s *settings) { s.snrThreshold = snr }
}

// WithAmplitudeThreshold sets the minimum slow-wave peak-to-peak amplitude in µV.
func WithAmplitudeThreshold(uV float64) Option {
	return func(s *settings) { s.criteria.MinPeakToPeak = uV }
}

// WithDurationBand sets the accepted slow-wave duration range in seconds.
func WithDurationBand(minSeconds, maxSeconds float64) Option {
	return func(s *settings) {
		s.criteria.MinDuration = minSeconds
		s.criteria.MaxDuration = maxSeconds
	}
}

// WithPassband sets the band-pass filter edges in Hz.
func WithPassband(lowHz, highHz float64) Option {
	return func(s *settings) {
		s.passLow = lowHz
		s.passHigh = highHz
	}
}

// WithTaps sets a fixed filter length.
func WithTaps(taps int) Option {
	return func(s *settings) {
		s.taps = taps
		s.deriveTaps = false
	}
}

// WithDerivedTaps derives the filter length from the sampling rate instead of
// using a fixed tap count. See HarrisTaps.
func WithDerivedTaps() Option {
	return func(s *settings) { s.deriveTaps = true }
}

// WithWorkers bounds the number of epochs scored concurrently.
func WithWorkers(n int) Option {
	return func(s *settings) { s.workers = n }
}

// WithContinueOnError records per-epoch failures in the results instead of
// aborting the whole recording.
func WithContinueOnError() Option {
	return func(s *settings) { s.continueOnError = true }
}

// WithMaxSamples bounds the length of a recording.
func WithMaxSamples(n int) Option {
	return func(s *settings) { s.maxSamples = n }
}

// WithLogger sets the logger used for per-epoch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}
