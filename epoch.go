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
	"sync"
)

// EpochScore is the detailed outcome of scoring one epoch.
type EpochScore struct {
	SWAPercent float64   // Percentage of the epoch occupied by slow waves
	Usable     bool      // False if the epoch failed the quality gate
	Detection  Detection // Slow waves found, zero if unusable
}

// Scorer scores epochs sampled at a fixed rate. The filter is designed on
// first use and shared read-only afterwards, so a Scorer is safe for
// concurrent use.
type Scorer struct {
	fs     float64
	cfg    settings
	design func() ([]float64, error)
}

// NewScorer creates a scorer for signals sampled at fs Hz.
func NewScorer(fs float64, opts ...Option) (*Scorer, error) {
	if fs <= 0 {
		return nil, fmt.Errorf("%w: sampling rate must be positive, got %g", ErrInvalidInput, fs)
	}
	cfg := newSettings(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.passHigh >= fs/2 {
		return nil, fmt.Errorf("%w: passband edge %g Hz is not below the Nyquist frequency of %g Hz", ErrInvalidInput, cfg.passHigh, fs/2)
	}

	return &Scorer{
		fs:  fs,
		cfg: cfg,
		design: sync.OnceValues(func() ([]float64, error) {
			return designFor(cfg, fs)
		}),
	}, nil
}

// Score computes the slow-wave percentage of a single epoch. Epochs that fail
// the quality gate score 0 without being filtered.
func (s *Scorer) Score(epoch []float64) (EpochScore, error) {
	if len(epoch) == 0 {
		return EpochScore{}, fmt.Errorf("%w: empty epoch", ErrInvalidInput)
	}

	if !isUsable(epoch, s.cfg.snrThreshold) {
		return EpochScore{}, nil
	}

	taps, err := s.design()
	if err != nil {
		return EpochScore{}, err
	}

	filtered, err := filtfilt(taps, epoch)
	if err != nil {
		return EpochScore{}, err
	}

	det := AccumulateSlowWaves(filtered, ZeroCrossings(filtered), s.fs, s.cfg.criteria)

	return EpochScore{
		SWAPercent: det.Seconds / s.cfg.epochSeconds * 100,
		Usable:     true,
		Detection:  det,
	}, nil
}

// Stage assigns a stage to a slow-wave percentage using the configured N3
// threshold.
func (s *Scorer) Stage(swaPercent float64) Stage {
	return StageFor(swaPercent, s.cfg.n3Threshold)
}

// ScoreEpoch returns the percentage of an epoch occupied by slow waves. The
// result is not clamped to 100.
func ScoreEpoch(epoch []float64, fs float64, opts ...Option) (float64, error) {
	s, err := NewScorer(fs, opts...)
	if err != nil {
		return 0, err
	}

	score, err := s.Score(epoch)
	if err != nil {
		return 0, err
	}
	return score.SWAPercent, nil
}
