// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package slowwave scores 30 second EEG epochs as N3 (deep sleep) by
// measuring how much of each epoch is occupied by 0.5-2 Hz slow waves of at
// least 75 µV peak-to-peak, following the AASM scoring convention.
package slowwave

import (
	"errors"
	"fmt"
)

// Stage is the sleep stage assigned to an epoch.
type Stage string

const (
	StageN3    Stage = "N3"
	StageNotN3 Stage = "Not N3"
)

var (
	// ErrInvalidInput is returned for a non-positive sampling rate, an empty
	// signal or an inconsistent set of options.
	ErrInvalidInput = errors.New("invalid input")
	// ErrFilterInstability is returned when an epoch is too short for the
	// band-pass filter (fewer than 3x the tap count samples). It also
	// matches ErrInvalidInput.
	ErrFilterInstability = fmt.Errorf("%w: epoch too short for band-pass filter", ErrInvalidInput)
)

// EpochResult is the outcome of scoring a single epoch of a recording.
type EpochResult struct {
	Epoch      int     `json:"epoch"`       // Zero-based epoch index
	Stage      Stage   `json:"stage"`       // N3 or Not N3
	SWAPercent float64 `json:"swa_percent"` // Percentage of the epoch occupied by slow waves
	Usable     bool    `json:"usable"`      // False if the epoch failed the signal quality gate
	Err        error   `json:"-"`           // Scoring error, only set when continuing on error
}

// EpochError ties a scoring failure to the epoch that caused it.
type EpochError struct {
	Epoch int
	Err   error
}

func (e *EpochError) Error() string {
	return fmt.Sprintf("epoch %d: %v", e.Epoch, e.Err)
}

func (e *EpochError) Unwrap() error {
	return e.Err
}

// StageFor assigns a stage from a slow-wave percentage. The threshold is
// inclusive.
func StageFor(swaPercent, threshold float64) Stage {
	if swaPercent >= threshold {
		return StageN3
	}
	return StageNotN3
}
