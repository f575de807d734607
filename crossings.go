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
	"gonum.org/v1/gonum/floats"
)

// ZeroCrossings returns every index i where the sign of the signal differs
// between i and i+1. An exact zero has its own sign, so touching zero also
// counts as a transition.
func ZeroCrossings(filtered []float64) []int {
	var crossings []int
	for i := 0; i+1 < len(filtered); i++ {
		if sign(filtered[i]) != sign(filtered[i+1]) {
			crossings = append(crossings, i)
		}
	}
	return crossings
}

// Candidate is a possible slow wave spanning filtered[Start:End], one full
// oscillation between two zero-crossings two apart.
type Candidate struct {
	Start       int     // Index of the opening zero-crossing
	End         int     // Index of the closing zero-crossing (exclusive)
	PeakToPeak  float64 // Max minus min within the window, µV
	Duration    float64 // (End-Start)/fs, seconds
	HasPositive bool    // At least one strictly positive sample
	HasNegative bool    // At least one strictly negative sample
}

// NewCandidate measures the window filtered[start:end]. The window must not be
// empty.
func NewCandidate(filtered []float64, start, end int, fs float64) Candidate {
	w := filtered[start:end]

	c := Candidate{
		Start:      start,
		End:        end,
		PeakToPeak: floats.Max(w) - floats.Min(w),
		Duration:   float64(end-start) / fs,
	}
	for _, v := range w {
		if v > 0 {
			c.HasPositive = true
		} else if v < 0 {
			c.HasNegative = true
		}
		if c.HasPositive && c.HasNegative {
			break
		}
	}
	return c
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
