// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package slowwave

// Criteria are the amplitude and duration limits a candidate must meet to
// count as a slow wave.
type Criteria struct {
	MinPeakToPeak float64 // µV
	MinDuration   float64 // Seconds, inclusive
	MaxDuration   float64 // Seconds, inclusive
}

// DefaultCriteria returns the AASM slow-wave criteria: at least 75 µV
// peak-to-peak and between 0.5 and 2 seconds long.
func DefaultCriteria() Criteria {
	return Criteria{
		MinPeakToPeak: DefaultAmplitudeThreshold,
		MinDuration:   DefaultMinWaveSeconds,
		MaxDuration:   DefaultMaxWaveSeconds,
	}
}

// Valid reports whether the candidate is tall enough, has a slow-wave
// duration and swings both above and below zero.
func (c Criteria) Valid(cand Candidate) bool {
	tall := cand.PeakToPeak >= c.MinPeakToPeak
	slow := cand.Duration >= c.MinDuration && cand.Duration <= c.MaxDuration
	return tall && slow && cand.HasPositive && cand.HasNegative
}

// Detection is the slow-wave content found in an epoch.
type Detection struct {
	Seconds    float64 // Total duration of valid slow waves
	Waves      int     // Number of valid slow waves
	Candidates int     // Number of candidate windows evaluated
}

// AccumulateSlowWaves scans the candidate windows delimited by crossings and
// sums the duration of the valid ones. A valid wave consumes both of its
// crossings; after a rejection the scan retries one crossing later.
func AccumulateSlowWaves(filtered []float64, crossings []int, fs float64, c Criteria) Detection {
	var d Detection

	i := 0
	for i < len(crossings)-2 {
		start, end := crossings[i], crossings[i+2]
		if end-start < 2 {
			i++
			continue
		}

		cand := NewCandidate(filtered, start, end, fs)
		d.Candidates++

		if c.Valid(cand) {
			d.Seconds += cand.Duration
			d.Waves++
			i += 2
		} else {
			i++
		}
	}

	return d
}
