// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package synth builds deterministic synthetic EEG-like signals.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

// Sine returns seconds*fs samples of amplitude*sin(2π·freq·t).
func Sine(fs, seconds, freqHz, amplitude float64) []float64 {
	n := int(seconds * fs)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / fs
		out[i] = amplitude * math.Sin(2*math.Pi*freqHz*t)
	}
	return out
}

// Constant returns n samples of value v.
func Constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Noise returns n samples of zero mean gaussian noise. The same seed always
// produces the same samples.
func Noise(seed uint64, n int, sigma float64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}

// Add sums signals sample by sample. The result is as long as the shortest
// input.
func Add(signals ...[]float64) []float64 {
	if len(signals) == 0 {
		return nil
	}
	n := len(signals[0])
	for _, s := range signals[1:] {
		n = min(n, len(s))
	}
	out := make([]float64, n)
	for _, s := range signals {
		for i := range out {
			out[i] += s[i]
		}
	}
	return out
}

// Concat joins signals end to end.
func Concat(signals ...[]float64) []float64 {
	var n int
	for _, s := range signals {
		n += len(s)
	}
	out := make([]float64, 0, n)
	for _, s := range signals {
		out = append(out, s...)
	}
	return out
}

// Pattern names a kind of synthetic epoch.
type Pattern string

const (
	// PatternN3 is a 1 Hz, 100 µV sine: every cycle is a slow wave.
	PatternN3 Pattern = "n3"
	// PatternWake is a 10 Hz, 20 µV sine with a little noise.
	PatternWake Pattern = "wake"
	// PatternFlat is a flat line.
	PatternFlat Pattern = "flat"
)

// ParsePatterns parses a comma separated list of pattern names.
func ParsePatterns(s string) ([]Pattern, error) {
	var patterns []Pattern
	for _, name := range strings.Split(s, ",") {
		p := Pattern(strings.ToLower(strings.TrimSpace(name)))
		switch p {
		case PatternN3, PatternWake, PatternFlat:
			patterns = append(patterns, p)
		case "":
		default:
			return nil, fmt.Errorf("unknown pattern %q", name)
		}
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no patterns given")
	}
	return patterns, nil
}

// Recording builds one epoch per pattern, in order.
func Recording(fs, epochSeconds float64, patterns []Pattern, seed uint64) []float64 {
	epochs := make([][]float64, 0, len(patterns))
	for i, p := range patterns {
		switch p {
		case PatternN3:
			epochs = append(epochs, Sine(fs, epochSeconds, 1, 100))
		case PatternWake:
			n := int(epochSeconds * fs)
			epochs = append(epochs, Add(Sine(fs, epochSeconds, 10, 20), Noise(seed+uint64(i), n, 2)))
		default:
			epochs = append(epochs, Constant(int(epochSeconds*fs), 0))
		}
	}
	return Concat(epochs...)
}
