// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package slowwave_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/OpenPSG/slowwave"
	"github.com/OpenPSG/slowwave/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func magnitude(h []float64, freq, fs float64) float64 {
	var sum complex128
	for i, v := range h {
		sum += complex(v, 0) * cmplx.Exp(complex(0, -2*math.Pi*freq/fs*float64(i)))
	}
	return cmplx.Abs(sum)
}

func TestDesignBandpass(t *testing.T) {
	h, err := slowwave.DesignBandpass(366, 0.5, 2.0, 100)
	require.NoError(t, err)
	require.Len(t, h, 366)

	// Linear phase.
	for i := range h {
		require.InDelta(t, h[i], h[len(h)-1-i], 1e-12)
	}

	assert.InDelta(t, 0, magnitude(h, 0, 100), 0.01)
	assert.InDelta(t, 1, magnitude(h, 1.25, 100), 1e-6)
	assert.InDelta(t, 1, magnitude(h, 1, 100), 0.01)
	assert.InDelta(t, 0.5, magnitude(h, 0.5, 100), 0.05)
	assert.Less(t, magnitude(h, 5, 100), 0.01)
	assert.Less(t, magnitude(h, 10, 100), 0.01)
}

func TestDesignBandpassInvalid(t *testing.T) {
	tests := []struct {
		name      string
		taps      int
		low, high float64
		fs        float64
	}{
		{"too few taps", 2, 0.5, 2, 100},
		{"zero sample rate", 366, 0.5, 2, 0},
		{"zero low edge", 366, 0, 2, 100},
		{"inverted band", 366, 2, 0.5, 100},
		{"above nyquist", 366, 0.5, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := slowwave.DesignBandpass(tt.taps, tt.low, tt.high, tt.fs)
			require.ErrorIs(t, err, slowwave.ErrInvalidInput)
		})
	}
}

func TestHarrisTaps(t *testing.T) {
	assert.Equal(t, 364, slowwave.HarrisTaps(100, 0.5))
	assert.Equal(t, 932, slowwave.HarrisTaps(256, 0.5))
	assert.Zero(t, slowwave.HarrisTaps(500, 0.5)%2)
}

func TestBandlimitZeroPhase(t *testing.T) {
	x := synth.Sine(100, 30, 1, 100)

	y, err := slowwave.Bandlimit(x, 100)
	require.NoError(t, err)
	require.Len(t, y, len(x))

	// A 1 Hz wave sits in the passband, so it comes out unchanged and
	// unshifted.
	for i := 500; i < 2500; i++ {
		require.InDelta(t, x[i], y[i], 0.5, "sample %d", i)
	}

	// The input is left untouched.
	assert.Equal(t, synth.Sine(100, 30, 1, 100), x)
}

func TestBandlimitRejectsOutOfBand(t *testing.T) {
	x := synth.Sine(100, 30, 10, 50)

	y, err := slowwave.Bandlimit(x, 100)
	require.NoError(t, err)

	for i := 500; i < 2500; i++ {
		require.Less(t, math.Abs(y[i]), 1.0, "sample %d", i)
	}
}

func TestBandlimitDerivedTaps(t *testing.T) {
	x := synth.Sine(256, 30, 1, 100)

	y, err := slowwave.Bandlimit(x, 256, slowwave.WithDerivedTaps())
	require.NoError(t, err)
	require.Len(t, y, len(x))

	assert.InDelta(t, x[256*15+64], y[256*15+64], 0.5)
}

func TestBandlimitFilterInstability(t *testing.T) {
	// 366 taps need more than 1098 samples.
	_, err := slowwave.Bandlimit(synth.Sine(100, 10, 1, 100), 100)
	require.ErrorIs(t, err, slowwave.ErrFilterInstability)
	require.ErrorIs(t, err, slowwave.ErrInvalidInput)

	_, err = slowwave.Bandlimit(synth.Sine(100, 10, 1, 100), 100, slowwave.WithTaps(101))
	require.NoError(t, err)
}
