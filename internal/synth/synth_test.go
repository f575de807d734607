// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package synth_test

import (
	"testing"

	"github.com/OpenPSG/slowwave/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSine(t *testing.T) {
	s := synth.Sine(100, 2, 1, 50)
	require.Len(t, s, 200)

	assert.InDelta(t, 0, s[0], 1e-9)
	assert.InDelta(t, 50, s[25], 1e-9)
	assert.InDelta(t, -50, s[75], 1e-9)
}

func TestNoiseDeterministic(t *testing.T) {
	a := synth.Noise(7, 100, 1)
	b := synth.Noise(7, 100, 1)
	c := synth.Noise(8, 100, 1)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestAddAndConcat(t *testing.T) {
	sum := synth.Add([]float64{1, 2, 3}, []float64{10, 20})
	assert.Equal(t, []float64{11, 22}, sum)

	joined := synth.Concat([]float64{1}, nil, []float64{2, 3})
	assert.Equal(t, []float64{1, 2, 3}, joined)
}

func TestParsePatterns(t *testing.T) {
	patterns, err := synth.ParsePatterns("n3, Wake,flat")
	require.NoError(t, err)
	assert.Equal(t, []synth.Pattern{synth.PatternN3, synth.PatternWake, synth.PatternFlat}, patterns)

	_, err = synth.ParsePatterns("n3,rem")
	require.Error(t, err)

	_, err = synth.ParsePatterns(" , ")
	require.Error(t, err)
}

func TestRecording(t *testing.T) {
	rec := synth.Recording(100, 30, []synth.Pattern{synth.PatternN3, synth.PatternFlat}, 1)
	require.Len(t, rec, 6000)

	for _, v := range rec[3000:] {
		require.Zero(t, v)
	}
	assert.InDelta(t, 100, rec[25], 1e-9)
}
