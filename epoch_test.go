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
	"testing"

	"github.com/OpenPSG/slowwave"
	"github.com/OpenPSG/slowwave/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreEpochSlowSine(t *testing.T) {
	swa, err := slowwave.ScoreEpoch(synth.Sine(100, 30, 1, 100), 100)
	require.NoError(t, err)

	// 29 full cycles fit between the first and last zero-crossing.
	assert.InDelta(t, 96.67, swa, 0.5)
	assert.Equal(t, slowwave.StageN3, slowwave.StageFor(swa, slowwave.DefaultN3Threshold))
}

func TestScoreEpochFastSine(t *testing.T) {
	swa, err := slowwave.ScoreEpoch(synth.Sine(100, 30, 10, 50), 100)
	require.NoError(t, err)
	assert.Zero(t, swa)

	// Even past the quality gate nothing survives the filter.
	swa, err = slowwave.ScoreEpoch(synth.Sine(100, 30, 10, 50), 100, slowwave.WithSNRThreshold(0))
	require.NoError(t, err)
	assert.Zero(t, swa)
}

func TestScoreEpochFlat(t *testing.T) {
	swa, err := slowwave.ScoreEpoch(synth.Constant(3000, 0), 100)
	require.NoError(t, err)
	assert.Equal(t, 0.0, swa)
	assert.Equal(t, slowwave.StageNotN3, slowwave.StageFor(swa, slowwave.DefaultN3Threshold))
}

func TestScoreEpochSkipsFilterForUnusableSignals(t *testing.T) {
	// Far too short to filter, so any error here would mean the filter ran.
	swa, err := slowwave.ScoreEpoch([]float64{12.5}, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.0, swa)

	swa, err = slowwave.ScoreEpoch(synth.Constant(10, 0), 100)
	require.NoError(t, err)
	assert.Equal(t, 0.0, swa)
}

func TestScoreEpochSmallWaves(t *testing.T) {
	swa, err := slowwave.ScoreEpoch(synth.Sine(100, 30, 1, 30), 100)
	require.NoError(t, err)
	assert.Zero(t, swa)

	swa, err = slowwave.ScoreEpoch(synth.Sine(100, 30, 1, 30), 100, slowwave.WithAmplitudeThreshold(50))
	require.NoError(t, err)
	assert.Greater(t, swa, 90.0)
}

func TestScoreEpochPartialSlowWaves(t *testing.T) {
	tests := []struct {
		name       string
		slowSecs   float64
		wantStage  slowwave.Stage
		wantSWA    float64
		swaEpsilon float64
	}{
		{"3s of slow waves", 3, slowwave.StageNotN3, 10, 1},
		{"9s of slow waves", 9, slowwave.StageN3, 30, 1},
		{"12s of slow waves", 12, slowwave.StageN3, 40, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			epoch := synth.Concat(
				synth.Sine(100, tt.slowSecs, 1, 100),
				synth.Sine(100, 30-tt.slowSecs, 1, 20),
			)

			swa, err := slowwave.ScoreEpoch(epoch, 100)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantSWA, swa, tt.swaEpsilon)
			assert.Equal(t, tt.wantStage, slowwave.StageFor(swa, slowwave.DefaultN3Threshold))
		})
	}
}

func TestScoreEpochInvalidInput(t *testing.T) {
	_, err := slowwave.ScoreEpoch(nil, 100)
	require.ErrorIs(t, err, slowwave.ErrInvalidInput)

	_, err = slowwave.ScoreEpoch(synth.Constant(3000, 0), 0)
	require.ErrorIs(t, err, slowwave.ErrInvalidInput)

	_, err = slowwave.ScoreEpoch(synth.Constant(3000, 0), -100)
	require.ErrorIs(t, err, slowwave.ErrInvalidInput)

	_, err = slowwave.ScoreEpoch(synth.Sine(100, 30, 1, 100), 100, slowwave.WithEpochSeconds(0))
	require.ErrorIs(t, err, slowwave.ErrInvalidInput)

	_, err = slowwave.ScoreEpoch(synth.Sine(100, 30, 1, 100), 100, slowwave.WithDurationBand(2, 1))
	require.ErrorIs(t, err, slowwave.ErrInvalidInput)
}

func TestScoreEpochFilterInstability(t *testing.T) {
	_, err := slowwave.ScoreEpoch(synth.Sine(100, 10, 1, 100), 100, slowwave.WithEpochSeconds(10))
	require.ErrorIs(t, err, slowwave.ErrFilterInstability)
}

func TestScoreEpochIdempotent(t *testing.T) {
	epoch := synth.Add(synth.Sine(100, 30, 1, 100), synth.Noise(3, 3000, 5))

	first, err := slowwave.ScoreEpoch(epoch, 100)
	require.NoError(t, err)
	second, err := slowwave.ScoreEpoch(epoch, 100)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScoreEpochNotClamped(t *testing.T) {
	// A signal twice as long as the declared epoch holds twice the slow waves.
	swa, err := slowwave.ScoreEpoch(synth.Sine(100, 60, 1, 100), 100)
	require.NoError(t, err)
	assert.Greater(t, swa, 100.0)
}

func TestScorer(t *testing.T) {
	s, err := slowwave.NewScorer(100, slowwave.WithN3Threshold(50))
	require.NoError(t, err)

	score, err := s.Score(synth.Sine(100, 30, 1, 100))
	require.NoError(t, err)
	assert.True(t, score.Usable)
	assert.Equal(t, 29, score.Detection.Waves)
	assert.InDelta(t, 29.0, score.Detection.Seconds, 0.2)
	assert.Equal(t, slowwave.StageN3, s.Stage(score.SWAPercent))
	assert.Equal(t, slowwave.StageNotN3, s.Stage(49.99))

	score, err = s.Score(synth.Constant(3000, 0))
	require.NoError(t, err)
	assert.False(t, score.Usable)
	assert.Zero(t, score.SWAPercent)
}

func TestStageFor(t *testing.T) {
	assert.Equal(t, slowwave.StageN3, slowwave.StageFor(20.0, 20.0))
	assert.Equal(t, slowwave.StageNotN3, slowwave.StageFor(19.999999, 20.0))
	assert.Equal(t, slowwave.StageN3, slowwave.StageFor(100, 20.0))
	assert.Equal(t, slowwave.StageNotN3, slowwave.StageFor(0, 20.0))
}
