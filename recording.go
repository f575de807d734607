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
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"
)

// SamplesPerEpoch returns the number of samples in one epoch. A fractional
// sampling rate is truncated first.
func SamplesPerEpoch(fs, epochSeconds float64) int {
	return int(epochSeconds * math.Trunc(fs))
}

// ScoreRecording splits a recording into consecutive non-overlapping epochs
// and scores each of them. Trailing samples that do not fill an epoch are
// ignored. Results are returned in epoch order.
//
// By default the first failing epoch aborts scoring. With
// WithContinueOnError the failure is recorded in that epoch's result instead.
func ScoreRecording(ctx context.Context, signal []float64, fs float64, opts ...Option) ([]EpochResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("%w: empty signal", ErrInvalidInput)
	}

	scorer, err := NewScorer(fs, opts...)
	if err != nil {
		return nil, err
	}
	cfg := scorer.cfg

	if len(signal) > cfg.maxSamples {
		return nil, fmt.Errorf("%w: recording has %d samples, limit is %d", ErrInvalidInput, len(signal), cfg.maxSamples)
	}

	perEpoch := SamplesPerEpoch(fs, cfg.epochSeconds)
	if perEpoch < 1 {
		return nil, fmt.Errorf("%w: %gs epochs at %g Hz contain no samples", ErrInvalidInput, cfg.epochSeconds, fs)
	}

	numEpochs := len(signal) / perEpoch
	results := make([]EpochResult, numEpochs)

	cfg.logger.Debug("Scoring recording",
		slog.Int("samples", len(signal)),
		slog.Float64("fs", fs),
		slog.Int("epochs", numEpochs),
		slog.Int("dropped", len(signal)-numEpochs*perEpoch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)

	for i := 0; i < numEpochs; i++ {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			epoch := signal[i*perEpoch : (i+1)*perEpoch]
			score, err := scorer.Score(epoch)
			if err != nil {
				if !cfg.continueOnError {
					return &EpochError{Epoch: i, Err: err}
				}
				cfg.logger.Warn("Failed to score epoch", slog.Int("epoch", i), slog.Any("error", err))
				results[i] = EpochResult{Epoch: i, Stage: StageNotN3, Err: &EpochError{Epoch: i, Err: err}}
				return nil
			}

			results[i] = EpochResult{
				Epoch:      i,
				Stage:      scorer.Stage(score.SWAPercent),
				SWAPercent: score.SWAPercent,
				Usable:     score.Usable,
			}

			cfg.logger.Debug("Scored epoch",
				slog.Int("epoch", i),
				slog.String("stage", string(results[i].Stage)),
				slog.Float64("swa_percent", score.SWAPercent),
				slog.Bool("usable", score.Usable),
				slog.Int("waves", score.Detection.Waves))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
