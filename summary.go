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
	"github.com/montanaflynn/stats"
)

// Summary aggregates the epoch results of a recording.
type Summary struct {
	Epochs         int     `json:"epochs"`
	N3Epochs       int     `json:"n3_epochs"`
	UnusableEpochs int     `json:"unusable_epochs"` // Rejected by the quality gate
	FailedEpochs   int     `json:"failed_epochs"`   // Could not be scored
	N3Minutes      float64 `json:"n3_minutes"`
	MeanSWA        float64 `json:"mean_swa_percent"`
	MedianSWA      float64 `json:"median_swa_percent"`
	P90SWA         float64 `json:"p90_swa_percent"`
	MaxSWA         float64 `json:"max_swa_percent"`
}

// Summarize computes recording level statistics. Failed epochs are counted
// but left out of the SWA statistics.
func Summarize(results []EpochResult, epochSeconds float64) Summary {
	s := Summary{Epochs: len(results)}

	swa := make(stats.Float64Data, 0, len(results))
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.FailedEpochs++
			continue
		case !r.Usable:
			s.UnusableEpochs++
		}
		if r.Stage == StageN3 {
			s.N3Epochs++
		}
		swa = append(swa, r.SWAPercent)
	}
	s.N3Minutes = float64(s.N3Epochs) * epochSeconds / 60

	if len(swa) == 0 {
		return s
	}

	// Errors are only returned for empty input.
	s.MeanSWA, _ = stats.Mean(swa)
	s.MedianSWA, _ = stats.Median(swa)
	s.P90SWA, _ = stats.Percentile(swa, 90)
	s.MaxSWA, _ = stats.Max(swa)

	return s
}
