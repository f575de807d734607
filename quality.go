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
	"gonum.org/v1/gonum/stat"
)

// FlatPowerFloor is the minimum signal power accepted when the first
// difference of the signal has no variance at all.
const FlatPowerFloor = 0.1

// IsUsable reports whether an epoch is worth scoring. Flat, too short or
// noise dominated signals are rejected. Noise power is estimated as the
// variance of the first difference of the signal.
//
// The sampling rate does not affect the decision. A non-positive rate or an
// option set that NewScorer would reject makes every signal unusable.
func IsUsable(signal []float64, fs float64, opts ...Option) bool {
	cfg := newSettings(opts)
	if fs <= 0 || cfg.validate() != nil {
		return false
	}
	return isUsable(signal, cfg.snrThreshold)
}

func isUsable(signal []float64, snrThreshold float64) bool {
	if len(signal) < 2 {
		return false
	}

	flat := true
	for _, v := range signal {
		if v != 0 {
			flat = false
			break
		}
	}
	if flat {
		return false
	}

	diff := make([]float64, len(signal)-1)
	for i := range diff {
		diff[i] = signal[i+1] - signal[i]
	}

	signalPower := stat.PopVariance(signal, nil)
	noisePower := stat.PopVariance(diff, nil)
	if noisePower == 0 {
		return signalPower > FlatPowerFloor
	}

	return signalPower/noisePower > snrThreshold
}
