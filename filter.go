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
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

const (
	// harrisAttenuation is the stopband attenuation (dB) used when deriving
	// the filter length from the sampling rate.
	harrisAttenuation = 40.0
)

// DesignBandpass designs a linear-phase FIR band-pass filter with the window
// method: an ideal band-pass impulse response tapered by a symmetric Hamming
// window and scaled to unity gain at the centre of the passband.
func DesignBandpass(taps int, low, high, fs float64) ([]float64, error) {
	if taps < 3 {
		return nil, fmt.Errorf("%w: filter needs at least 3 taps, got %d", ErrInvalidInput, taps)
	}
	if fs <= 0 {
		return nil, fmt.Errorf("%w: sampling rate must be positive", ErrInvalidInput)
	}
	nyquist := fs / 2
	if low <= 0 || high <= low || high >= nyquist {
		return nil, fmt.Errorf("%w: passband [%g, %g] Hz must lie within (0, %g) Hz", ErrInvalidInput, low, high, nyquist)
	}

	f1, f2 := low/nyquist, high/nyquist
	alpha := float64(taps-1) / 2

	h := make([]float64, taps)
	for i := range h {
		m := float64(i) - alpha
		h[i] = f2*sinc(f2*m) - f1*sinc(f1*m)
	}
	window.Hamming(h)

	centre := (f1 + f2) / 2
	var gain float64
	for i, v := range h {
		gain += v * math.Cos(math.Pi*(float64(i)-alpha)*centre)
	}
	floats.Scale(1/gain, h)

	return h, nil
}

// HarrisTaps estimates the filter length needed for a transition band of
// transitionHz at the given sampling rate, using Fred Harris' rule of thumb
// N = fs/Δf * atten/22. The result is rounded up to an even number.
func HarrisTaps(fs, transitionHz float64) int {
	n := int(math.Ceil(fs / transitionHz * harrisAttenuation / 22))
	if n%2 != 0 {
		n++
	}
	return n
}

// Bandlimit restricts a signal to the slow-wave band with zero phase shift.
// The output has the same length and alignment as the input.
func Bandlimit(signal []float64, fs float64, opts ...Option) ([]float64, error) {
	cfg := newSettings(opts)
	taps, err := designFor(cfg, fs)
	if err != nil {
		return nil, err
	}
	return filtfilt(taps, signal)
}

func designFor(cfg settings, fs float64) ([]float64, error) {
	n := cfg.taps
	if cfg.deriveTaps {
		if fs <= 0 {
			return nil, fmt.Errorf("%w: sampling rate must be positive", ErrInvalidInput)
		}
		n = HarrisTaps(fs, cfg.passLow)
	}
	return DesignBandpass(n, cfg.passLow, cfg.passHigh, fs)
}

// filtfilt runs the FIR filter b forwards and then backwards over x. The
// signal is extended at both ends by odd reflection of 3*len(b) samples and
// each pass starts in the steady state of its first sample.
func filtfilt(b, x []float64) ([]float64, error) {
	padlen := 3 * len(b)
	n := len(x)
	if n <= padlen {
		return nil, fmt.Errorf("%w: %d samples, need more than %d for %d taps", ErrFilterInstability, n, padlen, len(b))
	}

	ext := make([]float64, n+2*padlen)
	for i := 0; i < padlen; i++ {
		ext[i] = 2*x[0] - x[padlen-i]
		ext[padlen+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[padlen:], x)

	y := lfilter(b, ext)
	floats.Reverse(y)
	y = lfilter(b, y)
	floats.Reverse(y)

	out := make([]float64, n)
	copy(out, y[padlen:padlen+n])
	return out, nil
}

// lfilter applies the FIR filter b to x, treating every sample before the
// start of x as equal to x[0].
func lfilter(b, x []float64) []float64 {
	m := len(b)

	rb := make([]float64, m)
	copy(rb, b)
	floats.Reverse(rb)

	padded := make([]float64, m-1+len(x))
	for i := 0; i < m-1; i++ {
		padded[i] = x[0]
	}
	copy(padded[m-1:], x)

	y := make([]float64, len(x))
	for k := range y {
		y[k] = floats.Dot(rb, padded[k:k+m])
	}
	return y
}

// sinc is the normalised sinc function sin(πx)/(πx).
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}
