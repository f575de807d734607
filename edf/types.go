// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package edf loads single EEG channels from EDF/EDF+ recordings and writes
// simple EDF files.
package edf

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Version string

const (
	// Version0 represents the version of the EDF/EDF+ standard.
	Version0 Version = "0"
)

const (
	headerSize       = 256 // Fixed part of the header
	signalHeaderSize = 256 // Per signal part of the header
	maxRecordBytes   = 61440
)

var (
	ErrSignalNotFound = errors.New("signal not found")
	ErrNoSamples      = errors.New("signal has no samples")
	ErrInvalidHeader  = errors.New("invalid header")
)

// Header represents the EDF/EDF+ file header.
type Header struct {
	Version            Version       // Version of the EDF/EDF+ standard (usually "0")
	PatientID          string        // Identification of the patient
	RecordingID        string        // Identification of the recording session
	StartTime          time.Time     // Start date of the recording
	HeaderBytes        int           // Number of bytes in the header
	Reserved           string        // "EDF+C" or "EDF+D" for EDF+ files
	DataRecordDuration time.Duration // Duration of a single data record
	DataRecords        int           // Number of data records, -1 if unknown
	SignalCount        int           // Number of signals in each data record
	Signals            []Signal      // Details of each signal
}

// IsEDFPlus reports whether the file declares itself as EDF+.
func (h *Header) IsEDFPlus() bool {
	return strings.HasPrefix(h.Reserved, "EDF+")
}

// recordBytes returns the size of one data record.
func (h *Header) recordBytes() int {
	n := 0
	for _, s := range h.Signals {
		n += s.SamplesPerRecord * 2
	}
	return n
}

// check rejects header values that cannot describe a readable file.
func (h *Header) check() error {
	if want := headerSize + h.SignalCount*signalHeaderSize; h.HeaderBytes != want {
		return fmt.Errorf("%w: header size %d, expected %d for %d signals", ErrInvalidHeader, h.HeaderBytes, want, h.SignalCount)
	}
	if h.DataRecords < -1 {
		return fmt.Errorf("%w: data record count %d", ErrInvalidHeader, h.DataRecords)
	}
	if h.DataRecordDuration < 0 {
		return fmt.Errorf("%w: negative data record duration", ErrInvalidHeader)
	}
	for i, s := range h.Signals {
		if s.SamplesPerRecord < 0 {
			return fmt.Errorf("%w: signal %d has %d samples per record", ErrInvalidHeader, i, s.SamplesPerRecord)
		}
	}
	if n := h.recordBytes(); n > maxRecordBytes {
		return fmt.Errorf("%w: data record of %d bytes exceeds %d", ErrInvalidHeader, n, maxRecordBytes)
	}
	return nil
}

// Signal represents the characteristics of each signal in the EDF/EDF+ file.
type Signal struct {
	Label             string  // Label of the signal (e.g., EEG F4-M1)
	TransducerType    string  // Type of transducer used
	PhysicalDimension string  // Physical dimension (e.g., uV, mV)
	PhysicalMin       float64 // Minimum physical value
	PhysicalMax       float64 // Maximum physical value
	DigitalMin        int     // Minimum digital value
	DigitalMax        int     // Maximum digital value
	Prefiltering      string  // Pre-filtering information
	SamplesPerRecord  int     // Number of samples in each data record for this signal
	Reserved          string  // Reserved for future use
}

// SampleRate returns the sampling rate in Hz for records of the given
// duration.
func (s Signal) SampleRate(recordDuration time.Duration) float64 {
	if recordDuration <= 0 {
		return 0
	}
	return float64(s.SamplesPerRecord) / recordDuration.Seconds()
}

// Channel is a single signal loaded into memory as physical values.
type Channel struct {
	Label      string
	Unit       string // Unit of Samples, µV for voltage signals
	SampleRate float64
	Samples    []float64
}

// microvoltScale returns the factor that converts a physical dimension into
// microvolts, and false if the dimension is not a voltage.
func microvoltScale(dimension string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(dimension)) {
	case "uv", "µv", "μv":
		return 1, true
	case "mv":
		return 1e3, true
	case "v":
		return 1e6, true
	case "nv":
		return 1e-3, true
	}
	return 1, false
}
