// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Writer writes EDF files.
type Writer struct {
	w           io.WriteSeeker
	hdr         *Header
	dataRecords int // Number of data records written so far.
}

// Create creates a new EDF writer that writes to the given writer.
func Create(w io.WriteSeeker, hdr Header) (*Writer, error) {
	if hdr.SignalCount != len(hdr.Signals) {
		return nil, fmt.Errorf("signal count %d does not match %d signal headers", hdr.SignalCount, len(hdr.Signals))
	}
	if hdr.DataRecordDuration <= 0 {
		return nil, fmt.Errorf("data record duration must be positive")
	}
	if hdr.Version == "" {
		hdr.Version = Version0
	}
	hdr.DataRecords = -1 // Unknown number of data records (at this time).

	ew := &Writer{w: w, hdr: &hdr}

	// Write the initial header
	if err := ew.writeHeader(); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	return ew, nil
}

// Close finalizes the EDF file by updating the header with the total number of data records.
func (ew *Writer) Close() error {
	ew.hdr.DataRecords = ew.dataRecords
	if err := ew.writeHeader(); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	return nil
}

// WriteRecord writes a single data record to the EDF file.
func (ew *Writer) WriteRecord(signals [][]float64) error {
	if len(signals) != ew.hdr.SignalCount {
		return fmt.Errorf("expected %d signals, got %d", ew.hdr.SignalCount, len(signals))
	}

	var totalSamples int
	for i, signal := range signals {
		if want := ew.hdr.Signals[i].SamplesPerRecord; len(signal) != want {
			return fmt.Errorf("signal %d: expected %d samples per record, got %d", i, want, len(signal))
		}
		totalSamples += len(signal)
	}

	// As recommended by the EDF standard.
	if totalSamples*2 > maxRecordBytes {
		return fmt.Errorf("data record too large: %d bytes, max is %d bytes", totalSamples*2, maxRecordBytes)
	}

	if _, err := ew.w.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	buf := make([]byte, totalSamples*2)
	off := 0
	for i, samples := range signals {
		signal := ew.hdr.Signals[i]
		for _, sample := range samples {
			digital := convertPhysicalToDigital(sample, signal.PhysicalMin, signal.PhysicalMax, signal.DigitalMin, signal.DigitalMax)
			binary.LittleEndian.PutUint16(buf[off:], uint16(digital))
			off += 2
		}
	}

	if _, err := ew.w.Write(buf); err != nil {
		return err
	}

	ew.dataRecords++
	return nil
}

// WriteChannel writes a complete single signal EDF file. The samples are
// split into records of hdr.Signals[0].SamplesPerRecord; a final partial
// record is padded with zeros.
func WriteChannel(w io.WriteSeeker, hdr Header, samples []float64) error {
	if len(hdr.Signals) != 1 {
		return fmt.Errorf("expected exactly one signal header, got %d", len(hdr.Signals))
	}
	hdr.SignalCount = 1

	per := hdr.Signals[0].SamplesPerRecord
	if per < 1 {
		return fmt.Errorf("samples per record must be at least 1")
	}

	ew, err := Create(w, hdr)
	if err != nil {
		return err
	}

	record := make([]float64, per)
	for start := 0; start < len(samples); start += per {
		n := copy(record, samples[start:])
		clear(record[n:])
		if err := ew.WriteRecord([][]float64{record}); err != nil {
			return fmt.Errorf("error writing record %d: %w", start/per, err)
		}
	}

	return ew.Close()
}

// writeHeader writes the EDF header at the start of the file.
func (ew *Writer) writeHeader() error {
	if _, err := ew.w.Seek(0, io.SeekStart); err != nil {
		return err
	}

	hdr := ew.hdr
	hdr.HeaderBytes = headerSize + hdr.SignalCount*signalHeaderSize

	var sb strings.Builder
	pad := func(s string, width int) {
		if len(s) > width {
			s = s[:width]
		}
		sb.WriteString(s)
		sb.WriteString(strings.Repeat(" ", width-len(s)))
	}

	pad(string(hdr.Version), 8)
	pad(hdr.PatientID, 80)
	pad(hdr.RecordingID, 80)
	pad(hdr.StartTime.Format("02.01.06"), 8)
	pad(hdr.StartTime.Format("15.04.05"), 8)
	pad(strconv.Itoa(hdr.HeaderBytes), 8)
	pad(hdr.Reserved, 44)
	pad(strconv.Itoa(hdr.DataRecords), 8)
	pad(formatNumber(hdr.DataRecordDuration.Seconds()), 8)
	pad(strconv.Itoa(hdr.SignalCount), 4)

	columns := []struct {
		width int
		value func(s Signal) string
	}{
		{16, func(s Signal) string { return s.Label }},
		{80, func(s Signal) string { return s.TransducerType }},
		{8, func(s Signal) string { return s.PhysicalDimension }},
		{8, func(s Signal) string { return formatNumber(s.PhysicalMin) }},
		{8, func(s Signal) string { return formatNumber(s.PhysicalMax) }},
		{8, func(s Signal) string { return strconv.Itoa(s.DigitalMin) }},
		{8, func(s Signal) string { return strconv.Itoa(s.DigitalMax) }},
		{80, func(s Signal) string { return s.Prefiltering }},
		{8, func(s Signal) string { return strconv.Itoa(s.SamplesPerRecord) }},
		{32, func(s Signal) string { return s.Reserved }},
	}
	for _, col := range columns {
		for _, signal := range hdr.Signals {
			pad(col.value(signal), col.width)
		}
	}

	writer := bufio.NewWriter(ew.w)
	if _, err := writer.WriteString(sb.String()); err != nil {
		return err
	}
	return writer.Flush()
}

// convertPhysicalToDigital converts a physical value to a digital value using
// the calibration factors, clamped to the digital range.
func convertPhysicalToDigital(physical float64, pmin, pmax float64, dmin, dmax int) int16 {
	if pmax == pmin {
		return 0 // Avoid division by zero
	}
	digital := math.Round((physical-pmin)*float64(dmax-dmin)/(pmax-pmin) + float64(dmin))
	digital = math.Max(float64(dmin), math.Min(float64(dmax), digital))
	return int16(digital)
}

// formatNumber renders a value in at most 8 characters.
func formatNumber(val float64) string {
	// Try with 2 decimal places
	s := strconv.FormatFloat(val, 'f', 2, 64)
	if len(s) > 8 {
		// Fall back to no decimal
		s = strconv.FormatFloat(val, 'f', 0, 64)
	}
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}
