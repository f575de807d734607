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
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Reader reads EDF/EDF+ files.
type Reader struct {
	r   io.ReadSeeker
	hdr *Header
}

// signalField is one column of the per-signal header. Each column holds the
// value for every signal before the next column starts.
type signalField struct {
	name  string
	width int
	set   func(s *Signal, v string) error
}

var signalFields = []signalField{
	{"label", 16, func(s *Signal, v string) error { s.Label = v; return nil }},
	{"transducer type", 80, func(s *Signal, v string) error { s.TransducerType = v; return nil }},
	{"physical dimension", 8, func(s *Signal, v string) error { s.PhysicalDimension = v; return nil }},
	{"physical minimum", 8, func(s *Signal, v string) (err error) { s.PhysicalMin, err = parseFloat(v); return }},
	{"physical maximum", 8, func(s *Signal, v string) (err error) { s.PhysicalMax, err = parseFloat(v); return }},
	{"digital minimum", 8, func(s *Signal, v string) (err error) { s.DigitalMin, err = parseInt(v); return }},
	{"digital maximum", 8, func(s *Signal, v string) (err error) { s.DigitalMax, err = parseInt(v); return }},
	{"prefiltering", 80, func(s *Signal, v string) error { s.Prefiltering = v; return nil }},
	{"samples per record", 8, func(s *Signal, v string) (err error) { s.SamplesPerRecord, err = parseInt(v); return }},
	{"reserved", 32, func(s *Signal, v string) error { s.Reserved = v; return nil }},
}

// Open opens an EDF/EDF+ file for reading.
func Open(r io.ReadSeeker) (*Reader, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking to header: %w", err)
	}
	reader := bufio.NewReader(r)

	b := make([]byte, headerSize)
	if _, err := io.ReadFull(reader, b); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	field := func(from, to int) string {
		return strings.TrimSpace(string(b[from:to]))
	}

	hdr := &Header{
		Version:     Version(field(0, 8)),
		PatientID:   field(8, 88),
		RecordingID: field(88, 168),
		Reserved:    field(192, 236),
	}

	year, month, day, err := parseStartDate(field(168, 176))
	if err != nil {
		return nil, fmt.Errorf("error parsing start date: %w", err)
	}
	startTime, err := time.Parse("15.04.05", field(176, 184))
	if err != nil {
		return nil, fmt.Errorf("error parsing start time: %w", err)
	}
	hdr.StartTime = time.Date(year, month, day,
		startTime.Hour(), startTime.Minute(), startTime.Second(), 0, time.UTC)

	if hdr.HeaderBytes, err = parseInt(field(184, 192)); err != nil {
		return nil, fmt.Errorf("error parsing header bytes: %w", err)
	}
	if hdr.DataRecords, err = parseInt(field(236, 244)); err != nil {
		return nil, fmt.Errorf("error parsing number of data records: %w", err)
	}
	hdr.DataRecordDuration, err = time.ParseDuration(field(244, 252) + "s")
	if err != nil {
		return nil, fmt.Errorf("error parsing data record duration: %w", err)
	}
	if hdr.SignalCount, err = parseInt(field(252, 256)); err != nil {
		return nil, fmt.Errorf("error parsing signal count: %w", err)
	}
	if hdr.SignalCount < 0 {
		return nil, fmt.Errorf("invalid signal count: %d", hdr.SignalCount)
	}

	hdr.Signals = make([]Signal, hdr.SignalCount)
	for _, f := range signalFields {
		buf := make([]byte, f.width)
		for i := range hdr.Signals {
			if _, err := io.ReadFull(reader, buf); err != nil {
				return nil, fmt.Errorf("error reading signal %s: %w", f.name, err)
			}
			if err := f.set(&hdr.Signals[i], strings.TrimSpace(string(buf))); err != nil {
				return nil, fmt.Errorf("error parsing %s of signal %d: %w", f.name, i, err)
			}
		}
	}

	if err := hdr.check(); err != nil {
		return nil, err
	}

	return &Reader{
		r:   r,
		hdr: hdr,
	}, nil
}

// Header returns the parsed file header.
func (er *Reader) Header() *Header {
	return er.hdr
}

// SignalIndex returns the index of the signal with the given label. Labels
// are compared case-insensitively, ignoring surrounding whitespace.
func (er *Reader) SignalIndex(label string) (int, error) {
	want := strings.TrimSpace(label)
	for i, sig := range er.hdr.Signals {
		if strings.EqualFold(sig.Label, want) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrSignalNotFound, label)
}

// SignalReader reads continuous signal data from an EDF/EDF+ file.
type SignalReader struct {
	r             io.ReadSeeker
	hdr           *Header
	signal        Signal
	currentRecord int       // Next record to load
	recordSize    int       // Total size of one data record in bytes
	signalOffset  int       // Byte offset of the signal in a record
	raw           []byte    // Digital samples of the current record
	record        []float64 // Physical samples of the current record
	pos           int       // Next unread sample in record
}

// Signal creates a new SignalReader for a specified signal index.
func (er *Reader) Signal(signalIndex int) (*SignalReader, error) {
	if signalIndex < 0 || signalIndex >= len(er.hdr.Signals) {
		return nil, fmt.Errorf("signal index %d out of range", signalIndex)
	}

	recordSize := 0
	signalOffset := 0
	for i, sig := range er.hdr.Signals {
		if i < signalIndex {
			signalOffset += sig.SamplesPerRecord * 2
		}
		recordSize += sig.SamplesPerRecord * 2
	}

	signal := er.hdr.Signals[signalIndex]
	return &SignalReader{
		r:            er.r,
		hdr:          er.hdr,
		signal:       signal,
		recordSize:   recordSize,
		signalOffset: signalOffset,
		raw:          make([]byte, signal.SamplesPerRecord*2),
	}, nil
}

// Read fills the provided float64 slice with the physical values from the
// signal. It returns io.EOF once every data record has been consumed.
func (sr *SignalReader) Read(data []float64) (int, error) {
	n := 0
	for n < len(data) {
		if sr.pos >= len(sr.record) {
			if err := sr.loadRecord(); err != nil {
				return n, err
			}
		}

		copied := copy(data[n:], sr.record[sr.pos:])
		sr.pos += copied
		n += copied
	}

	return n, nil
}

// loadRecord reads the signal's samples from the next data record.
func (sr *SignalReader) loadRecord() error {
	if sr.hdr.DataRecords >= 0 && sr.currentRecord >= sr.hdr.DataRecords {
		return io.EOF
	}
	if len(sr.raw) == 0 {
		return io.EOF
	}

	pos := int64(sr.hdr.HeaderBytes) + int64(sr.currentRecord)*int64(sr.recordSize) + int64(sr.signalOffset)
	if _, err := sr.r.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("error seeking to position: %w", err)
	}
	if _, err := io.ReadFull(sr.r, sr.raw); err != nil {
		// The record count is unknown until a writer is closed.
		if sr.hdr.DataRecords < 0 && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) {
			return io.EOF
		}
		return fmt.Errorf("error reading sample data: %w", err)
	}

	if sr.record == nil {
		sr.record = make([]float64, sr.signal.SamplesPerRecord)
	}
	for i := range sr.record {
		digital := int16(binary.LittleEndian.Uint16(sr.raw[2*i:]))
		sr.record[i] = convertDigitalToPhysical(digital, sr.signal.DigitalMin, sr.signal.DigitalMax, sr.signal.PhysicalMin, sr.signal.PhysicalMax)
	}

	sr.pos = 0
	sr.currentRecord++
	return nil
}

// ReadChannel loads a whole signal as physical values. An empty label selects
// the first signal. Voltage signals are converted to microvolts.
func ReadChannel(r io.ReadSeeker, label string) (*Channel, error) {
	er, err := Open(r)
	if err != nil {
		return nil, err
	}
	if len(er.hdr.Signals) == 0 {
		return nil, fmt.Errorf("%w: file has no signals", ErrSignalNotFound)
	}

	idx := 0
	if label != "" {
		if idx, err = er.SignalIndex(label); err != nil {
			return nil, err
		}
	}

	sr, err := er.Signal(idx)
	if err != nil {
		return nil, err
	}
	sig := er.hdr.Signals[idx]

	// Size the buffer by what the file can actually hold, not by the header.
	var samples []float64
	if records, err := er.recordsInFile(); err == nil && records > 0 {
		if er.hdr.DataRecords >= 0 {
			records = min(records, er.hdr.DataRecords)
		}
		samples = make([]float64, 0, records*sig.SamplesPerRecord)
	}
	buf := make([]float64, max(sig.SamplesPerRecord, 1))
	for {
		n, err := sr.Read(buf)
		samples = append(samples, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading signal %q: %w", sig.Label, err)
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoSamples, sig.Label)
	}

	ch := &Channel{
		Label:      sig.Label,
		Unit:       sig.PhysicalDimension,
		SampleRate: sig.SampleRate(er.hdr.DataRecordDuration),
		Samples:    samples,
	}
	if scale, ok := microvoltScale(sig.PhysicalDimension); ok {
		ch.Unit = "uV"
		if scale != 1 {
			for i := range ch.Samples {
				ch.Samples[i] *= scale
			}
		}
	}

	return ch, nil
}

// recordsInFile returns the number of complete data records in the file.
func (er *Reader) recordsInFile() (int, error) {
	recordSize := er.hdr.recordBytes()
	if recordSize == 0 {
		return 0, nil
	}
	size, err := er.r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	return int(max(size-int64(er.hdr.HeaderBytes), 0) / int64(recordSize)), nil
}

// parseStartDate parses a dd.mm.yy date. Two digit years 85-99 are in the
// 1900s and 00-84 in the 2000s.
func parseStartDate(s string) (int, time.Month, int, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid date %q", s)
	}
	var v [3]int
	for i, p := range parts {
		if len(p) != 2 {
			return 0, 0, 0, fmt.Errorf("invalid date %q", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("invalid date %q", s)
		}
		v[i] = n
	}
	day, month, year := v[0], v[1], v[2]
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, fmt.Errorf("invalid date %q", s)
	}
	if year >= 85 {
		year += 1900
	} else {
		year += 2000
	}
	return year, time.Month(month), day, nil
}

// convertDigitalToPhysical converts a digital value from the data record to a physical value using the calibration factors.
func convertDigitalToPhysical(digital int16, dmin, dmax int, pmin, pmax float64) float64 {
	if dmax == dmin {
		return 0 // Avoid division by zero
	}
	return pmin + (float64(digital)-float64(dmin))*(pmax-pmin)/float64(dmax-dmin)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
