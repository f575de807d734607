// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package report renders scored recordings as JSON, CSV or Excel workbooks.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/OpenPSG/slowwave"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ErrUnknownFormat is returned by Write for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown report format")

const (
	epochsSheet  = "Epochs"
	summarySheet = "Summary"
)

var epochColumns = []string{"epoch", "start_seconds", "stage", "swa_percent", "usable", "error"}

// Report is the outcome of scoring one channel of a recording.
type Report struct {
	RunID        string                 `json:"run_id"`
	Source       string                 `json:"source"`
	Channel      string                 `json:"channel"`
	SampleRate   float64                `json:"sample_rate_hz"`
	EpochSeconds float64                `json:"epoch_seconds"`
	GeneratedAt  time.Time              `json:"generated_at"`
	Summary      slowwave.Summary       `json:"summary"`
	Epochs       []slowwave.EpochResult `json:"epochs"`
}

// New builds a report for the given results and stamps it with a fresh run ID.
func New(source, channel string, fs, epochSeconds float64, results []slowwave.EpochResult) *Report {
	return &Report{
		RunID:        uuid.New().String(),
		Source:       source,
		Channel:      channel,
		SampleRate:   fs,
		EpochSeconds: epochSeconds,
		GeneratedAt:  time.Now().UTC(),
		Summary:      slowwave.Summarize(results, epochSeconds),
		Epochs:       results,
	}
}

// Write renders the report in the named format: json, csv or xlsx.
func (r *Report) Write(format string, w io.Writer) error {
	switch strings.ToLower(format) {
	case "json":
		return r.WriteJSON(w)
	case "csv":
		return r.WriteCSV(w)
	case "xlsx":
		return r.WriteXLSX(w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteJSON writes the full report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteCSV writes one row per epoch.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(epochColumns); err != nil {
		return err
	}
	for _, e := range r.Epochs {
		if err := cw.Write(r.epochRecord(e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r *Report) epochRecord(e slowwave.EpochResult) []string {
	var errText string
	if e.Err != nil {
		errText = e.Err.Error()
	}
	return []string{
		strconv.Itoa(e.Epoch),
		strconv.FormatFloat(float64(e.Epoch)*r.EpochSeconds, 'f', -1, 64),
		string(e.Stage),
		strconv.FormatFloat(e.SWAPercent, 'f', 2, 64),
		strconv.FormatBool(e.Usable),
		errText,
	}
}

// WriteXLSX writes an Excel workbook with an "Epochs" and a "Summary" sheet.
func (r *Report) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", epochsSheet); err != nil {
		return err
	}

	for i, h := range epochColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(epochsSheet, cell, h); err != nil {
			return err
		}
	}
	for row, e := range r.Epochs {
		var errText string
		if e.Err != nil {
			errText = e.Err.Error()
		}
		values := []any{e.Epoch, float64(e.Epoch) * r.EpochSeconds, string(e.Stage), e.SWAPercent, e.Usable, errText}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row+2)
			if err := f.SetCellValue(epochsSheet, cell, v); err != nil {
				return err
			}
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	s := r.Summary
	rows := [][2]any{
		{"run_id", r.RunID},
		{"source", r.Source},
		{"channel", r.Channel},
		{"sample_rate_hz", r.SampleRate},
		{"epoch_seconds", r.EpochSeconds},
		{"generated_at", r.GeneratedAt.Format(time.RFC3339)},
		{"epochs", s.Epochs},
		{"n3_epochs", s.N3Epochs},
		{"unusable_epochs", s.UnusableEpochs},
		{"failed_epochs", s.FailedEpochs},
		{"n3_minutes", s.N3Minutes},
		{"mean_swa_percent", s.MeanSWA},
		{"median_swa_percent", s.MedianSWA},
		{"p90_swa_percent", s.P90SWA},
		{"max_swa_percent", s.MaxSWA},
	}
	for i, kv := range rows {
		for c, v := range kv {
			cell, _ := excelize.CoordinatesToCellName(c+1, i+1)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
