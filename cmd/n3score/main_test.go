// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) error {
	t.Helper()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestSynthAndScore(t *testing.T) {
	dir := t.TempDir()
	recording := filepath.Join(dir, "night.edf")
	out := filepath.Join(dir, "night.csv")

	require.NoError(t, run(t, "synth", recording, "--epochs", "3", "--pattern", "n3,wake,flat"))
	require.NoError(t, run(t, "score", recording, "--format", "csv", "--out", out, "--workers", "2"))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "N3", records[1][2])
	assert.Equal(t, "true", records[1][4])
	assert.Equal(t, "Not N3", records[2][2])
	assert.Equal(t, "Not N3", records[3][2])
	assert.Equal(t, "false", records[3][4])
}

func TestScoreUnknownChannel(t *testing.T) {
	dir := t.TempDir()
	recording := filepath.Join(dir, "night.edf")

	require.NoError(t, run(t, "synth", recording, "--epochs", "1"))
	require.Error(t, run(t, "score", recording, "--channel", "EMG", "--out", filepath.Join(dir, "out.json")))
}

func TestScoreInvalidFormat(t *testing.T) {
	dir := t.TempDir()
	recording := filepath.Join(dir, "night.edf")

	require.NoError(t, run(t, "synth", recording, "--epochs", "1"))
	require.Error(t, run(t, "score", recording, "--format", "parquet"))
}

func TestSynthRejectsUnknownPattern(t *testing.T) {
	require.Error(t, run(t, "synth", filepath.Join(t.TempDir(), "x.edf"), "--pattern", "rem"))
}
