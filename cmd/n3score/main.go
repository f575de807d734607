// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Command n3score scores EDF recordings for N3 (slow wave) sleep.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/OpenPSG/slowwave"
	"github.com/OpenPSG/slowwave/edf"
	"github.com/OpenPSG/slowwave/internal/config"
	"github.com/OpenPSG/slowwave/internal/logging"
	"github.com/OpenPSG/slowwave/internal/report"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "n3score",
		Short:         "Score EEG recordings for N3 sleep using slow wave activity",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newScoreCmd(),
		newSynthCmd(),
	)

	return rootCmd
}

type scoreFlags struct {
	configPath      string
	channel         string
	format          string
	out             string
	continueOnError bool
	workers         int
}

func newScoreCmd() *cobra.Command {
	var flags scoreFlags

	cmd := &cobra.Command{
		Use:   "score <file.edf>",
		Short: "Score every 30 second epoch of an EDF recording",
		Long: `Score each epoch of one EEG channel as N3 or Not N3.

Settings are read from an optional YAML config file and from N3SCORE_*
environment variables (e.g. N3SCORE_SCORING_N3_THRESHOLD=25). Flags take
precedence over both.

Example: n3score score night.edf --channel "EEG F4-M1" --format csv --out night.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if f.Changed("channel") {
				cfg.Input.Channel = flags.channel
			}
			if f.Changed("format") {
				cfg.Output.Format = flags.format
			}
			if f.Changed("out") {
				cfg.Output.Path = flags.out
			}
			if f.Changed("continue-on-error") {
				cfg.Scoring.ContinueOnError = flags.continueOnError
			}
			if f.Changed("workers") {
				cfg.Scoring.Workers = flags.workers
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := logging.Init(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

			return runScore(cmd.Context(), logger, cfg, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&flags.channel, "channel", "", "Signal label to score (default: first signal)")
	cmd.Flags().StringVar(&flags.format, "format", "json", "Report format: json, csv or xlsx")
	cmd.Flags().StringVar(&flags.out, "out", "", "Report path (default: stdout)")
	cmd.Flags().BoolVar(&flags.continueOnError, "continue-on-error", false, "Record failed epochs instead of aborting")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Number of epochs scored concurrently")

	return cmd
}

func runScore(ctx context.Context, logger *slog.Logger, cfg *config.Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	ch, err := edf.ReadChannel(f, cfg.Input.Channel)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	logger.Info("Scoring recording",
		slog.String("source", path),
		slog.String("channel", ch.Label),
		slog.Float64("sample_rate_hz", ch.SampleRate),
		slog.Int("samples", len(ch.Samples)))

	opts := append(cfg.ScoringOptions(), slowwave.WithLogger(logger))
	results, err := slowwave.ScoreRecording(ctx, ch.Samples, ch.SampleRate, opts...)
	if err != nil {
		return fmt.Errorf("failed to score %s: %w", path, err)
	}

	rep := report.New(filepath.Base(path), ch.Label, ch.SampleRate, cfg.Scoring.EpochSeconds, results)

	logger.Info("Scored recording",
		slog.String("run_id", rep.RunID),
		slog.Int("epochs", rep.Summary.Epochs),
		slog.Int("n3_epochs", rep.Summary.N3Epochs),
		slog.Int("failed_epochs", rep.Summary.FailedEpochs))

	return writeReport(rep, cfg.Output.Format, cfg.Output.Path)
}

func writeReport(rep *report.Report, format, path string) error {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		out, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		defer out.Close()
		w = out
	}

	if err := rep.Write(format, w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
