// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/elastic/dscurator/internal/config"
	"github.com/elastic/dscurator/internal/lifecycle"
)

var (
	cleanDryRun        bool
	cleanFailOnPartial bool
	cleanYes           bool
)

// stdinIsTerminal reports whether the confirmation prompt can be answered.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete backing indices older than the retention period",
	Long: `Deletes every backing index of the data stream whose age is strictly
greater than the retention period. The write index is never deleted, even
with a retention period of 0. Age is measured from the index creation date
reported by the cluster.

A failed deletion does not stop the run: the remaining indices are still
processed and the failures are reported at the end. Such a run exits 0
unless --fail-on-partial is set, in which case it exits 2.

Examples:
  dscurator clean --data-stream logs-app --retention-period 7
  dscurator clean -d logs-app -r 30 --dry-run
  dscurator clean -d logs-app -r 30 --yes --fail-on-partial   # cron`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd.Context())
		defer cancel()

		cfg, _ := config.FromContext(ctx)
		if err := cfg.RequireDataStream(); err != nil {
			return err
		}
		if err := cfg.RequireRetention(); err != nil {
			return err
		}

		s, err := newSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if needsConfirmation() {
			prompt := fmt.Sprintf("This will delete backing indices of %q older than %d days.\nType 'y' to continue: ",
				cfg.DataStream, cfg.RetentionPeriod)
			ok, err := confirmY(cmd.InOrStdin(), cmd.OutOrStdout(), prompt)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}

		action := &lifecycle.CleanupAction{
			Cluster:       s.client,
			RetentionDays: cfg.RetentionPeriod,
			DryRun:        cleanDryRun,
			Log:           s.log(),
			Recorder:      s.recorder,
		}
		rep, err := action.Do(ctx, cfg.DataStream)
		if rep != nil {
			if rerr := s.out.Cleanup(rep); rerr != nil {
				return rerr
			}
		}
		return partialResult(s.log(), err, cleanFailOnPartial)
	},
}

func init() {
	addDataStreamFlag(cleanCmd)
	addRetentionFlag(cleanCmd, "Retention period in days, indices strictly older are deleted")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "Report what would be deleted without deleting")
	cleanCmd.Flags().BoolVar(&cleanFailOnPartial, "fail-on-partial", false, "Exit 2 when some deletions failed")
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(cleanCmd)
}

// needsConfirmation is true for destructive runs started from a terminal.
func needsConfirmation() bool {
	return !cleanDryRun && !cleanYes && stdinIsTerminal()
}

// partialResult decides whether a cleanup error fails the command. Partial
// deletion failures only fail it when failOnPartial is set.
func partialResult(log logrus.FieldLogger, err error, failOnPartial bool) error {
	var partial *lifecycle.PartialDeletionError
	if err == nil || !errors.As(err, &partial) {
		return err
	}
	if failOnPartial {
		return err
	}
	log.WithField("failed", len(partial.Failures)).Warn("Cleanup finished with failed deletions")
	return nil
}

func confirmY(in io.Reader, out io.Writer, prompt string) (bool, error) {
	// Intentionally strict: only a single 'y'/'Y' confirms.
	// Anything else (including empty input, EOF, or "yes") aborts.
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}

	r := bufio.NewReader(in)
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	line = strings.TrimSpace(line)
	return line == "y" || line == "Y", nil
}
