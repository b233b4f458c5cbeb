// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/elastic/dscurator/internal/config"
	"github.com/elastic/dscurator/internal/lifecycle"
)

var rolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "Roll a data stream over to a new write index",
	Long: `Forces a rollover of the data stream: the cluster creates a new backing
index and makes it the write index. The data stream must exist.

Examples:
  dscurator rollover --data-stream logs-app
  DSCURATOR_DATA_STREAM=logs-app dscurator rollover`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd.Context())
		defer cancel()

		cfg, _ := config.FromContext(ctx)
		if err := cfg.RequireDataStream(); err != nil {
			return err
		}

		s, err := newSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		action := &lifecycle.RolloverAction{
			Cluster:  s.client,
			Log:      s.log(),
			Recorder: s.recorder,
		}
		res, err := action.Do(ctx, cfg.DataStream)
		if err != nil {
			return err
		}
		return s.out.Rollover(cfg.DataStream, res)
	},
}

func init() {
	addDataStreamFlag(rolloverCmd)
	rootCmd.AddCommand(rolloverCmd)
}

// addDataStreamFlag registers --data-stream on an action command.
func addDataStreamFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("data-stream", "d", "", "Data stream name (env: DSCURATOR_DATA_STREAM)")
}

// addRetentionFlag registers --retention-period on an action command.
func addRetentionFlag(cmd *cobra.Command, usage string) {
	cmd.Flags().IntP("retention-period", "r", config.RetentionUnset, usage+" (env: DSCURATOR_RETENTION_PERIOD)")
}
