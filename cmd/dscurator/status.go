// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/elastic/dscurator/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the backing indices of a data stream",
	Long: `Lists the backing indices of the data stream with their age and marks the
write index. With --retention-period, also shows which indices a cleanup
would delete. Nothing is modified.`,
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

		ds, err := s.client.GetDataStream(ctx, cfg.DataStream)
		if err != nil {
			return err
		}
		return s.out.Status(ds, cfg.RetentionPeriod, time.Now())
	},
}

func init() {
	addDataStreamFlag(statusCmd)
	addRetentionFlag(statusCmd, "Preview a cleanup with this retention period in days")
	rootCmd.AddCommand(statusCmd)
}
