// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/elastic/dscurator/internal/lifecycle"
)

// Process exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitPartial = 2 // some deletions failed and --fail-on-partial was set
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var partial *lifecycle.PartialDeletionError
	if errors.As(err, &partial) {
		return exitPartial
	}
	return exitFailure
}
