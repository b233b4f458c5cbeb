// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elastic/dscurator/internal/es"
)

func newCleanup(c Cluster, retention int) *CleanupAction {
	return &CleanupAction{
		Cluster:       c,
		RetentionDays: retention,
		Now:           func() time.Time { return testNow },
	}
}

func TestCleanup_LogsAppScenario(t *testing.T) {
	c := newMemCluster()
	c.addStream("logs-app", testNow, 30, 10, 2)

	report, err := newCleanup(c, 7).Do(context.Background(), "logs-app")
	require.NoError(t, err)

	assert.Equal(t, []string{".ds-logs-app-000001", ".ds-logs-app-000002"}, report.Deleted())
	assert.Equal(t, []string{".ds-logs-app-000003"}, c.names("logs-app"))
	assert.Equal(t, 1, report.Count(OutcomeKept))
	assert.Len(t, report.Items, 3)
}

func TestCleanup_BoundaryIsKept(t *testing.T) {
	c := newMemCluster()
	c.addStream("logs-app", testNow, 7, 1)

	report, err := newCleanup(c, 7).Do(context.Background(), "logs-app")
	require.NoError(t, err)

	assert.Empty(t, report.Deleted())
	assert.Empty(t, c.deleteCalls)
}

func TestCleanup_ZeroRetentionKeepsWriteIndex(t *testing.T) {
	c := newMemCluster()
	c.addStream("logs-app", testNow, 400, 200, 100)

	report, err := newCleanup(c, 0).Do(context.Background(), "logs-app")
	require.NoError(t, err)

	assert.Len(t, report.Deleted(), 2)
	assert.Equal(t, []string{".ds-logs-app-000003"}, c.names("logs-app"))
	assert.NotContains(t, c.deleteCalls, ".ds-logs-app-000003")
}

func TestCleanup_Idempotent(t *testing.T) {
	c := newMemCluster()
	c.addStream("logs-app", testNow, 30, 10, 2)
	action := newCleanup(c, 7)

	first, err := action.Do(context.Background(), "logs-app")
	require.NoError(t, err)
	require.Len(t, first.Deleted(), 2)

	second, err := action.Do(context.Background(), "logs-app")
	require.NoError(t, err)
	assert.Empty(t, second.Deleted())
	assert.Len(t, c.deleteCalls, 2)
}

func TestCleanup_PartialFailureIsolation(t *testing.T) {
	c := newMemCluster()
	c.addStream("logs-app", testNow, 30, 20, 10, 1)
	boom := errors.New("cluster refused")
	c.deleteErr[".ds-logs-app-000001"] = boom
	rec := &recordingRecorder{}

	action := newCleanup(c, 7)
	action.Recorder = rec
	report, err := action.Do(context.Background(), "logs-app")

	var pde *PartialDeletionError
	require.ErrorAs(t, err, &pde)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 3, pde.Attempted)
	require.Len(t, pde.Failures, 1)
	assert.Equal(t, ".ds-logs-app-000001", pde.Failures[0].Index.Name)
	assert.Contains(t, err.Error(), ".ds-logs-app-000001")

	// The failure did not stop the later candidates.
	require.NotNil(t, report)
	assert.Equal(t, []string{".ds-logs-app-000002", ".ds-logs-app-000003"}, report.Deleted())
	assert.Equal(t, []string{".ds-logs-app-000001", ".ds-logs-app-000002", ".ds-logs-app-000003"}, c.deleteCalls)
	assert.Len(t, rec.events, 3)
	assert.Equal(t, OutcomeFailed, rec.events[0].Outcome)
	assert.Contains(t, report.Summary(), "1 failed")
}

func TestCleanup_DryRunDeletesNothing(t *testing.T) {
	c := newMemCluster()
	c.addStream("logs-app", testNow, 30, 10, 2)

	action := newCleanup(c, 7)
	action.DryRun = true
	report, err := action.Do(context.Background(), "logs-app")
	require.NoError(t, err)

	assert.Empty(t, c.deleteCalls)
	assert.Equal(t, 2, report.Count(OutcomeWouldDelete))
	assert.Contains(t, report.Summary(), "would be deleted")
}

func TestCleanup_NotFound(t *testing.T) {
	c := newMemCluster()

	report, err := newCleanup(c, 7).Do(context.Background(), "missing")
	assert.Nil(t, report)
	var nf *es.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, err.Error(), "missing")
	assert.Empty(t, c.deleteCalls)
}

func TestCleanup_NegativeRetention(t *testing.T) {
	c := newMemCluster()
	_, err := newCleanup(c, -1).Do(context.Background(), "logs-app")
	require.Error(t, err)
	assert.Zero(t, c.getCalls)
}

// A rollover that lands while deletions are in flight must not make the
// new write index, or the index it replaced, a deletion target.
func TestCleanup_ConcurrentRolloverUsesSingleSnapshot(t *testing.T) {
	c := newMemCluster()
	c.addStream("logs-app", testNow, 30, 20, 10)
	rolled := false
	c.onDelete = func(string) {
		if !rolled {
			rolled = true
			_, _ = c.Rollover(context.Background(), "logs-app")
		}
	}

	report, err := newCleanup(c, 0).Do(context.Background(), "logs-app")
	require.NoError(t, err)

	assert.Equal(t, 1, c.getCalls)
	assert.Equal(t, []string{".ds-logs-app-000001", ".ds-logs-app-000002"}, c.deleteCalls)
	assert.Equal(t, []string{".ds-logs-app-000003", ".ds-logs-app-000004"}, c.names("logs-app"))
	assert.Len(t, report.Items, 3)
}

func TestCleanup_IndexAlreadyGone(t *testing.T) {
	c := newMemCluster()
	c.addStream("logs-app", testNow, 30, 2)
	c.deleteErr[".ds-logs-app-000001"] = &es.NotFoundError{Kind: "index", Name: ".ds-logs-app-000001"}

	report, err := newCleanup(c, 7).Do(context.Background(), "logs-app")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(OutcomeGone))
	assert.Empty(t, report.Failed())
}

func TestCleanup_SkippedIndicesAreReported(t *testing.T) {
	c := newMemCluster()
	c.addStream("logs-app", testNow, 30, 2)
	c.streams["logs-app"][0].Created = time.Time{}

	report, err := newCleanup(c, 7).Do(context.Background(), "logs-app")
	require.NoError(t, err)

	assert.Empty(t, c.deleteCalls)
	require.Equal(t, 1, report.Count(OutcomeSkipped))
	assert.Equal(t, OutcomeSkipped, report.Items[0].Outcome)
	assert.Contains(t, report.Items[0].Reason, "creation date")
	assert.Contains(t, report.Summary(), "1 skipped")
}
