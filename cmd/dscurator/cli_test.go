// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elastic/dscurator/internal/es"
)

// testCluster serves one data stream whose backing indices were created
// the given number of days ago; the last one is the write index.
type testCluster struct {
	mu      sync.Mutex
	stream  string
	indices []string
	created map[string]time.Time
	failDel map[string]bool
	deleted []string
	rolled  int
}

func newTestCluster(stream string, daysAgo ...int) *testCluster {
	c := &testCluster{stream: stream, created: map[string]time.Time{}, failDel: map[string]bool{}}
	for i, d := range daysAgo {
		name := fmt.Sprintf(".ds-%s-%06d", stream, i+1)
		c.indices = append(c.indices, name)
		c.created[name] = time.Now().Add(-time.Duration(d) * 24 * time.Hour)
	}
	return c
}

func (c *testCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	path := strings.TrimPrefix(r.URL.Path, "/")

	switch {
	case path == "_cluster/health":
		fmt.Fprint(w, `{"status":"green"}`)
	case path == "_data_stream/"+c.stream:
		parts := make([]string, len(c.indices))
		for i, idx := range c.indices {
			parts[i] = fmt.Sprintf(`{"index_name":%q,"index_uuid":"u%d"}`, idx, i)
		}
		fmt.Fprintf(w, `{"data_streams":[{"name":%q,"generation":%d,"indices":[%s]}]}`, c.stream, len(c.indices), strings.Join(parts, ","))
	case strings.HasPrefix(path, "_data_stream/"):
		notFound(w, strings.TrimPrefix(path, "_data_stream/"))
	case path == c.stream+"/_settings/index.creation_date":
		var parts []string
		for _, n := range c.indices {
			parts = append(parts, fmt.Sprintf(`%q:{"settings":{"index.creation_date":"%d"}}`, n, c.created[n].UnixMilli()))
		}
		fmt.Fprintf(w, "{%s}", strings.Join(parts, ","))
	case r.Method == http.MethodPost && path == c.stream+"/_rollover":
		c.rolled++
		old := c.indices[len(c.indices)-1]
		next := fmt.Sprintf(".ds-%s-%06d", c.stream, len(c.indices)+1)
		c.indices = append(c.indices, next)
		c.created[next] = time.Now()
		fmt.Fprintf(w, `{"acknowledged":true,"old_index":%q,"new_index":%q,"rolled_over":true}`, old, next)
	case r.Method == http.MethodDelete:
		if c.failDel[path] {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"type":"exception","reason":"shard busy"},"status":500}`)
			return
		}
		c.deleted = append(c.deleted, path)
		for i, idx := range c.indices {
			if idx == path {
				c.indices = append(c.indices[:i:i], c.indices[i+1:]...)
				break
			}
		}
		fmt.Fprint(w, `{"acknowledged":true}`)
	default:
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"error":"unexpected %s %s"}`, r.Method, r.URL.Path)
	}
}

func notFound(w http.ResponseWriter, name string) {
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `{"error":{"type":"index_not_found_exception","reason":"no such index [%s]"},"status":404}`, name)
}

// execute runs the root command with fresh flag state and an isolated
// environment. It returns stdout, stderr and the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeIn(t, t.TempDir(), args...)
}

// executeIn is execute with a given config home, so several commands can
// share one profile file.
func executeIn(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", home)
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "DSCURATOR_") {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}
	origTTY := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = origTTY })

	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	cmd.SetContext(context.Background())
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestCLI_Clean(t *testing.T) {
	cluster := newTestCluster("logs-app", 30, 10, 2)
	srv := httptest.NewServer(cluster)
	defer srv.Close()

	out, logs, err := execute(t, "clean", "--url", srv.URL, "--no-color", "-d", "logs-app", "-r", "7")
	require.NoError(t, err)

	assert.Equal(t, []string{".ds-logs-app-000001", ".ds-logs-app-000002"}, cluster.deleted)
	assert.Contains(t, out, `data stream "logs-app": deleted 2 of 3 indices (retention 7 days)`)
	assert.Contains(t, logs, "run_id=")
	assert.Contains(t, logs, "Deleted index")
}

func TestCLI_CleanDryRun(t *testing.T) {
	cluster := newTestCluster("logs-app", 30, 10, 2)
	srv := httptest.NewServer(cluster)
	defer srv.Close()

	out, _, err := execute(t, "clean", "--url", srv.URL, "-d", "logs-app", "-r", "7", "--dry-run")
	require.NoError(t, err)
	assert.Empty(t, cluster.deleted)
	assert.Contains(t, out, "2 of 3 indices would be deleted")
}

func TestCLI_CleanPartialFailure(t *testing.T) {
	for _, tc := range []struct {
		name     string
		extra    []string
		wantCode int
	}{
		{name: "warns", wantCode: exitOK},
		{name: "fail_on_partial", extra: []string{"--fail-on-partial"}, wantCode: exitPartial},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cluster := newTestCluster("logs-app", 30, 20, 1)
			cluster.failDel[".ds-logs-app-000001"] = true
			srv := httptest.NewServer(cluster)
			defer srv.Close()

			args := append([]string{"clean", "--url", srv.URL, "-d", "logs-app", "-r", "7"}, tc.extra...)
			out, logs, err := execute(t, args...)

			assert.Equal(t, tc.wantCode, exitCode(err))
			assert.Equal(t, []string{".ds-logs-app-000002"}, cluster.deleted)
			assert.Contains(t, out, "1 failed")
			assert.Contains(t, logs, "shard busy")
			assert.Contains(t, logs, "Run finished with problems")
		})
	}
}

func TestCLI_CleanMissingDataStream(t *testing.T) {
	srv := httptest.NewServer(newTestCluster("logs-app", 1))
	defer srv.Close()

	_, _, err := execute(t, "clean", "--url", srv.URL, "-d", "nope", "-r", "7")
	var nf *es.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestCLI_CleanRequiresRetention(t *testing.T) {
	_, _, err := execute(t, "clean", "--url", "http://127.0.0.1:1", "-d", "logs-app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--retention-period")
}

func TestCLI_CleanRejectsNegativeRetention(t *testing.T) {
	_, _, err := execute(t, "clean", "--url", "http://127.0.0.1:1", "-d", "logs-app", "-r", "-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retention_period")
}

func TestCLI_Rollover(t *testing.T) {
	cluster := newTestCluster("logs-app", 3, 1)
	srv := httptest.NewServer(cluster)
	defer srv.Close()

	out, _, err := execute(t, "rollover", "--url", srv.URL, "--data-stream", "logs-app")
	require.NoError(t, err)
	assert.Equal(t, 1, cluster.rolled)
	assert.Contains(t, out, ".ds-logs-app-000002 -> .ds-logs-app-000003")
}

func TestCLI_RolloverMissingDataStream(t *testing.T) {
	cluster := newTestCluster("logs-app", 1)
	srv := httptest.NewServer(cluster)
	defer srv.Close()

	_, _, err := execute(t, "rollover", "--url", srv.URL, "--data-stream", "nope")
	require.Error(t, err)
	assert.Zero(t, cluster.rolled)
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestCLI_Status(t *testing.T) {
	cluster := newTestCluster("logs-app", 30, 2)
	srv := httptest.NewServer(cluster)
	defer srv.Close()

	out, _, err := execute(t, "status", "--url", srv.URL, "-d", "logs-app", "-r", "7")
	require.NoError(t, err)
	assert.Contains(t, out, ".ds-logs-app-000001")
	assert.Contains(t, out, "RETENTION 7d")
	assert.Empty(t, cluster.deleted)
}

func TestCLI_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, _, err := execute(t, "rollover", "--url", srv.URL, "-d", "logs-app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot connect to cluster")
}

func TestCLI_OpenSearchFlavor(t *testing.T) {
	cluster := newTestCluster("logs-app", 30, 2)
	srv := httptest.NewServer(cluster)
	defer srv.Close()

	out, logs, err := execute(t, "rollover", "--url", srv.URL, "--flavor", "opensearch", "--log-level", "debug", "-d", "logs-app")
	require.NoError(t, err)
	assert.Equal(t, 1, cluster.rolled)
	assert.Contains(t, out, ".ds-logs-app-000003")
	assert.Contains(t, logs, "flavor=opensearch")
}

func TestCLI_UnknownFlavor(t *testing.T) {
	_, _, err := execute(t, "rollover", "--flavor", "solr", "-d", "logs-app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "es.flavor")
}

func TestCLI_VersionSkipsConfig(t *testing.T) {
	out, _, err := execute(t, "version", "--timeout", "0s")
	require.NoError(t, err)
	assert.Contains(t, out, "dscurator dev")
}

func TestCLI_ConfigProfiles(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeIn(t, home, "config", "set-profile", "prod", "--es-url", "https://prod:9200", "--es-api-key", "${PROD_KEY}")
	require.NoError(t, err)

	out, _, err := executeIn(t, home, "config", "get-profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "prod")
	assert.Contains(t, out, "es=https://prod:9200, auth=api-key")
	assert.FileExists(t, home+"/dscurator/config.yaml")
}

func TestCLI_SetProfileRejectsInvalidValues(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeIn(t, home, "config", "set-profile", "bad", "--es-flavor", "solr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "es.flavor")
	assert.NoFileExists(t, home+"/dscurator/config.yaml")
}

func TestCLI_ProfileJobDefaults(t *testing.T) {
	cluster := newTestCluster("logs-app", 30, 10, 2)
	srv := httptest.NewServer(cluster)
	defer srv.Close()

	home := t.TempDir()
	out, _, err := executeIn(t, home, "config", "set-profile", "logs-job",
		"--es-url", srv.URL, "--data-stream", "logs-app", "--retention-period", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "data-stream=logs-app, retention=7d")

	out, _, err = executeIn(t, home, "clean", "--profile", "logs-job", "--no-color")
	require.NoError(t, err)
	assert.Equal(t, []string{".ds-logs-app-000001", ".ds-logs-app-000002"}, cluster.deleted)
	assert.Contains(t, out, `data stream "logs-app": deleted 2 of 3 indices (retention 7 days)`)
}
