// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package errfmt

import (
	"strings"
	"testing"
)

func TestFormatResponseError(t *testing.T) {
	tests := []struct {
		name   string
		status string
		body   []byte
		checks []string // Substrings that should be in the error
		absent []string
	}{
		{
			name:   "structured error",
			status: "404 Not Found",
			body:   []byte(`{"error":{"root_cause":[{"type":"index_not_found_exception","reason":"no such index [logs-app]"}],"type":"index_not_found_exception","reason":"no such index [logs-app]"},"status":404}`),
			checks: []string{
				"404 Not Found",
				"index_not_found_exception",
				"no such index [logs-app]",
			},
			absent: []string{"root cause"},
		},
		{
			name:   "distinct root cause is appended",
			status: "400 Bad Request",
			body:   []byte(`{"error":{"root_cause":[{"type":"illegal_argument_exception","reason":"write index"}],"type":"remote_transport_exception","reason":"wrapped"}}`),
			checks: []string{
				"remote_transport_exception: wrapped",
				"root cause: illegal_argument_exception: write index",
			},
		},
		{
			name:   "string error",
			status: "401 Unauthorized",
			body:   []byte(`{"error": "unable to authenticate user"}`),
			checks: []string{"401 Unauthorized: unable to authenticate user"},
		},
		{
			name:   "non JSON body",
			status: "502 Bad Gateway",
			body:   []byte("upstream connect error\n"),
			checks: []string{"502 Bad Gateway: upstream connect error"},
		},
		{
			name:   "empty body",
			status: "503 Service Unavailable",
			body:   nil,
			checks: []string{"503 Service Unavailable"},
		},
		{
			name:   "JSON without error key",
			status: "500 Internal Server Error",
			body:   []byte(`{"acknowledged":false}`),
			checks: []string{`{"acknowledged":false}`},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := FormatResponseError(tc.status, tc.body)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}

			errMsg := err.Error()
			for _, check := range tc.checks {
				if !strings.Contains(errMsg, check) {
					t.Errorf("Error message should contain %q\nGot: %s", check, errMsg)
				}
			}
			for _, a := range tc.absent {
				if strings.Contains(errMsg, a) {
					t.Errorf("Error message should not contain %q\nGot: %s", a, errMsg)
				}
			}
		})
	}
}
