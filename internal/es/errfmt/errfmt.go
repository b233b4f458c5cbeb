// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package errfmt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FormatResponseError turns a cluster error response into an error.
// It prefers the structured error.type / error.reason pair and falls back
// to the raw body when the response is not the usual error document.
func FormatResponseError(status string, body []byte) error {
	var doc struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &doc); err != nil || len(doc.Error) == 0 {
		return rawError(status, body)
	}

	var structured struct {
		Type      string `json:"type"`
		Reason    string `json:"reason"`
		RootCause []struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"root_cause"`
	}
	if err := json.Unmarshal(doc.Error, &structured); err != nil {
		// Some endpoints return "error": "message".
		var msg string
		if json.Unmarshal(doc.Error, &msg) == nil && msg != "" {
			return fmt.Errorf("%s: %s", status, msg)
		}
		return rawError(status, body)
	}
	if structured.Type == "" && structured.Reason == "" {
		return rawError(status, body)
	}

	msg := fmt.Sprintf("%s: %s: %s", status, structured.Type, structured.Reason)
	if len(structured.RootCause) > 0 {
		rc := structured.RootCause[0]
		if rc.Type != structured.Type || rc.Reason != structured.Reason {
			msg += fmt.Sprintf(" (root cause: %s: %s)", rc.Type, rc.Reason)
		}
	}
	return errors.New(msg)
}

func rawError(status string, body []byte) error {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return errors.New(status)
	}
	return fmt.Errorf("%s: %s", status, text)
}
