// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/elastic/dscurator/internal/lifecycle"
)

// Colors
var (
	primaryColor   = lipgloss.Color("#7D56F4")
	secondaryColor = lipgloss.Color("#5A5A5A")
	successColor   = lipgloss.Color("#04B575")
	warningColor   = lipgloss.Color("#FFCC00")
	errorColor     = lipgloss.Color("#FF5F56")
	infoColor      = lipgloss.Color("#61AFEF")
	mutedColor     = lipgloss.Color("#6C757D")
)

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
	muted  lipgloss.Style

	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	info    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, color bool) styles {
	if !color {
		plain := r.NewStyle()
		return styles{
			title:   plain.Bold(true),
			header:  plain.Bold(true).Padding(0, 1),
			cell:    plain.Padding(0, 1),
			border:  plain,
			muted:   plain,
			success: plain,
			warning: plain,
			failure: plain,
			info:    plain,
		}
	}
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(primaryColor),
		header:  r.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		border:  r.NewStyle().Foreground(secondaryColor),
		muted:   r.NewStyle().Foreground(mutedColor),
		success: r.NewStyle().Foreground(successColor),
		warning: r.NewStyle().Foreground(warningColor),
		failure: r.NewStyle().Foreground(errorColor).Bold(true),
		info:    r.NewStyle().Foreground(infoColor),
	}
}

// outcome returns the style for an outcome cell.
func (s styles) outcome(o lifecycle.Outcome) lipgloss.Style {
	switch o {
	case lifecycle.OutcomeDeleted, lifecycle.OutcomeRolledOver:
		return s.success
	case lifecycle.OutcomeWouldDelete:
		return s.info
	case lifecycle.OutcomeSkipped, lifecycle.OutcomeGone:
		return s.warning
	case lifecycle.OutcomeFailed:
		return s.failure
	default:
		return s.muted
	}
}
