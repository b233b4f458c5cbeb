// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package report renders lifecycle results for a terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/elastic/dscurator/internal/es"
	"github.com/elastic/dscurator/internal/lifecycle"
)

// maxDetailWidth bounds the reason column so cluster errors don't wrap the table.
const maxDetailWidth = 72

// Options control rendering.
type Options struct {
	Color bool
}

// Renderer writes reports to an output stream.
type Renderer struct {
	out    io.Writer
	styles styles
}

// New returns a Renderer writing to out.
func New(out io.Writer, opts Options) *Renderer {
	r := lipgloss.NewRenderer(out)
	return &Renderer{out: out, styles: newStyles(r, opts.Color)}
}

// Cleanup renders a cleanup run: one row per backing index and a summary line.
func (r *Renderer) Cleanup(rep *lifecycle.Report) error {
	rows := make([][]string, 0, len(rep.Items))
	outcomes := make([]lifecycle.Outcome, 0, len(rep.Items))
	for _, it := range rep.Items {
		detail := it.Reason
		if it.Err != nil {
			detail = it.Err.Error()
		}
		rows = append(rows, []string{
			it.Index.Name,
			formatCreated(it.Index, rep.Now),
			formatAge(it.Age, it.Index.HasCreationTime()),
			string(it.Outcome),
			truncate(detail),
		})
		outcomes = append(outcomes, it.Outcome)
	}

	title := "Cleanup"
	if rep.DryRun {
		title = "Cleanup (dry run)"
	}
	if _, err := fmt.Fprintln(r.out, r.styles.title.Render(title+": "+rep.DataStream)); err != nil {
		return err
	}
	if len(rows) > 0 {
		t := r.table([]string{"INDEX", "CREATED", "AGE", "OUTCOME", "DETAIL"}, rows, func(row, col int) lipgloss.Style {
			if col == 3 {
				return r.styles.cell.Inherit(r.styles.outcome(outcomes[row]))
			}
			return r.styles.cell
		})
		if _, err := fmt.Fprintln(r.out, t); err != nil {
			return err
		}
	}

	summary := r.styles.success
	if rep.Count(lifecycle.OutcomeFailed) > 0 {
		summary = r.styles.failure
	}
	_, err := fmt.Fprintln(r.out, summary.Render(rep.Summary()))
	return err
}

// Rollover renders the result of a rollover.
func (r *Renderer) Rollover(dataStream string, res es.RolloverResult) error {
	if !res.RolledOver {
		_, err := fmt.Fprintln(r.out, r.styles.warning.Render(
			fmt.Sprintf("Data stream %q was not rolled over (write index %s)", dataStream, res.OldIndex)))
		return err
	}
	_, err := fmt.Fprintf(r.out, "%s %s %s %s\n",
		r.styles.success.Render(fmt.Sprintf("Rolled over %q:", dataStream)),
		res.OldIndex,
		r.styles.muted.Render("->"),
		r.styles.title.Render(res.NewIndex))
	return err
}

// Status renders the backing indices of a data stream. When retentionDays
// is >= 0 each index also shows what a cleanup with that retention would do.
func (r *Renderer) Status(ds es.DataStream, retentionDays int, now time.Time) error {
	if _, err := fmt.Fprintln(r.out, r.styles.title.Render(
		fmt.Sprintf("Data stream %s (generation %d, %d backing indices)", ds.Name, ds.Generation, len(ds.Indices)))); err != nil {
		return err
	}
	if len(ds.Indices) == 0 {
		return nil
	}

	headers := []string{"INDEX", "CREATED", "AGE", "WRITE"}
	var decisions []lifecycle.Decision
	if retentionDays >= 0 {
		headers = append(headers, fmt.Sprintf("RETENTION %dd", retentionDays))
		decisions = lifecycle.Select(ds, retentionDays, now)
	}

	rows := make([][]string, 0, len(ds.Indices))
	for i, idx := range ds.Indices {
		write := ""
		if idx.WriteIndex {
			write = "yes"
		}
		row := []string{
			idx.Name,
			formatCreated(idx, now),
			formatAge(idx.Age(now), idx.HasCreationTime()),
			write,
		}
		if decisions != nil {
			row = append(row, verdict(decisions[i]))
		}
		rows = append(rows, row)
	}

	t := r.table(headers, rows, func(row, col int) lipgloss.Style {
		if col == 4 && decisions != nil && decisions[row].Delete {
			return r.styles.cell.Inherit(r.styles.info)
		}
		if col == 3 && ds.Indices[row].WriteIndex {
			return r.styles.cell.Inherit(r.styles.success)
		}
		return r.styles.cell
	})
	_, err := fmt.Fprintln(r.out, t)
	return err
}

func (r *Renderer) table(headers []string, rows [][]string, cell func(row, col int) lipgloss.Style) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.header
			}
			return cell(row, col)
		}).
		String()
}

func verdict(d lifecycle.Decision) string {
	switch {
	case d.Delete:
		return "delete"
	case d.Undetermined:
		return "skip: " + d.Reason
	default:
		return "keep"
	}
}

func formatCreated(idx es.BackingIndex, now time.Time) string {
	if !idx.HasCreationTime() {
		return "unknown"
	}
	return humanize.RelTime(idx.Created, now, "ago", "from now")
}

// formatAge prints an age in days with one decimal, e.g. "7.5d".
func formatAge(age time.Duration, known bool) string {
	if !known {
		return "-"
	}
	days := age.Hours() / 24
	return humanize.FtoaWithDigits(days, 1) + "d"
}

func truncate(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return ansi.Truncate(s, maxDetailWidth, "…")
}
