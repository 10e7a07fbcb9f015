// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders the end-of-run summary and the run history.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pdiddy/textmify/internal/ledger"
)

const ruleWidth = 60

const (
	colorTitle   = "#A9DC76"
	colorLabel   = "#727072"
	colorError   = "#FF6188"
	colorWarning = "#FC9867"
	colorBorder  = "#5B595C"
)

// Summary holds the figures printed at the end of a conversion run.
type Summary struct {
	InputDir  string
	OutputDir string

	// Processed is the number of supported files attempted.
	Processed int
	Converted int
	Partial   int
	Skipped   int
	Failed    int

	// Combine is set when combine mode ran; Combined is the bucket count.
	Combine  bool
	Combined int

	Duration    time.Duration
	Interrupted bool
}

// Succeeded returns the number of files with a Markdown output.
func (s Summary) Succeeded() int {
	return s.Converted + s.Partial + s.Skipped
}

type row struct {
	label string
	value string
	color string
}

func (s Summary) rows() []row {
	rows := []row{
		{label: "Input folder", value: s.InputDir},
		{label: "Output folder", value: s.OutputDir},
		{label: "Files processed", value: strconv.Itoa(s.Processed)},
		{label: "Files successfully converted", value: strconv.Itoa(s.Succeeded())},
	}
	if s.Partial > 0 {
		rows = append(rows, row{label: "Partially converted", value: strconv.Itoa(s.Partial), color: colorWarning})
	}
	if s.Skipped > 0 {
		rows = append(rows, row{label: "Skipped (unchanged)", value: strconv.Itoa(s.Skipped)})
	}
	if s.Failed > 0 {
		rows = append(rows, row{label: "Failed", value: strconv.Itoa(s.Failed), color: colorError})
	}
	if s.Combine {
		rows = append(rows, row{label: "Combined files created", value: strconv.Itoa(s.Combined)})
	}
	if s.Duration > 0 {
		rows = append(rows, row{label: "Elapsed", value: s.Duration.Round(time.Millisecond).String()})
	}
	return rows
}

// Render writes the summary to w. With color unset the output is plain text
// framed by rules; otherwise it is a styled box.
func Render(w io.Writer, s Summary, color bool) error {
	if !color {
		return renderPlain(w, s)
	}

	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorTitle))
	label := r.NewStyle().Foreground(lipgloss.Color(colorLabel))
	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colorBorder)).
		Padding(0, 1)

	heading := "Conversion Summary"
	if s.Interrupted {
		heading += " (interrupted)"
	}

	lines := []string{title.Render(heading)}
	for _, rw := range s.rows() {
		value := rw.value
		if rw.color != "" {
			value = r.NewStyle().Foreground(lipgloss.Color(rw.color)).Render(value)
		}
		lines = append(lines, label.Render(rw.label+":")+" "+value)
	}

	_, err := fmt.Fprintln(w, box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	return err
}

func renderPlain(w io.Writer, s Summary) error {
	var b strings.Builder
	rule := strings.Repeat("=", ruleWidth)

	b.WriteString("\n" + rule + "\n")
	b.WriteString("Conversion Summary:")
	if s.Interrupted {
		b.WriteString(" (interrupted)")
	}
	b.WriteString("\n")
	for _, rw := range s.rows() {
		fmt.Fprintf(&b, "  - %s: %s\n", rw.label, rw.value)
	}
	b.WriteString(rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderRuns writes the run history as a table, newest first.
func RenderRuns(w io.Writer, runs []ledger.Run, color bool) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		status := "ok"
		switch {
		case r.Interrupted:
			status = "interrupted"
		case r.FinishedAt.IsZero():
			status = "incomplete"
		case r.Counts.Failed > 0:
			status = "failures"
		}
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Local().Format(time.DateTime),
			r.Backend,
			r.InputDir,
			strconv.Itoa(r.Counts.Converted + r.Counts.Partial),
			strconv.Itoa(r.Counts.Skipped),
			strconv.Itoa(r.Counts.Failed),
			status,
		}
	}

	return writeTable(w, []string{"RUN", "STARTED", "BACKEND", "INPUT", "CONVERTED", "SKIPPED", "FAILED", "STATUS"}, rows, color)
}

// RenderConversions writes the per-file entries of one run as a table.
func RenderConversions(w io.Writer, entries []ledger.Entry, color bool) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No conversions recorded.")
		return err
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.SourcePath,
			string(e.Status),
			strconv.Itoa(e.Attempts),
			strconv.Itoa(e.Words),
			(time.Duration(e.DurationMS) * time.Millisecond).String(),
			e.Error,
		}
	}

	return writeTable(w, []string{"SOURCE", "STATUS", "ATTEMPTS", "WORDS", "DURATION", "ERROR"}, rows, color)
}

func writeTable(w io.Writer, headers []string, rows [][]string, color bool) error {
	r := lipgloss.NewRenderer(w)
	header := r.NewStyle().Bold(color).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)
	if color {
		header = header.Foreground(lipgloss.Color(colorTitle))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Foreground(lipgloss.Color(colorBorder))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
