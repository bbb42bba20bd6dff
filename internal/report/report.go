// Package report renders the outcome of a build run for humans or machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/pluginoven/internal/orchestrator"
)

// FormatResult is the machine-readable view of one outcome.
type FormatResult struct {
	Format      string `json:"format"`
	State       string `json:"state"`
	FailedStage string `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`
	Result      string `json:"result,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

// RunResult is the machine-readable view of a summary.
type RunResult struct {
	Success    bool           `json:"success"`
	Failed     int            `json:"failed"`
	DurationMS int64          `json:"duration_ms"`
	Formats    []FormatResult `json:"formats"`
}

// FromSummary converts an orchestrator summary.
func FromSummary(summary orchestrator.Summary) RunResult {
	out := RunResult{
		Success:    !summary.Failed(),
		Failed:     summary.FailedCount(),
		DurationMS: summary.Duration.Milliseconds(),
		Formats:    make([]FormatResult, 0, len(summary.Outcomes)),
	}
	for _, o := range summary.Outcomes {
		fr := FormatResult{
			Format:      o.Format,
			State:       string(o.State),
			FailedStage: string(o.FailedStage),
			Result:      o.ResultPath,
			DurationMS:  o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			fr.Error = o.Err.Error()
		}
		out.Formats = append(out.Formats, fr)
	}
	return out
}

// JSON writes the summary as an indented JSON document.
func JSON(w io.Writer, summary orchestrator.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(FromSummary(summary))
}

// Text writes a styled, human-readable summary.
func Text(w io.Writer, summary orchestrator.Summary) error {
	_, err := io.WriteString(w, Render(summary)+"\n")
	return err
}

// Render builds the text view of a summary.
func Render(summary orchestrator.Summary) string {
	sections := []string{titleStyle.Render("Plugin oven")}

	var lines []string
	for _, o := range summary.Outcomes {
		lines = append(lines, renderOutcome(o)...)
	}
	if len(lines) > 0 {
		sections = append(sections, strings.Join(lines, "\n"))
	}

	sections = append(sections, summaryStyle.Render(totals(summary)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// StatusIcon returns the glyph for a final state.
func StatusIcon(state orchestrator.State) string {
	switch state {
	case orchestrator.StateCleaned:
		return successStyle.Render("✓")
	case orchestrator.StateFailed:
		return failureStyle.Render("✗")
	default:
		return partialStyle.Render("•")
	}
}

func renderOutcome(o orchestrator.Outcome) []string {
	line := fmt.Sprintf(" %s %s", StatusIcon(o.State), o.Format)
	if o.Failed() && o.FailedStage != "" {
		line = fmt.Sprintf("%s: %s failed", line, o.FailedStage)
	} else {
		line = fmt.Sprintf("%s: %s", line, o.State)
	}
	if o.Duration > 0 {
		line = fmt.Sprintf("%s (%s)", line, o.Duration.Truncate(10*time.Millisecond))
	}

	lines := []string{line}
	if o.Err != nil {
		lines = append(lines, detailStyle.Render(o.Err.Error()))
	}
	if o.ResultPath != "" && !o.Failed() {
		lines = append(lines, detailStyle.Render(o.ResultPath))
	}
	return lines
}

func totals(summary orchestrator.Summary) string {
	total := len(summary.Outcomes)
	failed := summary.FailedCount()
	text := fmt.Sprintf("%d format(s), %d succeeded, %d failed in %s",
		total, total-failed, failed, summary.Duration.Truncate(time.Millisecond))
	if failed > 0 {
		return failureStyle.Render(text)
	}
	return successStyle.Render(text)
}
