// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runloop

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/jjrun/internal/color"
)

const (
	treeGlyph    = "└─"
	timeRounding = time.Millisecond
)

// OutputOptions controls what is included in the report output.
type OutputOptions struct {
	IncludeStdOut      bool // Whether to include captured stdout in the output
	IncludeStdErr      bool // Whether to include captured stderr in the output
	ShowSuccessDetails bool // Whether to show details for successful changes
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeStdOut:      false,
		IncludeStdErr:      true,
		ShowSuccessDetails: false,
	}
}

var (
	summaryOkStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "2", Dark: "10"})
	summaryFailStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"})
)

// WriteReport writes the formatted run report to the provided writer.
func WriteReport(w io.Writer, r *Report, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	for _, o := range r.Outcomes {
		if err := writeOutcome(w, o, options); err != nil {
			return err
		}
	}

	return writeSummary(w, r)
}

func writeOutcome(w io.Writer, o *Outcome, options *OutputOptions) error {
	var statusStr, labelPrefix string

	switch {
	case o.Failed():
		statusStr = color.Colorize("✗", color.FgRed)
		labelPrefix = color.ControlString(color.Bold, color.FgRed)
	default:
		statusStr = color.Colorize("✓", color.FgGreen)
		labelPrefix = color.ControlString(color.Bold, color.FgGreen)
	}

	if _, err := fmt.Fprintf(
		w,
		"%s %s%s%s %s (%s)\n",
		statusStr,
		labelPrefix,
		o.Change.ChangeID,
		color.ControlString(color.Reset),
		o.Change.ShortDescription(),
		o.Duration().Round(timeRounding),
	); err != nil {
		return err
	}

	if !o.Failed() && !options.ShowSuccessDetails {
		return nil
	}

	if o.Failed() {
		if _, err := fmt.Fprintf(w, "  %s error: %v (exit code: %d)\n", treeGlyph, o.Err, o.ExitCode); err != nil {
			return err
		}
	}

	if options.IncludeStdOut {
		if err := writeStream(w, "stdout", o.StdOut); err != nil {
			return err
		}
	}

	if options.IncludeStdErr {
		if err := writeStream(w, "stderr", o.StdErr); err != nil {
			return err
		}
	}

	return nil
}

func writeStream(w io.Writer, name string, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(w, "  %s %s:\n", treeGlyph, name); err != nil {
		return err
	}

	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if _, err := fmt.Fprintf(w, "    %s\n", line); err != nil {
			return err
		}
	}

	return nil
}

func writeSummary(w io.Writer, r *Report) error {
	failed := r.Failed()

	summary := fmt.Sprintf(
		"Run %s: %d changes processed, %d failed",
		r.Termination.String(),
		len(r.Outcomes),
		len(failed),
	)

	style := summaryOkStyle
	if len(failed) > 0 || r.Termination != TerminationCompleted {
		style = summaryFailStyle
	}

	if _, err := fmt.Fprintln(w, style.Render(summary)); err != nil {
		return err
	}

	for _, o := range failed {
		if _, err := fmt.Fprintf(w, "  failed: %s (%s)\n", o.Change.ChangeID, o.Change.ShortDescription()); err != nil {
			return err
		}
	}

	return nil
}
