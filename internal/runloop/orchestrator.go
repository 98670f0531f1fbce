// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runloop

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/matt-FFFFFF/jjrun/internal/ctxlog"
)

// Options configures one orchestrator run.
type Options struct {
	// Command is the shell command to run against every target change.
	Command string
	// Revset selects the target changes. Empty means DefaultRevset.
	Revset string
	// Strategy is the error-handling strategy for the run loop.
	Strategy Strategy
}

// Orchestrator composes the run: open a workspace session, resolve the
// revset, drive the per-change loop under the error policy, reconcile the
// resulting snapshots, and tear the session down on every exit path.
type Orchestrator struct {
	vcs     VCS
	console io.Writer

	sigCh chan os.Signal // allows substituting the signal source in tests
}

// New creates an Orchestrator. console receives streamed command output and
// progress lines; nil means os.Stdout.
func New(vcs VCS, console io.Writer) *Orchestrator {
	if console == nil {
		console = os.Stdout
	}

	return &Orchestrator{
		vcs:     vcs,
		console: console,
	}
}

// Run executes the full orchestration and returns the report. A non-nil
// error is only returned for fatal precondition failures (session
// initialization or revset resolution); per-change failures live in the
// report's outcomes. The workspace session is torn down before Run returns,
// whatever the exit path.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{Termination: TerminationCompleted}

	if op, err := o.vcs.CurrentOperation(ctx); err == nil {
		fmt.Fprintf(o.console, "Current operation: %s\n", op)
	} else {
		ctxlog.Debug(ctx, "failed to read current operation", "error", err)
	}

	session, err := OpenSession(ctx, o.vcs)
	if err != nil {
		report.Termination = TerminationFatal
		return report, err
	}

	defer session.Close(ctx)

	if opts.Revset == "" {
		opts.Revset = DefaultRevset
	}

	changes, err := Resolve(ctx, o.vcs, session, opts.Revset)
	if err != nil {
		report.Termination = TerminationFatal
		return report, err
	}

	if len(changes) == 0 {
		fmt.Fprintln(o.console, "No changes found to process.")
		return report, nil
	}

	policy := NewPolicy(opts.Strategy)
	runner := &Runner{
		VCS:     o.vcs,
		Session: session,
		Command: opts.Command,
		Console: o.console,
		sigCh:   o.sigCh,
	}

loop:
	for _, change := range changes {
		select {
		case <-ctx.Done():
			// Cancellation between changes: proceed straight to teardown.
			report.Termination = TerminationFatal
			break loop
		default:
		}

		outcome := runner.Run(ctx, change)
		report.Outcomes = append(report.Outcomes, outcome)

		if outcome.Failed() {
			fmt.Fprintf(o.console, "Error while processing change %s: %v\n", change.ChangeID, outcome.Err)
		}

		switch policy.Observe(outcome) {
		case DecisionStop:
			report.Termination = TerminationStopped
			break loop
		case DecisionAbort:
			report.Termination = TerminationFatal
			break loop
		case DecisionContinue:
		}
	}

	if report.Termination == TerminationFatal {
		ctxlog.Debug(ctx, "skipping reconciliation", "termination", report.Termination.String())
		return report, nil
	}

	reconciler := &Reconciler{VCS: o.vcs, Session: session}
	if err := reconciler.Reconcile(ctx, report.Outcomes); err != nil {
		// Best-effort: partial reconciliation never downgrades the run.
		ctxlog.Warn(ctx, "reconciliation incomplete", "error", err)
	}

	return report, nil
}
