// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runloop

import (
	"time"

	"github.com/matt-FFFFFF/jjrun/internal/jj"
)

// Termination is the overall reason a run ended.
type Termination int

const (
	// TerminationCompleted means every eligible change was processed.
	TerminationCompleted Termination = iota
	// TerminationStopped means the stop policy halted the loop after a failure.
	TerminationStopped
	// TerminationFatal means the run aborted: fatal policy, a fatal
	// precondition failure, or cancellation.
	TerminationFatal
)

const (
	terminationCompletedStr = "completed"
	terminationStoppedStr   = "stopped-after-error"
	terminationFatalStr     = "aborted-fatal"
	terminationUnknownStr   = "unknown"
)

// String returns the string representation of the Termination.
func (t Termination) String() string {
	switch t {
	case TerminationCompleted:
		return terminationCompletedStr
	case TerminationStopped:
		return terminationStoppedStr
	case TerminationFatal:
		return terminationFatalStr
	default:
		return terminationUnknownStr
	}
}

// Outcome records the result of processing a single change.
// It is immutable once produced by the runner.
type Outcome struct {
	Change     jj.Change // the original change that was processed
	Created    jj.Change // the mutable copy, zero value if creation failed
	ExitCode   int       // exit code of the user command
	StdOut     []byte    // captured stdout
	StdErr     []byte    // captured stderr
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error // infrastructure or command failure, nil on success
}

// Failed reports whether processing this change failed.
func (o *Outcome) Failed() bool {
	return o.Err != nil
}

// HasCreated reports whether a mutable copy was materialized for this change.
func (o *Outcome) HasCreated() bool {
	return o.Created.ChangeID != ""
}

// Duration returns the elapsed processing time for this change.
func (o *Outcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}

// Report aggregates the outcomes of one orchestrator run, in submission order.
type Report struct {
	Outcomes    []*Outcome
	Termination Termination
}

// Failed returns the outcomes that failed, in order.
func (r *Report) Failed() []*Outcome {
	var failed []*Outcome

	for _, o := range r.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}

	return failed
}

// ExitCode maps the report to a process exit status: zero only for a
// completed run with no failing outcomes. Where a single command failure
// aborted the run, its exit code is propagated.
func (r *Report) ExitCode() int {
	failed := r.Failed()

	if r.Termination == TerminationCompleted && len(failed) == 0 {
		return 0
	}

	if r.Termination == TerminationFatal && len(failed) > 0 {
		if last := failed[len(failed)-1]; last.ExitCode > 0 {
			return last.ExitCode
		}
	}

	return 1
}
