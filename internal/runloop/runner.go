// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runloop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matt-FFFFFF/jjrun/internal/ctxlog"
	"github.com/matt-FFFFFF/jjrun/internal/jj"
	"github.com/matt-FFFFFF/jjrun/internal/teewriter"
)

const shortIDLength = 8

var (
	// ErrCreateChange is returned in an Outcome when the mutable copy for a
	// change could not be created. The command is not executed in that case.
	ErrCreateChange = errors.New("failed to create mutable copy")
	// ErrCommandFailed is returned in an Outcome when the user command exits
	// with a non-zero status.
	ErrCommandFailed = errors.New("command exited with non-zero status")
)

// Runner processes one change at a time inside the session workspace:
// materialize a mutable copy, run the user command there, record the result.
// It never mutates anything outside the workspace.
type Runner struct {
	VCS     VCS
	Session *Session
	Command string
	Console io.Writer // live destination for streamed command output

	sigCh chan os.Signal // allows substituting the signal source in tests
}

// Run processes a single change and always returns an Outcome, even on
// failure. The created copy, if any, is recorded in the session for teardown
// regardless of the command's result.
func (r *Runner) Run(ctx context.Context, change jj.Change) *Outcome {
	o := &Outcome{
		Change:    change,
		StartedAt: time.Now(),
	}
	defer func() {
		o.FinishedAt = time.Now()
	}()

	fmt.Fprintf(r.console(), "Processing change %s: %s\n", change.ChangeID, change.ShortDescription())

	if err := r.VCS.NewChange(ctx, r.Session.Path, change.ChangeID); err != nil {
		o.Err = errors.Join(ErrCreateChange, err)
		o.ExitCode = -1

		return o
	}

	created, err := r.VCS.Log(ctx, r.Session.Path, "@")
	if err != nil || len(created) != 1 {
		o.Err = errors.Join(ErrCreateChange, err)
		o.ExitCode = -1

		return o
	}

	o.Created = created[0]
	r.Session.AddCreated(o.Created)

	prefix := shortID(change.ChangeID) + " | "
	stdout := teewriter.New(r.console(), prefix, maxCaptureSize)
	stderr := teewriter.New(r.console(), prefix, maxCaptureSize)

	cmd := &ShellCommand{
		Command: r.Command,
		Cwd:     r.Session.Path,
		Stdout:  stdout,
		Stderr:  stderr,
		sigCh:   r.sigCh,
	}

	exitCode, err := cmd.Run(ctx)

	if ferr := stdout.Flush(); ferr != nil {
		ctxlog.Warn(ctx, "failed to flush stdout sink", "error", ferr)
	}

	if ferr := stderr.Flush(); ferr != nil {
		ctxlog.Warn(ctx, "failed to flush stderr sink", "error", ferr)
	}

	o.ExitCode = exitCode
	o.StdOut = stdout.Bytes()
	o.StdErr = stderr.Bytes()

	switch {
	case err != nil:
		o.Err = err
	case exitCode != 0:
		o.Err = fmt.Errorf("%w: %d", ErrCommandFailed, exitCode)
	}

	return o
}

func (r *Runner) console() io.Writer {
	if r.Console == nil {
		return io.Discard
	}

	return r.Console
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}

	return id
}
