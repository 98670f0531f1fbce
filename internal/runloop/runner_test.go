// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runloop

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/matt-FFFFFF/jjrun/internal/jj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestRunner(t *testing.T, f *fakeVCS, command string) (*Runner, *bytes.Buffer) {
	t.Helper()

	session := &Session{
		vcs:    f,
		Name:   "jjrun-test",
		Path:   t.TempDir(),
		Change: workspaceChange,
	}

	console := &bytes.Buffer{}

	return &Runner{
		VCS:     f,
		Session: session,
		Command: command,
		Console: console,
		sigCh:   make(chan os.Signal, 1),
	}, console
}

func TestRunnerRun_Success(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeVCS{}
	r, console := newTestRunner(t, f, "echo done")

	o := r.Run(context.Background(), jj.Change{ChangeID: "c1", Description: "first change"})

	require.NoError(t, o.Err)
	assert.Equal(t, 0, o.ExitCode)
	assert.Equal(t, "created-c1", o.Created.ChangeID)
	assert.Contains(t, string(o.StdOut), "done")
	assert.False(t, o.FinishedAt.Before(o.StartedAt))

	// Output is streamed with the change id as line prefix.
	assert.Contains(t, console.String(), "Processing change c1: first change")
	assert.Contains(t, console.String(), "c1 | done")

	// The copy is tracked for teardown.
	require.Len(t, r.Session.Created(), 1)
	assert.Equal(t, "created-c1", r.Session.Created()[0].ChangeID)
}

func TestRunnerRun_CommandFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeVCS{}
	r, _ := newTestRunner(t, f, "echo broken 1>&2; exit 7")

	o := r.Run(context.Background(), jj.Change{ChangeID: "c1"})

	require.Error(t, o.Err)
	assert.ErrorIs(t, o.Err, ErrCommandFailed)
	assert.Equal(t, 7, o.ExitCode)
	assert.Contains(t, string(o.StdErr), "broken")

	// Command failed, but the copy was created and is still tracked.
	assert.True(t, o.HasCreated())
	assert.Len(t, r.Session.Created(), 1)
}

func TestRunnerRun_InfrastructureFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeVCS{newChangeErr: map[string]error{"c1": os.ErrPermission}}
	r, _ := newTestRunner(t, f, "echo never runs")

	o := r.Run(context.Background(), jj.Change{ChangeID: "c1"})

	require.Error(t, o.Err)
	assert.ErrorIs(t, o.Err, ErrCreateChange)
	assert.Equal(t, -1, o.ExitCode)
	assert.False(t, o.HasCreated())
	assert.Empty(t, o.StdOut, "the command must not run when the copy cannot be created")
	assert.Empty(t, r.Session.Created())
}
