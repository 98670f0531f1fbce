// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runloop

import (
	"context"
	"os"
	"testing"

	"github.com/matt-FFFFFF/jjrun/internal/jj"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSessionEnv replaces the session's filesystem and naming with
// deterministic test doubles.
func stubSessionEnv(t *testing.T) afero.Fs {
	t.Helper()

	memFs := afero.NewMemMapFs()

	stubs := gostub.Stub(&FS, memFs)
	stubs.Stub(&TempDirPath, func() string { return "/tmp" })
	stubs.Stub(&RandomName, func(prefix string, _ int) string { return prefix + "fixed" })
	t.Cleanup(stubs.Reset)

	return memFs
}

func TestOpenSession(t *testing.T) {
	memFs := stubSessionEnv(t)
	f := &fakeVCS{fs: memFs}

	s, err := OpenSession(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/jjrun-fixed", s.TempDir)
	assert.Equal(t, "jjrun-fixed", s.Name)
	assert.Equal(t, "/tmp/jjrun-fixed/jjrun-fixed", s.Path)
	assert.Equal(t, workspaceChange.ChangeID, s.Change.ChangeID)

	exists, err := afero.DirExists(memFs, s.Path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOpenSession_WorkspaceAddFails(t *testing.T) {
	memFs := stubSessionEnv(t)
	f := &fakeVCS{fs: memFs, workspaceAddErr: os.ErrPermission}

	_, err := OpenSession(context.Background(), f)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionInit)

	// Partial state is cleaned up.
	exists, serr := afero.DirExists(memFs, "/tmp/jjrun-fixed")
	require.NoError(t, serr)
	assert.False(t, exists)
	assert.Zero(t, f.forgets)
}

func TestSessionClose_TearsDownEverything(t *testing.T) {
	memFs := stubSessionEnv(t)
	f := &fakeVCS{fs: memFs}

	s, err := OpenSession(context.Background(), f)
	require.NoError(t, err)

	s.AddCreated(jj.Change{ChangeID: "created-c1"})
	s.AddCreated(jj.Change{ChangeID: "created-c2"})

	s.Close(context.Background())

	assert.Equal(t, 1, f.forgets)
	assert.Equal(t, 2, f.updateStales)
	assert.Equal(t, []string{"created-c1", "created-c2", workspaceChange.ChangeID}, f.abandoned)

	exists, err := afero.DirExists(memFs, s.TempDir)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSessionClose_Idempotent(t *testing.T) {
	memFs := stubSessionEnv(t)
	f := &fakeVCS{fs: memFs}

	s, err := OpenSession(context.Background(), f)
	require.NoError(t, err)

	s.Close(context.Background())
	s.Close(context.Background())

	assert.Equal(t, 1, f.forgets, "second close must be a no-op")
}

func TestSessionClose_ContinuesPastFailures(t *testing.T) {
	memFs := stubSessionEnv(t)
	f := &fakeVCS{fs: memFs, abandonErr: os.ErrPermission}

	s, err := OpenSession(context.Background(), f)
	require.NoError(t, err)

	s.AddCreated(jj.Change{ChangeID: "created-c1"})

	s.Close(context.Background())

	// Abandon failed, but forget and directory removal still happened.
	assert.Equal(t, 1, f.forgets)

	exists, err := afero.DirExists(memFs, s.TempDir)
	require.NoError(t, err)
	assert.False(t, exists)
}
