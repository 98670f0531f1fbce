// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runloop

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/jjrun/internal/ctxlog"
	"github.com/matt-FFFFFF/jjrun/internal/jj"
	"github.com/spf13/afero"
)

const (
	tempDirPrefix = "jjrun-"
	// tempDirSuffixLength is the length of the random suffix for the temporary directory.
	tempDirSuffixLength = 8
	// sevenFiveFive is the file mode for the temporary directory.
	sevenFiveFive = 0o755
)

var (
	// ErrSessionInit is returned when the temporary workspace cannot be
	// created or registered. No changes are processed in that case.
	ErrSessionInit = errors.New("failed to initialize workspace session")
	// ErrWorkspaceChange is returned when the workspace's own working-copy
	// change cannot be identified after registration.
	ErrWorkspaceChange = errors.New("failed to identify workspace working-copy change")
)

// FS is a filesystem abstraction used for temporary directory handling.
// Default is the OS filesystem, but can be replaced with a mock for testing.
var FS = afero.NewOsFs()

// TempDirPath returns the parent directory for session workspaces.
var TempDirPath = os.TempDir

// RandomName generates a random string with the given prefix and length.
var RandomName = func(prefix string, n int) string {
	const letterBytes = "abcdefghijklmnopqrstuvwxyz0123456789"

	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}

	return prefix + string(b)
}

// Session owns one temporary, isolated workspace for the lifetime of a run:
// a unique directory on disk plus its registration with the version-control
// tool. It also tracks the mutable copies created during the run so that
// teardown can abandon them.
type Session struct {
	vcs VCS

	// TempDir is the unique directory holding the workspace.
	TempDir string
	// Path is the workspace directory registered with the tool.
	Path string
	// Name is the tool-assigned workspace name.
	Name string
	// Change is the workspace's own working-copy change, created by
	// registration. It is excluded from revset resolution and abandoned
	// at teardown.
	Change jj.Change

	created []jj.Change
	closed  bool
}

// OpenSession creates a fresh, uniquely-named temporary directory, registers
// it as a workspace, and discovers the workspace's own working-copy change.
// Any failure tears down whatever partial state exists and returns an error
// wrapping ErrSessionInit.
func OpenSession(ctx context.Context, vcs VCS) (*Session, error) {
	tempDir := filepath.Join(TempDirPath(), RandomName(tempDirPrefix, tempDirSuffixLength))
	name := filepath.Base(tempDir)

	s := &Session{
		vcs:     vcs,
		TempDir: tempDir,
		Name:    name,
		Path:    filepath.Join(tempDir, name),
	}

	if err := FS.MkdirAll(tempDir, sevenFiveFive); err != nil {
		return nil, errors.Join(ErrSessionInit, err)
	}

	if err := vcs.WorkspaceAdd(ctx, s.Path); err != nil {
		s.removeTempDir(ctx)
		s.closed = true

		return nil, errors.Join(ErrSessionInit, err)
	}

	changes, err := vcs.Log(ctx, "", s.Name+"@")
	if err != nil {
		s.Close(ctx)
		return nil, errors.Join(ErrSessionInit, err)
	}

	if len(changes) != 1 {
		s.Close(ctx)
		return nil, errors.Join(ErrSessionInit, ErrWorkspaceChange)
	}

	s.Change = changes[0]

	ctxlog.Debug(ctx, "session opened", "workspace", s.Name, "path", s.Path, "change", s.Change.ChangeID)

	return s, nil
}

// AddCreated records a mutable copy materialized inside the workspace.
// Every recorded change is abandoned at teardown regardless of the command's
// success.
func (s *Session) AddCreated(c jj.Change) {
	s.created = append(s.created, c)
}

// Created returns the mutable copies recorded so far, in creation order.
func (s *Session) Created() []jj.Change {
	return s.created
}

// Close tears down the session: refresh stale working copies, forget the
// workspace registration, abandon the created copies and the workspace's own
// change, and remove the temporary directory. Every step is best-effort;
// failures are logged and never propagated, because Close runs during crash
// unwinding. Calling Close more than once is a no-op.
func (s *Session) Close(ctx context.Context) {
	if s.closed {
		return
	}

	s.closed = true

	var errs error

	if err := s.vcs.UpdateStale(ctx, ""); err != nil {
		errs = multierror.Append(errs, err)
	}

	if err := s.vcs.UpdateStale(ctx, s.Path); err != nil {
		errs = multierror.Append(errs, err)
	}

	if err := s.vcs.WorkspaceForget(ctx, s.Name); err != nil {
		errs = multierror.Append(errs, err)
	}

	for _, c := range s.created {
		if err := s.vcs.Abandon(ctx, c.ChangeID); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if s.Change.ChangeID != "" {
		if err := s.vcs.Abandon(ctx, s.Change.ChangeID); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if err := FS.RemoveAll(s.TempDir); err != nil {
		errs = multierror.Append(errs, err)
	}

	if errs != nil {
		ctxlog.Warn(ctx, "session teardown incomplete", "workspace", s.Name, "error", errs)
		return
	}

	ctxlog.Debug(ctx, "session closed", "workspace", s.Name)
}

func (s *Session) removeTempDir(ctx context.Context) {
	if err := FS.RemoveAll(s.TempDir); err != nil {
		ctxlog.Warn(ctx, "failed to remove temporary directory", "path", s.TempDir, "error", err)
	}
}
