// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runloop

import (
	"context"
	"strings"

	"github.com/matt-FFFFFF/jjrun/internal/jj"
	"github.com/spf13/afero"
)

// workspaceChange is the change every fake workspace registration creates.
var workspaceChange = jj.Change{
	ChangeID: "workspacechange0",
	CommitID: "cafe0000",
}

// fakeVCS is an in-memory stand-in for the jj client. Behaviour is driven by
// the error fields; every mutating call is recorded so tests can assert the
// teardown contract.
type fakeVCS struct {
	changes   []jj.Change // result of target revset evaluation
	immutable []jj.Change // result of the immutable() precheck

	// fs, when set, backs WorkspaceAdd's creation of the workspace
	// directory, mirroring what the real tool does.
	fs afero.Fs

	workspaceAddErr error
	resolveErr      error
	newChangeErr    map[string]error // keyed by parent change id
	abandonErr      error
	isEmptyErr      error
	editErr         error
	restoreErr      error
	currentOpErr    error

	// emptyCreated marks created change ids the reconciler must skip.
	emptyCreated map[string]bool

	created      []jj.Change
	abandoned    []string
	forgets      int
	updateStales int
	edits        []string
	restores     []string
}

func (f *fakeVCS) Log(_ context.Context, dir, revset string) ([]jj.Change, error) {
	switch {
	case strings.Contains(revset, "immutable()"):
		if f.resolveErr != nil {
			return nil, f.resolveErr
		}

		return f.immutable, nil

	case dir != "" && revset == "@":
		if len(f.created) == 0 {
			return nil, nil
		}

		return []jj.Change{f.created[len(f.created)-1]}, nil

	case dir == "" && strings.HasSuffix(revset, "@") && !strings.Contains(revset, " "):
		return []jj.Change{workspaceChange}, nil

	default:
		if f.resolveErr != nil {
			return nil, f.resolveErr
		}

		return f.changes, nil
	}
}

func (f *fakeVCS) WorkspaceAdd(_ context.Context, path string) error {
	if f.workspaceAddErr != nil {
		return f.workspaceAddErr
	}

	if f.fs != nil {
		return f.fs.MkdirAll(path, 0o755)
	}

	return nil
}

func (f *fakeVCS) WorkspaceForget(_ context.Context, _ string) error {
	f.forgets++
	return nil
}

func (f *fakeVCS) UpdateStale(_ context.Context, _ string) error {
	f.updateStales++
	return nil
}

func (f *fakeVCS) NewChange(_ context.Context, _, parent string) error {
	if err := f.newChangeErr[parent]; err != nil {
		return err
	}

	f.created = append(f.created, jj.Change{
		ChangeID: "created-" + parent,
		Parents:  []string{parent},
	})

	return nil
}

func (f *fakeVCS) Abandon(_ context.Context, changeID string) error {
	f.abandoned = append(f.abandoned, changeID)
	return f.abandonErr
}

func (f *fakeVCS) IsEmpty(_ context.Context, _, changeID string) (bool, error) {
	if f.isEmptyErr != nil {
		return false, f.isEmptyErr
	}

	return f.emptyCreated[changeID], nil
}

func (f *fakeVCS) Edit(_ context.Context, _, rev string) error {
	if f.editErr != nil {
		return f.editErr
	}

	f.edits = append(f.edits, rev)

	return nil
}

func (f *fakeVCS) RestoreFrom(_ context.Context, _, rev string) error {
	if f.restoreErr != nil {
		return f.restoreErr
	}

	f.restores = append(f.restores, rev)

	return nil
}

func (f *fakeVCS) CurrentOperation(_ context.Context) (string, error) {
	if f.currentOpErr != nil {
		return "", f.currentOpErr
	}

	return "op-head", nil
}
