// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runloop

import (
	"context"

	"github.com/matt-FFFFFF/jjrun/internal/jj"
)

var _ VCS = (*jj.Client)(nil)

// VCS is the version-control surface consumed by the run loop.
// It is implemented by the jj CLI client; tests substitute fakes.
type VCS interface {
	// Log evaluates a revset in the workspace at dir (empty means the
	// process working directory) and returns matching changes in tool order.
	Log(ctx context.Context, dir, revset string) ([]jj.Change, error)
	// WorkspaceAdd registers a new workspace at the given path.
	WorkspaceAdd(ctx context.Context, path string) error
	// WorkspaceForget removes the named workspace's registration.
	WorkspaceForget(ctx context.Context, name string) error
	// UpdateStale refreshes a workspace whose working copy is out of date.
	UpdateStale(ctx context.Context, dir string) error
	// NewChange creates a new mutable working-copy change on top of parent.
	NewChange(ctx context.Context, dir, parent string) error
	// Abandon abandons the given change if it still exists.
	Abandon(ctx context.Context, changeID string) error
	// IsEmpty reports whether the change has no content of its own.
	IsEmpty(ctx context.Context, dir, changeID string) (bool, error)
	// Edit makes the given revision the workspace's working-copy change.
	Edit(ctx context.Context, dir, rev string) error
	// RestoreFrom restores working-copy content from the given revision,
	// preserving descendants' own changes.
	RestoreFrom(ctx context.Context, dir, rev string) error
	// CurrentOperation returns the id of the repository's latest operation.
	CurrentOperation(ctx context.Context) (string, error)
}
