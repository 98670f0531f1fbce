// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runloop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matt-FFFFFF/jjrun/internal/jj"
)

// DefaultRevset selects all mutable changes reachable from the working copy.
const DefaultRevset = "mutable() & ::@"

var (
	// ErrRevset is returned when a revset cannot be evaluated.
	ErrRevset = errors.New("failed to resolve revset")
	// ErrImmutableChanges is returned when the revset selects changes the
	// tool reports as immutable. Partial processing of a mixed set is not
	// attempted.
	ErrImmutableChanges = errors.New("revset contains immutable changes")
)

// Resolve evaluates the revset and returns the eligible target changes in
// the order the tool yields them, deduplicated. The session's own
// working-copy change and the root change are always excluded. An empty
// result is not an error.
//
// The revset expression is passed to the tool verbatim; it is not parsed here.
func Resolve(ctx context.Context, vcs VCS, session *Session, revset string) ([]jj.Change, error) {
	immutable, err := vcs.Log(ctx, "", fmt.Sprintf("(%s) & immutable()", revset))
	if err != nil {
		return nil, errors.Join(ErrRevset, err)
	}

	if len(immutable) > 0 {
		ids := make([]string, 0, len(immutable))
		for _, c := range immutable {
			ids = append(ids, c.ChangeID)
		}

		return nil, errors.Join(ErrRevset, fmt.Errorf("%w: %s", ErrImmutableChanges, strings.Join(ids, ", ")))
	}

	expr := fmt.Sprintf("(%s) ~ %s ~ root()", revset, session.Change.ChangeID)

	changes, err := vcs.Log(ctx, "", expr)
	if err != nil {
		return nil, errors.Join(ErrRevset, err)
	}

	seen := make(map[string]struct{}, len(changes))
	eligible := make([]jj.Change, 0, len(changes))

	for _, c := range changes {
		// The expression already excludes the workspace's own change, but a
		// tool that resolves name@ differently across workspaces must never
		// leak it into the target set.
		if c.ChangeID == session.Change.ChangeID {
			continue
		}

		if _, ok := seen[c.ChangeID]; ok {
			continue
		}

		seen[c.ChangeID] = struct{}{}

		eligible = append(eligible, c)
	}

	return eligible, nil
}
