// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runloop

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/jjrun/internal/ctxlog"
)

// Reconciler propagates the content of each mutable copy back onto the
// original change's parent snapshot, without altering any description.
// The whole step is best-effort: per-pair failures are collected but never
// escalate the run's termination reason.
type Reconciler struct {
	VCS     VCS
	Session *Session
}

// Reconcile rewrites parent snapshots for every outcome that has a mutable
// copy. Copies that are empty, or that no longer exist, are skipped: there
// is nothing to propagate and the tool would reject the rewrite.
// The returned error aggregates all per-pair failures; callers log it and
// carry on.
func (r *Reconciler) Reconcile(ctx context.Context, outcomes []*Outcome) error {
	var errs error

	for _, o := range outcomes {
		if !o.HasCreated() {
			continue
		}

		if err := r.reconcileOne(ctx, o); err != nil {
			ctxlog.Warn(ctx, "failed to reconcile change", "change", o.Change.ChangeID, "error", err)
			errs = multierror.Append(errs, fmt.Errorf("change %s: %w", o.Change.ChangeID, err))
		}
	}

	return errs
}

func (r *Reconciler) reconcileOne(ctx context.Context, o *Outcome) error {
	empty, err := r.VCS.IsEmpty(ctx, r.Session.Path, o.Created.ChangeID)
	if err != nil {
		return err
	}

	if empty {
		ctxlog.Debug(ctx, "skipping empty copy", "change", o.Change.ChangeID, "created", o.Created.ChangeID)
		return nil
	}

	// The copy's parent is the original change. Editing it and restoring
	// from the copy rewrites the original's snapshot in place while
	// descendants keep their own content.
	if len(o.Created.Parents) == 0 {
		return fmt.Errorf("created change %s has no parent", o.Created.ChangeID)
	}

	if err := r.VCS.Edit(ctx, r.Session.Path, o.Created.Parents[0]); err != nil {
		return err
	}

	return r.VCS.RestoreFrom(ctx, r.Session.Path, o.Created.ChangeID)
}
