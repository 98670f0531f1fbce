// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runloop is the execution core of jjrun. It opens an isolated
// workspace session, resolves the target revset, runs the user command
// against each change sequentially under a configurable error policy,
// reconciles the resulting snapshots back onto the originals, and tears the
// session down on every exit path.
package runloop
