// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jj

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/matt-FFFFFF/jjrun/internal/ctxlog"
)

const jjExecutable = "jj"

var (
	// ErrCommandFailed is returned when a jj invocation exits non-zero.
	ErrCommandFailed = errors.New("jj command failed")
	// ErrUnexpectedOutput is returned when jj output cannot be interpreted.
	ErrUnexpectedOutput = errors.New("unexpected jj output")
)

// Client invokes the jj binary. The zero value runs jj in the process
// working directory; per-call directories override this for workspace
// operations.
type Client struct{}

// NewClient creates a jj CLI client.
func NewClient() *Client {
	return &Client{}
}

// Log evaluates a revset and returns the matching changes in the order jj
// yields them. dir selects the workspace to evaluate in; empty means the
// process working directory.
func (c *Client) Log(ctx context.Context, dir, revset string) ([]Change, error) {
	out, err := c.run(ctx, dir, "log", "-r", revset, "--template", "json(self)", "--no-graph")
	if err != nil {
		return nil, err
	}

	return ParseChanges(out)
}

// WorkspaceAdd registers a new workspace at the given path.
func (c *Client) WorkspaceAdd(ctx context.Context, path string) error {
	_, err := c.run(ctx, "", "workspace", "add", path)
	return err
}

// WorkspaceForget removes the named workspace's registration.
func (c *Client) WorkspaceForget(ctx context.Context, name string) error {
	_, err := c.run(ctx, "", "workspace", "forget", name)
	return err
}

// UpdateStale refreshes a workspace whose working copy is out of date with
// the repository. dir selects the workspace; empty means the main one.
func (c *Client) UpdateStale(ctx context.Context, dir string) error {
	_, err := c.run(ctx, dir, "workspace", "update-stale")
	return err
}

// NewChange creates a new mutable working-copy change on top of parent,
// inside the workspace at dir.
func (c *Client) NewChange(ctx context.Context, dir, parent string) error {
	_, err := c.run(ctx, dir, "new", parent)
	return err
}

// Abandon abandons the given change. The present() guard makes this a no-op
// for changes that no longer exist, so teardown never trips over them.
func (c *Client) Abandon(ctx context.Context, changeID string) error {
	_, err := c.run(ctx, "", "abandon", fmt.Sprintf("present(%s)", changeID), "--ignore-working-copy")
	return err
}

// IsEmpty reports whether the change has no content of its own.
// A change that no longer exists is reported as empty.
func (c *Client) IsEmpty(ctx context.Context, dir, changeID string) (bool, error) {
	out, err := c.run(ctx, dir, "log", "-T", "json(empty)", "-r", fmt.Sprintf("present(%s)", changeID), "--no-graph")
	if err != nil {
		return false, err
	}

	switch strings.TrimSpace(out) {
	case "true", "":
		return true, nil
	case "false":
		return false, nil
	}

	return false, fmt.Errorf("%w: %q", ErrUnexpectedOutput, out)
}

// Edit makes the given revision the working-copy change of the workspace at dir.
func (c *Client) Edit(ctx context.Context, dir, rev string) error {
	_, err := c.run(ctx, dir, "edit", rev)
	return err
}

// RestoreFrom restores the working copy's content from the given revision,
// rebasing descendants so that they keep their own changes.
func (c *Client) RestoreFrom(ctx context.Context, dir, rev string) error {
	_, err := c.run(ctx, dir, "restore", "--from", rev, "--restore-descendants")
	return err
}

// CurrentOperation returns the id of the repository's latest operation.
func (c *Client) CurrentOperation(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "", "op", "log", "-n1", "-Tid", "--no-graph", "--no-pager")
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}

func (c *Client) run(ctx context.Context, dir string, args ...string) (string, error) {
	ctxlog.Debug(ctx, "jj", "args", args, "dir", dir)

	cmd := exec.CommandContext(ctx, jjExecutable, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errors.Join(
			ErrCommandFailed,
			fmt.Errorf("jj %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String())),
		)
	}

	return stdout.String(), nil
}
