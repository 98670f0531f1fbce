// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/jjrun/internal/ctxlog"
)

// Watch monitors the signal channel and handles signals.
// A first signal of a given type is forwarded to the in-flight command via
// the broker channel; the second signal of the same type cancels the context,
// which forcefully terminates any child process.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	sigMap := make(map[os.Signal]struct{})

	for sig := range sigCh {
		if _, ok := sigMap[sig]; ok {
			ctxlog.Info(ctx, "watchdog", "detail", "received second signal of type, terminating", "signal", sig.String())
			close(sigCh)
			cancel()

			return
		}

		ctxlog.Info(ctx, "watchdog", "detail", "received first signal of type, letting current change finish", "signal", sig.String())

		sigMap[sig] = struct{}{}
	}
}
