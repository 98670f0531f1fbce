// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runloop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/matt-FFFFFF/jjrun/internal/ctxlog"
	"github.com/matt-FFFFFF/jjrun/internal/signalbroker"
)

// maxCaptureSize bounds the per-stream output captured into an Outcome.
// Streaming to the console is never truncated.
const maxCaptureSize = 8 * 1024 * 1024 // 8MB

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrSignalReceived is returned when an operating system signal is received by the child process.
	ErrSignalReceived = errors.New("signal received")
	// ErrDuplicateSignalReceived is returned when a duplicate signal is received, forcing process termination.
	ErrDuplicateSignalReceived = errors.New("duplicate signal received, process forcefully terminated")
	// ErrRunCancelled is returned when the context is cancelled while the command runs.
	ErrRunCancelled = errors.New("run cancelled")
)

// ShellCommand runs one user-supplied command string through the shell in a
// given working directory, streaming stdout and stderr to the configured
// writers as they are produced.
type ShellCommand struct {
	Command string    // the command string, passed to the shell verbatim
	Cwd     string    // working directory for the command
	Stdout  io.Writer // sink for streamed stdout
	Stderr  io.Writer // sink for streamed stderr

	sigCh chan os.Signal // channel to receive signals, allows mocking in test
}

// Run executes the command and blocks until the process exits. There is no
// timeout: the command runs to completion unless the context is cancelled or
// a duplicate signal forces termination. It returns the process exit code
// and an error for infrastructure failures or forced termination; a plain
// non-zero exit is not an error here.
func (c *ShellCommand) Run(ctx context.Context) (int, error) {
	logger := ctxlog.Logger(ctx).With("runnableType", "ShellCommand")

	logger.Debug("command info", "command", c.Command, "cwd", c.Cwd)

	if c.sigCh == nil {
		c.sigCh = signalbroker.New(ctx)
	}

	shell, args := shellInvocation(ctx, c.Command)

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return -1, errors.Join(ErrFailedToCreatePipe, err)
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		return -1, errors.Join(ErrFailedToCreatePipe, err)
	}

	ps, err := os.StartProcess(shell, args, &os.ProcAttr{
		Dir:   c.Cwd,
		Env:   os.Environ(),
		Files: []*os.File{os.Stdin, wOut, wErr},
	})
	if err != nil {
		return -1, errors.Join(ErrCouldNotStartProcess, err)
	}

	logger.Debug("process started", "pid", ps.Pid)

	// Pump the pipes into the sinks as output arrives.
	var wg sync.WaitGroup

	wg.Add(2)

	go pump(&wg, c.Stdout, rOut)
	go pump(&wg, c.Stderr, rErr)

	// The watchdog kills the process on context cancellation and passes
	// signals through, killing on the second signal of the same type.
	done := make(chan struct{})
	wasKilled := make(chan error, 1)

	// publish replaces any pending kill reason. The watchdog is the only
	// writer, so drain-then-send cannot block.
	publish := func(err error) {
		select {
		case <-wasKilled:
		default:
		}
		wasKilled <- err
	}

	go func() {
		signalCount := make(map[os.Signal]struct{})

		for {
			select {
			case s := <-c.sigCh:
				if _, ok := signalCount[s]; ok {
					logger.Info("received duplicate signal, killing process", "signal", s.String())
					// Publish before killing so the reason is visible once Wait returns.
					publish(ErrDuplicateSignalReceived)
					killPs(ctx, ps)

					return
				}

				signalCount[s] = struct{}{}

				logger.Info("received signal", "signal", s.String())
				publish(ErrSignalReceived)

				if err := ps.Signal(s); err != nil {
					logger.Info("failed to send signal", "signal", s.String(), "error", err)
				}

			case <-ctx.Done():
				logger.Info("context done, killing process")
				publish(errors.Join(ErrRunCancelled, ctx.Err()))
				killPs(ctx, ps)

				return

			case <-done:
				return
			}
		}
	}()

	state, psErr := ps.Wait()

	_ = wOut.Close()
	_ = wErr.Close()

	wg.Wait()

	exitCode := state.ExitCode()

	logger.Debug("process finished", "exitCode", exitCode)

	select {
	case e := <-wasKilled:
		psErr = errors.Join(psErr, e)
		exitCode = -1
	default:
		// Process completed without watchdog intervention.
	}

	close(done)

	return exitCode, psErr
}

func pump(wg *sync.WaitGroup, dst io.Writer, src *os.File) {
	defer wg.Done()
	defer src.Close() //nolint:errcheck

	if dst == nil {
		dst = io.Discard
	}

	_, _ = io.Copy(dst, src)
}

// killPs kills the process, tolerating one that has already exited.
func killPs(ctx context.Context, ps *os.Process) {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Debug(ctx, "process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Error(ctx, "process kill error", "pid", ps.Pid, "error", err)
	}
}

const (
	goosWindows          = "windows"
	commandSwitchWindows = "/C"
	commandSwitchUnix    = "-c"
	binSh                = "/bin/sh"
)

// shellInvocation returns the shell executable and its full argument vector
// for running the command string. On Windows this is cmd.exe; elsewhere the
// SHELL environment variable with a /bin/sh fallback.
func shellInvocation(ctx context.Context, command string) (string, []string) {
	shell := defaultShell(ctx)

	cmdSwitch := commandSwitchUnix
	if runtime.GOOS == goosWindows {
		cmdSwitch = commandSwitchWindows
	}

	return shell, []string{filepath.Base(shell), cmdSwitch, command}
}

func defaultShell(ctx context.Context) string {
	if runtime.GOOS == goosWindows {
		systemRoot := os.Getenv("SystemRoot")
		if systemRoot == "" {
			systemRoot = `C:\Windows`
		}

		return fmt.Sprintf(`%s\System32\cmd.exe`, systemRoot)
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		ctxlog.Debug(ctx, "using SHELL environment variable", "shell", shell)
		return shell
	}

	return binSh
}
