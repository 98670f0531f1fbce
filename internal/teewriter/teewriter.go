// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teewriter

import (
	"bytes"
	"io"
	"sync"
)

// PrefixTeeWriter is an io.Writer that forwards each complete line to a
// destination writer with a prefix, while accumulating everything written
// into an internal capture buffer. Incomplete lines are held back until the
// terminating newline arrives, or until Flush is called.
// It is safe for concurrent use.
type PrefixTeeWriter struct {
	dest       io.Writer
	prefix     string
	full       bytes.Buffer
	partial    bytes.Buffer
	maxCapture int
	truncated  bool
	mu         sync.Mutex
}

// New creates a PrefixTeeWriter that forwards lines to dest with the given
// prefix. maxCapture bounds the capture buffer; zero or negative means
// unbounded. Forwarding is never truncated.
func New(dest io.Writer, prefix string, maxCapture int) *PrefixTeeWriter {
	return &PrefixTeeWriter{
		dest:       dest,
		prefix:     prefix,
		maxCapture: maxCapture,
	}
}

// Write implements io.Writer. Complete lines are forwarded immediately with
// the prefix applied; the trailing partial line is buffered until the next
// newline.
func (w *PrefixTeeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.capture(p)
	w.partial.Write(p)

	for {
		data := w.partial.Bytes()

		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}

		line := make([]byte, i+1)
		copy(line, data[:i+1])
		w.partial.Next(i + 1)

		if err := w.forward(line); err != nil {
			return len(p), err
		}
	}

	return len(p), nil
}

// Flush forwards any buffered partial line, appending a newline so the
// destination stays line-oriented. Call after the producing process exits.
func (w *PrefixTeeWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.partial.Len() == 0 {
		return nil
	}

	line := append(w.partial.Bytes(), '\n')
	w.partial.Reset()

	return w.forward(line)
}

// Bytes returns a copy of everything captured so far, excluding any data
// beyond the capture bound.
func (w *PrefixTeeWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()

	return bytes.Clone(w.full.Bytes())
}

// Truncated reports whether the capture buffer hit its bound.
func (w *PrefixTeeWriter) Truncated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.truncated
}

// capture appends to the full buffer up to the configured bound.
// Must be called with the lock held.
func (w *PrefixTeeWriter) capture(p []byte) {
	if w.maxCapture <= 0 {
		w.full.Write(p)
		return
	}

	remaining := w.maxCapture - w.full.Len()
	if remaining <= 0 {
		w.truncated = true
		return
	}

	if len(p) > remaining {
		p = p[:remaining]
		w.truncated = true
	}

	w.full.Write(p)
}

// forward writes one prefixed line to the destination.
// Must be called with the lock held.
func (w *PrefixTeeWriter) forward(line []byte) error {
	if w.dest == nil {
		return nil
	}

	if w.prefix != "" {
		if _, err := io.WriteString(w.dest, w.prefix); err != nil {
			return err
		}
	}

	_, err := w.dest.Write(line)

	return err
}
