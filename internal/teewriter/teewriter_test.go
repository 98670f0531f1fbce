// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teewriter

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_PrefixesCompleteLines(t *testing.T) {
	t.Parallel()

	dest := &bytes.Buffer{}
	w := New(dest, "c1 | ", 0)

	n, err := w.Write([]byte("first\nsecond\n"))
	require.NoError(t, err)
	assert.Equal(t, 13, n)

	assert.Equal(t, "c1 | first\nc1 | second\n", dest.String())
	assert.Equal(t, "first\nsecond\n", string(w.Bytes()))
}

func TestWrite_HoldsBackPartialLine(t *testing.T) {
	t.Parallel()

	dest := &bytes.Buffer{}
	w := New(dest, "x | ", 0)

	_, err := w.Write([]byte("partial"))
	require.NoError(t, err)
	assert.Empty(t, dest.String(), "no newline yet, nothing forwarded")

	_, err = w.Write([]byte(" line\n"))
	require.NoError(t, err)
	assert.Equal(t, "x | partial line\n", dest.String())
}

func TestFlush_ForwardsPartialWithNewline(t *testing.T) {
	t.Parallel()

	dest := &bytes.Buffer{}
	w := New(dest, "x | ", 0)

	_, err := w.Write([]byte("no trailing newline"))
	require.NoError(t, err)

	require.NoError(t, w.Flush())
	assert.Equal(t, "x | no trailing newline\n", dest.String())

	// Flushing again is a no-op.
	require.NoError(t, w.Flush())
	assert.Equal(t, "x | no trailing newline\n", dest.String())
}

func TestWrite_NilDestinationStillCaptures(t *testing.T) {
	t.Parallel()

	w := New(nil, "x | ", 0)

	_, err := w.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	assert.Equal(t, "hello\n", string(w.Bytes()))
}

func TestWrite_CaptureBound(t *testing.T) {
	t.Parallel()

	dest := &bytes.Buffer{}
	w := New(dest, "", 10)

	_, err := w.Write([]byte("0123456789abcdef\n"))
	require.NoError(t, err)

	assert.Equal(t, "0123456789", string(w.Bytes()))
	assert.True(t, w.Truncated())
	assert.Equal(t, "0123456789abcdef\n", dest.String(), "forwarding is never truncated")
}

func TestWrite_BytesReturnsCopy(t *testing.T) {
	t.Parallel()

	w := New(io.Discard, "", 0)

	_, err := w.Write([]byte("abc\n"))
	require.NoError(t, err)

	b := w.Bytes()
	b[0] = 'z'

	assert.Equal(t, "abc\n", string(w.Bytes()))
}

func TestWrite_Concurrent(t *testing.T) {
	t.Parallel()

	dest := &bytes.Buffer{}
	w := New(dest, "p | ", 0)

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 50 {
				_, err := w.Write([]byte("line\n"))
				assert.NoError(t, err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 400, strings.Count(dest.String(), "p | line\n"))
	assert.Len(t, w.Bytes(), 400*len("line\n"))
}
