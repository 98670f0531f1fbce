// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChanges(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		input   string
		want    []Change
		wantErr error
	}{
		{
			name:  "empty output",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace only",
			input: "\n  \n",
			want:  nil,
		},
		{
			name:  "single change",
			input: `{"change_id":"abc","commit_id":"def","description":"hello","parents":["root"]}`,
			want: []Change{
				{ChangeID: "abc", CommitID: "def", Description: "hello", Parents: []string{"root"}},
			},
		},
		{
			name: "concatenated objects",
			input: `{"change_id":"a1","commit_id":"c1","description":"first","parents":["p"]}` +
				`{"change_id":"a2","commit_id":"c2","description":"second","parents":["a1"]}`,
			want: []Change{
				{ChangeID: "a1", CommitID: "c1", Description: "first", Parents: []string{"p"}},
				{ChangeID: "a2", CommitID: "c2", Description: "second", Parents: []string{"a1"}},
			},
		},
		{
			name:    "malformed json",
			input:   `{"change_id":`,
			wantErr: ErrParseChange,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseChanges(tc.input)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestShortDescription(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		desc string
		want string
	}{
		{name: "empty", desc: "", want: "(no description set)"},
		{name: "whitespace only", desc: "  \n", want: "(no description set)"},
		{name: "single line", desc: "fix the bug", want: "fix the bug"},
		{name: "multi line", desc: "subject line\n\nbody goes here", want: "subject line"},
		{name: "leading whitespace", desc: "  trimmed\nrest", want: "trimmed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, Change{Description: tc.desc}.ShortDescription())
		})
	}
}
