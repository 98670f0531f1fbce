// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jj

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// ErrParseChange is returned when the change log output cannot be decoded.
var ErrParseChange = errors.New("failed to parse change log output")

// Change is a single change in the repository graph.
// ChangeID is the stable identifier; CommitID identifies the current
// snapshot and is rewritten whenever the change is amended.
type Change struct {
	ChangeID    string   `json:"change_id"`
	CommitID    string   `json:"commit_id"`
	Description string   `json:"description"`
	Parents     []string `json:"parents"`
}

// ShortDescription returns the first line of the description, or a
// placeholder when the change has no description set.
func (c Change) ShortDescription() string {
	desc := strings.TrimSpace(c.Description)
	if desc == "" {
		return "(no description set)"
	}

	if i := strings.IndexByte(desc, '\n'); i >= 0 {
		desc = desc[:i]
	}

	return desc
}

// ParseChanges decodes the output of `jj log --template json(self) --no-graph`,
// which is a stream of concatenated JSON objects, one per change.
func ParseChanges(out string) ([]Change, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}

	var changes []Change

	dec := json.NewDecoder(strings.NewReader(out))
	for {
		var c Change

		err := dec.Decode(&c)
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Join(ErrParseChange, err)
		}

		changes = append(changes, c)
	}

	return changes, nil
}
