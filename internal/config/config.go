// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads the optional .jjrun.yaml defaults file. Values from
// the file only apply where the corresponding CLI flag was not set.
package config

import (
	"context"
	"errors"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/jjrun/internal/ctxlog"
	"github.com/spf13/afero"
)

// DefaultFileName is the config file looked up in the working directory when
// no explicit path is given.
const DefaultFileName = ".jjrun.yaml"

var (
	// ErrReadConfig is returned when the config file cannot be read.
	ErrReadConfig = errors.New("failed to read config file")
	// ErrParseConfig is returned when the config file cannot be parsed.
	ErrParseConfig = errors.New("failed to parse config file")
)

// FsFactory returns the filesystem used for config loading.
// Tests substitute an in-memory filesystem here.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// File is the on-disk defaults structure.
type File struct {
	// Revset is the default revset when -r is not given.
	Revset string `yaml:"revset,omitempty"`
	// ErrStrategy is the default error strategy when -e is not given.
	ErrStrategy string `yaml:"err_strategy,omitempty"`
	// Output controls the default report output options.
	Output Output `yaml:"output,omitempty"`
}

// Output holds report output defaults. Pointers distinguish "unset" from an
// explicit false.
type Output struct {
	StdOut         *bool `yaml:"stdout,omitempty"`
	StdErr         *bool `yaml:"stderr,omitempty"`
	SuccessDetails *bool `yaml:"success_details,omitempty"`
}

// Load reads the config file at path. When explicit is false and the file
// does not exist, an empty File is returned without error; an explicitly
// named file must exist.
func Load(ctx context.Context, path string, explicit bool) (*File, error) {
	fs := FsFactory()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			ctxlog.Debug(ctx, "no config file found", "path", path)
			return &File{}, nil
		}

		return nil, errors.Join(ErrReadConfig, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrParseConfig, err)
	}

	ctxlog.Debug(ctx, "loaded config file", "path", path)

	return &f, nil
}
