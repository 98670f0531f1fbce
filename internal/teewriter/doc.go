// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teewriter provides a line-oriented tee writer that streams
// subprocess output to the console with a per-change prefix while also
// capturing it for the run report.
package teewriter
