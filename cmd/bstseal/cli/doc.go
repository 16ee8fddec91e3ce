// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the bstseal
// binary.
//
// The central type is [Command], which represents a named subcommand
// with an optional [pflag.FlagSet] factory and a Run function.
// Commands are assembled into a tree in cmd/bstseal/main.go and
// dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and structured help output with examples.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3).
//
// [ExitError] lets a command exit non-zero without an extra "error:"
// line when it has already printed its own diagnosis (verify uses this
// for corrupt inputs). [NewCommandLogger] builds the standard slog
// logger: text when stderr is a terminal, JSON when piped.
package cli
