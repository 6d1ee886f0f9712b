// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for outpost-install.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a parameter struct factory, and
// a Run function. Commands are assembled into a tree in the commands
// package and dispatched via [Command.Execute], which handles flag
// parsing, subcommand routing, and structured help output with examples.
//
// Flags are declared as tagged struct fields and bound with [BindFlags]
// (see that function for the tag scheme). A command's Run body can ask
// [Command.Changed] whether a given flag was set explicitly, which is
// how profile defaults are merged under command-line values.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3). This is implemented in
// suggest.go.
//
// Errors returned from Run are categorized [ToolError] values where the
// command can say something useful about recovery, and [ExitError] when
// a non-zero exit is an expected outcome rather than a failure (status
// reporting an unhealthy host, for example).
package cli
