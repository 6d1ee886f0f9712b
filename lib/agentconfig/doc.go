// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package agentconfig writes and reads outpostd's TOML configuration
// file.
//
// The installer only ever writes a FRESH config: when the target file
// already exists its bytes are never touched, whatever they contain.
// Operators hand-tune this file, and an updater that merges or rewrites
// it would eat those edits. The one-way rule makes re-runs safe by
// construction.
//
// A fresh config starts from a template (fetched from the release
// host, or the embedded fallback when the release publishes none) and
// has the host-specific values spliced in textually, so the template's
// documentation comments survive into the installed file.
package agentconfig
