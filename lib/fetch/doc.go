// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fetch downloads release artifacts and installs the agent
// binary.
//
// Downloads go through a retrying HTTP client (bounded attempts,
// exponential backoff) so a flaky release host does not abort an
// install. The payload is decompressed according to the asset name
// suffix (.zst, .gz) and verified against the digest and size the
// release index promised before anything touches the destination
// path. Installation is a write to a temp file in the destination
// directory followed by an atomic rename, so a crash mid-install
// never leaves a truncated binary where the service manager will
// exec it.
package fetch
