// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package release resolves a version request against the outpostd
// release host.
//
// A release host is a static HTTPS prefix publishing an index document
// at <base>/index.json and versioned artifacts at
// <base>/<version>/<asset>. The index lists every published version
// with its assets; each asset entry carries the sha256 and size of the
// payload as installed (after decompression for .zst/.gz assets), so
// the fetcher can verify what it writes and the status command can
// compare an installed binary against the index without downloading
// anything.
//
// Index files are hand-maintained on simple static hosts, so the
// parser accepts JSONC: comments and trailing commas are stripped
// before decoding.
//
// Resolution is deterministic and documented here because operators pin
// exact versions for reproducible fleets: "latest" selects the highest
// version in semver order; any other request must match a published
// version tag literally. The binary asset is the unsuffixed agent name
// on the baseline architecture (x86_64) and carries a "-<arch>" suffix
// otherwise (outpostd-aarch64), optionally with a .zst or .gz
// compression extension.
package release
