// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash provides SHA256 content hashing for agent binaries.
//
// The installer uses content digests in two places. Downloads are
// verified against the sha256 the release index publishes for each
// asset before anything is written to the install path. And because the
// binary is refreshed on every run while a healthy agent should not be
// bounced for nothing, the pre-install digest of an already-present
// binary is compared with the post-install digest to decide whether the
// running service actually needs a restart.
//
// Digests travel as 64-character lowercase hex strings, the same format
// the release index uses.
//
// This package has no dependencies on other outpost packages.
package binhash
