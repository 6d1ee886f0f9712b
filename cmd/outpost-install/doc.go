// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Outpost-install installs and updates the outpostd host agent. It
// converges a host on a published release (install), reports what is
// on the host without changing it (status), and prints its own build
// metadata (version). Running install twice is always safe: every
// decision is re-derived from the disk and service-manager state, not
// from records of previous runs.
package main
