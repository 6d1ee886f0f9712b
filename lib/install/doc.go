// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package install holds the shared vocabulary of the outpostd installer:
// the install mode, the mode-dependent filesystem layout, the desired
// state resolved from operator input, the per-stage report, and the
// error taxonomy that install stages surface.
//
// The package is pure data. The reconciliation engines (lib/platform,
// lib/release, lib/fetch, lib/agentconfig, lib/systemd) import it for
// outcomes and typed errors; the orchestration that sequences them
// lives in cmd/outpost-install/commands.
package install
