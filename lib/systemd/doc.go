// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package systemd renders the agent's unit file and drives the service
// manager over D-Bus.
//
// The unit file follows the same one-way rule as the config file, with
// one escape hatch: an existing unit is left untouched unless the
// operator forces recreation, and a forced write replaces the file
// wholesale rather than merging. Whatever happened to the file, the
// reconciler then ensures the service is enabled and running, so a
// first-time binary install against a hand-authored unit still ends
// with a live agent.
//
// Manager is a narrow interface over the systemd D-Bus API; tests
// substitute a fake, and the real implementation maps D-Bus
// access-denied failures to the installer's permission error so a
// non-root run fails with a useful message instead of a raw bus error.
package systemd
