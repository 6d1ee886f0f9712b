// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package systemd

import "context"

// UnitState is the service manager's view of one unit, reduced to the
// properties the reconciler acts on.
type UnitState struct {
	// ActiveState is the unit's activation state: "active",
	// "activating", "inactive", "failed", ...
	ActiveState string

	// SubState refines ActiveState, e.g. "running" or "dead".
	SubState string

	// UnitFileState reports enablement: "enabled", "disabled",
	// "static", or empty when systemd has no unit file on record.
	UnitFileState string
}

// Running reports whether the unit is actively running.
func (s UnitState) Running() bool { return s.ActiveState == "active" }

// Failed reports whether the unit entered the failed state.
func (s UnitState) Failed() bool { return s.ActiveState == "failed" }

// Manager is the slice of the service manager the reconciler drives.
// DBusManager implements it against a live systemd; tests substitute
// a fake.
type Manager interface {
	// Reload asks the manager to re-read unit definitions from disk
	// (daemon-reload).
	Reload(ctx context.Context) error

	// EnableUnit marks the unit to start at boot.
	EnableUnit(ctx context.Context, unitName string) error

	// StartUnit starts the unit and waits for the manager to finish
	// the job.
	StartUnit(ctx context.Context, unitName string) error

	// RestartUnit restarts the unit (starting it if stopped) and waits
	// for the manager to finish the job.
	RestartUnit(ctx context.Context, unitName string) error

	// UnitState reports the current state of the unit.
	UnitState(ctx context.Context, unitName string) (UnitState, error)

	// Close releases the manager connection.
	Close()
}
