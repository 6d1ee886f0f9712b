// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package install

import "fmt"

// Mode selects the elevation context of an install. It decides the
// binary, config, and unit-file locations and whether the service is
// registered with the system or the per-user service manager. A Mode is
// chosen once per invocation and never changes mid-run.
type Mode string

const (
	// ModeSystem installs for all users: binary under /usr/local/bin,
	// config under /etc, unit registered with the system manager.
	// Requires root.
	ModeSystem Mode = "system"

	// ModeUser installs under the invoking user's home directory and
	// registers the unit with the per-user manager (systemd --user).
	ModeUser Mode = "user"
)

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m == ModeSystem || m == ModeUser
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSystem:
		return ModeSystem, nil
	case ModeUser:
		return ModeUser, nil
	}
	return "", fmt.Errorf("unknown install mode %q (want %q or %q)", s, ModeSystem, ModeUser)
}
