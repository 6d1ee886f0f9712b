// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// systemdRunDir exists when systemd is the running service manager.
// Checking the directory rather than the init binary follows
// sd_booted(3).
const systemdRunDir = "/run/systemd/system"

// Detect gathers facts from the running host and classifies them.
func Detect() (Platform, error) {
	facts, err := gatherFacts()
	if err != nil {
		return Platform{}, err
	}
	return Classify(facts)
}

func gatherFacts() (Facts, error) {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return Facts{}, fmt.Errorf("uname: %w", err)
	}

	_, statErr := os.Stat(systemdRunDir)

	return Facts{
		Machine:    utsField(utsname.Machine),
		HasSystemd: statErr == nil,
	}, nil
}

// utsField converts a fixed-size NUL-terminated Utsname field to a Go
// string.
func utsField(field [65]byte) string {
	for i, value := range field {
		if value == 0 {
			return string(field[:i])
		}
	}
	return string(field[:])
}
