// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"github.com/bureau-foundation/outpost/lib/install"
)

// Architecture is the host CPU architecture, named with the uname
// machine-string vocabulary the release index also uses for asset
// naming.
type Architecture string

const (
	// ArchAMD64 is 64-bit x86, the baseline architecture. Its release
	// assets carry no architecture suffix.
	ArchAMD64 Architecture = "x86_64"

	// ArchARM64 is 64-bit ARM. Its release assets carry an -aarch64
	// suffix.
	ArchARM64 Architecture = "aarch64"
)

// ServiceManager is the host's service-supervision subsystem.
type ServiceManager string

const (
	// ManagerSystemd supervises units via systemd, system or user scope.
	ManagerSystemd ServiceManager = "systemd"
)

// Platform is the detected host environment an install targets.
type Platform struct {
	Architecture   Architecture   `json:"architecture"    desc:"host CPU architecture"`
	ServiceManager ServiceManager `json:"service_manager" desc:"host service manager"`
}

// Facts are the raw observations classification runs over. Detect
// fills them from the running host; tests construct them directly.
type Facts struct {
	// Machine is the uname machine string (e.g. "x86_64", "aarch64").
	Machine string

	// HasSystemd reports whether the systemd runtime directory
	// /run/systemd/system exists, the documented way to tell that
	// systemd is the running service manager.
	HasSystemd bool
}

// Classify maps raw host facts to a Platform. Unrecognized machine
// strings fail rather than falling back to a default: armv7l, mips, or
// a 32-bit userland on 64-bit hardware would all end up with a binary
// the host cannot execute. The same goes for hosts without systemd;
// there is no unit file worth writing there.
func Classify(facts Facts) (Platform, error) {
	var platform Platform

	switch facts.Machine {
	case "x86_64":
		platform.Architecture = ArchAMD64
	case "aarch64":
		platform.Architecture = ArchARM64
	default:
		return Platform{}, &install.UnsupportedPlatformError{
			Machine: facts.Machine,
			Reason:  "unrecognized architecture",
		}
	}

	if !facts.HasSystemd {
		return Platform{}, &install.UnsupportedPlatformError{
			Reason: "no supported service manager found (systemd runtime directory missing)",
		}
	}
	platform.ServiceManager = ManagerSystemd

	return platform, nil
}
