// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package systemd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"

	"github.com/bureau-foundation/outpost/lib/install"
)

// UnitSpec describes the agent's service unit. DefaultSpec builds the
// stock spec for a mode; the fields stay exported so a caller can
// adjust the unit (service user, environment, restart pacing) before
// rendering.
type UnitSpec struct {
	// Description is the unit's human-readable name.
	Description string

	// After and Wants order the unit against other units. System-mode
	// installs wait for the network; user managers have no
	// network-online target, so user-mode specs leave these empty.
	After []string
	Wants []string

	// ExecStart is the full agent command line.
	ExecStart string

	// WorkingDirectory is optional. Systemd fails a unit whose working
	// directory does not exist, so it must point at a directory the
	// install has already created.
	WorkingDirectory string

	// Environment entries are KEY=value pairs passed to the agent.
	Environment []string

	// User and Group run the service as a specific account. Empty
	// means systemd's default for the scope: root for system units,
	// the owning user for user units.
	User  string
	Group string

	// Restart is the restart policy, "always" when empty.
	Restart string

	// RestartSec is the restart delay in seconds; 0 means systemd's
	// default.
	RestartSec int

	// WantedBy is the install target that pulls the unit in at boot.
	WantedBy string
}

// DefaultSpec returns the unit the installer writes for mode: the
// installed binary pointed at the agent root directory, restart-always,
// enabled at boot for the scope's default target. The root directory
// doubles as the working directory; the config stage creates it before
// the unit is ever written.
func DefaultSpec(mode install.Mode, paths install.Paths) UnitSpec {
	spec := UnitSpec{
		Description:      "Outpost host agent",
		ExecStart:        execLine(paths.BinaryPath, "--root-directory", paths.RootDirectory),
		WorkingDirectory: paths.RootDirectory,
		Restart:          "always",
		RestartSec:       5,
		WantedBy:         "default.target",
	}
	if mode == install.ModeSystem {
		spec.After = []string{"network-online.target"}
		spec.Wants = []string{"network-online.target"}
		spec.WantedBy = "multi-user.target"
	}
	return spec
}

// Render serializes the spec to unit-file bytes.
func (s UnitSpec) Render() ([]byte, error) {
	if s.ExecStart == "" {
		return nil, errors.New("unit spec has no ExecStart")
	}
	if s.WantedBy == "" {
		return nil, errors.New("unit spec has no WantedBy target")
	}

	options := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", s.Description),
	}
	for _, after := range s.After {
		options = append(options, unit.NewUnitOption("Unit", "After", after))
	}
	for _, wants := range s.Wants {
		options = append(options, unit.NewUnitOption("Unit", "Wants", wants))
	}

	options = append(options, unit.NewUnitOption("Service", "ExecStart", s.ExecStart))
	if s.WorkingDirectory != "" {
		options = append(options, unit.NewUnitOption("Service", "WorkingDirectory", s.WorkingDirectory))
	}
	for _, env := range s.Environment {
		options = append(options, unit.NewUnitOption("Service", "Environment", env))
	}
	if s.User != "" {
		options = append(options, unit.NewUnitOption("Service", "User", s.User))
	}
	if s.Group != "" {
		options = append(options, unit.NewUnitOption("Service", "Group", s.Group))
	}
	restart := s.Restart
	if restart == "" {
		restart = "always"
	}
	options = append(options, unit.NewUnitOption("Service", "Restart", restart))
	if s.RestartSec > 0 {
		options = append(options, unit.NewUnitOption("Service", "RestartSec", strconv.Itoa(s.RestartSec)))
	}

	options = append(options, unit.NewUnitOption("Install", "WantedBy", s.WantedBy))

	rendered, err := io.ReadAll(unit.Serialize(options))
	if err != nil {
		return nil, fmt.Errorf("serializing unit: %w", err)
	}
	return rendered, nil
}

// execLine joins a command and its arguments into an ExecStart value,
// quoting any element containing whitespace so systemd's word
// splitting reconstructs the intended argv.
func execLine(command string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, part := range append([]string{command}, args...) {
		if strings.ContainsAny(part, " \t") {
			part = `"` + strings.ReplaceAll(part, `"`, `\"`) + `"`
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}
