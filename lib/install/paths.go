// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package install

import (
	"fmt"
	"os"
	"path/filepath"
)

// Product file names. The agent binary and its unit share the outpostd
// name; the config file name is fixed by the agent's own loader.
const (
	// BinaryName is the installed agent executable's file name.
	BinaryName = "outpostd"

	// UnitName is the systemd unit registered for the agent.
	UnitName = "outpostd.service"

	// ConfigFileName is the agent config file inside the root directory.
	ConfigFileName = "outpost.toml"
)

// System-mode defaults. /usr/local/bin keeps the agent out of
// distribution-managed /usr/bin.
const (
	systemBinaryDir = "/usr/local/bin"
	systemRootDir   = "/etc/outpost"
	systemUnitDir   = "/etc/systemd/system"
)

// Paths is the fully resolved on-disk layout for one install run. All
// fields are absolute. Engines receive a Paths value instead of
// consulting mode defaults themselves, so tests can point every write
// at a scratch directory.
type Paths struct {
	// BinaryPath is where the agent executable is installed.
	BinaryPath string `json:"binary_path" desc:"installed agent executable"`

	// RootDirectory is the agent's config and data root.
	RootDirectory string `json:"root_directory" desc:"agent config and data root"`

	// ConfigPath is RootDirectory/ConfigFileName.
	ConfigPath string `json:"config_path" desc:"agent config file"`

	// UnitPath is the service unit file location.
	UnitPath string `json:"unit_path" desc:"systemd unit file"`
}

// DefaultPaths resolves the layout for mode. A non-empty rootDirectory
// overrides the mode's default config root; the config path always
// follows the root. User mode resolves against the invoking user's home
// directory and fails if the home directory cannot be determined.
func DefaultPaths(mode Mode, rootDirectory string) (Paths, error) {
	switch mode {
	case ModeSystem:
		root := rootDirectory
		if root == "" {
			root = systemRootDir
		}
		return Paths{
			BinaryPath:    filepath.Join(systemBinaryDir, BinaryName),
			RootDirectory: root,
			ConfigPath:    filepath.Join(root, ConfigFileName),
			UnitPath:      filepath.Join(systemUnitDir, UnitName),
		}, nil

	case ModeUser:
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolving home directory for user install: %w", err)
		}
		root := rootDirectory
		if root == "" {
			root = filepath.Join(home, ".config", "outpost")
		}
		return Paths{
			BinaryPath:    filepath.Join(home, ".local", "bin", BinaryName),
			RootDirectory: root,
			ConfigPath:    filepath.Join(root, ConfigFileName),
			UnitPath:      filepath.Join(home, ".config", "systemd", "user", UnitName),
		}, nil
	}
	return Paths{}, fmt.Errorf("unknown install mode %q", mode)
}
