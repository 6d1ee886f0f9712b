// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the outpost-install command tree: install
// (the converge operation), status (read-only host inspection), and
// version. The tool is deliberately flat; every command is defined in
// this one package and shares the desired-state plumbing in
// install.go.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/outpost/cmd/outpost-install/cli"
	"github.com/bureau-foundation/outpost/lib/version"
)

// Root builds and returns the complete outpost-install command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "outpost-install",
		Description: `Installer and updater for the outpostd host agent.

Converges a host on a published release: detects the platform, resolves
the requested version against the release index, installs the agent
binary, writes the initial configuration, and registers the service
with systemd. Re-running is always safe; every run re-derives its work
from what is on disk.`,
		Subcommands: []*cli.Command{
			installCommand(),
			statusCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("outpost-install %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Install the latest release system-wide, enrolled against a core",
				Command:     "sudo outpost-install install --core-address 10.0.0.5 --onboarding-key-file /run/secrets/outpost-key",
			},
			{
				Description: "Install a pinned version for the invoking user only",
				Command:     "outpost-install install --user --version 1.4.2",
			},
			{
				Description: "Preview what an install would change",
				Command:     "outpost-install install --dry-run",
			},
			{
				Description: "Inspect what is installed on this host",
				Command:     "outpost-install status",
			},
			{
				Description: "Check the installed binary against the newest release",
				Command:     "outpost-install status --check-latest",
			},
		},
	}
}
