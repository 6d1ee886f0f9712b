// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bureau-foundation/outpost/cmd/outpost-install/cli"
	"github.com/bureau-foundation/outpost/lib/install"
)

// installParams holds the CLI parameters for the install command.
type installParams struct {
	cli.JSONOutput
	Version           string        `json:"version"                  flag:"version"             default:"latest" desc:"release version to install, or \"latest\""`
	User              bool          `json:"-"                        flag:"user"                desc:"install for the invoking user instead of system-wide"`
	RootDirectory     string        `json:"root_directory,omitempty" flag:"root-directory"      desc:"agent config and data root (overrides the mode default)"`
	CoreAddress       string        `json:"core_address,omitempty"   flag:"core-address"        desc:"control plane address the agent dials out to"`
	ConnectAs         string        `json:"connect_as,omitempty"     flag:"connect-as"          desc:"identity the agent presents to the core (default: host name)"`
	OnboardingKey     string        `json:"-"                        flag:"onboarding-key"      desc:"one-time enrollment credential for a fresh config"`
	OnboardingKeyFile string        `json:"-"                        flag:"onboarding-key-file" desc:"read the onboarding key from this file"`
	ForceServiceFile  bool          `json:"-"                        flag:"force-service-file"  desc:"rewrite the service unit file even when one exists"`
	BinaryURL         string        `json:"-"                        flag:"binary-url"          desc:"fetch the agent binary from this URL instead of the release index"`
	ConfigURL         string        `json:"-"                        flag:"config-url"          desc:"fetch the config template from this URL instead of the release index"`
	ReleaseBase       string        `json:"-"                        flag:"release-base"        default:"https://releases.bureau-foundation.org/outpost" desc:"release host prefix"`
	Profile           string        `json:"-"                        flag:"profile"             desc:"YAML file supplying defaults for unset flags"`
	DryRun            bool          `json:"dry_run,omitempty"        flag:"dry-run"             desc:"report planned actions without changing anything"`
	Timeout           time.Duration `json:"-"                        flag:"timeout"             default:"5m" desc:"overall time budget for the run"`
}

func installCommand() *cli.Command {
	var params installParams

	command := &cli.Command{
		Name:    "install",
		Summary: "Install or update the outpostd agent on this host",
		Description: `Converge this host on a published outpostd release.

The run walks a fixed pipeline: detect the platform, resolve the
requested version against the release index, download and install the
agent binary, write the initial config file, and register the systemd
unit. The binary is refreshed on every run; the config file and the
unit file are written only when absent (pass --force-service-file to
rewrite the unit). A running healthy service is restarted only when
the run actually changed something it executes or reads.

System installs (the default) write to /usr/local/bin, /etc/outpost,
and /etc/systemd/system, and need root. Pass --user for a per-user
install under the invoking user's home directory and systemd user
manager.

The --onboarding-key credential is written only into a freshly created
config file. When the config already exists the key is dropped with a
warning, because rewriting an installed config would destroy operator
edits.

A --profile YAML file supplies defaults for any flag not set on the
command line; keys mirror the flag names, and values may reference
environment variables as ${VAR} or ${VAR:-default}.`,
		Usage: "outpost-install install [flags]",
		Examples: []cli.Example{
			{
				Description: "First install on a fresh host, enrolled against a core",
				Command:     "sudo outpost-install install --core-address 10.0.0.5 --onboarding-key-file /run/secrets/outpost-key",
			},
			{
				Description: "Update an installed agent to the latest release",
				Command:     "sudo outpost-install install",
			},
			{
				Description: "Pin a version for a reproducible fleet",
				Command:     "sudo outpost-install install --version 1.4.2",
			},
			{
				Description: "Per-user install with fleet defaults from a profile",
				Command:     "outpost-install install --user --profile ~/fleet-defaults.yaml",
			},
			{
				Description: "Preview the planned actions without writing",
				Command:     "outpost-install install --dry-run --json",
			},
		},
		Params: func() any { return &params },
	}
	command.Run = func(ctx context.Context, args []string, logger *slog.Logger) error {
		return runInstall(ctx, args, command, &params, logger)
	}
	return command
}

func runInstall(ctx context.Context, args []string, command *cli.Command, params *installParams, logger *slog.Logger) error {
	if len(args) > 0 {
		return cli.Validation("install takes no positional arguments, got %q", args[0])
	}

	if params.Profile != "" {
		prof, err := loadProfile(params.Profile)
		if err != nil {
			return err
		}
		applyProfile(params, prof, command.Changed)
	}

	desired, err := buildDesired(params)
	if err != nil {
		return err
	}
	paths, err := install.DefaultPaths(desired.Mode, desired.RootDirectory)
	if err != nil {
		return cli.Internal("resolving install paths: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, params.Timeout)
	defer cancel()

	logger = logger.With("mode", string(desired.Mode))

	eng, err := newEngine(desired, paths, logger)
	if err != nil {
		return cli.Validation("%w", err)
	}

	report, convergeErr := eng.converge(ctx)

	if done, emitErr := params.EmitJSON(report); done {
		if emitErr != nil {
			return emitErr
		}
	} else {
		report.Render(os.Stdout)
	}

	if convergeErr != nil {
		return categorize(convergeErr)
	}
	return nil
}

// buildDesired validates the merged parameters and assembles the
// desired state the engine converges on.
func buildDesired(params *installParams) (install.DesiredState, error) {
	mode := install.ModeSystem
	if params.User {
		mode = install.ModeUser
	}

	if params.Version == "" {
		return install.DesiredState{}, cli.Validation("--version must not be empty").
			WithHint("Pass a release tag like --version 1.4.2, or drop the flag to install the latest release.")
	}

	key := params.OnboardingKey
	if params.OnboardingKeyFile != "" {
		if key != "" {
			return install.DesiredState{}, cli.Validation("--onboarding-key and --onboarding-key-file are mutually exclusive")
		}
		raw, err := os.ReadFile(params.OnboardingKeyFile)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return install.DesiredState{}, cli.NotFound("onboarding key file %s does not exist", params.OnboardingKeyFile)
			}
			return install.DesiredState{}, cli.Internal("reading onboarding key file: %w", err)
		}
		key = strings.TrimSpace(string(raw))
		if key == "" {
			return install.DesiredState{}, cli.Validation("onboarding key file %s is empty", params.OnboardingKeyFile)
		}
	}

	connectAs := params.ConnectAs
	if connectAs == "" {
		if hostname, err := os.Hostname(); err == nil {
			connectAs = hostname
		}
	}

	return install.DesiredState{
		Version:          params.Version,
		Mode:             mode,
		RootDirectory:    params.RootDirectory,
		CoreAddress:      params.CoreAddress,
		ConnectAs:        connectAs,
		OnboardingKey:    key,
		ForceServiceFile: params.ForceServiceFile,
		ReleaseBaseURL:   params.ReleaseBase,
		BinaryURL:        params.BinaryURL,
		ConfigURL:        params.ConfigURL,
		DryRun:           params.DryRun,
	}, nil
}

// categorize maps an engine failure to the exit surface: a category
// for scripts and a recovery hint for the operator. Errors that are
// already categorized pass through unchanged.
func categorize(err error) error {
	var toolErr *cli.ToolError
	if errors.As(err, &toolErr) {
		return err
	}

	switch {
	case install.IsVersionNotFound(err):
		return cli.NotFound("%w", err).
			WithHint("Run 'outpost-install status --check-latest' to see what the release host publishes, or drop --version to install the newest release.")
	case install.IsPermission(err):
		return cli.Forbidden("%w", err).
			WithHint("System installs need root. Re-run under sudo, or pass --user for a per-user install.")
	}

	var unsupported *install.UnsupportedPlatformError
	if errors.As(err, &unsupported) {
		return cli.Internal("%w", err)
	}
	var download *install.DownloadError
	if errors.As(err, &download) {
		return cli.Transient("%w", err).
			WithHint("The release host may be briefly unavailable. Re-running is safe; every stage re-derives its work from disk state.")
	}
	var manager *install.ServiceManagerError
	if errors.As(err, &manager) {
		return cli.Internal("%w", err).
			WithHint("Inspect the unit with 'systemctl status %s' and 'journalctl -u %s'.", install.UnitName, install.UnitName)
	}

	return err
}
