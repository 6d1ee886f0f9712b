// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bureau-foundation/outpost/cmd/outpost-install/cli"
	"github.com/bureau-foundation/outpost/lib/agentconfig"
	"github.com/bureau-foundation/outpost/lib/binhash"
	"github.com/bureau-foundation/outpost/lib/fetch"
	"github.com/bureau-foundation/outpost/lib/install"
	"github.com/bureau-foundation/outpost/lib/platform"
	"github.com/bureau-foundation/outpost/lib/release"
	"github.com/bureau-foundation/outpost/lib/systemd"
)

// checkStatus is the outcome of one status check.
type checkStatus string

const (
	statusPass checkStatus = "pass"
	statusFail checkStatus = "fail"
	statusWarn checkStatus = "warn"
	statusSkip checkStatus = "skip"
)

// check is one read-only finding about the host.
type check struct {
	Name    string      `json:"name"    desc:"checked area"`
	Status  checkStatus `json:"status"  desc:"check outcome: pass, fail, warn, skip"`
	Message string      `json:"message" desc:"human-readable finding"`
}

// statusReport is the document the status command emits.
type statusReport struct {
	Mode   install.Mode  `json:"mode"   desc:"install mode inspected"`
	Paths  install.Paths `json:"paths"  desc:"resolved filesystem layout"`
	Checks []check       `json:"checks" desc:"per-area findings"`
	OK     bool          `json:"ok"     desc:"true when no check failed"`
}

func (r *statusReport) add(status checkStatus, name, format string, args ...any) {
	r.Checks = append(r.Checks, check{Name: name, Status: status, Message: fmt.Sprintf(format, args...)})
}

func (r *statusReport) anyFailed() bool {
	for _, c := range r.Checks {
		if c.Status == statusFail {
			return true
		}
	}
	return false
}

// statusParams holds the CLI parameters for the status command.
type statusParams struct {
	cli.JSONOutput
	User          bool          `json:"-" flag:"user"           desc:"inspect the per-user install instead of the system one"`
	RootDirectory string        `json:"-" flag:"root-directory" desc:"agent config root (overrides the mode default)"`
	CheckLatest   bool          `json:"-" flag:"check-latest"   desc:"compare the installed binary against the newest release"`
	ReleaseBase   string        `json:"-" flag:"release-base"   default:"https://releases.bureau-foundation.org/outpost" desc:"release host prefix for --check-latest"`
	Timeout       time.Duration `json:"-" flag:"timeout"        default:"30s" desc:"time budget for the run"`
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Report the agent's install and service state on this host",
		Description: `Inspect this host without changing anything: platform facts, the
installed agent binary and its content hash, the config file, the
service unit, and the running service.

With --check-latest the installed binary's hash is also compared
against what the release index publishes as the newest release, so a
fleet can tell which hosts are behind without keeping records of past
installs; the host itself is the record.

Exits with code 1 when any check fails, so the command doubles as a
monitoring probe.`,
		Usage: "outpost-install status [flags]",
		Examples: []cli.Example{
			{
				Description: "Inspect the system install",
				Command:     "outpost-install status",
			},
			{
				Description: "Check whether this host runs the newest release",
				Command:     "outpost-install status --check-latest",
			},
			{
				Description: "Machine-readable output for monitoring",
				Command:     "outpost-install status --json",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			return runStatus(ctx, args, &params, logger)
		},
	}
}

func runStatus(ctx context.Context, args []string, params *statusParams, logger *slog.Logger) error {
	if len(args) > 0 {
		return cli.Validation("status takes no positional arguments, got %q", args[0])
	}

	mode := install.ModeSystem
	if params.User {
		mode = install.ModeUser
	}
	paths, err := install.DefaultPaths(mode, params.RootDirectory)
	if err != nil {
		return cli.Internal("resolving install paths: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, params.Timeout)
	defer cancel()

	eng, err := newStatusEngine(params, mode, paths, logger)
	if err != nil {
		return cli.Validation("%w", err)
	}
	report := eng.gather(ctx)

	if done, err := params.EmitJSON(report); done {
		if err != nil {
			return err
		}
		if !report.OK {
			return &cli.ExitError{Code: 1}
		}
		return nil
	}
	return renderStatus(os.Stdout, report)
}

// statusEngine gathers the findings. The injection points mirror the
// install engine's, so tests drive the same checks against fakes.
type statusEngine struct {
	mode  install.Mode
	paths install.Paths

	probe          func() (platform.Platform, error)
	resolver       resolver
	connectManager func(ctx context.Context) (systemd.Manager, error)
	logger         *slog.Logger
}

func newStatusEngine(params *statusParams, mode install.Mode, paths install.Paths, logger *slog.Logger) (*statusEngine, error) {
	eng := &statusEngine{
		mode:  mode,
		paths: paths,
		probe: platform.Detect,
		connectManager: func(ctx context.Context) (systemd.Manager, error) {
			return systemd.Connect(ctx, mode, logger)
		},
		logger: logger,
	}
	if params.CheckLatest {
		client, err := release.NewClient(release.Config{
			BaseURL:    params.ReleaseBase,
			HTTPClient: fetch.NewRetryClient(logger),
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		eng.resolver = client
	}
	return eng, nil
}

func (s *statusEngine) gather(ctx context.Context) *statusReport {
	report := &statusReport{Mode: s.mode, Paths: s.paths}

	host, probeErr := s.probe()
	if probeErr != nil {
		report.add(statusFail, "platform", "%v", probeErr)
	} else {
		report.add(statusPass, "platform", "%s, %s", host.Architecture, host.ServiceManager)
	}

	digest, installed := s.checkBinary(report)
	s.checkConfig(report)
	s.checkUnitFile(report)
	s.checkService(ctx, report)
	if s.resolver != nil {
		s.checkLatest(ctx, report, host.Architecture, digest, installed)
	}

	report.OK = !report.anyFailed()
	return report
}

func (s *statusEngine) checkBinary(report *statusReport) (binhash.Digest, bool) {
	info, err := os.Stat(s.paths.BinaryPath)
	if errors.Is(err, fs.ErrNotExist) {
		report.add(statusFail, "agent binary", "%s not installed", s.paths.BinaryPath)
		return binhash.Digest{}, false
	}
	if err != nil {
		report.add(statusFail, "agent binary", "stat %s: %v", s.paths.BinaryPath, err)
		return binhash.Digest{}, false
	}
	if info.Mode()&0o111 == 0 {
		report.add(statusFail, "agent binary", "%s is not executable (mode %s)", s.paths.BinaryPath, info.Mode())
		return binhash.Digest{}, false
	}
	digest, err := binhash.HashFile(s.paths.BinaryPath)
	if err != nil {
		report.add(statusFail, "agent binary", "hashing %s: %v", s.paths.BinaryPath, err)
		return binhash.Digest{}, false
	}
	report.add(statusPass, "agent binary", "%s, sha256 %.12s", s.paths.BinaryPath, digest.String())
	return digest, true
}

func (s *statusEngine) checkConfig(report *statusReport) {
	config, err := agentconfig.Load(s.paths.ConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		report.add(statusFail, "config file", "%s missing", s.paths.ConfigPath)
		return
	}
	if err != nil {
		report.add(statusFail, "config file", "%v", err)
		return
	}
	if config.CoreAddress == "" {
		report.add(statusPass, "config file", "%s, inbound-listen mode (no core address)", s.paths.ConfigPath)
		return
	}
	report.add(statusPass, "config file", "%s, core %s, connect as %s", s.paths.ConfigPath, config.CoreAddress, config.ConnectAs)
}

func (s *statusEngine) checkUnitFile(report *statusReport) {
	if _, err := os.Stat(s.paths.UnitPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			report.add(statusFail, "service unit", "%s missing", s.paths.UnitPath)
		} else {
			report.add(statusFail, "service unit", "stat %s: %v", s.paths.UnitPath, err)
		}
		return
	}
	report.add(statusPass, "service unit", "%s present", s.paths.UnitPath)
}

func (s *statusEngine) checkService(ctx context.Context, report *statusReport) {
	manager, err := s.connectManager(ctx)
	if err != nil {
		report.add(statusWarn, "service", "service manager unreachable: %v", err)
		return
	}
	defer manager.Close()

	state, err := manager.UnitState(ctx, install.UnitName)
	if err != nil {
		report.add(statusWarn, "service", "querying %s: %v", install.UnitName, err)
		return
	}
	switch {
	case state.Failed():
		report.add(statusFail, "service", "%s failed (journalctl -u %s for details)", install.UnitName, install.UnitName)
	case !state.Running():
		report.add(statusFail, "service", "%s not running (%s/%s)", install.UnitName, state.ActiveState, state.SubState)
	case state.UnitFileState != "enabled":
		report.add(statusWarn, "service", "%s active but not enabled at boot (unit file state %q)", install.UnitName, state.UnitFileState)
	default:
		report.add(statusPass, "service", "%s active (%s), enabled", install.UnitName, state.SubState)
	}
}

// checkLatest compares the installed binary's digest with the digest
// the index publishes for the newest release. Being behind is a warn,
// not a fail: an older agent is still a working agent.
func (s *statusEngine) checkLatest(ctx context.Context, report *statusReport, arch platform.Architecture, digest binhash.Digest, installed bool) {
	if arch == "" {
		report.add(statusSkip, "latest release", "skipped: platform unknown")
		return
	}
	artifact, err := s.resolver.Resolve(ctx, install.VersionLatest, arch)
	if err != nil {
		report.add(statusWarn, "latest release", "cannot resolve: %v", err)
		return
	}
	if !installed {
		report.add(statusSkip, "latest release", "%s published, nothing installed to compare", artifact.Version)
		return
	}
	if artifact.BinaryDigest == "" {
		report.add(statusSkip, "latest release", "%s publishes no digest, cannot compare", artifact.Version)
		return
	}
	want, err := binhash.Parse(artifact.BinaryDigest)
	if err != nil {
		report.add(statusWarn, "latest release", "index digest unusable: %v", err)
		return
	}
	if want == digest {
		report.add(statusPass, "latest release", "installed binary matches %s", artifact.Version)
		return
	}
	report.add(statusWarn, "latest release", "installed binary differs from %s, run install to update", artifact.Version)
}

// renderStatus prints the checklist and verdict. Returns an ExitError
// when any check failed so the process exits non-zero after the
// findings are on screen.
func renderStatus(w io.Writer, report *statusReport) error {
	fmt.Fprintf(w, "mode: %s\n\n", report.Mode)
	for _, c := range report.Checks {
		fmt.Fprintf(w, "[%-4s]  %-14s  %s\n", strings.ToUpper(string(c.Status)), c.Name, c.Message)
	}
	fmt.Fprintln(w)

	if !report.OK {
		fmt.Fprintln(w, "Some checks failed. Run 'outpost-install install' to converge the host.")
		return &cli.ExitError{Code: 1}
	}
	fmt.Fprintln(w, "Host looks healthy.")
	return nil
}
