// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"

	"github.com/bureau-foundation/outpost/lib/agentconfig"
	"github.com/bureau-foundation/outpost/lib/binhash"
	"github.com/bureau-foundation/outpost/lib/clock"
	"github.com/bureau-foundation/outpost/lib/fetch"
	"github.com/bureau-foundation/outpost/lib/install"
	"github.com/bureau-foundation/outpost/lib/platform"
	"github.com/bureau-foundation/outpost/lib/release"
	"github.com/bureau-foundation/outpost/lib/systemd"
)

// resolver is the slice of the release client the engine uses.
type resolver interface {
	Resolve(ctx context.Context, versionRequest string, arch platform.Architecture) (release.Artifact, error)
}

// engine runs the install pipeline against one host. Every external
// touchpoint (host probe, release index, downloads, service manager,
// time) is a field, so scenario tests drive the whole pipeline with
// fakes; newEngine fills in the production implementations.
type engine struct {
	desired install.DesiredState
	paths   install.Paths

	probe          func() (platform.Platform, error)
	resolver       resolver
	fetcher        *fetch.Fetcher
	connectManager func(ctx context.Context) (systemd.Manager, error)
	clock          clock.Clock
	logger         *slog.Logger
}

// newEngine wires a production engine: live host probe, retrying HTTP
// client shared by index and artifact requests, D-Bus service manager
// for the desired mode. The release client is only constructed when
// the run actually resolves against the index; a --binary-url override
// run never touches it.
func newEngine(desired install.DesiredState, paths install.Paths, logger *slog.Logger) (*engine, error) {
	httpClient := fetch.NewRetryClient(logger)

	eng := &engine{
		desired: desired,
		paths:   paths,
		probe:   platform.Detect,
		fetcher: fetch.New(fetch.Config{HTTPClient: httpClient, Logger: logger}),
		connectManager: func(ctx context.Context) (systemd.Manager, error) {
			return systemd.Connect(ctx, desired.Mode, logger)
		},
		clock:  clock.Real(),
		logger: logger,
	}

	if desired.BinaryURL == "" {
		client, err := release.NewClient(release.Config{
			BaseURL:    desired.ReleaseBaseURL,
			HTTPClient: httpClient,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		eng.resolver = client
	}
	return eng, nil
}

// converge executes the pipeline stage by stage. The returned report
// always covers every stage; on failure the failing stage records the
// cause, the remaining stages record skipped, and the error comes back
// alongside the report so the caller can both render and exit.
func (e *engine) converge(ctx context.Context) (*install.Report, error) {
	report := &install.Report{
		Mode:   e.desired.Mode,
		Paths:  e.paths,
		DryRun: e.desired.DryRun,
	}

	host, err := e.probe()
	if err != nil {
		report.RecordFailure(install.StageDetect, err)
		return report, err
	}
	report.Architecture = string(host.Architecture)
	report.ServiceManager = string(host.ServiceManager)
	report.Record(install.StageDetect, install.OutcomeOK,
		fmt.Sprintf("%s, %s", host.Architecture, host.ServiceManager))

	artifact, err := e.resolve(ctx, host.Architecture)
	if err != nil {
		report.RecordFailure(install.StageResolve, err)
		return report, err
	}
	report.Version = artifact.Version
	resolveDetail := fmt.Sprintf("%s (%s)", artifact.Version, artifact.BinaryAssetName)
	if e.desired.BinaryURL != "" {
		resolveDetail = "operator-supplied binary URL"
	}
	report.Record(install.StageResolve, install.OutcomeOK, resolveDetail)

	if e.desired.DryRun {
		e.plan(report, artifact)
		return report, nil
	}

	// The digest of whatever binary is already installed decides later
	// whether a running service needs a restart.
	previousDigest, previousErr := binhash.HashFile(e.paths.BinaryPath)
	hadPrevious := previousErr == nil

	payload, err := e.fetchBinary(ctx, artifact)
	if err != nil {
		report.RecordFailure(install.StageFetch, err)
		return report, err
	}
	if err := e.fetcher.InstallBinary(payload, e.paths.BinaryPath); err != nil {
		report.RecordFailure(install.StageFetch, err)
		return report, err
	}
	binaryChanged := !hadPrevious || binhash.HashBytes(payload) != previousDigest
	fetchDetail := fmt.Sprintf("%d bytes to %s", len(payload), e.paths.BinaryPath)
	if hadPrevious && !binaryChanged {
		fetchDetail += " (content unchanged)"
	}
	report.Record(install.StageFetch, install.OutcomeRefreshed, fetchDetail)

	template, err := e.configTemplate(ctx, artifact)
	if err != nil {
		report.RecordFailure(install.StageConfigFile, err)
		return report, err
	}
	configOutcome, err := agentconfig.Reconcile(e.logger, e.paths.ConfigPath, template, agentconfig.Values{
		RootDirectory: e.paths.RootDirectory,
		CoreAddress:   e.desired.CoreAddress,
		ConnectAs:     e.desired.ConnectAs,
		OnboardingKey: e.desired.OnboardingKey,
	})
	if err != nil {
		report.RecordFailure(install.StageConfigFile, err)
		return report, err
	}
	report.Record(install.StageConfigFile, configOutcome, e.paths.ConfigPath)

	manager, err := e.connectManager(ctx)
	if err != nil {
		report.RecordFailure(install.StageServiceUnit, err)
		return report, err
	}
	defer manager.Close()

	reconciler := systemd.NewReconciler(manager, e.logger, e.clock)
	unitOutcome, err := reconciler.Reconcile(ctx, e.paths.UnitPath, systemd.DefaultSpec(e.desired.Mode, e.paths), systemd.Options{
		Force:         e.desired.ForceServiceFile,
		BinaryChanged: binaryChanged,
	})
	if err != nil {
		report.RecordFailure(install.StageServiceUnit, err)
		return report, err
	}
	report.Record(install.StageServiceUnit, unitOutcome, e.paths.UnitPath)

	return report, nil
}

// resolve produces the download plan. Operator URL overrides bypass
// the release index entirely; otherwise the index decides, and a
// --config-url override replaces only the template source.
func (e *engine) resolve(ctx context.Context, arch platform.Architecture) (release.Artifact, error) {
	if e.desired.BinaryURL != "" {
		artifact := release.Artifact{
			BinaryURL:         e.desired.BinaryURL,
			BinaryAssetName:   assetNameFromURL(e.desired.BinaryURL),
			ConfigTemplateURL: e.desired.ConfigURL,
		}
		if e.desired.Version != install.VersionLatest {
			artifact.Version = e.desired.Version
		}
		return artifact, nil
	}

	artifact, err := e.resolver.Resolve(ctx, e.desired.Version, arch)
	if err != nil {
		return release.Artifact{}, err
	}
	if e.desired.ConfigURL != "" {
		artifact.ConfigTemplateURL = e.desired.ConfigURL
	}
	return artifact, nil
}

// fetchBinary downloads the agent binary payload. Index-resolved
// artifacts are verified against the digest and size the index
// promised; override URLs have no index entry, so their checks are
// skipped.
func (e *engine) fetchBinary(ctx context.Context, artifact release.Artifact) ([]byte, error) {
	wantSize := artifact.BinarySize
	if wantSize == 0 {
		wantSize = -1
	}
	return e.fetcher.Download(ctx, artifact.BinaryURL, artifact.BinaryAssetName, artifact.BinaryDigest, wantSize)
}

// configTemplate returns the template a fresh config file is rendered
// from: the release's published template when there is one, the
// embedded default otherwise.
func (e *engine) configTemplate(ctx context.Context, artifact release.Artifact) ([]byte, error) {
	if artifact.ConfigTemplateURL == "" {
		return agentconfig.DefaultTemplate(), nil
	}
	return e.fetcher.Download(ctx, artifact.ConfigTemplateURL, assetNameFromURL(artifact.ConfigTemplateURL), "", -1)
}

// plan records what the remaining stages would do. The filesystem is
// only statted; nothing is fetched or written, and the service manager
// is never contacted.
func (e *engine) plan(report *install.Report, artifact release.Artifact) {
	report.Record(install.StageFetch, install.OutcomeRefreshed,
		fmt.Sprintf("would install %s to %s", artifact.BinaryURL, e.paths.BinaryPath))

	configOutcome := install.OutcomeCreated
	configDetail := "would create " + e.paths.ConfigPath
	if _, err := os.Stat(e.paths.ConfigPath); err == nil {
		configOutcome = install.OutcomeLeftExisting
		configDetail = e.paths.ConfigPath + " exists, would leave as found"
	}
	report.Record(install.StageConfigFile, configOutcome, configDetail)

	unitOutcome := install.OutcomeCreated
	unitDetail := "would create " + e.paths.UnitPath + " and start the service"
	if _, err := os.Stat(e.paths.UnitPath); err == nil {
		if e.desired.ForceServiceFile {
			unitOutcome = install.OutcomeRecreated
			unitDetail = "would rewrite " + e.paths.UnitPath + " and restart the service"
		} else {
			unitOutcome = install.OutcomeLeftExisting
			unitDetail = e.paths.UnitPath + " exists, would leave as found"
		}
	}
	report.Record(install.StageServiceUnit, unitOutcome, unitDetail)
}

// assetNameFromURL extracts the file name from an override URL so the
// fetcher can pick a decompressor from its extension.
func assetNameFromURL(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		return path.Base(parsed.Path)
	}
	return path.Base(rawURL)
}
