// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package install

// VersionLatest is the version sentinel that resolves to the newest
// published release instead of a pinned tag.
const VersionLatest = "latest"

// DesiredState is the fully resolved target configuration for one
// install run. It is constructed once from operator input (flags,
// profile, environment) before any stage executes and is read-only
// thereafter. Host facts (architecture, service manager) are NOT part
// of the desired state; they are probed fresh each run.
type DesiredState struct {
	// Version is the requested release tag, or VersionLatest.
	Version string

	// Mode selects the system-wide or per-user layout.
	Mode Mode

	// RootDirectory overrides the mode's default config root when
	// non-empty.
	RootDirectory string

	// CoreAddress is the control plane the agent dials out to. Empty
	// means the agent is left in inbound-listen mode.
	CoreAddress string

	// ConnectAs is the identity name the agent reports. The CLI
	// defaults it to the host name.
	ConnectAs string

	// OnboardingKey is the one-shot registration credential. It is
	// written only into a freshly created config file; when the config
	// already exists the key is dropped with a warning.
	OnboardingKey string

	// ForceServiceFile rewrites the unit file even when one exists.
	ForceServiceFile bool

	// ReleaseBaseURL is the release host prefix under which the index
	// and versioned artifacts are published.
	ReleaseBaseURL string

	// BinaryURL, when non-empty, bypasses release resolution for the
	// agent binary and fetches exactly this URL. The download is not
	// digest-verified because no index entry describes it.
	BinaryURL string

	// ConfigURL, when non-empty, bypasses release resolution for the
	// config template.
	ConfigURL string

	// DryRun reports planned actions without touching the filesystem
	// or the service manager.
	DryRun bool
}
