// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"context"

	"github.com/bureau-foundation/outpost/lib/install"
	"github.com/bureau-foundation/outpost/lib/platform"
)

// Artifact is the fully resolved download plan for one install run.
// It is computed from the version request plus the detected
// architecture and never persisted.
type Artifact struct {
	// Version is the concrete release tag, after "latest" resolution.
	Version string

	// BinaryURL is where the agent binary is downloaded from.
	BinaryURL string

	// BinaryAssetName is the asset file name, retained so the fetcher
	// can pick the decompressor from its extension.
	BinaryAssetName string

	// BinaryDigest is the expected sha256 (hex) of the installed
	// payload. Empty when the source is an operator override with no
	// index entry to promise one.
	BinaryDigest string

	// BinarySize is the expected payload size in bytes. Zero when
	// unknown.
	BinarySize int64

	// ConfigTemplateURL is where the default config template is
	// downloaded from. Empty when the release publishes no template;
	// the installer then falls back to its embedded default.
	ConfigTemplateURL string
}

// Resolve maps a version request and detected architecture to a
// concrete Artifact using the release index. A missing tag, or a tag
// with no binary asset for the architecture, fails with
// install.VersionNotFoundError.
func (c *Client) Resolve(ctx context.Context, versionRequest string, arch platform.Architecture) (Artifact, error) {
	index, err := c.FetchIndex(ctx)
	if err != nil {
		return Artifact{}, err
	}

	selected, err := index.Select(versionRequest)
	if err != nil {
		return Artifact{}, err
	}

	binary, found := findBinaryAsset(&selected, arch)
	if !found {
		return Artifact{}, &install.VersionNotFoundError{
			Version:      selected.Version,
			Architecture: string(arch),
		}
	}

	artifact := Artifact{
		Version:         selected.Version,
		BinaryURL:       c.AssetURL(selected.Version, binary.Name),
		BinaryAssetName: binary.Name,
		BinaryDigest:    binary.SHA256,
		BinarySize:      binary.Size,
	}
	if template, ok := selected.Asset(install.ConfigFileName); ok {
		artifact.ConfigTemplateURL = c.AssetURL(selected.Version, template.Name)
	}

	c.logger.Info("resolved release",
		"requested", versionRequest,
		"version", artifact.Version,
		"binary_asset", binary.Name,
	)
	return artifact, nil
}

// findBinaryAsset locates the agent binary asset for the architecture.
// Candidates are tried in preference order: the plain binary first,
// then compressed variants.
func findBinaryAsset(release *Release, arch platform.Architecture) (Asset, bool) {
	base := binaryAssetName(arch)
	for _, name := range []string{base, base + ".zst", base + ".gz"} {
		if asset, ok := release.Asset(name); ok {
			return asset, true
		}
	}
	return Asset{}, false
}

// binaryAssetName returns the published binary file name for an
// architecture: unsuffixed for the baseline, "-<arch>"-suffixed
// otherwise.
func binaryAssetName(arch platform.Architecture) string {
	if arch == platform.ArchAMD64 {
		return install.BinaryName
	}
	return install.BinaryName + "-" + string(arch)
}
