// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"

	"github.com/bureau-foundation/outpost/lib/install"
)

// Index is the release index document at <base>/index.json.
type Index struct {
	// Versions lists every published release. Order in the file is
	// not significant; "latest" is computed by semver comparison, not
	// file position.
	Versions []Release `json:"versions"`
}

// Release is one published version and its assets.
type Release struct {
	// Version is the release tag (semver, no leading "v").
	Version string `json:"version"`

	// Assets are the files published under <base>/<version>/.
	Assets []Asset `json:"assets"`
}

// Asset is one downloadable file of a release.
type Asset struct {
	// Name is the file name under the version directory. Binary
	// assets may carry a .zst or .gz extension; the digest below
	// still describes the decompressed payload.
	Name string `json:"name"`

	// SHA256 is the lowercase hex digest of the payload as installed.
	SHA256 string `json:"sha256"`

	// Size is the payload size in bytes as installed.
	Size int64 `json:"size"`
}

// Validate checks the structural invariants a usable index satisfies.
func (index *Index) Validate() error {
	if len(index.Versions) == 0 {
		return fmt.Errorf("release index lists no versions")
	}
	for _, release := range index.Versions {
		if release.Version == "" {
			return fmt.Errorf("release index entry has an empty version")
		}
		if _, err := goversion.NewVersion(release.Version); err != nil {
			return fmt.Errorf("release index lists unparseable version %q: %w", release.Version, err)
		}
		if len(release.Assets) == 0 {
			return fmt.Errorf("release %s lists no assets", release.Version)
		}
		for _, asset := range release.Assets {
			if asset.Name == "" {
				return fmt.Errorf("release %s has an asset with no name", release.Version)
			}
		}
	}
	return nil
}

// Select returns the release matching the version request. The
// install.VersionLatest sentinel selects the highest version in semver
// order; any other request must match a published tag literally.
func (index *Index) Select(versionRequest string) (Release, error) {
	if versionRequest == install.VersionLatest {
		return index.newest()
	}
	for _, release := range index.Versions {
		if release.Version == versionRequest {
			return release, nil
		}
	}
	return Release{}, &install.VersionNotFoundError{Version: versionRequest}
}

func (index *Index) newest() (Release, error) {
	if len(index.Versions) == 0 {
		return Release{}, fmt.Errorf("release index lists no versions")
	}

	best := 0
	bestVersion, err := goversion.NewVersion(index.Versions[0].Version)
	if err != nil {
		return Release{}, fmt.Errorf("release index lists unparseable version %q: %w", index.Versions[0].Version, err)
	}
	for i := 1; i < len(index.Versions); i++ {
		candidate, err := goversion.NewVersion(index.Versions[i].Version)
		if err != nil {
			return Release{}, fmt.Errorf("release index lists unparseable version %q: %w", index.Versions[i].Version, err)
		}
		if candidate.GreaterThan(bestVersion) {
			best = i
			bestVersion = candidate
		}
	}
	return index.Versions[best], nil
}

// Asset returns the named asset of the release.
func (r *Release) Asset(name string) (Asset, bool) {
	for _, asset := range r.Assets {
		if asset.Name == name {
			return asset, true
		}
	}
	return Asset{}, false
}
