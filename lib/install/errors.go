// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package install

import (
	"errors"
	"fmt"
)

// The installer's failure taxonomy. Every stage failure is one of these
// five types (possibly wrapping a lower-level cause); all of them abort
// the run. None is retried automatically: by the time one surfaces, the
// bounded retry budget inside the failing stage is already spent, and
// the remaining causes are environment problems the operator must fix
// before re-invoking.

// UnsupportedPlatformError reports a host whose architecture or service
// manager could not be identified from known signatures. Detection is
// deliberately conservative: an unrecognized machine fails instead of
// guessing, because a wrong guess installs an unrunnable binary.
type UnsupportedPlatformError struct {
	// Machine is the raw uname machine string, when architecture
	// detection failed.
	Machine string

	// Reason describes what was missing or unrecognized.
	Reason string
}

func (err *UnsupportedPlatformError) Error() string {
	if err.Machine != "" {
		return fmt.Sprintf("unsupported platform: %s (machine %q)", err.Reason, err.Machine)
	}
	return "unsupported platform: " + err.Reason
}

// VersionNotFoundError reports a requested release tag that does not
// exist in the release index, or exists without an artifact for the
// detected architecture.
type VersionNotFoundError struct {
	// Version is the requested tag (never the "latest" sentinel; the
	// sentinel resolves against whatever the index publishes).
	Version string

	// Architecture is the asset architecture that was looked up, when
	// the tag exists but lacks a matching asset.
	Architecture string
}

func (err *VersionNotFoundError) Error() string {
	if err.Architecture != "" {
		return fmt.Sprintf("release %s has no artifact for architecture %s", err.Version, err.Architecture)
	}
	return fmt.Sprintf("release %s not found in the release index", err.Version)
}

// DownloadError reports an artifact retrieval that failed after the
// bounded retry budget, or whose payload did not match the digest or
// size the release index promised.
type DownloadError struct {
	// URL is the artifact location.
	URL string

	// Err is the underlying cause (transport failure, HTTP status,
	// digest mismatch, size mismatch).
	Err error
}

func (err *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s: %v", err.URL, err.Err)
}

func (err *DownloadError) Unwrap() error { return err.Err }

// PermissionError reports a filesystem or service-manager write the
// host denied: unit directory not writable, binary directory not
// writable, or a manager operation rejected for lack of privilege.
// The usual cause is a system-mode install run without root.
type PermissionError struct {
	// Path is the filesystem path or unit name the operation targeted.
	Path string

	// Op names the denied operation ("write unit file", "enable unit", ...).
	Op string

	// Err is the underlying cause.
	Err error
}

func (err *PermissionError) Error() string {
	return fmt.Sprintf("%s %s: permission denied: %v", err.Op, err.Path, err.Err)
}

func (err *PermissionError) Unwrap() error { return err.Err }

// ServiceManagerError reports a service-manager request (daemon reload,
// enable, start, restart, state query) that the manager rejected or
// that did not complete in time.
type ServiceManagerError struct {
	// Op names the failed manager operation.
	Op string

	// Unit is the unit the operation targeted, when applicable.
	Unit string

	// Err is the underlying cause.
	Err error
}

func (err *ServiceManagerError) Error() string {
	if err.Unit != "" {
		return fmt.Sprintf("service manager: %s %s: %v", err.Op, err.Unit, err.Err)
	}
	return fmt.Sprintf("service manager: %s: %v", err.Op, err.Err)
}

func (err *ServiceManagerError) Unwrap() error { return err.Err }

// IsVersionNotFound reports whether err is a VersionNotFoundError.
func IsVersionNotFound(err error) bool {
	var versionErr *VersionNotFoundError
	return errors.As(err, &versionErr)
}

// IsPermission reports whether err is a PermissionError.
func IsPermission(err error) bool {
	var permissionErr *PermissionError
	return errors.As(err, &permissionErr)
}
