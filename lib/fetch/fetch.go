// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/outpost/lib/binhash"
	"github.com/bureau-foundation/outpost/lib/install"
	"github.com/bureau-foundation/outpost/lib/version"
)

// maxArtifactSize caps how much of a response body Download will read.
// The agent binary is tens of megabytes; anything approaching this
// limit is a misconfigured URL, not a release.
const maxArtifactSize = 512 << 20

// Config configures a Fetcher. The zero value is usable: it gets a
// fresh retrying client and the default logger.
type Config struct {
	// HTTPClient issues the download requests. Defaults to
	// NewRetryClient so transient release-host failures are retried.
	HTTPClient *http.Client

	// Logger receives download progress. Defaults to slog.Default().
	Logger *slog.Logger
}

// Fetcher downloads release artifacts and installs the agent binary.
type Fetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// New returns a Fetcher for the given configuration.
func New(config Config) *Fetcher {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = NewRetryClient(logger)
	}
	return &Fetcher{httpClient: httpClient, logger: logger}
}

// Download fetches the artifact at url, decompresses it according to
// the compression suffix of assetName, and verifies the result against
// wantDigest (lowercase hex SHA256) and wantSize. Digest and size
// describe the decompressed payload. An empty wantDigest skips the
// digest check and a negative wantSize skips the size check; both are
// only ever skipped for operator-supplied override URLs that bypass
// the release index.
//
// Every failure path returns a *install.DownloadError naming the URL.
func (f *Fetcher) Download(ctx context.Context, url, assetName, wantDigest string, wantSize int64) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &install.DownloadError{URL: url, Err: err}
	}
	request.Header.Set("User-Agent", version.UserAgent())

	response, err := f.httpClient.Do(request)
	if err != nil {
		return nil, &install.DownloadError{URL: url, Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, &install.DownloadError{URL: url, Err: fmt.Errorf("HTTP %d", response.StatusCode)}
	}

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxArtifactSize+1))
	if err != nil {
		return nil, &install.DownloadError{URL: url, Err: fmt.Errorf("reading response: %w", err)}
	}
	if len(raw) > maxArtifactSize {
		return nil, &install.DownloadError{URL: url, Err: fmt.Errorf("artifact exceeds %d bytes", maxArtifactSize)}
	}

	payload, err := decompress(assetName, raw)
	if err != nil {
		return nil, &install.DownloadError{URL: url, Err: err}
	}

	if wantSize >= 0 && int64(len(payload)) != wantSize {
		return nil, &install.DownloadError{
			URL: url,
			Err: fmt.Errorf("size mismatch: got %d bytes, index promised %d", len(payload), wantSize),
		}
	}
	if wantDigest != "" {
		got := binhash.HashBytes(payload)
		want, err := binhash.Parse(wantDigest)
		if err != nil {
			return nil, &install.DownloadError{URL: url, Err: fmt.Errorf("index digest unusable: %w", err)}
		}
		if got != want {
			return nil, &install.DownloadError{
				URL: url,
				Err: fmt.Errorf("digest mismatch: got %s, index promised %s", got, want),
			}
		}
	} else {
		f.logger.Debug("no digest published for artifact, skipping verification", "url", url)
	}

	f.logger.Debug("artifact downloaded",
		"url", url,
		"compressed_bytes", len(raw),
		"payload_bytes", len(payload),
	)
	return payload, nil
}

// InstallBinary writes payload to destPath with mode 0755 via a temp
// file in the destination directory and an atomic rename. An existing
// file at destPath is replaced unconditionally; the digest check in
// Download already established the payload is the one the operator
// asked for, and a damaged or stale binary at the destination must
// never survive an install run. Permission failures are reported as
// *install.PermissionError.
func (f *Fetcher) InstallBinary(payload []byte, destPath string) error {
	directory := filepath.Dir(destPath)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return wrapPermission("create binary directory", directory, err)
	}

	// The temp file lives next to the destination so the rename stays
	// on one filesystem.
	tmpFile, err := os.CreateTemp(directory, "."+filepath.Base(destPath)+"-*")
	if err != nil {
		return wrapPermission("create temp file in", directory, err)
	}
	tmpPath := tmpFile.Name()

	// Clean up the temp file on any error path.
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := tmpFile.Chmod(0o755); err != nil {
		tmpFile.Close()
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	// Flush before the rename so a crash cannot leave the destination
	// pointing at a torn binary.
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return wrapPermission("install binary at", destPath, err)
	}
	success = true

	f.logger.Info("binary installed", "path", destPath, "bytes", len(payload))
	return nil
}

func wrapPermission(op, path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return &install.PermissionError{Path: path, Op: op, Err: err}
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}
