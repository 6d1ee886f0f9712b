// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/outpost/lib/install"
)

// Reconcile ensures a config file exists at path. A pre-existing file
// is left byte-for-byte untouched whatever it contains; only an absent
// file is written, rendered from template with values spliced in.
//
// When the file exists and values carries an onboarding key, the key
// is dropped with a warning rather than merged: rewriting an installed
// config to inject a credential would destroy operator edits, and the
// core clears used keys anyway.
func Reconcile(logger *slog.Logger, path string, template []byte, values Values) (install.Outcome, error) {
	if _, err := os.Stat(path); err == nil {
		if values.OnboardingKey != "" {
			logger.Warn("config file already exists, onboarding key not written",
				"path", path,
				"hint", "add the key to the existing file by hand, or remove the file and re-run",
			)
		}
		logger.Info("config file left as found", "path", path)
		return install.OutcomeLeftExisting, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	rendered, err := Splice(template, values)
	if err != nil {
		return "", err
	}

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", wrapPermission("create config directory", directory, err)
	}

	// Temp file plus rename, so a crash mid-write cannot leave a
	// half-written config that a later run would then refuse to touch.
	tmpFile, err := os.CreateTemp(directory, "."+filepath.Base(path)+"-*")
	if err != nil {
		return "", wrapPermission("create temp file in", directory, err)
	}
	tmpPath := tmpFile.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(rendered); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	// 0600: the config may hold the onboarding key.
	if err := tmpFile.Chmod(0o600); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", wrapPermission("install config at", path, err)
	}
	success = true

	logger.Info("config file created", "path", path)
	return install.OutcomeCreated, nil
}

func wrapPermission(op, path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return &install.PermissionError{Path: path, Op: op, Err: err}
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}
