// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package systemd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/outpost/lib/clock"
	"github.com/bureau-foundation/outpost/lib/install"
)

const (
	// activationTimeout bounds how long Reconcile waits for a started
	// or restarted unit to report active.
	activationTimeout = 30 * time.Second

	// pollInterval paces the activation wait.
	pollInterval = 250 * time.Millisecond
)

// Options adjust one reconcile run.
type Options struct {
	// Force replaces an existing unit file wholesale.
	Force bool

	// BinaryChanged reports that this run installed a different agent
	// binary than the one on disk before. A running service is only
	// restarted when something it execs or reads actually changed.
	BinaryChanged bool
}

// Reconciler converges the unit file and the running service on the
// desired spec.
type Reconciler struct {
	manager Manager
	logger  *slog.Logger
	clock   clock.Clock
}

// NewReconciler returns a Reconciler driving the given manager.
func NewReconciler(manager Manager, logger *slog.Logger, clk clock.Clock) *Reconciler {
	return &Reconciler{manager: manager, logger: logger, clock: clk}
}

// Reconcile ensures the unit file at unitPath matches the one-way
// write rule (write when absent, rewrite only when forced), then
// ensures the service is enabled and running. The returned outcome
// describes what happened to the unit FILE; the service side always
// converges on enabled-and-active or fails.
//
// Restart policy for an already-running service: restarted when the
// unit file was (re)written (a stale definition stays in effect until
// restart) or when the binary changed this run; otherwise left alone.
func (r *Reconciler) Reconcile(ctx context.Context, unitPath string, spec UnitSpec, opts Options) (install.Outcome, error) {
	rendered, err := spec.Render()
	if err != nil {
		return "", err
	}

	exists := false
	if _, err := os.Stat(unitPath); err == nil {
		exists = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", unitPath, err)
	}

	outcome := install.OutcomeLeftExisting
	wrote := false
	switch {
	case !exists:
		outcome, wrote = install.OutcomeCreated, true
	case opts.Force:
		outcome, wrote = install.OutcomeRecreated, true
	}

	if wrote {
		if err := writeUnitFile(unitPath, rendered); err != nil {
			return "", err
		}
		r.logger.Info("unit file written", "path", unitPath, "outcome", string(outcome))
		if err := r.manager.Reload(ctx); err != nil {
			return "", err
		}
	} else {
		r.logger.Info("unit file left as found", "path", unitPath)
	}

	unitName := filepath.Base(unitPath)

	// Enabled in every case, including LeftExisting: a pre-existing
	// hand-authored unit that was never enabled should still come up
	// on boot after an install run.
	if err := r.manager.EnableUnit(ctx, unitName); err != nil {
		return "", err
	}

	state, err := r.manager.UnitState(ctx, unitName)
	if err != nil {
		return "", err
	}

	switch {
	case !state.Running():
		r.logger.Info("starting service", "unit", unitName)
		if err := r.manager.StartUnit(ctx, unitName); err != nil {
			return "", err
		}
	case wrote:
		r.logger.Info("restarting service to apply new unit file", "unit", unitName)
		if err := r.manager.RestartUnit(ctx, unitName); err != nil {
			return "", err
		}
	case opts.BinaryChanged:
		r.logger.Info("restarting service to apply new binary", "unit", unitName)
		if err := r.manager.RestartUnit(ctx, unitName); err != nil {
			return "", err
		}
	default:
		r.logger.Info("service already running, leaving it alone", "unit", unitName)
		return outcome, nil
	}

	if err := r.waitActive(ctx, unitName); err != nil {
		return "", err
	}
	return outcome, nil
}

// waitActive polls until the unit reports active. A unit that lands in
// the failed state aborts immediately instead of burning the timeout.
func (r *Reconciler) waitActive(ctx context.Context, unitName string) error {
	deadline := r.clock.Now().Add(activationTimeout)
	for {
		state, err := r.manager.UnitState(ctx, unitName)
		if err != nil {
			return err
		}
		if state.Running() {
			r.logger.Info("service active", "unit", unitName, "sub_state", state.SubState)
			return nil
		}
		if state.Failed() {
			return &install.ServiceManagerError{
				Op:   "start",
				Unit: unitName,
				Err:  fmt.Errorf("unit entered failed state (journalctl -u %s for details)", unitName),
			}
		}
		if r.clock.Now().After(deadline) {
			return &install.ServiceManagerError{
				Op:   "start",
				Unit: unitName,
				Err:  fmt.Errorf("unit did not become active within %s (last state %s/%s)", activationTimeout, state.ActiveState, state.SubState),
			}
		}
		select {
		case <-ctx.Done():
			return &install.ServiceManagerError{Op: "start", Unit: unitName, Err: ctx.Err()}
		case <-r.clock.After(pollInterval):
		}
	}
}

// writeUnitFile writes rendered unit content with the usual temp file
// plus rename, creating the unit directory for user-mode installs
// where ~/.config/systemd/user may not exist yet.
func writeUnitFile(unitPath string, rendered []byte) error {
	directory := filepath.Dir(unitPath)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return wrapPermission("create unit directory", directory, err)
	}

	tmpFile, err := os.CreateTemp(directory, "."+filepath.Base(unitPath)+"-*")
	if err != nil {
		return wrapPermission("create temp file in", directory, err)
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
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		tmpFile.Close()
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, unitPath); err != nil {
		return wrapPermission("write unit file", unitPath, err)
	}
	success = true
	return nil
}

func wrapPermission(op, path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return &install.PermissionError{Path: path, Op: op, Err: err}
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}
