// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package systemd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sdbus "github.com/coreos/go-systemd/v22/dbus"
	godbus "github.com/godbus/dbus/v5"

	"github.com/bureau-foundation/outpost/lib/install"
)

// DBusManager drives a live systemd instance over D-Bus.
type DBusManager struct {
	conn   *sdbus.Conn
	logger *slog.Logger
}

// Connect opens a connection to the service manager for the given
// install mode: the system bus for system installs, the per-user
// manager for user installs.
func Connect(ctx context.Context, mode install.Mode, logger *slog.Logger) (*DBusManager, error) {
	var conn *sdbus.Conn
	var err error
	switch mode {
	case install.ModeUser:
		conn, err = sdbus.NewUserConnectionContext(ctx)
	default:
		conn, err = sdbus.NewSystemConnectionContext(ctx)
	}
	if err != nil {
		return nil, classify("connect to service manager", "", err)
	}
	return &DBusManager{conn: conn, logger: logger}, nil
}

func (m *DBusManager) Reload(ctx context.Context) error {
	m.logger.Debug("daemon-reload")
	return classify("daemon-reload", "", m.conn.ReloadContext(ctx))
}

func (m *DBusManager) EnableUnit(ctx context.Context, unitName string) error {
	m.logger.Debug("enabling unit", "unit", unitName)
	// runtime=false makes the enablement persistent; force=true
	// replaces dangling symlinks from a previous install.
	_, _, err := m.conn.EnableUnitFilesContext(ctx, []string{unitName}, false, true)
	return classify("enable", unitName, err)
}

func (m *DBusManager) StartUnit(ctx context.Context, unitName string) error {
	m.logger.Debug("starting unit", "unit", unitName)
	return m.runJob(ctx, "start", unitName, m.conn.StartUnitContext)
}

func (m *DBusManager) RestartUnit(ctx context.Context, unitName string) error {
	m.logger.Debug("restarting unit", "unit", unitName)
	return m.runJob(ctx, "restart", unitName, m.conn.RestartUnitContext)
}

// runJob submits a start/restart job in "replace" mode and waits for
// systemd to report its result.
func (m *DBusManager) runJob(
	ctx context.Context,
	op, unitName string,
	submit func(context.Context, string, string, chan<- string) (int, error),
) error {
	results := make(chan string, 1)
	if _, err := submit(ctx, unitName, "replace", results); err != nil {
		return classify(op, unitName, err)
	}
	select {
	case result := <-results:
		if result != "done" {
			return &install.ServiceManagerError{Op: op, Unit: unitName, Err: fmt.Errorf("job finished with result %q", result)}
		}
		return nil
	case <-ctx.Done():
		return &install.ServiceManagerError{Op: op, Unit: unitName, Err: ctx.Err()}
	}
}

func (m *DBusManager) UnitState(ctx context.Context, unitName string) (UnitState, error) {
	properties, err := m.conn.GetUnitPropertiesContext(ctx, unitName)
	if err != nil {
		return UnitState{}, classify("query", unitName, err)
	}
	return UnitState{
		ActiveState:   propString(properties, "ActiveState"),
		SubState:      propString(properties, "SubState"),
		UnitFileState: propString(properties, "UnitFileState"),
	}, nil
}

func (m *DBusManager) Close() {
	m.conn.Close()
}

func propString(properties map[string]interface{}, key string) string {
	value, _ := properties[key].(string)
	return value
}

// classify maps a D-Bus failure to the installer's error taxonomy.
// Access-denied answers from the bus mean the operator lacks privilege
// for the scope (system install without root, typically); everything
// else is the service manager misbehaving.
func classify(op, unitName string, err error) error {
	if err == nil {
		return nil
	}
	var dbusErr godbus.Error
	if errors.As(err, &dbusErr) {
		switch dbusErr.Name {
		case "org.freedesktop.DBus.Error.AccessDenied",
			"org.freedesktop.DBus.Error.InteractiveAuthorizationRequired":
			return &install.PermissionError{Path: unitName, Op: op, Err: err}
		}
	}
	return &install.ServiceManagerError{Op: op, Unit: unitName, Err: err}
}
