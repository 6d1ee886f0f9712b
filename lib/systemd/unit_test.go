// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package systemd

import (
	"strings"
	"testing"

	"github.com/bureau-foundation/outpost/lib/install"
)

func systemPaths(t *testing.T) install.Paths {
	t.Helper()
	paths, err := install.DefaultPaths(install.ModeSystem, "")
	if err != nil {
		t.Fatalf("DefaultPaths: %v", err)
	}
	return paths
}

func TestDefaultSpecSystemMode(t *testing.T) {
	rendered, err := DefaultSpec(install.ModeSystem, systemPaths(t)).Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := `[Unit]
Description=Outpost host agent
After=network-online.target
Wants=network-online.target

[Service]
ExecStart=/usr/local/bin/outpostd --root-directory /etc/outpost
WorkingDirectory=/etc/outpost
Restart=always
RestartSec=5

[Install]
WantedBy=multi-user.target
`
	if string(rendered) != want {
		t.Errorf("rendered unit:\n%s\nwant:\n%s", rendered, want)
	}
}

func TestDefaultSpecUserMode(t *testing.T) {
	t.Setenv("HOME", "/home/dev")
	paths, err := install.DefaultPaths(install.ModeUser, "")
	if err != nil {
		t.Fatalf("DefaultPaths: %v", err)
	}

	spec := DefaultSpec(install.ModeUser, paths)
	rendered, err := spec.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	text := string(rendered)
	if !strings.Contains(text, "WantedBy=default.target") {
		t.Error("user unit should install into default.target")
	}
	if strings.Contains(text, "network-online.target") {
		t.Error("user managers have no network-online.target; the dependency must not appear")
	}
	if !strings.Contains(text, "ExecStart=/home/dev/.local/bin/outpostd --root-directory /home/dev/.config/outpost") {
		t.Errorf("unexpected ExecStart in:\n%s", text)
	}
}

func TestRenderQuotesWhitespacePaths(t *testing.T) {
	line := execLine("/home/dev user/.local/bin/outpostd", "--root-directory", "/home/dev user/outpost")
	want := `"/home/dev user/.local/bin/outpostd" --root-directory "/home/dev user/outpost"`
	if line != want {
		t.Errorf("execLine = %q, want %q", line, want)
	}
}

func TestRenderOptionalFields(t *testing.T) {
	spec := UnitSpec{
		Description:      "Outpost host agent",
		ExecStart:        "/usr/local/bin/outpostd",
		WorkingDirectory: "/var/lib/outpost",
		Environment:      []string{"OUTPOST_LOG_LEVEL=debug"},
		User:             "outpost",
		Group:            "outpost",
		RestartSec:       10,
		WantedBy:         "multi-user.target",
	}
	rendered, err := spec.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := string(rendered)
	for _, want := range []string{
		"WorkingDirectory=/var/lib/outpost",
		"Environment=OUTPOST_LOG_LEVEL=debug",
		"User=outpost",
		"Group=outpost",
		"RestartSec=10",
		"Restart=always",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered unit missing %q:\n%s", want, text)
		}
	}
}

func TestRenderRejectsIncompleteSpecs(t *testing.T) {
	if _, err := (UnitSpec{WantedBy: "multi-user.target"}).Render(); err == nil {
		t.Error("Render should reject a spec without ExecStart")
	}
	if _, err := (UnitSpec{ExecStart: "/usr/local/bin/outpostd"}).Render(); err == nil {
		t.Error("Render should reject a spec without WantedBy")
	}
}
