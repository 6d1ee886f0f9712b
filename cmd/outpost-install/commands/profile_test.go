// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/outpost/cmd/outpost-install/cli"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, `
version: "1.4.2"
user: true
core-address: 10.0.0.5
connect-as: web-7
release-base: https://mirror.internal/outpost
force-service-file: false
`)
	prof, err := loadProfile(path)
	if err != nil {
		t.Fatalf("loadProfile: %v", err)
	}

	if prof.Version != "1.4.2" {
		t.Errorf("Version = %q", prof.Version)
	}
	if prof.User == nil || !*prof.User {
		t.Error("user: true did not parse")
	}
	if prof.ForceServiceFile == nil || *prof.ForceServiceFile {
		t.Error("force-service-file: false should parse as an explicit false")
	}
	if prof.CoreAddress != "10.0.0.5" || prof.ConnectAs != "web-7" {
		t.Errorf("addresses = %q / %q", prof.CoreAddress, prof.ConnectAs)
	}
	if prof.ReleaseBase != "https://mirror.internal/outpost" {
		t.Errorf("ReleaseBase = %q", prof.ReleaseBase)
	}
}

func TestLoadProfileExpandsEnvironment(t *testing.T) {
	t.Setenv("OUTPOST_TEST_CORE", "core.fleet.internal:4433")
	os.Unsetenv("OUTPOST_TEST_NAME")
	os.Unsetenv("OUTPOST_TEST_KEY")
	path := writeProfile(t, `
core-address: ${OUTPOST_TEST_CORE}
connect-as: ${OUTPOST_TEST_NAME:-unnamed-host}
onboarding-key: "${OUTPOST_TEST_KEY}"
`)
	prof, err := loadProfile(path)
	if err != nil {
		t.Fatalf("loadProfile: %v", err)
	}

	if prof.CoreAddress != "core.fleet.internal:4433" {
		t.Errorf("CoreAddress = %q, want the expanded variable", prof.CoreAddress)
	}
	if prof.ConnectAs != "unnamed-host" {
		t.Errorf("ConnectAs = %q, want the fallback for an unset variable", prof.ConnectAs)
	}
	// Unset with no fallback expands to empty, which applyProfile then
	// treats as absent.
	if prof.OnboardingKey != "" {
		t.Errorf("OnboardingKey = %q, want empty", prof.OnboardingKey)
	}
}

func TestLoadProfileRejectsUnknownKeys(t *testing.T) {
	path := writeProfile(t, "verion: 1.4.2\n")
	_, err := loadProfile(path)
	if err == nil {
		t.Fatal("a misspelled profile key should be rejected")
	}
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryValidation {
		t.Fatalf("error = %v, want a validation ToolError", err)
	}
	if !strings.Contains(toolErr.Hint, "mirror the install flag names") {
		t.Errorf("hint %q should point at the valid key vocabulary", toolErr.Hint)
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := loadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryNotFound {
		t.Fatalf("error = %v, want a not-found ToolError", err)
	}
}

func TestLoadProfileEmptyFile(t *testing.T) {
	path := writeProfile(t, "")
	prof, err := loadProfile(path)
	if err != nil {
		t.Fatalf("an empty profile should load: %v", err)
	}
	if prof.Version != "" || prof.User != nil {
		t.Errorf("empty profile produced values: %+v", prof)
	}
}

func TestApplyProfileRespectsExplicitFlags(t *testing.T) {
	userTrue := true
	prof := &profile{
		Version:     "1.0.0",
		User:        &userTrue,
		CoreAddress: "10.1.1.1",
		ConnectAs:   "from-profile",
	}

	params := &installParams{
		Version:   "1.4.2",
		ConnectAs: "from-flag",
	}
	changedFlags := map[string]bool{"version": true, "connect-as": true}
	applyProfile(params, prof, func(name string) bool { return changedFlags[name] })

	if params.Version != "1.4.2" {
		t.Errorf("Version = %q, explicit flag should win over the profile", params.Version)
	}
	if params.ConnectAs != "from-flag" {
		t.Errorf("ConnectAs = %q, explicit flag should win over the profile", params.ConnectAs)
	}
	if params.CoreAddress != "10.1.1.1" {
		t.Errorf("CoreAddress = %q, unset flag should take the profile value", params.CoreAddress)
	}
	if !params.User {
		t.Error("User should be filled from the profile")
	}
}

func TestApplyProfileLeavesDefaultsWhenEmpty(t *testing.T) {
	params := &installParams{
		Version:     "latest",
		ReleaseBase: "https://releases.bureau-foundation.org/outpost",
	}
	applyProfile(params, &profile{}, func(string) bool { return false })

	if params.Version != "latest" {
		t.Errorf("Version = %q, empty profile must not clear defaults", params.Version)
	}
	if params.ReleaseBase != "https://releases.bureau-foundation.org/outpost" {
		t.Errorf("ReleaseBase = %q, empty profile must not clear defaults", params.ReleaseBase)
	}
}
