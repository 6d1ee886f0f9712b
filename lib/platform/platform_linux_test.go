// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import "testing"

func TestUtsFieldStopsAtNul(t *testing.T) {
	var field [65]byte
	copy(field[:], "x86_64\x00garbage")
	if got := utsField(field); got != "x86_64" {
		t.Errorf("utsField = %q, want %q", got, "x86_64")
	}
}

func TestUtsFieldWithoutNul(t *testing.T) {
	var field [65]byte
	for i := range field {
		field[i] = 'a'
	}
	if got := utsField(field); len(got) != 65 {
		t.Errorf("utsField length = %d, want 65", len(got))
	}
}

func TestDetectOnThisHost(t *testing.T) {
	// Detection against the real host: whatever the answer is, it must
	// be a classification, not a crash. On supported CI machines this
	// exercises the full uname + systemd path.
	platform, err := Detect()
	if err != nil {
		t.Skipf("host not a supported install target: %v", err)
	}
	if platform.Architecture == "" || platform.ServiceManager == "" {
		t.Errorf("Detect returned incomplete platform: %+v", platform)
	}
}
