// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
)

func TestHashFileMatchesHashBytes(t *testing.T) {
	content := []byte("outpostd binary payload")
	path := filepath.Join(t.TempDir(), "outpostd")
	if err := os.WriteFile(path, content, 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fromFile, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if fromBytes := HashBytes(content); fromFile != fromBytes {
		t.Errorf("HashFile = %s, HashBytes = %s", fromFile, fromBytes)
	}
}

func TestHashFileStreamsLargeContent(t *testing.T) {
	// Larger than any internal copy buffer so the streaming path is
	// actually exercised.
	content := make([]byte, 512*1024)
	for i := range content {
		content[i] = byte(i % 249)
	}
	path := filepath.Join(t.TempDir(), "outpostd")
	if err := os.WriteFile(path, content, 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if want := Digest(sha256.Sum256(content)); got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}
}

func TestHashFileNonexistent(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("HashFile should fail for a missing file")
	}
}

func TestDigestStringParseRoundTrip(t *testing.T) {
	original := HashBytes([]byte("round trip"))
	encoded := original.String()
	if len(encoded) != 64 {
		t.Fatalf("encoded digest length = %d, want 64", len(encoded))
	}

	parsed, err := Parse(encoded)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed != original {
		t.Errorf("round trip mismatch: %s != %s", parsed, original)
	}
}

func TestParseRejectsMalformedDigests(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not hex", "zz" + HashBytes(nil).String()[2:]},
		{"too short", "abcdef"},
		{"too long", HashBytes(nil).String() + "00"},
		{"empty", ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Parse(test.input); err == nil {
				t.Errorf("Parse(%q) should fail", test.input)
			}
		})
	}
}
