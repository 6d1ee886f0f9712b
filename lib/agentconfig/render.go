// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentconfig

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Values are the host-specific settings spliced into a fresh config.
type Values struct {
	RootDirectory string
	CoreAddress   string
	ConnectAs     string
	OnboardingKey string
}

// Splice renders a fresh config from template by replacing the
// assignment lines for the host-specific keys in place. The splice is
// textual, not a parse-and-reserialize round trip, so the template's
// documentation comments land in the installed file unchanged.
//
// Keys with an empty value in Values are left as the template wrote
// them: an absent core address or onboarding key must not clobber a
// template that documents the empty default.
func Splice(template []byte, values Values) ([]byte, error) {
	assignments := []struct {
		key   string
		value string
	}{
		{"root_directory", values.RootDirectory},
		{"core_address", values.CoreAddress},
		{"connect_as", values.ConnectAs},
		{"onboarding_key", values.OnboardingKey},
	}

	lines := strings.Split(string(template), "\n")
	var missing []string
	for _, assignment := range assignments {
		if assignment.value == "" {
			continue
		}
		if err := checkValue(assignment.key, assignment.value); err != nil {
			return nil, err
		}
		line := assignment.key + " = " + tomlQuote(assignment.value)
		if !replaceAssignment(lines, assignment.key, line) {
			missing = append(missing, line)
		}
	}

	// Keys the template does not carry are inserted at the top level,
	// before any table header so they cannot land inside a table.
	if len(missing) > 0 {
		lines = insertTopLevel(lines, missing)
	}

	rendered := []byte(strings.Join(lines, "\n"))
	if err := verifySplice(rendered, values); err != nil {
		return nil, err
	}
	return rendered, nil
}

// replaceAssignment swaps the first top-level assignment of key for
// line. Commented-out assignments and doc comments are not touched.
func replaceAssignment(lines []string, key, line string) bool {
	for i, existing := range lines {
		trimmed := strings.TrimLeft(existing, " \t")
		if !strings.HasPrefix(trimmed, key) {
			continue
		}
		rest := strings.TrimLeft(trimmed[len(key):], " \t")
		if !strings.HasPrefix(rest, "=") {
			continue
		}
		lines[i] = line
		return true
	}
	return false
}

// insertTopLevel places the given assignment lines before the first
// table header, or at the end of the file when there is none.
func insertTopLevel(lines, assignments []string) []string {
	insertAt := len(lines)
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "[") {
			insertAt = i
			break
		}
	}
	result := make([]string, 0, len(lines)+len(assignments)+1)
	result = append(result, lines[:insertAt]...)
	if insertAt == len(lines) && len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
		result = append(result, "")
	}
	result = append(result, assignments...)
	result = append(result, lines[insertAt:]...)
	return result
}

// verifySplice parses the rendered config and checks that every
// non-empty value actually took effect. This catches both a malformed
// template and a splice that landed somewhere TOML does not read as a
// top-level key.
func verifySplice(rendered []byte, values Values) error {
	var config Config
	if err := toml.Unmarshal(rendered, &config); err != nil {
		return fmt.Errorf("config template is not valid TOML after splice: %w", err)
	}
	checks := []struct {
		key  string
		want string
		got  string
	}{
		{"root_directory", values.RootDirectory, config.RootDirectory},
		{"core_address", values.CoreAddress, config.CoreAddress},
		{"connect_as", values.ConnectAs, config.ConnectAs},
		{"onboarding_key", values.OnboardingKey, config.OnboardingKey},
	}
	for _, check := range checks {
		if check.want != "" && check.got != check.want {
			return fmt.Errorf("config template splice failed: %s reads back as %q, want %q", check.key, check.got, check.want)
		}
	}
	return nil
}

// checkValue rejects values that cannot be written as a TOML basic
// string with plain backslash escaping.
func checkValue(key, value string) error {
	for _, r := range value {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%s contains a control character and cannot be written to the config", key)
		}
	}
	return nil
}

// tomlQuote renders value as a TOML basic (double-quoted) string.
// Control characters are rejected by checkValue before this runs, so
// escaping backslash and double quote is sufficient.
func tomlQuote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
