// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/outpost/cmd/outpost-install/cli"
)

// profile holds the install defaults an operator keeps per fleet.
// Keys mirror the install flag names. Bool fields are pointers so an
// absent key is distinguishable from an explicit false.
type profile struct {
	Version           string `yaml:"version"`
	User              *bool  `yaml:"user"`
	RootDirectory     string `yaml:"root-directory"`
	CoreAddress       string `yaml:"core-address"`
	ConnectAs         string `yaml:"connect-as"`
	OnboardingKey     string `yaml:"onboarding-key"`
	OnboardingKeyFile string `yaml:"onboarding-key-file"`
	ForceServiceFile  *bool  `yaml:"force-service-file"`
	BinaryURL         string `yaml:"binary-url"`
	ConfigURL         string `yaml:"config-url"`
	ReleaseBase       string `yaml:"release-base"`
}

// loadProfile reads an install profile: YAML keyed by flag name, with
// shell-style ${VAR} and ${VAR:-default} environment references
// expanded before parsing. Unknown keys are rejected, so a typo in a
// fleet profile surfaces here instead of silently installing defaults.
func loadProfile(profilePath string) (*profile, error) {
	raw, err := os.ReadFile(profilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cli.NotFound("profile %s does not exist", profilePath)
		}
		return nil, fmt.Errorf("reading profile %s: %w", profilePath, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(expandEnv(raw)))
	decoder.KnownFields(true)

	var prof profile
	if err := decoder.Decode(&prof); err != nil {
		if errors.Is(err, io.EOF) {
			return &profile{}, nil
		}
		return nil, cli.Validation("parsing profile %s: %v", profilePath, err).
			WithHint("Profile keys mirror the install flag names: version, core-address, connect-as, release-base, ...")
	}
	return &prof, nil
}

// applyProfile fills params from the profile for every flag the
// command line left untouched. Explicit flags always win; changed
// reports whether a flag was set on the command line.
func applyProfile(params *installParams, prof *profile, changed func(name string) bool) {
	if prof.Version != "" && !changed("version") {
		params.Version = prof.Version
	}
	if prof.User != nil && !changed("user") {
		params.User = *prof.User
	}
	if prof.RootDirectory != "" && !changed("root-directory") {
		params.RootDirectory = prof.RootDirectory
	}
	if prof.CoreAddress != "" && !changed("core-address") {
		params.CoreAddress = prof.CoreAddress
	}
	if prof.ConnectAs != "" && !changed("connect-as") {
		params.ConnectAs = prof.ConnectAs
	}
	if prof.OnboardingKey != "" && !changed("onboarding-key") {
		params.OnboardingKey = prof.OnboardingKey
	}
	if prof.OnboardingKeyFile != "" && !changed("onboarding-key-file") {
		params.OnboardingKeyFile = prof.OnboardingKeyFile
	}
	if prof.ForceServiceFile != nil && !changed("force-service-file") {
		params.ForceServiceFile = *prof.ForceServiceFile
	}
	if prof.BinaryURL != "" && !changed("binary-url") {
		params.BinaryURL = prof.BinaryURL
	}
	if prof.ConfigURL != "" && !changed("config-url") {
		params.ConfigURL = prof.ConfigURL
	}
	if prof.ReleaseBase != "" && !changed("release-base") {
		params.ReleaseBase = prof.ReleaseBase
	}
}

// expandEnv substitutes ${VAR} and ${VAR:-default} references with
// values from the environment. A reference with no default naming an
// unset variable expands to the empty string, same as the shell.
func expandEnv(raw []byte) []byte {
	return []byte(os.Expand(string(raw), func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		value, set := os.LookupEnv(name)
		if !set && hasFallback {
			return fallback
		}
		return value
	}))
}
