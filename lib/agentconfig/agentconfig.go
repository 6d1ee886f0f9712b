// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentconfig

import (
	"embed"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the subset of outpostd's configuration the installer reads
// and writes. The agent itself accepts more keys; unknown keys in an
// installed file are deliberately ignored here so a hand-tuned config
// still loads.
type Config struct {
	// RootDirectory is where the agent keeps its state.
	RootDirectory string `toml:"root_directory"`

	// CoreAddress is the control plane the agent dials out to. Empty
	// for inbound-only agents.
	CoreAddress string `toml:"core_address"`

	// ConnectAs is the identity the agent presents to the core.
	ConnectAs string `toml:"connect_as"`

	// OnboardingKey is the one-time enrollment credential. Only ever
	// written into a fresh config.
	OnboardingKey string `toml:"onboarding_key"`

	// ServerEnabled, Port, and BindIP configure the inbound API
	// server for deployments where the core connects to the agent.
	ServerEnabled bool   `toml:"server_enabled"`
	Port          int    `toml:"port"`
	BindIP        string `toml:"bind_ip"`

	// LogLevel is the agent's log verbosity.
	LogLevel string `toml:"log_level"`
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var config Config
	if err := toml.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &config, nil
}

//go:embed template/outpost.toml
var templateFiles embed.FS

// DefaultTemplate returns the embedded config template, used when the
// release publishes no template asset of its own.
func DefaultTemplate() []byte {
	data, err := templateFiles.ReadFile("template/outpost.toml")
	if err != nil {
		// Embedded at compile time; a read failure here is a build bug.
		panic("embedded outpost.toml template missing: " + err.Error())
	}
	return data
}
