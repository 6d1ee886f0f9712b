// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "outpost-install",
		Subcommands: []*Command{
			{
				Name: "install",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "install"
					return nil
				},
			},
			{
				Name: "status",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "status"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"status"}, testLogger()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "status" {
		t.Errorf("dispatched to %q, want %q", called, "status")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "outpost-install",
		Subcommands: []*Command{
			{
				Name: "config",
				Subcommands: []*Command{
					{
						Name: "render",
						Run: func(_ context.Context, args []string, _ *slog.Logger) error {
							called = "config render"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"config", "render", "extra-arg"}, testLogger()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "config render" {
		t.Errorf("dispatched to %q, want %q", called, "config render")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "extra-arg" {
		t.Errorf("args = %v, want [extra-arg]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	type installParams struct {
		ReleaseBase string `flag:"release-base" desc:"release index base URL" default:"https://get.outpost.dev"`
	}
	var params installParams
	var positional string

	command := &Command{
		Name:   "install",
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				positional = args[0]
			}
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--release-base", "https://mirror.local", "extra"}, testLogger()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if params.ReleaseBase != "https://mirror.local" {
		t.Errorf("ReleaseBase = %q, want %q", params.ReleaseBase, "https://mirror.local")
	}
	if positional != "extra" {
		t.Errorf("positional = %q, want %q", positional, "extra")
	}
}

func TestCommand_Execute_PassesContextAndLogger(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "present")
	logger := testLogger()

	var gotValue any
	var gotLogger *slog.Logger

	command := &Command{
		Name: "install",
		Run: func(ctx context.Context, _ []string, logger *slog.Logger) error {
			gotValue = ctx.Value(key{})
			gotLogger = logger
			return nil
		},
	}

	if err := command.Execute(ctx, nil, logger); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if gotValue != "present" {
		t.Error("context not threaded through to Run")
	}
	if gotLogger != logger {
		t.Error("logger not threaded through to Run")
	}
}

func TestCommand_Changed(t *testing.T) {
	type installParams struct {
		Version string `flag:"version" desc:"release version" default:"latest"`
		DryRun  bool   `flag:"dry-run" desc:"plan without writing"`
	}
	var params installParams

	var versionChanged, dryRunChanged bool
	var command *Command
	command = &Command{
		Name:   "install",
		Params: func() any { return &params },
		Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
			versionChanged = command.Changed("version")
			dryRunChanged = command.Changed("dry-run")
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--version", "1.2.3"}, testLogger()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !versionChanged {
		t.Error("Changed(version) = false after --version was passed")
	}
	if dryRunChanged {
		t.Error("Changed(dry-run) = true but the flag was never passed")
	}
	if params.Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", params.Version, "1.2.3")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	type params struct {
		DryRun bool `flag:"dry-run" desc:"plan without writing"`
		JSON   bool `flag:"json" desc:"output as JSON"`
	}
	var p params

	command := &Command{
		Name:   "install",
		Params: func() any { return &p },
		Run:    func(_ context.Context, _ []string, _ *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--dry-rnu"}, testLogger())
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --dry-run") {
		t.Errorf("error = %q, want suggestion for '--dry-run'", errStr)
	}
	// Suggestion should be on the same line as the error, not buried.
	if !strings.Contains(errStr, "dry-rnu") {
		t.Errorf("error = %q, should mention the bad flag", errStr)
	}
	// Should include a pointer to --help.
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	type params struct {
		DryRun bool `flag:"dry-run" desc:"plan without writing"`
	}
	var p params

	command := &Command{
		Name:   "install",
		Params: func() any { return &p },
		Run:    func(_ context.Context, _ []string, _ *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--zzzzzzzzz"}, testLogger())
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "outpost-install",
		Subcommands: []*Command{
			{Name: "install"},
			{Name: "status"},
			{Name: "version"},
		},
	}

	err := root.Execute(context.Background(), []string{"instal"}, testLogger())
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"install\"") {
		t.Errorf("error = %q, want suggestion for 'install'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "outpost-install",
		Subcommands: []*Command{
			{Name: "install"},
			{Name: "status"},
		},
	}

	err := root.Execute(context.Background(), []string{"zzzzzzz"}, testLogger())
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "outpost-install",
				Summary: "Install and maintain the outpostd host agent",
				Subcommands: []*Command{
					{Name: "install", Summary: "Converge the host"},
				},
			}

			err := root.Execute(context.Background(), []string{helpArg}, testLogger())
			if err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_HelpFlagAfterOtherFlags(t *testing.T) {
	type params struct {
		Version string `flag:"version" desc:"release version" default:"latest"`
	}
	var p params

	ran := false
	command := &Command{
		Name:   "install",
		Params: func() any { return &p },
		Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
			ran = true
			return nil
		},
	}

	err := command.Execute(context.Background(), []string{"--version", "1.0.0", "--help"}, testLogger())
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if ran {
		t.Error("Run executed despite --help in args")
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "outpost-install",
		Subcommands: []*Command{
			{Name: "install", Summary: "Converge the host"},
		},
	}

	err := root.Execute(context.Background(), []string{}, testLogger())
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "outpost-install",
		Description: "Installer for the outpostd host agent.",
		Subcommands: []*Command{
			{Name: "install", Summary: "Converge the host to a release"},
			{Name: "status", Summary: "Report installed state"},
			{Name: "version", Summary: "Print version information"},
		},
		Examples: []Example{
			{
				Description: "Install the latest release system-wide",
				Command:     "outpost-install install --core-address 10.0.0.5",
			},
			{
				Description: "Check what is installed",
				Command:     "outpost-install status",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	// Verify structural elements are present.
	for _, want := range []string{
		"Installer for the outpostd host agent.",
		"Usage:",
		"outpost-install <command> [flags]",
		"Commands:",
		"install",
		"Converge the host to a release",
		"status",
		"Report installed state",
		"Examples:",
		"outpost-install install --core-address 10.0.0.5",
		"outpost-install status",
		"Run 'outpost-install <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	type params struct {
		ReleaseBase string `flag:"release-base" desc:"release index base URL"`
		DryRun      bool   `flag:"dry-run" desc:"plan without writing"`
	}
	var p params

	command := &Command{
		Name:    "install",
		Summary: "Converge the host to a release",
		Usage:   "outpost-install install [flags]",
		Params:  func() any { return &p },
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"outpost-install install [flags]",
		"Flags:",
		"release-base",
		"dry-run",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "outpost-install"}
	install := &Command{Name: "install", parent: root}

	if got := root.fullName(); got != "outpost-install" {
		t.Errorf("root.fullName() = %q, want %q", got, "outpost-install")
	}
	if got := install.fullName(); got != "outpost-install install" {
		t.Errorf("install.fullName() = %q, want %q", got, "outpost-install install")
	}
}
