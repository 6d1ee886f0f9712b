// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package platform identifies the host facts an install depends on:
// CPU architecture and service-manager flavor.
//
// Detection is a pure function over observed facts. Detect gathers the
// facts from the running host (uname machine string, systemd runtime
// directory) and hands them to the same classification logic tests
// exercise with synthetic facts. Both classifications are closed enums
// and conservative: an unrecognized machine string or an absent service
// manager fails with install.UnsupportedPlatformError instead of
// guessing, because a wrong guess installs a binary the host cannot
// run or supervise.
//
// Facts are probed fresh on every invocation and never cached across
// runs.
package platform
