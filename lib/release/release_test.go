// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bureau-foundation/outpost/lib/install"
	"github.com/bureau-foundation/outpost/lib/platform"
)

func testIndex() *Index {
	return &Index{Versions: []Release{
		{
			Version: "0.9.0",
			Assets: []Asset{
				{Name: "outpostd", SHA256: strings.Repeat("a", 64), Size: 100},
				{Name: "outpost.toml", SHA256: strings.Repeat("b", 64), Size: 10},
			},
		},
		{
			Version: "0.10.0",
			Assets: []Asset{
				{Name: "outpostd", SHA256: strings.Repeat("c", 64), Size: 110},
				{Name: "outpostd-aarch64.zst", SHA256: strings.Repeat("d", 64), Size: 105},
				{Name: "outpost.toml", SHA256: strings.Repeat("e", 64), Size: 11},
			},
		},
	}}
}

func TestSelectLatestUsesSemverOrder(t *testing.T) {
	// 0.10.0 sorts after 0.9.0 numerically even though it sorts before
	// it lexically. The file order is reversed to prove position does
	// not matter either.
	index := testIndex()
	index.Versions[0], index.Versions[1] = index.Versions[1], index.Versions[0]

	selected, err := index.Select(install.VersionLatest)
	if err != nil {
		t.Fatalf("Select(latest): %v", err)
	}
	if selected.Version != "0.10.0" {
		t.Errorf("latest = %q, want 0.10.0", selected.Version)
	}
}

func TestSelectPinnedMatchesLiterally(t *testing.T) {
	selected, err := testIndex().Select("0.9.0")
	if err != nil {
		t.Fatalf("Select(0.9.0): %v", err)
	}
	if selected.Version != "0.9.0" {
		t.Errorf("selected = %q, want 0.9.0", selected.Version)
	}
}

func TestSelectUnknownVersionFailsTyped(t *testing.T) {
	_, err := testIndex().Select("3.0.0")
	if err == nil {
		t.Fatal("Select(3.0.0) should fail")
	}
	var notFound *install.VersionNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error type = %T, want VersionNotFoundError", err)
	}
	if notFound.Version != "3.0.0" {
		t.Errorf("error version = %q", notFound.Version)
	}
}

func TestValidateRejectsBrokenIndexes(t *testing.T) {
	tests := []struct {
		name  string
		index Index
	}{
		{"empty", Index{}},
		{"blank version", Index{Versions: []Release{{Version: "", Assets: []Asset{{Name: "outpostd"}}}}}},
		{"unparseable version", Index{Versions: []Release{{Version: "yesterday", Assets: []Asset{{Name: "outpostd"}}}}}},
		{"no assets", Index{Versions: []Release{{Version: "1.0.0"}}}},
		{"unnamed asset", Index{Versions: []Release{{Version: "1.0.0", Assets: []Asset{{}}}}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := test.index.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
}

func TestBinaryAssetNameMapping(t *testing.T) {
	if name := binaryAssetName(platform.ArchAMD64); name != "outpostd" {
		t.Errorf("baseline asset name = %q, want outpostd", name)
	}
	if name := binaryAssetName(platform.ArchARM64); name != "outpostd-aarch64" {
		t.Errorf("aarch64 asset name = %q, want outpostd-aarch64", name)
	}
}

func TestFindBinaryAssetPrefersPlainOverCompressed(t *testing.T) {
	release := Release{Version: "1.0.0", Assets: []Asset{
		{Name: "outpostd.zst", SHA256: strings.Repeat("1", 64)},
		{Name: "outpostd", SHA256: strings.Repeat("2", 64)},
	}}
	asset, ok := findBinaryAsset(&release, platform.ArchAMD64)
	if !ok {
		t.Fatal("findBinaryAsset found nothing")
	}
	if asset.Name != "outpostd" {
		t.Errorf("picked %q, want the plain asset", asset.Name)
	}
}

func TestNewClientURLValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("empty base URL should be rejected")
	}
	if _, err := NewClient(Config{BaseURL: "https://releases.example.com/outpost/"}); err != nil {
		t.Errorf("HTTPS base URL rejected: %v", err)
	}
	if _, err := NewClient(Config{BaseURL: "http://127.0.0.1:8080/outpost"}); err != nil {
		t.Errorf("loopback HTTP base URL rejected: %v", err)
	}
	if _, err := NewClient(Config{BaseURL: "http://releases.example.com/outpost"}); err == nil {
		t.Error("non-loopback HTTP base URL should be rejected")
	}
	if _, err := NewClient(Config{BaseURL: "ftp://releases.example.com"}); err == nil {
		t.Error("non-HTTP scheme should be rejected")
	}
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://releases.example.com/outpost/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := client.AssetURL("1.2.0", "outpostd"); got != "https://releases.example.com/outpost/1.2.0/outpostd" {
		t.Errorf("AssetURL = %q", got)
	}
}

// newTestClient points a client at an httptest server serving body for
// /index.json.
func newTestClient(t *testing.T, status int, body string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/index.json" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestFetchIndexDecodesJSONC(t *testing.T) {
	client := newTestClient(t, http.StatusOK, `{
		// published releases, newest first
		"versions": [
			{"version": "1.2.0", "assets": [
				{"name": "outpostd", "sha256": "`+strings.Repeat("a", 64)+`", "size": 42},
			]},
		],
	}`)

	index, err := client.FetchIndex(context.Background())
	if err != nil {
		t.Fatalf("FetchIndex: %v", err)
	}
	if len(index.Versions) != 1 || index.Versions[0].Version != "1.2.0" {
		t.Errorf("unexpected index: %+v", index)
	}
}

func TestFetchIndexRejectsHTTPErrors(t *testing.T) {
	client := newTestClient(t, http.StatusInternalServerError, "boom")
	_, err := client.FetchIndex(context.Background())
	if err == nil {
		t.Fatal("FetchIndex should fail on HTTP 500")
	}
	if !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("error should name the status: %v", err)
	}
}

func TestFetchIndexRejectsInvalidIndex(t *testing.T) {
	client := newTestClient(t, http.StatusOK, `{"versions": []}`)
	if _, err := client.FetchIndex(context.Background()); err == nil {
		t.Fatal("FetchIndex should reject an empty index")
	}
}

func serveIndex(t *testing.T, index string) *Client {
	t.Helper()
	return newTestClient(t, http.StatusOK, index)
}

func TestResolveLatest(t *testing.T) {
	client := serveIndex(t, `{"versions": [
		{"version": "0.9.0", "assets": [{"name": "outpostd", "sha256": "`+strings.Repeat("a", 64)+`", "size": 100}]},
		{"version": "0.10.0", "assets": [
			{"name": "outpostd", "sha256": "`+strings.Repeat("b", 64)+`", "size": 110},
			{"name": "outpost.toml", "sha256": "`+strings.Repeat("c", 64)+`", "size": 11}
		]}
	]}`)

	artifact, err := client.Resolve(context.Background(), install.VersionLatest, platform.ArchAMD64)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if artifact.Version != "0.10.0" {
		t.Errorf("version = %q, want 0.10.0", artifact.Version)
	}
	if !strings.HasSuffix(artifact.BinaryURL, "/0.10.0/outpostd") {
		t.Errorf("binary URL = %q", artifact.BinaryURL)
	}
	if artifact.BinaryDigest != strings.Repeat("b", 64) {
		t.Errorf("binary digest = %q", artifact.BinaryDigest)
	}
	if artifact.BinarySize != 110 {
		t.Errorf("binary size = %d", artifact.BinarySize)
	}
	if !strings.HasSuffix(artifact.ConfigTemplateURL, "/0.10.0/outpost.toml") {
		t.Errorf("template URL = %q", artifact.ConfigTemplateURL)
	}
}

func TestResolveNonBaselineUsesSuffixedAsset(t *testing.T) {
	client := serveIndex(t, `{"versions": [
		{"version": "1.0.0", "assets": [
			{"name": "outpostd", "sha256": "`+strings.Repeat("a", 64)+`", "size": 100},
			{"name": "outpostd-aarch64.zst", "sha256": "`+strings.Repeat("b", 64)+`", "size": 90}
		]}
	]}`)

	artifact, err := client.Resolve(context.Background(), "1.0.0", platform.ArchARM64)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if artifact.BinaryAssetName != "outpostd-aarch64.zst" {
		t.Errorf("asset = %q, want outpostd-aarch64.zst", artifact.BinaryAssetName)
	}
	if !strings.Contains(artifact.BinaryURL, "outpostd-aarch64.zst") {
		t.Errorf("binary URL = %q", artifact.BinaryURL)
	}
	if artifact.ConfigTemplateURL != "" {
		t.Errorf("template URL = %q, want empty (release publishes none)", artifact.ConfigTemplateURL)
	}
}

func TestResolveMissingArchAssetFailsTyped(t *testing.T) {
	client := serveIndex(t, `{"versions": [
		{"version": "1.0.0", "assets": [{"name": "outpostd", "sha256": "`+strings.Repeat("a", 64)+`", "size": 100}]}
	]}`)

	_, err := client.Resolve(context.Background(), "1.0.0", platform.ArchARM64)
	if err == nil {
		t.Fatal("Resolve should fail for a release without an aarch64 asset")
	}
	var notFound *install.VersionNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error type = %T, want VersionNotFoundError", err)
	}
	if notFound.Architecture != "aarch64" {
		t.Errorf("error architecture = %q", notFound.Architecture)
	}
}
