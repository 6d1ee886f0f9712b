// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/outpost/lib/version"
)

// indexFileName is the index document under the release base URL.
const indexFileName = "index.json"

// maxIndexSize bounds how much index we are willing to read. A real
// index is a few kilobytes; anything near this limit is a broken or
// hostile host.
const maxIndexSize = 1 << 20

// Config holds configuration for creating a release Client.
type Config struct {
	// BaseURL is the release host prefix (e.g.
	// "https://releases.example.com/outpost"). Required. Must use
	// HTTPS except for loopback hosts, which tests and air-gapped
	// mirrors use.
	BaseURL string

	// HTTPClient is used for all requests. Defaults to
	// http.DefaultClient. The installer wires a retrying client here
	// so index fetches share the artifact retry budget.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client fetches and resolves against a release host.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a release client. Returns an error if the base URL
// is missing, unparseable, or plain HTTP on a non-loopback host.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("release: base URL is required")
	}
	baseURL := strings.TrimRight(config.BaseURL, "/")

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("release: parsing base URL %q: %w", baseURL, err)
	}
	switch parsed.Scheme {
	case "https":
	case "http":
		if !isLoopback(parsed.Hostname()) {
			return nil, fmt.Errorf("release: refusing plain HTTP base URL %q (HTTPS required off-host)", baseURL)
		}
	default:
		return nil, fmt.Errorf("release: unsupported URL scheme %q", parsed.Scheme)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}, nil
}

// BaseURL returns the normalized release host prefix.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchIndex retrieves and decodes the release index.
func (c *Client) FetchIndex(ctx context.Context) (*Index, error) {
	indexURL := c.baseURL + "/" + indexFileName

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building index request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", version.UserAgent())

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetching release index %s: %w", indexURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching release index %s: HTTP %d", indexURL, response.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxIndexSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading release index %s: %w", indexURL, err)
	}
	if len(body) > maxIndexSize {
		return nil, fmt.Errorf("release index %s exceeds %d bytes", indexURL, maxIndexSize)
	}

	// Index files are hand-maintained; tolerate comments and trailing
	// commas by stripping to plain JSON first.
	var index Index
	if err := json.Unmarshal(jsonc.ToJSON(body), &index); err != nil {
		return nil, fmt.Errorf("decoding release index %s: %w", indexURL, err)
	}
	if err := index.Validate(); err != nil {
		return nil, fmt.Errorf("release index %s: %w", indexURL, err)
	}

	c.logger.Debug("fetched release index",
		"url", indexURL,
		"versions", len(index.Versions),
	)
	return &index, nil
}

// AssetURL returns the download location of an asset of a version.
func (c *Client) AssetURL(releaseVersion, assetName string) string {
	return c.baseURL + "/" + releaseVersion + "/" + assetName
}

// isLoopback reports whether host names the local machine.
func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
