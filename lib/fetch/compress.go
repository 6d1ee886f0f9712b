// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// zstdDecoder is reused across downloads to avoid repeated
// initialization overhead. zstd.Decoder is safe for concurrent use.
var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("fetch: zstd decoder initialization failed: " + err.Error())
	}
}

// decompress expands raw according to the compression suffix of
// assetName. Unsuffixed assets pass through untouched.
func decompress(assetName string, raw []byte) ([]byte, error) {
	switch {
	case strings.HasSuffix(assetName, ".zst"):
		payload, err := zstdDecoder.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(payload) > maxArtifactSize {
			return nil, fmt.Errorf("decompressed artifact exceeds %d bytes", maxArtifactSize)
		}
		return payload, nil

	case strings.HasSuffix(assetName, ".gz"):
		reader, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		payload, err := io.ReadAll(io.LimitReader(reader, maxArtifactSize+1))
		if err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		if err := reader.Close(); err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		if len(payload) > maxArtifactSize {
			return nil, fmt.Errorf("decompressed artifact exceeds %d bytes", maxArtifactSize)
		}
		return payload, nil

	default:
		return raw, nil
	}
}
