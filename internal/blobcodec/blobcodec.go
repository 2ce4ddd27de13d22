// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package blobcodec compresses large text blobs (diffs, command logs)
// before they are stashed in an artifact's metadata payload, the way the
// teacher's shared-memory store compresses values with a reusable
// zstd encoder/decoder pair rather than allocating one per call.
package blobcodec

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	once     sync.Once
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
	initErr  error
)

func init() {
	once.Do(func() {
		encoder, initErr = zstd.NewWriter(nil)
		if initErr != nil {
			return
		}
		decoder, initErr = zstd.NewReader(nil)
	})
}

// CompressToBase64 zstd-compresses s and returns it base64-encoded, a
// shape that survives a JSON metadata payload without escaping.
func CompressToBase64(s string) (string, error) {
	if initErr != nil {
		return "", fmt.Errorf("blobcodec not initialized: %w", initErr)
	}
	compressed := encoder.EncodeAll([]byte(s), nil)
	return base64.StdEncoding.EncodeToString(compressed), nil
}

// DecompressFromBase64 reverses CompressToBase64.
func DecompressFromBase64(encoded string) (string, error) {
	if initErr != nil {
		return "", fmt.Errorf("blobcodec not initialized: %w", initErr)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	decompressed, err := decoder.DecodeAll(raw, nil)
	if err != nil {
		return "", fmt.Errorf("decompress: %w", err)
	}
	return string(decompressed), nil
}
