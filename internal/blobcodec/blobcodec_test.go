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
package blobcodec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressAndDecompressRoundTrips(t *testing.T) {
	diff := strings.Repeat("+added line\n-removed line\n", 500)

	encoded, err := CompressToBase64(diff)
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
	assert.Less(t, len(encoded), len(diff))

	decoded, err := DecompressFromBase64(encoded)
	require.NoError(t, err)
	assert.Equal(t, diff, decoded)
}

func TestDecompressFromBase64_RejectsInvalidInput(t *testing.T) {
	_, err := DecompressFromBase64("not valid base64!!!")
	assert.Error(t, err)
}
