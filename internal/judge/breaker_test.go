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
package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDoomLoopTripped_RequiresReasonAndThreshold(t *testing.T) {
	assert.False(t, DoomLoopTripped([]string{"doom_loop_detected"}, 1, 2), "below threshold")
	assert.True(t, DoomLoopTripped([]string{"doom_loop_detected"}, 2, 2))
	assert.False(t, DoomLoopTripped([]string{"some_other_reason"}, 5, 2), "reason absent")
	assert.False(t, DoomLoopTripped(nil, 5, 2))
}

func TestNonApproveTripped_ThresholdOnly(t *testing.T) {
	assert.False(t, NonApproveTripped(1, 2))
	assert.True(t, NonApproveTripped(2, 2))
	assert.True(t, NonApproveTripped(3, 2))
}
