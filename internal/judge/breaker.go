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

// Circuit breakers here are pure threshold checks rather than the
// teacher's stateful AllowRequest/RecordSuccess/RecordFailure machine:
// the Judge keeps no in-process state across ticks (spec §5), so the
// counters a breaker trips on already live in the task row itself
// (RetryCount), persisted by the store instead of an in-memory struct.

// DoomLoopTripped reports whether the doom-loop circuit breaker should
// fire: the LLM flagged the same failure repeating, and the task has
// already been retried at least threshold times (spec §4.9).
func DoomLoopTripped(reasons []string, retryCount, threshold int) bool {
	return containsLiteral(reasons, "doom_loop_detected") && retryCount >= threshold
}

// NonApproveTripped reports whether the non-approve circuit breaker
// should fire: a non-approve verdict has recurred at least threshold
// times for this task, regardless of cause (spec §4.9).
func NonApproveTripped(retryCount, threshold int) bool {
	return retryCount >= threshold
}

func containsLiteral(reasons []string, literal string) bool {
	for _, r := range reasons {
		if r == literal {
			return true
		}
	}
	return false
}
