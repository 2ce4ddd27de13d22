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
	"strings"

	"github.com/teradata-labs/judge/internal/domain"
)

// conflictKeywords is the fixed merge-failure keyword list a reason text is
// matched against to detect a conflict signal (spec glossary, §4.6).
var conflictKeywords = []string{
	"not mergeable",
	"merge conflict",
	"conflict",
	"mergeable_state",
	"dirty",
	"update_branch_failed",
	"pr_merge_conflict_detected",
}

// HasConflictSignal reports whether reason matches any conflict keyword.
// Applying it twice to the same input yields the same boolean (spec §8).
func HasConflictSignal(reason string) bool {
	lower := strings.ToLower(reason)
	for _, kw := range conflictKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// nonActionableKeywords classify an LLM failure as non-actionable even
// though it has no code issues (spec §4.9).
var nonActionableKeywords = []string{
	"quota",
	"rate limit",
	"resource_exhausted",
	"pr_merge_conflict_detected",
	"pr_base_behind",
	"mergeability_precheck_failed",
	"llm review failed",
	"encountered an error",
	"manual review recommended",
}

// IsNonActionableLLMFailure classifies summary.LLM per spec §4.9: the LLM
// failed, carries no code issues, and either confidence <= 0 or a reason
// matches the non-actionable keyword list.
func IsNonActionableLLMFailure(summary domain.EvaluationSummary) bool {
	llm := summary.LLM
	if llm.Pass || len(llm.CodeIssues) > 0 {
		return false
	}
	if llm.Confidence <= 0 {
		return true
	}
	for _, reason := range llm.Reasons {
		lower := strings.ToLower(reason)
		for _, kw := range nonActionableKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// HasActionableLLMFailures reports whether the LLM failed with at least one
// code issue. Spec §8 requires
// IsNonActionableLLMFailure(s) && HasActionableLLMFailures(s) == false.
func HasActionableLLMFailures(summary domain.EvaluationSummary) bool {
	return !summary.LLM.Pass && len(summary.LLM.CodeIssues) > 0
}
