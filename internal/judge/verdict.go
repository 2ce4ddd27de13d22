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

import "github.com/teradata-labs/judge/internal/domain"

const informationalBypassNote = "LLM findings were non-blocking under the configured informational-bypass policy."

// Verdict is the pure decision function (spec §4.4): EvaluationSummary x
// Policy x effective risk -> JudgeResult. It performs no I/O and is
// deterministic: the same inputs always produce byte-identical output.
// Rules are evaluated in order; the first match wins.
func Verdict(summary domain.EvaluationSummary, policy domain.Policy, risk domain.Risk) domain.JudgeResult {
	// Rule 1: CI fails.
	if !summary.CI.Pass {
		return domain.JudgeResult{
			Verdict:    domain.VerdictRequestChanges,
			Reasons:    summary.CI.Reasons,
			AutoMerge:  false,
			RiskLevel:  risk,
			Confidence: 1.0,
		}
	}

	// Rule 2: policy fails.
	if !summary.Policy.Pass {
		return domain.JudgeResult{
			Verdict:     domain.VerdictRequestChanges,
			Reasons:     summary.Policy.Reasons,
			Suggestions: summary.Policy.Suggestions,
			AutoMerge:   false,
			RiskLevel:   risk,
			Confidence:  1.0,
		}
	}

	// Rule 3: LLM fails.
	if !summary.LLM.Pass {
		if policy.AutoMerge.LLMInformationalBypass && policy.AutoMerge.Enabled {
			suggestions := append(append([]string{}, summary.LLM.Suggestions...), informationalBypassNote)
			return domain.JudgeResult{
				Verdict:     domain.VerdictApprove,
				Reasons:     summary.LLM.Reasons,
				Suggestions: suggestions,
				AutoMerge:   true,
				RiskLevel:   risk,
				Confidence:  summary.LLM.Confidence,
			}
		}
		return domain.JudgeResult{
			Verdict:     domain.VerdictRequestChanges,
			Reasons:     summary.LLM.Reasons,
			Suggestions: summary.LLM.Suggestions,
			AutoMerge:   false,
			RiskLevel:   risk,
			Confidence:  summary.LLM.Confidence,
		}
	}

	// Rule 4: everything passed.
	return domain.JudgeResult{
		Verdict:    domain.VerdictApprove,
		Reasons:    nil,
		AutoMerge:  policy.AutoMerge.Enabled,
		RiskLevel:  risk,
		Confidence: 1.0,
	}
}

// EffectiveRisk is the componentwise max of task-declared risk and
// diff-computed risk (spec §4.3).
func EffectiveRisk(taskRisk, diffRisk domain.Risk) domain.Risk {
	return domain.MaxRisk(taskRisk, diffRisk)
}
