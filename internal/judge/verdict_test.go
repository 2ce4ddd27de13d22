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

	"github.com/teradata-labs/judge/internal/domain"
)

func TestVerdict_CIFailWins(t *testing.T) {
	summary := domain.EvaluationSummary{
		CI:     domain.CIResult{Pass: false, Reasons: []string{"build failed"}},
		Policy: domain.PolicyResult{Pass: true},
		LLM:    domain.LLMResult{Pass: true},
	}
	result := Verdict(summary, domain.Policy{}, domain.RiskLow)

	assert.Equal(t, domain.VerdictRequestChanges, result.Verdict)
	assert.False(t, result.AutoMerge)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, []string{"build failed"}, result.Reasons)
}

func TestVerdict_PolicyFailWinsOverLLM(t *testing.T) {
	summary := domain.EvaluationSummary{
		CI:     domain.CIResult{Pass: true},
		Policy: domain.PolicyResult{Pass: false, Reasons: []string{"denied path touched"}},
		LLM:    domain.LLMResult{Pass: false},
	}
	result := Verdict(summary, domain.Policy{}, domain.RiskMedium)

	assert.Equal(t, domain.VerdictRequestChanges, result.Verdict)
	assert.Equal(t, []string{"denied path touched"}, result.Reasons)
}

func TestVerdict_LLMFailRequestsChangesWithoutBypass(t *testing.T) {
	summary := domain.EvaluationSummary{
		CI:     domain.CIResult{Pass: true},
		Policy: domain.PolicyResult{Pass: true},
		LLM:    domain.LLMResult{Pass: false, Confidence: 0.3, Reasons: []string{"found a bug"}},
	}
	policy := domain.Policy{AutoMerge: domain.AutoMergePolicy{Enabled: true, LLMInformationalBypass: false}}
	result := Verdict(summary, policy, domain.RiskLow)

	assert.Equal(t, domain.VerdictRequestChanges, result.Verdict)
	assert.False(t, result.AutoMerge)
	assert.Equal(t, 0.3, result.Confidence)
}

func TestVerdict_LLMFailApprovesUnderBypass(t *testing.T) {
	summary := domain.EvaluationSummary{
		CI:     domain.CIResult{Pass: true},
		Policy: domain.PolicyResult{Pass: true},
		LLM:    domain.LLMResult{Pass: false, Confidence: 0.6, Suggestions: []string{"consider renaming x"}},
	}
	policy := domain.Policy{AutoMerge: domain.AutoMergePolicy{Enabled: true, LLMInformationalBypass: true}}
	result := Verdict(summary, policy, domain.RiskLow)

	assert.Equal(t, domain.VerdictApprove, result.Verdict)
	assert.True(t, result.AutoMerge)
	assert.Contains(t, result.Suggestions, informationalBypassNote)
}

func TestVerdict_AllPassApprovesWithAutoMergeFromPolicy(t *testing.T) {
	summary := domain.EvaluationSummary{
		CI:     domain.CIResult{Pass: true},
		Policy: domain.PolicyResult{Pass: true},
		LLM:    domain.LLMResult{Pass: true, Confidence: 0.9},
	}

	approvedNoMerge := Verdict(summary, domain.Policy{AutoMerge: domain.AutoMergePolicy{Enabled: false}}, domain.RiskLow)
	assert.Equal(t, domain.VerdictApprove, approvedNoMerge.Verdict)
	assert.False(t, approvedNoMerge.AutoMerge)

	approvedAutoMerge := Verdict(summary, domain.Policy{AutoMerge: domain.AutoMergePolicy{Enabled: true}}, domain.RiskLow)
	assert.True(t, approvedAutoMerge.AutoMerge)
}

func TestVerdict_Deterministic(t *testing.T) {
	summary := domain.EvaluationSummary{
		CI:     domain.CIResult{Pass: true},
		Policy: domain.PolicyResult{Pass: true},
		LLM:    domain.LLMResult{Pass: true, Confidence: 0.8},
	}
	policy := domain.Policy{AutoMerge: domain.AutoMergePolicy{Enabled: true}}

	first := Verdict(summary, policy, domain.RiskMedium)
	second := Verdict(summary, policy, domain.RiskMedium)
	assert.Equal(t, first, second)
}

func TestEffectiveRisk_ComponentwiseMax(t *testing.T) {
	assert.Equal(t, domain.RiskHigh, EffectiveRisk(domain.RiskLow, domain.RiskHigh))
	assert.Equal(t, domain.RiskMedium, EffectiveRisk(domain.RiskMedium, domain.RiskLow))
	assert.Equal(t, domain.RiskLow, EffectiveRisk(domain.RiskLow, domain.RiskLow))
}
