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
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/judge/internal/domain"
)

func TestCreateRemediationTask_CreatesWithAttemptLabel(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())

	id, err := CreateRemediationTask(ctx, svc, RemediationAutoFix, RemediationRequest{
		PRNumber:     7,
		SourceTaskID: "task-1",
		Goal:         "fix it",
		MaxAttempts:  3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	task, err := svc.Store.Tasks().Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(task.Title, "[AutoFix] PR #7"))
	assert.Contains(t, task.Title, "attempt 1/3")
}

func TestCreateRemediationTask_ReturnsExistingActive(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())
	req := RemediationRequest{PRNumber: 9, SourceTaskID: "task-1", MaxAttempts: 3}

	first, err := CreateRemediationTask(ctx, svc, RemediationAutoFix, req)
	require.NoError(t, err)

	second, err := CreateRemediationTask(ctx, svc, RemediationAutoFix, req)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("existing_active_autofix:%s", first), second)
}

func TestCreateRemediationTask_AttemptLimitReached(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend()
	svc := newTestServices(b)
	req := RemediationRequest{PRNumber: 3, SourceTaskID: "task-1", MaxAttempts: 1}

	id, err := CreateRemediationTask(ctx, svc, RemediationAutoFix, req)
	require.NoError(t, err)

	// mark the first attempt terminal so the next probe finds no active task
	require.NoError(t, svc.Store.Tasks().UpdateStatus(ctx, id, domain.TaskDone, domain.BlockNone))

	outcome, err := CreateRemediationTask(ctx, svc, RemediationAutoFix, req)
	require.NoError(t, err)
	assert.Equal(t, "autofix_attempt_limit_reached:1/1", outcome)
}

func TestCreateRemediationTask_UnlimitedAttemptsIgnoresMax(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend()
	svc := newTestServices(b)
	req := RemediationRequest{PRNumber: 3, SourceTaskID: "task-1", MaxAttempts: 1, AllowUnlimitedAttempts: true}

	id, err := CreateRemediationTask(ctx, svc, RemediationMainlineRecreate, req)
	require.NoError(t, err)
	require.NoError(t, svc.Store.Tasks().UpdateStatus(ctx, id, domain.TaskDone, domain.BlockNone))

	id2, err := CreateRemediationTask(ctx, svc, RemediationMainlineRecreate, req)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
	assert.False(t, isAttemptLimitReached(id2))
}

func TestDetermineEscalation_ActionableLLMFailureRoutesToAutoFix(t *testing.T) {
	summary := domain.EvaluationSummary{
		CI:     domain.CIResult{Pass: true},
		Policy: domain.PolicyResult{Pass: true},
		LLM:    domain.LLMResult{Pass: false, CodeIssues: []domain.CodeIssue{{Severity: "error", Message: "nil deref"}}},
	}
	esc := DetermineEscalation(summary, domain.JudgeResult{Verdict: domain.VerdictRequestChanges}, ActionOutcome{})
	assert.Equal(t, RemediationAutoFix, esc.Kind)
}

func TestDetermineEscalation_NonActionableLLMFailureRequeuesWithoutRemediation(t *testing.T) {
	summary := domain.EvaluationSummary{
		CI:     domain.CIResult{Pass: true},
		Policy: domain.PolicyResult{Pass: true},
		LLM:    domain.LLMResult{Pass: false, Confidence: 0, Reasons: []string{"llm review failed: quota exceeded"}},
	}
	esc := DetermineEscalation(summary, domain.JudgeResult{Verdict: domain.VerdictRequestChanges}, ActionOutcome{})
	assert.Equal(t, RemediationKind(""), esc.Kind)
	assert.Equal(t, "llm_non_actionable_fail", esc.Reason)
}

func TestDetermineEscalation_CIOrPolicyFailRoutesToAutoFix(t *testing.T) {
	summary := domain.EvaluationSummary{
		CI:     domain.CIResult{Pass: false},
		Policy: domain.PolicyResult{Pass: true},
		LLM:    domain.LLMResult{Pass: true},
	}
	esc := DetermineEscalation(summary, domain.JudgeResult{Verdict: domain.VerdictRequestChanges}, ActionOutcome{})
	assert.Equal(t, RemediationAutoFix, esc.Kind)
	assert.Equal(t, "ci_or_policy_fail", esc.Reason)
}

func TestDetermineEscalation_ApprovedMergeConflictRoutesToConflictAutoFix(t *testing.T) {
	summary := domain.EvaluationSummary{
		CI:     domain.CIResult{Pass: true},
		Policy: domain.PolicyResult{Pass: true},
		LLM:    domain.LLMResult{Pass: true, Skipped: true},
	}
	result := domain.JudgeResult{Verdict: domain.VerdictApprove, AutoMerge: true}
	outcome := ActionOutcome{MergeDeferred: true, MergeDeferredReason: "update_branch_failed: merge conflict"}
	esc := DetermineEscalation(summary, result, outcome)
	assert.Equal(t, RemediationConflictAutoFix, esc.Kind)
}

func TestDetermineEscalation_ApprovedMergeDeferredWithoutConflictJustRequeues(t *testing.T) {
	summary := domain.EvaluationSummary{
		CI:     domain.CIResult{Pass: true},
		Policy: domain.PolicyResult{Pass: true},
		LLM:    domain.LLMResult{Pass: true, Skipped: true},
	}
	result := domain.JudgeResult{Verdict: domain.VerdictApprove, AutoMerge: true}
	outcome := ActionOutcome{MergeDeferred: true, MergeDeferredReason: "merge_already_in_progress"}
	esc := DetermineEscalation(summary, result, outcome)
	assert.Equal(t, RemediationKind(""), esc.Kind)
	assert.Equal(t, "merge_already_in_progress", esc.Reason)
}

func TestDetermineEscalation_CleanOutcomeNeedsNoEscalation(t *testing.T) {
	summary := domain.EvaluationSummary{
		CI:     domain.CIResult{Pass: true},
		Policy: domain.PolicyResult{Pass: true},
		LLM:    domain.LLMResult{Pass: true},
	}
	result := domain.JudgeResult{Verdict: domain.VerdictApprove, AutoMerge: true}
	esc := DetermineEscalation(summary, result, ActionOutcome{Merged: true})
	assert.Equal(t, Escalation{}, esc)
}
