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

	"github.com/teradata-labs/judge/internal/domain"
)

// RemediationKind selects which rung of the auto-remediation ladder a
// follow-up task occupies (spec §4.6).
type RemediationKind string

const (
	RemediationAutoFix          RemediationKind = "autofix"
	RemediationConflictAutoFix  RemediationKind = "conflict_autofix"
	RemediationMainlineRecreate RemediationKind = "mainline_recreate"
)

func (k RemediationKind) titleTag() string {
	switch k {
	case RemediationAutoFix:
		return "AutoFix"
	case RemediationConflictAutoFix:
		return "AutoFix-Conflict"
	case RemediationMainlineRecreate:
		return "Mainline-Recreate"
	default:
		return string(k)
	}
}

func (k RemediationKind) priority() int {
	switch k {
	case RemediationMainlineRecreate:
		return 30
	case RemediationConflictAutoFix:
		return 20
	default:
		return 10
	}
}

func (k RemediationKind) eventType() domain.EventType {
	switch k {
	case RemediationAutoFix:
		return domain.EventAutofixTaskCreated
	case RemediationConflictAutoFix:
		return domain.EventConflictAutofixTaskCreated
	case RemediationMainlineRecreate:
		return domain.EventMainlineRecreateTaskCreated
	default:
		return domain.EventAutofixTaskCreated
	}
}

// titlePrefix returns the prefix every follow-up task for this PR and
// ladder rung shares, e.g. "[AutoFix-Conflict] PR #42" (spec §4.6).
func titlePrefix(kind RemediationKind, prNumber int) string {
	return fmt.Sprintf("[%s] PR #%d", kind.titleTag(), prNumber)
}

// RemediationRequest carries everything a new follow-up task needs.
type RemediationRequest struct {
	PRNumber               int
	SourceTaskID           string
	Goal                   string
	AllowedPaths           []string
	VerificationCmds       []string
	PolicyViolations       []domain.PolicyViolation
	LLMIssues              []domain.CodeIssue
	PreviousFailureReason  string
	LatestRetryReason      string
	MaxAttempts            int
	AllowUnlimitedAttempts bool
}

// CreateRemediationTask probes for an already-active follow-up task with
// this ladder rung's title prefix, enforces the per-PR attempt limit, and
// otherwise inserts a new worker task (spec §4.6). The returned outcome
// string is one of:
//
//	<taskID>                              a new task was created
//	existing_active_<kind>:<id>           an active one already covers this PR
//	<kind>_attempt_limit_reached:<n>/<max> the ladder rung is exhausted
func CreateRemediationTask(ctx context.Context, svc *Services, kind RemediationKind, req RemediationRequest) (string, error) {
	prefix := titlePrefix(kind, req.PRNumber)

	active, err := svc.Store.Tasks().FindActiveByTitlePrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("probe active %s task for PR #%d: %w", kind, req.PRNumber, err)
	}
	if active != nil {
		return fmt.Sprintf("existing_active_%s:%s", kind, active.ID), nil
	}

	count, err := svc.Store.Tasks().CountByTitlePrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("count %s attempts for PR #%d: %w", kind, req.PRNumber, err)
	}
	if !req.AllowUnlimitedAttempts && req.MaxAttempts > 0 && count >= req.MaxAttempts {
		return fmt.Sprintf("%s_attempt_limit_reached:%d/%d", kind, count, req.MaxAttempts), nil
	}

	allowedPaths := req.AllowedPaths
	if kind == RemediationConflictAutoFix || kind == RemediationMainlineRecreate {
		allowedPaths = []string{"**"}
	}

	maxAttemptsLabel := "unlimited"
	if !req.AllowUnlimitedAttempts && req.MaxAttempts > 0 {
		maxAttemptsLabel = fmt.Sprintf("%d", req.MaxAttempts)
	}

	task := domain.Task{
		Title:            fmt.Sprintf("%s (attempt %d/%s)", prefix, count+1, maxAttemptsLabel),
		Goal:             req.Goal,
		Role:             domain.RoleWorker,
		Status:           domain.TaskQueued,
		RiskLevel:        domain.RiskMedium,
		Priority:         kind.priority(),
		AllowedPaths:     allowedPaths,
		VerificationCmds: req.VerificationCmds,
		TimeboxMinutes:   60,
		Kind:             domain.KindCode,
		Notes:            buildRemediationNotes(req),
	}

	taskID, err := svc.Store.Tasks().Create(ctx, task)
	if err != nil {
		return "", fmt.Errorf("create %s task for PR #%d: %w", kind, req.PRNumber, err)
	}

	recordEvent(ctx, svc, kind.eventType(), domain.EntityTask, taskID, map[string]any{
		"prNumber":     req.PRNumber,
		"sourceTaskId": req.SourceTaskID,
		"attempt":      count + 1,
		"maxAttempts":  req.MaxAttempts,
	})
	return taskID, nil
}

func buildRemediationNotes(req RemediationRequest) string {
	var b strings.Builder
	if req.PreviousFailureReason != "" {
		fmt.Fprintf(&b, "Previous failure: %s\n", req.PreviousFailureReason)
	}
	if req.LatestRetryReason != "" {
		fmt.Fprintf(&b, "Latest retry reason: %s\n", req.LatestRetryReason)
	}
	for _, v := range req.PolicyViolations {
		fmt.Fprintf(&b, "Policy violation [%s]: %s\n", v.Type, v.Message)
	}
	for _, issue := range req.LLMIssues {
		fmt.Fprintf(&b, "Review issue [%s] %s:%d: %s\n", issue.Severity, issue.File, issue.Line, issue.Message)
	}
	return b.String()
}

// DetermineEscalation inspects a completed evaluation and the action
// executor's outcome and returns which remediation path to take, per the
// five cases enumerated in spec §4.6. A zero RemediationKind ("") means
// no follow-up task: with an empty Reason nothing further happens (e.g. a
// clean merge); with a Reason the task is scheduled for an awaiting_judge
// retry.
type Escalation struct {
	Kind              RemediationKind
	Reason            string
	RequeueImmediately bool
}

func DetermineEscalation(summary domain.EvaluationSummary, result domain.JudgeResult, outcome ActionOutcome) Escalation {
	switch {
	case !summary.CI.Pass || !summary.Policy.Pass:
		return Escalation{Kind: RemediationAutoFix, Reason: "ci_or_policy_fail"}

	case !summary.LLM.Skipped && !summary.LLM.Pass && HasActionableLLMFailures(summary):
		return Escalation{Kind: RemediationAutoFix, Reason: "llm_actionable_fail"}

	case !summary.LLM.Skipped && !summary.LLM.Pass && IsNonActionableLLMFailure(summary):
		return Escalation{Reason: "llm_non_actionable_fail", RequeueImmediately: false}

	case result.Verdict == domain.VerdictApprove && !outcome.Merged && HasConflictSignal(outcome.MergeDeferredReason):
		return Escalation{Kind: RemediationConflictAutoFix, Reason: outcome.MergeDeferredReason}

	case result.Verdict == domain.VerdictApprove && !outcome.Merged && outcome.MergeDeferredReason != "":
		return Escalation{Reason: outcome.MergeDeferredReason, RequeueImmediately: false}

	default:
		return Escalation{}
	}
}
