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

	"go.uber.org/zap"

	"github.com/teradata-labs/judge/internal/domain"
)

// ProcessCandidate drives one pending target through the full pipeline
// (spec §2 data flow): claim -> evaluate -> verdict -> action ->
// (merged | auto-remediation | requeue-with-cooldown). It never returns
// an error for a processing failure local to this candidate; per spec
// §7, one candidate's error must never block the tick. It only returns
// an error when the store itself is unreachable for the claim step,
// since no further progress on this candidate is possible.
func ProcessCandidate(ctx context.Context, svc *Services, target PendingTarget) error {
	won, err := ClaimRun(ctx, svc, target.RunID())
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	summary, err := target.Evaluate(ctx, svc)
	if err != nil {
		svc.Log.Warn("candidate evaluation failed", zap.String("taskId", target.TaskID()), zap.Error(err))
		retryErr := ScheduleTaskForJudgeRetry(ctx, svc, target.TaskID(), target.RunID(), fmt.Sprintf("evaluation_error:%v", err), false)
		if retryErr != nil {
			svc.Log.Warn("failed to schedule retry after evaluation error", zap.Error(retryErr))
		}
		return nil
	}

	result := Verdict(summary, svc.Policy, summary.Risk)
	recordEvent(ctx, svc, domain.EventJudgeReview, domain.EntityTask, target.TaskID(), map[string]any{
		"runId":      target.RunID(),
		"verdict":    result.Verdict,
		"autoMerge":  result.AutoMerge,
		"riskLevel":  result.RiskLevel,
		"confidence": result.Confidence,
	})

	outcome, err := target.ApplyVerdict(ctx, svc, result)
	if err != nil {
		svc.Log.Warn("apply verdict failed", zap.String("taskId", target.TaskID()), zap.Error(err))
		retryErr := ScheduleTaskForJudgeRetry(ctx, svc, target.TaskID(), target.RunID(), fmt.Sprintf("apply_verdict_error:%v", err), false)
		if retryErr != nil {
			svc.Log.Warn("failed to schedule retry after apply-verdict error", zap.Error(retryErr))
		}
		return nil
	}

	if outcome.Merged {
		if err := svc.Store.Tasks().UpdateStatus(ctx, target.TaskID(), domain.TaskDone, domain.BlockNone); err != nil {
			svc.Log.Warn("failed to mark merged task done", zap.String("taskId", target.TaskID()), zap.Error(err))
		}
		handleDocserTrigger(ctx, svc, target)
		return nil
	}

	escalation, allowUnlimited := resolveEscalation(ctx, svc, target, summary, result, outcome)
	return actOnEscalation(ctx, svc, target, escalation, allowUnlimited)
}

func resolveEscalation(ctx context.Context, svc *Services, target PendingTarget, summary domain.EvaluationSummary, result domain.JudgeResult, outcome ActionOutcome) (Escalation, bool) {
	base := DetermineEscalation(summary, result, outcome)

	task, err := svc.Store.Tasks().Get(ctx, target.TaskID())
	if err != nil || task == nil {
		return base, false
	}

	if DoomLoopTripped(summary.LLM.Reasons, task.RetryCount, svc.Config.DoomLoopCircuitBreakerRetries) {
		return Escalation{Kind: RemediationAutoFix, Reason: "doom_loop_detected"}, true
	}
	if base.Kind == RemediationAutoFix && NonApproveTripped(task.RetryCount, svc.Config.NonApproveCircuitBreakerRetries) {
		return base, false
	}
	return base, false
}

func actOnEscalation(ctx context.Context, svc *Services, target PendingTarget, esc Escalation, allowUnlimited bool) error {
	if esc.Kind == "" {
		if esc.Reason == "" {
			return nil
		}
		if err := ScheduleTaskForJudgeRetry(ctx, svc, target.TaskID(), target.RunID(), esc.Reason, esc.RequeueImmediately); err != nil {
			svc.Log.Warn("failed to schedule judge retry", zap.String("taskId", target.TaskID()), zap.Error(err))
		}
		return nil
	}

	prNumber := 0
	if t, ok := target.(*prTarget); ok {
		prNumber = t.prNumber
	}

	outcome, err := CreateRemediationTask(ctx, svc, esc.Kind, RemediationRequest{
		PRNumber:               prNumber,
		SourceTaskID:           target.TaskID(),
		Goal:                   fmt.Sprintf("Resolve: %s", esc.Reason),
		PreviousFailureReason:  esc.Reason,
		MaxAttempts:            svc.Config.AutoFixMaxAttempts,
		AllowUnlimitedAttempts: allowUnlimited,
	})
	if err != nil {
		svc.Log.Warn("failed to create remediation task", zap.String("taskId", target.TaskID()), zap.Error(err))
		return nil
	}

	if isAttemptLimitReached(outcome) && esc.Kind == RemediationConflictAutoFix {
		if mrErr := escalateToMainlineRecreate(ctx, svc, target, prNumber, esc.Reason); mrErr != nil {
			svc.Log.Warn("failed to escalate to mainline-recreate", zap.String("taskId", target.TaskID()), zap.Error(mrErr))
		}
		return nil
	}

	if err := RequeueTaskAfterJudge(ctx, svc, target.TaskID(), domain.BlockNeedsRework); err != nil {
		svc.Log.Warn("failed to requeue task after remediation", zap.String("taskId", target.TaskID()), zap.Error(err))
	}
	return nil
}

func escalateToMainlineRecreate(ctx context.Context, svc *Services, target PendingTarget, prNumber int, reason string) error {
	if prNumber != 0 {
		if err := svc.Forge.ClosePR(ctx, prNumber); err != nil {
			svc.Log.Warn("failed to close exhausted PR", zap.Int("pr", prNumber), zap.Error(err))
		}
	}
	_, err := CreateRemediationTask(ctx, svc, RemediationMainlineRecreate, RemediationRequest{
		PRNumber:               prNumber,
		SourceTaskID:           target.TaskID(),
		Goal:                   "Recreate the change directly against the mainline branch after repeated conflict-resolution attempts were exhausted",
		PreviousFailureReason:  reason,
		AllowUnlimitedAttempts: true,
	})
	if err != nil {
		return err
	}
	return svc.Store.Tasks().UpdateStatus(ctx, target.TaskID(), domain.TaskFailed, domain.BlockNone)
}

func isAttemptLimitReached(outcome string) bool {
	return strings.Contains(outcome, "_attempt_limit_reached:")
}

func handleDocserTrigger(ctx context.Context, svc *Services, target PendingTarget) {
	task, err := svc.Store.Tasks().Get(ctx, target.TaskID())
	if err != nil || task == nil {
		svc.Log.Warn("failed to load task for docser trigger", zap.String("taskId", target.TaskID()), zap.Error(err))
		return
	}

	var changedFiles []string
	var repoPath string
	switch t := target.(type) {
	case *prTarget:
		_, cf, err := svc.Forge.GetPRDiff(ctx, t.prNumber)
		if err == nil {
			changedFiles = cf
		}
	case *worktreeTarget:
		repoPath = t.candidate.Metadata.BaseRepoPath
		if repoPath == "" {
			repoPath = svc.Config.LocalBaseRepoPath
		}
		cf, err := svc.VCS.GetChangedFiles(ctx, repoPath)
		if err == nil {
			changedFiles = cf
		}
	}

	if err := TriggerDocser(ctx, svc, *task, changedFiles, repoPath); err != nil {
		svc.Log.Warn("docser trigger failed", zap.String("taskId", task.ID), zap.Error(err))
	}
}
