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

// applyVerdictToPR executes the action executor's side effects for a PR
// candidate (spec §4.5): post the review, and on approve+auto-merge
// attempt the merge, interpreting the forge's response into an
// ActionOutcome the remediation ladder can route on.
func applyVerdictToPR(ctx context.Context, svc *Services, prNumber int, result domain.JudgeResult) (ActionOutcome, error) {
	pr, err := svc.Forge.GetPR(ctx, prNumber)
	if err != nil {
		return ActionOutcome{}, fmt.Errorf("fetch PR #%d: %w", prNumber, err)
	}

	selfAuthored := false
	if authUser, err := svc.Forge.GetAuthenticatedUser(ctx); err != nil {
		svc.Log.Warn("failed to resolve authenticated forge user", zap.Error(err))
	} else {
		selfAuthored = authUser != "" && authUser == pr.Author
	}

	body := formatReviewBody(result)
	if err := svc.Forge.AddPRComment(ctx, prNumber, body); err != nil {
		svc.Log.Warn("failed to post PR comment", zap.Int("pr", prNumber), zap.Error(err))
	}

	// A forge account cannot formally review its own PR; the comment above
	// is the only record of the verdict in that case.
	if !selfAuthored {
		event := ReviewRequestChanges
		if result.Verdict == domain.VerdictApprove {
			event = ReviewApprove
		}
		if err := svc.Forge.CreateReview(ctx, prNumber, event, body); err != nil {
			svc.Log.Warn("failed to post PR review", zap.Int("pr", prNumber), zap.Error(err))
		}
	}

	outcome := ActionOutcome{SelfAuthored: selfAuthored}
	if result.Verdict != domain.VerdictApprove || !result.AutoMerge {
		return outcome, nil
	}

	mergeOutcome, err := svc.Forge.MergePR(ctx, prNumber, MergeMethodSquash)
	switch {
	case err != nil:
		outcome.MergeDeferred = true
		outcome.MergeDeferredReason = fmt.Sprintf("merge_error:%v", err)
	case mergeOutcome.Merged:
		outcome.Merged = true
	case strings.Contains(strings.ToLower(mergeOutcome.Reason), "in progress"):
		outcome.MergeDeferred = true
		outcome.MergeDeferredReason = "merge_already_in_progress"
	default:
		refreshed, rerr := svc.Forge.GetPR(ctx, prNumber)
		if rerr == nil && refreshed.Merged {
			outcome.Merged = true
			break
		}
		if uerr := svc.Forge.UpdateBranch(ctx, prNumber); uerr != nil {
			outcome.MergeDeferred = false
			outcome.MergeDeferredReason = fmt.Sprintf("update_branch_failed:%v", uerr)
		} else {
			outcome.MergeDeferred = true
			outcome.MergeDeferredReason = "update_branch_requested:" + mergeOutcome.Reason
		}
	}
	return outcome, nil
}

func formatReviewBody(result domain.JudgeResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verdict: %s (risk: %s, confidence: %.2f)\n", result.Verdict, result.RiskLevel, result.Confidence)
	if len(result.Reasons) > 0 {
		b.WriteString("\nReasons:\n")
		for _, r := range result.Reasons {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	if len(result.Suggestions) > 0 {
		b.WriteString("\nSuggestions:\n")
		for _, s := range result.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return b.String()
}
