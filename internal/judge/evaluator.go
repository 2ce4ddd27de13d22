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
	"time"

	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/store"
)

const llmDefaultTimeout = 300 * time.Second

// evaluatePR composes CI, policy, and LLM results for a PR candidate
// (spec §4.3).
func evaluatePR(ctx context.Context, svc *Services, c store.PendingCandidate, prNumber int) (domain.EvaluationSummary, error) {
	ci, err := svc.Forge.GetCIStatus(ctx, prNumber)
	if err != nil {
		ci = domain.CIResult{Pass: false, Status: "error", Reasons: []string{fmt.Sprintf("ci status check failed: %v", err)}}
	}

	diff, changedFiles, err := svc.Forge.GetPRDiff(ctx, prNumber)
	if err != nil {
		return domain.EvaluationSummary{}, fmt.Errorf("fetch PR #%d diff: %w", prNumber, err)
	}

	policyResult, err := evaluatePolicy(ctx, svc, c, changedFiles, diff)
	if err != nil {
		return domain.EvaluationSummary{}, err
	}

	llmResult := skippedLLMResult("ci_or_policy_failed")
	if ci.Pass && policyResult.Pass {
		ok, reason, mergeErr := svc.Forge.CheckMergeability(ctx, prNumber)
		switch {
		case mergeErr != nil:
			llmResult = skippedLLMResult(fmt.Sprintf("mergeability_precheck_failed: %v", mergeErr))
		case !ok:
			llmResult = skippedLLMResult("mergeability_precheck_failed: " + reason)
		default:
			llmResult = runLLMReview(ctx, svc, c, diff)
		}
	}

	risk := EffectiveRisk(c.TaskRiskLevel, computeDiffRisk(changedFiles, diff))
	return domain.EvaluationSummary{CI: ci, Policy: policyResult, LLM: llmResult, Risk: risk}, nil
}

// evaluateWorktree composes CI (always synthetic pass; CI is external to
// the local loop per spec §4.3), policy, and LLM results for a worktree
// candidate.
func evaluateWorktree(ctx context.Context, svc *Services, c store.PendingCandidate) (domain.EvaluationSummary, error) {
	ci := domain.CIResult{Pass: true, Status: "external"}

	repoPath := c.Metadata.BaseRepoPath
	if repoPath == "" {
		repoPath = svc.Config.LocalBaseRepoPath
	}

	diff, err := svc.VCS.GetWorkingTreeDiff(ctx, repoPath)
	if err != nil {
		return domain.EvaluationSummary{}, fmt.Errorf("get worktree diff for %s: %w", c.Ref, err)
	}
	changedFiles, err := svc.VCS.GetChangedFiles(ctx, repoPath)
	if err != nil {
		return domain.EvaluationSummary{}, fmt.Errorf("get worktree changed files for %s: %w", c.Ref, err)
	}

	policyResult, err := evaluatePolicy(ctx, svc, c, changedFiles, diff)
	if err != nil {
		return domain.EvaluationSummary{}, err
	}

	llmResult := skippedLLMResult("policy_failed")
	if policyResult.Pass {
		llmResult = runLLMReview(ctx, svc, c, diff)
	}

	risk := EffectiveRisk(c.TaskRiskLevel, computeDiffRisk(changedFiles, diff))
	return domain.EvaluationSummary{CI: ci, Policy: policyResult, LLM: llmResult, Risk: risk}, nil
}

func evaluatePolicy(ctx context.Context, svc *Services, c store.PendingCandidate, changedFiles []string, diff string) (domain.PolicyResult, error) {
	if svc.Policies == nil {
		return domain.PolicyResult{Pass: true}, nil
	}
	result, err := svc.Policies.Evaluate(ctx, PolicyInput{
		AllowedPaths:     c.AllowedPaths,
		VerificationCmds: c.Commands,
		ChangedFiles:     changedFiles,
		Diff:             diff,
	})
	if err != nil {
		return domain.PolicyResult{}, fmt.Errorf("evaluate policy for %s: %w", c.TaskID, err)
	}
	return result, nil
}

func runLLMReview(ctx context.Context, svc *Services, c store.PendingCandidate, diff string) domain.LLMResult {
	if !svc.Config.UseLLM || svc.LLM == nil {
		return skippedLLMResult("llm_disabled")
	}
	result, err := svc.LLM.Review(ctx, LLMRequest{
		Prompt:   buildReviewPrompt(c, diff),
		TaskGoal: c.TaskGoal,
		Timeout:  llmDefaultTimeout,
	})
	if err != nil {
		return domain.LLMResult{Pass: false, Reasons: []string{fmt.Sprintf("llm review failed: %v", err)}}
	}
	return result
}

func buildReviewPrompt(c store.PendingCandidate, diff string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\nGoal: %s\n\nDiff:\n%s", c.TaskTitle, c.TaskGoal, diff)
	return b.String()
}

// skippedLLMResult synthesizes an LLMResult for a candidate that never
// reached the LLM review step. Only the intentional "llm_disabled"
// opt-out is reported as a pass; every other reason (CI/policy already
// failed, or the mergeability precheck itself failed) is a genuine
// failure instead of the PR silently auto-approving. A failed precheck
// reaches Verdict (spec §4.4 rule 3) and the non-actionable-LLM-retry
// path (spec §4.6/§4.9); a CI/policy failure is routed to AutoFix by
// DetermineEscalation before the LLM cases are checked.
func skippedLLMResult(reason string) domain.LLMResult {
	if reason == "llm_disabled" {
		return domain.LLMResult{Pass: true, Skipped: true, SkipReason: reason}
	}
	return domain.LLMResult{Pass: false, SkipReason: reason, Reasons: []string{reason}}
}

// computeDiffRisk heuristically scores diff size: at most 50 diff lines
// and at most 3 files is low, at most 300 lines and at most 15 files is
// medium, else high.
// The spec leaves the exact thresholds unspecified (§4.3 only requires a
// diff-computed risk component); this mirrors the kind of coarse LOC/file
// banding the pack's policy-evaluator examples use.
func computeDiffRisk(changedFiles []string, diff string) domain.Risk {
	lines := strings.Count(diff, "\n")
	switch {
	case lines > 300 || len(changedFiles) > 15:
		return domain.RiskHigh
	case lines > 50 || len(changedFiles) > 3:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}
