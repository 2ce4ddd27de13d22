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
	"errors"
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"github.com/teradata-labs/judge/internal/blobcodec"
	"github.com/teradata-labs/judge/internal/config"
	"github.com/teradata-labs/judge/internal/domain"
)

// LocalMergeDriver merges a worktree's feature branch into the base
// branch of a shared base repository (spec §4.10). The base repo is a
// shared filesystem resource; only one Judge instance touches it at a
// time, serialized implicitly by the merge-queue claim on its source PR
// row or by single-writer convention on the base repo path (spec §5).
type LocalMergeDriver struct {
	svc *Services
}

// NewLocalMergeDriver returns a driver bound to svc's VCS adapter, LLM
// adapter, and config.
func NewLocalMergeDriver(svc *Services) *LocalMergeDriver {
	return &LocalMergeDriver{svc: svc}
}

// Merge attempts to land featureBranch onto baseBranch in repoPath,
// recovering a dirty base first if needed (spec §4.10).
func (d *LocalMergeDriver) Merge(ctx context.Context, repoPath, baseBranch, featureBranch, runID string) (VCSResult, error) {
	svc := d.svc

	if inProgress, err := svc.VCS.IsMergeInProgress(ctx, repoPath); err != nil {
		return VCSResult{}, fmt.Errorf("check merge-in-progress: %w", err)
	} else if inProgress {
		if _, err := svc.VCS.AbortMerge(ctx, repoPath); err != nil {
			return VCSResult{}, fmt.Errorf("abort stuck merge: %w", err)
		}
	}

	dirty, err := d.isDirty(ctx, repoPath)
	if err != nil {
		return VCSResult{}, err
	}
	if dirty {
		if err := d.recoverDirtyBase(ctx, repoPath, runID); err != nil {
			return VCSResult{Success: false, Stderr: err.Error()}, nil
		}
	}

	if result, err := svc.VCS.CheckoutBranch(ctx, repoPath, baseBranch); err != nil {
		return VCSResult{}, fmt.Errorf("checkout base branch %s: %w", baseBranch, err)
	} else if !result.Success {
		return result, nil
	}

	ffResult, err := svc.VCS.MergeBranch(ctx, repoPath, featureBranch, MergeOptions{FFOnly: true})
	if err != nil {
		return VCSResult{}, fmt.Errorf("fast-forward merge %s: %w", featureBranch, err)
	}
	if ffResult.Success {
		return ffResult, nil
	}

	normalResult, err := svc.VCS.MergeBranch(ctx, repoPath, featureBranch, MergeOptions{NoEdit: true})
	if err != nil {
		return VCSResult{}, fmt.Errorf("merge %s: %w", featureBranch, err)
	}
	if normalResult.Success {
		return normalResult, nil
	}

	if _, err := svc.VCS.AbortMerge(ctx, repoPath); err != nil {
		svc.Log.Warn("failed to abort failed merge", zap.String("repoPath", repoPath), zap.Error(err))
	}
	return normalResult, nil
}

func (d *LocalMergeDriver) isDirty(ctx context.Context, repoPath string) (bool, error) {
	changed, err := d.svc.VCS.GetChangedFiles(ctx, repoPath)
	if err != nil {
		return false, fmt.Errorf("get changed files: %w", err)
	}
	untracked, err := d.svc.VCS.GetUntrackedFiles(ctx, repoPath)
	if err != nil {
		return false, fmt.Errorf("get untracked files: %w", err)
	}
	return len(changed) > 0 || len(untracked) > 0, nil
}

// recoverDirtyBase implements the five-step dirty-base recovery sequence
// (spec §4.10).
func (d *LocalMergeDriver) recoverDirtyBase(ctx context.Context, repoPath, runID string) error {
	svc := d.svc

	diff, err := svc.VCS.GetWorkingTreeDiff(ctx, repoPath)
	if err != nil {
		return fmt.Errorf("capture dirty-base diff: %w", err)
	}
	insertions, deletions := countDiffLines(diff)
	truncated := false
	limit := svc.Config.LocalBaseRepoRecoveryDiffLimit
	if limit > 0 && len(diff) > limit {
		diff = diff[:limit]
		truncated = true
	}
	extra := map[string]any{
		"insertions": insertions,
		"deletions":  deletions,
	}
	if compressed, compressErr := blobcodec.CompressToBase64(diff); compressErr == nil {
		extra["diffZstdBase64"] = compressed
	} else {
		svc.Log.Warn("failed to compress dirty-base diff for storage", zap.Error(compressErr))
	}
	if _, err := svc.Store.Artifacts().Create(ctx, domain.Artifact{
		RunID: runID,
		Type:  domain.ArtifactBaseRepoDiff,
		Metadata: domain.ArtifactMetadata{
			BaseRepoPath: repoPath,
			Truncated:    truncated,
			Extra:        extra,
		},
	}); err != nil {
		svc.Log.Warn("failed to persist base_repo_diff artifact", zap.Error(err))
	}

	stashMsg := fmt.Sprintf("judge-dirty-base-recovery-%d", svc.now().Unix())
	if _, err := svc.VCS.StashChanges(ctx, repoPath, stashMsg); err != nil {
		return fmt.Errorf("stash dirty base: %w", err)
	}
	stashRef, err := svc.VCS.GetLatestStashRef(ctx, repoPath)
	if err != nil {
		return fmt.Errorf("read stash ref: %w", err)
	}
	recordEvent(ctx, svc, domain.EventBaseRepoStashed, domain.EntityRun, runID, map[string]any{
		"repoPath": repoPath,
		"stashRef": stashRef,
		"truncated": truncated,
	})

	switch svc.Config.LocalBaseRepoRecovery {
	case config.RecoveryStash:
		return d.verifyClean(ctx, repoPath)
	case config.RecoveryNone:
		return d.verifyClean(ctx, repoPath)
	case config.RecoveryLLM:
		if err := d.maybeRestoreFromStash(ctx, repoPath, stashRef, diff, runID); err != nil {
			return err
		}
		return d.verifyClean(ctx, repoPath)
	default:
		return d.verifyClean(ctx, repoPath)
	}
}

func (d *LocalMergeDriver) maybeRestoreFromStash(ctx context.Context, repoPath, stashRef, diff, runID string) error {
	svc := d.svc
	result, err := svc.LLM.Review(ctx, LLMRequest{
		Prompt:   "Should the following stashed working-tree diff on the shared base repository be restored before continuing?\n\n" + diff,
		TaskGoal: "base repository dirty-state recovery decision",
		Timeout:  llmDefaultTimeout,
	})
	if err != nil {
		recordEvent(ctx, svc, domain.EventBaseRepoRecoveryDecision, domain.EntityRun, runID, map[string]any{
			"restore": false,
			"reason":  fmt.Sprintf("llm_error:%v", err),
		})
		return nil
	}

	restore := result.Pass &&
		result.Confidence >= svc.Config.LocalBaseRepoRecoveryConfidence &&
		!hasSeverity(result.CodeIssues, "error") &&
		!hasSeverity(result.CodeIssues, "warning")

	recordEvent(ctx, svc, domain.EventBaseRepoRecoveryDecision, domain.EntityRun, runID, map[string]any{
		"restore":    restore,
		"confidence": result.Confidence,
	})
	if !restore {
		return nil
	}

	if err := d.applyStashOrReset(ctx, repoPath, stashRef); err != nil {
		return err
	}
	return nil
}

func (d *LocalMergeDriver) applyStashOrReset(ctx context.Context, repoPath, stashRef string) error {
	svc := d.svc
	applyResult, err := svc.VCS.ApplyStash(ctx, repoPath, stashRef)
	if err != nil || !applyResult.Success {
		d.resetAndClean(ctx, repoPath)
		return fmt.Errorf("apply stash %s: %w", stashRef, orStderr(err, applyResult))
	}
	if result, err := svc.VCS.StageAll(ctx, repoPath); err != nil || !result.Success {
		d.resetAndClean(ctx, repoPath)
		return fmt.Errorf("stage restored changes: %w", orStderr(err, result))
	}
	commitMsg := "restore stashed base-repo changes after LLM-approved recovery"
	if result, err := svc.VCS.CommitChanges(ctx, repoPath, commitMsg); err != nil || !result.Success {
		d.resetAndClean(ctx, repoPath)
		return fmt.Errorf("commit restored changes: %w", orStderr(err, result))
	}
	return nil
}

func (d *LocalMergeDriver) resetAndClean(ctx context.Context, repoPath string) {
	if _, err := d.svc.VCS.ResetHard(ctx, repoPath, "HEAD"); err != nil {
		d.svc.Log.Warn("reset hard failed during recovery cleanup", zap.Error(err))
	}
	if _, err := d.svc.VCS.CleanUntracked(ctx, repoPath); err != nil {
		d.svc.Log.Warn("clean untracked failed during recovery cleanup", zap.Error(err))
	}
}

func (d *LocalMergeDriver) verifyClean(ctx context.Context, repoPath string) error {
	dirty, err := d.isDirty(ctx, repoPath)
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}
	if _, err := d.svc.VCS.CleanUntracked(ctx, repoPath); err != nil {
		return fmt.Errorf("clean untracked during recovery: %w", err)
	}
	dirty, err = d.isDirty(ctx, repoPath)
	if err != nil {
		return err
	}
	if dirty {
		return errors.New("base repository still dirty after recovery")
	}
	return nil
}

func hasSeverity(issues []domain.CodeIssue, severity string) bool {
	for _, issue := range issues {
		if issue.Severity == severity {
			return true
		}
	}
	return false
}

// countDiffLines reduces a unified diff's working-tree changes to an
// insertions/deletions line count, run through diffmatchpatch against an
// empty base so the base_repo_diff artifact's metadata (spec §4.10)
// carries a size summary without requiring the caller to scan the raw
// text itself.
func countDiffLines(diff string) (insertions, deletions int) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain("", diff, false)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			insertions += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			deletions += countLines(d.Text)
		}
	}
	return insertions, deletions
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}

func orStderr(err error, result VCSResult) error {
	if err != nil {
		return err
	}
	return errors.New(result.Stderr)
}
