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
	"sort"
	"strconv"
	"time"

	"github.com/teradata-labs/judge/internal/config"
	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/store"
)

// PluginEvaluator lets a plugin register its own pending-target kind
// without the core scanner knowing its internals (spec §4.1 "plugin-
// defined pending targets").
type PluginEvaluator interface {
	Kind() domain.ArtifactType
	NewTarget(candidate store.PendingCandidate) PendingTarget
}

type scannedTarget struct {
	target    PendingTarget
	startedAt time.Time
}

// ScanPending lists ready candidates of every known kind (PRs, worktrees,
// and any registered plugin kinds), wraps each in its PendingTarget, and
// orders the combined list by run.started-at descending (spec §4.1,
// §5 ordering guarantee 2).
func ScanPending(ctx context.Context, svc *Services, plugins []PluginEvaluator) ([]PendingTarget, error) {
	var scanned []scannedTarget

	if svc.Config.JudgeMode == config.ModeGit || svc.Config.JudgeMode == config.ModeAuto {
		prCandidates, err := svc.Store.Artifacts().ListPending(ctx, domain.ArtifactPR)
		if err != nil {
			return nil, fmt.Errorf("list pending PR candidates: %w", err)
		}
		for _, c := range prCandidates {
			scanned = append(scanned, scannedTarget{target: newPRTarget(c), startedAt: c.StartedAt})
		}
	}

	if svc.Config.JudgeMode == config.ModeLocal || svc.Config.JudgeMode == config.ModeAuto {
		wtCandidates, err := svc.Store.Artifacts().ListPending(ctx, domain.ArtifactWorktree)
		if err != nil {
			return nil, fmt.Errorf("list pending worktree candidates: %w", err)
		}
		for _, c := range wtCandidates {
			scanned = append(scanned, scannedTarget{target: newWorktreeTarget(c), startedAt: c.StartedAt})
		}
	}

	for _, plugin := range plugins {
		candidates, err := svc.Store.Artifacts().ListPending(ctx, plugin.Kind())
		if err != nil {
			return nil, fmt.Errorf("list pending %s candidates: %w", plugin.Kind(), err)
		}
		for _, c := range candidates {
			scanned = append(scanned, scannedTarget{target: plugin.NewTarget(c), startedAt: c.StartedAt})
		}
	}

	sort.SliceStable(scanned, func(i, j int) bool {
		return scanned[i].startedAt.After(scanned[j].startedAt)
	})

	targets := make([]PendingTarget, len(scanned))
	for i, s := range scanned {
		targets[i] = s.target
	}
	return targets, nil
}

// prTarget is a PendingTarget backed by a forge pull request.
type prTarget struct {
	candidate store.PendingCandidate
	prNumber  int
}

func newPRTarget(c store.PendingCandidate) *prTarget {
	n, _ := strconv.Atoi(c.Ref)
	return &prTarget{candidate: c, prNumber: n}
}

func (t *prTarget) TaskID() string            { return t.candidate.TaskID }
func (t *prTarget) RunID() string             { return t.candidate.RunID }
func (t *prTarget) Kind() domain.ArtifactType { return domain.ArtifactPR }

func (t *prTarget) Evaluate(ctx context.Context, svc *Services) (domain.EvaluationSummary, error) {
	return evaluatePR(ctx, svc, t.candidate, t.prNumber)
}

func (t *prTarget) ApplyVerdict(ctx context.Context, svc *Services, result domain.JudgeResult) (ActionOutcome, error) {
	return applyVerdictToPR(ctx, svc, t.prNumber, result)
}

// worktreeTarget is a PendingTarget backed by a local worktree merged
// directly into a shared base repository (spec §4.10).
type worktreeTarget struct {
	candidate store.PendingCandidate
}

func newWorktreeTarget(c store.PendingCandidate) *worktreeTarget {
	return &worktreeTarget{candidate: c}
}

func (t *worktreeTarget) TaskID() string            { return t.candidate.TaskID }
func (t *worktreeTarget) RunID() string             { return t.candidate.RunID }
func (t *worktreeTarget) Kind() domain.ArtifactType { return domain.ArtifactWorktree }

func (t *worktreeTarget) Evaluate(ctx context.Context, svc *Services) (domain.EvaluationSummary, error) {
	return evaluateWorktree(ctx, svc, t.candidate)
}

func (t *worktreeTarget) ApplyVerdict(ctx context.Context, svc *Services, result domain.JudgeResult) (ActionOutcome, error) {
	if result.Verdict != domain.VerdictApprove || !result.AutoMerge {
		return ActionOutcome{}, nil
	}

	repoPath := t.candidate.Metadata.BaseRepoPath
	if repoPath == "" {
		repoPath = svc.Config.LocalBaseRepoPath
	}
	baseBranch := t.candidate.Metadata.BaseBranch
	if baseBranch == "" {
		baseBranch = svc.Config.LocalBaseBranch
	}
	featureBranch := t.candidate.Metadata.BranchName
	if featureBranch == "" {
		featureBranch = t.candidate.Ref
	}

	driver := NewLocalMergeDriver(svc)
	vcsResult, err := driver.Merge(ctx, repoPath, baseBranch, featureBranch, t.candidate.RunID)
	if err != nil {
		return ActionOutcome{}, fmt.Errorf("local merge for %s: %w", t.candidate.RunID, err)
	}
	if vcsResult.Success {
		return ActionOutcome{Merged: true}, nil
	}
	return ActionOutcome{MergeDeferred: true, MergeDeferredReason: vcsResult.Stderr}, nil
}
