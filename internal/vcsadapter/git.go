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

// Package vcsadapter implements judge.LocalVCSAdapter by shelling out to
// the git binary, the way a worktree-local merge driver has to.
package vcsadapter

import (
	"context"
	"os/exec"
	"strings"

	"github.com/teradata-labs/judge/internal/judge"
)

// Git adapts the git CLI to judge.LocalVCSAdapter.
type Git struct{}

var _ judge.LocalVCSAdapter = (*Git)(nil)

// New returns a Git adapter. It carries no state: every call takes the
// repoPath it operates against.
func New() *Git { return &Git{} }

func (g *Git) run(ctx context.Context, repoPath string, args ...string) judge.VCSResult {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoPath
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return judge.VCSResult{
		Success: err == nil,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
}

func (g *Git) GetChangedFiles(ctx context.Context, repoPath string) ([]string, error) {
	res := g.run(ctx, repoPath, "diff", "--name-only", "HEAD")
	return splitNonEmptyLines(res.Stdout), nil
}

func (g *Git) GetWorkingTreeDiff(ctx context.Context, repoPath string) (string, error) {
	res := g.run(ctx, repoPath, "diff", "HEAD")
	return res.Stdout, nil
}

func (g *Git) GetUntrackedFiles(ctx context.Context, repoPath string) ([]string, error) {
	res := g.run(ctx, repoPath, "ls-files", "--others", "--exclude-standard")
	return splitNonEmptyLines(res.Stdout), nil
}

func (g *Git) StashChanges(ctx context.Context, repoPath, message string) (judge.VCSResult, error) {
	return g.run(ctx, repoPath, "stash", "push", "--include-untracked", "--message", message), nil
}

func (g *Git) GetLatestStashRef(ctx context.Context, repoPath string) (string, error) {
	res := g.run(ctx, repoPath, "stash", "list", "--max-count=1", "--format=%gd")
	return strings.TrimSpace(res.Stdout), nil
}

func (g *Git) ApplyStash(ctx context.Context, repoPath, ref string) (judge.VCSResult, error) {
	return g.run(ctx, repoPath, "stash", "apply", ref), nil
}

func (g *Git) DropStash(ctx context.Context, repoPath, ref string) (judge.VCSResult, error) {
	return g.run(ctx, repoPath, "stash", "drop", ref), nil
}

func (g *Git) StageAll(ctx context.Context, repoPath string) (judge.VCSResult, error) {
	return g.run(ctx, repoPath, "add", "-A"), nil
}

func (g *Git) CommitChanges(ctx context.Context, repoPath, message string) (judge.VCSResult, error) {
	return g.run(ctx, repoPath, "commit", "-m", message), nil
}

func (g *Git) IsMergeInProgress(ctx context.Context, repoPath string) (bool, error) {
	res := g.run(ctx, repoPath, "rev-parse", "--verify", "-q", "MERGE_HEAD")
	return res.Success, nil
}

func (g *Git) AbortMerge(ctx context.Context, repoPath string) (judge.VCSResult, error) {
	return g.run(ctx, repoPath, "merge", "--abort"), nil
}

func (g *Git) CheckoutBranch(ctx context.Context, repoPath, name string) (judge.VCSResult, error) {
	return g.run(ctx, repoPath, "checkout", name), nil
}

func (g *Git) ResetHard(ctx context.Context, repoPath, ref string) (judge.VCSResult, error) {
	return g.run(ctx, repoPath, "reset", "--hard", ref), nil
}

func (g *Git) CleanUntracked(ctx context.Context, repoPath string) (judge.VCSResult, error) {
	return g.run(ctx, repoPath, "clean", "-fd"), nil
}

func (g *Git) MergeBranch(ctx context.Context, repoPath, name string, opts judge.MergeOptions) (judge.VCSResult, error) {
	args := []string{"merge"}
	if opts.FFOnly {
		args = append(args, "--ff-only")
	}
	if opts.NoEdit {
		args = append(args, "--no-edit")
	}
	args = append(args, name)
	return g.run(ctx, repoPath, args...), nil
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
