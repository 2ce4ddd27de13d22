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
package vcsadapter

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/judge/internal/judge"
)

func setupTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run(), "git %v", args)
	}
	run("init")
	run("config", "user.email", "judge@example.com")
	run("config", "user.name", "Judge")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "initial.txt"), []byte("x"), 0o644))
	run("add", ".")
	run("commit", "-m", "initial commit")
	return dir
}

func TestGit_GetChangedFilesReflectsWorkingTreeEdits(t *testing.T) {
	ctx := context.Background()
	dir := setupTestRepo(t)
	g := New()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "initial.txt"), []byte("changed"), 0o644))
	changed, err := g.GetChangedFiles(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"initial.txt"}, changed)
}

func TestGit_GetUntrackedFilesListsNewFiles(t *testing.T) {
	ctx := context.Background()
	dir := setupTestRepo(t)
	g := New()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("new"), 0o644))
	untracked, err := g.GetUntrackedFiles(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"scratch.txt"}, untracked)
}

func TestGit_StashAndApplyRoundTrips(t *testing.T) {
	ctx := context.Background()
	dir := setupTestRepo(t)
	g := New()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "initial.txt"), []byte("changed"), 0o644))
	result, err := g.StashChanges(ctx, dir, "test stash")
	require.NoError(t, err)
	require.True(t, result.Success)

	changed, err := g.GetChangedFiles(ctx, dir)
	require.NoError(t, err)
	assert.Empty(t, changed)

	ref, err := g.GetLatestStashRef(ctx, dir)
	require.NoError(t, err)
	require.NotEmpty(t, ref)

	applyResult, err := g.ApplyStash(ctx, dir, ref)
	require.NoError(t, err)
	assert.True(t, applyResult.Success)

	changed, err = g.GetChangedFiles(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"initial.txt"}, changed)
}

func TestGit_IsMergeInProgressFalseOnCleanRepo(t *testing.T) {
	ctx := context.Background()
	dir := setupTestRepo(t)
	g := New()

	inProgress, err := g.IsMergeInProgress(ctx, dir)
	require.NoError(t, err)
	assert.False(t, inProgress)
}

func TestGit_MergeBranchFastForward(t *testing.T) {
	ctx := context.Background()
	dir := setupTestRepo(t)
	g := New()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run(), "git %v", args)
	}

	run("checkout", "-b", "feature")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "feature.txt"), []byte("f"), 0o644))
	run("add", ".")
	run("commit", "-m", "feature commit")
	run("checkout", "-")

	result, err := g.MergeBranch(ctx, dir, "feature", judge.MergeOptions{FFOnly: true})
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, err = os.Stat(filepath.Join(dir, "feature.txt"))
	assert.NoError(t, err)
}
