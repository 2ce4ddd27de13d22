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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/judge/internal/config"
	"github.com/teradata-labs/judge/internal/domain"
)

func TestLocalMergeDriver_CleanFastForwardSucceeds(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())
	driver := NewLocalMergeDriver(svc)

	result, err := driver.Merge(ctx, "/repo", "main", "feature-1", "run-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestLocalMergeDriver_AbortsStuckMergeBeforeProceeding(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())
	vcs := &fakeVCS{mergeInProgress: true}
	abortCalled := false
	vcs.abortMergeFn = func(ctx context.Context, repoPath string) (VCSResult, error) {
		abortCalled = true
		vcs.mergeInProgress = false
		return VCSResult{Success: true}, nil
	}
	svc.VCS = vcs
	driver := NewLocalMergeDriver(svc)

	_, err := driver.Merge(ctx, "/repo", "main", "feature-1", "run-1")
	require.NoError(t, err)
	assert.True(t, abortCalled)
}

func TestLocalMergeDriver_FallsBackToNormalMergeWhenFFFails(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())
	vcs := &fakeVCS{}
	vcs.mergeBranchFn = func(ctx context.Context, repoPath, name string, opts MergeOptions) (VCSResult, error) {
		if opts.FFOnly {
			return VCSResult{Success: false, Stderr: "not a fast-forward"}, nil
		}
		return VCSResult{Success: true}, nil
	}
	svc.VCS = vcs
	driver := NewLocalMergeDriver(svc)

	result, err := driver.Merge(ctx, "/repo", "main", "feature-1", "run-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestLocalMergeDriver_AbortsOnFailedNormalMerge(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())
	vcs := &fakeVCS{}
	vcs.mergeBranchFn = func(ctx context.Context, repoPath, name string, opts MergeOptions) (VCSResult, error) {
		return VCSResult{Success: false, Stderr: "conflict"}, nil
	}
	abortCalled := false
	vcs.abortMergeFn = func(ctx context.Context, repoPath string) (VCSResult, error) {
		abortCalled = true
		return VCSResult{Success: true}, nil
	}
	svc.VCS = vcs
	driver := NewLocalMergeDriver(svc)

	result, err := driver.Merge(ctx, "/repo", "main", "feature-1", "run-1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, abortCalled)
}

func TestLocalMergeDriver_DirtyBaseStashRecoveryThenClean(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())
	svc.Config.LocalBaseRepoRecovery = config.RecoveryStash

	vcs := &fakeVCS{changedFiles: []string{"scratch.txt"}}
	stashed := false
	vcs.stashChangesFn = func(ctx context.Context, repoPath, message string) (VCSResult, error) {
		stashed = true
		vcs.changedFiles = nil
		vcs.untrackedFiles = nil
		return VCSResult{Success: true}, nil
	}
	svc.VCS = vcs
	driver := NewLocalMergeDriver(svc)

	result, err := driver.Merge(ctx, "/repo", "main", "feature-1", "run-1")
	require.NoError(t, err)
	assert.True(t, stashed)
	assert.True(t, result.Success)
}

func TestLocalMergeDriver_DirtyBaseStillDirtyAfterRecoveryFails(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())
	svc.Config.LocalBaseRepoRecovery = config.RecoveryNone

	vcs := &fakeVCS{changedFiles: []string{"scratch.txt"}}
	vcs.stashChangesFn = func(ctx context.Context, repoPath, message string) (VCSResult, error) {
		// stash "succeeds" but changes remain because cleanup never runs them off
		return VCSResult{Success: true}, nil
	}
	vcs.cleanUntrackedFn = func(ctx context.Context, repoPath string) (VCSResult, error) {
		return VCSResult{Success: true}, nil
	}
	svc.VCS = vcs
	driver := NewLocalMergeDriver(svc)

	result, err := driver.Merge(ctx, "/repo", "main", "feature-1", "run-1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Stderr, "still dirty")
}

func TestLocalMergeDriver_LLMRecoveryRestoresOnlyAboveConfidenceThreshold(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())
	svc.Config.LocalBaseRepoRecovery = config.RecoveryLLM
	svc.Config.LocalBaseRepoRecoveryConfidence = 0.8

	vcs := &fakeVCS{changedFiles: []string{"scratch.txt"}}
	vcs.stashChangesFn = func(ctx context.Context, repoPath, message string) (VCSResult, error) {
		vcs.changedFiles = nil
		vcs.untrackedFiles = nil
		return VCSResult{Success: true}, nil
	}
	applyCalled := false
	vcs.applyStashFn = func(ctx context.Context, repoPath, ref string) (VCSResult, error) {
		applyCalled = true
		return VCSResult{Success: true}, nil
	}
	svc.VCS = vcs
	svc.LLM = &fakeLLM{reviewFn: func(ctx context.Context, req LLMRequest) (domain.LLMResult, error) {
		return domain.LLMResult{Pass: true, Confidence: 0.5}, nil
	}}

	driver := NewLocalMergeDriver(svc)
	_, err := driver.Merge(ctx, "/repo", "main", "feature-1", "run-1")
	require.NoError(t, err)
	assert.False(t, applyCalled, "confidence below threshold must not restore")
}
