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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/judge/internal/domain"
)

func TestLoopTick_ProcessesAPendingCandidateAndTracksStats(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())
	target, _ := seedPRCandidateTarget(t, svc, 201)
	_ = target

	svc.Forge = &fakeForge{
		getPRDiffFn: func(ctx context.Context, n int) (string, []string, error) { return "diff", []string{"a.go"}, nil },
		getPRFn:     func(ctx context.Context, n int) (*PRInfo, error) { return &PRInfo{Number: n, Author: "someone"}, nil },
		authUserFn:  func(ctx context.Context) (string, error) { return "judge-bot", nil },
		mergePRFn:   func(ctx context.Context, n int, m MergeMethod) (MergeOutcome, error) { return MergeOutcome{Merged: true}, nil },
	}

	loop := NewLoop(svc)
	err := loop.Tick(ctx)
	require.NoError(t, err)

	stats := loop.Stats()
	assert.Equal(t, 1, stats.Ticks)
	assert.Equal(t, 1, stats.CandidatesJudged)
}

func TestLoopTick_AccumulatesAcrossMultipleTicks(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())
	loop := NewLoop(svc)

	for i := 0; i < 3; i++ {
		require.NoError(t, loop.Tick(ctx))
	}
	assert.Equal(t, 3, loop.Stats().Ticks)
}

func TestLoopTick_RecoversBacklogBeforeScanning(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend()
	svc := newTestServices(b)
	svc.Config.AwaitingRetryCooldownMS = 1

	stale := time.Now().Add(-time.Hour)
	seeder := b.(interface {
		SeedTask(domain.Task)
		SeedRun(domain.Run)
		SeedArtifact(domain.Artifact)
	})
	seeder.SeedTask(domain.Task{ID: "stale-task", Status: domain.TaskBlocked, BlockReason: domain.BlockAwaitingJudge, UpdatedAt: stale})
	seeder.SeedRun(domain.Run{ID: "stale-run", TaskID: "stale-task", Status: domain.RunSuccess, StartedAt: stale})
	seeder.SeedArtifact(domain.Artifact{ID: "art-stale-run", RunID: "stale-run", Type: domain.ArtifactPR, Ref: "777"})

	won, err := b.Runs().Claim(ctx, "stale-run")
	require.NoError(t, err)
	require.True(t, won)

	time.Sleep(2 * time.Millisecond)
	loop := NewLoop(svc)
	require.NoError(t, loop.Tick(ctx))
	assert.Equal(t, 1, loop.Stats().BacklogRecovered)
}

func TestLoopRun_StopsWhenContextCancelled(t *testing.T) {
	svc := newTestServices(newMemBackend())
	svc.Config.PollIntervalMS = 1
	loop := NewLoop(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := loop.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
