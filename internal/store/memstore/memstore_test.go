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
package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/store"
	"github.com/teradata-labs/judge/internal/store/memstore"
)

func TestRunClaim_OnlyOneWinner(t *testing.T) {
	ctx := context.Background()
	b := memstore.New()
	runID, err := setupSuccessfulRun(ctx, b)
	require.NoError(t, err)

	first, err := b.Runs().Claim(ctx, runID)
	require.NoError(t, err)
	require.True(t, first)

	second, err := b.Runs().Claim(ctx, runID)
	require.NoError(t, err)
	require.False(t, second)
}

func TestRunRearm_RestoresEligibility(t *testing.T) {
	ctx := context.Background()
	b := memstore.New()
	runID, err := setupSuccessfulRun(ctx, b)
	require.NoError(t, err)

	ok, err := b.Runs().Claim(ctx, runID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, b.Runs().Rearm(ctx, runID))

	ok, err = b.Runs().Claim(ctx, runID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMergeQueueEnqueue_DuplicateSourceIsRejected(t *testing.T) {
	ctx := context.Background()
	b := memstore.New()

	item := domain.MergeQueueItem{PRNumber: 42, TaskID: "task-1", RunID: "run-1", MaxAttempts: 3}
	first, err := b.MergeQueue().Enqueue(ctx, item)
	require.NoError(t, err)
	require.Equal(t, store.EnqueueCreated, first.Outcome)

	second, err := b.MergeQueue().Enqueue(ctx, item)
	require.NoError(t, err)
	require.Equal(t, store.EnqueueDuplicateSource, second.Outcome)
	require.Equal(t, first.ItemID, second.ItemID)
}

func TestMergeQueueEnqueue_ExistingActivePRIsRejected(t *testing.T) {
	ctx := context.Background()
	b := memstore.New()

	_, err := b.MergeQueue().Enqueue(ctx, domain.MergeQueueItem{PRNumber: 7, TaskID: "task-1", RunID: "run-1", MaxAttempts: 3})
	require.NoError(t, err)

	result, err := b.MergeQueue().Enqueue(ctx, domain.MergeQueueItem{PRNumber: 7, TaskID: "task-2", RunID: "run-2", MaxAttempts: 3})
	require.NoError(t, err)
	require.Equal(t, store.EnqueueExistingActive, result.Outcome)
}

func TestMergeQueueClaimAndFinalize_LostClaimReturnsFalse(t *testing.T) {
	ctx := context.Background()
	b := memstore.New()

	enqueued, err := b.MergeQueue().Enqueue(ctx, domain.MergeQueueItem{PRNumber: 9, TaskID: "task-1", RunID: "run-1", MaxAttempts: 3})
	require.NoError(t, err)

	claimed, err := b.MergeQueue().ClaimBatch(ctx, "agent-a", 1, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, enqueued.ItemID, claimed[0].ID)

	ok, err := b.MergeQueue().Finalize(ctx, claimed[0].ID, "agent-a", "wrong-token", store.MergeQueueFinalize{Status: domain.MergeQueueMerged})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = b.MergeQueue().Finalize(ctx, claimed[0].ID, "agent-a", *claimed[0].ClaimToken, store.MergeQueueFinalize{Status: domain.MergeQueueMerged})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMergeQueueRecoverExpiredClaims(t *testing.T) {
	ctx := context.Background()
	b := memstore.New()

	_, err := b.MergeQueue().Enqueue(ctx, domain.MergeQueueItem{PRNumber: 3, TaskID: "task-1", RunID: "run-1", MaxAttempts: 3})
	require.NoError(t, err)

	claimed, err := b.MergeQueue().ClaimBatch(ctx, "agent-a", 1, -time.Second) // already-expired lease
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	recovered, err := b.MergeQueue().RecoverExpiredClaims(ctx, time.Now(), time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, recovered)

	reclaimed, err := b.MergeQueue().ClaimBatch(ctx, "agent-b", 1, time.Minute)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
}

func setupSuccessfulRun(ctx context.Context, b *memstore.Backend) (string, error) {
	taskID, err := b.Tasks().Create(ctx, domain.Task{Title: "fix bug", Status: domain.TaskBlocked})
	if err != nil {
		return "", err
	}
	runID := taskID + "-run-1"
	b.SeedRun(domain.Run{ID: runID, TaskID: taskID, Status: domain.RunSuccess, StartedAt: time.Now()})
	return runID, nil
}
