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

func TestNewAuxiliaryScheduler_AlwaysSchedulesHeartbeat(t *testing.T) {
	svc := newTestServices(newMemBackend())
	sched, err := NewAuxiliaryScheduler(svc)
	require.NoError(t, err)
	assert.Len(t, sched.cron.Entries(), 1, "supervisor mode is off by default, so only the heartbeat entry is scheduled")
}

func TestNewAuxiliaryScheduler_SupervisorModeAddsClaimSweep(t *testing.T) {
	svc := newTestServices(newMemBackend())
	svc.Config.SupervisorMode = true
	sched, err := NewAuxiliaryScheduler(svc)
	require.NoError(t, err)
	assert.Len(t, sched.cron.Entries(), 2)
}

func TestBeat_RecordsAgentHeartbeat(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())

	beat(ctx, svc)

	err := svc.Store.Agents().SetStatus(ctx, svc.AgentID, domain.AgentBusy, nil)
	require.NoError(t, err, "beat must have created the agent row for SetStatus to find")
}

func TestSupervisorClaimSweep_RecoversExpiredClaims(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())

	result, err := svc.Store.MergeQueue().Enqueue(ctx, domain.MergeQueueItem{
		PRNumber: 99, TaskID: "t", RunID: "r", MaxAttempts: 3,
	})
	require.NoError(t, err)
	_, err = svc.Store.MergeQueue().ClaimBatch(ctx, "stale-owner", 1, -time.Second)
	require.NoError(t, err)

	supervisorClaimSweep(ctx, svc)

	claimed, err := svc.Store.MergeQueue().ClaimBatch(ctx, svc.AgentID, 1, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, result.ItemID, claimed[0].ID)
}
