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
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/judge/internal/domain"
)

// RecoverBacklog re-arms runs whose task has sat in blocked/
// awaiting_judge past the cooldown without a fresh run ever reclaiming
// it (spec §4.8): the Judge instance that blocked the task may have
// crashed, or the worker that was supposed to produce a new run never
// ran. Re-arming restores the most recent judgeable run to eligibility
// so the next scan picks it back up.
func RecoverBacklog(ctx context.Context, svc *Services) (int, error) {
	cooldown := time.Duration(svc.Config.AwaitingRetryCooldownMS) * time.Millisecond
	cutoff := svc.now().Add(-cooldown)

	stale, err := svc.Store.Tasks().FindAwaitingJudgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find stale awaiting_judge tasks: %w", err)
	}

	recovered := 0
	for _, task := range stale {
		pending, err := svc.Store.Runs().HasPendingJudgement(ctx, task.ID)
		if err != nil {
			svc.Log.Warn("failed to check pending judgement during backlog recovery", zap.String("taskId", task.ID), zap.Error(err))
			continue
		}
		if pending {
			// an unclaimed successful run is already waiting for the scanner
			continue
		}

		run, err := svc.Store.Runs().FindLatestJudgeableByTask(ctx, task.ID)
		if err != nil {
			svc.Log.Warn("failed to find latest judgeable run during backlog recovery", zap.String("taskId", task.ID), zap.Error(err))
			continue
		}
		if run == nil {
			continue
		}

		if err := svc.Store.Runs().Rearm(ctx, run.ID); err != nil {
			svc.Log.Warn("failed to rearm run during backlog recovery", zap.String("runId", run.ID), zap.Error(err))
			continue
		}

		recordEvent(ctx, svc, domain.EventTaskRecovered, domain.EntityTask, task.ID, map[string]any{
			"runId":       run.ID,
			"retryCount":  task.RetryCount,
			"cooldownMs":  svc.Config.AwaitingRetryCooldownMS,
		})
		recovered++
	}
	return recovered, nil
}
