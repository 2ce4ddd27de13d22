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

	"go.uber.org/zap"

	"github.com/teradata-labs/judge/internal/domain"
)

// ClaimRun performs the run-claim protocol (spec §4.2): a conditional
// update that returns true iff this call won exclusive judgement of
// runID. A false result means another Judge instance already owns it;
// the caller must silently skip the candidate.
func ClaimRun(ctx context.Context, svc *Services, runID string) (bool, error) {
	won, err := svc.Store.Runs().Claim(ctx, runID)
	if err != nil {
		return false, fmt.Errorf("claim run %s: %w", runID, err)
	}
	if !won {
		svc.Log.Debug("run already claimed by another judge", zap.String("runId", runID))
	}
	return won, nil
}

// ScheduleTaskForJudgeRetry moves taskID to blocked/awaiting_judge and
// strictly increments its retry-count (spec §8 property 3). When
// restoreRunImmediately is true the run is re-armed now; otherwise it
// stays claimed until backlog recovery re-arms it after the cooldown
// (spec §4.2, §4.8).
func ScheduleTaskForJudgeRetry(ctx context.Context, svc *Services, taskID, runID, reason string, restoreRunImmediately bool) error {
	if _, err := svc.Store.Tasks().IncrementRetryCount(ctx, taskID); err != nil {
		return fmt.Errorf("increment retry count for %s: %w", taskID, err)
	}
	if err := svc.Store.Tasks().UpdateStatus(ctx, taskID, domain.TaskBlocked, domain.BlockAwaitingJudge); err != nil {
		return fmt.Errorf("block task %s for judge retry: %w", taskID, err)
	}
	if restoreRunImmediately {
		if err := svc.Store.Runs().Rearm(ctx, runID); err != nil {
			return fmt.Errorf("rearm run %s: %w", runID, err)
		}
	}
	recordEvent(ctx, svc, domain.EventTaskRequeued, domain.EntityTask, taskID, map[string]any{
		"runId":                 runID,
		"reason":                reason,
		"restoreRunImmediately": restoreRunImmediately,
	})
	return nil
}

// RequeueTaskAfterJudge moves taskID to blocked with the given reason
// (typically needs_rework, once a remediation task has been created to
// take over) and strictly increments its retry-count (spec §8 property 3).
func RequeueTaskAfterJudge(ctx context.Context, svc *Services, taskID string, reason domain.BlockReason) error {
	if _, err := svc.Store.Tasks().IncrementRetryCount(ctx, taskID); err != nil {
		return fmt.Errorf("increment retry count for %s: %w", taskID, err)
	}
	if err := svc.Store.Tasks().UpdateStatus(ctx, taskID, domain.TaskBlocked, reason); err != nil {
		return fmt.Errorf("requeue task %s: %w", taskID, err)
	}
	return nil
}
