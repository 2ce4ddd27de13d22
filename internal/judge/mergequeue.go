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
	"golang.org/x/sync/errgroup"

	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/store"
)

// mergeQueueBatchLimit bounds how many items one drain tick claims (spec
// §4.7).
const mergeQueueBatchLimit = 3

// MergeQueueDrainResult tallies one drain tick's outcome.
type MergeQueueDrainResult struct {
	ClaimsRecovered int
	Claimed         int
	Merged          int
	Retried         int
	Failed          int
}

// DrainMergeQueue runs one pass of the merge-queue loop (spec §4.7):
// recover expired claims, claim a bounded batch, and process each claimed
// item concurrently with a lease-renewal heartbeat, bounded so one
// instance's drain never blocks on another's claim.
func DrainMergeQueue(ctx context.Context, svc *Services) (MergeQueueDrainResult, error) {
	var result MergeQueueDrainResult

	retryDelay := time.Duration(svc.Config.MergeQueueRetryDelayMS) * time.Millisecond
	recovered, err := svc.Store.MergeQueue().RecoverExpiredClaims(ctx, svc.now(), retryDelay)
	if err != nil {
		return result, fmt.Errorf("recover expired merge-queue claims: %w", err)
	}
	result.ClaimsRecovered = recovered
	if recovered > 0 {
		recordEvent(ctx, svc, domain.EventMergeQueueClaimRecovered, domain.EntityMergeQueue, "", map[string]any{
			"count": recovered,
		})
	}

	ttl := time.Duration(svc.Config.MergeQueueClaimTTLMS) * time.Millisecond
	items, err := svc.Store.MergeQueue().ClaimBatch(ctx, svc.AgentID, mergeQueueBatchLimit, ttl)
	if err != nil {
		return result, fmt.Errorf("claim merge-queue batch: %w", err)
	}
	result.Claimed = len(items)
	if len(items) == 0 {
		return result, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	outcomes := make(chan mergeQueueOutcome, len(items))
	for _, item := range items {
		item := item
		g.Go(func() error {
			outcomes <- processMergeQueueItem(gctx, svc, item, ttl)
			return nil
		})
	}
	_ = g.Wait()
	close(outcomes)

	for o := range outcomes {
		switch o.status {
		case domain.MergeQueueMerged:
			result.Merged++
		case domain.MergeQueueFailed:
			result.Failed++
		default:
			result.Retried++
		}
	}
	return result, nil
}

type mergeQueueOutcome struct {
	itemID string
	status domain.MergeQueueStatus
}

// leaseHeartbeatInterval is how often a held merge-queue claim is
// renewed while its merge attempt is in flight (spec §4.7 step 3).
func leaseHeartbeatInterval(ttl time.Duration) time.Duration {
	if half := ttl / 2; half > 5*time.Second {
		return half
	}
	return 5 * time.Second
}

func processMergeQueueItem(ctx context.Context, svc *Services, item domain.MergeQueueItem, ttl time.Duration) mergeQueueOutcome {
	owner := svc.AgentID
	token := ""
	if item.ClaimToken != nil {
		token = *item.ClaimToken
	}

	stop := make(chan struct{})
	defer close(stop)
	go renewLeaseUntilDone(ctx, svc, item.ID, owner, token, ttl, stop)

	mergeOutcome, mergeErr := svc.Forge.MergePR(ctx, item.PRNumber, MergeMethodSquash)

	var update struct {
		status        domain.MergeQueueStatus
		nextAttemptAt time.Time
		lastError     string
	}

	switch {
	case mergeErr == nil && mergeOutcome.Merged:
		update.status = domain.MergeQueueMerged
	case item.AttemptCount+1 >= item.MaxAttempts:
		update.status = domain.MergeQueueFailed
		update.lastError = mergeFailureReason(mergeErr, mergeOutcome)
	default:
		update.status = domain.MergeQueuePending
		update.nextAttemptAt = svc.now().Add(time.Duration(svc.Config.MergeQueueRetryDelayMS) * time.Millisecond)
		update.lastError = mergeFailureReason(mergeErr, mergeOutcome)
	}

	won, err := svc.Store.MergeQueue().Finalize(ctx, item.ID, owner, token, store.MergeQueueFinalize{
		Status:        update.status,
		NextAttemptAt: update.nextAttemptAt,
		LastError:     update.lastError,
		AttemptDelta:  1,
	})
	if err != nil {
		svc.Log.Warn("failed to finalize merge-queue item", zap.String("itemId", item.ID), zap.Error(err))
		return mergeQueueOutcome{itemID: item.ID, status: domain.MergeQueuePending}
	}
	if !won {
		svc.Log.Warn("lost merge-queue claim before finalize", zap.String("itemId", item.ID))
		return mergeQueueOutcome{itemID: item.ID, status: domain.MergeQueuePending}
	}

	evtType := domain.EventMergeQueueRetried
	switch update.status {
	case domain.MergeQueueMerged:
		evtType = domain.EventMergeQueueMerged
	case domain.MergeQueueFailed:
		evtType = domain.EventMergeQueueFailed
	}
	recordEvent(ctx, svc, evtType, domain.EntityMergeQueue, item.ID, map[string]any{
		"prNumber": item.PRNumber,
		"status":   update.status,
		"error":    update.lastError,
	})

	if update.status == domain.MergeQueueFailed {
		if err := escalateMergeQueueExhaustion(ctx, svc, item, update.lastError); err != nil {
			svc.Log.Warn("failed to escalate exhausted merge-queue item", zap.String("itemId", item.ID), zap.Error(err))
		}
	}

	return mergeQueueOutcome{itemID: item.ID, status: update.status}
}

// escalateMergeQueueExhaustion invokes the Conflict-AutoFix -> Mainline-Recreate
// ladder for a merge-queue item that exhausted its merge attempts (spec §4.7
// step 4), mirroring the same ladder pipeline.go runs for PR-judgement
// exhaustion.
func escalateMergeQueueExhaustion(ctx context.Context, svc *Services, item domain.MergeQueueItem, reason string) error {
	outcome, err := CreateRemediationTask(ctx, svc, RemediationConflictAutoFix, RemediationRequest{
		PRNumber:              item.PRNumber,
		SourceTaskID:          item.TaskID,
		Goal:                  fmt.Sprintf("Resolve merge-queue exhaustion for PR #%d: %s", item.PRNumber, reason),
		PreviousFailureReason: reason,
		MaxAttempts:           svc.Config.AutoFixMaxAttempts,
	})
	if err != nil {
		return fmt.Errorf("create conflict-autofix task for PR #%d: %w", item.PRNumber, err)
	}
	if !isAttemptLimitReached(outcome) {
		return nil
	}

	if err := svc.Forge.ClosePR(ctx, item.PRNumber); err != nil {
		svc.Log.Warn("failed to close exhausted PR", zap.Int("pr", item.PRNumber), zap.Error(err))
	}
	if _, err := CreateRemediationTask(ctx, svc, RemediationMainlineRecreate, RemediationRequest{
		PRNumber:               item.PRNumber,
		SourceTaskID:           item.TaskID,
		Goal:                   "Recreate the change directly against the mainline branch after repeated conflict-resolution attempts were exhausted",
		PreviousFailureReason:  reason,
		AllowUnlimitedAttempts: true,
	}); err != nil {
		return fmt.Errorf("create mainline-recreate task for PR #%d: %w", item.PRNumber, err)
	}
	return svc.Store.Tasks().UpdateStatus(ctx, item.TaskID, domain.TaskFailed, domain.BlockNone)
}

func mergeFailureReason(err error, outcome MergeOutcome) string {
	if err != nil {
		return err.Error()
	}
	return outcome.Reason
}

func renewLeaseUntilDone(ctx context.Context, svc *Services, itemID, owner, token string, ttl time.Duration, stop <-chan struct{}) {
	interval := leaseHeartbeatInterval(ttl)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if err := svc.Store.MergeQueue().ExtendClaim(ctx, itemID, owner, token, ttl); err != nil {
				svc.Log.Warn("failed to renew merge-queue lease", zap.String("itemId", itemID), zap.Error(err))
			}
		}
	}
}
