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

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const agentRole = "judge"

// AuxiliaryScheduler drives the sweeps that do not need to run on every
// tick (spec §4.11's 30s heartbeat, and a slower supervisor-mode
// expired-claim sweep), the way the teacher's Scheduler drives
// ScheduleExecutions, rather than a hand-rolled time.Ticker goroutine
// per concern.
type AuxiliaryScheduler struct {
	cron *cron.Cron
}

// NewAuxiliaryScheduler wires the heartbeat entry (always) and the
// supervisor-mode claim-recovery entry (only when svc.Config.SupervisorMode
// is set) onto a cron.Cron.
func NewAuxiliaryScheduler(svc *Services) (*AuxiliaryScheduler, error) {
	c := cron.New()

	if _, err := c.AddFunc("@every 30s", func() {
		beat(context.Background(), svc)
	}); err != nil {
		return nil, fmt.Errorf("schedule heartbeat: %w", err)
	}

	if svc.Config.SupervisorMode {
		if _, err := c.AddFunc("@every 120s", func() {
			supervisorClaimSweep(context.Background(), svc)
		}); err != nil {
			return nil, fmt.Errorf("schedule supervisor claim sweep: %w", err)
		}
	}

	return &AuxiliaryScheduler{cron: c}, nil
}

// Start begins running scheduled entries in the background.
func (s *AuxiliaryScheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for any in-flight entry to finish.
func (s *AuxiliaryScheduler) Stop() { <-s.cron.Stop().Done() }

func beat(ctx context.Context, svc *Services) {
	if err := svc.Store.Agents().Heartbeat(ctx, svc.AgentID, agentRole, svc.now()); err != nil {
		svc.Log.Warn("failed to record agent heartbeat", zap.String("agentId", svc.AgentID), zap.Error(err))
	}
}

// supervisorClaimSweep recovers merge-queue claims on a slower cadence
// than the per-tick drain, as a backstop for a supervisor instance that
// watches a fleet rather than draining its own queue every tick.
func supervisorClaimSweep(ctx context.Context, svc *Services) {
	retryDelay := time.Duration(svc.Config.MergeQueueRetryDelayMS) * time.Millisecond
	recovered, err := svc.Store.MergeQueue().RecoverExpiredClaims(ctx, svc.now(), retryDelay)
	if err != nil {
		svc.Log.Warn("supervisor claim sweep failed", zap.Error(err))
		return
	}
	if recovered > 0 {
		svc.Log.Info("supervisor claim sweep recovered stale claims", zap.Int("count", recovered))
	}
}
