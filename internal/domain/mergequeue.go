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
package domain

import "time"

// MergeQueueStatus is the lifecycle state of one merge-queue row.
type MergeQueueStatus string

const (
	MergeQueuePending    MergeQueueStatus = "pending"
	MergeQueueProcessing MergeQueueStatus = "processing"
	MergeQueueMerged     MergeQueueStatus = "merged"
	MergeQueueFailed     MergeQueueStatus = "failed"
	MergeQueueCancelled  MergeQueueStatus = "cancelled"
)

// MergeQueueItem is an approved PR awaiting merge (spec §3). Uniqueness
// invariants: at most one row with Status in {pending, processing} per
// PRNumber; at most one row per (TaskID, RunID) pair.
type MergeQueueItem struct {
	ID             string
	PRNumber       int
	TaskID         string
	RunID          string
	Status         MergeQueueStatus
	Priority       int
	AttemptCount   int
	MaxAttempts    int
	NextAttemptAt  time.Time
	LastError      string
	ClaimOwner     *string
	ClaimToken     *string
	ClaimExpiresAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasValidClaim reports whether the row currently holds a live claim.
func (m MergeQueueItem) HasValidClaim(now time.Time) bool {
	return m.Status == MergeQueueProcessing &&
		m.ClaimOwner != nil && m.ClaimToken != nil &&
		m.ClaimExpiresAt != nil && m.ClaimExpiresAt.After(now)
}

// AgentStatus is the Judge process's own liveness state.
type AgentStatus string

const (
	AgentIdle    AgentStatus = "idle"
	AgentBusy    AgentStatus = "busy"
	AgentOffline AgentStatus = "offline"
)

// Agent is the Judge process itself (spec §3).
type Agent struct {
	ID            string
	Role          string
	Status        AgentStatus
	CurrentTaskID *string
	LastHeartbeat time.Time
	Metadata      map[string]any
}
