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

// Package store declares the Judge's persistent-store contract (spec §3,
// §6): narrow per-table interfaces composed into a Backend, the way the
// teacher's pkg/storage.Backend exposes SessionStorage()/ArtifactStore()/
// etc. as separate accessors over one connection pool. Every mutation an
// implementation performs must be a conditional update scoped to
// (primary key, expected current state) — there is no in-memory ownership
// across ticks (spec §3 "Ownership").
package store

import (
	"context"
	"errors"
	"time"

	"github.com/teradata-labs/judge/internal/domain"
)

// ErrNotFound is returned when a lookup by id finds no row.
var ErrNotFound = errors.New("store: not found")

// PendingCandidate is one row yielded by the pending scanner (spec §4.1).
type PendingCandidate struct {
	TaskID        string
	RunID         string
	ArtifactType  domain.ArtifactType
	Ref           string // PR number as string, or worktree path
	URL           string
	StartedAt     time.Time
	TaskTitle     string
	TaskGoal      string
	TaskRiskLevel domain.Risk
	AllowedPaths  []string
	Commands      []string
	Priority      int
	Metadata      domain.ArtifactMetadata
}

// TaskStore is the tasks table adapter.
type TaskStore interface {
	Get(ctx context.Context, id string) (*domain.Task, error)
	Create(ctx context.Context, task domain.Task) (string, error)
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, reason domain.BlockReason) error
	IncrementRetryCount(ctx context.Context, id string) (int, error)
	CountByTitlePrefix(ctx context.Context, prefix string) (int, error)
	FindActiveByTitlePrefix(ctx context.Context, prefix string) (*domain.Task, error)
	FindAwaitingJudgeOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Task, error)
}

// RunStore is the runs table adapter.
type RunStore interface {
	Get(ctx context.Context, id string) (*domain.Run, error)
	// Claim performs the spec §4.2 conditional update and reports whether
	// this call won the claim.
	Claim(ctx context.Context, runID string) (bool, error)
	// Rearm sets judged_at back to null, restoring eligibility.
	Rearm(ctx context.Context, runID string) error
	HasPendingJudgement(ctx context.Context, taskID string) (bool, error)
	// FindLatestJudgeableByTask returns the most recent successful run for
	// taskID with a pr or worktree artifact, used by backlog recovery
	// (spec §4.8). Plugin-declared artifact types are not matched.
	FindLatestJudgeableByTask(ctx context.Context, taskID string) (*domain.Run, error)
}

// ArtifactStore is the artifacts table adapter.
type ArtifactStore interface {
	Create(ctx context.Context, artifact domain.Artifact) (string, error)
	GetByRun(ctx context.Context, runID string) (*domain.Artifact, error)
	// ListPending yields ready candidates of the given artifact type (spec
	// §4.1): successful, unjudged runs whose task is blocked, newest first,
	// deduplicated by task id.
	ListPending(ctx context.Context, artifactType domain.ArtifactType) ([]PendingCandidate, error)
}

// EventStore is the append-only events table adapter.
type EventStore interface {
	Record(ctx context.Context, event domain.Event) error
	ExistsByTypeAndEntity(ctx context.Context, eventType domain.EventType, entityID string) (bool, error)
}

// EnqueueOutcome is the result of MergeQueueStore.Enqueue (spec §4.7).
type EnqueueOutcome string

const (
	EnqueueCreated          EnqueueOutcome = "enqueued"
	EnqueueExistingActive   EnqueueOutcome = "existing_active_queue"
	EnqueueDuplicateSource  EnqueueOutcome = "duplicate_source_run"
)

// EnqueueResult reports what Enqueue did.
type EnqueueResult struct {
	Outcome    EnqueueOutcome
	ItemID     string
	ItemStatus domain.MergeQueueStatus
}

// MergeQueueFinalize is the set of fields Finalize may update atomically.
type MergeQueueFinalize struct {
	Status        domain.MergeQueueStatus
	NextAttemptAt time.Time
	LastError     string
	AttemptDelta  int
}

// MergeQueueStore is the pr_merge_queue table adapter.
type MergeQueueStore interface {
	Enqueue(ctx context.Context, item domain.MergeQueueItem) (EnqueueResult, error)
	// RecoverExpiredClaims flips processing rows whose claim has expired
	// back to pending (spec §4.7 step 1) and returns the count recovered.
	RecoverExpiredClaims(ctx context.Context, now time.Time, retryDelay time.Duration) (int, error)
	// ClaimBatch claims up to limit pending rows ordered by
	// (priority desc, next_attempt_at asc, created_at asc).
	ClaimBatch(ctx context.Context, owner string, limit int, ttl time.Duration) ([]domain.MergeQueueItem, error)
	// ExtendClaim renews a held claim's expiry (the lease-renewal heartbeat,
	// spec §4.7 step 3).
	ExtendClaim(ctx context.Context, id, owner, token string, ttl time.Duration) error
	// Finalize applies update only if the row is still held by
	// (owner, token); returns false if the claim was lost.
	Finalize(ctx context.Context, id, owner, token string, update MergeQueueFinalize) (bool, error)
}

// AgentStore is the agents table adapter.
type AgentStore interface {
	Heartbeat(ctx context.Context, agentID string, role string, now time.Time) error
	SetStatus(ctx context.Context, agentID string, status domain.AgentStatus, currentTaskID *string) error
}

// Backend composes every per-table store, mirroring the teacher's
// pkg/storage/postgres.Backend accessor style.
type Backend interface {
	Tasks() TaskStore
	Runs() RunStore
	Artifacts() ArtifactStore
	Events() EventStore
	MergeQueue() MergeQueueStore
	Agents() AgentStore
	Ping(ctx context.Context) error
	Close()
}
