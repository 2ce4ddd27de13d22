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

// Package memstore is an in-memory store.Backend used by internal/judge's
// tests in place of a real Postgres connection. It implements the exact
// conditional-update semantics the real store promises (run claim,
// merge-queue lease claim/finalize) behind one mutex, so tests exercise
// the real contention logic without a database.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/store"
)

// db holds all state behind one mutex; Backend and its per-table facades
// all share the same *db so the whole fake behaves like one connection
// pool the way the real Postgres backend does.
type db struct {
	mu sync.Mutex

	tasks      map[string]domain.Task
	runs       map[string]domain.Run
	artifacts  map[string]domain.Artifact
	events     []domain.Event
	mergeQueue map[string]domain.MergeQueueItem
	agents     map[string]domain.Agent
}

// Backend is the in-memory store.Backend. Each accessor returns a thin
// facade over the same shared *db, mirroring the real Backend's
// one-pool-many-accessors shape.
type Backend struct {
	db *db

	tasks      taskStore
	runs       runStore
	artifacts  artifactStore
	events     eventStore
	mergeQueue mergeQueueStore
	agents     agentStore
}

// New returns an empty Backend ready for use.
func New() *Backend {
	d := &db{
		tasks:      map[string]domain.Task{},
		runs:       map[string]domain.Run{},
		artifacts:  map[string]domain.Artifact{},
		mergeQueue: map[string]domain.MergeQueueItem{},
		agents:     map[string]domain.Agent{},
	}
	return &Backend{
		db:         d,
		tasks:      taskStore{d},
		runs:       runStore{d},
		artifacts:  artifactStore{d},
		events:     eventStore{d},
		mergeQueue: mergeQueueStore{d},
		agents:     agentStore{d},
	}
}

var _ store.Backend = (*Backend)(nil)

func (b *Backend) Tasks() store.TaskStore            { return b.tasks }
func (b *Backend) Runs() store.RunStore               { return b.runs }
func (b *Backend) Artifacts() store.ArtifactStore      { return b.artifacts }
func (b *Backend) Events() store.EventStore            { return b.events }
func (b *Backend) MergeQueue() store.MergeQueueStore   { return b.mergeQueue }
func (b *Backend) Agents() store.AgentStore            { return b.agents }

func (b *Backend) Ping(ctx context.Context) error { return nil }
func (b *Backend) Close()                         {}

// SeedTask inserts t directly, bypassing TaskStore.Create's id/timestamp
// defaulting — for tests that need full control over a task's fields.
func (b *Backend) SeedTask(t domain.Task) {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	b.db.tasks[t.ID] = t
}

// SeedRun inserts r directly. Runs are never created through store.RunStore
// (the worker pipeline writes them outside Judge's scope, per spec §3); test
// fixtures seed them here instead.
func (b *Backend) SeedRun(r domain.Run) {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	b.db.runs[r.ID] = r
}

// SeedArtifact inserts a directly.
func (b *Backend) SeedArtifact(a domain.Artifact) {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	b.db.artifacts[a.ID] = a
}

// --- TaskStore ---

type taskStore struct{ d *db }

var _ store.TaskStore = taskStore{}

func (s taskStore) Get(ctx context.Context, id string) (*domain.Task, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	t, ok := s.d.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (s taskStore) Create(ctx context.Context, task domain.Task) (string, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	s.d.tasks[task.ID] = task
	return task.ID, nil
}

func (s taskStore) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, reason domain.BlockReason) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	t, ok := s.d.tasks[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Status = status
	t.BlockReason = reason
	t.UpdatedAt = time.Now()
	s.d.tasks[id] = t
	return nil
}

func (s taskStore) IncrementRetryCount(ctx context.Context, id string) (int, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	t, ok := s.d.tasks[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	t.RetryCount++
	t.UpdatedAt = time.Now()
	s.d.tasks[id] = t
	return t.RetryCount, nil
}

func (s taskStore) CountByTitlePrefix(ctx context.Context, prefix string) (int, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	count := 0
	for _, t := range s.d.tasks {
		if strings.HasPrefix(t.Title, prefix) {
			count++
		}
	}
	return count, nil
}

func (s taskStore) FindActiveByTitlePrefix(ctx context.Context, prefix string) (*domain.Task, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var best *domain.Task
	for _, t := range s.d.tasks {
		if !strings.HasPrefix(t.Title, prefix) {
			continue
		}
		if t.Status != domain.TaskQueued && t.Status != domain.TaskRunning && t.Status != domain.TaskBlocked {
			continue
		}
		t := t
		if best == nil || t.CreatedAt.After(best.CreatedAt) {
			best = &t
		}
	}
	return best, nil
}

func (s taskStore) FindAwaitingJudgeOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Task, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var out []domain.Task
	for _, t := range s.d.tasks {
		if t.Status == domain.TaskBlocked && t.BlockReason == domain.BlockAwaitingJudge && !t.UpdatedAt.After(cutoff) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

// --- RunStore ---

type runStore struct{ d *db }

var _ store.RunStore = runStore{}

func (s runStore) Get(ctx context.Context, id string) (*domain.Run, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	r, ok := s.d.runs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s runStore) Claim(ctx context.Context, runID string) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	r, ok := s.d.runs[runID]
	if !ok || r.Status != domain.RunSuccess || r.JudgedAt != nil {
		return false, nil
	}
	now := time.Now()
	r.JudgedAt = &now
	r.JudgementVersion++
	s.d.runs[runID] = r
	return true, nil
}

func (s runStore) Rearm(ctx context.Context, runID string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	r, ok := s.d.runs[runID]
	if !ok {
		return store.ErrNotFound
	}
	r.JudgedAt = nil
	s.d.runs[runID] = r
	return nil
}

func (s runStore) HasPendingJudgement(ctx context.Context, taskID string) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, r := range s.d.runs {
		if r.TaskID == taskID && r.Status == domain.RunSuccess && r.JudgedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (s runStore) FindLatestJudgeableByTask(ctx context.Context, taskID string) (*domain.Run, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var best *domain.Run
	for _, a := range s.d.artifacts {
		if a.Type != domain.ArtifactPR && a.Type != domain.ArtifactWorktree {
			continue
		}
		r, ok := s.d.runs[a.RunID]
		if !ok || r.TaskID != taskID || r.Status != domain.RunSuccess {
			continue
		}
		r := r
		if best == nil || r.StartedAt.After(best.StartedAt) {
			best = &r
		}
	}
	return best, nil
}

// --- ArtifactStore ---

type artifactStore struct{ d *db }

var _ store.ArtifactStore = artifactStore{}

func (s artifactStore) Create(ctx context.Context, artifact domain.Artifact) (string, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now()
	}
	s.d.artifacts[artifact.ID] = artifact
	return artifact.ID, nil
}

func (s artifactStore) GetByRun(ctx context.Context, runID string) (*domain.Artifact, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var best *domain.Artifact
	for _, a := range s.d.artifacts {
		if a.RunID != runID {
			continue
		}
		a := a
		if best == nil || a.CreatedAt.After(best.CreatedAt) {
			best = &a
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	return best, nil
}

func (s artifactStore) ListPending(ctx context.Context, artifactType domain.ArtifactType) ([]store.PendingCandidate, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	byTask := map[string]store.PendingCandidate{}
	for _, a := range s.d.artifacts {
		if a.Type != artifactType {
			continue
		}
		r, ok := s.d.runs[a.RunID]
		if !ok || r.Status != domain.RunSuccess || r.JudgedAt != nil {
			continue
		}
		t, ok := s.d.tasks[r.TaskID]
		if !ok || t.Status != domain.TaskBlocked {
			continue
		}
		existing, seen := byTask[t.ID]
		if seen && !r.StartedAt.After(existing.StartedAt) {
			continue
		}
		byTask[t.ID] = store.PendingCandidate{
			TaskID:        t.ID,
			RunID:         r.ID,
			ArtifactType:  a.Type,
			Ref:           a.Ref,
			URL:           a.URL,
			StartedAt:     r.StartedAt,
			TaskTitle:     t.Title,
			TaskGoal:      t.Goal,
			TaskRiskLevel: t.RiskLevel,
			AllowedPaths:  t.AllowedPaths,
			Commands:      t.VerificationCmds,
			Priority:      t.Priority,
			Metadata:      a.Metadata,
		}
	}

	out := make([]store.PendingCandidate, 0, len(byTask))
	for _, c := range byTask {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

// --- EventStore ---

type eventStore struct{ d *db }

var _ store.EventStore = eventStore{}

func (s eventStore) Record(ctx context.Context, event domain.Event) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	s.d.events = append(s.d.events, event)
	return nil
}

func (s eventStore) ExistsByTypeAndEntity(ctx context.Context, eventType domain.EventType, entityID string) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, e := range s.d.events {
		if e.Type == eventType && e.EntityID == entityID {
			return true, nil
		}
	}
	return false, nil
}

// --- MergeQueueStore ---

type mergeQueueStore struct{ d *db }

var _ store.MergeQueueStore = mergeQueueStore{}

func (s mergeQueueStore) Enqueue(ctx context.Context, item domain.MergeQueueItem) (store.EnqueueResult, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for _, existing := range s.d.mergeQueue {
		if existing.TaskID == item.TaskID && existing.RunID == item.RunID {
			return store.EnqueueResult{Outcome: store.EnqueueDuplicateSource, ItemID: existing.ID, ItemStatus: existing.Status}, nil
		}
	}
	for _, existing := range s.d.mergeQueue {
		if existing.PRNumber == item.PRNumber &&
			(existing.Status == domain.MergeQueuePending || existing.Status == domain.MergeQueueProcessing) {
			return store.EnqueueResult{Outcome: store.EnqueueExistingActive, ItemID: existing.ID, ItemStatus: existing.Status}, nil
		}
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = domain.MergeQueuePending
	}
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	if item.NextAttemptAt.IsZero() {
		item.NextAttemptAt = now
	}
	s.d.mergeQueue[item.ID] = item
	return store.EnqueueResult{Outcome: store.EnqueueCreated, ItemID: item.ID, ItemStatus: item.Status}, nil
}

func (s mergeQueueStore) RecoverExpiredClaims(ctx context.Context, now time.Time, retryDelay time.Duration) (int, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	count := 0
	for id, item := range s.d.mergeQueue {
		if item.Status != domain.MergeQueueProcessing || item.ClaimExpiresAt == nil || item.ClaimExpiresAt.After(now) {
			continue
		}
		item.Status = domain.MergeQueuePending
		item.ClaimOwner, item.ClaimToken, item.ClaimExpiresAt = nil, nil, nil
		item.NextAttemptAt = now.Add(retryDelay)
		item.UpdatedAt = now
		s.d.mergeQueue[id] = item
		count++
	}
	return count, nil
}

func (s mergeQueueStore) ClaimBatch(ctx context.Context, owner string, limit int, ttl time.Duration) ([]domain.MergeQueueItem, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	var pending []domain.MergeQueueItem
	for _, item := range s.d.mergeQueue {
		if item.Status == domain.MergeQueuePending {
			pending = append(pending, item)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		if !pending[i].NextAttemptAt.Equal(pending[j].NextAttemptAt) {
			return pending[i].NextAttemptAt.Before(pending[j].NextAttemptAt)
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	now := time.Now()
	var claimed []domain.MergeQueueItem
	for _, item := range pending {
		if len(claimed) >= limit {
			break
		}
		token := uuid.NewString()
		expires := now.Add(ttl)
		item.Status = domain.MergeQueueProcessing
		item.ClaimOwner = &owner
		item.ClaimToken = &token
		item.ClaimExpiresAt = &expires
		item.UpdatedAt = now
		s.d.mergeQueue[item.ID] = item
		claimed = append(claimed, item)
	}
	return claimed, nil
}

func (s mergeQueueStore) ExtendClaim(ctx context.Context, id, owner, token string, ttl time.Duration) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	item, ok := s.d.mergeQueue[id]
	if !ok || item.Status != domain.MergeQueueProcessing ||
		item.ClaimOwner == nil || *item.ClaimOwner != owner ||
		item.ClaimToken == nil || *item.ClaimToken != token {
		return store.ErrNotFound
	}
	expires := time.Now().Add(ttl)
	item.ClaimExpiresAt = &expires
	item.UpdatedAt = time.Now()
	s.d.mergeQueue[id] = item
	return nil
}

func (s mergeQueueStore) Finalize(ctx context.Context, id, owner, token string, update store.MergeQueueFinalize) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	item, ok := s.d.mergeQueue[id]
	if !ok || item.Status != domain.MergeQueueProcessing ||
		item.ClaimOwner == nil || *item.ClaimOwner != owner ||
		item.ClaimToken == nil || *item.ClaimToken != token {
		return false, nil
	}
	item.Status = update.Status
	item.NextAttemptAt = update.NextAttemptAt
	item.LastError = update.LastError
	item.AttemptCount += update.AttemptDelta
	if item.Status != domain.MergeQueueProcessing {
		item.ClaimOwner, item.ClaimToken, item.ClaimExpiresAt = nil, nil, nil
	}
	item.UpdatedAt = time.Now()
	s.d.mergeQueue[id] = item
	return true, nil
}

// --- AgentStore ---

type agentStore struct{ d *db }

var _ store.AgentStore = agentStore{}

func (s agentStore) Heartbeat(ctx context.Context, agentID string, role string, now time.Time) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	a, ok := s.d.agents[agentID]
	if !ok {
		a = domain.Agent{ID: agentID, Role: role, Status: domain.AgentIdle}
	}
	a.LastHeartbeat = now
	if a.Status == domain.AgentOffline {
		a.Status = domain.AgentIdle
	}
	s.d.agents[agentID] = a
	return nil
}

func (s agentStore) SetStatus(ctx context.Context, agentID string, status domain.AgentStatus, currentTaskID *string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	a, ok := s.d.agents[agentID]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = status
	a.CurrentTaskID = currentTaskID
	s.d.agents[agentID] = a
	return nil
}
