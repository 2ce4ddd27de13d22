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

// EventType is a member of the closed event vocabulary (spec §6).
type EventType string

const (
	EventJudgeReview                   EventType = "judge.review"
	EventTaskRequeued                  EventType = "judge.task_requeued"
	EventTaskRecovered                 EventType = "judge.task_recovered"
	EventAutofixTaskCreated            EventType = "judge.autofix_task_created"
	EventConflictAutofixTaskCreated    EventType = "judge.conflict_autofix_task_created"
	EventMainlineRecreateTaskCreated   EventType = "judge.mainline_recreate_task_created"
	EventBaseRepoStashed               EventType = "judge.base_repo_stashed"
	EventBaseRepoRecoveryDecision      EventType = "judge.base_repo_recovery_decision"
	EventMergeQueueEnqueued            EventType = "judge.merge_queue_enqueued"
	EventMergeQueueClaimRecovered      EventType = "judge.merge_queue_claim_recovered"
	EventMergeQueueMerged              EventType = "judge.merge_queue_merged"
	EventMergeQueueRetried             EventType = "judge.merge_queue_retried"
	EventMergeQueueFailed              EventType = "judge.merge_queue_failed"
	EventDocserTaskCreated             EventType = "docser.task_created"
)

// EntityType names what an Event's EntityID refers to.
type EntityType string

const (
	EntityTask         EntityType = "task"
	EntityRun          EntityType = "run"
	EntityMergeQueue   EntityType = "merge_queue_item"
	EntityAgent        EntityType = "agent"
)

// Event is an append-only audit record (spec §3). Events are never mutated.
type Event struct {
	ID         string
	Type       EventType
	EntityType EntityType
	EntityID   string
	AgentID    string
	Payload    map[string]any
	CreatedAt  time.Time
}
