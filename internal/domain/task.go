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

// Package domain holds the Judge's data model (spec §3): tasks, runs,
// artifacts, events, merge-queue items, and agents. Dynamic metadata blobs
// (task context, artifact metadata, event payload) are tagged variant
// structs for the known subfields with a string-keyed map fallback for
// opaque passthrough, per the design note in spec §9.
package domain

import "time"

// TaskStatus is the task lifecycle state.
type TaskStatus string

const (
	TaskQueued  TaskStatus = "queued"
	TaskRunning TaskStatus = "running"
	TaskBlocked TaskStatus = "blocked"
	TaskDone    TaskStatus = "done"
	TaskFailed  TaskStatus = "failed"
)

// BlockReason narrows why a blocked task isn't runnable.
type BlockReason string

const (
	BlockNone          BlockReason = ""
	BlockNeedsRework   BlockReason = "needs_rework"
	BlockAwaitingJudge BlockReason = "awaiting_judge"
)

// Risk is an ordered risk level; Less implements the priority order
// low < medium < high used for componentwise risk max (spec §4.3).
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

var riskRank = map[Risk]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2}

// MaxRisk returns the higher of two risk levels. Unknown values are
// treated as RiskLow so a malformed declaration never silently escalates.
func MaxRisk(a, b Risk) Risk {
	ra, rb := riskRank[a], riskRank[b]
	if rb > ra {
		return b
	}
	return a
}

// TaskRole identifies who is meant to execute the task.
type TaskRole string

const (
	RoleWorker TaskRole = "worker"
	RoleDocser TaskRole = "docser"
)

// TaskKind distinguishes code-producing work from other kinds plugins may
// register (spec §4.1 "plugin-defined pending targets").
type TaskKind string

const (
	KindCode     TaskKind = "code"
	KindResearch TaskKind = "research"
)

// TaskContext is the tagged variant for Task.Context: known subfields plus
// an opaque passthrough map for anything a plugin wants to round-trip.
type TaskContext struct {
	PRHeadRef    string         `json:"prHeadRef,omitempty"`
	ResearchJobID string        `json:"researchJobId,omitempty"`
	BaseBranch   string         `json:"baseBranch,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Task is the unit of work (spec §3).
type Task struct {
	ID               string
	Title            string
	Goal             string
	Role             TaskRole
	Status           TaskStatus
	BlockReason      BlockReason
	RiskLevel        Risk
	Priority         int
	AllowedPaths     []string
	DeniedCommands   []string
	VerificationCmds []string
	Dependencies     []string
	RetryCount       int
	TimeboxMinutes   int
	Kind             TaskKind
	Context          TaskContext
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsTerminal reports whether the task has reached done or failed.
func (t Task) IsTerminal() bool {
	return t.Status == TaskDone || t.Status == TaskFailed
}
