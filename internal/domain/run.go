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

// RunStatus is the lifecycle state of one execution attempt.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSuccess   RunStatus = "success"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Run is one attempt at executing a Task (spec §3).
//
// A run is eligible for judgement iff Status == RunSuccess && JudgedAt ==
// nil. Claiming a run sets JudgedAt to now and increments
// JudgementVersion; setting JudgedAt back to nil "re-arms" the run.
type Run struct {
	ID                string
	TaskID            string
	Status            RunStatus
	StartedAt         time.Time
	FinishedAt        *time.Time
	ErrorMessage      string
	JudgedAt          *time.Time
	JudgementVersion  int
}

// Eligible reports whether the run is a candidate for judgement.
func (r Run) Eligible() bool {
	return r.Status == RunSuccess && r.JudgedAt == nil
}

// ArtifactType identifies what kind of candidate an artifact represents.
type ArtifactType string

const (
	ArtifactPR            ArtifactType = "pr"
	ArtifactWorktree      ArtifactType = "worktree"
	ArtifactBaseRepoDiff  ArtifactType = "base_repo_diff"
)

// ArtifactMetadata is the tagged variant for Artifact.Metadata.
type ArtifactMetadata struct {
	BaseBranch   string         `json:"baseBranch,omitempty"`
	BranchName   string         `json:"branchName,omitempty"`
	BaseRepoPath string         `json:"baseRepoPath,omitempty"`
	Truncated    bool           `json:"truncated,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Artifact is a run's output (spec §3). Immutable once written.
type Artifact struct {
	ID        string
	RunID     string
	Type      ArtifactType
	Ref       string
	URL       string
	Metadata  ArtifactMetadata
	CreatedAt time.Time
}
