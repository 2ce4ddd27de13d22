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
	"time"

	"github.com/teradata-labs/judge/internal/domain"
)

// PRInfo is the forge adapter's view of one pull request (spec §6).
type PRInfo struct {
	Number  int
	HeadRef string
	HeadSHA string
	BaseRef string
	Author  string
	Merged  bool
}

// ReviewEvent selects the review verdict posted to the forge.
type ReviewEvent string

const (
	ReviewApprove        ReviewEvent = "APPROVE"
	ReviewRequestChanges ReviewEvent = "REQUEST_CHANGES"
)

// MergeMethod selects how a PR is merged.
type MergeMethod string

const (
	MergeMethodMerge  MergeMethod = "merge"
	MergeMethodSquash MergeMethod = "squash"
	MergeMethodRebase MergeMethod = "rebase"
)

// MergeOutcome is the forge's raw response to a merge attempt.
type MergeOutcome struct {
	Merged bool
	Reason string
}

// ForgeAdapter is the out-of-scope Git-forge collaborator contract (spec §6).
// GetCIStatus and CheckMergeability are not named explicitly in the §6
// capability list but are required by the evaluator orchestrator's CI
// result and mergeability precheck (§4.3); the list there is introduced
// as "capabilities, not endpoints", not a closed set.
type ForgeAdapter interface {
	GetPR(ctx context.Context, number int) (*PRInfo, error)
	AddPRComment(ctx context.Context, number int, body string) error
	CreateReview(ctx context.Context, number int, event ReviewEvent, body string) error
	MergePR(ctx context.Context, number int, method MergeMethod) (MergeOutcome, error)
	UpdateBranch(ctx context.Context, number int) error
	GetAuthenticatedUser(ctx context.Context) (string, error)
	ClosePR(ctx context.Context, number int) error
	GetCIStatus(ctx context.Context, number int) (domain.CIResult, error)
	CheckMergeability(ctx context.Context, number int) (ok bool, reason string, err error)
	GetPRDiff(ctx context.Context, number int) (diff string, changedFiles []string, err error)
}

// VCSResult is the uniform shape every LocalVCSAdapter operation returns
// (spec §6: "Each returns {success, stdout, stderr}").
type VCSResult struct {
	Success bool
	Stdout  string
	Stderr  string
}

// MergeOptions narrows how LocalVCSAdapter.MergeBranch behaves.
type MergeOptions struct {
	FFOnly bool
	NoEdit bool
}

// LocalVCSAdapter is the out-of-scope local-worktree collaborator contract
// (spec §6).
type LocalVCSAdapter interface {
	GetChangedFiles(ctx context.Context, repoPath string) ([]string, error)
	GetWorkingTreeDiff(ctx context.Context, repoPath string) (string, error)
	GetUntrackedFiles(ctx context.Context, repoPath string) ([]string, error)
	StashChanges(ctx context.Context, repoPath, message string) (VCSResult, error)
	GetLatestStashRef(ctx context.Context, repoPath string) (string, error)
	ApplyStash(ctx context.Context, repoPath, ref string) (VCSResult, error)
	DropStash(ctx context.Context, repoPath, ref string) (VCSResult, error)
	StageAll(ctx context.Context, repoPath string) (VCSResult, error)
	CommitChanges(ctx context.Context, repoPath, message string) (VCSResult, error)
	IsMergeInProgress(ctx context.Context, repoPath string) (bool, error)
	AbortMerge(ctx context.Context, repoPath string) (VCSResult, error)
	CheckoutBranch(ctx context.Context, repoPath, name string) (VCSResult, error)
	ResetHard(ctx context.Context, repoPath, ref string) (VCSResult, error)
	CleanUntracked(ctx context.Context, repoPath string) (VCSResult, error)
	MergeBranch(ctx context.Context, repoPath, name string, opts MergeOptions) (VCSResult, error)
}

// LLMRequest is the input to the out-of-scope LLM collaborator (spec §6).
type LLMRequest struct {
	Prompt           string
	TaskGoal         string
	InstructionsPath string
	Timeout          time.Duration
}

// LLMAdapter is the out-of-scope LLM collaborator contract (spec §6).
type LLMAdapter interface {
	Review(ctx context.Context, req LLMRequest) (domain.LLMResult, error)
}

// PolicyInput is everything the out-of-scope policy evaluator needs to
// compute path/line/command checks against a candidate's diff.
type PolicyInput struct {
	AllowedPaths     []string
	DeniedCommands   []string
	VerificationCmds []string
	ChangedFiles     []string
	Diff             string
}

// PolicyEvaluator is the out-of-scope repository-policy collaborator
// contract (spec §6, §4.3).
type PolicyEvaluator interface {
	Evaluate(ctx context.Context, input PolicyInput) (domain.PolicyResult, error)
}

// PendingTarget is the duck-typed "pending target" variant (spec §9): a PR,
// a worktree, or a plugin-registered candidate, behind one narrow
// capability surface the orchestrator treats uniformly.
type PendingTarget interface {
	TaskID() string
	RunID() string
	Kind() domain.ArtifactType
	// Evaluate runs CI + policy + LLM and returns the composed summary.
	Evaluate(ctx context.Context, svc *Services) (domain.EvaluationSummary, error)
	// ApplyVerdict executes the JudgeResult's side effects (review, merge
	// attempt, remediation) against this target's backing system.
	ApplyVerdict(ctx context.Context, svc *Services, result domain.JudgeResult) (ActionOutcome, error)
}

// ActionOutcome reports what the action executor actually did, consumed by
// the auto-remediation ladder to pick an escalation path.
type ActionOutcome struct {
	Merged              bool
	MergeDeferred       bool
	MergeDeferredReason string
	SelfAuthored        bool
}
