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

	"go.uber.org/zap"

	"github.com/teradata-labs/judge/internal/config"
	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/store"
	"github.com/teradata-labs/judge/internal/store/memstore"
)

// fakeClock is a Clock a test can pin or advance without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

// fakeForge is a scriptable ForgeAdapter stub; every method delegates to an
// optional func field and falls back to a harmless zero value so a test
// only wires the calls it cares about.
type fakeForge struct {
	getPRFn             func(ctx context.Context, number int) (*PRInfo, error)
	addPRCommentFn      func(ctx context.Context, number int, body string) error
	createReviewFn      func(ctx context.Context, number int, event ReviewEvent, body string) error
	mergePRFn           func(ctx context.Context, number int, method MergeMethod) (MergeOutcome, error)
	updateBranchFn      func(ctx context.Context, number int) error
	authUserFn          func(ctx context.Context) (string, error)
	closePRFn           func(ctx context.Context, number int) error
	ciStatusFn          func(ctx context.Context, number int) (domain.CIResult, error)
	checkMergeabilityFn func(ctx context.Context, number int) (bool, string, error)
	getPRDiffFn         func(ctx context.Context, number int) (string, []string, error)
}

var _ ForgeAdapter = (*fakeForge)(nil)

func (f *fakeForge) GetPR(ctx context.Context, number int) (*PRInfo, error) {
	if f.getPRFn != nil {
		return f.getPRFn(ctx, number)
	}
	return &PRInfo{Number: number}, nil
}

func (f *fakeForge) AddPRComment(ctx context.Context, number int, body string) error {
	if f.addPRCommentFn != nil {
		return f.addPRCommentFn(ctx, number, body)
	}
	return nil
}

func (f *fakeForge) CreateReview(ctx context.Context, number int, event ReviewEvent, body string) error {
	if f.createReviewFn != nil {
		return f.createReviewFn(ctx, number, event, body)
	}
	return nil
}

func (f *fakeForge) MergePR(ctx context.Context, number int, method MergeMethod) (MergeOutcome, error) {
	if f.mergePRFn != nil {
		return f.mergePRFn(ctx, number, method)
	}
	return MergeOutcome{Merged: true}, nil
}

func (f *fakeForge) UpdateBranch(ctx context.Context, number int) error {
	if f.updateBranchFn != nil {
		return f.updateBranchFn(ctx, number)
	}
	return nil
}

func (f *fakeForge) GetAuthenticatedUser(ctx context.Context) (string, error) {
	if f.authUserFn != nil {
		return f.authUserFn(ctx)
	}
	return "judge-bot", nil
}

func (f *fakeForge) ClosePR(ctx context.Context, number int) error {
	if f.closePRFn != nil {
		return f.closePRFn(ctx, number)
	}
	return nil
}

func (f *fakeForge) GetCIStatus(ctx context.Context, number int) (domain.CIResult, error) {
	if f.ciStatusFn != nil {
		return f.ciStatusFn(ctx, number)
	}
	return domain.CIResult{Pass: true}, nil
}

func (f *fakeForge) CheckMergeability(ctx context.Context, number int) (bool, string, error) {
	if f.checkMergeabilityFn != nil {
		return f.checkMergeabilityFn(ctx, number)
	}
	return true, "", nil
}

func (f *fakeForge) GetPRDiff(ctx context.Context, number int) (string, []string, error) {
	if f.getPRDiffFn != nil {
		return f.getPRDiffFn(ctx, number)
	}
	return "", nil, nil
}

// fakeVCS is a scriptable LocalVCSAdapter stub, same zero-value-by-default
// shape as fakeForge.
type fakeVCS struct {
	changedFiles       []string
	untrackedFiles     []string
	workingTreeDiff    string
	mergeInProgress    bool
	stashChangesFn     func(ctx context.Context, repoPath, message string) (VCSResult, error)
	latestStashRef     string
	applyStashFn       func(ctx context.Context, repoPath, ref string) (VCSResult, error)
	stageAllFn         func(ctx context.Context, repoPath string) (VCSResult, error)
	commitChangesFn    func(ctx context.Context, repoPath, message string) (VCSResult, error)
	abortMergeFn       func(ctx context.Context, repoPath string) (VCSResult, error)
	checkoutBranchFn   func(ctx context.Context, repoPath, name string) (VCSResult, error)
	resetHardFn        func(ctx context.Context, repoPath, ref string) (VCSResult, error)
	cleanUntrackedFn   func(ctx context.Context, repoPath string) (VCSResult, error)
	mergeBranchFn      func(ctx context.Context, repoPath, name string, opts MergeOptions) (VCSResult, error)
	dropStashFn        func(ctx context.Context, repoPath, ref string) (VCSResult, error)
	isDirtyAfterVerify bool
}

var _ LocalVCSAdapter = (*fakeVCS)(nil)

func (f *fakeVCS) GetChangedFiles(ctx context.Context, repoPath string) ([]string, error) {
	return f.changedFiles, nil
}

func (f *fakeVCS) GetWorkingTreeDiff(ctx context.Context, repoPath string) (string, error) {
	return f.workingTreeDiff, nil
}

func (f *fakeVCS) GetUntrackedFiles(ctx context.Context, repoPath string) ([]string, error) {
	return f.untrackedFiles, nil
}

func (f *fakeVCS) StashChanges(ctx context.Context, repoPath, message string) (VCSResult, error) {
	if f.stashChangesFn != nil {
		return f.stashChangesFn(ctx, repoPath, message)
	}
	return VCSResult{Success: true}, nil
}

func (f *fakeVCS) GetLatestStashRef(ctx context.Context, repoPath string) (string, error) {
	return f.latestStashRef, nil
}

func (f *fakeVCS) ApplyStash(ctx context.Context, repoPath, ref string) (VCSResult, error) {
	if f.applyStashFn != nil {
		return f.applyStashFn(ctx, repoPath, ref)
	}
	return VCSResult{Success: true}, nil
}

func (f *fakeVCS) DropStash(ctx context.Context, repoPath, ref string) (VCSResult, error) {
	if f.dropStashFn != nil {
		return f.dropStashFn(ctx, repoPath, ref)
	}
	return VCSResult{Success: true}, nil
}

func (f *fakeVCS) StageAll(ctx context.Context, repoPath string) (VCSResult, error) {
	if f.stageAllFn != nil {
		return f.stageAllFn(ctx, repoPath)
	}
	return VCSResult{Success: true}, nil
}

func (f *fakeVCS) CommitChanges(ctx context.Context, repoPath, message string) (VCSResult, error) {
	if f.commitChangesFn != nil {
		return f.commitChangesFn(ctx, repoPath, message)
	}
	return VCSResult{Success: true}, nil
}

func (f *fakeVCS) IsMergeInProgress(ctx context.Context, repoPath string) (bool, error) {
	return f.mergeInProgress, nil
}

func (f *fakeVCS) AbortMerge(ctx context.Context, repoPath string) (VCSResult, error) {
	if f.abortMergeFn != nil {
		return f.abortMergeFn(ctx, repoPath)
	}
	return VCSResult{Success: true}, nil
}

func (f *fakeVCS) CheckoutBranch(ctx context.Context, repoPath, name string) (VCSResult, error) {
	if f.checkoutBranchFn != nil {
		return f.checkoutBranchFn(ctx, repoPath, name)
	}
	return VCSResult{Success: true}, nil
}

func (f *fakeVCS) ResetHard(ctx context.Context, repoPath, ref string) (VCSResult, error) {
	if f.resetHardFn != nil {
		return f.resetHardFn(ctx, repoPath, ref)
	}
	return VCSResult{Success: true}, nil
}

func (f *fakeVCS) CleanUntracked(ctx context.Context, repoPath string) (VCSResult, error) {
	if f.cleanUntrackedFn != nil {
		return f.cleanUntrackedFn(ctx, repoPath)
	}
	f.changedFiles = nil
	f.untrackedFiles = nil
	return VCSResult{Success: true}, nil
}

func (f *fakeVCS) MergeBranch(ctx context.Context, repoPath, name string, opts MergeOptions) (VCSResult, error) {
	if f.mergeBranchFn != nil {
		return f.mergeBranchFn(ctx, repoPath, name, opts)
	}
	return VCSResult{Success: true}, nil
}

// fakeLLM is a scriptable LLMAdapter stub.
type fakeLLM struct {
	reviewFn func(ctx context.Context, req LLMRequest) (domain.LLMResult, error)
}

var _ LLMAdapter = (*fakeLLM)(nil)

func (f *fakeLLM) Review(ctx context.Context, req LLMRequest) (domain.LLMResult, error) {
	if f.reviewFn != nil {
		return f.reviewFn(ctx, req)
	}
	return domain.LLMResult{Pass: true, Confidence: 1}, nil
}

// fakePolicy is a scriptable PolicyEvaluator stub.
type fakePolicy struct {
	evaluateFn func(ctx context.Context, input PolicyInput) (domain.PolicyResult, error)
}

var _ PolicyEvaluator = (*fakePolicy)(nil)

func (f *fakePolicy) Evaluate(ctx context.Context, input PolicyInput) (domain.PolicyResult, error) {
	if f.evaluateFn != nil {
		return f.evaluateFn(ctx, input)
	}
	return domain.PolicyResult{Pass: true}, nil
}

// defaultTestConfig returns a Config with every threshold and timing field
// set to a value small enough for deterministic in-process tests.
func defaultTestConfig() *config.Config {
	return &config.Config{
		PollIntervalMS:                  1,
		UseLLM:                          true,
		JudgeMode:                       config.ModeAuto,
		AutoFixOnFail:                   true,
		AutoFixMaxAttempts:              3,
		DoomLoopCircuitBreakerRetries:   2,
		NonApproveCircuitBreakerRetries: 2,
		AwaitingRetryCooldownMS:         1,
		MergeQueueClaimTTLMS:            60000,
		MergeQueueMaxAttempts:           3,
		MergeQueueRetryDelayMS:          1000,
		LocalBaseRepoRecovery:           config.RecoveryStash,
		LocalBaseRepoRecoveryConfidence: 0.7,
		LocalBaseRepoRecoveryDiffLimit:  20000,
		LocalBaseRepoPath:               "/repo",
		LocalBaseBranch:                 "main",
		AgentID:                         "judge-test",
	}
}

// newTestServices wires a *Services over an in-memory backend with no-op
// adapters, ready for a test to override individual collaborators.
func newTestServices(b store.Backend) *Services {
	return &Services{
		Log:      zap.NewNop(),
		Store:    b,
		Config:   defaultTestConfig(),
		Policy:   domain.Policy{AutoMerge: domain.AutoMergePolicy{Enabled: true}},
		Clock:    &fakeClock{t: time.Now()},
		Forge:    &fakeForge{},
		VCS:      &fakeVCS{},
		LLM:      &fakeLLM{},
		Policies: &fakePolicy{},
		AgentID:  "judge-test",
	}
}

func newMemBackend() store.Backend { return memstore.New() }
