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

	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/store"
)

// ExplainPR runs the same CI/policy/LLM evaluation and verdict computation
// a tick would run against PR prNumber, without touching the store or
// performing any forge side effect (no comment, no merge). It exists for
// operators asking "what would the Judge do with this PR right now"
// (spec §9 supplemental operator tooling) and intentionally bypasses the
// run-claim protocol since nothing is persisted.
func ExplainPR(ctx context.Context, svc *Services, prNumber int) (domain.EvaluationSummary, domain.JudgeResult, error) {
	pr, err := svc.Forge.GetPR(ctx, prNumber)
	if err != nil {
		return domain.EvaluationSummary{}, domain.JudgeResult{}, fmt.Errorf("fetch PR #%d: %w", prNumber, err)
	}

	candidate := store.PendingCandidate{
		Ref:       fmt.Sprintf("%d", prNumber),
		TaskTitle: fmt.Sprintf("PR #%d", prNumber),
		TaskGoal:  pr.HeadRef,
	}

	summary, err := evaluatePR(ctx, svc, candidate, prNumber)
	if err != nil {
		return domain.EvaluationSummary{}, domain.JudgeResult{}, err
	}

	result := Verdict(summary, svc.Policy, summary.Risk)
	return summary, result, nil
}
