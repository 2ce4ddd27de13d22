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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/judge/internal/domain"
)

func TestExplainPR_ComputesVerdictWithoutMutatingStore(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend()
	svc := newTestServices(b)
	svc.Forge = &fakeForge{
		getPRFn: func(ctx context.Context, number int) (*PRInfo, error) {
			return &PRInfo{Number: number, HeadRef: "feature-x"}, nil
		},
		ciStatusFn: func(ctx context.Context, number int) (domain.CIResult, error) {
			return domain.CIResult{Pass: true}, nil
		},
		getPRDiffFn: func(ctx context.Context, number int) (string, []string, error) {
			return "+func x() {}\n", []string{"x.go"}, nil
		},
		checkMergeabilityFn: func(ctx context.Context, number int) (bool, string, error) {
			return true, "clean", nil
		},
	}
	svc.LLM = &fakeLLM{
		reviewFn: func(ctx context.Context, req LLMRequest) (domain.LLMResult, error) {
			return domain.LLMResult{Pass: true, Confidence: 0.95}, nil
		},
	}

	summary, result, err := ExplainPR(ctx, svc, 99)
	require.NoError(t, err)
	assert.True(t, summary.CI.Pass)
	assert.True(t, summary.LLM.Pass)
	assert.Equal(t, domain.VerdictApprove, result.Verdict)

	pending, err := b.Artifacts().ListPending(ctx, domain.ArtifactPR)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
