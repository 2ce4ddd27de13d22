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

// Package llmadapter implements judge.LLMAdapter against Claude via
// anthropics/anthropic-sdk-go, asking the model to return its code-review
// verdict as a single JSON object rather than free text.
package llmadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/judge"
)

// Claude adapts one model to judge.LLMAdapter.
type Claude struct {
	client anthropic.Client
	model  anthropic.Model
}

var _ judge.LLMAdapter = (*Claude)(nil)

// New builds a Claude adapter for the given model identifier.
func New(apiKey, model string) *Claude {
	return &Claude{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// verdictSchema is the structured shape the prompt asks Claude to emit. It
// mirrors domain.LLMResult closely enough that decoding is a straight
// field-by-field copy.
type verdictSchema struct {
	Pass        bool     `json:"pass"`
	Confidence  float64  `json:"confidence"`
	Reasons     []string `json:"reasons"`
	Suggestions []string `json:"suggestions"`
	CodeIssues  []struct {
		Severity   string `json:"severity"`
		Category   string `json:"category"`
		Message    string `json:"message"`
		File       string `json:"file"`
		Line       int    `json:"line"`
		Suggestion string `json:"suggestion"`
	} `json:"codeIssues"`
}

func (c *Claude) Review(ctx context.Context, req judge.LLMRequest) (domain.LLMResult, error) {
	systemPrompt := "You are a code review judge. Respond with exactly one JSON object matching " +
		`{"pass":bool,"confidence":number 0-1,"reasons":[string],"suggestions":[string],` +
		`"codeIssues":[{"severity":string,"category":string,"message":string,"file":string,"line":int,"suggestion":string}]}. ` +
		"No prose outside the JSON object."

	userPrompt := req.Prompt
	if req.TaskGoal != "" {
		userPrompt = fmt.Sprintf("Task goal: %s\n\n%s", req.TaskGoal, userPrompt)
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if req.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	msg, err := c.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return domain.LLMResult{}, fmt.Errorf("anthropic review call: %w", err)
	}

	var raw string
	for _, block := range msg.Content {
		if block.Type == "text" {
			raw += block.Text
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var parsed verdictSchema
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return domain.LLMResult{
			Pass:       false,
			Skipped:    true,
			SkipReason: fmt.Sprintf("unparseable llm response: %v", err),
		}, nil
	}

	result := domain.LLMResult{
		Pass:        parsed.Pass,
		Confidence:  parsed.Confidence,
		Reasons:     parsed.Reasons,
		Suggestions: parsed.Suggestions,
	}
	for _, issue := range parsed.CodeIssues {
		result.CodeIssues = append(result.CodeIssues, domain.CodeIssue{
			Severity:   issue.Severity,
			Category:   issue.Category,
			Message:    issue.Message,
			File:       issue.File,
			Line:       issue.Line,
			Suggestion: issue.Suggestion,
		})
	}
	return result, nil
}
