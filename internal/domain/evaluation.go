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

// CIResult is the forge (PRs) or synthetic pass (worktrees) CI outcome
// (spec §4.3).
type CIResult struct {
	Pass        bool
	Status      string
	Reasons     []string
	Suggestions []string
	Details     []string
}

// PolicyViolation is one entry in PolicyResult.Violations.
type PolicyViolation struct {
	Type     string
	Severity string
	Message  string
}

// PolicyResult is the diff-stat-driven path/line/command check outcome.
type PolicyResult struct {
	Pass        bool
	Reasons     []string
	Suggestions []string
	Violations  []PolicyViolation
}

// CodeIssue is one LLM-flagged finding.
type CodeIssue struct {
	Severity   string // "error" | "warning" | "info"
	Category   string
	Message    string
	File       string
	Line       int
	Suggestion string
}

// LLMResult is the structured LLM review outcome.
type LLMResult struct {
	Pass        bool
	Confidence  float64
	Reasons     []string
	Suggestions []string
	CodeIssues  []CodeIssue
	Skipped     bool
	SkipReason  string
}

// EvaluationSummary composes CI, policy, and LLM results for one candidate
// (spec §4.3).
type EvaluationSummary struct {
	CI     CIResult
	Policy PolicyResult
	LLM    LLMResult
	Risk   Risk
}

// Verdict is the Judge's decision on a candidate.
type Verdict string

const (
	VerdictApprove        Verdict = "approve"
	VerdictRequestChanges Verdict = "request_changes"
)

// JudgeResult is the pure verdict engine's output (spec §4.4).
type JudgeResult struct {
	Verdict     Verdict
	Reasons     []string
	Suggestions []string
	AutoMerge   bool
	RiskLevel   Risk
	Confidence  float64
}
