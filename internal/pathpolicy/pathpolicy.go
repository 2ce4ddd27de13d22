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

// Package pathpolicy is a concrete judge.PolicyEvaluator: it checks a
// candidate's changed files against allowed-path globs and its diff
// against a denied-command blocklist, the way a repository policy
// document would. The Judge control plane treats this as an
// out-of-scope collaborator contract; this is one reference
// implementation of that contract, grounded on the diff-stat checks
// named in the evaluator orchestrator.
package pathpolicy

import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/judge"
)

// Evaluator is the default judge.PolicyEvaluator.
type Evaluator struct {
	// globalDeniedCommands applies to every candidate, in addition to any
	// per-call input.DeniedCommands.
	globalDeniedCommands []string
}

// New returns an Evaluator checking only the per-call PolicyInput.
func New() *Evaluator { return &Evaluator{} }

// NewWithDeniedCommands returns an Evaluator that also blocks the given
// commands across every candidate, loaded once from the repository's
// policy document.
func NewWithDeniedCommands(deniedCommands []string) *Evaluator {
	return &Evaluator{globalDeniedCommands: deniedCommands}
}

var _ judge.PolicyEvaluator = (*Evaluator)(nil)

// Evaluate checks every changed file against input.AllowedPaths (doublestar
// globs, "**" matches everything) and scans the diff's added lines for any
// of input.DeniedCommands as a literal substring.
func (e *Evaluator) Evaluate(_ context.Context, input judge.PolicyInput) (domain.PolicyResult, error) {
	result := domain.PolicyResult{Pass: true}

	if len(input.AllowedPaths) > 0 {
		for _, f := range input.ChangedFiles {
			if !matchesAny(input.AllowedPaths, f) {
				result.Pass = false
				result.Violations = append(result.Violations, domain.PolicyViolation{
					Type:     "path",
					Severity: "error",
					Message:  fmt.Sprintf("%s is outside the allowed paths", f),
				})
			}
		}
	}

	deniedCommands := append(append([]string{}, e.globalDeniedCommands...), input.DeniedCommands...)
	for _, added := range addedLines(input.Diff) {
		for _, cmd := range deniedCommands {
			if cmd == "" {
				continue
			}
			if strings.Contains(added, cmd) {
				result.Pass = false
				result.Violations = append(result.Violations, domain.PolicyViolation{
					Type:     "command",
					Severity: "error",
					Message:  fmt.Sprintf("denied command %q found in diff", cmd),
				})
			}
		}
	}

	if !result.Pass {
		result.Reasons = violationMessages(result.Violations)
	}
	return result, nil
}

func matchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if p == "**" {
			return true
		}
		ok, err := doublestar.Match(p, path)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// addedLines returns every unified-diff line starting with "+" (excluding
// the "+++ " file header), with the marker stripped.
func addedLines(diff string) []string {
	var out []string
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+++ ") {
			continue
		}
		if strings.HasPrefix(line, "+") {
			out = append(out, strings.TrimPrefix(line, "+"))
		}
	}
	return out
}

func violationMessages(violations []domain.PolicyViolation) []string {
	msgs := make([]string, 0, len(violations))
	for _, v := range violations {
		msgs = append(msgs, v.Message)
	}
	return msgs
}
