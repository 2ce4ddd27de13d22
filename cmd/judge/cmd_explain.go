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
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/teradata-labs/judge/internal/judge"
)

var explainCmd = &cobra.Command{
	Use:   "explain <pr-number>",
	Short: "Show the verdict the Judge would reach for a PR, without acting on it",
	Long: `Explain runs the full CI/policy/LLM evaluation and verdict
computation for a pull request and prints the result, without posting a
review, merging, or touching the store. Useful for debugging a policy or
prompt change against a real PR before it runs for real.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	prNumber, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid PR number %q: %w", args[0], err)
	}

	ctx := cmd.Context()
	w, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer w.Close()

	summary, result, err := judge.ExplainPR(ctx, w.svc, prNumber)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "PR #%d\n", prNumber)
	fmt.Fprintf(out, "  CI:     pass=%v reasons=%v\n", summary.CI.Pass, summary.CI.Reasons)
	fmt.Fprintf(out, "  Policy: pass=%v reasons=%v\n", summary.Policy.Pass, summary.Policy.Reasons)
	fmt.Fprintf(out, "  LLM:    pass=%v confidence=%.2f skipped=%v reasons=%v\n", summary.LLM.Pass, summary.LLM.Confidence, summary.LLM.Skipped, summary.LLM.Reasons)
	fmt.Fprintf(out, "  Risk:   %s\n", summary.Risk)
	fmt.Fprintf(out, "Verdict: %s (autoMerge=%v confidence=%.2f)\n", result.Verdict, result.AutoMerge, result.Confidence)
	for _, reason := range result.Reasons {
		fmt.Fprintf(out, "  - %s\n", reason)
	}
	return nil
}
