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

// Package forgeadapter implements judge.ForgeAdapter against GitHub's REST
// API via google/go-github.
package forgeadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"

	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/judge"
)

// GitHub adapts one owner/repo pair to judge.ForgeAdapter.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
}

var _ judge.ForgeAdapter = (*GitHub)(nil)

// New builds a GitHub adapter authenticated with a personal access token or
// installation token. owner/repo scope every call to a single repository,
// matching the Judge's one-repo-per-process model (spec §6).
func New(ctx context.Context, token, owner, repo string) *GitHub {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)
	return &GitHub{client: github.NewClient(httpClient), owner: owner, repo: repo}
}

func (g *GitHub) GetPR(ctx context.Context, number int) (*judge.PRInfo, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, g.owner, g.repo, number)
	if err != nil {
		return nil, fmt.Errorf("get pr %d: %w", number, err)
	}
	return &judge.PRInfo{
		Number:  pr.GetNumber(),
		HeadRef: pr.GetHead().GetRef(),
		HeadSHA: pr.GetHead().GetSHA(),
		BaseRef: pr.GetBase().GetRef(),
		Author:  pr.GetUser().GetLogin(),
		Merged:  pr.GetMerged(),
	}, nil
}

func (g *GitHub) AddPRComment(ctx context.Context, number int, body string) error {
	_, _, err := g.client.Issues.CreateComment(ctx, g.owner, g.repo, number, &github.IssueComment{Body: &body})
	if err != nil {
		return fmt.Errorf("comment on pr %d: %w", number, err)
	}
	return nil
}

func (g *GitHub) CreateReview(ctx context.Context, number int, event judge.ReviewEvent, body string) error {
	req := &github.PullRequestReviewRequest{
		Event: github.Ptr(string(event)),
		Body:  github.Ptr(body),
	}
	_, _, err := g.client.PullRequests.CreateReview(ctx, g.owner, g.repo, number, req)
	if err != nil {
		return fmt.Errorf("review pr %d: %w", number, err)
	}
	return nil
}

func (g *GitHub) MergePR(ctx context.Context, number int, method judge.MergeMethod) (judge.MergeOutcome, error) {
	opts := &github.PullRequestOptions{MergeMethod: string(method)}
	result, _, err := g.client.PullRequests.Merge(ctx, g.owner, g.repo, number, "", opts)
	if err != nil {
		return judge.MergeOutcome{Merged: false, Reason: err.Error()}, nil
	}
	return judge.MergeOutcome{Merged: result.GetMerged(), Reason: result.GetMessage()}, nil
}

func (g *GitHub) UpdateBranch(ctx context.Context, number int) error {
	_, _, err := g.client.PullRequests.UpdateBranch(ctx, g.owner, g.repo, number, nil)
	if err != nil {
		return fmt.Errorf("update branch for pr %d: %w", number, err)
	}
	return nil
}

func (g *GitHub) GetAuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := g.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("get authenticated user: %w", err)
	}
	return user.GetLogin(), nil
}

func (g *GitHub) ClosePR(ctx context.Context, number int) error {
	state := "closed"
	_, _, err := g.client.PullRequests.Edit(ctx, g.owner, g.repo, number, &github.PullRequest{State: &state})
	if err != nil {
		return fmt.Errorf("close pr %d: %w", number, err)
	}
	return nil
}

func (g *GitHub) GetCIStatus(ctx context.Context, number int) (domain.CIResult, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, g.owner, g.repo, number)
	if err != nil {
		return domain.CIResult{}, fmt.Errorf("get pr %d for ci status: %w", number, err)
	}
	ref := pr.GetHead().GetSHA()

	checks, _, err := g.client.Checks.ListCheckRunsForRef(ctx, g.owner, g.repo, ref, nil)
	if err != nil {
		return domain.CIResult{}, fmt.Errorf("list check runs for %s: %w", ref, err)
	}

	result := domain.CIResult{Pass: true, Status: "success"}
	for _, run := range checks.CheckRuns {
		if run.GetStatus() != "completed" {
			result.Pass = false
			result.Status = "pending"
			result.Reasons = append(result.Reasons, fmt.Sprintf("%s is still %s", run.GetName(), run.GetStatus()))
			continue
		}
		conclusion := run.GetConclusion()
		if conclusion != "success" && conclusion != "neutral" && conclusion != "skipped" {
			result.Pass = false
			result.Status = "failure"
			result.Reasons = append(result.Reasons, fmt.Sprintf("%s concluded %s", run.GetName(), conclusion))
		}
	}
	return result, nil
}

func (g *GitHub) CheckMergeability(ctx context.Context, number int) (bool, string, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, g.owner, g.repo, number)
	if err != nil {
		return false, "", fmt.Errorf("get pr %d for mergeability: %w", number, err)
	}
	if pr.Mergeable == nil {
		return false, "mergeability not yet computed", nil
	}
	if !pr.GetMergeable() {
		return false, pr.GetMergeableState(), nil
	}
	return true, "", nil
}

func (g *GitHub) GetPRDiff(ctx context.Context, number int) (string, []string, error) {
	opts := &github.ListOptions{PerPage: 100}
	var changed []string
	var diff strings.Builder
	for {
		files, resp, err := g.client.PullRequests.ListFiles(ctx, g.owner, g.repo, number, opts)
		if err != nil {
			return "", nil, fmt.Errorf("list files for pr %d: %w", number, err)
		}
		for _, f := range files {
			changed = append(changed, f.GetFilename())
			diff.WriteString(f.GetPatch())
			diff.WriteString("\n")
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return diff.String(), changed, nil
}
