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

// Package config resolves the Judge's environment-variable surface into a
// typed Config. Reads go through sethvargo/go-envconfig rather than raw
// os.Getenv calls scattered across the codebase, and rather than viper:
// this is a headless control-plane process with no layered config files,
// so a single struct-tag pass over the environment is the whole story.
package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Mode selects how the Judge treats candidates: git-hosted PRs, local
// worktrees, or both.
type Mode string

const (
	ModeGit   Mode = "git"
	ModeLocal Mode = "local"
	ModeAuto  Mode = "auto"
)

// RecoveryMode selects the local-mode dirty-base recovery strategy.
type RecoveryMode string

const (
	RecoveryLLM   RecoveryMode = "llm"
	RecoveryStash RecoveryMode = "stash"
	RecoveryNone  RecoveryMode = "none"
)

// Config is the Judge's full environment-variable surface (spec §6).
type Config struct {
	PollIntervalMS int  `env:"POLL_INTERVAL_MS, default=15000"`
	UseLLM         bool `env:"USE_LLM, default=true"`
	DryRun         bool `env:"DRY_RUN, default=false"`

	JudgeMode  Mode   `env:"JUDGE_MODE, default=auto"`
	JudgeModel string `env:"JUDGE_MODEL, default=claude-sonnet-4-5"`

	AutoFixOnFail      bool `env:"JUDGE_AUTO_FIX_ON_FAIL, default=true"`
	AutoFixMaxAttempts int  `env:"JUDGE_AUTO_FIX_MAX_ATTEMPTS, default=3"`

	DoomLoopCircuitBreakerRetries    int `env:"JUDGE_DOOM_LOOP_CIRCUIT_BREAKER_RETRIES, default=2"`
	NonApproveCircuitBreakerRetries  int `env:"JUDGE_NON_APPROVE_CIRCUIT_BREAKER_RETRIES, default=2"`
	AwaitingRetryCooldownMS          int `env:"JUDGE_AWAITING_RETRY_COOLDOWN_MS, default=120000"`

	MergeQueueClaimTTLMS    int `env:"JUDGE_MERGE_QUEUE_CLAIM_TTL_MS, default=120000"`
	MergeQueueMaxAttempts   int `env:"JUDGE_MERGE_QUEUE_MAX_ATTEMPTS, default=3"`
	MergeQueueRetryDelayMS  int `env:"JUDGE_MERGE_QUEUE_RETRY_DELAY_MS, default=30000"`

	LocalBaseRepoRecovery           RecoveryMode `env:"JUDGE_LOCAL_BASE_REPO_RECOVERY, default=stash"`
	LocalBaseRepoRecoveryConfidence float64      `env:"JUDGE_LOCAL_BASE_REPO_RECOVERY_CONFIDENCE, default=0.7"`
	LocalBaseRepoRecoveryDiffLimit  int          `env:"JUDGE_LOCAL_BASE_REPO_RECOVERY_DIFF_LIMIT, default=20000"`

	PolicyPath string `env:"POLICY_PATH, default=./policy.yaml"`
	AgentID    string `env:"AGENT_ID"`

	// SupervisorMode runs the slower auxiliary expired-claim sweep
	// alongside the normal per-tick one, for a Judge instance dedicated
	// to watching over a fleet of others (spec §9 supplemental design).
	SupervisorMode bool `env:"JUDGE_SUPERVISOR_MODE, default=false"`

	// Ambient stack additions not named by spec.md but required to wire the
	// persistent store and the concrete adapters.
	LogFormat string `env:"JUDGE_LOG_FORMAT, default=json"`
	LogLevel  string `env:"JUDGE_LOG_LEVEL, default=info"`

	DatabaseDSN    string `env:"JUDGE_DATABASE_DSN, required"`
	DatabaseSchema string `env:"JUDGE_DATABASE_SCHEMA, default=public"`

	ForgeOwner string `env:"JUDGE_FORGE_OWNER"`
	ForgeRepo  string `env:"JUDGE_FORGE_REPO"`
	ForgeToken string `env:"GITHUB_TOKEN"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`

	LocalBaseRepoPath string `env:"JUDGE_LOCAL_BASE_REPO_PATH, default=."`
	LocalBaseBranch   string `env:"JUDGE_LOCAL_BASE_BRANCH, default=main"`
}

// Load resolves Config from the process environment.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("resolve config: %w", err)
	}
	return &cfg, nil
}
