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

// Package judge is the Judge control plane: the polling loop, run-claim
// protocol, evaluator orchestrator, verdict engine, action executor,
// auto-remediation ladder, merge queue, backlog recovery, circuit
// breakers, local-mode merge driver, agent heartbeat, and Docser trigger
// (spec §2, §4). Every component takes a *Services reference rather than
// reaching into package-level state (spec §9 design note).
package judge

import (
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/judge/internal/config"
	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/store"
)

// Clock is the narrow time source components depend on, so tests can
// freeze or advance it instead of sleeping real wall-clock time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production Clock.
var SystemClock Clock = systemClock{}

// Services is the root struct every component receives by reference: the
// store, every collaborator adapter, policy, config, logger, and clock.
// There is no package-level mutable state anywhere in this package.
type Services struct {
	Log    *zap.Logger
	Store  store.Backend
	Config *config.Config
	Policy domain.Policy
	Clock  Clock

	Forge   ForgeAdapter
	VCS     LocalVCSAdapter
	LLM     LLMAdapter
	Policies PolicyEvaluator

	AgentID string
}

func (s *Services) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}
