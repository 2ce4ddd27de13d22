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
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/teradata-labs/judge/internal/config"
	"github.com/teradata-labs/judge/internal/forgeadapter"
	"github.com/teradata-labs/judge/internal/judge"
	"github.com/teradata-labs/judge/internal/llmadapter"
	"github.com/teradata-labs/judge/internal/log"
	"github.com/teradata-labs/judge/internal/pathpolicy"
	"github.com/teradata-labs/judge/internal/policyfile"
	"github.com/teradata-labs/judge/internal/store/postgres"
	"github.com/teradata-labs/judge/internal/vcsadapter"
)

// wired bundles the Services and the resources that outlive it and need
// an explicit Close.
type wired struct {
	svc   *judge.Services
	store *postgres.Backend
	log   *zap.Logger
}

func (w *wired) Close() {
	w.store.Close()
	_ = w.log.Sync()
}

// buildServices loads config, connects the store, and assembles the
// concrete adapters, the way looms' runServe resolves Config before
// constructing its agent and server.
func buildServices(ctx context.Context) (*wired, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := log.New(log.Format(cfg.LogFormat), cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	backend, err := postgres.Open(ctx, postgres.Config{
		DSN:    cfg.DatabaseDSN,
		Schema: cfg.DatabaseSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	doc, err := policyfile.Load(cfg.PolicyPath)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("load policy file: %w", err)
	}

	svc := &judge.Services{
		Log:      logger,
		Store:    backend,
		Config:   cfg,
		Policy:   doc.Policy(),
		Forge:    forgeadapter.New(ctx, cfg.ForgeToken, cfg.ForgeOwner, cfg.ForgeRepo),
		VCS:      vcsadapter.New(),
		LLM:      llmadapter.New(cfg.AnthropicAPIKey, cfg.JudgeModel),
		Policies: pathpolicy.NewWithDeniedCommands(doc.DeniedCommands),
		AgentID:  cfg.AgentID,
	}

	return &wired{svc: svc, store: backend, log: logger}, nil
}
