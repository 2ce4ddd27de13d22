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

// Package postgres is the Postgres-backed implementation of
// internal/store, grounded on the teacher's pkg/storage/postgres package:
// one pgxpool.Pool, a migrator run at startup, and a thin accessor per
// table rather than one god-struct with fifty methods.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teradata-labs/judge/internal/store"
)

// Backend wires one pgxpool.Pool to every per-table store and implements
// store.Backend.
type Backend struct {
	pool *pgxpool.Pool

	tasks      *TaskStore
	runs       *RunStore
	artifacts  *ArtifactStore
	events     *EventStore
	mergeQueue *MergeQueueStore
	agents     *AgentStore
}

var _ store.Backend = (*Backend)(nil)

// Open connects, runs pending migrations, and returns a ready Backend.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	migrator, err := NewMigrator(pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	if err := migrator.MigrateUp(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Backend{
		pool:       pool,
		tasks:      NewTaskStore(pool),
		runs:       NewRunStore(pool),
		artifacts:  NewArtifactStore(pool),
		events:     NewEventStore(pool),
		mergeQueue: NewMergeQueueStore(pool),
		agents:     NewAgentStore(pool),
	}, nil
}

func (b *Backend) Tasks() store.TaskStore           { return b.tasks }
func (b *Backend) Runs() store.RunStore             { return b.runs }
func (b *Backend) Artifacts() store.ArtifactStore   { return b.artifacts }
func (b *Backend) Events() store.EventStore         { return b.events }
func (b *Backend) MergeQueue() store.MergeQueueStore { return b.mergeQueue }
func (b *Backend) Agents() store.AgentStore         { return b.agents }

func (b *Backend) Ping(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (b *Backend) Close() { b.pool.Close() }
