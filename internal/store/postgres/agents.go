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
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/store"
)

// AgentStore implements store.AgentStore (spec §4.11).
type AgentStore struct {
	pool *pgxpool.Pool
}

func NewAgentStore(pool *pgxpool.Pool) *AgentStore { return &AgentStore{pool: pool} }

var _ store.AgentStore = (*AgentStore)(nil)

// Heartbeat upserts the row and, per spec §4.11, flips a previously
// offline agent back to idle as part of the same write — an agent that
// is writing a heartbeat is by definition no longer offline.
func (s *AgentStore) Heartbeat(ctx context.Context, agentID string, role string, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO agents (id, role, status, last_heartbeat)
		VALUES ($1, $2, 'idle', $3)
		ON CONFLICT (id) DO UPDATE SET
			last_heartbeat = $3,
			status = CASE WHEN agents.status = 'offline' THEN 'idle' ELSE agents.status END`,
		agentID, role, now)
	if err != nil {
		return fmt.Errorf("record agent heartbeat: %w", err)
	}
	return nil
}

func (s *AgentStore) SetStatus(ctx context.Context, agentID string, status domain.AgentStatus, currentTaskID *string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE agents SET status = $2, current_task_id = $3 WHERE id = $1`,
		agentID, status, currentTaskID)
	if err != nil {
		return fmt.Errorf("set agent status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
