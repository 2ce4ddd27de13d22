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
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/store"
)

// TaskStore is the tasks table adapter. Grounded on the teacher's
// pkg/storage/postgres/result_store.go: every mutation goes through
// execInTx, identifiers are never interpolated raw.
type TaskStore struct {
	pool *pgxpool.Pool
}

// NewTaskStore returns a store.TaskStore backed by pool.
func NewTaskStore(pool *pgxpool.Pool) *TaskStore {
	return &TaskStore{pool: pool}
}

var _ store.TaskStore = (*TaskStore)(nil)

func (s *TaskStore) Get(ctx context.Context, id string) (*domain.Task, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, goal, role, status, block_reason, risk_level, priority,
		       allowed_paths, denied_commands, verification_cmds, dependencies,
		       retry_count, timebox_minutes, kind, context, notes, created_at, updated_at
		FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	var contextJSON []byte
	if err := row.Scan(&t.ID, &t.Title, &t.Goal, &t.Role, &t.Status, &t.BlockReason, &t.RiskLevel, &t.Priority,
		&t.AllowedPaths, &t.DeniedCommands, &t.VerificationCmds, &t.Dependencies,
		&t.RetryCount, &t.TimeboxMinutes, &t.Kind, &contextJSON, &t.Notes, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &t.Context); err != nil {
			return nil, fmt.Errorf("unmarshal task context: %w", err)
		}
	}
	return &t, nil
}

func (s *TaskStore) Create(ctx context.Context, task domain.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	contextJSON, err := json.Marshal(task.Context)
	if err != nil {
		return "", fmt.Errorf("marshal task context: %w", err)
	}

	err = execInTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO tasks (id, title, goal, role, status, block_reason, risk_level, priority,
			                    allowed_paths, denied_commands, verification_cmds, dependencies,
			                    retry_count, timebox_minutes, kind, context, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
			task.ID, task.Title, task.Goal, task.Role, task.Status, task.BlockReason, task.RiskLevel, task.Priority,
			task.AllowedPaths, task.DeniedCommands, task.VerificationCmds, task.Dependencies,
			task.RetryCount, task.TimeboxMinutes, task.Kind, contextJSON, task.Notes)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	return task.ID, nil
}

func (s *TaskStore) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, reason domain.BlockReason) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET status = $2, block_reason = $3, updated_at = now() WHERE id = $1`,
		id, status, reason)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *TaskStore) IncrementRetryCount(ctx context.Context, id string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		UPDATE tasks SET retry_count = retry_count + 1, updated_at = now()
		WHERE id = $1 RETURNING retry_count`, id).Scan(&count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, store.ErrNotFound
		}
		return 0, fmt.Errorf("increment retry count: %w", err)
	}
	return count, nil
}

func (s *TaskStore) CountByTitlePrefix(ctx context.Context, prefix string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM tasks WHERE title LIKE $1`, prefix+"%").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tasks by title prefix: %w", err)
	}
	return count, nil
}

func (s *TaskStore) FindActiveByTitlePrefix(ctx context.Context, prefix string) (*domain.Task, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, goal, role, status, block_reason, risk_level, priority,
		       allowed_paths, denied_commands, verification_cmds, dependencies,
		       retry_count, timebox_minutes, kind, context, notes, created_at, updated_at
		FROM tasks
		WHERE title LIKE $1 AND status IN ('queued', 'running', 'blocked')
		ORDER BY created_at DESC LIMIT 1`, prefix+"%")
	task, err := scanTask(row)
	if err == store.ErrNotFound {
		return nil, nil
	}
	return task, err
}

func (s *TaskStore) FindAwaitingJudgeOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, goal, role, status, block_reason, risk_level, priority,
		       allowed_paths, denied_commands, verification_cmds, dependencies,
		       retry_count, timebox_minutes, kind, context, notes, created_at, updated_at
		FROM tasks
		WHERE status = 'blocked' AND block_reason = 'awaiting_judge' AND updated_at <= $1
		ORDER BY updated_at ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find awaiting-judge tasks: %w", err)
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *task)
	}
	return out, rows.Err()
}
