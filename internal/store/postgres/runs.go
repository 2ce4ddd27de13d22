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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/store"
)

// RunStore implements store.RunStore. Claim and Rearm are the only two
// mutations, each a single conditional UPDATE (spec §4.2).
type RunStore struct {
	pool *pgxpool.Pool
}

func NewRunStore(pool *pgxpool.Pool) *RunStore { return &RunStore{pool: pool} }

var _ store.RunStore = (*RunStore)(nil)

func (s *RunStore) Get(ctx context.Context, id string) (*domain.Run, error) {
	var r domain.Run
	err := s.pool.QueryRow(ctx, `
		SELECT id, task_id, status, started_at, finished_at, error_message, judged_at, judgement_version
		FROM runs WHERE id = $1`, id).
		Scan(&r.ID, &r.TaskID, &r.Status, &r.StartedAt, &r.FinishedAt, &r.ErrorMessage, &r.JudgedAt, &r.JudgementVersion)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &r, nil
}

// Claim is the run-claim protocol's one operation (spec §4.2): an atomic
// conditional update that returns true iff this call won exclusive
// judgement of runID.
func (s *RunStore) Claim(ctx context.Context, runID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE runs SET judged_at = now(), judgement_version = judgement_version + 1
		WHERE id = $1 AND status = 'success' AND judged_at IS NULL`, runID)
	if err != nil {
		return false, fmt.Errorf("claim run: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Rearm sets judged_at back to null, restoring eligibility.
func (s *RunStore) Rearm(ctx context.Context, runID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE runs SET judged_at = NULL WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("rearm run: %w", err)
	}
	return nil
}

func (s *RunStore) HasPendingJudgement(ctx context.Context, taskID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM runs WHERE task_id = $1 AND status = 'success' AND judged_at IS NULL
		)`, taskID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending judgement: %w", err)
	}
	return exists, nil
}

func (s *RunStore) FindLatestJudgeableByTask(ctx context.Context, taskID string) (*domain.Run, error) {
	var r domain.Run
	err := s.pool.QueryRow(ctx, `
		SELECT r.id, r.task_id, r.status, r.started_at, r.finished_at, r.error_message, r.judged_at, r.judgement_version
		FROM runs r
		JOIN artifacts a ON a.run_id = r.id
		WHERE r.task_id = $1 AND r.status = 'success' AND a.type IN ('pr', 'worktree')
		ORDER BY r.started_at DESC LIMIT 1`, taskID).
		Scan(&r.ID, &r.TaskID, &r.Status, &r.StartedAt, &r.FinishedAt, &r.ErrorMessage, &r.JudgedAt, &r.JudgementVersion)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find latest judgeable run: %w", err)
	}
	return &r, nil
}
