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
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/store"
)

// ArtifactStore implements store.ArtifactStore. ListPending is the
// persistence-layer half of the pending scanner (spec §4.1): it performs
// the inner join of runs/artifacts/tasks the spec describes, the caller
// (internal/judge.Scanner) only shapes the result into PendingTargets.
type ArtifactStore struct {
	pool *pgxpool.Pool
}

func NewArtifactStore(pool *pgxpool.Pool) *ArtifactStore { return &ArtifactStore{pool: pool} }

var _ store.ArtifactStore = (*ArtifactStore)(nil)

func (s *ArtifactStore) Create(ctx context.Context, artifact domain.Artifact) (string, error) {
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	metadataJSON, err := json.Marshal(artifact.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal artifact metadata: %w", err)
	}

	err = execInTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO artifacts (id, run_id, type, ref, url, metadata)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			artifact.ID, artifact.RunID, artifact.Type, artifact.Ref, artifact.URL, metadataJSON)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	return artifact.ID, nil
}

func (s *ArtifactStore) GetByRun(ctx context.Context, runID string) (*domain.Artifact, error) {
	var a domain.Artifact
	var metadataJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, run_id, type, ref, url, metadata, created_at FROM artifacts WHERE run_id = $1
		ORDER BY created_at DESC LIMIT 1`, runID).
		Scan(&a.ID, &a.RunID, &a.Type, &a.Ref, &a.URL, &metadataJSON, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get artifact by run: %w", err)
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &a.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal artifact metadata: %w", err)
		}
	}
	return &a, nil
}

// ListPending yields ready candidates (spec §4.1): artifacts of the given
// type whose run is a successful, unjudged run, whose task is blocked,
// newest run first, deduplicated by task id via DISTINCT ON.
func (s *ArtifactStore) ListPending(ctx context.Context, artifactType domain.ArtifactType) ([]store.PendingCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (t.id)
			t.id, r.id, a.type, a.ref, a.url, r.started_at,
			t.title, t.goal, t.risk_level, t.allowed_paths, t.verification_cmds, t.priority, a.metadata
		FROM runs r
		JOIN artifacts a ON a.run_id = r.id
		JOIN tasks t ON t.id = r.task_id
		WHERE a.type = $1 AND r.status = 'success' AND r.judged_at IS NULL AND t.status = 'blocked'
		ORDER BY t.id, r.started_at DESC`, artifactType)
	if err != nil {
		return nil, fmt.Errorf("list pending %s candidates: %w", artifactType, err)
	}
	defer rows.Close()

	var out []store.PendingCandidate
	for rows.Next() {
		var c store.PendingCandidate
		var metadataJSON []byte
		if err := rows.Scan(&c.TaskID, &c.RunID, &c.ArtifactType, &c.Ref, &c.URL, &c.StartedAt,
			&c.TaskTitle, &c.TaskGoal, &c.TaskRiskLevel, &c.AllowedPaths, &c.Commands, &c.Priority, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scan pending candidate: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &c.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal pending candidate metadata: %w", err)
			}
		}
		out = append(out, c)
	}

	// DISTINCT ON (t.id) ordered by (t.id, started_at desc) does not
	// guarantee overall started_at desc ordering across tasks; the spec
	// requires candidates ordered by run.started_at desc (§4.1, §5), so
	// re-sort after dedup.
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, rows.Err()
}
