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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teradata-labs/judge/internal/domain"
	"github.com/teradata-labs/judge/internal/store"
)

// EventStore implements store.EventStore. Events are append-only: there is
// no update or delete method by design (spec §3).
type EventStore struct {
	pool *pgxpool.Pool
}

func NewEventStore(pool *pgxpool.Pool) *EventStore { return &EventStore{pool: pool} }

var _ store.EventStore = (*EventStore)(nil)

func (s *EventStore) Record(ctx context.Context, event domain.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO events (id, type, entity_type, entity_id, agent_id, payload)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		event.ID, event.Type, event.EntityType, event.EntityID, event.AgentID, payloadJSON)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

func (s *EventStore) ExistsByTypeAndEntity(ctx context.Context, eventType domain.EventType, entityID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM events WHERE type = $1 AND entity_id = $2)`,
		eventType, entityID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check event existence: %w", err)
	}
	return exists, nil
}
