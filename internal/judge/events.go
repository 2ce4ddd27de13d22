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
package judge

import (
	"context"

	"go.uber.org/zap"

	"github.com/teradata-labs/judge/internal/domain"
)

// recordEvent appends an event to the audit log. It never fails the
// caller's operation: a store write failure is logged and swallowed,
// matching spec §7's rule that no error from processing one candidate
// should block the tick.
func recordEvent(ctx context.Context, svc *Services, evtType domain.EventType, entityType domain.EntityType, entityID string, payload map[string]any) {
	evt := domain.Event{
		Type:       evtType,
		EntityType: entityType,
		EntityID:   entityID,
		AgentID:    svc.AgentID,
		Payload:    payload,
	}
	if err := svc.Store.Events().Record(ctx, evt); err != nil {
		svc.Log.Warn("failed to record event",
			zap.String("type", string(evtType)),
			zap.String("entityId", entityID),
			zap.Error(err))
	}
}
