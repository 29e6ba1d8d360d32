package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/google/uuid"
)

// emitChargeEvent отправляет billing-событие в Kafka, не падает если брокер недоступен
func (s *Service) emitChargeEvent(
	ctx context.Context,
	eventType domain.ChargeEventType,
	charge *domain.Charge,
	artifactID *uuid.UUID,
	stage domain.GenerationStage,
	cause error,
) {
	if s.Producer == nil {
		return
	}

	event := &domain.ChargeEvent{
		Event:      eventType,
		ChargeID:   charge.ID,
		UserID:     charge.UserID,
		Action:     charge.Action,
		Cost:       charge.Cost,
		ArtifactID: artifactID,
		Stage:      stage,
		CreatedAt:  time.Now().UTC(),
	}
	if cause != nil {
		msg := cause.Error()
		event.Error = &msg
	}

	if err := s.Producer.SendChargeEvent(ctx, event); err != nil {
		s.Log.Warn("failed to send billing event (non-critical)",
			"error", err,
			"event", eventType,
			"charge_id", charge.ID,
		)
	}
}

// alertStuckCharge шлёт алерт про списание, зависшее в pending, не падает
// если алертер не настроен
func (s *Service) alertStuckCharge(ctx context.Context, reason string, charge *domain.Charge, stage domain.GenerationStage, cause error) {
	if s.AlerterService == nil {
		return
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("❌ Charge stuck in pending: %s\n", reason))
	builder.WriteString(fmt.Sprintf("🆔 Charge ID: `%s`\n", charge.ID))
	builder.WriteString(fmt.Sprintf("👤 User ID: `%s`\n", charge.UserID))
	builder.WriteString(fmt.Sprintf("⚙️ Stage: %s, action: %s, cost: %d\n", stage, charge.Action, charge.Cost))
	if cause != nil {
		builder.WriteString(fmt.Sprintf("💬 Error: %s\n", cause.Error()))
	}

	if err := s.AlerterService.SendAlert(ctx, builder.String()); err != nil {
		s.Log.Warn("failed to send alert (non-critical)",
			"error", err,
			"charge_id", charge.ID,
		)
	}
}
