package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChargeEventType тип billing-события
type ChargeEventType string

const (
	ChargeEventOpened       ChargeEventType = "charge_opened"
	ChargeEventSettled      ChargeEventType = "charge_settled"
	ChargeEventRefunded     ChargeEventType = "charge_refunded"
	ChargeEventSettleFailed ChargeEventType = "settle_failed" // charge завис в pending, нужна сверка
	ChargeEventRefundFailed ChargeEventType = "refund_failed" // charge завис в pending, нужна сверка
	ChargeEventTrimFailed   ChargeEventType = "trim_failed"   // история не подрезана, допустимо
)

// ChargeEvent billing-событие для топика аудита.
// По этим событиям операторы сверяют зависшие pending-списания:
// сами ошибки settle/refund наружу не отдаются и запрос не валят
type ChargeEvent struct {
	Event      ChargeEventType `json:"event"`
	ChargeID   uuid.UUID       `json:"charge_id"`
	UserID     uuid.UUID       `json:"user_id"`
	Action     ActionKind      `json:"action"`
	Cost       int64           `json:"cost"`
	ArtifactID *uuid.UUID      `json:"artifact_id,omitempty"`
	Stage      GenerationStage `json:"stage,omitempty"` // шаг, на котором случился сбой
	Error      *string         `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
