package service

import (
	"context"
	"time"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/google/uuid"
)

// ILedgerService интерфейс для работы с токен-леджером
type ILedgerService interface {
	// GetBalance возвращает текущий баланс пользователя в токенах
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	// OpenCharge атомарно списывает cost токенов одним вызовом бэкенда.
	// Возвращает открытое списание и баланс после него
	OpenCharge(ctx context.Context, userID uuid.UUID, cost int64, action domain.ActionKind) (*domain.Charge, int64, error)
	// SettleCharge закрепляет списание за сохранённым артефактом
	SettleCharge(ctx context.Context, chargeID uuid.UUID, artifactID uuid.UUID) error
	// RefundCharge возвращает токены по открытому списанию
	RefundCharge(ctx context.Context, chargeID uuid.UUID) error
	// ListPendingCharges возвращает списания, зависшие в pending дольше olderThan
	ListPendingCharges(ctx context.Context, olderThan time.Duration) ([]*domain.Charge, error)
}
