package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	ledgerApiAdapter "github.com/admin/photo-apps/studio-api/internal/adapters/secondary/ledgerApi"
	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/admin/photo-apps/studio-api/internal/ports/service"
	"github.com/google/uuid"
)

// Service реализует ILedgerService поверх HTTP-клиента леджера
type Service struct {
	client *ledgerApiAdapter.Client
}

// New создаёт новый сервис для работы с леджером
func New(client *ledgerApiAdapter.Client) service.ILedgerService {
	return &Service{
		client: client,
	}
}

// GetBalance возвращает текущий баланс пользователя
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	resp, err := s.client.GetBalance(ctx, userID)
	if err != nil {
		return 0, domain.WrapError(domain.CodeLedgerFailure, "failed to get balance", err)
	}
	return resp.Balance, nil
}

// OpenCharge атомарно списывает cost токенов.
// Нехватка токенов и сбой леджера различаются кодом доменной ошибки
func (s *Service) OpenCharge(ctx context.Context, userID uuid.UUID, cost int64, action domain.ActionKind) (*domain.Charge, int64, error) {
	resp, err := s.client.OpenCharge(ctx, ledgerApiAdapter.OpenChargeRequest{
		UserID: userID.String(),
		Cost:   cost,
		Action: action.String(),
	})
	if err != nil {
		if errors.Is(err, ledgerApiAdapter.ErrInsufficientBalance) {
			return nil, 0, domain.WrapError(domain.CodeNotEnoughTokens, "not enough tokens", err)
		}
		return nil, 0, domain.WrapError(domain.CodeLedgerFailure, "failed to open charge", err)
	}

	charge, err := toDomainCharge(&resp.Charge)
	if err != nil {
		return nil, 0, domain.WrapError(domain.CodeLedgerFailure, "malformed charge in ledger response", err)
	}

	return charge, resp.Balance, nil
}

// SettleCharge закрепляет списание за артефактом.
// Ошибка не типизируется: вызывающая сторона обрабатывает её best-effort
func (s *Service) SettleCharge(ctx context.Context, chargeID, artifactID uuid.UUID) error {
	if err := s.client.SettleCharge(ctx, chargeID, artifactID); err != nil {
		return fmt.Errorf("failed to settle charge %s: %w", chargeID, err)
	}
	return nil
}

// RefundCharge возвращает токены по открытому списанию
func (s *Service) RefundCharge(ctx context.Context, chargeID uuid.UUID) error {
	if err := s.client.RefundCharge(ctx, chargeID); err != nil {
		return fmt.Errorf("failed to refund charge %s: %w", chargeID, err)
	}
	return nil
}

// ListPendingCharges возвращает списания, зависшие в pending дольше olderThan
func (s *Service) ListPendingCharges(ctx context.Context, olderThan time.Duration) ([]*domain.Charge, error) {
	resp, err := s.client.ListPendingCharges(ctx, olderThan)
	if err != nil {
		return nil, domain.WrapError(domain.CodeLedgerFailure, "failed to list pending charges", err)
	}

	charges := make([]*domain.Charge, 0, len(resp.Charges))
	for i := range resp.Charges {
		charge, err := toDomainCharge(&resp.Charges[i])
		if err != nil {
			return nil, domain.WrapError(domain.CodeLedgerFailure, "malformed charge in ledger response", err)
		}
		charges = append(charges, charge)
	}

	return charges, nil
}

// toDomainCharge переводит wire-представление списания в доменное
func toDomainCharge(payload *ledgerApiAdapter.ChargePayload) (*domain.Charge, error) {
	id, err := uuid.Parse(payload.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid charge id %q: %w", payload.ID, err)
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", payload.UserID, err)
	}

	return &domain.Charge{
		ID:        id,
		UserID:    userID,
		Cost:      payload.Cost,
		Action:    domain.ActionKind(payload.Action),
		State:     domain.ChargeState(payload.State),
		CreatedAt: payload.CreatedAt,
	}, nil
}
