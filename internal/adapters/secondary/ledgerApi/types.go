package ledgerApi

import "time"

// ChargePayload списание в wire-формате леджера
type ChargePayload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Cost      int64     `json:"cost"`
	Action    string    `json:"action"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// BalanceResponse ответ на запрос баланса
type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// OpenChargeRequest запрос на открытие списания
type OpenChargeRequest struct {
	UserID string `json:"user_id"`
	Cost   int64  `json:"cost"`
	Action string `json:"action"`
}

// OpenChargeResponse ответ на открытие списания: само списание и баланс после него
type OpenChargeResponse struct {
	Charge  ChargePayload `json:"charge"`
	Balance int64         `json:"balance"`
}

// SettleChargeRequest запрос на закрепление списания за артефактом
type SettleChargeRequest struct {
	ArtifactID string `json:"artifact_id"`
}

// PendingChargesResponse список зависших pending-списаний
type PendingChargesResponse struct {
	Charges []ChargePayload `json:"charges"`
}

// ErrorResponse тело ошибки леджера.
// Леджер может отвечать и не-JSON телом, тогда парсинг игнорируется
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
