package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionKind вид платного действия, за которое списываются токены
type ActionKind string

const (
	ActionQuickGeneration ActionKind = "quick_generation" // быстрая генерация (дешёвая модель)
	ActionProGeneration   ActionKind = "pro_generation"   // генерация на сильной модели
	ActionCutout          ActionKind = "cutout"           // вырезание фона
)

// AllActionKinds возвращает все виды платных действий
func AllActionKinds() []ActionKind {
	return []ActionKind{
		ActionQuickGeneration,
		ActionProGeneration,
		ActionCutout,
	}
}

// String возвращает строковое представление действия
func (a ActionKind) String() string {
	return string(a)
}

// IsValid проверяет, является ли вид действия валидным
func (a ActionKind) IsValid() bool {
	switch a {
	case ActionQuickGeneration, ActionProGeneration, ActionCutout:
		return true
	default:
		return false
	}
}

// ChargeState состояние списания в леджере
type ChargeState string

const (
	ChargeStatePending  ChargeState = "pending"  // открыто, ждёт settle или refund
	ChargeStateSettled  ChargeState = "settled"  // закреплено за успешной генерацией
	ChargeStateRefunded ChargeState = "refunded" // возвращено пользователю
)

// IsTerminal проверяет, что списание в финальном состоянии (из него нет переходов)
func (s ChargeState) IsTerminal() bool {
	return s == ChargeStateSettled || s == ChargeStateRefunded
}

// Charge списание токенов в леджер-сервисе за одну попытку генерации.
// Создаётся и мутируется только леджер-бэкендом, мы храним его представление
type Charge struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Cost      int64       `json:"cost"`
	Action    ActionKind  `json:"action"`
	State     ChargeState `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
}
