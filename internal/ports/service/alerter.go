package service

import (
	"context"
)

// IAlerterService интерфейс для отправки алертов в операторский чат
type IAlerterService interface {
	SendAlert(ctx context.Context, message string) error
}
