package service

import (
	"context"

	"github.com/google/uuid"
)

// ISessionService интерфейс для резолва сессий auth-сервиса
type ISessionService interface {
	// Resolve возвращает id пользователя по токену сессии
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
}
