package session

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/admin/photo-apps/studio-api/internal/ports/cache"
	"github.com/admin/photo-apps/studio-api/internal/ports/service"
	"github.com/google/uuid"
)

const sessionKeyPrefix = "session:"

// Service резолвит токены сессий через Redis, куда их кладёт auth-сервис
type Service struct {
	cache cache.Cache
	log   *slog.Logger
}

// New создаёт новый сервис сессий
func New(c cache.Cache, log *slog.Logger) service.ISessionService {
	return &Service{
		cache: c,
		log:   log,
	}
}

// Resolve возвращает id пользователя по токену сессии.
// Отсутствующий или битый токен и недоступный кэш дают разные коды:
// первый лечится повторным логином, второй нет
func (s *Service) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, domain.NewError(domain.CodeUnauthorized, "missing session token")
	}

	value, err := s.cache.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return uuid.Nil, domain.NewError(domain.CodeUnauthorized, "session not found or expired")
		}
		return uuid.Nil, domain.WrapError(domain.CodeInternal, "failed to resolve session", err)
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		s.log.Warn("session value is not a valid user id", "error", err)
		return uuid.Nil, domain.WrapError(domain.CodeUnauthorized, "invalid session", fmt.Errorf("failed to parse user id: %w", err))
	}

	return userID, nil
}
